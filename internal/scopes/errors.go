package scopes

import "fmt"

// UnknownServiceError reports a selection entry that names a service the
// catalog does not know about. This is a configuration error; retrying does
// not help.
type UnknownServiceError struct {
	Service string
}

func (e *UnknownServiceError) Error() string {
	return fmt.Sprintf("unknown service %q in selection", e.Service)
}

// CycleError reports a dependency cycle among services. The catalog is
// compiled-in data, so a cycle is a programming error surfaced at startup.
type CycleError struct {
	Service string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle through service %q", e.Service)
}
