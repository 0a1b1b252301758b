package scopes

import (
	"fmt"
	"sort"
)

// Service describes one capability group: the OAuth scopes it needs and the
// other services that must be enabled alongside it.
type Service struct {
	// Name is the identifier used in configuration (e.g. "calendar").
	Name string

	// Description is shown to users in configuration summaries.
	Description string

	// Scopes are the Google OAuth scope URLs this service requires.
	Scopes []string

	// Requires lists services that must also be enabled whenever this
	// service is enabled.
	Requires []string
}

// Catalog holds the compiled-in set of services and their dependency edges.
// The catalog is fixed data; only which services are enabled is
// user-configurable.
type Catalog struct {
	services map[string]Service
}

// NewCatalog builds a catalog from the given services. It fails fast on
// dependency edges that point at unknown services and on dependency cycles,
// so a broken service table is caught at startup rather than during
// resolution.
func NewCatalog(services []Service) (*Catalog, error) {
	byName := make(map[string]Service, len(services))
	for _, svc := range services {
		if _, ok := byName[svc.Name]; ok {
			return nil, fmt.Errorf("duplicate service %q in catalog", svc.Name)
		}
		byName[svc.Name] = svc
	}

	c := &Catalog{services: byName}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// validate checks dependency edges for unknown targets and cycles.
func (c *Catalog) validate() error {
	for name, svc := range c.services {
		for _, dep := range svc.Requires {
			if _, ok := c.services[dep]; !ok {
				return fmt.Errorf("service %q requires unknown service %q", name, dep)
			}
		}
	}

	// Depth-first search with coloring: a back edge is a cycle.
	const (
		white = 0 // unvisited
		grey  = 1 // on the current path
		black = 2 // fully explored
	)
	color := make(map[string]int, len(c.services))

	var visit func(name string) error
	visit = func(name string) error {
		switch color[name] {
		case grey:
			return &CycleError{Service: name}
		case black:
			return nil
		}
		color[name] = grey
		for _, dep := range c.services[name].Requires {
			if err := visit(dep); err != nil {
				return err
			}
		}
		color[name] = black
		return nil
	}

	for _, name := range c.sortedNames() {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

// Has reports whether the catalog contains a service with the given name.
func (c *Catalog) Has(name string) bool {
	_, ok := c.services[name]
	return ok
}

// Service returns the service with the given name.
func (c *Catalog) Service(name string) (Service, bool) {
	svc, ok := c.services[name]
	return svc, ok
}

// Names returns all service names in sorted order.
func (c *Catalog) Names() []string {
	return c.sortedNames()
}

func (c *Catalog) sortedNames() []string {
	names := make([]string, 0, len(c.services))
	for name := range c.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultCatalog returns the built-in Google Workspace service catalog.
// Docs, Sheets and Slides require Drive: their APIs create files, and file
// placement needs Drive access.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog([]Service{
		{
			Name:        "calendar",
			Description: "Create, view, and manage calendar events",
			Scopes:      []string{"https://www.googleapis.com/auth/calendar"},
		},
		{
			Name:        "gmail",
			Description: "Send, read, and manage email messages",
			Scopes:      []string{"https://www.googleapis.com/auth/gmail.modify"},
		},
		{
			Name:        "docs",
			Description: "Create and edit Google Documents",
			Scopes:      []string{"https://www.googleapis.com/auth/documents"},
			Requires:    []string{"drive"},
		},
		{
			Name:        "sheets",
			Description: "Create and edit Google Spreadsheets",
			Scopes:      []string{"https://www.googleapis.com/auth/spreadsheets"},
			Requires:    []string{"drive"},
		},
		{
			Name:        "slides",
			Description: "Create and edit Google Presentations",
			Scopes:      []string{"https://www.googleapis.com/auth/presentations"},
			Requires:    []string{"drive"},
		},
		{
			Name:        "drive",
			Description: "Access Google Drive files (required for Docs/Sheets/Slides)",
			Scopes:      []string{"https://www.googleapis.com/auth/drive.file"},
		},
	})
	if err != nil {
		// The built-in table is compiled-in data; a validation failure here
		// is a programming error.
		panic(err)
	}
	return c
}
