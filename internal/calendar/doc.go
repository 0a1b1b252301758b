// Package calendar provides a client for the Google Calendar API.
//
// The client covers event management (create, read, update, delete),
// calendar listing, and free/busy queries. Authentication is injected as an
// oauth2.TokenSource, so every request carries a token the credential
// manager has validated for the current service selection.
package calendar
