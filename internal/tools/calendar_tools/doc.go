// Package calendar_tools provides MCP tools for Google Calendar:
// listing calendars and events, event CRUD, and free/busy queries.
// Every handler acquires its client through the server context, which
// admits the calendar service through the capability gate first.
package calendar_tools
