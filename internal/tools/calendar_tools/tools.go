package calendar_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/workspace-mcp/internal/calendar"
	"github.com/teemow/workspace-mcp/internal/server"
	"github.com/teemow/workspace-mcp/internal/tools/common"
)

// RegisterCalendarTools registers all Calendar-related tools with the MCP server.
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listCalendarsTool := mcp.NewTool("calendar_list_calendars",
		mcp.WithDescription("List all calendars accessible to the user"),
	)
	s.AddTool(listCalendarsTool, common.InstrumentedToolHandlerWithService("calendar_list_calendars", "calendar", "list_calendars", sc.Metrics(),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListCalendars(ctx, sc)
		}))

	listEventsTool := mcp.NewTool("calendar_list_events",
		mcp.WithDescription("List/search calendar events within a time range"),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (use 'primary' for the primary calendar)"),
		),
		mcp.WithString("timeMin",
			mcp.Required(),
			mcp.Description("Start of the range (RFC3339 format, e.g., '2026-01-01T00:00:00Z')"),
		),
		mcp.WithString("timeMax",
			mcp.Required(),
			mcp.Description("End of the range (RFC3339 format, e.g., '2026-01-31T23:59:59Z')"),
		),
		mcp.WithString("query",
			mcp.Description("Optional search query to filter events"),
		),
	)
	s.AddTool(listEventsTool, common.InstrumentedToolHandlerWithService("calendar_list_events", "calendar", "list_events", sc.Metrics(),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListEvents(ctx, request, sc)
		}))

	getEventTool := mcp.NewTool("calendar_get_event",
		mcp.WithDescription("Get details of a specific calendar event"),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (use 'primary' for the primary calendar)"),
		),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to retrieve"),
		),
	)
	s.AddTool(getEventTool, common.InstrumentedToolHandlerWithService("calendar_get_event", "calendar", "get_event", sc.Metrics(),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetEvent(ctx, request, sc)
		}))

	createEventTool := mcp.NewTool("calendar_create_event",
		mcp.WithDescription("Create a new calendar event (supports all-day and recurring events)"),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (use 'primary' for the primary calendar)"),
		),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Event title/summary"),
		),
		mcp.WithString("description",
			mcp.Description("Event description"),
		),
		mcp.WithString("location",
			mcp.Description("Event location"),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start time (RFC3339 format, e.g., '2026-01-15T14:00:00Z')"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("End time (RFC3339 format, e.g., '2026-01-15T15:00:00Z')"),
		),
		mcp.WithString("timeZone",
			mcp.Description("Time zone (e.g., 'Europe/Berlin'). Defaults to UTC."),
		),
		mcp.WithString("attendees",
			mcp.Description("Comma-separated list of attendee email addresses"),
		),
		mcp.WithString("recurrence",
			mcp.Description("Recurrence rule (e.g., 'RRULE:FREQ=WEEKLY;BYDAY=MO,WE,FR')"),
		),
		mcp.WithBoolean("allDay",
			mcp.Description("Create as all-day event (ignores the time portion of start/end)"),
		),
	)
	s.AddTool(createEventTool, common.InstrumentedToolHandlerWithService("calendar_create_event", "calendar", "create_event", sc.Metrics(),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateEvent(ctx, request, sc)
		}))

	updateEventTool := mcp.NewTool("calendar_update_event",
		mcp.WithDescription("Update an existing calendar event. Only provided fields are changed."),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (use 'primary' for the primary calendar)"),
		),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to update"),
		),
		mcp.WithString("summary",
			mcp.Description("New event title/summary"),
		),
		mcp.WithString("description",
			mcp.Description("New event description"),
		),
		mcp.WithString("location",
			mcp.Description("New event location"),
		),
		mcp.WithString("start",
			mcp.Description("New start time (RFC3339 format)"),
		),
		mcp.WithString("end",
			mcp.Description("New end time (RFC3339 format)"),
		),
	)
	s.AddTool(updateEventTool, common.InstrumentedToolHandlerWithService("calendar_update_event", "calendar", "update_event", sc.Metrics(),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateEvent(ctx, request, sc)
		}))

	deleteEventTool := mcp.NewTool("calendar_delete_event",
		mcp.WithDescription("Delete a calendar event"),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (use 'primary' for the primary calendar)"),
		),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to delete"),
		),
	)
	s.AddTool(deleteEventTool, common.InstrumentedToolHandlerWithService("calendar_delete_event", "calendar", "delete_event", sc.Metrics(),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteEvent(ctx, request, sc)
		}))

	freeBusyTool := mcp.NewTool("calendar_query_free_busy",
		mcp.WithDescription("Query free/busy information for one or more calendars"),
		mcp.WithString("timeMin",
			mcp.Required(),
			mcp.Description("Start of the range (RFC3339 format)"),
		),
		mcp.WithString("timeMax",
			mcp.Required(),
			mcp.Description("End of the range (RFC3339 format)"),
		),
		mcp.WithString("calendarIds",
			mcp.Description("Comma-separated calendar IDs (default: 'primary')"),
		),
	)
	s.AddTool(freeBusyTool, common.InstrumentedToolHandlerWithService("calendar_query_free_busy", "calendar", "free_busy", sc.Metrics(),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleQueryFreeBusy(ctx, request, sc)
		}))

	return nil
}

func calendarIDFromArgs(args map[string]interface{}) string {
	if calIDVal, ok := args["calendarId"].(string); ok && calIDVal != "" {
		return calIDVal
	}
	return "primary"
}

func parseTimeArg(args map[string]interface{}, name string) (time.Time, error) {
	str, ok := args[name].(string)
	if !ok || str == "" {
		return time.Time{}, fmt.Errorf("%s is required", name)
	}
	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s format: %w", name, err)
	}
	return t, nil
}

func handleListCalendars(ctx context.Context, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, err := sc.CalendarClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	calendars, err := common.RetryTransient(ctx, func() ([]calendar.CalendarInfo, error) {
		return client.ListCalendars()
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list calendars: %v", err)), nil
	}

	if len(calendars) == 0 {
		return mcp.NewToolResultText("No calendars found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d calendars:\n\n", len(calendars))
	for _, cal := range calendars {
		fmt.Fprintf(&b, "- %s (ID: %s)", cal.Summary, cal.ID)
		if cal.Primary {
			b.WriteString(" [primary]")
		}
		fmt.Fprintf(&b, "\n  Access: %s", cal.AccessRole)
		if cal.TimeZone != "" {
			fmt.Fprintf(&b, ", TimeZone: %s", cal.TimeZone)
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleListEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	calendarID := calendarIDFromArgs(args)

	timeMin, err := parseTimeArg(args, "timeMin")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	timeMax, err := parseTimeArg(args, "timeMax")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query := ""
	if queryVal, ok := args["query"].(string); ok {
		query = queryVal
	}

	client, err := sc.CalendarClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	events, err := common.RetryTransient(ctx, func() ([]calendar.EventSummary, error) {
		return client.ListEvents(calendarID, timeMin, timeMax, query)
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list events: %v", err)), nil
	}

	if len(events) == 0 {
		return mcp.NewToolResultText("No events found in the given range."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d events:\n\n", len(events))
	for _, event := range events {
		fmt.Fprintf(&b, "- %s (ID: %s)\n", event.Summary, event.ID)
		fmt.Fprintf(&b, "  %s to %s\n", event.Start.Format(time.RFC3339), event.End.Format(time.RFC3339))
		if event.Location != "" {
			fmt.Fprintf(&b, "  Location: %s\n", event.Location)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleGetEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	calendarID := calendarIDFromArgs(args)

	eventID, ok := args["eventId"].(string)
	if !ok || eventID == "" {
		return mcp.NewToolResultError("eventId is required"), nil
	}

	client, err := sc.CalendarClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	event, err := common.RetryTransient(ctx, func() (*calendar.EventSummary, error) {
		return client.GetEvent(calendarID, eventID)
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get event: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Event: %s\n", event.Summary)
	fmt.Fprintf(&b, "ID: %s\n", event.ID)
	fmt.Fprintf(&b, "Start: %s\n", event.Start.Format(time.RFC3339))
	fmt.Fprintf(&b, "End: %s\n", event.End.Format(time.RFC3339))
	fmt.Fprintf(&b, "Status: %s\n", event.Status)
	if event.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", event.Description)
	}
	if event.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", event.Location)
	}
	if event.Organizer != "" {
		fmt.Fprintf(&b, "Organizer: %s\n", event.Organizer)
	}
	if len(event.Attendees) > 0 {
		fmt.Fprintf(&b, "\nAttendees (%d):\n", len(event.Attendees))
		for _, att := range event.Attendees {
			fmt.Fprintf(&b, "  - %s (%s)", att.Email, att.ResponseStatus)
			if att.Optional {
				b.WriteString(" [optional]")
			}
			b.WriteString("\n")
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleCreateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	calendarID := calendarIDFromArgs(args)

	summary, ok := args["summary"].(string)
	if !ok || summary == "" {
		return mcp.NewToolResultError("summary is required"), nil
	}

	start, err := parseTimeArg(args, "start")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	end, err := parseTimeArg(args, "end")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	input := calendar.EventInput{
		Summary: summary,
		Start:   start,
		End:     end,
	}
	if desc, ok := args["description"].(string); ok {
		input.Description = desc
	}
	if loc, ok := args["location"].(string); ok {
		input.Location = loc
	}
	if tz, ok := args["timeZone"].(string); ok {
		input.TimeZone = tz
	}
	if attendeesStr, ok := args["attendees"].(string); ok && attendeesStr != "" {
		input.Attendees = strings.Split(attendeesStr, ",")
		for i := range input.Attendees {
			input.Attendees[i] = strings.TrimSpace(input.Attendees[i])
		}
	}
	if recurrence, ok := args["recurrence"].(string); ok && recurrence != "" {
		input.Recurrence = []string{recurrence}
	}
	if allDay, ok := args["allDay"].(bool); ok {
		input.AllDay = allDay
	}

	client, err := sc.CalendarClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	event, err := common.RetryTransient(ctx, func() (*calendar.EventSummary, error) {
		return client.CreateEvent(calendarID, input)
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create event: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Event created: %s (ID: %s)", event.Summary, event.ID)), nil
}

func handleUpdateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	calendarID := calendarIDFromArgs(args)

	eventID, ok := args["eventId"].(string)
	if !ok || eventID == "" {
		return mcp.NewToolResultError("eventId is required"), nil
	}

	var input calendar.EventInput
	if summary, ok := args["summary"].(string); ok {
		input.Summary = summary
	}
	if desc, ok := args["description"].(string); ok {
		input.Description = desc
	}
	if loc, ok := args["location"].(string); ok {
		input.Location = loc
	}
	if startStr, ok := args["start"].(string); ok && startStr != "" {
		start, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid start format: %v", err)), nil
		}
		input.Start = start
	}
	if endStr, ok := args["end"].(string); ok && endStr != "" {
		end, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid end format: %v", err)), nil
		}
		input.End = end
	}

	client, err := sc.CalendarClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	event, err := common.RetryTransient(ctx, func() (*calendar.EventSummary, error) {
		return client.UpdateEvent(calendarID, eventID, input)
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to update event: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Event updated: %s (ID: %s)", event.Summary, event.ID)), nil
}

func handleDeleteEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	calendarID := calendarIDFromArgs(args)

	eventID, ok := args["eventId"].(string)
	if !ok || eventID == "" {
		return mcp.NewToolResultError("eventId is required"), nil
	}

	client, err := sc.CalendarClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if _, err := common.RetryTransient(ctx, func() (struct{}, error) {
		return struct{}{}, client.DeleteEvent(calendarID, eventID)
	}); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete event: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Event %s deleted.", eventID)), nil
}

func handleQueryFreeBusy(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	timeMin, err := parseTimeArg(args, "timeMin")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	timeMax, err := parseTimeArg(args, "timeMax")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	calendarIDs := []string{"primary"}
	if idsStr, ok := args["calendarIds"].(string); ok && idsStr != "" {
		calendarIDs = strings.Split(idsStr, ",")
		for i := range calendarIDs {
			calendarIDs[i] = strings.TrimSpace(calendarIDs[i])
		}
	}

	client, err := sc.CalendarClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	infos, err := common.RetryTransient(ctx, func() ([]calendar.FreeBusyInfo, error) {
		return client.QueryFreeBusy(timeMin, timeMax, calendarIDs)
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to query free/busy: %v", err)), nil
	}

	var b strings.Builder
	for _, info := range infos {
		fmt.Fprintf(&b, "Calendar %s:\n", info.Calendar)
		if len(info.Busy) == 0 {
			b.WriteString("  Free for the entire range.\n")
		}
		for _, busy := range info.Busy {
			fmt.Fprintf(&b, "  Busy: %s to %s\n", busy.Start.Format(time.RFC3339), busy.End.Format(time.RFC3339))
		}
		for _, errMsg := range info.Errors {
			fmt.Fprintf(&b, "  Error: %s\n", errMsg)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}
