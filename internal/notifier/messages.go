package notifier

import (
	"fmt"
	"strings"
	"time"

	"meetman/internal/models"
)

// BuildReminderMessage renders the individual reminder body for a
// meeting's designated attendee.
func BuildReminderMessage(meeting *models.Meeting, participant *models.Participant, leadMinutes int, loc *time.Location) string {
	var b strings.Builder

	b.WriteString("*Meeting Reminder*\n\n")
	fmt.Fprintf(&b, "Hello %s, you are the designated attendee for an upcoming meeting.\n\n", participant.Name)
	fmt.Fprintf(&b, "Title: %s\n", meeting.Title)
	fmt.Fprintf(&b, "Date: %s\n", meeting.StartsAt(loc).Format("Monday, 02 Jan 2006"))
	fmt.Fprintf(&b, "Time: %s - %s\n", meeting.StartTime.Short(), meeting.EndTime.Short())
	fmt.Fprintf(&b, "Location: %s\n", meeting.Location)
	if meeting.Description != "" {
		fmt.Fprintf(&b, "Notes: %s\n", meeting.Description)
	}
	fmt.Fprintf(&b, "\nThe meeting starts in %d minutes. Please be on time.", leadMinutes)

	return b.String()
}

// BuildDailyAgenda renders the single group broadcast carrying the full
// agenda for one calendar date. Meetings are listed in start-time order.
func BuildDailyAgenda(date time.Time, meetings []models.Meeting) string {
	var b strings.Builder

	b.WriteString("*Meeting Agenda*\n")
	fmt.Fprintf(&b, "%s\n\n", date.Format("Monday, 02 Jan 2006"))

	if len(meetings) == 1 {
		b.WriteString("There is 1 meeting scheduled today:\n\n")
	} else {
		fmt.Fprintf(&b, "There are %d meetings scheduled today:\n\n", len(meetings))
	}

	for i, meeting := range meetings {
		fmt.Fprintf(&b, "%d. *%s*\n", i+1, meeting.Title)
		fmt.Fprintf(&b, "   Time: %s - %s\n", meeting.StartTime.Short(), meeting.EndTime.Short())
		fmt.Fprintf(&b, "   Location: %s\n", meeting.Location)
		if meeting.DesignatedAttendee != "" {
			fmt.Fprintf(&b, "   Attendee: %s\n", meeting.DesignatedAttendee)
		}
		b.WriteString("\n")
	}

	b.WriteString("Please make the necessary preparations.")
	return b.String()
}
