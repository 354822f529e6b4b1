package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/crgeee/reps/internal/model"
)

const icsDateLayout = "20060102"

// BuildReviewICS builds a simple iCalendar event for a task's next review,
// so the review shows up in an external calendar. The task must have been
// scheduled (a next review date set).
func BuildReviewICS(t model.Task, now time.Time) (string, error) {
	raw := strings.TrimSpace(t.NextReviewDate)
	if raw == "" {
		return "", fmt.Errorf("task has no next review date")
	}

	start, err := time.ParseInLocation(model.ISODate, raw, time.Local)
	if err != nil {
		return "", fmt.Errorf("%w: nextReviewDate %q", ErrInvalidDate, raw)
	}
	end := start.AddDate(0, 0, 1)

	title := strings.TrimSpace(t.Title)
	if title == "" {
		title = "Review"
	}

	uid := fmt.Sprintf("review-%s@reps", strings.TrimSpace(string(t.ID)))
	if strings.TrimSpace(string(t.ID)) == "" {
		uid = fmt.Sprintf("review-export-%d@reps", now.UnixNano())
	}

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//reps//Review Export//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:" + escapeICSText(uid),
		"DTSTAMP:" + now.UTC().Format("20060102T150405Z"),
		"SUMMARY:" + escapeICSText("Review: "+title),
		"DTSTART;VALUE=DATE:" + start.Format(icsDateLayout),
		"DTEND;VALUE=DATE:" + end.Format(icsDateLayout),
	}
	if notes := strings.TrimSpace(t.Notes); notes != "" {
		lines = append(lines, "DESCRIPTION:"+escapeICSText(notes))
	}
	lines = append(lines, "END:VEVENT", "END:VCALENDAR", "")

	return strings.Join(lines, "\r\n"), nil
}

func escapeICSText(s string) string {
	repl := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\r\n", "\\n",
		"\n", "\\n",
		"\r", "\\n",
	)
	return repl.Replace(s)
}
