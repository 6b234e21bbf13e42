// Package period resolves reporting window boundaries. All boundaries
// are computed in a fixed UTC-3 reference frame, matching the timezone
// the chat client operates in.
package period

import (
	"strings"
	"time"

	"fincontrol/internal/apperr"
)

// Period is a reporting window tag.
type Period string

const (
	Daily   Period = "DAILY"
	Weekly  Period = "WEEKLY"
	Monthly Period = "MONTHLY"
	Yearly  Period = "YEARLY"
)

// Reference is the fixed UTC-3 offset used for all boundary math.
var Reference = time.FixedZone("-03", -3*60*60)

// Parse normalises a period tag. Portuguese aliases used by the legacy
// chat client are accepted alongside the canonical tags. Empty input
// defaults to Monthly.
func Parse(s string) (Period, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return Monthly, nil
	case "DAILY", "DIARIO", "DIÁRIO":
		return Daily, nil
	case "WEEKLY", "SEMANAL":
		return Weekly, nil
	case "MONTHLY", "MENSAL":
		return Monthly, nil
	case "YEARLY", "ANUAL":
		return Yearly, nil
	default:
		return "", apperr.Newf(apperr.Validation,
			"Período inválido %q, use DAILY, WEEKLY, MONTHLY ou YEARLY", s)
	}
}

// ResolveStart computes the inclusive start boundary for the given
// period relative to now. WEEKLY is a rolling seven-day window; the
// calendar Monday-start week is a distinct operation, see
// CalendarWeekBounds.
func ResolveStart(p Period, now time.Time) (time.Time, error) {
	now = now.In(Reference)
	switch p {
	case Daily:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, Reference), nil
	case Weekly:
		return RollingWeekStart(now), nil
	case Monthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, Reference), nil
	case Yearly:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, Reference), nil
	default:
		return time.Time{}, apperr.Newf(apperr.Validation,
			"Período inválido %q, use DAILY, WEEKLY, MONTHLY ou YEARLY", string(p))
	}
}

// RollingWeekStart returns now minus seven calendar days, with no
// clamping to midnight.
func RollingWeekStart(now time.Time) time.Time {
	return now.In(Reference).AddDate(0, 0, -7)
}

// CalendarWeekBounds returns the most recent Monday at midnight and the
// following Sunday at 23:59:59, both inclusive. This is the fixed-week
// variant used by the weekly digest, not by the rolling REPORT window.
func CalendarWeekBounds(now time.Time) (time.Time, time.Time) {
	now = now.In(Reference)
	offset := int(now.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, Reference).AddDate(0, 0, -offset)
	end := start.AddDate(0, 0, 6).Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	return start, end
}

// LabelPT returns the Portuguese label used in chat replies.
func (p Period) LabelPT() string {
	switch p {
	case Daily:
		return "hoje"
	case Weekly:
		return "últimos 7 dias"
	case Monthly:
		return "este mês"
	case Yearly:
		return "este ano"
	default:
		return string(p)
	}
}
