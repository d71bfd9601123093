// Package trapstatus derives the operational status of a trap from its
// installation date and field flags.
//
// The stored "estado" of a pin is only a snapshot of this derivation taken at
// write time. The result depends on the current day, so anything that needs
// the real status must call Classify again.
package trapstatus

import (
	"fmt"
	"strings"
	"time"
)

// Label is the closed set of status values shown to field staff.
type Label string

const (
	Active      Label = "Activa"
	Expiring    Label = "Próxima a vencer"
	Expired     Label = "Vencida"
	Removed     Label = "Inactiva/Retirada"
	NeedsReview Label = "Requiere revisión"
	InvalidDate Label = "Fecha Inválida"
)

// Day thresholds. Each one is the inclusive lower bound of its bucket.
const (
	ExpiringAfterDays = 14
	ExpiredAfterDays  = 28
)

// Labels lists the values a user may assign to a pin, in display order.
var Labels = []Label{Active, Expiring, Expired, NeedsReview, Removed}

// Policy selects which classification rule a call site applies.
type Policy int

const (
	// PinMap applies the pest-detected override before date logic.
	PinMap Policy = iota
	// Dashboard ignores the pest flag and goes straight to date logic.
	Dashboard
)

func (p Policy) String() string {
	switch p {
	case PinMap:
		return "pin-map"
	case Dashboard:
		return "dashboard"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Classify returns the status of a trap as of now. A zero installed time
// means the date is missing or could not be parsed.
func Classify(policy Policy, installed time.Time, pestDetected, removed bool, now time.Time) Label {
	if removed {
		return Removed
	}
	if pestDetected && policy == PinMap {
		return NeedsReview
	}
	if installed.IsZero() {
		return InvalidDate
	}

	days := DaysBetween(installed, now)
	switch {
	case days < ExpiringAfterDays:
		return Active
	case days < ExpiredAfterDays:
		return Expiring
	default:
		return Expired
	}
}

// DaysBetween counts whole calendar days between the local dates of a and b,
// using b's location and ignoring the time of day. The result is never negative.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.In(b.Location()).Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)

	days := int(db.Sub(da).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// FlagsFor is the inverse of Classify used when a user picks a label by hand.
func FlagsFor(l Label) (removed, pestDetected bool) {
	return l == Removed, l == NeedsReview
}

// Counted reports whether l is a real state rather than the invalid-date sentinel.
func (l Label) Counted() bool {
	return l != InvalidDate && l != ""
}

// ParseLabel validates s against the assignable labels.
func ParseLabel(s string) (Label, error) {
	s = strings.TrimSpace(s)
	for _, l := range Labels {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown trap status %q", s)
}

var installDateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
}

// ParseInstallDate reads a date as entered in the field forms. Date-only
// layouts are interpreted in loc.
func ParseInstallDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range installDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
