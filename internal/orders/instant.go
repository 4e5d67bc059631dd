package orders

import (
	"fmt"
	"strings"
	"time"
)

// InstantLayout is the canonical wire format for timestamps sent to the gateway.
const InstantLayout = "2006-01-02T15:04:05.000Z"

// draftTimeLayout matches an HTML datetime-local input.
const draftTimeLayout = "2006-01-02T15:04"

var localLayouts = []string{
	"2006-01-02T15:04:05",
	draftTimeLayout,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// CanonicalInstant parses form input and renders it as a UTC instant. Input
// without a zone is read in loc.
func CanonicalInstant(s string, loc *time.Location) (string, error) {
	t, err := parseInstant(s, loc)
	if err != nil {
		return "", err
	}
	return t.UTC().Format(InstantLayout), nil
}

func parseInstant(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}

// draftTime renders a server timestamp for a datetime-local input in loc.
func draftTime(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(draftTimeLayout)
}
