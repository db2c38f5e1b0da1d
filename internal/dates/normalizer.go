package dates

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// LayoutISO is the calendar-date layout every normalized phrase resolves to.
const LayoutISO = "2006-01-02"

// ErrUnrecognized marks a phrase that matches none of the supported patterns
// (or an ISO-shaped string that is not a real calendar date).
var ErrUnrecognized = errors.New("unrecognized date phrase")

var (
	isoRe         = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	fromNowRe     = regexp.MustCompile(`^(\d+|one|two|three|four|five|six|seven|eight|nine|ten)\s+(day|days|week|weeks)\s+from\s+now$`)
	todayPlusRe   = regexp.MustCompile(`^today\s*\+\s*(\d+)\s*(day|days|week|weeks)$`)
	nextWeekdayRe = regexp.MustCompile(`^next\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)$`)
)

// wordNumbers maps spelled-out quantities. Anything above ten must be given
// as digits.
var wordNumbers = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// Option is a functional option for configuring a Normalizer.
type Option func(*Normalizer)

// WithClock replaces the wall clock. If now is nil it is ignored. Tests use
// this to freeze "today".
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// Normalizer converts a free-text date phrase ("tomorrow", "next friday",
// "two weeks from now") into a strict YYYY-MM-DD string anchored to the
// current date at call time. It is pure apart from the injected clock.
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer returns a Normalizer using the real wall clock unless
// WithClock overrides it.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize resolves phrase to a YYYY-MM-DD string. Matching is
// case-insensitive and ignores surrounding whitespace. Patterns are tried in
// priority order; the first match wins:
//
//  1. An ISO date is validated and passed through unchanged.
//  2. "today", "tomorrow", "yesterday", "next week" (the Monday strictly
//     after today).
//  3. "next <weekday>" — strictly after today, never today itself.
//  4. "<n> day(s)|week(s) from now" — n as digits or the words one..ten.
//  5. "today + <n> day(s)|week(s)" — digits only.
//
// Any other input fails with an error naming the original phrase.
func (n *Normalizer) Normalize(phrase string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(phrase))
	if s == "" {
		return "", fmt.Errorf("%w: %q", ErrUnrecognized, phrase)
	}

	if isoRe.MatchString(s) {
		if _, err := time.Parse(LayoutISO, s); err != nil {
			return "", fmt.Errorf("%w: %q is not a valid calendar date", ErrUnrecognized, phrase)
		}
		return s, nil
	}

	switch s {
	case "today":
		return n.addDays(0), nil
	case "tomorrow":
		return n.addDays(1), nil
	case "yesterday":
		return n.addDays(-1), nil
	case "next week":
		return n.nextWeekday(time.Monday), nil
	}

	if m := nextWeekdayRe.FindStringSubmatch(s); m != nil {
		return n.nextWeekday(weekdays[m[1]]), nil
	}

	if m := fromNowRe.FindStringSubmatch(s); m != nil {
		qty, err := parseQuantity(m[1])
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrUnrecognized, phrase)
		}
		return n.addDays(qty * unitDays(m[2])), nil
	}

	if m := todayPlusRe.FindStringSubmatch(s); m != nil {
		qty, err := strconv.Atoi(m[1])
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrUnrecognized, phrase)
		}
		return n.addDays(qty * unitDays(m[2])), nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnrecognized, phrase)
}

// today returns the current date truncated to midnight in local time.
func (n *Normalizer) today() time.Time {
	now := n.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func (n *Normalizer) addDays(days int) string {
	return n.today().AddDate(0, 0, days).Format(LayoutISO)
}

// nextWeekday returns the next occurrence of target strictly after today.
// If today is the target weekday, the result is a full week out.
func (n *Normalizer) nextWeekday(target time.Weekday) string {
	today := n.today()
	delta := (int(target) - int(today.Weekday()) + 7) % 7
	if delta == 0 {
		delta = 7
	}
	return today.AddDate(0, 0, delta).Format(LayoutISO)
}

func parseQuantity(s string) (int, error) {
	if qty, ok := wordNumbers[s]; ok {
		return qty, nil
	}
	return strconv.Atoi(s)
}

func unitDays(unit string) int {
	if strings.HasPrefix(unit, "week") {
		return 7
	}
	return 1
}
