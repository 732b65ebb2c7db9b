package entities

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"coachbot/internal/domain"
)

const (
	minuteMillis int64 = 60_000
	hourMillis         = 60 * minuteMillis
	dayMillis          = 24 * hourMillis
	// WeekMillis is the length of the repeating week in milliseconds.
	WeekMillis = 7 * dayMillis
)

// WeekTimestamp is a point on a repeating 7-day clock. Weekday 0 is Sunday.
type WeekTimestamp struct {
	Weekday time.Weekday `json:"weekday"`
	Hour    int          `json:"hour"`
	Minute  int          `json:"minute"`
}

// NewWeekTimestamp validates the fields and builds a WeekTimestamp.
func NewWeekTimestamp(weekday time.Weekday, hour, minute int) (WeekTimestamp, error) {
	w := WeekTimestamp{Weekday: weekday, Hour: hour, Minute: minute}
	if err := w.validate(); err != nil {
		return WeekTimestamp{}, err
	}
	return w, nil
}

func (w WeekTimestamp) validate() error {
	if w.Weekday < time.Sunday || w.Weekday > time.Saturday {
		return &domain.ParseError{Input: strconv.Itoa(int(w.Weekday)), Reason: "weekday must be in [0,6]"}
	}
	if w.Hour < 0 || w.Hour > 23 {
		return &domain.ParseError{Input: strconv.Itoa(w.Hour), Reason: "hour must be in [0,23]"}
	}
	if w.Minute < 0 || w.Minute > 59 {
		return &domain.ParseError{Input: strconv.Itoa(w.Minute), Reason: "minute must be in [0,59]"}
	}
	return nil
}

// Millis returns the offset in milliseconds since Sunday 00:00.
func (w WeekTimestamp) Millis() int64 {
	return int64(w.Minute)*minuteMillis + int64(w.Hour)*hourMillis + int64(w.Weekday)*dayMillis
}

// Compare returns -1, 0 or 1 depending on the order of w and o within the week.
func (w WeekTimestamp) Compare(o WeekTimestamp) int {
	a, b := w.Millis(), o.Millis()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// String formats the timestamp as "MONDAY 08:00".
func (w WeekTimestamp) String() string {
	return fmt.Sprintf("%s %02d:%02d", strings.ToUpper(w.Weekday.String()), w.Hour, w.Minute)
}

// WeekTimestampOf returns the week timestamp of t in t's location, truncated to the minute.
func WeekTimestampOf(t time.Time) WeekTimestamp {
	return WeekTimestamp{Weekday: t.Weekday(), Hour: t.Hour(), Minute: t.Minute()}
}

// WeekOffset returns the offset of t since the start of its week (Sunday 00:00
// in t's location), in milliseconds and with sub-minute precision.
func WeekOffset(t time.Time) int64 {
	return WeekTimestampOf(t).Millis() + int64(t.Second())*1000 + int64(t.Nanosecond()/int(time.Millisecond))
}

var weekdayNames = map[string]time.Weekday{
	"SUNDAY":    time.Sunday,
	"MONDAY":    time.Monday,
	"TUESDAY":   time.Tuesday,
	"WEDNESDAY": time.Wednesday,
	"THURSDAY":  time.Thursday,
	"FRIDAY":    time.Friday,
	"SATURDAY":  time.Saturday,
}

// ParseWeekTimestamp parses "<Weekday> HH:MM". The weekday is case-insensitive.
func ParseWeekTimestamp(s string) (WeekTimestamp, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return WeekTimestamp{}, &domain.ParseError{Input: s, Reason: `expected "<Weekday> HH:MM"`}
	}
	day, ok := weekdayNames[strings.ToUpper(fields[0])]
	if !ok {
		return WeekTimestamp{}, &domain.ParseError{Input: fields[0], Reason: "unknown weekday"}
	}
	hh, mm, ok := strings.Cut(fields[1], ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return WeekTimestamp{}, &domain.ParseError{Input: fields[1], Reason: "expected HH:MM"}
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return WeekTimestamp{}, &domain.ParseError{Input: hh, Reason: "hour is not a number"}
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return WeekTimestamp{}, &domain.ParseError{Input: mm, Reason: "minute is not a number"}
	}
	return NewWeekTimestamp(day, hour, minute)
}
