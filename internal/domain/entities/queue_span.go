package entities

import (
	"fmt"
	"strings"
	"time"

	"coachbot/internal/domain"
)

const spanDateLayout = "2006-01-02"

// QueueSpan is a recurring weekly window during which a queue is open.
//
// Begin and End are inclusive. A span whose End lies before its Begin within
// the week wraps across the Saturday/Sunday boundary. OpenShift and CloseShift
// move the boundaries at evaluation time only. StartDate and EndDate, when
// set, are calendar dates bounding the span to [StartDate, EndDate).
type QueueSpan struct {
	Begin      WeekTimestamp `json:"begin"`
	End        WeekTimestamp `json:"end"`
	OpenShift  time.Duration `json:"open_shift,omitempty"`
	CloseShift time.Duration `json:"close_shift,omitempty"`
	StartDate  *time.Time    `json:"start_date,omitempty"`
	EndDate    *time.Time    `json:"end_date,omitempty"`
}

// Wraps reports whether the span crosses the end of the week.
func (s QueueSpan) Wraps() bool {
	return s.End.Millis() < s.Begin.Millis()
}

// CycleIsActive reports whether now lies inside the absolute validity window.
func (s QueueSpan) CycleIsActive(now time.Time) bool {
	day := civilDate(now)
	if s.StartDate != nil && day.Before(civilDate(*s.StartDate)) {
		return false
	}
	if s.EndDate != nil && !day.Before(civilDate(*s.EndDate)) {
		return false
	}
	return true
}

// IsActive reports whether the span is open at now. The weekly offset of now
// is taken in now's location.
func (s QueueSpan) IsActive(now time.Time) bool {
	if !s.CycleIsActive(now) {
		return false
	}
	begin := s.Begin.Millis() + s.OpenShift.Milliseconds()
	end := s.End.Millis() + s.CloseShift.Milliseconds()
	if s.Wraps() {
		end += WeekMillis
	}
	offset := WeekOffset(now)
	for _, k := range []int64{-1, 0, 1} {
		t := offset + k*WeekMillis
		if t >= begin && t <= end {
			return true
		}
	}
	return false
}

// Equal compares all fields structurally.
func (s QueueSpan) Equal(o QueueSpan) bool {
	return s.Begin == o.Begin &&
		s.End == o.End &&
		s.OpenShift == o.OpenShift &&
		s.CloseShift == o.CloseShift &&
		sameDate(s.StartDate, o.StartDate) &&
		sameDate(s.EndDate, o.EndDate)
}

// String renders "MONDAY 08:00 - WEDNESDAY 16:00 (start: 2024-01-01, end: 2024-03-01)".
// Shifts are not part of the string form; the date suffix only lists set dates.
func (s QueueSpan) String() string {
	var b strings.Builder
	b.WriteString(s.Begin.String())
	b.WriteString(" - ")
	b.WriteString(s.End.String())
	var dates []string
	if s.StartDate != nil {
		dates = append(dates, "start: "+s.StartDate.Format(spanDateLayout))
	}
	if s.EndDate != nil {
		dates = append(dates, "end: "+s.EndDate.Format(spanDateLayout))
	}
	if len(dates) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(dates, ", "))
		b.WriteString(")")
	}
	return b.String()
}

// ParseQueueSpan parses the String form of a span.
func ParseQueueSpan(s string) (QueueSpan, error) {
	body := strings.TrimSpace(s)
	var span QueueSpan

	if open := strings.Index(body, "("); open >= 0 {
		if !strings.HasSuffix(body, ")") {
			return QueueSpan{}, &domain.ParseError{Input: body[open:], Reason: "unterminated date window"}
		}
		if err := parseSpanDates(body[open+1:len(body)-1], &span); err != nil {
			return QueueSpan{}, err
		}
		body = strings.TrimSpace(body[:open])
	}

	from, to, ok := strings.Cut(body, " - ")
	if !ok {
		return QueueSpan{}, &domain.ParseError{Input: body, Reason: `expected "<begin> - <end>"`}
	}
	begin, err := ParseWeekTimestamp(from)
	if err != nil {
		return QueueSpan{}, err
	}
	end, err := ParseWeekTimestamp(to)
	if err != nil {
		return QueueSpan{}, err
	}
	span.Begin = begin
	span.End = end
	return span, nil
}

func parseSpanDates(window string, span *QueueSpan) error {
	for _, part := range strings.Split(window, ",") {
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			return &domain.ParseError{Input: strings.TrimSpace(part), Reason: `expected "start: YYYY-MM-DD" or "end: YYYY-MM-DD"`}
		}
		value = strings.TrimSpace(value)
		date, err := time.Parse(spanDateLayout, value)
		if err != nil {
			return &domain.ParseError{Input: value, Reason: "expected YYYY-MM-DD"}
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "start":
			span.StartDate = &date
		case "end":
			span.EndDate = &date
		default:
			return &domain.ParseError{Input: strings.TrimSpace(key), Reason: "unknown date key"}
		}
	}
	if span.StartDate != nil && span.EndDate != nil && !span.StartDate.Before(*span.EndDate) {
		return &domain.ParseError{Input: window, Reason: "start date must be before end date"}
	}
	return nil
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return civilDate(*a).Equal(civilDate(*b))
}

// FormatShift renders a shift as a signed minute count, e.g. "-15m".
func FormatShift(d time.Duration) string {
	return fmt.Sprintf("%+dm", int(d/time.Minute))
}
