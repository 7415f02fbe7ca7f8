// Package domain holds the lead lifecycle rules shared by intake and dialing.
package domain

import "time"

// OutboundStatus is the lead's position in the outbound-call lifecycle.
type OutboundStatus string

const (
	// StatusNew marks a callable lead waiting for its scheduled call.
	StatusNew OutboundStatus = "NEW"
	// StatusIncomplete marks a lead without a usable phone number.
	StatusIncomplete OutboundStatus = "INCOMPLETE"
	// StatusCalling marks a lead claimed by the dialer.
	StatusCalling OutboundStatus = "CALLING"
	// StatusCalled marks a lead whose call ended.
	StatusCalled OutboundStatus = "CALLED"
	// StatusCallFailed marks a lead whose dial attempts were exhausted.
	StatusCallFailed OutboundStatus = "CALL_FAILED"
)

// IntakeStatus returns NEW when a normalized phone exists and INCOMPLETE otherwise.
func IntakeStatus(phone *string) OutboundStatus {
	if phone != nil && *phone != "" {
		return StatusNew
	}
	return StatusIncomplete
}

// DelayWindow bounds the random wait before the first outbound call.
// Both ends are whole minutes and inclusive.
type DelayWindow struct {
	MinMinutes int
	MaxMinutes int
}

// DefaultDelayWindow is the 2 to 10 minute window applied at intake.
var DefaultDelayWindow = DelayWindow{MinMinutes: 2, MaxMinutes: 10}

// NewDelayWindow builds a window from durations, truncated to whole minutes.
// Invalid input falls back to DefaultDelayWindow.
func NewDelayWindow(lo, hi time.Duration) DelayWindow {
	w := DelayWindow{MinMinutes: int(lo / time.Minute), MaxMinutes: int(hi / time.Minute)}
	if w.MinMinutes < 1 || w.MaxMinutes < w.MinMinutes {
		return DefaultDelayWindow
	}
	return w
}

// IntN is satisfied by *rand.Rand from math/rand/v2.
type IntN interface {
	IntN(n int) int
}

// ScheduleAt draws a uniformly random whole-minute delay from the window and
// adds it to now.
func (w DelayWindow) ScheduleAt(now time.Time, rnd IntN) time.Time {
	span := w.MaxMinutes - w.MinMinutes + 1
	minutes := w.MinMinutes + rnd.IntN(span)
	return now.Add(time.Duration(minutes) * time.Minute)
}
