package model

// EventTestCompleted is the only harness event kind that carries a test outcome.
const EventTestCompleted = "testCompleted"

// Harness status values.
const (
	StatusPass = "pass"
	StatusFail = "fail"
)

// RawEvent is one decoded JSON object from the harness output stream.
type RawEvent struct {
	// Event kind, e.g. "runStart", "testCompleted", "runComplete"
	Event string `json:"event"`
	// Status of a completed test ("pass" or "fail")
	Status string `json:"status"`
	// Label hierarchy: [report name, suite name, "test name@points"]
	Labels []string `json:"labels"`

	// Line number in the harness output (1-based), not part of the wire format
	Line int `json:"-"`
}

// Completed reports whether the event describes a finished test.
func (e RawEvent) Completed() bool {
	return e.Event == EventTestCompleted
}
