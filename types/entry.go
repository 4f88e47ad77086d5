package types

import "time"

// Entry is a single recorded test method execution in a report.
// Entries are created once and never mutated afterwards.
type Entry struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	ClassName   string        `json:"className"`
	Description string        `json:"description,omitempty"`
	Category    string        `json:"category,omitempty"`
	Status      TestStatus    `json:"status"`
	Message     string        `json:"message,omitempty"`
	Detail      string        `json:"detail,omitempty"`
	Screenshot  string        `json:"screenshot,omitempty"` // Path relative to the report directory
	Duration    time.Duration `json:"duration,omitempty"`
	RecordedAt  time.Time     `json:"recordedAt"`
}

// HasScreenshot reports whether a screenshot is attached to the entry
func (e Entry) HasScreenshot() bool {
	return e.Screenshot != ""
}

// SystemInfo is a single descriptive key/value pair shown on the report dashboard
type SystemInfo struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
