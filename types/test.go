package types

import (
	"fmt"
	"strings"
	"time"
)

// TestStatus represents the possible outcomes of a test execution
type TestStatus string

const (
	TestStatusPass TestStatus = "pass"
	TestStatusFail TestStatus = "fail"
	TestStatusSkip TestStatus = "skip"
)

// String implements the Stringer interface for TestStatus
func (s TestStatus) String() string {
	return string(s)
}

// IsValid reports whether the status is one of the known outcomes
func (s TestStatus) IsValid() bool {
	switch s {
	case TestStatusPass, TestStatusFail, TestStatusSkip:
		return true
	}
	return false
}

// Outcome is what the test runner hands over when a test method finishes
type Outcome struct {
	Name        string // Test method name
	ClassName   string // Fully qualified name of the owning class
	Description string // Method description, may be empty
	Err         error  // Failure or skip cause
	Stack       string // Full error detail (stack trace); derived from Err when empty
	StartTime   time.Time
	EndTime     time.Time
}

// Duration returns the wall time of the outcome, or zero when timing is unknown
func (o Outcome) Duration() time.Duration {
	if o.StartTime.IsZero() || o.EndTime.IsZero() || o.EndTime.Before(o.StartTime) {
		return 0
	}
	return o.EndTime.Sub(o.StartTime)
}

// ErrorMessage returns the message of the outcome's error, or "" when there is none
func (o Outcome) ErrorMessage() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// ErrorDetail returns the full error detail, preferring an explicit stack trace
func (o Outcome) ErrorDetail() string {
	if o.Stack != "" {
		return o.Stack
	}
	if o.Err == nil {
		return ""
	}
	return fmt.Sprintf("%+v", o.Err)
}

// SimpleClassName strips the package qualifier from a class name
// For example "com.example.LoginTests" becomes "LoginTests"
func SimpleClassName(className string) string {
	if idx := strings.LastIndex(className, "."); idx != -1 {
		return className[idx+1:]
	}
	return className
}
