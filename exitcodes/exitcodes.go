// Package exitcodes defines the exit codes used by op-reporter.
package exitcodes

// Exit code constants used by op-reporter:
//
// * Success (0): The report was written (and published, if requested)
// * TestFailure (1): The report contains failed tests and --fail-on-test-failure is set
// * RuntimeErr (2): The report could not be produced, e.g. unreadable results or an unwritable directory
const (
	Success     = 0 // Report written
	TestFailure = 1 // Failed tests in the report
	RuntimeErr  = 2 // Runtime errors
)
