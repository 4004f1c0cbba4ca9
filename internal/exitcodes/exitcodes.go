// Package exitcodes defines the process exit codes used by pageaudit.
package exitcodes

// Exit codes returned by the pageaudit binary.
//
// Failing audits are data, not an exit condition: a run that completes returns
// Success even when metrics or flows fail, unless --strict is set.
const (
	Success     = 0   // Run completed
	UsageErr    = 1   // Missing or invalid command-line input
	ConfigErr   = 2   // Thresholds or flow definitions could not be loaded
	TestFailure = 3   // --strict and at least one metric, flow or URL failed
	RuntimeErr  = 4   // The run itself could not complete or its output could not be written
	Interrupted = 130 // SIGINT/SIGTERM
)
