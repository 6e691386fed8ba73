// Package exitcodes defines the exit codes of the eggstep command.
package exitcodes

const (
	Success     = 0 // every step succeeded
	TestFailure = 1 // a step failed or the build result is FAILURE
	RuntimeErr  = 2 // configuration or runtime error before any step ran
)
