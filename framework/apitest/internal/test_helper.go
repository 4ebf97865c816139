// Package internal holds helpers for apitest's own unit tests that must live outside the
// apitest package so that they show up in stacktraces.
package internal

// RunAction calls the action. It exists so tests can observe a non-apitest stack frame.
func RunAction(action func()) {
	action()
}
