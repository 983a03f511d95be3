package ui

// RunMsg carries work dispatched from other goroutines. It runs on the
// program's goroutine so bus publishes never overlap.
type RunMsg func()

// ErrorMsg reports a failure to show in the status line
type ErrorMsg struct {
	Err error
}

