package main

// exitError pairs an error with the process exit code it should produce,
// letting RunE report a specific failure stage (bad input, empty packet
// list, pcap dump failure, tx/rx failure) instead of main collapsing
// every error to cobra's default exit code of 1.
type exitError struct {
	code int
	err  error
}

func fail(code int, err error) error {
	return &exitError{code: code, err: err}
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }
