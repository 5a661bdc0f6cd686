//go:build !linux && !darwin

package main

import (
	"golang.org/x/term"
)

// enableKeyMode uses raw mode where termios is not available. Keys still
// arrive one at a time; log lines may lose their carriage returns.
func enableKeyMode(fd int) (func(), error) {
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return func() {
		term.Restore(fd, oldState)
	}, nil
}
