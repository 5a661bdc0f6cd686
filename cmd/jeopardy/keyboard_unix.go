//go:build linux

package main

import (
	"golang.org/x/sys/unix"
)

// enableKeyMode switches the terminal to unbuffered, unechoed input so single
// key presses arrive without Enter. Output processing stays on so log lines
// keep their newlines.
func enableKeyMode(fd int) (func(), error) {
	oldState, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, err
	}

	newState := *oldState
	newState.Lflag &^= unix.ICANON | unix.ECHO
	newState.Cc[unix.VMIN] = 1
	newState.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &newState); err != nil {
		return nil, err
	}

	return func() {
		unix.IoctlSetTermios(fd, unix.TCSETS, oldState)
	}, nil
}
