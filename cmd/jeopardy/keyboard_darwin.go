//go:build darwin

package main

import (
	"golang.org/x/sys/unix"
)

// enableKeyMode switches the terminal to unbuffered, unechoed input
func enableKeyMode(fd int) (func(), error) {
	oldState, err := unix.IoctlGetTermios(fd, unix.TIOCGETA)
	if err != nil {
		return nil, err
	}

	newState := *oldState
	newState.Lflag &^= unix.ICANON | unix.ECHO
	newState.Cc[unix.VMIN] = 1
	newState.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TIOCSETA, &newState); err != nil {
		return nil, err
	}

	return func() {
		unix.IoctlSetTermios(fd, unix.TIOCSETA, oldState)
	}, nil
}
