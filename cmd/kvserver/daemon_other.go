//go:build !unix

package main

import "errors"

func daemonize() (parentShouldExit bool, err error) {
	return false, errors.New("daemonize is only supported on unix targets")
}
