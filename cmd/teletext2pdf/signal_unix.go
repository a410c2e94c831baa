//go:build !windows

package main

import (
	"os"
	"syscall"
)

// stopSignals covers Ctrl+C and the SIGTERM sent by service managers and docker stop.
var stopSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
