//go:build windows

package main

import "os"

// stopSignals is Ctrl+C only; Windows does not deliver SIGTERM.
var stopSignals = []os.Signal{os.Interrupt}
