//go:build linux

package logger

import (
	"syscall"
	"unsafe"
)

// tcgets is the ioctl number for reading terminal attributes on Linux
const tcgets = 0x5401

// isTerminal checks if the file descriptor is a terminal
func isTerminal(fd uintptr) bool {
	var termios syscall.Termios
	_, _, err := syscall.Syscall6(
		syscall.SYS_IOCTL, fd, tcgets,
		uintptr(unsafe.Pointer(&termios)), 0, 0, 0,
	)
	return err == 0
}
