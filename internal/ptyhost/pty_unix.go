//go:build unix

package ptyhost

import (
	"os"

	"golang.org/x/sys/unix"
)

// setRawMode configures f (a PTY master or slave) for byte-oriented,
// non-echoing I/O: the shape a line-oriented wire protocol like MI needs,
// as opposed to the echo-on, canonical-by-default mode a PTY gives an
// interactive shell. ECHO is cleared rather than preserved, since a
// debugger speaking MI must never see its own commands echoed back to it.
func setRawMode(f *os.File) error {
	fd := int(f.Fd())
	termios, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return err
	}

	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	termios.Oflag &^= unix.OPOST
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Cflag &^= unix.CSIZE | unix.PARENB
	termios.Cflag |= unix.CS8

	// Byte-at-a-time reads: return as soon as at least one byte is
	// available rather than waiting for a line or an inter-byte timeout.
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0

	return unix.IoctlSetTermios(fd, ioctlSetTermios, termios)
}

// IsTerminal reports whether fd refers to a terminal device.
func IsTerminal(fd int) bool {
	_, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	return err == nil
}
