package gdbasync

import "errors"

// Sentinel errors the Async Controller surfaces, matched with errors.Is.
var (
	// ErrAlreadyRunning is returned by Spawn when the controller's child
	// slot is already occupied.
	ErrAlreadyRunning = errors.New("gdbasync: child already running")

	// ErrInvalidCommand is returned by Send when the command string ends
	// with a newline.
	ErrInvalidCommand = errors.New("gdbasync: command must not end with a newline")

	// ErrUnexpectedEOF is returned when the PTY reaches EOF while a
	// prompt was expected (during Spawn's initial handshake).
	ErrUnexpectedEOF = errors.New("gdbasync: unexpected EOF waiting for prompt")

	// ErrMissingPrompt indicates an episode terminated without the
	// prompt sentinel record — protocol desynchronization.
	ErrMissingPrompt = errors.New("gdbasync: episode ended without prompt sentinel")

	// ErrNotRunning is returned by Send/Recv when called before Spawn or
	// after Shutdown.
	ErrNotRunning = errors.New("gdbasync: no child running")
)
