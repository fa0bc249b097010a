package domain

// PlayerProcess is a running external audio player.
type PlayerProcess interface {
	// Stop terminates the player and waits for it to exit.
	Stop() error
	// Done is closed when the player exits for any reason.
	Done() <-chan struct{}
}
