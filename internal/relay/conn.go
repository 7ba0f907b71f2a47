package relay

// Conn is a duplex client connection as the relay sees it: something frames can
// be pushed to. The websocket gateway provides the production implementation;
// tests use in-memory fakes.
type Conn interface {
	// Send writes one text frame. A send to a connection that is no longer
	// open returns an error; callers treat that as a skip, not a failure.
	Send(data []byte) error
}
