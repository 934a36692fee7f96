package ws

// Client is a single connected peer as the hub sees it. The driving adapter
// supplies the concrete websocket-backed implementation.
type Client interface {
	ID() string
	Send(event string, data any) error
	Close() error
}
