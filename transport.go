package gremlin

// transport is one message-oriented duplex channel to a server. Frames go
// out and come back whole; framing below this line belongs to the websocket
// layer, framing above it to the protocol codec.
type transport interface {
	write(data []byte) error
	read() ([]byte, error)
	close() error
}

// dialFunc opens a transport for the given options. Tests substitute a
// scripted in-memory implementation.
type dialFunc func(opts Options) (transport, error)
