package gremlin

import (
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// websocketTransport carries protocol frames as binary websocket messages.
type websocketTransport struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	readTimeout  time.Duration
}

// dialWebsocket opens the websocket endpoint derived from the options.
func dialWebsocket(opts Options) (transport, error) {
	url := opts.url()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("gremlin: cannot dial %s: %w", url, err)
	}
	return &websocketTransport{
		conn:         conn,
		writeTimeout: opts.WriteTimeout,
		readTimeout:  opts.ReadTimeout,
	}, nil
}

func (t *websocketTransport) write(data []byte) error {
	if t.writeTimeout > 0 {
		if err := t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout)); err != nil {
			return err
		}
	}
	return t.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (t *websocketTransport) read() ([]byte, error) {
	if t.readTimeout > 0 {
		if err := t.conn.SetReadDeadline(time.Now().Add(t.readTimeout)); err != nil {
			return nil, err
		}
	}
	_, data, err := t.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (t *websocketTransport) close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	deadline := time.Now().Add(time.Second)
	// A failed close handshake still tears the socket down.
	_ = t.conn.WriteControl(websocket.CloseMessage, msg, deadline)
	return t.conn.Close()
}
