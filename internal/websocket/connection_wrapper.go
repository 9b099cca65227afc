package websocket

import (
	"github.com/gorilla/websocket"
)

// conn adapts *websocket.Conn to Connection. Only RemoteAddr differs in
// signature, the rest is promoted from the embedded connection.
type conn struct {
	*websocket.Conn
}

// wrapConn returns c as a Connection
func wrapConn(c *websocket.Conn) Connection {
	return conn{Conn: c}
}

func (c conn) RemoteAddr() string {
	if addr := c.Conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
