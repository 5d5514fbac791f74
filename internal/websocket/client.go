package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
)

// WSClient is a gorilla connection registered with the hub on behalf of one
// authenticated user.
type WSClient struct {
	conn      *websocket.Conn
	send      chan Event
	id        string
	userID    string
	readLimit int64

	done      chan struct{} // closed once the hub drops the client
	closeOnce sync.Once
	mu        sync.Mutex // guards conn writes and isClosed
	isClosed  bool
}

func newWSClient(conn *websocket.Conn, userID string, sendBuffer int, readLimit int64) *WSClient {
	return &WSClient{
		conn:      conn,
		send:      make(chan Event, sendBuffer),
		id:        uuid.NewString(),
		userID:    userID,
		readLimit: readLimit,
		done:      make(chan struct{}),
	}
}

func (cl *WSClient) ID() string {
	return cl.id
}

func (cl *WSClient) UserID() string {
	return cl.userID
}

func (cl *WSClient) Send(ev Event) bool {
	select {
	case <-cl.done:
		return false
	default:
	}

	select {
	case cl.send <- ev:
		return true
	default:
		return false
	}
}

func (cl *WSClient) Close() {
	cl.closeOnce.Do(func() {
		close(cl.done)
	})
}

func (cl *WSClient) closeConn() {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.isClosed {
		return
	}
	cl.isClosed = true
	cl.conn.Close()
}

func (cl *WSClient) write(messageType int, v any) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.isClosed {
		return websocket.ErrCloseSent
	}
	cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if messageType == websocket.PingMessage {
		return cl.conn.WriteMessage(websocket.PingMessage, nil)
	}
	return cl.conn.WriteJSON(v)
}

func (cl *WSClient) keepAlive() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-cl.done:
			return
		case <-ticker.C:
			if err := cl.write(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("transport_id", cl.id).Msg("Ping failed")
				cl.closeConn()
				return
			}
		}
	}
}

func (cl *WSClient) writePump() {
	defer cl.closeConn()

	for {
		select {
		case <-cl.done:
			return
		case ev := <-cl.send:
			if err := cl.write(websocket.TextMessage, ev); err != nil {
				log.Warn().Err(err).Str("transport_id", cl.id).Msg("Write failed")
				return
			}
		}
	}
}

func (cl *WSClient) readPump(hub *Hub) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("transport_id", cl.id).Msg("Recovered from panic in read pump")
		}
		hub.Unregister(cl)
		cl.closeConn()
	}()

	cl.conn.SetReadLimit(cl.readLimit)

	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				log.Warn().Err(err).Str("transport_id", cl.id).Msg("Unexpected close")
			}
			return
		}
		hub.Dispatch(cl, data)
	}
}
