package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/skyport/bagstream"
)

const writeTimeout = 10 * time.Second

// wsSubscriber adapts one WebSocket connection to the bagstream.Subscriber
// interface. Writes are serialized with a mutex; gorilla permits only one
// concurrent writer per connection.
type wsSubscriber struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	closed  chan struct{}
	once    sync.Once
}

func newWSSubscriber(conn *websocket.Conn) *wsSubscriber {
	s := &wsSubscriber{
		conn:   conn,
		closed: make(chan struct{}),
	}
	go s.readLoop()
	return s
}

// Send pushes one status snapshot to the peer. Any write error is
// returned to the hub, which detaches this subscriber.
func (s *wsSubscriber) Send(rec bagstream.TaskRecord) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(rec)
}

// readLoop discards inbound frames; its only job is noticing the
// disconnect, whenever and however it happens.
func (s *wsSubscriber) readLoop() {
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			s.once.Do(func() { close(s.closed) })
			return
		}
	}
}

func (s *wsSubscriber) waitClosed() {
	<-s.closed
}
