package live

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/recera/solarview/pkg/dispatch"
	"github.com/recera/solarview/pkg/grid"
	"github.com/recera/solarview/pkg/vdom"
	"github.com/recera/solarview/pkg/viewport"
	"github.com/recera/solarview/pkg/workspace"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = 54 * time.Second
	maxEventSize = 64 << 10
)

// Options configures the live server
type Options struct {
	// Workspace is the template for every new session's workspace
	Workspace workspace.Options
	// MiniMapBounds is where the page lays out the mini-map
	MiniMapBounds viewport.Rect
	// SendBuffer is the number of frames a session may queue
	SendBuffer int
	// MaxPanels bounds layouts received from clients or broadcast; zero means grid.MaxPanels
	MaxPanels int
	// CheckOrigin overrides the upgrader's origin check
	CheckOrigin func(r *http.Request) bool
}

// Server handles WebSocket connections for live updates
type Server struct {
	upgrader websocket.Upgrader
	opts     Options
	sessions map[string]*Session
	mu       sync.RWMutex
}

// Session is one connected browser with its own workspace
type Session struct {
	ID string

	server    *Server
	conn      *websocket.Conn
	ws        *workspace.Workspace
	last      *vdom.VNode
	lastSeq   uint64
	sendChan  chan []byte
	closeChan chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
}

// NewServer creates a new live protocol server
func NewServer(opts Options) *Server {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 256
	}
	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin:     checkOrigin,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// SessionID returns id when it is a valid UUID and a fresh one otherwise
func SessionID(id string) string {
	if _, err := uuid.Parse(id); err == nil {
		return id
	}
	return uuid.NewString()
}

// ServeSession upgrades the request and runs a session until the client goes away.
// A reconnect with the id of a live session replaces it.
func (s *Server) ServeSession(w http.ResponseWriter, r *http.Request, id string) {
	id = SessionID(id)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Live Server] Failed to upgrade connection: %v", err)
		return
	}

	session := s.newSession(id, conn)
	go session.handleConnection()
}

func (s *Server) newSession(id string, conn *websocket.Conn) *Session {
	s.mu.Lock()
	opts := s.opts.Workspace
	old := s.sessions[id]
	session := &Session{
		ID:        id,
		server:    s,
		conn:      conn,
		ws:        workspace.New(&opts),
		sendChan:  make(chan []byte, s.opts.SendBuffer),
		closeChan: make(chan struct{}),
	}
	// HELLO is queued before the session is visible to Broadcast, so it is always first
	session.sendChan <- EncodeHello(0, id)
	s.sessions[id] = session
	s.mu.Unlock()

	if old != nil {
		log.Printf("[Live Server] Session %s reconnected, dropping old connection", id)
		old.Close()
	}
	session.ws.Mount(s.opts.MiniMapBounds)
	return session
}

// Session retrieves a session by ID
func (s *Server) Session(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[id]
	return session, exists
}

// Sessions returns the number of connected sessions
func (s *Server) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Server) remove(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[session.ID] == session {
		delete(s.sessions, session.ID)
	}
}

// Broadcast applies a layout change to every session and makes it the default for new ones.
// A layout over the panel limit is rejected and nothing changes.
func (s *Server) Broadcast(spec grid.LayoutSpec) error {
	if err := spec.Check(s.opts.MaxPanels); err != nil {
		return err
	}

	s.mu.Lock()
	s.opts.Workspace.Layout = spec
	sessions := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.Unlock()

	for _, session := range sessions {
		if err := session.Apply(dispatch.Layout(spec)); err != nil {
			log.Printf("[Live Session %s] Layout broadcast failed: %v", session.ID, err)
		}
	}
	return nil
}

// Close ends every session
func (s *Server) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}

// handleConnection manages the WebSocket connection for a session
func (s *Session) handleConnection() {
	defer func() {
		s.Close()
		s.server.remove(s)
	}()

	go s.writer()

	if err := s.flush(); err != nil {
		log.Printf("[Live Session %s] Initial render failed: %v", s.ID, err)
		return
	}

	s.conn.SetReadLimit(maxEventSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[Live Session %s] Unexpected close: %v", s.ID, err)
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(pongWait))

		switch messageType {
		case websocket.TextMessage:
			s.handleTextMessage(data)
		case websocket.BinaryMessage:
			s.handleBinaryMessage(data)
		}
	}
}

// writer is the only goroutine that writes to the connection
func (s *Session) writer() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message := <-s.sendChan:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
				log.Printf("[Live Session %s] Failed to write message: %v", s.ID, err)
				s.Close()
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}

		case <-s.closeChan:
			s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// handleTextMessage decodes a JSON input event
func (s *Session) handleTextMessage(data []byte) {
	var ce ClientEvent
	if err := json.Unmarshal(data, &ce); err != nil {
		log.Printf("[Live Session %s] Invalid event JSON: %v", s.ID, err)
		return
	}
	ev, err := ce.Event(s.server.opts.MaxPanels)
	if err != nil {
		log.Printf("[Live Session %s] %v", s.ID, err)
		return
	}
	if err := s.Apply(ev); err != nil {
		log.Printf("[Live Session %s] %v", s.ID, err)
	}
}

// handleBinaryMessage processes binary protocol messages
func (s *Session) handleBinaryMessage(data []byte) {
	if len(data) == 0 {
		return
	}

	switch MessageType(data[0]) {
	case FrameEvent:
		s.handleTextMessage(data[1:])

	case FrameControl:
		msg, dec, err := DecodeControl(data)
		if err != nil {
			log.Printf("[Live Session %s] %v", s.ID, err)
			return
		}
		switch msg {
		case ControlHello:
			lastSeq, err := dec.ReadUvarint()
			if err != nil {
				log.Printf("[Live Session %s] Failed to decode HELLO: %v", s.ID, err)
				return
			}
			log.Printf("[Live Session %s] Client hello: lastSeq=%d", s.ID, lastSeq)
		case ControlPing:
			s.enqueue(EncodeControl(ControlPong))
		}
	}
}

// Apply delivers ev to the workspace and sends the resulting patches
func (s *Session) Apply(ev dispatch.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ws.Handle(ev)
	return s.flushLocked()
}

func (s *Session) flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

// flushLocked re-renders, diffs against the last tree the client received and queues the
// patches. The caller holds s.mu, so frames are queued in render order. A frame that
// cannot be queued drops the baseline and the next flush replaces the whole tree.
func (s *Session) flushLocked() error {
	next := s.ws.Render()
	patches := vdom.Diff(s.last, next)
	if len(patches) == 0 {
		s.last = next
		return nil
	}

	data, err := EncodePatches(patches)
	if err != nil {
		s.last = nil
		return fmt.Errorf("failed to encode patches: %w", err)
	}
	if err := s.enqueue(data); err != nil {
		s.last = nil
		return err
	}
	s.last = next
	s.lastSeq++
	return nil
}

// enqueue hands a frame to the writer without blocking
func (s *Session) enqueue(frame []byte) error {
	select {
	case <-s.closeChan:
		return fmt.Errorf("session %s closed", s.ID)
	default:
	}
	select {
	case s.sendChan <- frame:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// State returns the session's workspace state
func (s *Session) State() workspace.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ws.State()
}

// Seq returns the number of patch frames sent
func (s *Session) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeq
}

// Close tears the session down: the workspace is closed, which cancels any drag and
// deregisters its handlers, and the connection is shut.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closeChan)
		s.mu.Lock()
		s.ws.Close()
		s.mu.Unlock()
		// Unblock the reader; the writer sends the close frame and shuts the connection
		s.conn.SetReadDeadline(time.Now())
	})
}
