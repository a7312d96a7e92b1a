package server

import (
	"net"
	"sync"

	"github.com/dyadamorgan/openprivnet/internal/wire"
)

// sessionState tags where a session is in its lifecycle. A session cannot be
// in a channel without a nickname.
type sessionState int

const (
	// stateConnected is a fresh connection with no nickname.
	stateConnected sessionState = iota
	// stateIdentified has a nickname but no channel.
	stateIdentified
	// stateInChannel has both a nickname and a channel.
	stateInChannel
)

// Session represents one connected chat client. It is owned by the goroutine
// running its read loop; other goroutines touch it only through the
// thread-safe accessors below (admin actions, broadcasts).
type Session struct {
	connection net.Conn
	conn       *wire.Conn
	ipAddr     string
	port       string

	mu       sync.Mutex
	state    sessionState
	nickname string
	prefix   string
	channel  string

	active    bool
	closeOnce sync.Once
}

func NewSession(connection net.Conn, codec *wire.Codec) *Session {
	ipAddr, port, _ := net.SplitHostPort(connection.RemoteAddr().String())

	return &Session{
		connection: connection,
		conn:       wire.NewConn(connection, codec),
		ipAddr:     ipAddr,
		port:       port,
		active:     true,
	}
}

func (s *Session) IPAddr() string { return s.ipAddr }
func (s *Session) Port() string   { return s.port }

// Active reports whether the session's read loop should keep running.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Disconnect flips the active flag and closes the socket, forcing the read
// loop out of its blocking receive. Safe to call any number of times from
// any goroutine.
func (s *Session) Disconnect() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.active = false
		s.mu.Unlock()
		_ = s.connection.Close()
	})
}

// Receive blocks until the next message arrives from the client.
func (s *Session) Receive() (string, error) {
	return s.conn.Receive()
}

// Send delivers a message to the client. Failures are treated as disconnects
// by every caller, never retried.
func (s *Session) Send(message string) error {
	return s.conn.Send(message)
}

func (s *Session) Nickname() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nickname
}

// SetNickname sets the session's identity and moves a fresh connection into
// the identified state.
func (s *Session) SetNickname(nickname string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nickname = nickname
	if s.state == stateConnected {
		s.state = stateIdentified
	}
}

func (s *Session) Prefix() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefix
}

func (s *Session) SetPrefix(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefix = prefix
}

func (s *Session) Channel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel
}

// SetChannel records channel membership. It is only called by the channel
// registry, which keeps this field consistent with its member lists.
func (s *Session) SetChannel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channel = name
	if name == "" {
		if s.state == stateInChannel {
			s.state = stateIdentified
		}
	} else {
		s.state = stateInChannel
	}
}

// State returns the session's current lifecycle state.
func (s *Session) State() sessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// displayName is the identity shown in chat lines and notices.
func (s *Session) displayName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prefix != "" {
		return s.prefix + " " + s.nickname
	}
	return s.nickname
}
