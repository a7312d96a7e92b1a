// Package server implements the connection and session engine: the acceptor,
// the per-connection read loop, and the command dispatcher that ties the
// channel registry, moderation store, and plugin registry together.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dyadamorgan/openprivnet/internal/channel"
	"github.com/dyadamorgan/openprivnet/internal/core"
	"github.com/dyadamorgan/openprivnet/internal/core/markup"
	"github.com/dyadamorgan/openprivnet/internal/moderation"
	"github.com/dyadamorgan/openprivnet/internal/plugin"
	"github.com/dyadamorgan/openprivnet/internal/wire"
)

// Server accepts client connections and runs one session goroutine per
// connection. Banned IPs and connections beyond the configured cap are
// rejected before any session state is created.
type Server struct {
	Name   string
	Config *core.Config
	Logger *logrus.Logger

	Channels   *channel.Registry
	Moderation *moderation.Store
	Plugins    *plugin.Registry
	Codec      *wire.Codec

	sessions *sessionList
	socket   *net.TCPListener
}

// Start opens the server's TCP socket and spins the accept loop off in its
// own goroutine, added to the WaitGroup. Context cancellation stops the
// server.
func (s *Server) Start(ctx context.Context, wg *sync.WaitGroup) error {
	s.sessions = newSessionList()

	socket, err := s.createSocket()
	if err != nil {
		return fmt.Errorf("error creating socket on %s: %w", s.Config.BindAddress(), err)
	}
	s.socket = socket

	wg.Add(1)
	go s.startBlockingLoop(ctx, wg)

	return nil
}

// ListenAddr returns the address the server's socket is bound to.
func (s *Server) ListenAddr() net.Addr {
	return s.socket.Addr()
}

func (s *Server) createSocket() (*net.TCPListener, error) {
	hostAddr, err := net.ResolveTCPAddr("tcp", s.Config.BindAddress())
	if err != nil {
		return nil, fmt.Errorf("error resolving address: %w", err)
	}

	socket, err := net.ListenTCP("tcp", hostAddr)
	if err != nil {
		return nil, fmt.Errorf("error listening on socket: %w", err)
	}

	return socket, nil
}

// startBlockingLoop accepts new connections and spins off a goroutine to
// handle each one until the context is cancelled.
func (s *Server) startBlockingLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	s.Logger.Printf("[%s] waiting for connections on %v", s.Name, s.socket.Addr())

	connections := make(chan *net.TCPConn)
	go func() {
		defer close(connections)
		for {
			connection, err := s.socket.AcceptTCP()
			if err != nil {
				// Closed by the shutdown path below.
				return
			}
			connections <- connection
		}
	}()

	sessionWg := &sync.WaitGroup{}
handleLoop:
	for {
		select {
		case <-ctx.Done():
			break handleLoop
		case connection, ok := <-connections:
			if !ok {
				break handleLoop
			}
			sessionWg.Add(1)
			go s.acceptClient(ctx, connection, sessionWg)
		}
	}

	_ = s.socket.Close()
	s.Logger.Infof("[%s] shutting down (waiting for connections to close)", s.Name)
	// Unblock any read loops still parked in a receive.
	s.sessions.disconnectAll()
	sessionWg.Wait()
	s.Logger.Infof("[%s] exited", s.Name)
}

// acceptClient screens a new connection and, if it passes, sets up a Session
// and moves into the message processing loop. Rejections happen before any
// session state exists: banned IPs are closed silently (not even a welcome
// frame), capacity rejections get a short notice.
func (s *Server) acceptClient(ctx context.Context, connection *net.TCPConn, wg *sync.WaitGroup) {
	defer wg.Done()

	ipAddr, _, _ := net.SplitHostPort(connection.RemoteAddr().String())

	banned, err := s.Moderation.IsBanned(ipAddr)
	if err != nil {
		s.Logger.Errorf("error checking ban list for %s: %v", ipAddr, err)
		_ = connection.Close()
		return
	}
	if banned {
		s.Logger.Infof("[%s] rejected connection from banned IP %s", s.Name, ipAddr)
		_ = connection.Close()
		return
	}

	if s.sessions.len() >= s.Config.MaxConnections {
		s.Logger.Infof("[%s] rejected connection from %s: server is full", s.Name, ipAddr)
		_ = wire.NewConn(connection, s.Codec).Send("Server is full, try again later.")
		_ = connection.Close()
		return
	}

	session := NewSession(connection, s.Codec)
	s.sessions.add(session)
	s.Logger.Infof("[%s] accepted connection from %s:%s", s.Name, session.IPAddr(), session.Port())

	// The welcome text carries its markup codes verbatim; rendering is the
	// client's job.
	if err := session.Send(s.Config.WelcomeText); err != nil {
		s.Logger.Warnf("error sending welcome to %s: %v", session.IPAddr(), err)
	}

	s.processMessages(ctx, session)
}

// processMessages runs the session's blocking read loop and only returns
// once the connection is finished. Teardown is idempotent: it runs exactly
// once whether the session ended via socket error, admin action, or server
// shutdown.
func (s *Server) processMessages(ctx context.Context, session *Session) {
	defer s.closeSessionAndRecover(session)

	for session.Active() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		message, err := session.Receive()
		if errors.Is(err, io.EOF) {
			return
		} else if err != nil {
			if session.Active() {
				s.Logger.Warnf("error receiving from %s: %v", session.IPAddr(), err)
			}
			return
		}

		s.dispatch(session, message)
	}
}

// closeSessionAndRecover is the failsafe that catches any panics, removes the
// session from its channel and the session list, and closes the connection
// regardless of how the read loop ended.
func (s *Server) closeSessionAndRecover(session *Session) {
	if err := recover(); err != nil {
		s.Logger.Errorf("error in client communication with %s: error=%s, trace: %s",
			session.IPAddr(), err, debug.Stack())
	}

	s.Channels.Leave(session)
	s.sessions.remove(session)
	session.Disconnect()

	s.Logger.Infof("[%s] disconnected client %s", s.Name, session.IPAddr())
}

// forceDisconnect tears down a session from outside its own read loop, used
// by moderation actions. The target's read loop observes the closed socket
// and finishes its own teardown; both paths are safe to run.
func (s *Server) forceDisconnect(session *Session) {
	s.Channels.Leave(session)
	s.sessions.remove(session)
	session.Disconnect()
}

// echoConsole prints a chat line on the server's own console with the markup
// rendered. The broadcast itself always carries the literal codes.
func (s *Server) echoConsole(line string) {
	s.Logger.Info(markup.Render(line))
}
