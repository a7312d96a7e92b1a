package server

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// dispatch routes one line of client input. /-prefixed input is resolved as
// built-in command, then admin command, then plugin command, in that order;
// anything else is a chat line for the session's channel.
func (s *Server) dispatch(session *Session, input string) {
	if !strings.HasPrefix(input, "/") {
		s.handleChat(session, input)
		return
	}

	parts := strings.SplitN(strings.TrimSpace(input), " ", 2)
	command := parts[0]
	args := ""
	if len(parts) > 1 {
		args = strings.TrimSpace(parts[1])
	}

	if s.handleBuiltin(session, command, args) {
		return
	}
	if s.handleAdmin(session, command, args) {
		return
	}
	if handler, ok := s.Plugins.Lookup(command); ok {
		if err := handler(session, args, session.Send); err != nil {
			s.Logger.Warnf("error in plugin command %s: %v", command, err)
		}
		return
	}

	s.reply(session, "Unknown command. Type /help")
}

// handleChat broadcasts a plain-text line to the session's channel. Outside
// of the in-channel state the line is discarded and the client is told which
// precondition is missing.
func (s *Server) handleChat(session *Session, message string) {
	switch session.State() {
	case stateConnected:
		s.reply(session, "Set your nickname first with /nick <name>")
		return
	case stateIdentified:
		s.reply(session, "You are not in a channel. Use /join <channel>")
		return
	}

	line := formatChatLine(session, message)
	s.echoConsole(line)
	s.Channels.Broadcast(session.Channel(), line)
}

// reply sends a server response to a single session. A failed reply means
// the peer is gone; the read loop will notice on its next receive, so the
// error is only logged here.
func (s *Server) reply(session *Session, message string) {
	if err := session.Send(message); err != nil {
		s.Logger.Debugf("error replying to %s: %v", session.IPAddr(), err)
	}
}

// replyError surfaces an internal error to the client as presentable text.
func (s *Server) replyError(session *Session, err error) {
	s.Logger.Errorf("error handling command from %s: %v", session.IPAddr(), err)
	s.reply(session, cases.Title(language.English).String(err.Error()))
}
