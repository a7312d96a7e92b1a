package server

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dyadamorgan/openprivnet/internal/channel"
)

// ServerVersion is reported by /version.
const ServerVersion = "openPrivNet server 1.0.0"

// Nicknames and prefixes share the same character class and length bounds.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,16}$`)

const helpText = "/nick <name>\n/prefix <prefix>\n/join <channel>\n" +
	"/leave\n/who\n/list\n/msg <nick> <text>\n/admins\n/version\n" +
	"/help\n/hello - example plugin"

// handleBuiltin runs command if it is one of the built-in commands available
// to every client, returning false if the command is not a built-in.
func (s *Server) handleBuiltin(session *Session, command, args string) bool {
	switch command {
	case "/nick":
		s.handleNick(session, args)
	case "/prefix":
		s.handlePrefix(session, args)
	case "/join":
		s.handleJoin(session, args)
	case "/leave":
		s.handleLeave(session)
	case "/who":
		s.handleWho(session)
	case "/list":
		s.handleList(session)
	case "/msg":
		s.handleMsg(session, args)
	case "/help":
		s.reply(session, helpText)
	case "/version":
		s.reply(session, ServerVersion)
	case "/admins":
		s.handleAdmins(session)
	default:
		return false
	}
	return true
}

func (s *Server) handleNick(session *Session, args string) {
	if !namePattern.MatchString(args) {
		s.reply(session, "Invalid nickname: use 3-16 letters, digits or underscores.")
		return
	}
	if !s.sessions.claimNickname(session, args) {
		s.reply(session, fmt.Sprintf("Nickname '%s' is already taken.", args))
		return
	}

	// The new identity may resolve to an admin record; pick up its prefix.
	if admin := s.Moderation.FindAdmin(session.IPAddr(), args); admin != nil {
		session.SetPrefix(admin.Prefix)
	}

	s.reply(session, fmt.Sprintf("Nickname set: %s", args))
}

func (s *Server) handlePrefix(session *Session, args string) {
	if !namePattern.MatchString(args) {
		s.reply(session, "Invalid prefix: use 3-16 letters, digits or underscores.")
		return
	}
	session.SetPrefix(args)
	s.reply(session, fmt.Sprintf("Prefix set: %s", args))
}

func (s *Server) handleJoin(session *Session, args string) {
	if session.State() == stateConnected {
		s.reply(session, "Set your nickname first with /nick <name>")
		return
	}
	if args == "" {
		s.reply(session, "Format: /join <channel>")
		return
	}

	err := s.Channels.Join(session, args)
	switch {
	case errors.Is(err, channel.ErrAlreadyInChannel):
		s.reply(session, fmt.Sprintf("You are already in channel #%s", session.Channel()))
	case errors.Is(err, channel.ErrChannelNotFound):
		s.reply(session, fmt.Sprintf("Channel #%s does not exist.", args))
	case err != nil:
		s.replyError(session, err)
	default:
		s.reply(session, fmt.Sprintf("You joined channel #%s", args))
	}
}

func (s *Server) handleLeave(session *Session) {
	name := session.Channel()
	if name == "" {
		s.reply(session, "You are not in any channel.")
		return
	}
	s.Channels.Leave(session)
	s.reply(session, fmt.Sprintf("You left channel #%s", name))
}

func (s *Server) handleWho(session *Session) {
	name := session.Channel()
	if name == "" {
		s.reply(session, "You are not in any channel.")
		return
	}

	members, err := s.Channels.Members(name)
	if err != nil {
		s.replyError(session, err)
		return
	}
	s.reply(session, fmt.Sprintf("Channel #%s members: %s", name, strings.Join(members, ", ")))
}

func (s *Server) handleList(session *Session) {
	names := s.Channels.List()
	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, "#"+name)
	}
	s.reply(session, "Channels list:\n"+strings.Join(lines, "\n"))
}

func (s *Server) handleMsg(session *Session, args string) {
	if session.State() == stateConnected {
		s.reply(session, "Set your nickname first with /nick <name>")
		return
	}

	to, text, ok := strings.Cut(args, " ")
	if !ok || strings.TrimSpace(text) == "" {
		s.reply(session, "Format: /msg <nick> <message>")
		return
	}

	target := s.sessions.findByNickname(to)
	if target == nil {
		s.reply(session, fmt.Sprintf("User '%s' not found.", to))
		return
	}

	fromLine, toLine := formatPrivateMessage(session.Nickname(), to, text)
	s.reply(session, fromLine)
	if err := target.Send(toLine); err != nil {
		s.Logger.Debugf("error delivering private message to %s: %v", target.IPAddr(), err)
	}
}

func (s *Server) handleAdmins(session *Session) {
	nicknames := s.Moderation.AdminNicknames()
	if len(nicknames) == 0 {
		s.reply(session, "No admins are configured.")
		return
	}
	s.reply(session, "Admins: "+strings.Join(nicknames, ", "))
}
