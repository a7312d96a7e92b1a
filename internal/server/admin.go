package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dyadamorgan/openprivnet/internal/core/data"
	"github.com/dyadamorgan/openprivnet/internal/moderation"
)

const adminHelpText = "/ahelp\n/kick <nick> <reason>\n/banip <nick> <reason>\n" +
	"/warn <nick>\n/bans\n/unban <nick>\n/plugin_reload"

// banTimestampFormat is used when listing ban records.
const banTimestampFormat = "2006-01-02 15:04:05"

// handleAdmin runs command if it belongs to the admin-gated set, returning
// false if it does not. Every command here requires the caller to resolve to
// an admin record by IP and nickname; non-admins get a denial and no state
// changes.
func (s *Server) handleAdmin(session *Session, command, args string) bool {
	switch command {
	case "/ahelp", "/kick", "/banip", "/warn", "/bans", "/unban", "/plugin_reload":
	default:
		return false
	}

	admin := s.Moderation.FindAdmin(session.IPAddr(), session.Nickname())
	if admin == nil {
		s.reply(session, "You are not authorized to use admin commands.")
		return true
	}

	switch command {
	case "/ahelp":
		s.reply(session, adminHelpText)
	case "/kick":
		s.handleKick(session, admin, args)
	case "/banip":
		s.handleBanIP(session, admin, args)
	case "/warn":
		s.handleWarn(session, admin, args)
	case "/bans":
		s.handleBans(session)
	case "/unban":
		s.handleUnban(session, args)
	case "/plugin_reload":
		loaded := s.Plugins.Reload()
		s.reply(session, fmt.Sprintf("Plugins reloaded (%d loaded).", loaded))
	}
	return true
}

// resolveTarget finds the connected session for a moderation target and
// enforces the immunity ordering. Returns nil after replying if the action
// must not proceed.
func (s *Server) resolveTarget(session *Session, admin *data.Admin, nickname string) *Session {
	if nickname == "" {
		s.reply(session, "Format: <command> <nick> [reason]")
		return nil
	}

	target := s.sessions.findByNickname(nickname)
	if target == nil {
		s.reply(session, fmt.Sprintf("User '%s' not found.", nickname))
		return nil
	}

	if s.Moderation.Immune(admin, target.IPAddr(), target.Nickname()) {
		s.reply(session, fmt.Sprintf("You cannot act on '%s': their immunity is not below yours.", target.Nickname()))
		return nil
	}

	return target
}

func (s *Server) handleKick(session *Session, admin *data.Admin, args string) {
	nickname, reason := splitTargetAndReason(args)
	target := s.resolveTarget(session, admin, nickname)
	if target == nil {
		return
	}

	s.reply(target, fmt.Sprintf("You were kicked by %s (%s)", session.Nickname(), reason))
	s.removeWithNotice(target, fmt.Sprintf("&c%s was kicked by %s (%s)&r", target.Nickname(), session.Nickname(), reason))
	s.reply(session, fmt.Sprintf("Kicked '%s'.", target.Nickname()))
}

func (s *Server) handleBanIP(session *Session, admin *data.Admin, args string) {
	nickname, reason := splitTargetAndReason(args)
	target := s.resolveTarget(session, admin, nickname)
	if target == nil {
		return
	}

	if err := s.Moderation.Ban(target.IPAddr(), target.Nickname(), reason); err != nil {
		s.replyError(session, err)
		return
	}

	s.reply(target, fmt.Sprintf("You were banned by %s (%s)", session.Nickname(), reason))
	s.removeWithNotice(target, fmt.Sprintf("&c%s was banned by %s (%s)&r", target.Nickname(), session.Nickname(), reason))
	s.reply(session, fmt.Sprintf("Banned '%s' (%s).", target.Nickname(), target.IPAddr()))
}

func (s *Server) handleWarn(session *Session, admin *data.Admin, args string) {
	nickname, _ := splitTargetAndReason(args)
	target := s.resolveTarget(session, admin, nickname)
	if target == nil {
		return
	}

	count, escalated, err := s.Moderation.Warn(target.IPAddr(), target.Nickname())
	if err != nil {
		s.replyError(session, err)
		return
	}

	if escalated {
		s.reply(target, fmt.Sprintf("You were banned: %s", moderation.WarnBanReason))
		s.removeWithNotice(target, fmt.Sprintf("&c%s was banned (%s)&r", target.Nickname(), moderation.WarnBanReason))
		s.reply(session, fmt.Sprintf("'%s' reached %d warnings and was banned.", target.Nickname(), count))
		return
	}

	s.reply(target, fmt.Sprintf("You were warned by %s (%d/%d)", session.Nickname(), count, s.Moderation.WarnLimit()))
	s.reply(session, fmt.Sprintf("Warned '%s' (%d/%d).", target.Nickname(), count, s.Moderation.WarnLimit()))
}

func (s *Server) handleBans(session *Session) {
	bans, err := s.Moderation.Bans()
	if err != nil {
		s.replyError(session, err)
		return
	}
	if len(bans) == 0 {
		s.reply(session, "The ban list is empty.")
		return
	}

	lines := make([]string, 0, len(bans)+1)
	lines = append(lines, "Ban list:")
	for i, ban := range bans {
		lines = append(lines, fmt.Sprintf("%d. %s (%s): %s [%s]",
			i+1, ban.Nickname, ban.IP, ban.Reason, ban.CreatedAt.Format(banTimestampFormat)))
	}
	s.reply(session, strings.Join(lines, "\n"))
}

func (s *Server) handleUnban(session *Session, args string) {
	if args == "" {
		s.reply(session, "Format: /unban <nick>")
		return
	}

	err := s.Moderation.Unban(args)
	if errors.Is(err, moderation.ErrBanNotFound) {
		s.reply(session, fmt.Sprintf("No ban found for nickname '%s'.", args))
		return
	}
	if err != nil {
		s.replyError(session, err)
		return
	}
	s.reply(session, fmt.Sprintf("Unbanned '%s'.", args))
}

// removeWithNotice force-disconnects the target and broadcasts a system
// notice to the channel it was in, if any.
func (s *Server) removeWithNotice(target *Session, notice string) {
	channelName := target.Channel()
	s.forceDisconnect(target)

	if channelName != "" {
		s.echoConsole(notice)
		s.Channels.Broadcast(channelName, notice)
	}
}

// splitTargetAndReason splits "/kick nick being rude" args into the target
// nickname and the free-form reason.
func splitTargetAndReason(args string) (string, string) {
	nickname, reason, _ := strings.Cut(args, " ")
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "no reason given"
	}
	return nickname, reason
}
