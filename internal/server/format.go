package server

import (
	"fmt"
	"time"
)

const chatTimestampFormat = "15:04"

// formatChatLine builds the line broadcast to a channel for a plain chat
// message. The channel name is wrapped in markup codes that travel to the
// clients verbatim.
func formatChatLine(session *Session, message string) string {
	return fmt.Sprintf("[%s] [&2#%s&r] %s: %s",
		time.Now().Format(chatTimestampFormat),
		session.Channel(),
		session.displayName(),
		message,
	)
}

// formatPrivateMessage builds the sender's echo copy and the recipient's
// copy of a /msg exchange.
func formatPrivateMessage(from, to, text string) (fromLine, toLine string) {
	timestamp := time.Now().Format(chatTimestampFormat)
	fromLine = fmt.Sprintf("[%s] [You ➔ %s]: %s", timestamp, to, text)
	toLine = fmt.Sprintf("[%s] [%s ➔ You]: %s", timestamp, from, text)
	return fromLine, toLine
}
