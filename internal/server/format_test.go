package server

import (
	"strings"
	"testing"
)

func TestNamePattern(t *testing.T) {
	valid := []string{"abc", "Alice_99", "a_b_c", "0123456789abcdef"}
	for _, name := range valid {
		if !namePattern.MatchString(name) {
			t.Errorf("namePattern rejected valid name %q", name)
		}
	}

	invalid := []string{"", "ab", "0123456789abcdefg", "with space", "dash-ed", "ünïcode", "tab\tchar"}
	for _, name := range invalid {
		if namePattern.MatchString(name) {
			t.Errorf("namePattern accepted invalid name %q", name)
		}
	}
}

func TestSplitTargetAndReason(t *testing.T) {
	tests := []struct {
		args       string
		wantNick   string
		wantReason string
	}{
		{"mallory being rude", "mallory", "being rude"},
		{"mallory", "mallory", "no reason given"},
		{"mallory   ", "mallory", "no reason given"},
		{"", "", "no reason given"},
	}

	for _, tt := range tests {
		nick, reason := splitTargetAndReason(tt.args)
		if nick != tt.wantNick || reason != tt.wantReason {
			t.Errorf("splitTargetAndReason(%q) = (%q, %q), want (%q, %q)",
				tt.args, nick, reason, tt.wantNick, tt.wantReason)
		}
	}
}

func TestFormatChatLine(t *testing.T) {
	session := newPipeSession(t)
	session.SetNickname("alice")
	session.SetPrefix("admin")
	session.SetChannel("lobby")

	line := formatChatLine(session, "hello &lworld&r")

	for _, want := range []string{"[&2#lobby&r]", "admin alice: ", "hello &lworld&r"} {
		if !strings.Contains(line, want) {
			t.Errorf("formatChatLine() = %q, want it to contain %q", line, want)
		}
	}
	if !strings.HasPrefix(line, "[") {
		t.Errorf("formatChatLine() = %q, want a leading timestamp", line)
	}
}

func TestFormatPrivateMessage(t *testing.T) {
	fromLine, toLine := formatPrivateMessage("alice", "bob", "psst")

	if !strings.Contains(fromLine, "[You ➔ bob]: psst") {
		t.Errorf("sender copy = %q", fromLine)
	}
	if !strings.Contains(toLine, "[alice ➔ You]: psst") {
		t.Errorf("recipient copy = %q", toLine)
	}
}
