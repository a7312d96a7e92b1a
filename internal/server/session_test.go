package server

import (
	"net"
	"testing"

	"github.com/dyadamorgan/openprivnet/internal/wire"
)

func newPipeSession(t *testing.T) *Session {
	t.Helper()
	serverSide, clientSide := net.Pipe()
	t.Cleanup(func() {
		_ = serverSide.Close()
		_ = clientSide.Close()
	})
	return NewSession(serverSide, wire.NewCodec(nil))
}

func TestSessionStateTransitions(t *testing.T) {
	session := newPipeSession(t)

	if session.State() != stateConnected {
		t.Fatalf("fresh session state = %v, want stateConnected", session.State())
	}

	session.SetNickname("alice")
	if session.State() != stateIdentified {
		t.Errorf("state after SetNickname = %v, want stateIdentified", session.State())
	}

	session.SetChannel("lobby")
	if session.State() != stateInChannel {
		t.Errorf("state after SetChannel = %v, want stateInChannel", session.State())
	}
	if session.Channel() != "lobby" {
		t.Errorf("Channel() = %q, want %q", session.Channel(), "lobby")
	}

	session.SetChannel("")
	if session.State() != stateIdentified {
		t.Errorf("state after leaving = %v, want stateIdentified", session.State())
	}

	// Changing nickname while identified keeps the state.
	session.SetNickname("alice_2")
	if session.State() != stateIdentified {
		t.Errorf("state after renaming = %v, want stateIdentified", session.State())
	}
}

func TestSessionDisconnectIsIdempotent(t *testing.T) {
	session := newPipeSession(t)

	if !session.Active() {
		t.Fatal("fresh session is not active")
	}

	// Simulates an admin action and a socket error racing to tear the
	// session down.
	session.Disconnect()
	session.Disconnect()

	if session.Active() {
		t.Error("Active() = true after Disconnect()")
	}
}

func TestSessionDisplayName(t *testing.T) {
	session := newPipeSession(t)

	session.SetNickname("alice")
	if got := session.displayName(); got != "alice" {
		t.Errorf("displayName() = %q, want %q", got, "alice")
	}

	session.SetPrefix("admin")
	if got := session.displayName(); got != "admin alice" {
		t.Errorf("displayName() = %q, want %q", got, "admin alice")
	}
}

func TestSessionListClaimNickname(t *testing.T) {
	list := newSessionList()

	alice := newPipeSession(t)
	bob := newPipeSession(t)
	list.add(alice)
	list.add(bob)

	if !list.claimNickname(alice, "alice") {
		t.Fatal("claimNickname() failed for an unclaimed nickname")
	}
	if list.claimNickname(bob, "ALICE") {
		t.Error("claimNickname() allowed a case-insensitive duplicate")
	}
	// Re-claiming your own nickname is allowed (e.g. changing case).
	if !list.claimNickname(alice, "Alice") {
		t.Error("claimNickname() refused a session renaming itself")
	}

	if got := list.findByNickname("alice"); got != alice {
		t.Error("findByNickname() did not return the claiming session")
	}
	if got := list.findByNickname("ghost"); got != nil {
		t.Error("findByNickname() returned a session for an unclaimed nickname")
	}

	list.remove(alice)
	if got := list.findByNickname("alice"); got != nil {
		t.Error("findByNickname() returned a removed session")
	}
	if list.len() != 1 {
		t.Errorf("len() = %d after removal, want 1", list.len())
	}
}
