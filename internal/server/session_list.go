package server

import (
	"container/list"
	"strings"
	"sync"
)

// A concurrency-safe wrapper around container/list for maintaining the
// collection of connected sessions. Used for nickname lookup and capacity
// counting; it deliberately does not share the channel registry's lock.
type sessionList struct {
	sessions *list.List
	sync.RWMutex
}

func newSessionList() *sessionList {
	return &sessionList{sessions: list.New()}
}

func (sl *sessionList) add(s *Session) {
	sl.Lock()
	sl.sessions.PushBack(s)
	sl.Unlock()
}

func (sl *sessionList) remove(s *Session) {
	sl.Lock()
	defer sl.Unlock()

	for elem := sl.sessions.Front(); elem != nil; elem = elem.Next() {
		if elem.Value.(*Session) == s {
			sl.sessions.Remove(elem)
			break
		}
	}
}

// findByNickname returns the connected session holding the nickname
// (case-insensitively), or nil.
func (sl *sessionList) findByNickname(nickname string) *Session {
	sl.RLock()
	defer sl.RUnlock()

	for elem := sl.sessions.Front(); elem != nil; elem = elem.Next() {
		session := elem.Value.(*Session)
		if candidate := session.Nickname(); candidate != "" && strings.EqualFold(candidate, nickname) {
			return session
		}
	}
	return nil
}

// claimNickname atomically checks that no other session holds the nickname
// (case-insensitively) and assigns it to s. The check and the assignment
// happen under the list's write lock so that two sessions racing for the
// same nickname cannot both win.
func (sl *sessionList) claimNickname(s *Session, nickname string) bool {
	sl.Lock()
	defer sl.Unlock()

	for elem := sl.sessions.Front(); elem != nil; elem = elem.Next() {
		session := elem.Value.(*Session)
		if session == s {
			continue
		}
		if candidate := session.Nickname(); candidate != "" && strings.EqualFold(candidate, nickname) {
			return false
		}
	}

	s.SetNickname(nickname)
	return true
}

// disconnectAll closes every connected session, used on server shutdown.
func (sl *sessionList) disconnectAll() {
	sl.RLock()
	snapshot := make([]*Session, 0, sl.sessions.Len())
	for elem := sl.sessions.Front(); elem != nil; elem = elem.Next() {
		snapshot = append(snapshot, elem.Value.(*Session))
	}
	sl.RUnlock()

	for _, session := range snapshot {
		session.Disconnect()
	}
}

func (sl *sessionList) len() int {
	sl.RLock()
	defer sl.RUnlock()
	return sl.sessions.Len()
}
