// Package channel maintains the named broadcast groups and their ordered
// memberships. All structural operations and the membership mutations caused
// by broadcast send failures happen under one coordination lock so that the
// channel map and member lists stay consistent across sessions.
package channel

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"gorm.io/gorm"

	"github.com/dyadamorgan/openprivnet/internal/core/data"
)

var (
	ErrChannelExists    = errors.New("channel already exists")
	ErrChannelNotFound  = errors.New("channel does not exist")
	ErrAlreadyInChannel = errors.New("already in a channel")
)

// Member is the view of a session the registry needs: identity, the session's
// channel field (which the registry keeps in lockstep with its member lists),
// delivery, and forced disconnection for members whose sends fail.
type Member interface {
	Nickname() string
	Channel() string
	SetChannel(name string)
	Send(message string) error
	Disconnect()
}

// Registry is the owning component for channels. Channel names are persisted;
// memberships exist only for the lifetime of the member's connection.
type Registry struct {
	mu       sync.Mutex
	db       *gorm.DB
	channels map[string][]Member
}

// NewRegistry loads the persisted channel list and returns a registry with
// every channel empty.
func NewRegistry(db *gorm.DB) (*Registry, error) {
	names, err := data.ListChannels(db)
	if err != nil {
		return nil, fmt.Errorf("error loading channel list: %w", err)
	}

	channels := make(map[string][]Member, len(names))
	for _, name := range names {
		channels[name] = nil
	}

	return &Registry{db: db, channels: channels}, nil
}

// Create persists a new, empty channel.
func (r *Registry) Create(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.channels[name]; ok {
		return ErrChannelExists
	}
	if err := data.CreateChannel(r.db, name); err != nil {
		return fmt.Errorf("error persisting channel %s: %w", name, err)
	}

	r.channels[name] = nil
	return nil
}

// Delete removes a channel and drops its member list. Members are not
// notified; that is the caller's responsibility.
func (r *Registry) Delete(name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.channels[name]
	if !ok {
		return 0, ErrChannelNotFound
	}
	if err := data.DeleteChannel(r.db, name); err != nil {
		return 0, fmt.Errorf("error deleting channel %s: %w", name, err)
	}

	for _, m := range members {
		m.SetChannel("")
	}
	delete(r.channels, name)
	return len(members), nil
}

// Join adds a member to a channel. A member can be in at most one channel at
// a time and channels are never created implicitly by a join.
func (r *Registry) Join(m Member, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m.Channel() != "" {
		return ErrAlreadyInChannel
	}
	members, ok := r.channels[name]
	if !ok {
		return ErrChannelNotFound
	}

	m.SetChannel(name)
	r.channels[name] = append(members, m)
	return nil
}

// Leave removes a member from its channel. Leaving while not in a channel is
// a no-op success.
func (r *Registry) Leave(m Member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(m)
}

func (r *Registry) removeLocked(m Member) {
	name := m.Channel()
	if name == "" {
		return
	}

	m.SetChannel("")
	members := r.channels[name]
	for i, member := range members {
		if member == m {
			r.channels[name] = append(members[:i:i], members[i+1:]...)
			break
		}
	}
}

// Broadcast delivers a message to every member of a channel in join order,
// including the sender if the sender is a member. Members whose sends fail
// are forcibly disconnected and removed from the channel. Returns the number
// of successful deliveries.
func (r *Registry) Broadcast(name, message string) int {
	r.mu.Lock()
	snapshot := make([]Member, len(r.channels[name]))
	copy(snapshot, r.channels[name])
	r.mu.Unlock()

	delivered := 0
	var failed []Member
	for _, m := range snapshot {
		if err := m.Send(message); err != nil {
			failed = append(failed, m)
			continue
		}
		delivered++
	}

	if len(failed) > 0 {
		r.mu.Lock()
		for _, m := range failed {
			r.removeLocked(m)
		}
		r.mu.Unlock()

		for _, m := range failed {
			m.Disconnect()
		}
	}

	return delivered
}

// Members returns the nicknames of a channel's members in join order.
func (r *Registry) Members(name string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.channels[name]
	if !ok {
		return nil, ErrChannelNotFound
	}

	nicknames := make([]string, 0, len(members))
	for _, m := range members {
		nicknames = append(nicknames, m.Nickname())
	}
	return nicknames, nil
}

// List returns the names of every channel.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.channels))
	for name := range r.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
