// Package moderation owns the admin list, the ban list, and the per-IP
// warning counters. Admin records are loaded once and immutable at runtime;
// bans and warnings are rewritten through the database on every mutation, so
// concurrent mutations are serialized behind the store's lock.
package moderation

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/dyadamorgan/openprivnet/internal/core/data"
)

var ErrBanNotFound = errors.New("no ban found for that nickname")

// WarnBanReason is the reason recorded when repeated warnings escalate a
// client to a ban.
const WarnBanReason = "multiple warnings"

// banCacheTTL bounds how stale a cached ban lookup may be. The cache is
// flushed on every mutation so this only matters if the database is edited
// out from underneath the server.
const banCacheTTL = time.Minute

// Store answers every moderation question the server has: who is an admin,
// who is banned, and how close an IP is to being escalated from warnings to
// a ban.
type Store struct {
	mu        sync.Mutex
	db        *gorm.DB
	admins    []data.Admin
	banCache  *Cache
	warnLimit int
}

// NewStore loads the admin list and returns a store backed by db.
func NewStore(db *gorm.DB, warnLimit int) (*Store, error) {
	admins, err := data.ListAdmins(db)
	if err != nil {
		return nil, fmt.Errorf("error loading admin list: %w", err)
	}

	return &Store{
		db:        db,
		admins:    admins,
		banCache:  NewCache(banCacheTTL),
		warnLimit: warnLimit,
	}, nil
}

// FindAdmin returns the admin record matching the exact IP and
// case-insensitive nickname pair, or nil if the caller is not an admin.
func (s *Store) FindAdmin(ip, nickname string) *data.Admin {
	for i := range s.admins {
		admin := &s.admins[i]
		if admin.IP == ip && strings.EqualFold(admin.Nickname, nickname) {
			return admin
		}
	}
	return nil
}

// AdminNicknames returns the nicknames of every admin record.
func (s *Store) AdminNicknames() []string {
	nicknames := make([]string, 0, len(s.admins))
	for _, admin := range s.admins {
		nicknames = append(nicknames, admin.Nickname)
	}
	return nicknames
}

// Immune reports whether the target outranks (or ties) the caller and is
// therefore protected from the caller's moderation actions.
func (s *Store) Immune(caller *data.Admin, targetIP, targetNickname string) bool {
	target := s.FindAdmin(targetIP, targetNickname)
	return target != nil && target.Immunity >= caller.Immunity
}

// IsBanned reports whether any ban record matches the IP.
func (s *Store) IsBanned(ip string) (bool, error) {
	if banned, found := s.banCache.Get(ip); found {
		return banned.(bool), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ban, err := data.FindBanByIP(s.db, ip)
	if err != nil {
		return false, fmt.Errorf("error looking up ban for %s: %w", ip, err)
	}

	s.banCache.Put(ip, ban != nil)
	return ban != nil, nil
}

// Ban appends a persisted ban record for the IP. The nickname is stored for
// operator reference (and as the unban key), not for enforcement.
func (s *Store) Ban(ip, nickname, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.banLocked(ip, nickname, reason)
}

func (s *Store) banLocked(ip, nickname, reason string) error {
	ban := &data.BanRecord{IP: ip, Nickname: nickname, Reason: reason}
	if err := data.CreateBan(s.db, ban); err != nil {
		return fmt.Errorf("error persisting ban for %s: %w", ip, err)
	}

	s.banCache.Flush()
	return nil
}

// Unban removes the first ban record whose stored nickname matches
// case-insensitively. Bans are keyed by IP but removed by nickname; the
// asymmetry is inherited from the protocol and kept.
func (s *Store) Unban(nickname string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ban, err := data.FindBanByNickname(s.db, nickname)
	if err != nil {
		return fmt.Errorf("error looking up ban for %s: %w", nickname, err)
	}
	if ban == nil {
		return ErrBanNotFound
	}

	if err := data.DeleteBan(s.db, ban); err != nil {
		return fmt.Errorf("error removing ban for %s: %w", nickname, err)
	}

	s.banCache.Flush()
	return nil
}

// Bans returns every ban record, oldest first.
func (s *Store) Bans() ([]data.BanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return data.ListBans(s.db)
}

// Warn increments the warning counter for an IP. When the counter reaches
// the warn limit it is cleared and the IP is escalated to a full ban with
// reason WarnBanReason; the returned escalated flag tells the caller to
// disconnect the target.
func (s *Store) Warn(ip, nickname string) (count int, escalated bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	warn, err := data.FindWarnCount(s.db, ip)
	if err != nil {
		return 0, false, fmt.Errorf("error looking up warnings for %s: %w", ip, err)
	}
	if warn == nil {
		warn = &data.WarnCount{IP: ip}
	}
	warn.Count++

	if warn.Count >= s.warnLimit {
		if err := data.DeleteWarnCount(s.db, ip); err != nil {
			return 0, false, fmt.Errorf("error clearing warnings for %s: %w", ip, err)
		}
		if err := s.banLocked(ip, nickname, WarnBanReason); err != nil {
			return 0, false, err
		}
		return warn.Count, true, nil
	}

	if err := data.SaveWarnCount(s.db, warn); err != nil {
		return 0, false, fmt.Errorf("error persisting warnings for %s: %w", ip, err)
	}
	return warn.Count, false, nil
}

// WarnLimit returns the number of warnings at which escalation happens.
func (s *Store) WarnLimit() int {
	return s.warnLimit
}
