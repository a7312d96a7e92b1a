package data

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Admin identifies an operator by the exact IP and (case-insensitive)
// nickname pair they connect with. Records are immutable at runtime and
// loaded once at startup.
type Admin struct {
	ID       uint64 `gorm:"primaryKey"`
	IP       string `gorm:"not null"`
	Nickname string `gorm:"not null"`
	Prefix   string
	// Immunity ranks admins against each other; moderation actions are
	// refused when the target's rank is greater than or equal to the caller's.
	Immunity int
}

// BanRecord bans the stored IP from connecting. The nickname is informational
// only, though it is the key by which unban operates.
type BanRecord struct {
	ID        uint64 `gorm:"primaryKey"`
	IP        string `gorm:"not null"`
	Nickname  string
	Reason    string
	CreatedAt time.Time
}

// WarnCount tracks how many warnings an IP has accumulated. The row is
// deleted when the subject is escalated to a ban.
type WarnCount struct {
	IP    string `gorm:"primaryKey"`
	Count int
}

// ListAdmins returns every admin record.
func ListAdmins(db *gorm.DB) ([]Admin, error) {
	var admins []Admin
	if err := db.Order("id").Find(&admins).Error; err != nil {
		return nil, err
	}
	return admins, nil
}

// CreateAdmin persists an Admin record to the database.
func CreateAdmin(db *gorm.DB, admin *Admin) error {
	return db.Create(admin).Error
}

// ListBans returns every ban record in the order they were created.
func ListBans(db *gorm.DB) ([]BanRecord, error) {
	var bans []BanRecord
	if err := db.Order("id").Find(&bans).Error; err != nil {
		return nil, err
	}
	return bans, nil
}

// FindBanByIP searches for a ban record matching the specified IP, returning
// the *BanRecord instance if found or nil if there is no match.
func FindBanByIP(db *gorm.DB, ip string) (*BanRecord, error) {
	var ban BanRecord
	err := db.Where("ip = ?", ip).First(&ban).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &ban, nil
}

// FindBanByNickname searches for the oldest ban record whose stored nickname
// matches case-insensitively, returning nil if there is no match.
func FindBanByNickname(db *gorm.DB, nickname string) (*BanRecord, error) {
	var ban BanRecord
	err := db.Where("LOWER(nickname) = ?", strings.ToLower(nickname)).Order("id").First(&ban).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &ban, nil
}

// CreateBan persists a BanRecord to the database.
func CreateBan(db *gorm.DB, ban *BanRecord) error {
	return db.Create(ban).Error
}

// DeleteBan permanently removes a ban record.
func DeleteBan(db *gorm.DB, ban *BanRecord) error {
	return db.Delete(ban).Error
}

// FindWarnCount returns the warning counter for an IP, or nil if the IP has
// never been warned.
func FindWarnCount(db *gorm.DB, ip string) (*WarnCount, error) {
	var warn WarnCount
	err := db.Where("ip = ?", ip).First(&warn).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &warn, nil
}

// SaveWarnCount writes a warning counter, inserting or updating as needed.
func SaveWarnCount(db *gorm.DB, warn *WarnCount) error {
	return db.Clauses(clause.OnConflict{UpdateAll: true}).Create(warn).Error
}

// DeleteWarnCount removes the warning counter for an IP.
func DeleteWarnCount(db *gorm.DB, ip string) error {
	return db.Delete(&WarnCount{IP: ip}).Error
}
