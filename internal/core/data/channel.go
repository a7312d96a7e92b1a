package data

import "gorm.io/gorm"

// Channel is a persisted channel name. Membership is runtime state and is
// never written to the database.
type Channel struct {
	Name string `gorm:"primaryKey"`
}

// ListChannels returns the names of every persisted channel.
func ListChannels(db *gorm.DB) ([]string, error) {
	var channels []Channel
	if err := db.Order("name").Find(&channels).Error; err != nil {
		return nil, err
	}

	names := make([]string, 0, len(channels))
	for _, c := range channels {
		names = append(names, c.Name)
	}
	return names, nil
}

// CreateChannel persists a channel name.
func CreateChannel(db *gorm.DB, name string) error {
	return db.Create(&Channel{Name: name}).Error
}

// DeleteChannel removes a channel name from the database.
func DeleteChannel(db *gorm.DB, name string) error {
	return db.Delete(&Channel{Name: name}).Error
}
