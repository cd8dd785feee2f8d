package db

import "time"

type Topic struct {
	ID        uint        `gorm:"primaryKey"`
	Name      string      `gorm:"size:120;not null;uniqueIndex"`
	Editable  bool        `gorm:"not null;default:false"`
	OwnerID   *string     `gorm:"size:64"`
	CreatedAt time.Time   `gorm:"not null"`
	UpdatedAt time.Time   `gorm:"not null"`
	Items     []TopicItem `gorm:"constraint:OnDelete:CASCADE"`
}

// TopicItem positions are 1-based display order within the topic.
type TopicItem struct {
	ID        uint      `gorm:"primaryKey"`
	TopicID   uint      `gorm:"index;not null;uniqueIndex:idx_topic_items_topic_position;uniqueIndex:idx_topic_items_topic_name"`
	Name      string    `gorm:"size:120;not null;uniqueIndex:idx_topic_items_topic_name"`
	Position  int       `gorm:"not null;uniqueIndex:idx_topic_items_topic_position"`
	CreatedAt time.Time `gorm:"not null"`
}
