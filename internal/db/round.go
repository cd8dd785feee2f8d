package db

import "time"

type Round struct {
	ID          uint   `gorm:"primaryKey"`
	GameID      uint   `gorm:"index;not null;uniqueIndex:idx_rounds_game_number"`
	Number      int    `gorm:"not null;uniqueIndex:idx_rounds_game_number"`
	TopicID     uint   `gorm:"index;not null"`
	VIPPlayerID uint   `gorm:"index;not null"`
	Status      string `gorm:"size:32;not null"`
	RevealIndex int    `gorm:"not null;default:0"`
	ItemCount   int    `gorm:"not null"`
	ScoredAt    *time.Time
	CreatedAt   time.Time    `gorm:"not null"`
	UpdatedAt   time.Time    `gorm:"not null"`
	Rankings    []Ranking    `gorm:"constraint:OnDelete:CASCADE"`
	Guesses     []Guess      `gorm:"constraint:OnDelete:CASCADE"`
	Scores      []RoundScore `gorm:"constraint:OnDelete:CASCADE"`
}

// Ranking is the VIP's placement of one item. Positions are 0-based.
type Ranking struct {
	ID        uint      `gorm:"primaryKey"`
	RoundID   uint      `gorm:"index;not null;uniqueIndex:idx_rankings_round_item;uniqueIndex:idx_rankings_round_position"`
	ItemID    uint      `gorm:"not null;uniqueIndex:idx_rankings_round_item"`
	Position  int       `gorm:"not null;uniqueIndex:idx_rankings_round_position"`
	CreatedAt time.Time `gorm:"not null"`
}

type RoundScore struct {
	ID         uint      `gorm:"primaryKey"`
	RoundID    uint      `gorm:"index;not null;uniqueIndex:idx_round_scores_round_player"`
	PlayerID   uint      `gorm:"index;not null;uniqueIndex:idx_round_scores_round_player"`
	Delta      int       `gorm:"not null"`
	Correct    int       `gorm:"not null"`
	Guessed    int       `gorm:"not null"`
	ScoreAfter int       `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
}
