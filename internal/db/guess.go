package db

import "time"

type Guess struct {
	ID        uint `gorm:"primaryKey"`
	RoundID   uint `gorm:"index;not null;uniqueIndex:idx_guesses_round_player_item;uniqueIndex:idx_guesses_round_player_position"`
	PlayerID  uint `gorm:"index;not null;uniqueIndex:idx_guesses_round_player_item;uniqueIndex:idx_guesses_round_player_position"`
	ItemID    uint `gorm:"not null;uniqueIndex:idx_guesses_round_player_item"`
	Position  int  `gorm:"not null;uniqueIndex:idx_guesses_round_player_position"`
	IsCorrect *bool
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
