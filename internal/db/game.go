package db

import "time"

// Game rows keep the scoring settings inline. Join codes are unique only
// among games that have not finished.
type Game struct {
	ID               uint      `gorm:"primaryKey"`
	JoinCode         string    `gorm:"size:12;not null;index:idx_games_join_code_open,unique,where:status <> 'finished'"`
	CreatorID        string    `gorm:"size:64;not null"`
	VIPPlayerID      *uint     `gorm:"index"`
	Status           string    `gorm:"size:32;not null;index"`
	PointsPerCorrect int       `gorm:"not null;default:100"`
	BonusAllCorrect  int       `gorm:"not null;default:200"`
	PenaltyAllWrong  int       `gorm:"not null;default:-50"`
	TargetScore      int       `gorm:"not null;default:1000"`
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
	FinishedAt       *time.Time
	Players          []Player `gorm:"constraint:OnDelete:CASCADE"`
	Rounds           []Round  `gorm:"constraint:OnDelete:CASCADE"`
	Events           []Event  `gorm:"constraint:OnDelete:CASCADE"`
}
