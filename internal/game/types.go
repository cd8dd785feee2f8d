package game

import (
	"time"

	"rank-it/internal/scoring"
)

type GameStatus string

const (
	GameWaiting  GameStatus = "waiting"
	GamePlaying  GameStatus = "playing"
	GameFinished GameStatus = "finished"
)

var gameStatusOrder = map[GameStatus]int{
	GameWaiting:  0,
	GamePlaying:  1,
	GameFinished: 2,
}

type RoundStatus string

const (
	RoundTopicSelection RoundStatus = "topic_selection"
	RoundVIPRanking     RoundStatus = "vip_ranking"
	RoundPlayerGuessing RoundStatus = "player_guessing"
	RoundRevealing      RoundStatus = "revealing"
	RoundComplete       RoundStatus = "complete"
)

// ScoringConfig is the per-game point table and win threshold.
type ScoringConfig struct {
	PointsPerCorrect int `json:"points_per_correct" validate:"gte=0"`
	BonusAllCorrect  int `json:"bonus_all_correct" validate:"gte=0"`
	PenaltyAllWrong  int `json:"penalty_all_wrong" validate:"lte=0"`
	TargetScore      int `json:"target_score" validate:"gt=0"`
}

func (c ScoringConfig) engine() scoring.Config {
	return scoring.Config{
		PointsPerCorrect: c.PointsPerCorrect,
		BonusAllCorrect:  c.BonusAllCorrect,
		PenaltyAllWrong:  c.PenaltyAllWrong,
	}
}

// DefaultScoring is the stock point table: 100 per hit, 200 for a clean sweep.
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		PointsPerCorrect: 100,
		BonusAllCorrect:  200,
		PenaltyAllWrong:  -50,
		TargetScore:      1000,
	}
}

// Identity is the authenticated caller as supplied by the transport layer.
type Identity struct {
	UserID      string
	DisplayName string
}

type Game struct {
	ID          uint          `json:"id"`
	JoinCode    string        `json:"join_code"`
	CreatorID   string        `json:"creator_id"`
	VIPPlayerID *uint         `json:"vip_player_id,omitempty"`
	Status      GameStatus    `json:"status"`
	Scoring     ScoringConfig `json:"scoring"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	FinishedAt  *time.Time    `json:"finished_at,omitempty"`
}

func (g *Game) isVIP(playerID uint) bool {
	return g.VIPPlayerID != nil && *g.VIPPlayerID == playerID
}

type Player struct {
	ID       uint      `json:"id"`
	GameID   uint      `json:"game_id"`
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"`
	Score    int       `json:"score"`
	JoinedAt time.Time `json:"joined_at"`
}

type Topic struct {
	ID       uint        `json:"id"`
	Name     string      `json:"name"`
	Editable bool        `json:"editable"`
	OwnerID  *string     `json:"owner_id,omitempty"`
	Items    []TopicItem `json:"items,omitempty"`
}

// TopicItem positions are 1-based and contiguous within a topic.
type TopicItem struct {
	ID       uint   `json:"id"`
	TopicID  uint   `json:"topic_id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

type Round struct {
	ID          uint        `json:"id"`
	GameID      uint        `json:"game_id"`
	Number      int         `json:"number"`
	TopicID     uint        `json:"topic_id"`
	VIPPlayerID uint        `json:"vip_player_id"`
	Status      RoundStatus `json:"status"`
	RevealIndex int         `json:"reveal_index"`
	ItemCount   int         `json:"item_count"`
	ScoredAt    *time.Time  `json:"scored_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Placement assigns a 0-based position to a topic item.
type Placement struct {
	ItemID   uint `json:"item_id"`
	Position int  `json:"position"`
}

// PlacementsFromOrder turns an ordered list of item ids into placements where
// the slice index is the position.
func PlacementsFromOrder(itemIDs []uint) []Placement {
	out := make([]Placement, len(itemIDs))
	for i, id := range itemIDs {
		out[i] = Placement{ItemID: id, Position: i}
	}
	return out
}

type RankingEntry struct {
	RoundID  uint `json:"round_id"`
	ItemID   uint `json:"item_id"`
	Position int  `json:"position"`
}

// GuessEntry is one row of a player's guess set. IsCorrect stays nil until the
// round is scored.
type GuessEntry struct {
	RoundID   uint  `json:"round_id"`
	PlayerID  uint  `json:"player_id"`
	ItemID    uint  `json:"item_id"`
	Position  int   `json:"position"`
	IsCorrect *bool `json:"is_correct,omitempty"`
}

// RoundScore is the stored delta one player received from one round.
type RoundScore struct {
	RoundID    uint `json:"round_id"`
	PlayerID   uint `json:"player_id"`
	Delta      int  `json:"delta"`
	Correct    int  `json:"correct"`
	Guessed    int  `json:"guessed"`
	ScoreAfter int  `json:"score_after"`
}
