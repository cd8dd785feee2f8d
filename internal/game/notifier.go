package game

import (
	"context"
	"time"
)

type ChangeKind string

const (
	ChangeGame    ChangeKind = "game_updated"
	ChangePlayers ChangeKind = "players_changed"
	ChangeRound   ChangeKind = "round_updated"
)

// Change describes one committed transition.
type Change struct {
	Kind     ChangeKind `json:"kind"`
	Reason   string     `json:"reason"`
	GameID   uint       `json:"game_id"`
	RoundID  uint       `json:"round_id,omitempty"`
	PlayerID uint       `json:"player_id,omitempty"`
	Status   string     `json:"status,omitempty"`
	At       time.Time  `json:"at"`
}

// Notifier receives changes after they commit. Delivery is fire-and-forget.
type Notifier interface {
	Publish(ctx context.Context, change Change)
}

type NopNotifier struct{}

func (NopNotifier) Publish(context.Context, Change) {}

// Notifiers fans a change out to each notifier in order.
type Notifiers []Notifier

func (n Notifiers) Publish(ctx context.Context, change Change) {
	for _, notifier := range n {
		if notifier != nil {
			notifier.Publish(ctx, change)
		}
	}
}

// changeSet collects changes inside a unit of work; they are published only
// once the unit commits.
type changeSet struct {
	at      time.Time
	changes []Change
}

func (c *changeSet) add(kind ChangeKind, reason string, gameID uint, apply ...func(*Change)) {
	change := Change{Kind: kind, Reason: reason, GameID: gameID, At: c.at}
	for _, fn := range apply {
		fn(&change)
	}
	c.changes = append(c.changes, change)
}

func withRound(round *Round) func(*Change) {
	return func(c *Change) {
		c.RoundID = round.ID
		c.Status = string(round.Status)
	}
}

func withPlayer(playerID uint) func(*Change) {
	return func(c *Change) { c.PlayerID = playerID }
}

func withGameStatus(game *Game) func(*Change) {
	return func(c *Change) { c.Status = string(game.Status) }
}
