package postgres

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"rank-it/internal/db"
	"rank-it/internal/game"
)

// EventLog appends every committed change to the events table.
type EventLog struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewEventLog(conn *gorm.DB, logger zerolog.Logger) *EventLog {
	return &EventLog{db: conn, log: logger}
}

func (e *EventLog) Publish(ctx context.Context, change game.Change) {
	data, err := json.Marshal(change)
	if err != nil {
		e.log.Error().Err(err).Str("reason", change.Reason).Msg("encode event")
		return
	}
	event := db.Event{
		GameID:    change.GameID,
		RoundID:   optionalID(change.RoundID),
		PlayerID:  optionalID(change.PlayerID),
		Type:      change.Reason,
		Payload:   datatypes.JSON(data),
		CreatedAt: change.At,
	}
	if err := e.db.WithContext(ctx).Create(&event).Error; err != nil {
		e.log.Warn().Err(err).Uint("game_id", change.GameID).Str("reason", change.Reason).Msg("persist event")
	}
}

// Events returns the most recent events of a game, newest first.
func (e *EventLog) Events(ctx context.Context, gameID uint, limit int) ([]db.Event, error) {
	var events []db.Event
	q := e.db.WithContext(ctx).Where("game_id = ?", gameID).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&events).Error
	return events, err
}

func optionalID(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}
