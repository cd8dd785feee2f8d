// Package postgres implements game.Store on gorm. A unit of work is one
// database transaction; LockGame takes a row lock on the game so every
// mutation of a game's aggregate is serialized.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rank-it/internal/db"
	"rank-it/internal/game"
)

type Store struct {
	db *gorm.DB
}

func New(conn *gorm.DB) *Store {
	return &Store{db: conn}
}

func (s *Store) InTx(ctx context.Context, fn func(tx game.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(conn *gorm.DB) error {
		return fn(&tx{db: conn})
	})
}

type tx struct {
	db *gorm.DB
}

func (t *tx) CreateGame(g *game.Game) error {
	rec := toGameRecord(g)
	if err := t.db.Create(&rec).Error; err != nil {
		return translate(err, "join_code", g.JoinCode)
	}
	g.ID = rec.ID
	return nil
}

func (t *tx) Game(id uint) (*game.Game, error) {
	var rec db.Game
	if err := t.db.First(&rec, id).Error; err != nil {
		return nil, translate(err, "game", id)
	}
	return fromGameRecord(rec), nil
}

func (t *tx) LockGame(id uint) (*game.Game, error) {
	var rec db.Game
	if err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&rec, id).Error; err != nil {
		return nil, translate(err, "game", id)
	}
	return fromGameRecord(rec), nil
}

func (t *tx) GameByCode(code string) (*game.Game, error) {
	var rec db.Game
	if err := t.db.Where("join_code = ?", code).Order("id DESC").First(&rec).Error; err != nil {
		return nil, translate(err, "game", code)
	}
	return fromGameRecord(rec), nil
}

func (t *tx) UpdateGame(g *game.Game) error {
	res := t.db.Model(&db.Game{}).Where("id = ?", g.ID).Updates(map[string]any{
		"vip_player_id":      g.VIPPlayerID,
		"status":             string(g.Status),
		"points_per_correct": g.Scoring.PointsPerCorrect,
		"bonus_all_correct":  g.Scoring.BonusAllCorrect,
		"penalty_all_wrong":  g.Scoring.PenaltyAllWrong,
		"target_score":       g.Scoring.TargetScore,
		"finished_at":        g.FinishedAt,
		"updated_at":         g.UpdatedAt,
	})
	if res.Error != nil {
		return translate(res.Error, "game", g.ID)
	}
	if res.RowsAffected == 0 {
		return game.NotFound("game", g.ID)
	}
	return nil
}

func (t *tx) CreatePlayer(p *game.Player) error {
	rec := db.Player{
		GameID:   p.GameID,
		UserID:   p.UserID,
		Name:     p.Name,
		Score:    p.Score,
		JoinedAt: p.JoinedAt,
	}
	if err := t.db.Create(&rec).Error; err != nil {
		return translate(err, "player", p.UserID)
	}
	p.ID = rec.ID
	return nil
}

func (t *tx) PlayerByUser(gameID uint, userID string) (*game.Player, error) {
	var rec db.Player
	if err := t.db.Where("game_id = ? AND user_id = ?", gameID, userID).First(&rec).Error; err != nil {
		return nil, translate(err, "player", userID)
	}
	p := fromPlayerRecord(rec)
	return &p, nil
}

func (t *tx) Players(gameID uint) ([]game.Player, error) {
	var recs []db.Player
	if err := t.db.Where("game_id = ?", gameID).Order("joined_at, id").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]game.Player, len(recs))
	for i, rec := range recs {
		out[i] = fromPlayerRecord(rec)
	}
	return out, nil
}

func (t *tx) UpdatePlayerScore(playerID uint, score int) error {
	res := t.db.Model(&db.Player{}).Where("id = ?", playerID).Update("score", score)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return game.NotFound("player", playerID)
	}
	return nil
}

func (t *tx) Topic(id uint) (*game.Topic, error) {
	var rec db.Topic
	err := t.db.Preload("Items", func(q *gorm.DB) *gorm.DB {
		return q.Order("position")
	}).First(&rec, id).Error
	if err != nil {
		return nil, translate(err, "topic", id)
	}
	topic := fromTopicRecord(rec)
	return &topic, nil
}

func (t *tx) Topics(offset, limit int) ([]game.Topic, int64, error) {
	var total int64
	if err := t.db.Model(&db.Topic{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	q := t.db.Preload("Items", func(q *gorm.DB) *gorm.DB {
		return q.Order("position")
	}).Order("id").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	var recs []db.Topic
	if err := q.Find(&recs).Error; err != nil {
		return nil, 0, err
	}
	out := make([]game.Topic, len(recs))
	for i, rec := range recs {
		out[i] = fromTopicRecord(rec)
	}
	return out, total, nil
}

func (t *tx) CreateRound(r *game.Round) error {
	rec := toRoundRecord(r)
	if err := t.db.Create(&rec).Error; err != nil {
		return translate(err, "round", fmt.Sprintf("%d/%d", r.GameID, r.Number))
	}
	r.ID = rec.ID
	return nil
}

func (t *tx) Round(id uint) (*game.Round, error) {
	var rec db.Round
	if err := t.db.First(&rec, id).Error; err != nil {
		return nil, translate(err, "round", id)
	}
	r := fromRoundRecord(rec)
	return &r, nil
}

func (t *tx) LatestRound(gameID uint) (*game.Round, error) {
	var recs []db.Round
	if err := t.db.Where("game_id = ?", gameID).Order("number DESC").Limit(1).Find(&recs).Error; err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	r := fromRoundRecord(recs[0])
	return &r, nil
}

func (t *tx) Rounds(gameID uint) ([]game.Round, error) {
	var recs []db.Round
	if err := t.db.Where("game_id = ?", gameID).Order("number").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]game.Round, len(recs))
	for i, rec := range recs {
		out[i] = fromRoundRecord(rec)
	}
	return out, nil
}

// UpdateRound writes r only if the stored row still matches prev on status,
// reveal index and whether it has been scored.
func (t *tx) UpdateRound(r *game.Round, prev game.Round) error {
	q := t.db.Model(&db.Round{}).
		Where("id = ? AND status = ? AND reveal_index = ?", r.ID, string(prev.Status), prev.RevealIndex)
	if prev.ScoredAt == nil {
		q = q.Where("scored_at IS NULL")
	} else {
		q = q.Where("scored_at IS NOT NULL")
	}
	res := q.Updates(map[string]any{
		"status":       string(r.Status),
		"reveal_index": r.RevealIndex,
		"scored_at":    r.ScoredAt,
		"updated_at":   r.UpdatedAt,
	})
	if res.Error != nil {
		return translate(res.Error, "round", r.ID)
	}
	if res.RowsAffected == 0 {
		if _, err := t.Round(r.ID); err != nil {
			return err
		}
		return game.Conflict("round", r.ID, "round changed concurrently")
	}
	return nil
}

func (t *tx) InsertRanking(entries []game.RankingEntry) error {
	if len(entries) == 0 {
		return nil
	}
	recs := make([]db.Ranking, len(entries))
	for i, e := range entries {
		recs[i] = db.Ranking{RoundID: e.RoundID, ItemID: e.ItemID, Position: e.Position}
	}
	if err := t.db.Create(&recs).Error; err != nil {
		return translate(err, "round", entries[0].RoundID)
	}
	return nil
}

func (t *tx) Ranking(roundID uint) ([]game.RankingEntry, error) {
	var recs []db.Ranking
	if err := t.db.Where("round_id = ?", roundID).Order("position").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]game.RankingEntry, len(recs))
	for i, rec := range recs {
		out[i] = game.RankingEntry{RoundID: rec.RoundID, ItemID: rec.ItemID, Position: rec.Position}
	}
	return out, nil
}

func (t *tx) InsertGuesses(entries []game.GuessEntry) error {
	if len(entries) == 0 {
		return nil
	}
	recs := make([]db.Guess, len(entries))
	for i, e := range entries {
		recs[i] = db.Guess{
			RoundID:   e.RoundID,
			PlayerID:  e.PlayerID,
			ItemID:    e.ItemID,
			Position:  e.Position,
			IsCorrect: e.IsCorrect,
		}
	}
	if err := t.db.Create(&recs).Error; err != nil {
		return translate(err, "guess", fmt.Sprintf("%d/%d", entries[0].RoundID, entries[0].PlayerID))
	}
	return nil
}

func (t *tx) Guesses(roundID uint) ([]game.GuessEntry, error) {
	var recs []db.Guess
	if err := t.db.Where("round_id = ?", roundID).Order("player_id, position").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]game.GuessEntry, len(recs))
	for i, rec := range recs {
		out[i] = game.GuessEntry{
			RoundID:   rec.RoundID,
			PlayerID:  rec.PlayerID,
			ItemID:    rec.ItemID,
			Position:  rec.Position,
			IsCorrect: rec.IsCorrect,
		}
	}
	return out, nil
}

func (t *tx) HasGuessed(roundID, playerID uint) (bool, error) {
	var n int64
	err := t.db.Model(&db.Guess{}).Where("round_id = ? AND player_id = ?", roundID, playerID).Limit(1).Count(&n).Error
	return n > 0, err
}

func (t *tx) SetGuessCorrectness(entries []game.GuessEntry) error {
	for _, e := range entries {
		err := t.db.Model(&db.Guess{}).
			Where("round_id = ? AND player_id = ? AND item_id = ?", e.RoundID, e.PlayerID, e.ItemID).
			Update("is_correct", e.IsCorrect).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *tx) InsertRoundScores(scores []game.RoundScore) error {
	if len(scores) == 0 {
		return nil
	}
	recs := make([]db.RoundScore, len(scores))
	for i, s := range scores {
		recs[i] = db.RoundScore{
			RoundID:    s.RoundID,
			PlayerID:   s.PlayerID,
			Delta:      s.Delta,
			Correct:    s.Correct,
			Guessed:    s.Guessed,
			ScoreAfter: s.ScoreAfter,
		}
	}
	if err := t.db.Create(&recs).Error; err != nil {
		return translate(err, "round_score", scores[0].RoundID)
	}
	return nil
}

func (t *tx) RoundScores(gameID uint) ([]game.RoundScore, error) {
	var recs []db.RoundScore
	err := t.db.Model(&db.RoundScore{}).
		Select("round_scores.*").
		Joins("JOIN rounds ON rounds.id = round_scores.round_id").
		Where("rounds.game_id = ?", gameID).
		Order("rounds.number, round_scores.id").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	out := make([]game.RoundScore, len(recs))
	for i, rec := range recs {
		out[i] = game.RoundScore{
			RoundID:    rec.RoundID,
			PlayerID:   rec.PlayerID,
			Delta:      rec.Delta,
			Correct:    rec.Correct,
			Guessed:    rec.Guessed,
			ScoreAfter: rec.ScoreAfter,
		}
	}
	return out, nil
}

func translate(err error, entity string, id any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return game.NotFound(entity, id)
	case isUniqueViolation(err):
		return game.Conflict(entity, id, "already exists")
	}
	return fmt.Errorf("%s %v: %w", entity, id, err)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
