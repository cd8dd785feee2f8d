package postgres

import (
	"rank-it/internal/db"
	"rank-it/internal/game"
)

func toGameRecord(g *game.Game) db.Game {
	return db.Game{
		ID:               g.ID,
		JoinCode:         g.JoinCode,
		CreatorID:        g.CreatorID,
		VIPPlayerID:      g.VIPPlayerID,
		Status:           string(g.Status),
		PointsPerCorrect: g.Scoring.PointsPerCorrect,
		BonusAllCorrect:  g.Scoring.BonusAllCorrect,
		PenaltyAllWrong:  g.Scoring.PenaltyAllWrong,
		TargetScore:      g.Scoring.TargetScore,
		CreatedAt:        g.CreatedAt,
		UpdatedAt:        g.UpdatedAt,
		FinishedAt:       g.FinishedAt,
	}
}

func fromGameRecord(rec db.Game) *game.Game {
	return &game.Game{
		ID:          rec.ID,
		JoinCode:    rec.JoinCode,
		CreatorID:   rec.CreatorID,
		VIPPlayerID: rec.VIPPlayerID,
		Status:      game.GameStatus(rec.Status),
		Scoring: game.ScoringConfig{
			PointsPerCorrect: rec.PointsPerCorrect,
			BonusAllCorrect:  rec.BonusAllCorrect,
			PenaltyAllWrong:  rec.PenaltyAllWrong,
			TargetScore:      rec.TargetScore,
		},
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
		FinishedAt: rec.FinishedAt,
	}
}

func fromPlayerRecord(rec db.Player) game.Player {
	return game.Player{
		ID:       rec.ID,
		GameID:   rec.GameID,
		UserID:   rec.UserID,
		Name:     rec.Name,
		Score:    rec.Score,
		JoinedAt: rec.JoinedAt,
	}
}

func fromTopicRecord(rec db.Topic) game.Topic {
	topic := game.Topic{
		ID:       rec.ID,
		Name:     rec.Name,
		Editable: rec.Editable,
		OwnerID:  rec.OwnerID,
	}
	for _, item := range rec.Items {
		topic.Items = append(topic.Items, game.TopicItem{
			ID:       item.ID,
			TopicID:  item.TopicID,
			Name:     item.Name,
			Position: item.Position,
		})
	}
	return topic
}

func toRoundRecord(r *game.Round) db.Round {
	return db.Round{
		ID:          r.ID,
		GameID:      r.GameID,
		Number:      r.Number,
		TopicID:     r.TopicID,
		VIPPlayerID: r.VIPPlayerID,
		Status:      string(r.Status),
		RevealIndex: r.RevealIndex,
		ItemCount:   r.ItemCount,
		ScoredAt:    r.ScoredAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func fromRoundRecord(rec db.Round) game.Round {
	return game.Round{
		ID:          rec.ID,
		GameID:      rec.GameID,
		Number:      rec.Number,
		TopicID:     rec.TopicID,
		VIPPlayerID: rec.VIPPlayerID,
		Status:      game.RoundStatus(rec.Status),
		RevealIndex: rec.RevealIndex,
		ItemCount:   rec.ItemCount,
		ScoredAt:    rec.ScoredAt,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}
