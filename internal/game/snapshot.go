package game

import (
	"context"
	"errors"
	"sort"
)

// RevealedItem is one disclosed ranking position.
type RevealedItem struct {
	Position int    `json:"position"`
	ItemID   uint   `json:"item_id"`
	Name     string `json:"name"`
}

type RoundView struct {
	Round
	Topic            Topic          `json:"topic"`
	Revealed         []RevealedItem `json:"revealed"`
	GuessedPlayerIDs []uint         `json:"guessed_player_ids"`
	MyGuess          []GuessEntry   `json:"my_guess,omitempty"`
	Scores           []RoundScore   `json:"scores,omitempty"`
}

// Snapshot is the state of a game as one viewer may see it.
type Snapshot struct {
	Game     Game         `json:"game"`
	Players  []Player     `json:"players"`
	ViewerID uint         `json:"viewer_id,omitempty"`
	Round    *RoundView   `json:"round,omitempty"`
	History  []RoundScore `json:"history"`
}

func (s *Service) Game(ctx context.Context, id uint) (*Game, error) {
	var game *Game
	err := s.store.InTx(ctx, func(tx Tx) error {
		g, err := tx.Game(id)
		game = g
		return err
	})
	return game, err
}

func (s *Service) GameByCode(ctx context.Context, code string) (*Game, error) {
	code = NormalizeJoinCode(code)
	if !ValidJoinCode(code) {
		return nil, NotFound("game", code)
	}
	var game *Game
	err := s.store.InTx(ctx, func(tx Tx) error {
		g, err := tx.GameByCode(code)
		game = g
		return err
	})
	return game, err
}

func (s *Service) Round(ctx context.Context, id uint) (*Round, error) {
	var round *Round
	err := s.store.InTx(ctx, func(tx Tx) error {
		r, err := tx.Round(id)
		round = r
		return err
	})
	return round, err
}

func (s *Service) Topic(ctx context.Context, id uint) (*Topic, error) {
	var topic *Topic
	err := s.store.InTx(ctx, func(tx Tx) error {
		t, err := tx.Topic(id)
		topic = t
		return err
	})
	return topic, err
}

func (s *Service) Topics(ctx context.Context, offset, limit int) ([]Topic, int64, error) {
	var (
		topics []Topic
		total  int64
	)
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		topics, total, err = tx.Topics(offset, limit)
		return err
	})
	return topics, total, err
}

// Snapshot builds the viewer's picture of the game. Ranking positions beyond
// the reveal index stay hidden from everyone but the round's VIP until the
// round completes.
func (s *Service) Snapshot(ctx context.Context, gameID uint, viewer Identity) (*Snapshot, error) {
	var snap *Snapshot
	err := s.store.InTx(ctx, func(tx Tx) error {
		game, err := tx.Game(gameID)
		if err != nil {
			return err
		}
		players, err := tx.Players(game.ID)
		if err != nil {
			return err
		}
		history, err := tx.RoundScores(game.ID)
		if err != nil {
			return err
		}
		snap = &Snapshot{Game: *game, Players: players, History: history}
		if viewer.UserID != "" {
			if p, err := tx.PlayerByUser(game.ID, viewer.UserID); err == nil {
				snap.ViewerID = p.ID
			} else if !errors.Is(err, ErrNotFound) {
				return err
			}
		}
		round, err := tx.LatestRound(game.ID)
		if err != nil || round == nil {
			return err
		}
		view, err := buildRoundView(tx, round, snap.ViewerID, history)
		if err != nil {
			return err
		}
		snap.Round = view
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func buildRoundView(tx Tx, round *Round, viewerID uint, history []RoundScore) (*RoundView, error) {
	topic, err := tx.Topic(round.TopicID)
	if err != nil {
		return nil, err
	}
	topic.Items = roundItems(round, topic.Items)
	view := &RoundView{Round: *round, Topic: *topic}
	names := make(map[uint]string, len(topic.Items))
	for _, item := range topic.Items {
		names[item.ID] = item.Name
	}

	ranking, err := tx.Ranking(round.ID)
	if err != nil {
		return nil, err
	}
	visible := round.RevealIndex
	if round.Status == RoundComplete || (viewerID != 0 && viewerID == round.VIPPlayerID) {
		visible = len(ranking)
	}
	sort.Slice(ranking, func(i, j int) bool { return ranking[i].Position < ranking[j].Position })
	for _, entry := range ranking {
		if entry.Position >= visible {
			break
		}
		view.Revealed = append(view.Revealed, RevealedItem{
			Position: entry.Position,
			ItemID:   entry.ItemID,
			Name:     names[entry.ItemID],
		})
	}

	guesses, err := tx.Guesses(round.ID)
	if err != nil {
		return nil, err
	}
	seen := make(map[uint]struct{})
	for _, guess := range guesses {
		if _, ok := seen[guess.PlayerID]; !ok {
			seen[guess.PlayerID] = struct{}{}
			view.GuessedPlayerIDs = append(view.GuessedPlayerIDs, guess.PlayerID)
		}
		if viewerID != 0 && guess.PlayerID == viewerID {
			view.MyGuess = append(view.MyGuess, guess)
		}
	}
	sort.Slice(view.GuessedPlayerIDs, func(i, j int) bool { return view.GuessedPlayerIDs[i] < view.GuessedPlayerIDs[j] })

	for _, score := range history {
		if score.RoundID == round.ID {
			view.Scores = append(view.Scores, score)
		}
	}
	return view, nil
}
