package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"rank-it/internal/game"
)

func seedGame(t *testing.T, s *Store, code string) *game.Game {
	t.Helper()
	g := &game.Game{JoinCode: code, CreatorID: "u1", Status: game.GameWaiting}
	require.NoError(t, s.InTx(context.Background(), func(tx game.Tx) error {
		return tx.CreateGame(g)
	}))
	return g
}

func TestInTxDiscardsFailedWork(t *testing.T) {
	s := New()
	boom := errors.New("boom")
	err := s.InTx(context.Background(), func(tx game.Tx) error {
		if err := tx.CreateGame(&game.Game{JoinCode: "ABCDEF", Status: game.GameWaiting}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = s.InTx(context.Background(), func(tx game.Tx) error {
		_, err := tx.GameByCode("ABCDEF")
		return err
	})
	require.ErrorIs(t, err, game.ErrNotFound)
}

func TestInTxHonorsCancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := s.InTx(ctx, func(game.Tx) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, called)
}

func TestJoinCodeUniqueAmongOpenGames(t *testing.T) {
	s := New()
	first := seedGame(t, s, "ABCDEF")

	err := s.InTx(context.Background(), func(tx game.Tx) error {
		return tx.CreateGame(&game.Game{JoinCode: "ABCDEF", Status: game.GameWaiting})
	})
	require.ErrorIs(t, err, game.ErrConflict)

	require.NoError(t, s.InTx(context.Background(), func(tx game.Tx) error {
		g, err := tx.Game(first.ID)
		if err != nil {
			return err
		}
		g.Status = game.GameFinished
		return tx.UpdateGame(g)
	}))
	second := seedGame(t, s, "ABCDEF")
	require.NoError(t, s.InTx(context.Background(), func(tx game.Tx) error {
		g, err := tx.GameByCode("ABCDEF")
		require.NoError(t, err)
		require.Equal(t, second.ID, g.ID)
		return nil
	}))
}

func TestPlayerUniquePerGame(t *testing.T) {
	s := New()
	g := seedGame(t, s, "ABCDEF")
	err := s.InTx(context.Background(), func(tx game.Tx) error {
		if err := tx.CreatePlayer(&game.Player{GameID: g.ID, UserID: "u1", Name: "One"}); err != nil {
			return err
		}
		return tx.CreatePlayer(&game.Player{GameID: g.ID, UserID: "u1", Name: "Again"})
	})
	require.ErrorIs(t, err, game.ErrConflict)
}

func TestUpdateRoundComparesPreviousState(t *testing.T) {
	s := New()
	g := seedGame(t, s, "ABCDEF")
	round := &game.Round{GameID: g.ID, Number: 1, Status: game.RoundPlayerGuessing, ItemCount: 3}
	require.NoError(t, s.InTx(context.Background(), func(tx game.Tx) error {
		return tx.CreateRound(round)
	}))

	stale := *round
	require.NoError(t, s.InTx(context.Background(), func(tx game.Tx) error {
		next := *round
		next.Status = game.RoundRevealing
		next.RevealIndex = 1
		return tx.UpdateRound(&next, *round)
	}))

	err := s.InTx(context.Background(), func(tx game.Tx) error {
		next := stale
		next.Status = game.RoundRevealing
		next.RevealIndex = 1
		return tx.UpdateRound(&next, stale)
	})
	require.ErrorIs(t, err, game.ErrConflict)

	err = s.InTx(context.Background(), func(tx game.Tx) error {
		return tx.CreateRound(&game.Round{GameID: g.ID, Number: 1})
	})
	require.ErrorIs(t, err, game.ErrConflict)
}

func TestGuessRowsRejectDuplicates(t *testing.T) {
	s := New()
	err := s.InTx(context.Background(), func(tx game.Tx) error {
		if err := tx.InsertGuesses([]game.GuessEntry{
			{RoundID: 1, PlayerID: 7, ItemID: 1, Position: 0},
			{RoundID: 1, PlayerID: 7, ItemID: 2, Position: 1},
		}); err != nil {
			return err
		}
		return tx.InsertGuesses([]game.GuessEntry{{RoundID: 1, PlayerID: 7, ItemID: 3, Position: 1}})
	})
	require.ErrorIs(t, err, game.ErrConflict)

	err = s.InTx(context.Background(), func(tx game.Tx) error {
		return tx.InsertRanking([]game.RankingEntry{
			{RoundID: 1, ItemID: 1, Position: 0},
			{RoundID: 1, ItemID: 1, Position: 1},
		})
	})
	require.ErrorIs(t, err, game.ErrConflict)
}

func TestTopicsPaginate(t *testing.T) {
	s := New()
	for _, name := range []string{"One", "Two", "Three"} {
		_, err := s.AddTopic(name, []string{"a", "b"})
		require.NoError(t, err)
	}
	_, err := s.AddTopic(" ", []string{"a"})
	require.Error(t, err)

	require.NoError(t, s.InTx(context.Background(), func(tx game.Tx) error {
		page, total, err := tx.Topics(1, 1)
		require.NoError(t, err)
		require.EqualValues(t, 3, total)
		require.Len(t, page, 1)
		require.Equal(t, "Two", page[0].Name)
		require.Equal(t, 1, page[0].Items[0].Position)

		page, _, err = tx.Topics(5, 10)
		require.NoError(t, err)
		require.Empty(t, page)
		return nil
	}))
}
