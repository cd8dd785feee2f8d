package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"rank-it/internal/db"
	"rank-it/internal/game"
	"rank-it/internal/topics"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}
	conn, err := db.Open(dsn, db.Pool{MaxOpenConns: 8})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	require.NoError(t, conn.Exec(`TRUNCATE events, round_scores, guesses, rankings, rounds, players, games, topic_items, topics RESTART IDENTITY CASCADE`).Error)
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return conn
}

func seedTopic(t *testing.T, conn *gorm.DB) *game.Topic {
	t.Helper()
	res, err := db.LoadTopicLibrary(conn, []topics.Seed{{Name: "Desserts", Items: []string{"Cake", "Pie", "Flan"}}})
	require.NoError(t, err)
	require.Equal(t, 3, res.Inserted)

	// loading again is a no-op
	res, err = db.LoadTopicLibrary(conn, []topics.Seed{{Name: "Desserts", Items: []string{"Cake", "Pie", "Flan"}}})
	require.NoError(t, err)
	require.Zero(t, res.Inserted)
	require.Empty(t, res.Frozen)

	var topic *game.Topic
	require.NoError(t, New(conn).InTx(context.Background(), func(tx game.Tx) error {
		page, total, err := tx.Topics(0, 10)
		require.EqualValues(t, 1, total)
		topic = &page[0]
		return err
	}))
	require.Len(t, topic.Items, 3)
	return topic
}

func TestServiceRoundTripOnPostgres(t *testing.T) {
	conn := openTestDB(t)
	topic := seedTopic(t, conn)
	events := NewEventLog(conn, zerolog.Nop())
	svc := game.NewService(New(conn), game.WithNotifier(events))
	ctx := context.Background()

	host := game.Identity{UserID: "host", DisplayName: "Host"}
	guest := game.Identity{UserID: "guest", DisplayName: "Guest"}

	g, err := svc.CreateGame(ctx, host, game.ScoringConfig{PointsPerCorrect: 100, BonusAllCorrect: 200, PenaltyAllWrong: -50, TargetScore: 300})
	require.NoError(t, err)
	_, _, err = svc.JoinGame(ctx, g.JoinCode, guest)
	require.NoError(t, err)

	round, err := svc.StartRound(ctx, g.ID, host, topic.ID)
	require.NoError(t, err)
	order := game.PlacementsFromOrder([]uint{topic.Items[2].ID, topic.Items[0].ID, topic.Items[1].ID})
	_, err = svc.SubmitRanking(ctx, round.ID, host, order)
	require.NoError(t, err)
	_, err = svc.SubmitRanking(ctx, round.ID, host, order)
	require.ErrorIs(t, err, game.ErrConflict)

	_, err = svc.SubmitGuess(ctx, round.ID, guest, order)
	require.NoError(t, err)
	_, err = svc.SubmitGuess(ctx, round.ID, guest, order)
	require.ErrorIs(t, err, game.ErrConflict)

	var res *game.RevealResult
	for i := 0; i < 3; i++ {
		res, err = svc.AdvanceReveal(ctx, round.ID, host)
		require.NoError(t, err)
	}
	require.True(t, res.Completed())
	require.Equal(t, game.GameFinished, res.Game.Status)

	snap, err := svc.Snapshot(ctx, g.ID, guest)
	require.NoError(t, err)
	require.Len(t, snap.History, 1)
	require.Equal(t, 500, snap.History[0].ScoreAfter)
	for _, guess := range snap.Round.MyGuess {
		require.NotNil(t, guess.IsCorrect)
		require.True(t, *guess.IsCorrect)
	}

	_, err = svc.ApplyRoundResult(ctx, round.ID)
	require.NoError(t, err)
	snap, err = svc.Snapshot(ctx, g.ID, guest)
	require.NoError(t, err)
	require.Len(t, snap.History, 1)

	logged, err := events.Events(ctx, g.ID, 0)
	require.NoError(t, err)
	require.NotEmpty(t, logged)
	require.Equal(t, "game_won", logged[0].Type)
}

func TestJoinCodeConflictOnPostgres(t *testing.T) {
	conn := openTestDB(t)
	store := New(conn)
	ctx := context.Background()

	create := func() error {
		return store.InTx(ctx, func(tx game.Tx) error {
			return tx.CreateGame(&game.Game{JoinCode: "PQRSTU", CreatorID: "x", Status: game.GameWaiting, Scoring: game.DefaultScoring()})
		})
	}
	require.NoError(t, create())
	require.ErrorIs(t, create(), game.ErrConflict)

	err := store.InTx(ctx, func(tx game.Tx) error {
		_, err := tx.Game(999)
		return err
	})
	require.ErrorIs(t, err, game.ErrNotFound)
}

func TestUpdateRoundRejectsStalePrevious(t *testing.T) {
	conn := openTestDB(t)
	topic := seedTopic(t, conn)
	store := New(conn)
	ctx := context.Background()

	round := &game.Round{Number: 1, TopicID: topic.ID, VIPPlayerID: 1, Status: game.RoundPlayerGuessing, ItemCount: 3}
	require.NoError(t, store.InTx(ctx, func(tx game.Tx) error {
		g := &game.Game{JoinCode: "HJKLMN", CreatorID: "x", Status: game.GamePlaying, Scoring: game.DefaultScoring()}
		if err := tx.CreateGame(g); err != nil {
			return err
		}
		round.GameID = g.ID
		return tx.CreateRound(round)
	}))

	stale := *round
	next := *round
	next.Status = game.RoundRevealing
	next.RevealIndex = 1
	require.NoError(t, store.InTx(ctx, func(tx game.Tx) error {
		return tx.UpdateRound(&next, stale)
	}))
	err := store.InTx(ctx, func(tx game.Tx) error {
		return tx.UpdateRound(&next, stale)
	})
	require.ErrorIs(t, err, game.ErrConflict)
}

func TestTopicLibraryLeavesTopicsInPlayAlone(t *testing.T) {
	conn := openTestDB(t)
	topic := seedTopic(t, conn)
	svc := game.NewService(New(conn))
	ctx := context.Background()

	host := game.Identity{UserID: "host", DisplayName: "Host"}
	g, err := svc.CreateGame(ctx, host, game.DefaultScoring())
	require.NoError(t, err)
	_, _, err = svc.JoinGame(ctx, g.JoinCode, game.Identity{UserID: "guest", DisplayName: "Guest"})
	require.NoError(t, err)
	_, err = svc.StartRound(ctx, g.ID, host, topic.ID)
	require.NoError(t, err)

	res, err := db.LoadTopicLibrary(conn, []topics.Seed{
		{Name: "Desserts", Items: []string{"Cake", "Pie", "Flan", "Tiramisu"}},
		{Name: "Rivers", Items: []string{"Nile", "Amazon"}},
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.Inserted)
	require.Equal(t, []string{"Desserts"}, res.Frozen)

	reloaded, err := svc.Topic(ctx, topic.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 3)
}
