package game

import "context"

// Store runs units of work against the game aggregate. A unit either commits
// every write it made or none of them.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the view of storage available inside one unit of work.
//
// Lookups return a *NotFoundError when the row is missing. Inserts that would
// break a uniqueness rule return a *ConflictError.
type Tx interface {
	CreateGame(game *Game) error
	// LockGame loads the game and holds it for the rest of the unit so that
	// concurrent units on the same game are serialized.
	LockGame(id uint) (*Game, error)
	Game(id uint) (*Game, error)
	GameByCode(code string) (*Game, error)
	UpdateGame(game *Game) error

	CreatePlayer(player *Player) error
	PlayerByUser(gameID uint, userID string) (*Player, error)
	// Players returns the game's players in join order.
	Players(gameID uint) ([]Player, error)
	UpdatePlayerScore(playerID uint, score int) error

	Topic(id uint) (*Topic, error)
	Topics(offset, limit int) ([]Topic, int64, error)

	CreateRound(round *Round) error
	Round(id uint) (*Round, error)
	// LatestRound returns nil without error when the game has no rounds.
	LatestRound(gameID uint) (*Round, error)
	Rounds(gameID uint) ([]Round, error)
	// UpdateRound writes round only if the stored row still matches prev's
	// status, reveal index and scored flag. A stale prev yields a *ConflictError.
	UpdateRound(round *Round, prev Round) error

	InsertRanking(entries []RankingEntry) error
	Ranking(roundID uint) ([]RankingEntry, error)

	InsertGuesses(entries []GuessEntry) error
	Guesses(roundID uint) ([]GuessEntry, error)
	HasGuessed(roundID, playerID uint) (bool, error)
	SetGuessCorrectness(entries []GuessEntry) error

	InsertRoundScores(scores []RoundScore) error
	RoundScores(gameID uint) ([]RoundScore, error)
}
