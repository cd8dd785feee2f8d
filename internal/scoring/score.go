// Package scoring computes round deltas from a true ranking and the players'
// guesses. It has no knowledge of storage or game lifecycle.
package scoring

// Config holds the point values applied to a round.
type Config struct {
	PointsPerCorrect int
	BonusAllCorrect  int
	PenaltyAllWrong  int
}

// Ranking maps an item id to its true position.
type Ranking map[uint]int

// Guess maps an item id to the position a player claimed for it.
type Guess map[uint]int

// PlayerResult is the outcome for one player who submitted guesses.
type PlayerResult struct {
	Delta   int
	Correct int
	Guessed int
	// Items reports correctness per guessed item id.
	Items map[uint]bool
}

// AllCorrect reports whether at least one guess was made and every guess matched.
func (r PlayerResult) AllCorrect() bool {
	return r.Guessed > 0 && r.Correct == r.Guessed
}

// AllWrong reports whether at least one guess was made and none matched.
func (r PlayerResult) AllWrong() bool {
	return r.Guessed > 0 && r.Correct == 0
}

// Result maps a player id to its outcome. Players without guesses are absent.
type Result map[uint]PlayerResult

// Deltas flattens the result to player id -> delta.
func (r Result) Deltas() map[uint]int {
	out := make(map[uint]int, len(r))
	for playerID, res := range r {
		out[playerID] = res.Delta
	}
	return out
}

// Score compares every guess against the ranking. A guessed item that is not
// part of the ranking counts as incorrect.
func Score(ranking Ranking, guesses map[uint]Guess, cfg Config) Result {
	result := make(Result, len(guesses))
	for playerID, guess := range guesses {
		if len(guess) == 0 {
			continue
		}
		res := PlayerResult{Items: make(map[uint]bool, len(guess))}
		for itemID, position := range guess {
			truth, ok := ranking[itemID]
			correct := ok && truth == position
			res.Items[itemID] = correct
			res.Guessed++
			if correct {
				res.Correct++
			}
		}
		res.Delta = res.Correct * cfg.PointsPerCorrect
		switch {
		case res.AllCorrect():
			res.Delta += cfg.BonusAllCorrect
		case res.AllWrong():
			res.Delta += cfg.PenaltyAllWrong
		}
		result[playerID] = res
	}
	return result
}
