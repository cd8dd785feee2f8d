package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var testConfig = Config{PointsPerCorrect: 100, BonusAllCorrect: 200, PenaltyAllWrong: -50}

func threeItemRanking() Ranking {
	return Ranking{10: 0, 11: 1, 12: 2}
}

func TestScoreAllCorrectAddsBonus(t *testing.T) {
	result := Score(threeItemRanking(), map[uint]Guess{
		1: {10: 0, 11: 1, 12: 2},
	}, testConfig)

	require.Len(t, result, 1)
	require.Equal(t, 3*100+200, result[1].Delta)
	require.Equal(t, 3, result[1].Correct)
	require.True(t, result[1].AllCorrect())
}

func TestScoreAllWrongAddsPenalty(t *testing.T) {
	result := Score(threeItemRanking(), map[uint]Guess{
		1: {10: 1, 11: 2, 12: 0},
	}, testConfig)

	require.Equal(t, -50, result[1].Delta)
	require.True(t, result[1].AllWrong())
	for itemID, correct := range result[1].Items {
		require.False(t, correct, "item %d", itemID)
	}
}

func TestScorePartialGetsNeitherBonusNorPenalty(t *testing.T) {
	ranking := Ranking{1: 0, 2: 1, 3: 2, 4: 3}
	// swap the last two: two correct
	result := Score(ranking, map[uint]Guess{
		7: {1: 0, 2: 1, 3: 3, 4: 2},
	}, testConfig)

	require.Equal(t, 200, result[7].Delta)
	require.False(t, result[7].AllCorrect())
	require.False(t, result[7].AllWrong())
	require.True(t, result[7].Items[1])
	require.False(t, result[7].Items[4])
}

func TestScoreExcludesPlayersWithoutGuesses(t *testing.T) {
	result := Score(threeItemRanking(), map[uint]Guess{
		1: {},
		2: nil,
		3: {10: 0, 11: 2, 12: 1},
	}, testConfig)

	require.Len(t, result, 1)
	_, ok := result[1]
	require.False(t, ok)
	require.Equal(t, map[uint]int{3: 100}, result.Deltas())
}

func TestScoreEveryPermutationOfFourItems(t *testing.T) {
	ranking := Ranking{1: 0, 2: 1, 3: 2, 4: 3}
	items := []uint{1, 2, 3, 4}
	for _, perm := range permutations([]int{0, 1, 2, 3}) {
		guess := Guess{}
		correct := 0
		for i, itemID := range items {
			guess[itemID] = perm[i]
			if perm[i] == i {
				correct++
			}
		}
		res := Score(ranking, map[uint]Guess{1: guess}, testConfig)[1]
		want := correct * 100
		switch correct {
		case 4:
			want += 200
		case 0:
			want += -50
		}
		require.Equal(t, want, res.Delta, "perm %v", perm)
	}
}

func TestScoreUnknownItemIsIncorrect(t *testing.T) {
	result := Score(Ranking{1: 0}, map[uint]Guess{
		5: {99: 0},
	}, testConfig)
	require.Equal(t, -50, result[5].Delta)
}

func permutations(values []int) [][]int {
	if len(values) <= 1 {
		return [][]int{append([]int(nil), values...)}
	}
	var out [][]int
	for i := range values {
		rest := make([]int, 0, len(values)-1)
		rest = append(rest, values[:i]...)
		rest = append(rest, values[i+1:]...)
		for _, tail := range permutations(rest) {
			out = append(out, append([]int{values[i]}, tail...))
		}
	}
	return out
}
