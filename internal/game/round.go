package game

import (
	"fmt"
	"sort"
)

// MinTopicItems is the smallest topic a round can be played with. With a
// single item the reveal would complete on the same step that starts it.
const MinTopicItems = 2

type roundTransition struct {
	// advance mutates the round in place and returns the status it moves to.
	advance func(round *Round) RoundStatus
}

var roundTransitions = map[RoundStatus]roundTransition{
	RoundTopicSelection: {
		advance: func(round *Round) RoundStatus {
			return RoundVIPRanking
		},
	},
	RoundVIPRanking: {
		advance: func(round *Round) RoundStatus {
			return RoundPlayerGuessing
		},
	},
	RoundPlayerGuessing: {
		advance: func(round *Round) RoundStatus {
			// first item becomes visible
			round.RevealIndex = 1
			if round.RevealIndex >= round.ItemCount {
				return RoundComplete
			}
			return RoundRevealing
		},
	},
	RoundRevealing: {
		advance: func(round *Round) RoundStatus {
			round.RevealIndex++
			if round.RevealIndex >= round.ItemCount {
				round.RevealIndex = round.ItemCount
				return RoundComplete
			}
			return RoundRevealing
		},
	},
}

var roundStatusOrder = map[RoundStatus]int{
	RoundTopicSelection: 0,
	RoundVIPRanking:     1,
	RoundPlayerGuessing: 2,
	RoundRevealing:      3,
	RoundComplete:       4,
}

// advanceRound moves the round one step along its lifecycle.
func advanceRound(round *Round) error {
	transition, ok := roundTransitions[round.Status]
	if !ok {
		return InvalidState("round", round.ID, round.Status, "no next status")
	}
	next := transition.advance(round)
	if roundStatusOrder[next] < roundStatusOrder[round.Status] {
		return InvalidState("round", round.ID, round.Status, fmt.Sprintf("cannot move back to %s", next))
	}
	round.Status = next
	return nil
}

func requireRoundStatus(round *Round, want RoundStatus, action string) error {
	if round.Status != want {
		return InvalidState("round", round.ID, round.Status, action+" requires "+string(want))
	}
	return nil
}

// roundItems returns the items a round is played with: the first ItemCount
// items of the topic by position. Items appended to the topic after the round
// started are not part of it.
func roundItems(round *Round, items []TopicItem) []TopicItem {
	sorted := append([]TopicItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })
	if len(sorted) > round.ItemCount {
		sorted = sorted[:round.ItemCount]
	}
	return sorted
}

func roundItemIDs(round *Round, items []TopicItem) ([]uint, error) {
	if len(items) < round.ItemCount {
		return nil, InvalidState("round", round.ID, round.Status,
			fmt.Sprintf("topic has %d items, round was started with %d", len(items), round.ItemCount))
	}
	kept := roundItems(round, items)
	ids := make([]uint, len(kept))
	for i, item := range kept {
		ids[i] = item.ID
	}
	return ids, nil
}

// rankedItemIDs returns the item set fixed by the VIP's ranking.
func rankedItemIDs(round *Round, ranking []RankingEntry) ([]uint, error) {
	if len(ranking) != round.ItemCount {
		return nil, InvalidState("round", round.ID, round.Status,
			fmt.Sprintf("ranking has %d items, round expects %d", len(ranking), round.ItemCount))
	}
	ids := make([]uint, len(ranking))
	for i, entry := range ranking {
		ids[i] = entry.ItemID
	}
	return ids, nil
}

// validatePlacements checks that placements are a full permutation of
// itemIDs over positions 0..N-1 and returns item id -> position.
func validatePlacements(round *Round, itemIDs []uint, placements []Placement) (map[uint]int, error) {
	n := len(itemIDs)
	if len(placements) != n {
		return nil, Invalid("round", round.ID, "placements", fmt.Sprintf("expected %d items, got %d", n, len(placements)))
	}
	known := make(map[uint]struct{}, n)
	for _, id := range itemIDs {
		known[id] = struct{}{}
	}
	positions := make(map[uint]int, n)
	taken := make(map[int]uint, n)
	for _, p := range placements {
		if _, ok := known[p.ItemID]; !ok {
			return nil, Invalid("item", p.ItemID, "item_id", "not part of this round")
		}
		if p.Position < 0 || p.Position >= n {
			return nil, Invalid("item", p.ItemID, "position", fmt.Sprintf("position %d out of range 0..%d", p.Position, n-1))
		}
		if _, dup := positions[p.ItemID]; dup {
			return nil, Invalid("item", p.ItemID, "item_id", "item placed more than once")
		}
		if other, dup := taken[p.Position]; dup {
			return nil, Invalid("item", p.ItemID, "position", fmt.Sprintf("position %d already used by item %d", p.Position, other))
		}
		positions[p.ItemID] = p.Position
		taken[p.Position] = p.ItemID
	}
	return positions, nil
}

// sortedPositions returns item ids ordered by position.
func sortedPositions(positions map[uint]int) []uint {
	ids := make([]uint, 0, len(positions))
	for id := range positions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return positions[ids[i]] < positions[ids[j]]
	})
	return ids
}
