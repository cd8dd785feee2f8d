// Package memory keeps the whole game aggregate in process memory. Units of
// work run one at a time and commit by swapping in their working copy.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"rank-it/internal/game"
)

type ids struct {
	game   uint
	player uint
	topic  uint
	item   uint
	round  uint
}

type state struct {
	next     ids
	games    map[uint]game.Game
	players  map[uint]game.Player
	topics   map[uint]game.Topic
	rounds   map[uint]game.Round
	rankings map[uint][]game.RankingEntry
	guesses  map[uint][]game.GuessEntry
	scores   map[uint][]game.RoundScore
}

func newState() *state {
	return &state{
		games:    make(map[uint]game.Game),
		players:  make(map[uint]game.Player),
		topics:   make(map[uint]game.Topic),
		rounds:   make(map[uint]game.Round),
		rankings: make(map[uint][]game.RankingEntry),
		guesses:  make(map[uint][]game.GuessEntry),
		scores:   make(map[uint][]game.RoundScore),
	}
}

func (s *state) clone() *state {
	out := newState()
	out.next = s.next
	for id, g := range s.games {
		out.games[id] = copyGame(g)
	}
	for id, p := range s.players {
		out.players[id] = p
	}
	for id, t := range s.topics {
		out.topics[id] = copyTopic(t)
	}
	for id, r := range s.rounds {
		out.rounds[id] = copyRound(r)
	}
	for id, rows := range s.rankings {
		out.rankings[id] = append([]game.RankingEntry(nil), rows...)
	}
	for id, rows := range s.guesses {
		cp := make([]game.GuessEntry, len(rows))
		for i, row := range rows {
			cp[i] = copyGuess(row)
		}
		out.guesses[id] = cp
	}
	for id, rows := range s.scores {
		out.scores[id] = append([]game.RoundScore(nil), rows...)
	}
	return out
}

type Store struct {
	mu sync.Mutex
	st *state
}

func New() *Store {
	return &Store{st: newState()}
}

// InTx runs fn against a private copy of the state and keeps the copy only
// when fn succeeds.
func (s *Store) InTx(ctx context.Context, fn func(tx game.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.st.clone()
	if err := fn(&tx{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// AddTopic stores a topic with its items at positions 1..N in the given order.
func (s *Store) AddTopic(name string, items []string) (*game.Topic, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("topic name is required")
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("topic %q has no items", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.next.topic++
	topic := game.Topic{ID: s.st.next.topic, Name: name}
	for i, itemName := range items {
		s.st.next.item++
		topic.Items = append(topic.Items, game.TopicItem{
			ID:       s.st.next.item,
			TopicID:  topic.ID,
			Name:     strings.TrimSpace(itemName),
			Position: i + 1,
		})
	}
	s.st.topics[topic.ID] = topic
	out := copyTopic(topic)
	return &out, nil
}

type tx struct {
	st *state
}

func (t *tx) CreateGame(g *game.Game) error {
	for _, existing := range t.st.games {
		if existing.JoinCode == g.JoinCode && existing.Status != game.GameFinished {
			return game.Conflict("join_code", g.JoinCode, "join code in use")
		}
	}
	t.st.next.game++
	g.ID = t.st.next.game
	t.st.games[g.ID] = copyGame(*g)
	return nil
}

func (t *tx) Game(id uint) (*game.Game, error) {
	g, ok := t.st.games[id]
	if !ok {
		return nil, game.NotFound("game", id)
	}
	out := copyGame(g)
	return &out, nil
}

func (t *tx) LockGame(id uint) (*game.Game, error) {
	return t.Game(id)
}

func (t *tx) GameByCode(code string) (*game.Game, error) {
	var found *game.Game
	for _, g := range t.st.games {
		if g.JoinCode != code {
			continue
		}
		if found == nil || g.ID > found.ID {
			cp := copyGame(g)
			found = &cp
		}
	}
	if found == nil {
		return nil, game.NotFound("game", code)
	}
	return found, nil
}

func (t *tx) UpdateGame(g *game.Game) error {
	if _, ok := t.st.games[g.ID]; !ok {
		return game.NotFound("game", g.ID)
	}
	t.st.games[g.ID] = copyGame(*g)
	return nil
}

func (t *tx) CreatePlayer(p *game.Player) error {
	if _, ok := t.st.games[p.GameID]; !ok {
		return game.NotFound("game", p.GameID)
	}
	for _, existing := range t.st.players {
		if existing.GameID == p.GameID && existing.UserID == p.UserID {
			return game.Conflict("player", existing.ID, "user already joined")
		}
	}
	t.st.next.player++
	p.ID = t.st.next.player
	t.st.players[p.ID] = *p
	return nil
}

func (t *tx) PlayerByUser(gameID uint, userID string) (*game.Player, error) {
	for _, p := range t.st.players {
		if p.GameID == gameID && p.UserID == userID {
			out := p
			return &out, nil
		}
	}
	return nil, game.NotFound("player", userID)
}

func (t *tx) Players(gameID uint) ([]game.Player, error) {
	var out []game.Player
	for _, p := range t.st.players {
		if p.GameID == gameID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *tx) UpdatePlayerScore(playerID uint, score int) error {
	p, ok := t.st.players[playerID]
	if !ok {
		return game.NotFound("player", playerID)
	}
	p.Score = score
	t.st.players[playerID] = p
	return nil
}

func (t *tx) Topic(id uint) (*game.Topic, error) {
	topic, ok := t.st.topics[id]
	if !ok {
		return nil, game.NotFound("topic", id)
	}
	out := copyTopic(topic)
	return &out, nil
}

func (t *tx) Topics(offset, limit int) ([]game.Topic, int64, error) {
	all := make([]game.Topic, 0, len(t.st.topics))
	for _, topic := range t.st.topics {
		all = append(all, copyTopic(topic))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return nil, total, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

func (t *tx) CreateRound(r *game.Round) error {
	if _, ok := t.st.games[r.GameID]; !ok {
		return game.NotFound("game", r.GameID)
	}
	for _, existing := range t.st.rounds {
		if existing.GameID == r.GameID && existing.Number == r.Number {
			return game.Conflict("round", existing.ID, fmt.Sprintf("round %d already exists", r.Number))
		}
	}
	t.st.next.round++
	r.ID = t.st.next.round
	t.st.rounds[r.ID] = copyRound(*r)
	return nil
}

func (t *tx) Round(id uint) (*game.Round, error) {
	r, ok := t.st.rounds[id]
	if !ok {
		return nil, game.NotFound("round", id)
	}
	out := copyRound(r)
	return &out, nil
}

func (t *tx) LatestRound(gameID uint) (*game.Round, error) {
	var latest *game.Round
	for _, r := range t.st.rounds {
		if r.GameID != gameID {
			continue
		}
		if latest == nil || r.Number > latest.Number {
			cp := copyRound(r)
			latest = &cp
		}
	}
	return latest, nil
}

func (t *tx) Rounds(gameID uint) ([]game.Round, error) {
	var out []game.Round
	for _, r := range t.st.rounds {
		if r.GameID == gameID {
			out = append(out, copyRound(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (t *tx) UpdateRound(r *game.Round, prev game.Round) error {
	stored, ok := t.st.rounds[r.ID]
	if !ok {
		return game.NotFound("round", r.ID)
	}
	if stored.Status != prev.Status || stored.RevealIndex != prev.RevealIndex || (stored.ScoredAt == nil) != (prev.ScoredAt == nil) {
		return game.Conflict("round", r.ID, "round changed concurrently")
	}
	t.st.rounds[r.ID] = copyRound(*r)
	return nil
}

func (t *tx) InsertRanking(entries []game.RankingEntry) error {
	if len(entries) == 0 {
		return nil
	}
	roundID := entries[0].RoundID
	if len(t.st.rankings[roundID]) > 0 {
		return game.Conflict("round", roundID, "ranking already submitted")
	}
	items := make(map[uint]struct{}, len(entries))
	positions := make(map[int]struct{}, len(entries))
	for _, e := range entries {
		if e.RoundID != roundID {
			return fmt.Errorf("ranking batch spans rounds %d and %d", roundID, e.RoundID)
		}
		if _, dup := items[e.ItemID]; dup {
			return game.Conflict("round", roundID, fmt.Sprintf("item %d ranked twice", e.ItemID))
		}
		if _, dup := positions[e.Position]; dup {
			return game.Conflict("round", roundID, fmt.Sprintf("position %d ranked twice", e.Position))
		}
		items[e.ItemID] = struct{}{}
		positions[e.Position] = struct{}{}
	}
	t.st.rankings[roundID] = append([]game.RankingEntry(nil), entries...)
	return nil
}

func (t *tx) Ranking(roundID uint) ([]game.RankingEntry, error) {
	return append([]game.RankingEntry(nil), t.st.rankings[roundID]...), nil
}

func (t *tx) InsertGuesses(entries []game.GuessEntry) error {
	if len(entries) == 0 {
		return nil
	}
	roundID := entries[0].RoundID
	type itemKey struct {
		player uint
		item   uint
	}
	type posKey struct {
		player   uint
		position int
	}
	items := make(map[itemKey]struct{})
	positions := make(map[posKey]struct{})
	for _, e := range t.st.guesses[roundID] {
		items[itemKey{e.PlayerID, e.ItemID}] = struct{}{}
		positions[posKey{e.PlayerID, e.Position}] = struct{}{}
	}
	for _, e := range entries {
		if e.RoundID != roundID {
			return fmt.Errorf("guess batch spans rounds %d and %d", roundID, e.RoundID)
		}
		ik := itemKey{e.PlayerID, e.ItemID}
		pk := posKey{e.PlayerID, e.Position}
		if _, dup := items[ik]; dup {
			return game.Conflict("guess", fmt.Sprintf("%d/%d", roundID, e.PlayerID), "item already guessed")
		}
		if _, dup := positions[pk]; dup {
			return game.Conflict("guess", fmt.Sprintf("%d/%d", roundID, e.PlayerID), "position already guessed")
		}
		items[ik] = struct{}{}
		positions[pk] = struct{}{}
	}
	for _, e := range entries {
		t.st.guesses[roundID] = append(t.st.guesses[roundID], copyGuess(e))
	}
	return nil
}

func (t *tx) Guesses(roundID uint) ([]game.GuessEntry, error) {
	rows := t.st.guesses[roundID]
	out := make([]game.GuessEntry, len(rows))
	for i, row := range rows {
		out[i] = copyGuess(row)
	}
	return out, nil
}

func (t *tx) HasGuessed(roundID, playerID uint) (bool, error) {
	for _, e := range t.st.guesses[roundID] {
		if e.PlayerID == playerID {
			return true, nil
		}
	}
	return false, nil
}

func (t *tx) SetGuessCorrectness(entries []game.GuessEntry) error {
	for _, e := range entries {
		rows := t.st.guesses[e.RoundID]
		for i := range rows {
			if rows[i].PlayerID == e.PlayerID && rows[i].ItemID == e.ItemID {
				rows[i] = copyGuess(e)
			}
		}
	}
	return nil
}

func (t *tx) InsertRoundScores(scores []game.RoundScore) error {
	for _, score := range scores {
		for _, existing := range t.st.scores[score.RoundID] {
			if existing.PlayerID == score.PlayerID {
				return game.Conflict("round_score", fmt.Sprintf("%d/%d", score.RoundID, score.PlayerID), "round already scored for player")
			}
		}
		t.st.scores[score.RoundID] = append(t.st.scores[score.RoundID], score)
	}
	return nil
}

func (t *tx) RoundScores(gameID uint) ([]game.RoundScore, error) {
	rounds, _ := t.Rounds(gameID)
	var out []game.RoundScore
	for _, r := range rounds {
		out = append(out, t.st.scores[r.ID]...)
	}
	return out, nil
}

func copyGame(g game.Game) game.Game {
	if g.VIPPlayerID != nil {
		id := *g.VIPPlayerID
		g.VIPPlayerID = &id
	}
	if g.FinishedAt != nil {
		at := *g.FinishedAt
		g.FinishedAt = &at
	}
	return g
}

func copyTopic(t game.Topic) game.Topic {
	t.Items = append([]game.TopicItem(nil), t.Items...)
	if t.OwnerID != nil {
		owner := *t.OwnerID
		t.OwnerID = &owner
	}
	return t
}

func copyRound(r game.Round) game.Round {
	if r.ScoredAt != nil {
		at := *r.ScoredAt
		r.ScoredAt = &at
	}
	return r
}

func copyGuess(g game.GuessEntry) game.GuessEntry {
	if g.IsCorrect != nil {
		v := *g.IsCorrect
		g.IsCorrect = &v
	}
	return g
}
