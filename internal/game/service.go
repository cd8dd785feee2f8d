package game

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/coder/quartz"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"rank-it/internal/scoring"
)

const (
	DefaultJoinCodeAttempts = 10
	// MinPlayers is the number of players needed before a round can start:
	// the VIP plus at least one guesser.
	MinPlayers = 2
	// MaxNameLength and MaxUserIDLength match the player and session columns.
	MaxNameLength   = 64
	MaxUserIDLength = 64
)

// Service coordinates games and rounds on top of a Store. Every mutating call
// is one unit of work; changes are published after the unit commits.
type Service struct {
	store        Store
	notifier     Notifier
	clock        quartz.Clock
	log          zerolog.Logger
	newCode      func() string
	codeAttempts int
	validate     *validator.Validate
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithClock(clock quartz.Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.log = logger }
}

// WithJoinCodes replaces the join code generator and the number of attempts
// made before CreateGame gives up on collisions.
func WithJoinCodes(gen func() string, attempts int) Option {
	return func(s *Service) {
		if gen != nil {
			s.newCode = gen
		}
		if attempts > 0 {
			s.codeAttempts = attempts
		}
	}
}

func NewService(store Store, opts ...Option) *Service {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	s := &Service{
		store:        store,
		notifier:     NopNotifier{},
		clock:        quartz.NewReal(),
		log:          zerolog.Nop(),
		newCode:      NewJoinCode,
		codeAttempts: DefaultJoinCodeAttempts,
		validate:     v,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) now() time.Time {
	return s.clock.Now().UTC()
}

func (s *Service) run(ctx context.Context, fn func(tx Tx, changes *changeSet) error) error {
	changes := &changeSet{at: s.now()}
	err := s.store.InTx(ctx, func(tx Tx) error {
		changes.changes = changes.changes[:0]
		return fn(tx, changes)
	})
	if err != nil {
		return err
	}
	for _, change := range changes.changes {
		s.notifier.Publish(ctx, change)
	}
	return nil
}

// CreateGame opens a new game. The creator becomes its first player and VIP.
func (s *Service) CreateGame(ctx context.Context, creator Identity, cfg ScoringConfig) (*Game, error) {
	creator, err := normalizeIdentity(creator, true)
	if err != nil {
		return nil, err
	}
	if err := s.ValidateScoring(cfg); err != nil {
		return nil, err
	}
	var created *Game
	code := ""
	for attempt := 1; attempt <= s.codeAttempts; attempt++ {
		code = s.newCode()
		err := s.run(ctx, func(tx Tx, changes *changeSet) error {
			game := &Game{
				JoinCode:  code,
				CreatorID: creator.UserID,
				Status:    GameWaiting,
				Scoring:   cfg,
				CreatedAt: changes.at,
				UpdatedAt: changes.at,
			}
			if err := tx.CreateGame(game); err != nil {
				return err
			}
			player := &Player{
				GameID:   game.ID,
				UserID:   creator.UserID,
				Name:     creator.DisplayName,
				JoinedAt: changes.at,
			}
			if err := tx.CreatePlayer(player); err != nil {
				return err
			}
			game.VIPPlayerID = &player.ID
			if err := tx.UpdateGame(game); err != nil {
				return err
			}
			changes.add(ChangeGame, "game_created", game.ID, withGameStatus(game))
			changes.add(ChangePlayers, "player_joined", game.ID, withPlayer(player.ID))
			created = game
			return nil
		})
		if err == nil {
			s.log.Info().Uint("game_id", created.ID).Str("join_code", created.JoinCode).Str("creator", creator.UserID).Msg("game created")
			return created, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}
		s.log.Warn().Str("join_code", code).Int("attempt", attempt).Msg("join code collision")
	}
	return nil, Conflict("join_code", code, fmt.Sprintf("no free join code after %d attempts", s.codeAttempts))
}

// JoinGame enrolls user in the game with the given code. Joining twice returns
// the existing player.
func (s *Service) JoinGame(ctx context.Context, code string, user Identity) (*Game, *Player, error) {
	user, err := normalizeIdentity(user, true)
	if err != nil {
		return nil, nil, err
	}
	code = NormalizeJoinCode(code)
	if !ValidJoinCode(code) {
		return nil, nil, NotFound("game", code)
	}
	var (
		game   *Game
		player *Player
		joined bool
	)
	err = s.run(ctx, func(tx Tx, changes *changeSet) error {
		found, err := tx.GameByCode(code)
		if err != nil {
			return err
		}
		g, err := tx.LockGame(found.ID)
		if err != nil {
			return err
		}
		existing, err := tx.PlayerByUser(g.ID, user.UserID)
		if err == nil {
			game, player = g, existing
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		if g.Status == GameFinished {
			return InvalidState("game", g.ID, g.Status, "game is finished")
		}
		p := &Player{
			GameID:   g.ID,
			UserID:   user.UserID,
			Name:     user.DisplayName,
			JoinedAt: changes.at,
		}
		if err := tx.CreatePlayer(p); err != nil {
			return err
		}
		changes.add(ChangePlayers, "player_joined", g.ID, withPlayer(p.ID))
		game, player, joined = g, p, true
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if joined {
		s.log.Info().Uint("game_id", game.ID).Uint("player_id", player.ID).Str("user", user.UserID).Msg("player joined")
	}
	return game, player, nil
}

// StartRound lets the VIP pick a topic, creating the next round in
// vip_ranking. The first round moves the game to playing.
func (s *Service) StartRound(ctx context.Context, gameID uint, actor Identity, topicID uint) (*Round, error) {
	var round *Round
	err := s.run(ctx, func(tx Tx, changes *changeSet) error {
		game, err := tx.LockGame(gameID)
		if err != nil {
			return err
		}
		if err := requireOpen(game); err != nil {
			return err
		}
		player, err := memberOf(tx, game, actor)
		if err != nil {
			return err
		}
		if !game.isVIP(player.ID) {
			return Unauthorized("game", game.ID, actor.UserID, "only the VIP can select a topic")
		}
		latest, err := tx.LatestRound(game.ID)
		if err != nil {
			return err
		}
		number := 1
		if latest != nil {
			if latest.Status != RoundComplete {
				return InvalidState("round", latest.ID, latest.Status, "previous round is not complete")
			}
			if latest.ScoredAt == nil {
				return InvalidState("round", latest.ID, latest.Status, "previous round has not been scored")
			}
			number = latest.Number + 1
		}
		players, err := tx.Players(game.ID)
		if err != nil {
			return err
		}
		if len(players) < MinPlayers {
			return InvalidState("game", game.ID, game.Status, fmt.Sprintf("need at least %d players", MinPlayers))
		}
		topic, err := tx.Topic(topicID)
		if err != nil {
			return err
		}
		if len(topic.Items) < MinTopicItems {
			return Invalid("topic", topic.ID, "items", fmt.Sprintf("topic needs at least %d items", MinTopicItems))
		}
		r := &Round{
			GameID:      game.ID,
			Number:      number,
			TopicID:     topic.ID,
			VIPPlayerID: player.ID,
			Status:      RoundTopicSelection,
			ItemCount:   len(topic.Items),
			CreatedAt:   changes.at,
			UpdatedAt:   changes.at,
		}
		if err := advanceRound(r); err != nil {
			return err
		}
		if err := tx.CreateRound(r); err != nil {
			return err
		}
		if game.Status == GameWaiting {
			if err := setGameStatus(game, GamePlaying); err != nil {
				return err
			}
			game.UpdatedAt = changes.at
			if err := tx.UpdateGame(game); err != nil {
				return err
			}
			changes.add(ChangeGame, "game_started", game.ID, withGameStatus(game))
		}
		changes.add(ChangeRound, "topic_selected", game.ID, withRound(r))
		round = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Uint("game_id", gameID).Uint("round_id", round.ID).Int("number", round.Number).Uint("topic_id", topicID).Msg("round started")
	return round, nil
}

// SubmitRanking stores the VIP's ranking and opens guessing.
func (s *Service) SubmitRanking(ctx context.Context, roundID uint, actor Identity, placements []Placement) (*Round, error) {
	var round *Round
	err := s.run(ctx, func(tx Tx, changes *changeSet) error {
		game, r, err := lockRound(tx, roundID)
		if err != nil {
			return err
		}
		if err := requireOpen(game); err != nil {
			return err
		}
		player, err := memberOf(tx, game, actor)
		if err != nil {
			return err
		}
		if r.VIPPlayerID != player.ID {
			return Unauthorized("round", r.ID, actor.UserID, "only the VIP can rank")
		}
		existing, err := tx.Ranking(r.ID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return Conflict("round", r.ID, "ranking already submitted")
		}
		if err := requireRoundStatus(r, RoundVIPRanking, "ranking"); err != nil {
			return err
		}
		topic, err := tx.Topic(r.TopicID)
		if err != nil {
			return err
		}
		itemIDs, err := roundItemIDs(r, topic.Items)
		if err != nil {
			return err
		}
		positions, err := validatePlacements(r, itemIDs, placements)
		if err != nil {
			return err
		}
		entries := make([]RankingEntry, 0, len(positions))
		for _, itemID := range sortedPositions(positions) {
			entries = append(entries, RankingEntry{RoundID: r.ID, ItemID: itemID, Position: positions[itemID]})
		}
		if err := tx.InsertRanking(entries); err != nil {
			return err
		}
		prev := *r
		if err := advanceRound(r); err != nil {
			return err
		}
		r.UpdatedAt = changes.at
		if err := tx.UpdateRound(r, prev); err != nil {
			return err
		}
		changes.add(ChangeRound, "ranking_submitted", game.ID, withRound(r))
		round = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Uint("game_id", round.GameID).Uint("round_id", round.ID).Str("status", string(round.Status)).Msg("ranking submitted")
	return round, nil
}

// SubmitGuess stores one full guess set for a non-VIP player.
func (s *Service) SubmitGuess(ctx context.Context, roundID uint, actor Identity, placements []Placement) (*Round, error) {
	var (
		round  *Round
		player *Player
	)
	err := s.run(ctx, func(tx Tx, changes *changeSet) error {
		game, r, err := lockRound(tx, roundID)
		if err != nil {
			return err
		}
		if err := requireOpen(game); err != nil {
			return err
		}
		if err := requireRoundStatus(r, RoundPlayerGuessing, "guessing"); err != nil {
			return err
		}
		p, err := memberOf(tx, game, actor)
		if err != nil {
			return err
		}
		if r.VIPPlayerID == p.ID {
			return Unauthorized("round", r.ID, actor.UserID, "the VIP cannot guess")
		}
		guessed, err := tx.HasGuessed(r.ID, p.ID)
		if err != nil {
			return err
		}
		if guessed {
			return Conflict("guess", fmt.Sprintf("%d/%d", r.ID, p.ID), "guess already submitted for this round")
		}
		ranking, err := tx.Ranking(r.ID)
		if err != nil {
			return err
		}
		itemIDs, err := rankedItemIDs(r, ranking)
		if err != nil {
			return err
		}
		positions, err := validatePlacements(r, itemIDs, placements)
		if err != nil {
			return err
		}
		entries := make([]GuessEntry, 0, len(positions))
		for _, itemID := range sortedPositions(positions) {
			entries = append(entries, GuessEntry{RoundID: r.ID, PlayerID: p.ID, ItemID: itemID, Position: positions[itemID]})
		}
		if err := tx.InsertGuesses(entries); err != nil {
			return err
		}
		changes.add(ChangeRound, "guess_submitted", game.ID, withRound(r), withPlayer(p.ID))
		round, player = r, p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Uint("game_id", round.GameID).Uint("round_id", round.ID).Uint("player_id", player.ID).Msg("guess submitted")
	return round, nil
}

// RevealResult is returned by AdvanceReveal. Scores is set only on the step
// that completed the round.
type RevealResult struct {
	Game   *Game        `json:"game"`
	Round  *Round       `json:"round"`
	Scores []RoundScore `json:"scores,omitempty"`
}

func (r *RevealResult) Completed() bool {
	return r.Round != nil && r.Round.Status == RoundComplete
}

// AdvanceReveal discloses the next ranking position. The step that discloses
// the last position completes the round and applies its scores in the same
// unit of work. Advancing a complete round is an InvalidStateError.
func (s *Service) AdvanceReveal(ctx context.Context, roundID uint, actor Identity) (*RevealResult, error) {
	var result *RevealResult
	err := s.run(ctx, func(tx Tx, changes *changeSet) error {
		game, r, err := lockRound(tx, roundID)
		if err != nil {
			return err
		}
		if err := requireOpen(game); err != nil {
			return err
		}
		player, err := memberOf(tx, game, actor)
		if err != nil {
			return err
		}
		if r.VIPPlayerID != player.ID {
			return Unauthorized("round", r.ID, actor.UserID, "only the VIP can reveal")
		}
		if r.Status != RoundPlayerGuessing && r.Status != RoundRevealing {
			return InvalidState("round", r.ID, r.Status, "nothing left to reveal")
		}
		prev := *r
		if err := advanceRound(r); err != nil {
			return err
		}
		r.UpdatedAt = changes.at
		if err := tx.UpdateRound(r, prev); err != nil {
			return err
		}
		changes.add(ChangeRound, "reveal_advanced", game.ID, withRound(r))
		result = &RevealResult{Game: game, Round: r}
		if r.Status != RoundComplete {
			return nil
		}
		scores, err := s.applyResult(tx, game, r, changes)
		if err != nil {
			return err
		}
		result.Scores = scores
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Uint("game_id", result.Round.GameID).Uint("round_id", result.Round.ID).Int("reveal_index", result.Round.RevealIndex).Str("status", string(result.Round.Status)).Msg("reveal advanced")
	return result, nil
}

// ApplyRoundResult scores a complete round that has not been scored yet.
// Calling it for an already scored round returns the game unchanged.
func (s *Service) ApplyRoundResult(ctx context.Context, roundID uint) (*Game, error) {
	var (
		game    *Game
		applied bool
	)
	err := s.run(ctx, func(tx Tx, changes *changeSet) error {
		g, r, err := lockRound(tx, roundID)
		if err != nil {
			return err
		}
		if r.Status != RoundComplete {
			return InvalidState("round", r.ID, r.Status, "round is not complete")
		}
		if r.ScoredAt != nil {
			game = g
			return nil
		}
		if err := requireOpen(g); err != nil {
			return err
		}
		if _, err := s.applyResult(tx, g, r, changes); err != nil {
			return err
		}
		game, applied = g, true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if applied {
		s.log.Info().Uint("game_id", game.ID).Uint("round_id", roundID).Str("status", string(game.Status)).Msg("round result applied")
	}
	return game, nil
}

// applyResult claims the round's scoring edge, adds every delta, stores the
// per-round rows and then runs the win check once.
func (s *Service) applyResult(tx Tx, game *Game, round *Round, changes *changeSet) ([]RoundScore, error) {
	if round.Status != RoundComplete {
		return nil, InvalidState("round", round.ID, round.Status, "round is not complete")
	}
	if round.ScoredAt != nil {
		return nil, Conflict("round", round.ID, "round already scored")
	}
	prev := *round
	scoredAt := changes.at
	round.ScoredAt = &scoredAt
	if err := tx.UpdateRound(round, prev); err != nil {
		return nil, err
	}

	ranking, err := tx.Ranking(round.ID)
	if err != nil {
		return nil, err
	}
	truth := make(scoring.Ranking, len(ranking))
	for _, entry := range ranking {
		truth[entry.ItemID] = entry.Position
	}
	guesses, err := tx.Guesses(round.ID)
	if err != nil {
		return nil, err
	}
	byPlayer := make(map[uint]scoring.Guess)
	for _, guess := range guesses {
		if byPlayer[guess.PlayerID] == nil {
			byPlayer[guess.PlayerID] = make(scoring.Guess)
		}
		byPlayer[guess.PlayerID][guess.ItemID] = guess.Position
	}
	result := scoring.Score(truth, byPlayer, game.Scoring.engine())

	for i := range guesses {
		correct := result[guesses[i].PlayerID].Items[guesses[i].ItemID]
		guesses[i].IsCorrect = &correct
	}
	if len(guesses) > 0 {
		if err := tx.SetGuessCorrectness(guesses); err != nil {
			return nil, err
		}
	}

	players, err := tx.Players(game.ID)
	if err != nil {
		return nil, err
	}
	scores := make([]RoundScore, 0, len(result))
	for i := range players {
		res, ok := result[players[i].ID]
		if !ok {
			continue
		}
		players[i].Score += res.Delta
		if err := tx.UpdatePlayerScore(players[i].ID, players[i].Score); err != nil {
			return nil, err
		}
		scores = append(scores, RoundScore{
			RoundID:    round.ID,
			PlayerID:   players[i].ID,
			Delta:      res.Delta,
			Correct:    res.Correct,
			Guessed:    res.Guessed,
			ScoreAfter: players[i].Score,
		})
	}
	if len(scores) > 0 {
		if err := tx.InsertRoundScores(scores); err != nil {
			return nil, err
		}
	}
	changes.add(ChangeRound, "round_scored", game.ID, withRound(round))
	changes.add(ChangePlayers, "scores_updated", game.ID)

	if targetReached(players, game.Scoring.TargetScore) {
		if err := setGameStatus(game, GameFinished); err != nil {
			return nil, err
		}
		finishedAt := changes.at
		game.FinishedAt = &finishedAt
		changes.add(ChangeGame, "game_won", game.ID, withGameStatus(game))
	} else {
		game.VIPPlayerID = nextVIP(players, game.VIPPlayerID)
		changes.add(ChangeGame, "vip_rotated", game.ID, withGameStatus(game))
	}
	game.UpdatedAt = changes.at
	if err := tx.UpdateGame(game); err != nil {
		return nil, err
	}
	return scores, nil
}

// RotateVIP hands the VIP role to the next player between rounds. Creator only.
func (s *Service) RotateVIP(ctx context.Context, gameID uint, actor Identity) (*Game, error) {
	var game *Game
	err := s.run(ctx, func(tx Tx, changes *changeSet) error {
		g, err := tx.LockGame(gameID)
		if err != nil {
			return err
		}
		if err := requireOpen(g); err != nil {
			return err
		}
		if err := requireCreator(g, actor); err != nil {
			return err
		}
		latest, err := tx.LatestRound(g.ID)
		if err != nil {
			return err
		}
		if latest != nil && latest.Status != RoundComplete {
			return InvalidState("round", latest.ID, latest.Status, "round in progress")
		}
		players, err := tx.Players(g.ID)
		if err != nil {
			return err
		}
		g.VIPPlayerID = nextVIP(players, g.VIPPlayerID)
		g.UpdatedAt = changes.at
		if err := tx.UpdateGame(g); err != nil {
			return err
		}
		changes.add(ChangeGame, "vip_rotated", g.ID, withGameStatus(g))
		game = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Uint("game_id", game.ID).Msg("vip rotated")
	return game, nil
}

// EndGame finishes the game regardless of scores. Creator only.
func (s *Service) EndGame(ctx context.Context, gameID uint, actor Identity) (*Game, error) {
	var game *Game
	err := s.run(ctx, func(tx Tx, changes *changeSet) error {
		g, err := tx.LockGame(gameID)
		if err != nil {
			return err
		}
		if err := requireCreator(g, actor); err != nil {
			return err
		}
		if err := setGameStatus(g, GameFinished); err != nil {
			return err
		}
		finishedAt := changes.at
		g.FinishedAt = &finishedAt
		g.UpdatedAt = changes.at
		if err := tx.UpdateGame(g); err != nil {
			return err
		}
		changes.add(ChangeGame, "game_ended", g.ID, withGameStatus(g))
		game = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Uint("game_id", game.ID).Str("by", actor.UserID).Msg("game ended")
	return game, nil
}

// UpdateScoring replaces the scoring configuration. Creator only. The new
// target is only checked the next time a round is scored.
func (s *Service) UpdateScoring(ctx context.Context, gameID uint, actor Identity, cfg ScoringConfig) (*Game, error) {
	if err := s.ValidateScoring(cfg); err != nil {
		return nil, err
	}
	var game *Game
	err := s.run(ctx, func(tx Tx, changes *changeSet) error {
		g, err := tx.LockGame(gameID)
		if err != nil {
			return err
		}
		if err := requireOpen(g); err != nil {
			return err
		}
		if err := requireCreator(g, actor); err != nil {
			return err
		}
		g.Scoring = cfg
		g.UpdatedAt = changes.at
		if err := tx.UpdateGame(g); err != nil {
			return err
		}
		changes.add(ChangeGame, "scoring_updated", g.ID, withGameStatus(g))
		game = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return game, nil
}

// ValidateScoring checks a scoring configuration against its field rules.
func (s *Service) ValidateScoring(cfg ScoringConfig) error {
	err := s.validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return Invalid("scoring", nil, first.Field(), fmt.Sprintf("must satisfy %s=%s", first.Tag(), first.Param()))
	}
	return Invalid("scoring", nil, "config", err.Error())
}

func lockRound(tx Tx, roundID uint) (*Game, *Round, error) {
	found, err := tx.Round(roundID)
	if err != nil {
		return nil, nil, err
	}
	game, err := tx.LockGame(found.GameID)
	if err != nil {
		return nil, nil, err
	}
	// re-read under the game lock
	round, err := tx.Round(roundID)
	if err != nil {
		return nil, nil, err
	}
	return game, round, nil
}

func memberOf(tx Tx, game *Game, actor Identity) (*Player, error) {
	if strings.TrimSpace(actor.UserID) == "" {
		return nil, Unauthorized("game", game.ID, actor.UserID, "missing identity")
	}
	player, err := tx.PlayerByUser(game.ID, actor.UserID)
	if errors.Is(err, ErrNotFound) {
		return nil, Unauthorized("game", game.ID, actor.UserID, "not a player in this game")
	}
	return player, err
}

func requireCreator(game *Game, actor Identity) error {
	if actor.UserID == "" || actor.UserID != game.CreatorID {
		return Unauthorized("game", game.ID, actor.UserID, "only the creator can do this")
	}
	return nil
}

func requireOpen(game *Game) error {
	if game.Status == GameFinished {
		return InvalidState("game", game.ID, game.Status, "game is finished")
	}
	return nil
}

func setGameStatus(game *Game, next GameStatus) error {
	if gameStatusOrder[next] <= gameStatusOrder[game.Status] {
		return InvalidState("game", game.ID, game.Status, fmt.Sprintf("cannot move to %s", next))
	}
	game.Status = next
	return nil
}

func targetReached(players []Player, target int) bool {
	for _, player := range players {
		if player.Score >= target {
			return true
		}
	}
	return false
}

func normalizeIdentity(id Identity, needName bool) (Identity, error) {
	id.UserID = strings.TrimSpace(id.UserID)
	id.DisplayName = strings.Join(strings.Fields(id.DisplayName), " ")
	if id.UserID == "" {
		return id, Invalid("identity", nil, "user_id", "is required")
	}
	if len(id.UserID) > MaxUserIDLength {
		return id, Invalid("identity", nil, "user_id", fmt.Sprintf("must be %d characters or fewer", MaxUserIDLength))
	}
	if needName && id.DisplayName == "" {
		return id, Invalid("identity", id.UserID, "display_name", "is required")
	}
	if len(id.DisplayName) > MaxNameLength {
		return id, Invalid("identity", id.UserID, "display_name", fmt.Sprintf("must be %d characters or fewer", MaxNameLength))
	}
	return id, nil
}
