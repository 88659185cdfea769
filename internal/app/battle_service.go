package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"legal-battle-service/internal/config"
	"legal-battle-service/internal/domain"
	"legal-battle-service/internal/engine"
	"legal-battle-service/internal/logging"
)

// BattleRepository abstracts where live battles are kept (in-memory, Redis, etc).
// Touch is called whenever a round opens or the battle completes.
type BattleRepository interface {
	Add(battle *Battle)
	Get(battleID string) (*Battle, bool)
	Touch(battleID string)
	Delete(battleID string)
}

// DeckRepository loads question decks (from cache/backing store).
type DeckRepository interface {
	GetDeck(ctx context.Context, deckID string) (domain.Deck, error)
}

// ProfileStore persists progression. RecordBattle upserts the profile keyed
// by user id and appends the history row in one unit.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (domain.Profile, error)
	RecordBattle(ctx context.Context, record domain.BattleRecord) (domain.Profile, error)
	History(ctx context.Context, userID string, limit int) ([]domain.BattleRecord, error)
}

// Leaderboard ranks users by total XP.
type Leaderboard interface {
	SetXP(ctx context.Context, userID string, xp int) error
	Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
	Rank(ctx context.Context, userID string) (int, error)
}

// Settings is the game tuning the service runs with.
type Settings struct {
	Battle       config.Battle
	Achievements []domain.Achievement
}

// StartOptions selects the deck and difficulty of a new battle.
type StartOptions struct {
	DeckID     string
	Difficulty string
}

const (
	persistTimeout     = 5 * time.Second
	completedRetention = 5 * time.Minute
)

// BattleService contains the battle use cases.
type BattleService struct {
	battles  BattleRepository
	decks    DeckRepository
	profiles ProfileStore
	board    Leaderboard
	settings Settings

	sched  Scheduler
	now    func() time.Time
	newRNG func() (engine.RNG, error)
	newID  func() string
}

// Option customizes a BattleService.
type Option func(*BattleService)

// WithScheduler replaces the timer-based scheduler.
func WithScheduler(s Scheduler) Option {
	return func(svc *BattleService) { svc.sched = s }
}

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(svc *BattleService) { svc.now = now }
}

// WithRNGSource replaces the per-battle RNG (crypto-seeded by default).
func WithRNGSource(newRNG func() (engine.RNG, error)) Option {
	return func(svc *BattleService) { svc.newRNG = newRNG }
}

// WithSeed makes every battle replay the same random draws.
func WithSeed(seed int64) Option {
	return WithRNGSource(func() (engine.RNG, error) { return engine.NewRNG(seed), nil })
}

// WithIDGenerator replaces uuid battle ids.
func WithIDGenerator(newID func() string) Option {
	return func(svc *BattleService) { svc.newID = newID }
}

func NewBattleService(battles BattleRepository, decks DeckRepository, profiles ProfileStore, board Leaderboard, settings Settings, opts ...Option) *BattleService {
	svc := &BattleService{
		battles:  battles,
		decks:    decks,
		profiles: profiles,
		board:    board,
		settings: settings,
		sched:    TimerScheduler{},
		now:      time.Now,
		newRNG:   randomRNG,
		newID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// StartBattle loads a deck, draws the battle's questions and opens the first round.
func (s *BattleService) StartBattle(ctx context.Context, userID string, opts StartOptions) (domain.BattleSnapshot, error) {
	cfg := s.settings.Battle
	deck, err := s.decks.GetDeck(ctx, opts.DeckID)
	if err != nil {
		return domain.BattleSnapshot{}, err
	}
	if len(deck.Questions) < cfg.QuestionsPerBattle {
		return domain.BattleSnapshot{}, fmt.Errorf("deck %s has %d questions, need %d: %w",
			opts.DeckID, len(deck.Questions), cfg.QuestionsPerBattle, domain.ErrNotEnoughQuestions)
	}

	rng, err := s.newRNG()
	if err != nil {
		return domain.BattleSnapshot{}, err
	}
	name, difficulty := cfg.ResolveDifficulty(opts.Difficulty)

	b := newBattle(battleParams{
		id:         s.newID(),
		userID:     userID,
		deckID:     deck.ID,
		difficulty: name,
		multiplier: difficulty.RewardMultiplier,
		accuracy:   engine.BotAccuracy(cfg.BotBaseAccuracy, cfg.BotAccuracyMultiplier, difficulty.BotRating),
		timeLimit:  cfg.TimePerQuestion,
		questions:  drawQuestions(rng, deck.Questions, cfg.QuestionsPerBattle),
		rng:        rng,
		now:        s.now,
	})

	b.mu.Lock()
	b.setPhaseLocked(domain.PhaseInitializing)
	b.player = domain.PlayerState{Health: cfg.InitialHealth, Shield: cfg.InitialShield}
	b.opponent = domain.PlayerState{Health: cfg.InitialHealth, Shield: cfg.InitialShield}
	b.round = 1
	s.openRoundLocked(b)
	snap := b.snapshotLocked()
	b.mu.Unlock()

	s.battles.Add(b)
	logging.Info("battle started", logging.Fields{"battleId": b.id, "userId": userID, "deckId": deck.ID, "difficulty": name})
	return snap, nil
}

// SubmitAnswer resolves the current round with the user's submission and the
// bot's move. The next round opens only after the reveal and animation delays.
func (s *BattleService) SubmitAnswer(_ context.Context, battleID, userID string, sub domain.Submission) (domain.RoundReport, error) {
	b, err := s.lookup(battleID, userID)
	if err != nil {
		return domain.RoundReport{}, err
	}
	action, err := engine.ParseAction(string(sub.Action))
	if err != nil {
		return domain.RoundReport{}, err
	}
	sub.Action = action

	b.mu.Lock()
	defer b.mu.Unlock()
	return s.playRoundLocked(b, sub, false)
}

// Snapshot returns the battle's current state.
func (s *BattleService) Snapshot(_ context.Context, battleID, userID string) (domain.BattleSnapshot, error) {
	b, err := s.lookup(battleID, userID)
	if err != nil {
		return domain.BattleSnapshot{}, err
	}
	return b.Snapshot(), nil
}

// Subscribe returns a channel that receives a snapshot on every phase change.
// The caller must invoke the returned cancel function to avoid leaks. The
// channel is closed when the battle is exited or discarded.
func (s *BattleService) Subscribe(_ context.Context, battleID, userID string) (<-chan domain.BattleSnapshot, func(), error) {
	b, err := s.lookup(battleID, userID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := b.subscribe()
	return ch, cancel, nil
}

// Exit tears the battle down. Pending transitions are cancelled and no further
// state changes happen for it.
func (s *BattleService) Exit(_ context.Context, battleID, userID string) error {
	b, err := s.lookup(battleID, userID)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.closeLocked()
	b.mu.Unlock()
	s.battles.Delete(battleID)
	return nil
}

// Profile returns a user's progression; users without battles get an empty profile.
func (s *BattleService) Profile(ctx context.Context, userID string) (domain.Profile, error) {
	p, err := s.profiles.GetProfile(ctx, userID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return domain.Profile{UserID: userID, Achievements: []string{}}, nil
	}
	return p, err
}

// History returns the user's most recent finished battles.
func (s *BattleService) History(ctx context.Context, userID string, limit int) ([]domain.BattleRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.profiles.History(ctx, userID, limit)
}

// Leaderboard returns the top users by XP.
func (s *BattleService) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.board.Top(ctx, limit)
}

// Rank returns the user's leaderboard position (0 when unranked).
func (s *BattleService) Rank(ctx context.Context, userID string) (int, error) {
	return s.board.Rank(ctx, userID)
}

// Achievements lists the configured catalog.
func (s *BattleService) Achievements() []domain.Achievement {
	return append([]domain.Achievement(nil), s.settings.Achievements...)
}

func (s *BattleService) lookup(battleID, userID string) (*Battle, error) {
	b, ok := s.battles.Get(battleID)
	if !ok {
		return nil, domain.ErrBattleNotFound
	}
	if b.userID != userID {
		return nil, domain.ErrNotParticipant
	}
	return b, nil
}

// openRoundLocked moves to ready and arms the question timeout.
func (s *BattleService) openRoundLocked(b *Battle) {
	gen := b.setPhaseLocked(domain.PhaseReady)
	b.pending = s.sched.Schedule(s.settings.Battle.QuestionTimeout(), func() {
		s.timeout(b, gen)
	})
	s.battles.Touch(b.id)
}

func (s *BattleService) playRoundLocked(b *Battle, sub domain.Submission, timedOut bool) (domain.RoundReport, error) {
	if b.closed {
		return domain.RoundReport{}, domain.ErrBattleNotFound
	}
	switch b.phase {
	case domain.PhaseReady:
	case domain.PhaseCompleted:
		return domain.RoundReport{}, domain.ErrBattleCompleted
	default:
		return domain.RoundReport{}, domain.ErrRoundInProgress
	}

	q := b.currentQuestionLocked()
	timeLeft := min(max(sub.TimeLeft, 0), b.timeLimit)
	correct := q.IsCorrect(sub.Answer)

	player := b.player
	player.SelectedAction = sub.Action
	player.Answer = sub.Answer
	player.IsReady = true
	player.IsCorrect = correct
	player.TimeLeft = timeLeft

	bot := engine.SelectBotMove(b.rng, q, b.accuracy, timeLeft)
	bot.Health = b.opponent.Health
	bot.Shield = b.opponent.Shield

	out, err := engine.ResolveRound(player, bot)
	if err != nil {
		return domain.RoundReport{}, err
	}

	b.player, b.opponent = out.Player, out.Opponent
	result := out.Result
	b.lastResult = &result
	if correct {
		b.score++
		b.timeBank += timeLeft
	}

	gen := b.setPhaseLocked(domain.PhaseAnswerReveal)
	reveal, _ := s.settings.Battle.PhaseDelays()
	b.pending = s.sched.Schedule(reveal, func() { s.advance(b, gen) })

	return domain.RoundReport{
		BattleID:      b.id,
		Round:         b.round,
		QuestionID:    q.ID,
		CorrectAnswer: q.CorrectAnswer,
		Result:        result,
		Player:        b.player,
		Opponent:      b.opponent,
		TimedOut:      timedOut,
	}, nil
}

// advance runs one scheduled transition: answer-reveal to animation, then
// animation to the next round or completion. Stale generations are ignored.
func (s *BattleService) advance(b *Battle, gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.gen != gen {
		return
	}
	b.pending = nil

	switch b.phase {
	case domain.PhaseAnswerReveal:
		next := b.setPhaseLocked(domain.PhaseAnimation)
		_, animation := s.settings.Battle.PhaseDelays()
		b.pending = s.sched.Schedule(animation, func() { s.advance(b, next) })
	case domain.PhaseAnimation:
		done, outcome := engine.BattleOver(b.player, b.opponent, b.round, len(b.questions))
		if done {
			s.completeLocked(b, outcome)
			return
		}
		b.round++
		b.player = engine.ResetForNextRound(b.player)
		b.opponent = engine.ResetForNextRound(b.opponent)
		s.openRoundLocked(b)
	}
}

// timeout auto-submits a defend with no answer when the user lets the clock run out.
func (s *BattleService) timeout(b *Battle, gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.gen != gen || b.phase != domain.PhaseReady {
		return
	}
	b.pending = nil
	logging.Info("question timed out; auto-submitting defend", logging.Fields{"battleId": b.id, "round": b.round})
	if _, err := s.playRoundLocked(b, domain.Submission{Action: domain.ActionDefend}, true); err != nil {
		logging.Error("auto-submit failed", err, logging.Fields{"battleId": b.id})
	}
}

// completeLocked finalizes rewards, persists the battle and schedules the
// session for removal. Persistence failures are recorded on the snapshot.
func (s *BattleService) completeLocked(b *Battle, outcome domain.Outcome) {
	b.outcome = outcome
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	// A failed read other than not-found skips recording; the battle is never
	// applied to an empty stand-in profile.
	prev, loadErr := s.profiles.GetProfile(ctx, b.userID)
	if errors.Is(loadErr, domain.ErrProfileNotFound) {
		loadErr = nil
	}
	if prev.UserID == "" {
		prev = domain.Profile{UserID: b.userID}
	}

	rewards := engine.CalculateRewards(engine.RewardInput{
		Score:                b.score,
		TotalQuestions:       len(b.questions),
		Streak:               prev.Streak,
		TimeLeft:             b.timeBank,
		DifficultyMultiplier: b.multiplier,
		Outcome:              outcome,
	}, s.settings.Battle.Rewards)
	b.rewards = &rewards

	record := domain.BattleRecord{
		BattleID:       b.id,
		UserID:         b.userID,
		DeckID:         b.deckID,
		Outcome:        outcome,
		Score:          b.score,
		TotalQuestions: len(b.questions),
		PlayerHealth:   b.player.Health,
		OpponentHealth: b.opponent.Health,
		Rewards:        rewards,
		FinishedAt:     s.now(),
	}
	record.Unlocked = engine.UnlockAchievements(s.settings.Achievements, prev.Apply(record), record)

	if loadErr != nil {
		b.persistErr = fmt.Sprintf("load profile: %v", loadErr)
		logging.Error("load profile", loadErr, logging.Fields{"battleId": b.id, "userId": b.userID})
	} else if profile, err := s.profiles.RecordBattle(ctx, record); err != nil {
		b.persistErr = err.Error()
		logging.Error("persist battle", err, logging.Fields{"battleId": b.id, "userId": b.userID})
	} else {
		b.unlocked = record.Unlocked
		if err := s.board.SetXP(ctx, b.userID, profile.XP); err != nil {
			logging.Error("update leaderboard", err, logging.Fields{"userId": b.userID})
		}
	}

	gen := b.setPhaseLocked(domain.PhaseCompleted)
	b.pending = s.sched.Schedule(completedRetention, func() { s.discard(b, gen) })
	s.battles.Touch(b.id)
	logging.Info("battle completed", logging.Fields{
		"battleId": b.id, "userId": b.userID, "outcome": string(outcome),
		"score": b.score, "xp": rewards.XPEarned, "coins": rewards.CoinsEarned,
	})
}

func (s *BattleService) discard(b *Battle, gen uint64) {
	b.mu.Lock()
	if b.closed || b.gen != gen {
		b.mu.Unlock()
		return
	}
	b.closeLocked()
	b.mu.Unlock()
	s.battles.Delete(b.id)
}

func randomRNG() (engine.RNG, error) {
	seed, err := engine.NewSeed()
	if err != nil {
		return nil, err
	}
	return engine.NewRNG(seed), nil
}

// drawQuestions returns n questions from pool in a seeded random order.
func drawQuestions(rng engine.RNG, pool []domain.Question, n int) []domain.Question {
	shuffled := append([]domain.Question(nil), pool...)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled[:n]
}
