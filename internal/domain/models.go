package domain

import "time"

// Question is a multiple-choice legal question. Immutable once loaded.
type Question struct {
	ID            string   `json:"id" yaml:"id"`
	Text          string   `json:"text" yaml:"text"`
	Options       []string `json:"options" yaml:"options"`
	CorrectAnswer string   `json:"correctAnswer" yaml:"correct_answer"`
	Category      string   `json:"category" yaml:"category"`
	Difficulty    string   `json:"difficulty" yaml:"difficulty"`
}

// IsCorrect reports whether answer matches the correct option.
func (q Question) IsCorrect(answer string) bool {
	return answer != "" && answer == q.CorrectAnswer
}

// HasOption reports whether answer is one of the question's options.
func (q Question) HasOption(answer string) bool {
	for _, opt := range q.Options {
		if opt == answer {
			return true
		}
	}
	return false
}

// PublicQuestion is the client view of a question; the correct answer is withheld.
type PublicQuestion struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Options    []string `json:"options"`
	Category   string   `json:"category"`
	Difficulty string   `json:"difficulty"`
}

// Public strips the answer key.
func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:         q.ID,
		Text:       q.Text,
		Options:    append([]string(nil), q.Options...),
		Category:   q.Category,
		Difficulty: q.Difficulty,
	}
}

// Deck is a named set of questions a battle draws from.
type Deck struct {
	ID        string     `json:"id" yaml:"id"`
	Title     string     `json:"title" yaml:"title"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// Action is a battle move. The three actions form a single advantage cycle.
type Action string

const (
	ActionNone    Action = ""
	ActionAttack  Action = "attack"
	ActionDefend  Action = "defend"
	ActionSpecial Action = "special"
)

// Side identifies a combatant.
type Side string

const (
	SideNone     Side = ""
	SidePlayer   Side = "player"
	SideOpponent Side = "opponent"
)

// PlayerState is one combatant's state. Health and shield persist across rounds;
// the remaining fields are reset between rounds.
type PlayerState struct {
	Health         int    `json:"health"`
	Shield         int    `json:"shield"`
	SelectedAction Action `json:"selectedAction"`
	Answer         string `json:"answer"`
	IsReady        bool   `json:"isReady"`
	IsCorrect      bool   `json:"isCorrect"`
	TimeLeft       int    `json:"timeLeft"`
}

// BattleResult is produced once per round.
type BattleResult struct {
	Attacker    Side `json:"attacker"`
	Damage      int  `json:"damage"`
	ShieldBlock int  `json:"shieldBlock"`
	ShieldBreak int  `json:"shieldBreak"`
}

// BattleRewards are finalized when a battle completes.
type BattleRewards struct {
	XPEarned    int `json:"xpEarned"`
	CoinsEarned int `json:"coinsEarned"`
	StreakBonus int `json:"streakBonus"`
	TimeBonus   int `json:"timeBonus"`
}

// Phase is the battle lifecycle position.
type Phase string

const (
	PhasePreparing    Phase = "preparing"
	PhaseInitializing Phase = "initializing"
	PhaseReady        Phase = "ready"
	PhaseAnswerReveal Phase = "answer-reveal"
	PhaseAnimation    Phase = "animation"
	PhaseCompleted    Phase = "completed"
)

// Outcome is the battle result from the user's point of view.
type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomeVictory Outcome = "victory"
	OutcomeDefeat  Outcome = "defeat"
	OutcomeDraw    Outcome = "draw"
)

// Submission is what a user sends for one round.
type Submission struct {
	Action   Action `json:"action"`
	Answer   string `json:"answer"`
	TimeLeft int    `json:"timeLeft"`
}

// RoundReport summarizes a resolved round for the submitting user.
type RoundReport struct {
	BattleID      string       `json:"battleId"`
	Round         int          `json:"round"`
	QuestionID    string       `json:"questionId"`
	CorrectAnswer string       `json:"correctAnswer"`
	Result        BattleResult `json:"result"`
	Player        PlayerState  `json:"player"`
	Opponent      PlayerState  `json:"opponent"`
	TimedOut      bool         `json:"timedOut,omitempty"`
}

// BattleSnapshot is the observable state of a battle session.
type BattleSnapshot struct {
	BattleID      string          `json:"battleId"`
	UserID        string          `json:"userId"`
	DeckID        string          `json:"deckId"`
	Difficulty    string          `json:"difficulty"`
	Phase         Phase           `json:"phase"`
	Round         int             `json:"round"`
	TotalRounds   int             `json:"totalRounds"`
	TimeLimit     int             `json:"timeLimit"`
	Question      *PublicQuestion `json:"question,omitempty"`
	CorrectAnswer string          `json:"correctAnswer,omitempty"`
	Player        PlayerState     `json:"player"`
	Opponent      PlayerState     `json:"opponent"`
	LastResult    *BattleResult   `json:"lastResult,omitempty"`
	Score         int             `json:"score"`
	Outcome       Outcome         `json:"outcome,omitempty"`
	Rewards       *BattleRewards  `json:"rewards,omitempty"`
	Unlocked      []string        `json:"unlocked,omitempty"`
	PersistErr    string          `json:"persistError,omitempty"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// BattleRecord is the history row written when a battle completes.
type BattleRecord struct {
	BattleID       string        `json:"battleId"`
	UserID         string        `json:"userId"`
	DeckID         string        `json:"deckId"`
	Outcome        Outcome       `json:"outcome"`
	Score          int           `json:"score"`
	TotalQuestions int           `json:"totalQuestions"`
	PlayerHealth   int           `json:"playerHealth"`
	OpponentHealth int           `json:"opponentHealth"`
	Rewards        BattleRewards `json:"rewards"`
	Unlocked       []string      `json:"unlocked"`
	FinishedAt     time.Time     `json:"finishedAt"`
}

// LeaderboardEntry is one ranked user.
type LeaderboardEntry struct {
	UserID string `json:"userId"`
	XP     int    `json:"xp"`
	Rank   int    `json:"rank"`
}
