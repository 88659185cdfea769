package domain

import "errors"

var (
	// ErrInvalidAction is returned when a selected action is not part of the action enum.
	ErrInvalidAction = errors.New("invalid battle action")
	// ErrInvalidQuestionState is returned when a round is resolved before both sides submitted.
	ErrInvalidQuestionState = errors.New("round resolved before both sides submitted")
	// ErrBattleNotFound is returned when a battle session does not exist (or was exited).
	ErrBattleNotFound = errors.New("battle not found")
	// ErrBattleCompleted is returned when acting on a battle that already finished.
	ErrBattleCompleted = errors.New("battle already completed")
	// ErrRoundInProgress is returned when a submission arrives while the previous round is still being revealed.
	ErrRoundInProgress = errors.New("previous round still in progress")
	// ErrNotParticipant is returned when a user acts on someone else's battle.
	ErrNotParticipant = errors.New("user is not part of this battle")
	// ErrDeckNotFound indicates the question deck could not be loaded.
	ErrDeckNotFound = errors.New("question deck not found")
	// ErrNotEnoughQuestions indicates a deck is smaller than the configured battle length.
	ErrNotEnoughQuestions = errors.New("deck has fewer questions than a battle needs")
	// ErrProfileNotFound is returned when a user has never finished a battle.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrUnauthorized is returned for missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")
)
