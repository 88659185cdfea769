package cli

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"legal-battle-service/internal/app"
	"legal-battle-service/internal/config"
	"legal-battle-service/internal/domain"
	"legal-battle-service/internal/engine"
)

type simulateOptions struct {
	deckID     string
	difficulty string
	userID     string
	seed       int64
}

// NewSimulateCmd plays one battle offline with a random player and prints each round.
func NewSimulateCmd(configPath *string) *cobra.Command {
	var opts simulateOptions
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play a battle offline with a random player",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return simulate(ctx, cmd.OutOrStdout(), cfg, opts)
		},
	}
	cmd.Flags().StringVar(&opts.deckID, "deck", "constitutional-law", "deck to draw questions from")
	cmd.Flags().StringVar(&opts.difficulty, "difficulty", "", "difficulty name (default from config)")
	cmd.Flags().StringVar(&opts.userID, "user", "simulator", "user id to play as")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "seed for a reproducible battle (0 picks one)")
	return cmd
}

func simulate(ctx context.Context, out io.Writer, cfg config.Config, opts simulateOptions) error {
	// offline: nothing leaves the process and rounds advance immediately
	cfg.Redis.Addr = ""
	cfg.Postgres.URL = ""
	cfg.Storage.Driver = config.DriverMemory
	cfg.Battle.RevealDelay = "0s"
	cfg.Battle.AnimationDelay = "0s"

	seed := opts.seed
	if seed == 0 {
		var err error
		if seed, err = engine.NewSeed(); err != nil {
			return err
		}
	}
	svcs, err := buildServices(ctx, cfg, app.WithSeed(seed))
	if err != nil {
		return err
	}
	defer svcs.Close()
	svc := svcs.battles

	snap, err := svc.StartBattle(ctx, opts.userID, app.StartOptions{DeckID: opts.deckID, Difficulty: opts.difficulty})
	if err != nil {
		return err
	}
	updates, cancel, err := svc.Subscribe(ctx, snap.BattleID, opts.userID)
	if err != nil {
		return err
	}
	defer cancel()

	fmt.Fprintf(out, "battle %s: deck=%s difficulty=%s seed=%d\n", snap.BattleID, snap.DeckID, snap.Difficulty, seed)
	player := rand.New(rand.NewSource(seed + 1))
	actions := engine.Actions()
	played := 0
	timeout := time.After(time.Minute)

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return fmt.Errorf("battle %s closed before completing", snap.BattleID)
			}
			switch {
			case update.Phase == domain.PhaseReady && update.Round > played && update.Question != nil:
				played = update.Round
				sub := domain.Submission{
					Action:   actions[player.Intn(len(actions))],
					Answer:   update.Question.Options[player.Intn(len(update.Question.Options))],
					TimeLeft: player.Intn(update.TimeLimit + 1),
				}
				report, err := svc.SubmitAnswer(ctx, snap.BattleID, opts.userID, sub)
				if err != nil {
					return err
				}
				printRound(out, sub, report)
			case update.Phase == domain.PhaseCompleted:
				printSummary(out, update)
				return nil
			}
		case <-timeout:
			return fmt.Errorf("battle %s did not complete", snap.BattleID)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func printRound(out io.Writer, sub domain.Submission, r domain.RoundReport) {
	verdict := "wrong"
	if r.Player.IsCorrect {
		verdict = "correct"
	}
	fmt.Fprintf(out, "round %d: %s %q (%s, %ds left) vs bot %s | %s hits for %d (block %d) | hp %d/%d shield %d/%d\n",
		r.Round, sub.Action, sub.Answer, verdict, r.Player.TimeLeft, r.Opponent.SelectedAction,
		sideName(r.Result.Attacker), r.Result.Damage, r.Result.ShieldBlock,
		r.Player.Health, r.Opponent.Health, r.Player.Shield, r.Opponent.Shield)
}

func printSummary(out io.Writer, s domain.BattleSnapshot) {
	fmt.Fprintf(out, "%s after %d rounds, score %d/%d\n", s.Outcome, s.Round, s.Score, s.TotalRounds)
	if s.Rewards != nil {
		fmt.Fprintf(out, "rewards: %d xp (streak %d, time %d), %d coins\n",
			s.Rewards.XPEarned, s.Rewards.StreakBonus, s.Rewards.TimeBonus, s.Rewards.CoinsEarned)
	}
	for _, id := range s.Unlocked {
		fmt.Fprintf(out, "unlocked: %s\n", id)
	}
}

func sideName(s domain.Side) string {
	if s == domain.SideNone {
		return "nobody"
	}
	return string(s)
}
