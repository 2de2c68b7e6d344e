package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"studystreak/internal/bootstrap"
	streakdto "studystreak/internal/modules/streak/dto"
	"studystreak/internal/platform/config"
	"studystreak/internal/platform/markdown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalFlags struct {
	dataDir    string
	configPath string
	userID     string
	asJSON     bool
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "studystreak",
		Short:         "Focus timer with study streaks, coins and companions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", ".", "directory holding the studystreak database")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "optional YAML config file")
	root.PersistentFlags().StringVarP(&flags.userID, "user", "u", os.Getenv("STUDYSTREAK_USER"), "user id")
	root.PersistentFlags().BoolVar(&flags.asJSON, "json", false, "print JSON instead of text")

	root.AddCommand(newUserCmd(&flags))
	root.AddCommand(newSessionCmd(&flags))
	root.AddCommand(newFocusCmd(&flags))
	root.AddCommand(newStreakCmd(&flags))
	root.AddCommand(newSyncCmd(&flags))
	root.AddCommand(newHistoryCmd(&flags))
	root.AddCommand(newFollowCmds(&flags)...)
	root.AddCommand(newFeedCmd(&flags))
	root.AddCommand(newCharactersCmd(&flags))
	root.AddCommand(newLevelCmd(&flags))
	root.AddCommand(newServeCmd(&flags))
	return root
}

func loadApp(flags *globalFlags) (*bootstrap.App, error) {
	cfg, err := config.Load(flags.configPath, flags.dataDir)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg)
}

// withApp builds the application, runs fn and releases the store.
func withApp(flags *globalFlags, fn func(app *bootstrap.App) error) error {
	app, err := loadApp(flags)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()
	return fn(app)
}

func requireUser(flags *globalFlags) (string, error) {
	if strings.TrimSpace(flags.userID) == "" {
		return "", fmt.Errorf("--user is required (or set STUDYSTREAK_USER)")
	}
	return flags.userID, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printUser(cmd *cobra.Command, u streakdto.UserOutput) {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "user: %s\nstreak: %d (longest %d, last %s)\ncoins: %d (banked %ds)\n", u.UserID, u.StreakCurrent, u.StreakLongest, orDash(u.LastStudyDate), u.Coins, u.BankedSeconds)
	_, _ = fmt.Fprintf(out, "study: today %.2f min, total %.2f min\n", u.TodayStudyMinutes, u.TotalStudyMinutes)
	if u.FrozenStreak > 0 {
		_, _ = fmt.Fprintf(out, "frozen: %d day streak broken on %s\n", u.FrozenStreak, u.StreakBreakDate)
	}
	_, _ = fmt.Fprintf(out, "companion: %s level %d (%.0f%% to %d)\n", u.ActiveCharacter.Name, u.Level.CurrentLevel, u.Level.ProgressPercent, u.Level.NextLevel)
	_, _ = fmt.Fprintf(out, "unlocked: %d [%s]\n", u.TotalCharacters, strings.Join(u.UnlockedCharacterIDs, ", "))
	_, _ = fmt.Fprintf(out, "following: %d followers: %d\n", len(u.Following), len(u.Followers))
}

func printCompletion(cmd *cobra.Command, r streakdto.CompleteSessionOutput) {
	out := cmd.OutOrStdout()
	if r.NoOp {
		_, _ = fmt.Fprintf(out, "session %s logged, nothing earned\n", r.SessionID)
		return
	}
	_, _ = fmt.Fprintf(out, "session %s: +%d coins, +%d xp to %s, streak %d\n", r.SessionID, r.EarnedCoins, r.XPEarned, r.XPCharacterID, r.User.StreakCurrent)
	if r.StreakReset {
		_, _ = fmt.Fprintln(out, "streak restarted after a gap")
	}
	if r.Unlocked != nil {
		_, _ = fmt.Fprintf(out, "unlocked %s (%s)\n", r.Unlocked.Name, r.Unlocked.ID)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func newUserCmd(flags *globalFlags) *cobra.Command {
	user := &cobra.Command{Use: "user", Short: "User records"}

	user.AddCommand(&cobra.Command{
		Use:   "register [user-id]",
		Short: "Create a user with a fresh streak",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID := flags.userID
			if len(args) == 1 {
				userID = args[0]
			}
			return withApp(flags, func(app *bootstrap.App) error {
				out, err := app.StreakCLI.Register(context.Background(), userID)
				if err != nil {
					return err
				}
				if flags.asJSON {
					return printJSON(cmd, out)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "registered %s\n", out.UserID)
				return nil
			})
		},
	})

	user.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show streak, coins and companion",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := requireUser(flags)
			if err != nil {
				return err
			}
			return withApp(flags, func(app *bootstrap.App) error {
				out, err := app.StreakCLI.Show(context.Background(), userID)
				if err != nil {
					return err
				}
				if flags.asJSON {
					return printJSON(cmd, out)
				}
				printUser(cmd, out)
				return nil
			})
		},
	})
	return user
}

func newSessionCmd(flags *globalFlags) *cobra.Command {
	session := &cobra.Command{Use: "session", Short: "Focus session lifecycle"}

	var subjectID, chapterID string
	var duration time.Duration
	complete := &cobra.Command{
		Use:   "complete --duration <d>",
		Short: "Record a finished session of the given length",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := requireUser(flags)
			if err != nil {
				return err
			}
			return withApp(flags, func(app *bootstrap.App) error {
				out, err := app.StreakCLI.CompleteSession(context.Background(), userID, int(duration.Seconds()), subjectID, chapterID)
				if err != nil {
					return err
				}
				if flags.asJSON {
					return printJSON(cmd, out)
				}
				printCompletion(cmd, out)
				return nil
			})
		},
	}
	complete.Flags().DurationVar(&duration, "duration", 0, "session length, e.g. 25m")
	complete.Flags().StringVar(&subjectID, "subject", "", "subject id")
	complete.Flags().StringVar(&chapterID, "chapter", "", "chapter id")

	var planned time.Duration
	var startSubject, startChapter string
	start := &cobra.Command{
		Use:   "start",
		Short: "Start the focus timer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := requireUser(flags)
			if err != nil {
				return err
			}
			return withApp(flags, func(app *bootstrap.App) error {
				out, err := app.SessionCLI.Start(context.Background(), userID, startSubject, startChapter, int(planned.Seconds()))
				if err != nil {
					return err
				}
				if flags.asJSON {
					return printJSON(cmd, out)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session started: %s at=%s planned=%s\n", out.SessionID, out.StartedAt.Format(time.RFC3339), planned)
				return nil
			})
		},
	}
	start.Flags().DurationVar(&planned, "planned", 25*time.Minute, "planned length, 0 for open ended")
	start.Flags().StringVar(&startSubject, "subject", "", "subject id")
	start.Flags().StringVar(&startChapter, "chapter", "", "chapter id")

	var sessionID string
	stop := &cobra.Command{
		Use:   "stop",
		Short: "Stop the timer and record the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := requireUser(flags)
			if err != nil {
				return err
			}
			return withApp(flags, func(app *bootstrap.App) error {
				out, err := app.SessionCLI.End(context.Background(), userID, sessionID)
				if err != nil {
					return err
				}
				if flags.asJSON {
					return printJSON(cmd, out)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session ended after %s\n", time.Duration(out.DurationSeconds)*time.Second)
				printCompletion(cmd, out.Result)
				return nil
			})
		},
	}
	stop.Flags().StringVar(&sessionID, "session-id", "", "optional session id (defaults to the running session)")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the running timer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := requireUser(flags)
			if err != nil {
				return err
			}
			return withApp(flags, func(app *bootstrap.App) error {
				out, err := app.SessionCLI.GetActive(context.Background(), userID)
				if err != nil {
					return err
				}
				if flags.asJSON {
					return printJSON(cmd, out)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session %s running %s", out.SessionID, time.Duration(out.ElapsedSeconds)*time.Second)
				if out.PlannedSeconds > 0 {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), ", %s left", out.Remaining.Round(time.Second))
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout())
				return nil
			})
		},
	}

	cancel := &cobra.Command{
		Use:   "cancel",
		Short: "Discard the running timer without recording it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := requireUser(flags)
			if err != nil {
				return err
			}
			return withApp(flags, func(app *bootstrap.App) error {
				if err := app.SessionCLI.Cancel(context.Background(), userID); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "session cancelled")
				return nil
			})
		},
	}

	session.AddCommand(complete, start, stop, status, cancel)
	return session
}

func newFocusCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "focus",
		Short: "Run the focus timer terminal UI",
		RunE: func(_ *cobra.Command, _ []string) error {
			userID, err := requireUser(flags)
			if err != nil {
				return err
			}
			return withApp(flags, func(app *bootstrap.App) error {
				return bootstrap.RunTUI(userID, app)
			})
		},
	}
}

func newStreakCmd(flags *globalFlags) *cobra.Command {
	streak := &cobra.Command{Use: "streak", Short: "Streak maintenance"}

	streak.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Break a lapsed streak, freezing it for repair",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := requireUser(flags)
			if err != nil {
				return err
			}
			return withApp(flags, func(app *bootstrap.App) error {
				out, err := app.StreakCLI.ValidateStreak(context.Background(), userID)
				if err != nil {
					return err
				}
				if flags.asJSON {
					return printJSON(cmd, out)
				}
				switch {
				case out.Frozen:
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "streak of %d broken and frozen, repair costs coins\n", out.PreviousStreak)
				case out.Broken:
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "streak broken")
				default:
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "streak intact at %d\n", out.User.StreakCurrent)
				}
				return nil
			})
		},
	})

	streak.AddCommand(&cobra.Command{
		Use:   "repair",
		Short: "Spend coins to restore the frozen streak",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := requireUser(flags)
			if err != nil {
				return err
			}
			return withApp(flags, func(app *bootstrap.App) error {
				out, err := app.StreakCLI.RepairStreak(context.Background(), userID)
				if err != nil {
					return err
				}
				if flags.asJSON {
					return printJSON(cmd, out)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "streak restored to %d, %d coins left\n", out.StreakCurrent, out.Coins)
				return nil
			})
		},
	})
	return streak
}

func newSyncCmd(flags *globalFlags) *cobra.Command {
	sync := &cobra.Command{Use: "sync", Short: "Reconcile the aggregate with the session ledger"}

	sync.AddCommand(&cobra.Command{
		Use:   "today",
		Short: "Recompute today's minutes from the ledger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := requireUser(flags)
			if err != nil {
				return err
			}
			return withApp(flags, func(app *bootstrap.App) error {
				out, err := app.StreakCLI.SyncToday(context.Background(), userID)
				if err != nil {
					return err
				}
				if flags.asJSON {
					return printJSON(cmd, out)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s today=%.2f total=%.2f written=%t\n", out.Date, out.Today, out.Total, out.Written)
				return nil
			})
		},
	})

	sync.AddCommand(&cobra.Command{
		Use:   "xp",
		Short: "Top up companion XP to match total study time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := requireUser(flags)
			if err != nil {
				return err
			}
			return withApp(flags, func(app *bootstrap.App) error {
				out, err := app.StreakCLI.SyncXP(context.Background(), userID)
				if err != nil {
					return err
				}
				if flags.asJSON {
					return printJSON(cmd, out)
				}
				if out.Amount == 0 {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "xp in sync (%d of %d)\n", out.Current, out.Target)
					return nil
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "credited %d xp to %s\n", out.Amount, out.CharacterID)
				return nil
			})
		},
	})
	return sync
}

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	var (
		days int
		note string
	)
	history := &cobra.Command{
		Use:   "history",
		Short: "Daily study minutes for the last days",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := requireUser(flags)
			if err != nil {
				return err
			}
			return withApp(flags, func(app *bootstrap.App) error {
				out, err := app.StreakCLI.History(context.Background(), userID, days)
				if err != nil {
					return err
				}
				if note != "" {
					if err := writeJournal(note, out); err != nil {
						return err
					}
				}
				if flags.asJSON {
					return printJSON(cmd, out)
				}
				for _, d := range out.Days {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%6.1f min\t%d sessions\n", d.Date, d.Minutes, d.Sessions)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "total %.1f min over %d active days\n", out.TotalMinutes, out.ActiveDays)
				return nil
			})
		},
	}
	history.Flags().IntVar(&days, "days", 7, "number of days including today")
	history.Flags().StringVar(&note, "note", "", "also write the history table into this markdown journal note")
	return history
}

// writeJournal refreshes the generated history block of a markdown note,
// leaving the rest of the note alone.
func writeJournal(path string, out streakdto.HistoryOutput) error {
	var table strings.Builder
	table.WriteString("| date | minutes | sessions |\n|---|---:|---:|\n")
	for _, d := range out.Days {
		_, _ = fmt.Fprintf(&table, "| %s | %.1f | %d |\n", d.Date, d.Minutes, d.Sessions)
	}
	return markdown.UpdateFile(path, func(n *markdown.Note) {
		n.Merge(map[string]any{
			"user":          out.UserID,
			"active_days":   out.ActiveDays,
			"total_minutes": out.TotalMinutes,
		})
		n.ReplaceBlock("history", table.String())
	})
}

func newFollowCmds(flags *globalFlags) []*cobra.Command {
	follow := &cobra.Command{
		Use:   "follow <user-id>",
		Short: "Follow another user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := requireUser(flags)
			if err != nil {
				return err
			}
			return withApp(flags, func(app *bootstrap.App) error {
				out, err := app.StreakCLI.Follow(context.Background(), userID, args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "following %s changed=%t\n", args[0], out.Changed)
				return nil
			})
		},
	}
	unfollow := &cobra.Command{
		Use:   "unfollow <user-id>",
		Short: "Stop following a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := requireUser(flags)
			if err != nil {
				return err
			}
			return withApp(flags, func(app *bootstrap.App) error {
				out, err := app.StreakCLI.Unfollow(context.Background(), userID, args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "unfollowed %s changed=%t\n", args[0], out.Changed)
				return nil
			})
		},
	}
	return []*cobra.Command{follow, unfollow}
}

func newFeedCmd(flags *globalFlags) *cobra.Command {
	var limit int
	feed := &cobra.Command{
		Use:   "feed",
		Short: "Recent activity of you and the people you follow",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := requireUser(flags)
			if err != nil {
				return err
			}
			return withApp(flags, func(app *bootstrap.App) error {
				items, err := app.StreakCLI.Feed(context.Background(), userID, limit)
				if err != nil {
					return err
				}
				if flags.asJSON {
					return printJSON(cmd, items)
				}
				if len(items) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no activity")
					return nil
				}
				for _, a := range items {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", a.CreatedAt.Local().Format(time.DateTime), a.UserID, a.Kind, describe(a))
				}
				return nil
			})
		},
	}
	feed.Flags().IntVar(&limit, "limit", 20, "maximum number of events")
	return feed
}

func describe(a streakdto.ActivityOutput) string {
	switch {
	case a.TargetUserID != "":
		return a.TargetUserID
	case a.CharacterID != "":
		return fmt.Sprintf("%s day %d", a.CharacterID, a.Streak)
	case a.Minutes > 0:
		return fmt.Sprintf("%.1f min streak %d", a.Minutes, a.Streak)
	default:
		return fmt.Sprintf("streak %d", a.Streak)
	}
}

func newCharactersCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "characters",
		Short: "List companions and their unlock days",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(app *bootstrap.App) error {
				chars := app.ProgressionCLI.Characters()
				if flags.asJSON {
					return printJSON(cmd, chars)
				}
				for _, c := range chars {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "day %3d\t%s\t%s\t%s\n", c.UnlockDay, c.ID, c.Name, c.WorldID)
				}
				return nil
			})
		},
	}
}

func newLevelCmd(flags *globalFlags) *cobra.Command {
	var xp float64
	level := &cobra.Command{
		Use:   "level --xp <n>",
		Short: "Show the level reached with an amount of XP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(app *bootstrap.App) error {
				out := app.ProgressionCLI.Level(xp)
				if flags.asJSON {
					return printJSON(cmd, out)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "level %d, %.0f/%.0f xp to level %d (%.1f%%)\n", out.CurrentLevel, out.XPGainedInLevel, out.XPRequiredForLevel, out.NextLevel, out.ProgressPercent)
				return nil
			})
		},
	}
	level.Flags().Float64Var(&xp, "xp", 0, "experience points")
	return level
}

func newServeCmd(flags *globalFlags) *cobra.Command {
	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API and prometheus metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(app *bootstrap.App) error {
				if addr != "" {
					app.Config.HTTP.Addr = addr
				}
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return app.Serve(ctx)
			})
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return serve
}
