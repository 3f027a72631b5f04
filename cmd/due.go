/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/eslsoft/studycore/internal/app"
	"github.com/eslsoft/studycore/internal/srs"
)

// dueCmd previews today's review queue.
var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "Show today's review queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetInt64("owner")
		deck, _ := cmd.Flags().GetString("deck")
		maxNew, _ := cmd.Flags().GetInt32("max-new")
		maxDue, _ := cmd.Flags().GetInt32("max-due")

		container, cleanup, err := app.Initialize()
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		defer cleanup()

		queue, dueCount, err := container.Scheduler.ReviewQueue(cmd.Context(), owner, deck, maxNew, maxDue)
		if err != nil {
			return err
		}

		cmd.Printf("%d cards queued (%d due, %d new)\n", len(queue), dueCount, len(queue)-dueCount)
		for _, card := range queue {
			state := "due"
			if card.IsNew() {
				state = "new"
			}
			cmd.Printf("%s  [%s] %-10s %s\n", card.ID, state, card.Deck, card.Front)
		}
		return nil
	},
}

// statsCmd prints per-deck scheduling counters.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show deck statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetInt64("owner")
		deck, _ := cmd.Flags().GetString("deck")

		container, cleanup, err := app.Initialize()
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		defer cleanup()

		stats, err := container.Scheduler.Statistics(cmd.Context(), owner, deck)
		if err != nil {
			return err
		}
		cmd.Printf("total: %d\ndue: %d\nnew: %d\nlearning: %d\nmastered: %d\nmastery rate: %.1f%%\n",
			stats.Total, stats.Due, stats.New, stats.Learning, stats.Mastered, stats.MasteryRate)
		return nil
	},
}

// reviewCmd grades one card from the command line.
var reviewCmd = &cobra.Command{
	Use:   "review <card-id> <quality>",
	Short: "Grade a card recall (quality 0-5)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetInt64("owner")
		seconds, _ := cmd.Flags().GetInt("seconds")

		cardID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid card id: %w", err)
		}
		q, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid quality: %w", err)
		}

		container, cleanup, err := app.Initialize()
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		defer cleanup()

		record, err := container.Scheduler.Review(cmd.Context(), owner, cardID, srs.Quality(q), seconds)
		if err != nil {
			return err
		}
		cmd.Printf("%s: interval %d -> %d days, ease %.2f -> %.2f\n",
			srs.Quality(q).Label(), record.PreviousInterval, record.NewInterval,
			record.PreviousEase, record.NewEase)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dueCmd, statsCmd, reviewCmd)

	for _, c := range []*cobra.Command{dueCmd, statsCmd, reviewCmd} {
		c.Flags().Int64("owner", 1, "owner id")
	}
	dueCmd.Flags().String("deck", "", "restrict to one deck")
	statsCmd.Flags().String("deck", "", "restrict to one deck")
	dueCmd.Flags().Int32("max-new", 10, "new-card budget")
	dueCmd.Flags().Int32("max-due", 100, "due-card budget")
	reviewCmd.Flags().Int("seconds", 0, "seconds spent on the card")
}
