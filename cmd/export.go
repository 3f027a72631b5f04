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
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/eslsoft/studycore/internal/adapter/repository"
	"github.com/eslsoft/studycore/internal/app"
	repo "github.com/eslsoft/studycore/internal/repository"
	"github.com/eslsoft/studycore/pkg/filterexpr"
)

// exportCmd writes flashcards to an xlsx workbook. --filter and
// --order-by accept the same expressions as list APIs, e.g.
// --filter 'deck == "core" && review_count >= 3' --order-by 'created_at desc'.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export flashcards to an xlsx workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		owner, _ := cmd.Flags().GetInt64("owner")
		filter, _ := cmd.Flags().GetString("filter")
		orderBy, _ := cmd.Flags().GetString("order-by")
		limit, _ := cmd.Flags().GetInt32("limit")
		if output == "" {
			output = fmt.Sprintf("studycore-cards-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
		}

		query := &repo.ListCardQuery{Limit: limit}
		msg := &repo.FilterOrder{Filter: filter, OrderBy: orderBy}
		if err := filterexpr.Bind(msg, query, repository.CardSchema); err != nil {
			return err
		}
		query.OwnerID = owner

		container, cleanup, err := app.Initialize()
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		defer cleanup()

		cards, err := container.Scheduler.ListCards(cmd.Context(), query)
		if err != nil {
			return err
		}

		f := excelize.NewFile()
		defer f.Close()
		sheet := f.GetSheetName(0)

		header := []any{"Front", "Back", "Deck", "Tags", "Difficulty", "Interval", "Ease", "Reviews", "Next Review"}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		for i, card := range cards {
			row := []any{
				card.Front,
				card.Back,
				card.Deck,
				strings.Join(card.Tags, ";"),
				card.Difficulty,
				card.IntervalDays,
				card.EaseFactor,
				card.ReviewCount,
				card.NextReviewDate.Format("2006-01-02"),
			}
			cell := fmt.Sprintf("A%d", i+2)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return fmt.Errorf("write row %d: %w", i+2, err)
			}
		}

		if err := f.SaveAs(output); err != nil {
			return fmt.Errorf("save workbook: %w", err)
		}
		cmd.Printf("export done: %d cards to %s\n", len(cards), output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "", "xlsx output path (default: timestamped file)")
	exportCmd.Flags().Int64("owner", 1, "owner whose cards are exported")
	exportCmd.Flags().String("filter", "", "filter expression")
	exportCmd.Flags().String("order-by", "", "ordering, e.g. 'created_at desc'")
	exportCmd.Flags().Int32("limit", 0, "maximum number of cards (0 = all)")
}
