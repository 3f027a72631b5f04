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
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/eslsoft/studycore/internal/app"
	"github.com/eslsoft/studycore/internal/entity"
)

// importCmd loads flashcards from an xlsx workbook. Expected columns:
// A front, B back, C deck (optional), D tags separated by ';'
// (optional), E difficulty 1-5 (optional).
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import flashcards from an xlsx workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		sheet, _ := cmd.Flags().GetString("sheet")
		deck, _ := cmd.Flags().GetString("deck")
		owner, _ := cmd.Flags().GetInt64("owner")
		skipHeader, _ := cmd.Flags().GetBool("skip-header")
		if input == "" {
			return errors.New("--input is required")
		}

		container, cleanup, err := app.Initialize()
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		defer cleanup()

		f, err := excelize.OpenFile(input)
		if err != nil {
			return fmt.Errorf("open workbook: %w", err)
		}
		defer f.Close()

		rows, err := f.GetRows(sheet)
		if err != nil {
			return fmt.Errorf("read sheet %q: %w", sheet, err)
		}

		var created, skipped int
		for i, row := range rows {
			if skipHeader && i == 0 {
				continue
			}
			card := cardFromRow(row, owner, deck)
			if card == nil {
				skipped++
				continue
			}
			if _, err := container.Scheduler.CreateCard(cmd.Context(), card); err != nil {
				if errors.Is(err, entity.ErrInvalidCardText) || errors.Is(err, entity.ErrDuplicateCard) {
					skipped++
					continue
				}
				return fmt.Errorf("row %d: %w", i+1, err)
			}
			created++
		}

		cmd.Printf("import done: %d created, %d skipped\n", created, skipped)
		return nil
	},
}

func cardFromRow(row []string, owner int64, defaultDeck string) *entity.Card {
	if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
		return nil
	}
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	card := &entity.Card{
		OwnerID: owner,
		Front:   cell(0),
		Back:    cell(1),
		Deck:    cell(2),
	}
	if card.Deck == "" {
		card.Deck = defaultDeck
	}
	if tags := cell(3); tags != "" {
		for _, tag := range strings.Split(tags, ";") {
			if tag = strings.TrimSpace(tag); tag != "" {
				card.Tags = append(card.Tags, tag)
			}
		}
	}
	if d, err := strconv.Atoi(cell(4)); err == nil {
		card.Difficulty = d
	}
	return card
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringP("input", "i", "", "xlsx file to import")
	importCmd.Flags().String("sheet", "Sheet1", "worksheet name")
	importCmd.Flags().String("deck", "", "deck for rows without an explicit deck")
	importCmd.Flags().Int64("owner", 1, "owner id for imported cards")
	importCmd.Flags().Bool("skip-header", true, "skip the first row")
}
