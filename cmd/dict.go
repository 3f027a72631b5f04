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

	"github.com/spf13/cobra"

	"github.com/eslsoft/studycore/internal/dict"
	"github.com/eslsoft/studycore/internal/entity"
	"github.com/eslsoft/studycore/internal/infrastructure/config"
	"github.com/eslsoft/studycore/internal/usecase"
)

var dictCmd = &cobra.Command{
	Use:   "dict",
	Short: "Query the offline dictionary",
}

var dictLookupCmd = &cobra.Command{
	Use:   "lookup <word>",
	Short: "Look up a word, falling back to the closest prefix match",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		du, err := openDict(cmd)
		if err != nil {
			return err
		}
		defer du.Close()

		res, err := du.Lookup(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if res.Fuzzy {
			cmd.Printf("no exact match, closest: %s\n", res.Entry.Word)
		}
		printEntry(cmd, res.Entry)
		if len(res.Suggestions) > 0 {
			cmd.Printf("see also: %s\n", strings.Join(res.Suggestions, ", "))
		}
		return nil
	},
}

var dictCompleteCmd = &cobra.Command{
	Use:   "complete <prefix>",
	Short: "List completions for a prefix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		du, err := openDict(cmd)
		if err != nil {
			return err
		}
		defer du.Close()

		completions, err := du.Autocomplete(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}
		for _, c := range completions {
			cmd.Printf("%-24s %s\n", c.Word, c.Preview)
		}
		return nil
	},
}

var dictStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show loaded dictionary statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		du, err := openDict(cmd)
		if err != nil {
			return err
		}
		defer du.Close()

		stats, err := du.Stats(cmd.Context())
		if err != nil {
			return err
		}
		cmd.Printf("words: %d\nfingerprint: %s\n", stats.WordCount, stats.Fingerprint)
		return nil
	},
}

func openDict(cmd *cobra.Command) (usecase.DictUsecase, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := config.NewLogger(cfg)

	manager := dict.NewManager(cfg.Dict.SourcePath, cfg.Dict.CacheDir, logger,
		dict.WithMaxSkipRate(cfg.Dict.MaxSkipRate))
	du := usecase.NewDictUsecase(manager, logger)
	if err := du.Reload(cmd.Context(), false); err != nil {
		return nil, err
	}
	return du, nil
}

func printEntry(cmd *cobra.Command, e entity.WordEntry) {
	cmd.Println(e.Word)
	if e.Phonetic != "" {
		cmd.Printf("  [%s]\n", e.Phonetic)
	}
	if e.Definition != "" {
		cmd.Printf("  %s\n", e.Definition)
	}
	if e.Translation != "" {
		cmd.Printf("  %s\n", e.Translation)
	}
	for _, ex := range e.Examples {
		cmd.Printf("  e.g. %s\n", ex)
	}
}

func init() {
	rootCmd.AddCommand(dictCmd)
	dictCmd.AddCommand(dictLookupCmd, dictCompleteCmd, dictStatsCmd)

	dictCompleteCmd.Flags().Int("limit", 20, "maximum number of completions")
}
