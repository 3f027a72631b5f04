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
	"time"

	"github.com/go-co-op/gocron"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/studycore/internal/dict"
	"github.com/eslsoft/studycore/internal/infrastructure/config"
)

const (
	dictSourceKey   = "dict.build.source_path"
	dictCacheKey    = "dict.build.cache_dir"
	dictIntervalKey = "dict.build.interval"
)

// dictBuildCmd builds or validates the dictionary cache artifact.
// Exit codes: 0 success, 2 source database missing, 3 cache invalid
// (with --validate-only), 1 any other failure.
var dictBuildCmd = &cobra.Command{
	Use:   "dict-build",
	Short: "Build the dictionary trie cache from the source database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger := config.NewLogger(cfg)

		sourcePath := viper.GetString(dictSourceKey)
		if sourcePath == "" {
			sourcePath = cfg.Dict.SourcePath
		}
		cacheDir := viper.GetString(dictCacheKey)
		if cacheDir == "" {
			cacheDir = cfg.Dict.CacheDir
		}
		forceRebuild, _ := cmd.Flags().GetBool("force-rebuild")
		validateOnly, _ := cmd.Flags().GetBool("validate-only")
		watch, _ := cmd.Flags().GetBool("watch")

		manager := dict.NewManager(sourcePath, cacheDir, logger,
			dict.WithMaxSkipRate(cfg.Dict.MaxSkipRate))

		if validateOnly {
			if err := manager.Validate(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("dictionary cache is up to date")
			return nil
		}

		build := func() error {
			t, err := manager.Load(cmd.Context(), forceRebuild)
			if err != nil {
				return err
			}
			cmd.Printf("dictionary ready: %d words at %s\n", t.Len(), manager.CachePath())
			return nil
		}

		if err := build(); err != nil {
			return err
		}
		if !watch {
			return nil
		}

		// Watch mode keeps the artifact fresh by re-checking the source
		// fingerprint on a fixed schedule.
		interval := viper.GetDuration(dictIntervalKey)
		if interval <= 0 {
			interval = time.Hour
		}
		scheduler := gocron.NewScheduler(time.UTC)
		if _, err := scheduler.Every(interval).Do(func() {
			if err := build(); err != nil {
				logger.WithError(err).Error("scheduled dictionary rebuild failed")
			}
		}); err != nil {
			return fmt.Errorf("schedule rebuild: %w", err)
		}
		logger.WithField("interval", interval).Info("watching dictionary source")
		scheduler.StartBlocking()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dictBuildCmd)

	dictBuildCmd.Flags().String("source-path", "", "path to the source sqlite database")
	dictBuildCmd.Flags().String("cache-dir", "", "directory for the cache artifact")
	dictBuildCmd.Flags().Bool("force-rebuild", false, "rebuild even when the cache is fresh")
	dictBuildCmd.Flags().Bool("validate-only", false, "check cache freshness without rebuilding")
	dictBuildCmd.Flags().Bool("watch", false, "keep running and rebuild on a schedule")
	dictBuildCmd.Flags().Duration("interval", time.Hour, "rebuild check interval in watch mode")

	bindFlagToViper(dictSourceKey, dictBuildCmd.Flags().Lookup("source-path"))
	bindFlagToViper(dictCacheKey, dictBuildCmd.Flags().Lookup("cache-dir"))
	bindFlagToViper(dictIntervalKey, dictBuildCmd.Flags().Lookup("interval"))
}
