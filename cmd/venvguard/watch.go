// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/venvguard/venvguard/internal/issue"
	"github.com/venvguard/venvguard/internal/venv"
	"github.com/venvguard/venvguard/internal/watch"
)

func newWatchCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var debounce string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Bootstrap, then bootstrap again whenever the manifest changes",
		Long: `Bootstrap the environment and keep watching the dependency manifest.

Every change to the manifest, after a quiet period, runs the bootstrap
sequence again, which reinstalls dependencies and re-verifies imports.
Changes inside the environment directory are ignored. Stop with Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := app.openSession(ctx, cmd, flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("debounce") {
				d, err := parseDebounce(debounce)
				if err != nil {
					return err
				}
				s.cfg.Watch.Debounce = d
			}

			b, err := app.bootstrapper(s)
			if err != nil {
				return err
			}
			if _, err := app.bootstrap(ctx, s, b); err != nil {
				return err
			}

			wcfg, err := watchConfig(string(s.cfg.Manifest), string(s.cfg.EnvDir))
			if err != nil {
				return err
			}
			wcfg.Debounce = s.cfg.Watch.Debounce
			wcfg.Logger = s.logger
			wcfg.OnChange = func(ctx context.Context, changed []string) error {
				fmt.Fprintf(app.stdout, "%s %s changed\n", mark(venv.LevelInfo), pathStyle.Render(changed[0]))
				next, err := app.bootstrapper(s)
				if err != nil {
					return err
				}
				_, err = app.bootstrap(ctx, s, next)
				return err
			}

			w, err := watch.New(wcfg)
			if err != nil {
				return watchError(string(s.cfg.Manifest), err)
			}
			fmt.Fprintf(app.stdout, "Watching %s for changes...\n", pathStyle.Render(string(s.cfg.Manifest)))
			if err := w.Run(ctx); err != nil {
				return watchError(string(s.cfg.Manifest), err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&debounce, "debounce", "", "quiet period before a change triggers a run (e.g. 500ms)")
	return cmd
}

// watchConfig turns the manifest and environment locations into a watch
// root, a match pattern and ignore patterns.
func watchConfig(manifest, envDir string) (watch.Config, error) {
	manifestAbs, err := filepath.Abs(manifest)
	if err != nil {
		return watch.Config{}, fmt.Errorf("resolve manifest: %w", err)
	}
	envAbs, err := filepath.Abs(envDir)
	if err != nil {
		return watch.Config{}, fmt.Errorf("resolve environment directory: %w", err)
	}

	dir := filepath.Dir(manifestAbs)
	cfg := watch.Config{
		Dir:      dir,
		Patterns: []string{filepath.Base(manifestAbs)},
	}
	if rel, err := filepath.Rel(dir, envAbs); err == nil && filepath.IsLocal(rel) {
		rel = filepath.ToSlash(rel)
		cfg.Ignore = []string{rel, rel + "/**"}
	}
	return cfg, nil
}

func parseDebounce(value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid --debounce %q: %w", value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid --debounce %q: must be positive", value)
	}
	return d, nil
}

func watchError(manifest string, err error) error {
	return issue.NewErrorContext().
		WithOperation("watch dependency manifest").
		WithResource(manifest).
		WithIssue(issue.ManifestWatchFailedId).
		WithSuggestion("Check that the manifest's directory exists and is readable").
		WithSuggestion("On Linux, raise fs.inotify.max_user_watches if the limit was reached").
		Wrap(err).
		BuildError()
}
