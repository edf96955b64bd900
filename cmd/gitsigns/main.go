// cmd/gitsigns/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/qosmio/gitsigns/internal/config"
	"github.com/qosmio/gitsigns/internal/diff"
	"github.com/qosmio/gitsigns/internal/git"
	"github.com/qosmio/gitsigns/internal/host"
	"github.com/qosmio/gitsigns/internal/hunk"
	"github.com/qosmio/gitsigns/internal/logging"
	"github.com/qosmio/gitsigns/internal/manager"
	"github.com/qosmio/gitsigns/internal/runner"
)

var version = "dev"

var (
	flagConfig    string
	flagBase      string
	flagAlgorithm string
	flagWordDiff  bool
)

var rootCmd = &cobra.Command{
	Use:   "gitsigns",
	Short: "Gitsigns shows how files differ from a git reference revision",
	Long: `Gitsigns tracks open files against the git index (or any revision)
and reports the changed regions as structured hunks, updating as the
files and the repository change underneath it.`,
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagBase != "" {
		cfg.Base = flagBase
	}
	if flagAlgorithm != "" {
		cfg.DiffAlgorithm = flagAlgorithm
	}
	if flagWordDiff {
		cfg.WordDiff = true
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *logging.Logger {
	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

// cliSink prints pipeline events to stdout.
type cliSink struct {
	docs     *host.FileDocs
	wordDiff bool
	updated  chan host.DocID
}

func (s *cliSink) HunksChanged(id host.DocID, hunks []hunk.Hunk) {
	path, _ := s.docs.Path(id)
	printHunks(path, hunks, s.wordDiff)
	select {
	case s.updated <- id:
	default:
	}
}

func (s *cliSink) Summary(id host.DocID, summary hunk.Summary) {
	path, _ := s.docs.Path(id)
	head := summary.Head
	if head == "" {
		head = "(no head)"
	}
	fmt.Printf("%s %s +%d ~%d -%d\n",
		color.New(color.FgCyan).Sprint(head),
		path, summary.Added, summary.Changed, summary.Removed)
}

func (s *cliSink) FileIdentityChanged(id host.DocID, newPath string) {
	fmt.Printf("%s renamed to %s\n",
		color.New(color.FgYellow).Sprint("!"), newPath)
}

func printHunks(path string, hunks []hunk.Hunk, wordDiff bool) {
	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	header := color.New(color.FgCyan)

	for _, h := range hunks {
		header.Println(h.Header())
		for _, line := range h.Removed.Lines {
			removed.Printf("-%s\n", line)
		}
		for _, line := range h.Added.Lines {
			added.Printf("+%s\n", line)
		}
		if wordDiff && h.Type == hunk.Change {
			before, after := diff.WordDiff(h.Removed.Lines, h.Added.Lines)
			for _, r := range append(before, after...) {
				fmt.Printf("  word %s line %d cols %d-%d\n",
					r.Kind, r.Line, r.StartCol, r.EndCol)
			}
		}
	}
}

func setup(cfg *config.Config) (*manager.Manager, *host.FileDocs, *cliSink, error) {
	logger := newLogger(cfg)

	docs, err := host.NewFileDocs(logger)
	if err != nil {
		return nil, nil, nil, err
	}
	sink := &cliSink{
		docs:     docs,
		wordDiff: cfg.WordDiff,
		updated:  make(chan host.DocID, 64),
	}
	mgr, err := manager.New(cfg, docs, sink, logger)
	if err != nil {
		docs.Shutdown()
		return nil, nil, nil, err
	}
	docs.SetEditHandler(mgr.OnEdit)
	return mgr, docs, sink, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&flagBase, "base", "", "revision to compare against (default: index)")
	rootCmd.PersistentFlags().StringVar(&flagAlgorithm, "algorithm", "", "diff algorithm: myers or lcs")
	rootCmd.PersistentFlags().BoolVar(&flagWordDiff, "word-diff", false, "show intraline change regions")

	var diffCmd = &cobra.Command{
		Use:   "diff [files...]",
		Short: "Show the hunks for files against the reference revision",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			mgr, docs, sink, err := setup(cfg)
			if err != nil {
				return err
			}
			defer mgr.Close()
			defer docs.Shutdown()

			ctx := cmd.Context()
			pending := 0
			for _, path := range args {
				id, err := docs.Open(path)
				if err != nil {
					return fmt.Errorf("opening %s: %w", path, err)
				}
				if err := mgr.Attach(ctx, id, mustAbs(path), ""); err != nil {
					return fmt.Errorf("attaching %s: %w", path, err)
				}
				if mgr.Attached(id) {
					pending++
				} else {
					fmt.Printf("%s: not in a repository\n", path)
				}
			}

			for pending > 0 {
				select {
				case <-sink.updated:
					pending--
				case <-time.After(30 * time.Second):
					return fmt.Errorf("timed out waiting for results")
				}
			}
			return nil
		},
	}

	var watchCmd = &cobra.Command{
		Use:   "watch [files...]",
		Short: "Watch files and print hunks as they or the repository change",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			mgr, docs, _, err := setup(cfg)
			if err != nil {
				return err
			}
			defer mgr.Close()
			defer docs.Shutdown()

			ctx := cmd.Context()
			for _, path := range args {
				id, err := docs.Open(path)
				if err != nil {
					return fmt.Errorf("opening %s: %w", path, err)
				}
				if err := mgr.Attach(ctx, id, mustAbs(path), ""); err != nil {
					return fmt.Errorf("attaching %s: %w", path, err)
				}
			}

			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			heads := manager.NewHeadWatcher(mgr, cwd, func(head string) {
				if head != "" {
					fmt.Printf("head: %s\n", color.New(color.FgCyan).Sprint(head))
				}
			})
			if err := heads.Start(ctx); err != nil {
				return err
			}
			defer heads.Stop()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			<-stop
			return nil
		},
	}

	var stageCmd = &cobra.Command{
		Use:   "stage [file]",
		Short: "Stage the file's hunks into the index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			invert, _ := cmd.Flags().GetBool("invert")
			logger := newLogger(cfg)
			ctx := cmd.Context()

			run := runner.New(cfg.Tool, logger)
			path := mustAbs(args[0])
			repo, err := git.Resolve(ctx, run, logger, filepath.Dir(path), git.ResolveOptions{
				Tool:    cfg.Tool,
				AltTool: cfg.AltTool,
			})
			if err != nil {
				return err
			}
			if repo == nil {
				return fmt.Errorf("%s: not in a repository", args[0])
			}

			file := git.NewFile(run, logger, repo, path, nil)
			if err := file.UpdateInfo(ctx); err != nil {
				return err
			}

			compare, err := file.FetchText(ctx, cfg.Base)
			if err != nil {
				return err
			}
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			current := splitLines(string(content))

			engine := diff.NewEngine(diff.Options{Algorithm: cfg.DiffAlgorithm}, logger)
			defer engine.Close()

			hunks := engine.DiffLines(compare, current)
			if len(hunks) == 0 {
				fmt.Println("Nothing to stage")
				return nil
			}
			if err := file.StageHunks(ctx, hunks, invert); err != nil {
				return fmt.Errorf("staging hunks: %w", err)
			}

			fmt.Printf("Staged %d hunk(s)\n", len(hunks))
			return nil
		},
	}
	stageCmd.Flags().Bool("invert", false, "apply the hunks in reverse")

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the gitsigns version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("gitsigns", version)
		},
	}

	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(versionCmd)
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func mustAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
