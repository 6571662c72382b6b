package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"opcount/internal/analysis"
	"opcount/internal/config"
)

// errCheckFailed is returned when at least one dump misses its limit.
var errCheckFailed = errors.New("check failed")

// checkResult is the outcome of checking one dump.
type checkResult struct {
	Dump  string
	Test  string
	Limit int
	Res   *analysis.Result
	Err   error
}

// Passed reports whether the dump was analyzed, the function found and the
// count kept within the limit.
func (c checkResult) Passed() bool {
	if c.Err != nil || c.Res == nil || !c.Res.Found() {
		return false
	}
	return c.Limit == config.NoLimit || c.Res.Count <= c.Limit
}

func (c checkResult) String() string {
	switch {
	case c.Err != nil:
		return fmt.Sprintf("ERROR %s: %v", c.Test, c.Err)
	case !c.Res.Found():
		return fmt.Sprintf("No call to '%s' found.", c.Res.Target)
	case c.Limit == config.NoLimit:
		return fmt.Sprintf("PASS  %s: %d instructions (no limit)", c.Test, c.Res.Count)
	case c.Res.Count > c.Limit:
		return fmt.Sprintf("FAIL  %s: %d instructions exceeds limit %d", c.Test, c.Res.Count, c.Limit)
	default:
		return fmt.Sprintf("PASS  %s: %d instructions (limit %d)", c.Test, c.Res.Count, c.Limit)
	}
}

// testName is the dump's file name without extension, the key of the
// limit table.
func testName(dump string) string {
	base := filepath.Base(dump)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// checkOptions selects the limit of each dump.
type checkOptions struct {
	Function string
	Limit    int    // overrides the config table unless NoLimit
	Name     string // overrides the test name of a single dump
	Toolset  string
	Jobs     int
}

// runChecks analyzes dumps concurrently and returns the results in the
// order of dumps.
func runChecks(ctx context.Context, a *analysis.Analyzer, cfg *config.Config, dumps []string, opts checkOptions) ([]checkResult, error) {
	results := make([]checkResult, len(dumps))

	g, ctx := errgroup.WithContext(ctx)
	jobs := opts.Jobs
	if jobs < 1 {
		jobs = 1
	}
	g.SetLimit(jobs)

	for i, dump := range dumps {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			name := testName(dump)
			if opts.Name != "" {
				name = opts.Name
			}
			limit := opts.Limit
			if limit == config.NoLimit {
				limit = cfg.Limit(name, opts.Toolset)
			}
			res, err := analyzeDump(a, dump, opts.Function)
			results[i] = checkResult{Dump: dump, Test: name, Limit: limit, Res: res, Err: err}
			slog.Debug("Checked dump", "dump", dump, "test", name, "limit", limit, "passed", results[i].Passed())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// reportChecks prints one line per result and returns errCheckFailed if
// any check did not pass.
func reportChecks(w io.Writer, results []checkResult) error {
	failed := 0
	for _, r := range results {
		fmt.Fprintln(w, r.String())
		if !r.Passed() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errCheckFailed, failed, len(results))
	}
	return nil
}

var checkCmd = &cobra.Command{
	Use:   "check <function> <dump>...",
	Short: "Check instruction counts against their limits",
	Long: `Check counts the fully inlined instructions of a function in each dump and
compares them against a limit. The limit is taken from --limit or from the
limits table of the config file, keyed by the dump's name without extension
and the toolset. A dump without a limit passes as long as the function is found.`,
	Example: `
# Check every dump of a build with the gcc limits
TOOLSET=gcc opcount check _Z5test1 build/*.s

# Check one dump against an explicit limit
opcount check --limit 0 _Z5test1v test_nested.s
  `,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		lg := newEngineLogger(cfg)
		defer lg.Close()

		analyzer, err := newAnalyzer(cfg, lg.Logger)
		if err != nil {
			return err
		}

		opts := checkOptions{
			Function: args[0],
			Limit:    config.NoLimit,
			Toolset:  cfg.Toolset,
			Jobs:     cfg.Jobs,
		}
		if cmd.Flags().Changed("limit") {
			opts.Limit, _ = cmd.Flags().GetInt("limit")
		}
		if cmd.Flags().Changed("jobs") {
			opts.Jobs, _ = cmd.Flags().GetInt("jobs")
		}
		opts.Name, _ = cmd.Flags().GetString("name")
		if opts.Name != "" && len(args) > 2 {
			return fmt.Errorf("--name needs exactly one dump, got %d", len(args)-1)
		}

		results, err := runChecks(cmd.Context(), analyzer, cfg, args[1:], opts)
		if err != nil {
			return err
		}
		return reportChecks(cmd.OutOrStdout(), results)
	},
}

func init() {
	checkCmd.Flags().Int("limit", config.NoLimit, "Maximum instruction count (overrides the config table)")
	checkCmd.Flags().String("name", "", "Test name used to look up the limit (single dump only)")
	checkCmd.Flags().Int("jobs", 0, "Dumps analyzed in parallel (default from config)")
}
