package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	pathpkg "path/filepath"
	"runtime/pprof"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/fang"
	charmlog "github.com/charmbracelet/log"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"opcount/internal/analysis"
	"opcount/internal/config"
	"opcount/internal/logging"
	oplog "opcount/internal/opcount/log"
	"opcount/internal/ui/colorize"
)

// defaultFunction is the test entry point the benchmark sources define
// (void test1()), searched by its mangled prefix.
const defaultFunction = "_Z5test1"

func init() {
	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Current working directory")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./"+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")
	rootCmd.PersistentFlags().StringP("matcher", "m", "", "Function name matching: prefix, exact or demangled")
	rootCmd.PersistentFlags().Bool("strict", false, "Fail when the dump defines a label twice")
	rootCmd.PersistentFlags().String("toolset", "", "Toolset used to look up limits (default $TOOLSET)")

	rootCmd.Flags().BoolP("help", "h", false, "Help")
	rootCmd.Flags().BoolP("no-tui", "n", false, "Show summary without TUI")
	rootCmd.Flags().BoolP("full", "f", false, "Print the expanded listing (use with --no-tui)")
	rootCmd.Flags().BoolP("json", "j", false, "Output results as JSON for regression testing")
	rootCmd.Flags().StringP("listing", "o", "", "Write the expanded listing to file")
	rootCmd.Flags().String("graph", "", "Write the inline call graph as DOT to file")
	rootCmd.Flags().String("cpuprofile", "", "Write CPU profile to file")
	rootCmd.Flags().String("memprofile", "", "Write memory profile to file")

	rootCmd.AddCommand(checkCmd)
}

var rootCmd = &cobra.Command{
	Use:   "opcount [dump] [function]",
	Short: "Count the instructions of a fully inlined function",
	Long: `Opcount reads an objdump disassembly, inlines every call the selected
function makes into other functions of the same dump, and counts the machine
instructions that remain. Padding and return instructions are not counted.

The function is matched by prefix against the (mangled) labels of the dump and
defaults to ` + defaultFunction + `. Use - to read the dump from stdin.`,
	Example: `
# Browse a dump interactively
opcount test_nested.s

# Print the count and the expanded listing
opcount -n -f test_nested.s _Z5test1v

# Match by demangled name and emit JSON
opcount --matcher demangled --json static_map.s 'test1('
  `,
	Args: cobra.RangeArgs(1, 2),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := ResolveCwd(cmd); err != nil {
			return err
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		oplog.Setup(cfg.LogFile, cfg.Debug)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cpuprofile, _ := cmd.Flags().GetString("cpuprofile")
		if cpuprofile != "" {
			f, err := os.Create(cpuprofile)
			if err != nil {
				return fmt.Errorf("could not create CPU profile: %w", err)
			}
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("could not start CPU profile: %w", err)
			}
			defer pprof.StopCPUProfile()
		}

		memprofile, _ := cmd.Flags().GetString("memprofile")
		if memprofile != "" {
			defer func() {
				f, err := os.Create(memprofile)
				if err != nil {
					fmt.Fprintf(os.Stderr, "could not create memory profile: %v\n", err)
					return
				}
				defer f.Close()
				if err := pprof.WriteHeapProfile(f); err != nil {
					fmt.Fprintf(os.Stderr, "could not write memory profile: %v\n", err)
				}
			}()
		}

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

		dump := args[0]
		function := defaultFunction
		if len(args) > 1 {
			function = args[1]
		}

		noTUI, _ := cmd.Flags().GetBool("no-tui")
		showFull, _ := cmd.Flags().GetBool("full")
		jsonOutput, _ := cmd.Flags().GetBool("json")
		listingPath, _ := cmd.Flags().GetString("listing")
		graphPath, _ := cmd.Flags().GetString("graph")

		// --full implies --no-tui
		if showFull || jsonOutput || dump == "-" {
			noTUI = true
		}
		if !term.IsTerminal(os.Stdout.Fd()) {
			noTUI = true
			os.Setenv(colorize.NoColorEnv, "1")
		}

		if !noTUI {
			var initial string
			if len(args) > 1 {
				initial = function
			}
			absPath, err := pathpkg.Abs(dump)
			if err != nil {
				return fmt.Errorf("failed to resolve path: %w", err)
			}
			program := tea.NewProgram(
				NewModel(absPath, initial, analyzer),
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
			)
			if _, err := program.Run(); err != nil {
				slog.Error("TUI run error", "error", err)
				return fmt.Errorf("TUI error: %w", err)
			}
			return nil
		}

		res, err := analyzeDump(analyzer, dump, function)
		if err != nil {
			return err
		}
		if err := writeArtifacts(res, listingPath, graphPath); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			if err := writeJSON(out, dump, res); err != nil {
				return err
			}
		} else {
			writeSummary(out, dump, res, showFull)
		}
		if !res.Found() {
			return fmt.Errorf("no call to %q found", function)
		}
		return nil
	},
}

// loadConfig reads the config file and applies command line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("debug") {
		cfg.Debug, _ = flags.GetBool("debug")
	}
	if flags.Changed("matcher") {
		cfg.Matcher, _ = flags.GetString("matcher")
	}
	if flags.Changed("strict") {
		cfg.Strict, _ = flags.GetBool("strict")
	}
	if flags.Changed("toolset") {
		cfg.Toolset, _ = flags.GetString("toolset")
	}
	return cfg, nil
}

func newEngineLogger(cfg *config.Config) *logging.LoggerCloser {
	lg := logging.NewLogger()
	if cfg.Debug {
		lg.SetLevel(charmlog.DebugLevel)
	}
	return lg
}

// newAnalyzer builds the analyzer described by cfg.
func newAnalyzer(cfg *config.Config, lg *charmlog.Logger) (*analysis.Analyzer, error) {
	primary, err := analysis.MatcherByName(cfg.Matcher)
	if err != nil {
		return nil, err
	}
	matchers := []analysis.Matcher{primary}
	for _, name := range cfg.Fallback {
		m, err := analysis.MatcherByName(name)
		if err != nil {
			return nil, fmt.Errorf("fallback: %w", err)
		}
		matchers = append(matchers, m)
	}
	return &analysis.Analyzer{
		Matchers: matchers,
		Strict:   cfg.Strict,
		Logger:   lg,
	}, nil
}

// analyzeDump runs the analyzer over a dump file, or stdin for "-".
func analyzeDump(a *analysis.Analyzer, path, function string) (*analysis.Result, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("file not found: %s", path)
			}
			return nil, fmt.Errorf("cannot access file: %w", err)
		}
		defer f.Close()
		r = f
	}

	slog.Debug("Analyzing dump", "file", path, "function", function)
	res, err := a.Run(r, function)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", path, err)
	}
	slog.Debug("Analysis done", "file", path, "label", res.Label, "count", res.Count)
	return res, nil
}

func Execute() {
	// Bypass fang's markdown rendering for machine-readable or piped output.
	noTUI := false
	for _, arg := range os.Args[1:] {
		switch arg {
		case "--no-tui", "-n", "--full", "-f", "--json", "-j":
			noTUI = true
		}
	}
	if !noTUI && !term.IsTerminal(os.Stdout.Fd()) {
		noTUI = true
	}

	if noTUI {
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1)
		}
		return
	}
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

func ResolveCwd(cmd *cobra.Command) (string, error) {
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd != "" {
		err := os.Chdir(cwd)
		if err != nil {
			return "", fmt.Errorf("failed to change directory: %w", err)
		}
		return cwd, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}
	return cwd, nil
}
