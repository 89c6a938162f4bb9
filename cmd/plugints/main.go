package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	typescript "github.com/OliverJAsh/plugin-typescript"
	"github.com/OliverJAsh/plugin-typescript/internal/backend"
	"github.com/OliverJAsh/plugin-typescript/internal/backend/strip"
	"github.com/OliverJAsh/plugin-typescript/internal/config"
	"github.com/OliverJAsh/plugin-typescript/internal/fetch"
	"github.com/OliverJAsh/plugin-typescript/internal/resolve"
)

var (
	flagConfig string
	flagFormat string
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "plugints",
	Short:         "Incremental TypeScript compilation over a dependency graph",
	Long:          "Plugints loads TypeScript sources through pluggable fetchers, resolves their references and imports, and compiles or type-checks them against a pluggable backend.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "project file path (default: plugints.toml if present)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")

	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(graphCmd)
}

var flagOut string

var compileCmd = &cobra.Command{
	Use:   "compile <identity>",
	Short: "Compile one unit and its dependencies to JavaScript",
	Long:  "Loads the unit with its references and imports, reports diagnostics, and writes the emitted .js and .js.map files.",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompile,
}

func init() {
	compileCmd.Flags().StringVar(&flagOut, "out", "", "output directory (default: next to the source under the project root)")
}

var checkCmd = &cobra.Command{
	Use:   "check <identity>...",
	Short: "Type-check units as one whole program",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

var graphCmd = &cobra.Command{
	Use:   "graph <identity>",
	Short: "Print the loaded dependency closure of a unit",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraph,
}

func runCompile(cmd *cobra.Command, args []string) error {
	start := time.Now()
	identity := args[0]

	comp, cfg, cleanup, err := buildCompiler()
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := comp.Compile(context.Background(), identity)
	if err != nil {
		return outputError("compile", err)
	}

	if res.Failed {
		out := CLICompileResult{Identity: identity, Failed: true, Errors: diagnosticsToCLI(res.Errors)}
		if err := outputResult(CLIResult{Command: "compile", Results: out}); err != nil {
			return err
		}
		errorHandled = true
		return fmt.Errorf("compile %s: %d diagnostic(s)", identity, len(res.Errors))
	}

	jsPath, mapPath, err := writeOutputs(cfg, identity, res)
	if err != nil {
		return outputError("compile", err)
	}

	out := CLICompileResult{Identity: identity, JSPath: jsPath, MapPath: mapPath}
	if err := outputResult(CLIResult{Command: "compile", Results: out}); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Compiled %s in %s\n", identity, time.Since(start).Round(time.Millisecond))
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	start := time.Now()

	comp, _, cleanup, err := buildCompiler()
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := comp.Check(context.Background(), args...)
	if err != nil {
		return outputError("check", err)
	}

	out := CLICheckResult{
		Global:      diagnosticsToCLI(res.Global),
		Diagnostics: diagnosticsToCLI(res.Diagnostics),
	}
	out.ErrorCount = countErrors(out.Global, out.Diagnostics)
	if err := outputResult(CLIResult{Command: "check", Results: out}); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Checked %d root(s) in %s\n", len(args), time.Since(start).Round(time.Millisecond))

	if res.HasErrors() {
		errorHandled = true
		return fmt.Errorf("check: %d error(s)", out.ErrorCount)
	}
	return nil
}

func runGraph(cmd *cobra.Command, args []string) error {
	comp, _, cleanup, err := buildCompiler()
	if err != nil {
		return err
	}
	defer cleanup()

	infos, err := comp.Closure(context.Background(), args[0])
	if err != nil {
		return outputError("graph", err)
	}

	units := make([]CLIUnit, 0, len(infos))
	for _, u := range infos {
		units = append(units, CLIUnit{Identity: u.Identity, Kind: u.Kind.String(), Deps: u.Deps})
	}
	return outputResult(CLIResult{Command: "graph", Results: units})
}

// buildCompiler assembles the Compiler from the project file and flags. The
// returned cleanup closes the persistent cache when one was opened.
func buildCompiler() (*typescript.Compiler, *config.Config, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	cleanup := func() {}
	var fetcher fetch.Fetcher = fetch.NewDir(cfg.Project.Root)
	if cfg.HTTP.Enabled {
		var httpOpts []fetch.HTTPOption
		if cfg.HTTP.Cache != "" {
			cache, err := fetch.NewCache(cfg.HTTP.Cache)
			if err != nil {
				return nil, nil, nil, err
			}
			cleanup = func() { cache.Close() }
			httpOpts = append(httpOpts, fetch.WithCache(cache))
		}
		if cfg.HTTP.LRUSize > 0 {
			httpOpts = append(httpOpts, fetch.WithLRUSize(cfg.HTTP.LRUSize))
		}
		remote, err := fetch.NewHTTP(httpOpts...)
		if err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		fetcher = fetch.NewRouter(fetcher, remote)
	}

	resolver, err := buildResolver(cfg)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}

	opts := []typescript.Option{
		typescript.WithResolver(resolver),
		typescript.WithResolveAmbientRefs(cfg.Project.ResolveAmbientRefs),
	}
	if cfg.Project.DefaultLib != "" {
		opts = append(opts, typescript.WithDefaultLib(cfg.Project.DefaultLib))
	}
	if len(cfg.Resolve.SyntheticAssets) > 0 {
		opts = append(opts, typescript.WithSyntheticAssetUnits(cfg.Resolve.SyntheticAssets...))
	}

	comp, err := typescript.New(fetcher, strip.New(), opts...)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	return comp, cfg, cleanup, nil
}

// loadConfig reads --config, or plugints.toml when present, or defaults.
func loadConfig() (*config.Config, error) {
	if flagConfig != "" {
		return config.Load(flagConfig)
	}
	if _, err := os.Stat("plugints.toml"); err == nil {
		return config.Load("plugints.toml")
	}
	return config.Default(), nil
}

// buildResolver layers the optional Risor script over the path rules.
func buildResolver(cfg *config.Config) (typescript.Resolver, error) {
	paths := resolve.NewPaths(cfg.Resolve.Paths)
	if cfg.Resolve.Script == "" {
		return paths, nil
	}
	src, err := os.ReadFile(cfg.Resolve.Script)
	if err != nil {
		return nil, fmt.Errorf("read resolver script: %w", err)
	}
	return resolve.NewScript(string(src), cfg.Resolve.Script, paths), nil
}

// writeOutputs writes the emitted files under --out, the configured output
// directory, or the project root.
func writeOutputs(cfg *config.Config, identity string, res *typescript.CompileResult) (string, string, error) {
	jsName, mapName := backend.OutputNames(identity)
	jsPath := outputPath(cfg, identity, jsName)
	mapPath := outputPath(cfg, identity, mapName)

	if err := os.MkdirAll(filepath.Dir(jsPath), 0o755); err != nil {
		return "", "", fmt.Errorf("creating %s: %w", filepath.Dir(jsPath), err)
	}
	if err := os.WriteFile(jsPath, []byte(res.JS), 0o644); err != nil {
		return "", "", fmt.Errorf("write %s: %w", jsPath, err)
	}
	if err := os.WriteFile(mapPath, []byte(res.SourceMap), 0o644); err != nil {
		return "", "", fmt.Errorf("write %s: %w", mapPath, err)
	}
	return jsPath, mapPath, nil
}

// outputPath places one output name in the output directory. URL identities
// keep only their base name so they land inside the directory.
func outputPath(cfg *config.Config, identity, name string) string {
	if strings.Contains(identity, "://") {
		name = path.Base(name)
	}
	dir := flagOut
	if dir == "" {
		dir = cfg.Project.Out
	}
	if dir == "" {
		dir = cfg.Project.Root
	}
	return filepath.Join(dir, filepath.FromSlash(name))
}
