// refscan lists source files whose names are never mentioned by a set of
// search files, such as scripts no template references.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/phobologic/refscan/internal/config"
	"github.com/phobologic/refscan/internal/console"
	"github.com/phobologic/refscan/internal/discover"
	"github.com/phobologic/refscan/internal/model"
	"github.com/phobologic/refscan/internal/report"
	"github.com/phobologic/refscan/internal/scan"
)

var version = "dev"

// errUnusedFound is returned when --fail-on-unused is set and at least one
// unused file was reported.
var errUnusedFound = errors.New("unused files found")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	switch {
	case err == nil:
	case errors.Is(err, errUnusedFound):
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := newRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

type options struct {
	configPath   string
	sourceTypes  []string
	exclude      []string
	noRecursive  bool
	searchTypes  []string
	all          bool
	listSources  bool
	format       string
	gitignore    bool
	workers      int
	strict       bool
	failOnUnused bool
	verbose      bool
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var o options
	defaults := config.Defaults()

	cmd := &cobra.Command{
		Use:   "refscan [flags] <sourcepath> <searchpath>",
		Short: "Find source files whose names are never referenced",
		Long: `refscan finds files under sourcepath matching the source types, then
searches the contents of files under searchpath matching the search types
for each found file name. Names that appear in no search file are reported
as unused.

Exit Codes:
  0  - Success
  1  - Error
  2  - Unused files found (with --fail-on-unused)`,
		Version:       version,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.resolve(cmd)
			if err != nil {
				return err
			}
			return runScan(cmd.Context(), args[0], args[1], cfg, o, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringSliceVar(&o.sourceTypes, "sourcetypes", defaults.SourceTypes, "patterns of the files whose names should be searched")
	f.StringSliceVar(&o.exclude, "exclude", defaults.Exclude, "skip source files whose name, without extension, ends with one of these")
	f.BoolVar(&o.noRecursive, "sourcetypes-no-recursive", false, "do not search recursively for source files")
	f.StringSliceVar(&o.searchTypes, "searchtypes", defaults.SearchTypes, "patterns of the files whose contents should be searched")
	f.BoolVar(&o.all, "all", false, "report every name with its usage count")
	f.BoolVar(&o.listSources, "list-sources", false, "list the discovered source files")
	f.StringVar(&o.format, "format", defaults.Format, "output format: text, json, yaml, toon")
	f.BoolVar(&o.gitignore, "gitignore", false, "skip files matched by .gitignore in either root")
	f.IntVar(&o.workers, "workers", 0, "number of files scanned concurrently (0 = GOMAXPROCS)")
	f.BoolVar(&o.strict, "strict", false, "stop at the first search file that cannot be read")
	f.BoolVar(&o.failOnUnused, "fail-on-unused", false, "exit with status 2 when unused files are found")
	f.StringVar(&o.configPath, "config", "", "YAML config file")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "enable verbose output")

	cmd.AddCommand(newInitCommand(stdout, stderr))

	return cmd
}

// resolve layers explicitly set flags over the config file over defaults.
func (o *options) resolve(cmd *cobra.Command) (config.Config, error) {
	var fileCfg config.Config
	if o.configPath != "" {
		var err error
		fileCfg, err = config.Load(o.configPath)
		if err != nil {
			return config.Config{}, err
		}
	}

	f := cmd.Flags()
	var flagCfg config.Config
	if f.Changed("sourcetypes") {
		flagCfg.SourceTypes = o.sourceTypes
	}
	if f.Changed("exclude") {
		flagCfg.Exclude = o.exclude
	}
	if f.Changed("sourcetypes-no-recursive") {
		flagCfg.NoRecursive = &o.noRecursive
	}
	if f.Changed("searchtypes") {
		flagCfg.SearchTypes = o.searchTypes
	}
	if f.Changed("format") {
		flagCfg.Format = o.format
	}
	if f.Changed("gitignore") {
		flagCfg.Gitignore = &o.gitignore
	}
	if f.Changed("workers") {
		flagCfg.Workers = &o.workers
	}
	if f.Changed("strict") {
		flagCfg.Strict = &o.strict
	}
	if f.Changed("fail-on-unused") {
		flagCfg.FailOnUnused = &o.failOnUnused
	}

	cfg := flagCfg.Merge(fileCfg).Merge(config.Defaults())
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runScan(ctx context.Context, sourceRoot, searchRoot string, cfg config.Config, o options, stdout, stderr io.Writer) error {
	// Keep stdout parseable for structured formats.
	progress := stdout
	if cfg.Format != "text" {
		progress = stderr
	}
	log := console.New(progress, stderr, o.verbose)

	for _, root := range []string{sourceRoot, searchRoot} {
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			log.Warn("%s: not a directory, no files will be found", root)
		}
	}

	recursive := !*cfg.NoRecursive
	log.Verbose("searching %s for files with extensions %v, recursive=%t", sourceRoot, cfg.SourceTypes, recursive)
	sourceFiles, err := discover.Files(sourceRoot, cfg.SourceTypes, discover.Options{
		Recursive: recursive,
		Exclude:   cfg.Exclude,
		Gitignore: *cfg.Gitignore,
	})
	if err != nil {
		return fmt.Errorf("discovering source files: %w", err)
	}
	names := discover.Names(sourceFiles)

	log.Verbose("searching %s for files with extensions %v, recursive=true", searchRoot, cfg.SearchTypes)
	searchFiles, err := discover.Files(searchRoot, cfg.SearchTypes, discover.Options{
		Recursive: true,
		Gitignore: *cfg.Gitignore,
	})
	if err != nil {
		return fmt.Errorf("discovering search files: %w", err)
	}

	log.Info("Found %d files with extensions %v", len(sourceFiles), cfg.SourceTypes)
	if o.listSources && cfg.Format == "text" {
		for _, f := range sourceFiles {
			log.Info("%s", f)
		}
	}
	for _, name := range discover.Duplicates(names) {
		log.Warn("%s: found in more than one directory, counted as one name", name)
	}
	log.Info("Searching %d files with extensions %v...", len(searchFiles), cfg.SearchTypes)

	s := &scan.Scanner{
		Workers: *cfg.Workers,
		Strict:  *cfg.Strict,
		Logger:  log,
	}
	res, err := s.Count(ctx, names, searchFiles)
	if err != nil {
		return err
	}

	rep := &model.Report{
		SourceRoot:  sourceRoot,
		SearchRoot:  searchRoot,
		SourceTypes: cfg.SourceTypes,
		SearchTypes: cfg.SearchTypes,
		SourceFiles: sourceFiles,
		SearchFiles: searchFiles,
		Names:       names,
		Counts:      res.Counts,
		Skipped:     res.Skipped,
	}

	err = report.Write(stdout, rep, report.Options{
		Format:      cfg.Format,
		All:         o.all,
		ListSources: o.listSources,
	})
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if *cfg.FailOnUnused && len(rep.Unused()) > 0 {
		return errUnusedFound
	}
	return nil
}
