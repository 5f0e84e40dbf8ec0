// Package main is the bunrui CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/bunrui/internal/analysis"
	"github.com/hyperjump/bunrui/internal/cli"
	"github.com/hyperjump/bunrui/internal/config"
	"github.com/hyperjump/bunrui/internal/kmeans"
	"github.com/hyperjump/bunrui/internal/server"
	"github.com/hyperjump/bunrui/internal/storage"
	"github.com/hyperjump/bunrui/internal/watcher"
	"github.com/hyperjump/bunrui/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/bunrui/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in
// the current directory wins if present, and a missing default file yields the
// built-in defaults. Returns the config and the path that was loaded ("" for
// built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "cluster":
		runCluster()
	case "runs":
		runRuns()
	case "show":
		runShow()
	case "delete":
		runDelete()
	case "status":
		runStatus()
	case "serve", "server":
		runServe()
	case "watch":
		runWatch()
	case "version", "--version", "-v":
		fmt.Printf("bunrui version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// clusterFlags holds the flags shared by cluster and watch. Only flags the
// user set override the config file.
type clusterFlags struct {
	configPath    *string
	debug         *bool
	k             *int
	maxIterations *int
	epsilon       *float64
	seed          *int64
	workers       *int
	emptyCluster  *string
	columns       *string
	delimiter     *string
	sheet         *string
	noHeader      *bool
	normalize     *bool
	format        *string
	outPath       *string
	save          *bool
}

func newClusterFlagSet(name string, handling flag.ErrorHandling) (*flag.FlagSet, *clusterFlags) {
	fs := flag.NewFlagSet(name, handling)
	f := &clusterFlags{
		configPath:    fs.String("config", defaultConfigPath, "config file path"),
		debug:         fs.Bool("debug", false, "enable debug logging (per-iteration movement, empty clusters)"),
		k:             fs.Int("k", 0, "number of clusters"),
		maxIterations: fs.Int("max-iterations", kmeans.DefaultMaxIterations, "maximum number of iterations"),
		epsilon:       fs.Float64("epsilon", 0, "stop when total centroid movement is at or below this value"),
		seed:          fs.Int64("seed", 0, "random seed for initial centroids"),
		workers:       fs.Int("workers", 1, "goroutines used by the assignment step"),
		emptyCluster:  fs.String("empty-cluster", "keep", "empty cluster policy: keep or reseed"),
		columns:       fs.String("columns", "", "comma-separated zero-based input columns (required unless input.columns is set)"),
		delimiter:     fs.String("delimiter", "", "field delimiter (default: ',' or tab for .tsv; \"tab\" for tab)"),
		sheet:         fs.String("sheet", "", "worksheet name for .xlsx input (default: first sheet)"),
		noHeader:      fs.Bool("no-header", false, "treat the first row as data"),
		normalize:     fs.Bool("normalize", false, "min-max scale every column into [0,1] before clustering"),
		format:        fs.String("output", "text", "output format: text, compact, json, xlsx, or html"),
		outPath:       fs.String("o", "", "output file (default: stdout; .zst compresses)"),
		save:          fs.Bool("save", false, "store the run in the history database"),
	}
	return fs, f
}

// setFlags returns the names of flags given on the command line.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return set
}

// applyClusterFlags overrides cfg with every flag in set.
func applyClusterFlags(cfg *config.Config, f *clusterFlags, set map[string]bool) error {
	if set["debug"] {
		cfg.Debug = cfg.Debug || *f.debug
	}
	if set["k"] {
		cfg.Cluster.K = *f.k
	}
	if set["max-iterations"] {
		cfg.Cluster.MaxIterations = *f.maxIterations
	}
	if set["epsilon"] {
		cfg.Cluster.Epsilon = *f.epsilon
	}
	if set["seed"] {
		cfg.Cluster.Seed = *f.seed
	}
	if set["workers"] {
		cfg.Cluster.Workers = *f.workers
	}
	if set["empty-cluster"] {
		cfg.Cluster.EmptyCluster = *f.emptyCluster
	}
	if set["columns"] {
		cols, err := parseColumns(*f.columns)
		if err != nil {
			return err
		}
		cfg.Input.Columns = cols
	}
	if set["delimiter"] {
		cfg.Input.Delimiter = *f.delimiter
	}
	if set["sheet"] {
		cfg.Input.Sheet = *f.sheet
	}
	if set["no-header"] {
		hasHeader := !*f.noHeader
		cfg.Input.HasHeader = &hasHeader
	}
	if set["normalize"] {
		cfg.Input.Normalize = *f.normalize
	}
	if set["output"] {
		cfg.Output.Format = *f.format
	}
	if set["o"] {
		cfg.Output.Path = *f.outPath
		if !set["output"] {
			cfg.Output.Format = string(cli.FormatForPath(*f.outPath, cli.OutputFormat(cfg.Output.Format)))
		}
	}
	if set["save"] {
		cfg.Storage.SaveRuns = *f.save
	}
	return cfg.Validate()
}

// parseColumns parses "0,2,3" into column indexes.
func parseColumns(s string) ([]int, error) {
	var cols []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid column %q", part)
		}
		cols = append(cols, n)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("no columns given")
	}
	return cols, nil
}

// argsReorder moves any flags (and their values) that appear after the input
// path to the front so that flag.Parse() sees them. Go's flag package stops at
// the first non-flag argument, so "bunrui cluster data.csv -k 3" would
// otherwise leave -k unparsed.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 1 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// buildRequest turns the effective config into an analysis request for input.
func buildRequest(cfg *config.Config, input string, stdin io.Reader) (analysis.Request, error) {
	if len(cfg.Input.Columns) == 0 {
		return analysis.Request{}, fmt.Errorf("no input columns: set input.columns in the config or pass -columns")
	}
	srcOpts, err := cfg.Input.SourceOptions()
	if err != nil {
		return analysis.Request{}, err
	}
	kcfg, err := cfg.Cluster.KMeans()
	if err != nil {
		return analysis.Request{}, err
	}
	req := analysis.Request{
		Path:      input,
		Source:    srcOpts,
		Columns:   cfg.Input.Columns,
		HasHeader: cfg.Input.HasHeaderOrDefault(),
		Normalize: cfg.Input.Normalize,
		Cluster:   kcfg,
		Save:      cfg.Storage.SaveRuns,
	}
	if input == "" || input == "-" {
		req.Path = "-"
		req.Reader = stdin
		req.Name = "-"
	}
	return req, nil
}

// setup loads config, applies cluster flags and creates the logger.
func setup(fs *flag.FlagSet, f *clusterFlags) (*config.Config, *zap.Logger) {
	cfg, resolved, err := loadConfig(*f.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := applyClusterFlags(cfg, f, setFlags(fs)); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid flags: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", cfg.Debug))
	return cfg, logger
}

// newAnalyzer wires storage when runs are saved. The returned close function
// releases it.
func newAnalyzer(cfg *config.Config, logger *zap.Logger) (*analysis.Analyzer, func(), error) {
	var opts []analysis.Option
	if cfg.Debug {
		opts = append(opts, analysis.WithLogger(logger))
	}
	closeFn := func() {}
	if cfg.Storage.SaveRuns {
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		opts = append(opts, analysis.WithStorage(store))
		closeFn = func() { _ = store.Close() }
	}
	return analysis.NewAnalyzer(opts...), closeFn, nil
}

// clusterOnce runs one analysis and writes the report to the configured output.
func clusterOnce(ctx context.Context, a *analysis.Analyzer, cfg *config.Config, req analysis.Request) error {
	out, err := a.Run(ctx, req)
	if err != nil {
		return err
	}
	if !cfg.Debug {
		cli.WriteSkipped(os.Stderr, out.Skipped)
	}
	format, err := cli.ParseOutputFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	w, err := cli.OpenOutput(cfg.Output.Path)
	if err != nil {
		return err
	}
	report := &cli.Report{Run: out.Run, Data: out.Data, Labels: out.Result.Labels, Skipped: out.Skipped}
	if err := cli.Write(w, report, format); err != nil {
		_ = w.Close()
		return fmt.Errorf("write output: %w", err)
	}
	if err := w.Close(); err != nil {
		return err
	}
	if out.Saved {
		fmt.Fprintf(os.Stderr, "Run saved: %s\n", out.Run.ID)
	}
	return nil
}

func printClusterUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: bunrui %s [flags] <file|->\n\n", fs.Name())
	fmt.Fprintf(fs.Output(), "Reads .csv, .tsv, .txt or .xlsx input, optionally compressed (.zst, .lz4). \"-\" reads stdin.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  bunrui %[1]s -k 3 -columns 0,1 points.csv
  bunrui %[1]s points.csv -k 3 -columns 1,2 -normalize
  cat points.tsv | bunrui %[1]s -k 2 -columns 0,1 -delimiter tab -
`, fs.Name())
}

func runCluster() {
	fs, f := newClusterFlagSet("cluster", flag.ExitOnError)
	fs.Usage = func() { printClusterUsage(fs) }
	_ = fs.Parse(argsReorder(os.Args[2:]))

	cfg, logger := setup(fs, f)
	defer logger.Sync()

	input := cfg.Input.Path
	if fs.NArg() > 0 {
		input = fs.Arg(0)
	}
	if input == "" {
		printClusterUsage(fs)
		os.Exit(1)
	}
	req, err := buildRequest(cfg, input, os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	a, closeFn, err := newAnalyzer(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer closeFn()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := clusterOnce(ctx, a, cfg, req); err != nil {
		fmt.Fprintf(os.Stderr, "Clustering failed: %v\n", err)
		os.Exit(1)
	}
}

func runWatch() {
	fs, f := newClusterFlagSet("watch", flag.ExitOnError)
	fs.Usage = func() { printClusterUsage(fs) }
	_ = fs.Parse(argsReorder(os.Args[2:]))

	cfg, logger := setup(fs, f)
	defer logger.Sync()

	input := cfg.Input.Path
	if fs.NArg() > 0 {
		input = fs.Arg(0)
	}
	if input == "" || input == "-" {
		fmt.Fprintln(os.Stderr, "watch needs an input file")
		os.Exit(1)
	}
	req, err := buildRequest(cfg, input, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	a, closeFn, err := newAnalyzer(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer closeFn()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Runs are serialized so a change during the initial run cannot interleave output.
	var mu sync.Mutex
	rerun := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		logger.Info("input changed", zap.String("path", path))
		if err := clusterOnce(ctx, a, cfg, req); err != nil {
			logger.Warn("clustering failed", zap.String("path", path), zap.Error(err))
		}
	}
	watchOpts := []watcher.WatcherOption{watcher.WithDebounce(cfg.Watch.Debounce)}
	if cfg.Debug {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	w, err := watcher.NewWatcher([]string{input}, rerun, watchOpts...)
	if err != nil {
		logger.Fatal("Failed to create watcher", zap.Error(err))
	}
	if err := w.Start(ctx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	defer w.Stop()

	mu.Lock()
	if err := clusterOnce(ctx, a, cfg, req); err != nil {
		logger.Warn("clustering failed", zap.String("path", input), zap.Error(err))
	}
	mu.Unlock()
	logger.Info("watching for changes", zap.Strings("files", w.Files()))
	<-ctx.Done()
	logger.Info("Shutting down...")
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (per-iteration movement, requests)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	a := analysis.NewAnalyzer(analysis.WithStorage(store), analysis.WithLogger(logger))
	srv := server.NewServer(a, store, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// openStore loads config and opens the run history database.
func openStore(configPath string) storage.Storage {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize storage: %v\n", err)
		os.Exit(1)
	}
	return store
}

func runRuns() {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 20, "number of runs to list")
	offset := fs.Int("offset", 0, "number of runs to skip")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	store := openStore(*configPath)
	defer store.Close()

	runs, err := store.ListRuns(context.Background(), *offset, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "List runs failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteRunList(os.Stdout, runs, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runShow() {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text, compact, json, xlsx, or html")
	outPath := fs.String("o", "", "output file (default: stdout; .zst compresses)")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() < 1 {
		fmt.Println("Usage: bunrui show [flags] <run-id>")
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	store := openStore(*configPath)
	defer store.Close()

	run, err := store.GetRun(context.Background(), fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Show failed: %v\n", err)
		os.Exit(1)
	}
	w, err := cli.OpenOutput(*outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if err := cli.Write(w, &cli.Report{Run: run}, format); err != nil {
		_ = w.Close()
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	if err := w.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() < 1 {
		fmt.Println("Usage: bunrui delete [flags] <run-id>")
		os.Exit(1)
	}
	runID := fs.Arg(0)

	store := openStore(*configPath)
	defer store.Close()

	if err := store.DeleteRun(context.Background(), runID); err != nil {
		fmt.Printf("Deletion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Run deleted: %s\n", runID)
}

// statusConfigResponse holds configuration info returned by status.
type statusConfigResponse struct {
	DatabasePath  string  `json:"database_path,omitempty"`
	MaxIterations int     `json:"max_iterations"`
	Epsilon       float64 `json:"epsilon"`
	Workers       int     `json:"workers"`
	EmptyCluster  string  `json:"empty_cluster"`
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Runs           int64                 `json:"runs"`
	DiskUsageBytes *int64                `json:"disk_usage_bytes,omitempty"`
	Config         *statusConfigResponse `json:"config,omitempty"`
}

func localStatus(ctx context.Context, cfg *config.Config, store storage.Storage) (*statusResponse, error) {
	n, err := store.CountRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}
	status := &statusResponse{
		Runs: n,
		Config: &statusConfigResponse{
			DatabasePath:  cfg.Storage.DatabasePath,
			MaxIterations: cfg.Cluster.MaxIterations,
			Epsilon:       cfg.Cluster.Epsilon,
			Workers:       cfg.Cluster.Workers,
			EmptyCluster:  cfg.Cluster.EmptyCluster,
		},
	}
	if diskBytes, err := storage.DiskUsageBytes(storage.DatabaseFiles(cfg.Storage.DatabasePath)...); err == nil {
		status.DiskUsageBytes = &diskBytes
	}
	return status, nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = read the local database)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status *statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize storage: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		status, err = localStatus(context.Background(), cfg, store)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
	}

	if err := writeStatus(os.Stdout, status, *outputFormat); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func writeStatus(w io.Writer, status *statusResponse, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	case "text":
		fmt.Fprintf(w, "runs:              %d   # stored clustering runs\n", status.Runs)
		if status.DiskUsageBytes != nil {
			fmt.Fprintf(w, "disk_usage_bytes:  %d   # run history on disk\n", *status.DiskUsageBytes)
		}
		if status.Config != nil {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "# configuration")
			if status.Config.DatabasePath != "" {
				fmt.Fprintf(w, "database_path:     %s\n", status.Config.DatabasePath)
			}
			fmt.Fprintf(w, "max_iterations:    %d\n", status.Config.MaxIterations)
			fmt.Fprintf(w, "epsilon:           %s\n", utils.FormatFloat(status.Config.Epsilon))
			fmt.Fprintf(w, "workers:           %d\n", status.Config.Workers)
			fmt.Fprintf(w, "empty_cluster:     %s\n", status.Config.EmptyCluster)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q; use text or json", format)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(strings.TrimSuffix(serverURL, "/") + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

func printUsage() {
	fmt.Println(`bunrui - k-means clustering for tabular data

Usage:
  bunrui cluster [flags] <file|->   Cluster the rows of a file (or stdin)
  bunrui watch [flags] <file>       Re-cluster whenever the file changes
  bunrui runs [flags]               List stored runs
  bunrui show [flags] <run-id>      Show a stored run
  bunrui delete [flags] <run-id>    Delete a stored run
  bunrui status [flags]             Show run history status
  bunrui serve [flags]              Start the HTTP server
  bunrui version                    Show version
  bunrui help                       Show this help

Cluster and Watch Flags:
  --config string         Config file path (default: /usr/local/etc/bunrui/config.yaml)
  --k int                 Number of clusters
  --columns string        Zero-based input columns (required unless set in config)
  --max-iterations int    Iteration cap (default: 10000)
  --epsilon float         Convergence threshold on total centroid movement (default: 0)
  --seed int              Random seed for initial centroids
  --workers int           Goroutines for the assignment step (default: 1)
  --empty-cluster string  keep or reseed (default: keep)
  --delimiter string      Field delimiter; "tab" for tab
  --sheet string          Worksheet for .xlsx input
  --no-header             First row is data
  --normalize             Min-max scale columns before clustering
  --output string         text, compact, json, xlsx, or html (default: text)
  -o string               Output file; .zst compresses
  --save                  Store the run in the history database
  --debug                 Enable debug logging

Serve Flags:
  --config string    Config file path
  --debug            Enable debug logging

Status Flags:
  --config string    Config file path
  --server string    Server URL; empty reads the local database
  --output string    Output format: text or json (default: text)

Examples:
  bunrui cluster -k 3 -columns 0,1 points.csv
  bunrui cluster points.csv -k 2 -columns 1,2 -output json
  bunrui cluster -k 4 -columns 2,3 -save -o chart.html measurements.xlsx
  bunrui watch -k 3 -columns 0,1 points.csv
  bunrui runs
  bunrui show -output compact 3f2b...
  bunrui serve`)
}
