// Package main is the tenderlens CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hyperjump/tenderlens/internal/cli"
	"github.com/hyperjump/tenderlens/internal/config"
	"github.com/hyperjump/tenderlens/internal/extract"
	"github.com/hyperjump/tenderlens/internal/inbox"
	"github.com/hyperjump/tenderlens/internal/llm"
	"github.com/hyperjump/tenderlens/internal/pipeline"
	"github.com/hyperjump/tenderlens/internal/server"
	"github.com/hyperjump/tenderlens/internal/storage"
	"github.com/hyperjump/tenderlens/internal/summary"
	"github.com/hyperjump/tenderlens/internal/watcher"
	"github.com/hyperjump/tenderlens/pkg/utils"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/tenderlens/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
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
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// loadEnvFile loads KEY=VALUE pairs from path into the environment without overriding
// variables that are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	if err := loadEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "emails":
		runEmails()
	case "summarize":
		runSummarize()
	case "summarize-file":
		runSummarizeFile()
	case "extract":
		runExtract()
	case "table":
		runTable()
	case "watch":
		runWatch()
	case "reports":
		runReports()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("tenderlens version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads the config and builds the logger, exiting on failure.
func setup(configPath string, debugFlag bool) (*config.Config, *zap.Logger, bool) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))
	return cfg, logger, debugMode
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, debugMode := setup(*configPath, *debug)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A broken inbox configuration only disables the email routes.
	components, err := initializeComponents(ctx, cfg, logger, debugMode, true)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	if cfg.Watch.Enabled() {
		w := newWatcher(cfg, components, logger, debugMode)
		if err := w.Start(ctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		if err := w.SyncExistingFiles(); err != nil {
			logger.Warn("watcher sync failed", zap.Error(err))
		}
		defer w.Stop()
	}

	srv := server.NewServer(components.Processor, components.Inbox, components.Extractor, components.Storage, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

func runEmails() {
	fs := flag.NewFlagSet("emails", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 0, "number of emails to list (default from config)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, logger, debugMode := setup(*configPath, false)
	defer logger.Sync()

	ctx := context.Background()
	ib, err := inbox.New(ctx, cfg.Inbox, inboxOptions(logger, debugMode)...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open inbox: %v\n", err)
		os.Exit(1)
	}
	n := *limit
	if n <= 0 {
		n = cfg.Inbox.MaxResults
	}
	emails, err := ib.ListRecent(ctx, n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Listing emails failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteEmails(os.Stdout, emails, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runSummarize() {
	fs := flag.NewFlagSet("summarize", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outDir := fs.String("out", ".", "directory for the table document")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	if fs.NArg() < 1 {
		fmt.Println("Usage: tenderlens summarize [flags] <message-id>")
		os.Exit(1)
	}
	cfg, logger, debugMode := setup(*configPath, *debug)
	defer logger.Sync()

	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, logger, debugMode, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	res, err := components.Processor.ProcessByID(ctx, fs.Arg(0), cli.NewEventPrinter(os.Stdout))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Summarize failed: %v\n", err)
		os.Exit(1)
	}
	saveDocument(*outDir, res)
}

func runSummarizeFile() {
	fs := flag.NewFlagSet("summarize-file", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outDir := fs.String("out", "", "directory for the table document (default: next to the file)")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	if fs.NArg() < 1 {
		fmt.Println("Usage: tenderlens summarize-file [flags] <path>")
		os.Exit(1)
	}
	path := fs.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read file: %v\n", err)
		os.Exit(1)
	}
	cfg, logger, debugMode := setup(*configPath, *debug)
	defer logger.Sync()

	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, logger, debugMode, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	abs, _ := filepath.Abs(path)
	res, err := components.Processor.ProcessFile(ctx, abs, data, cli.NewEventPrinter(os.Stdout))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Summarize failed: %v\n", err)
		os.Exit(1)
	}
	dir := *outDir
	if dir == "" {
		dir = filepath.Dir(abs)
	}
	saveDocument(dir, res)
}

// saveDocument writes the run's table document, if any, into dir and reports where it went.
func saveDocument(dir string, res *pipeline.Result) {
	if res == nil || !res.HasDocument() {
		return
	}
	out, err := writeDocument(dir, res.DocumentName, res.Document)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save document: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Saved: %s\n", out)
}

func writeDocument(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	out := filepath.Join(dir, name)
	if err := os.WriteFile(out, data, 0644); err != nil {
		return "", err
	}
	return out, nil
}

func runExtract() {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	if fs.NArg() < 1 {
		fmt.Println("Usage: tenderlens extract [flags] <path>")
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	path := fs.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read file: %v\n", err)
		os.Exit(1)
	}
	cfg, logger, _ := setup(*configPath, false)
	defer logger.Sync()

	name := filepath.Base(path)
	res, err := newExtractor(cfg, logger).Extract(context.Background(), name, data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Extraction failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteExtractResult(os.Stdout, name, res, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runTable() {
	fs := flag.NewFlagSet("table", flag.ExitOnError)
	out := fs.String("out", "", "output file (default: <input>_summary.<format>)")
	format := fs.String("format", "docx", "output format: docx or xlsx")
	keepDuplicates := fs.Bool("keep-duplicates", false, "keep repeated list items under a key")
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	if fs.NArg() < 1 {
		fmt.Println("Usage: tenderlens table [flags] <summary.md|->")
		os.Exit(1)
	}
	input := fs.Arg(0)
	text, err := readInput(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read input: %v\n", err)
		os.Exit(1)
	}
	table := summary.Parser{KeepDuplicates: *keepDuplicates}.Parse(text)
	data, name, err := renderTable(table, *format, input)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	target := *out
	if target == "" {
		target = name
	}
	if err := os.WriteFile(target, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", target, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (%s, %d rows)\n", target, table.Heading, len(table.Rows))
}

// readInput reads path, or standard input when path is "-".
func readInput(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

// renderTable renders t in format and returns the default output name derived from input.
func renderTable(t summary.Table, format, input string) ([]byte, string, error) {
	base := filepath.Base(input)
	if input == "-" {
		base = "table"
	}
	switch format {
	case "docx":
		data, err := summary.RenderDOCX(t)
		return data, summary.DocumentName(base), err
	case "xlsx":
		data, err := summary.RenderXLSX(t)
		return data, summary.SpreadsheetName(base), err
	}
	return nil, "", fmt.Errorf("unknown format %q; use docx or xlsx", format)
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	dir := fs.String("dir", "", "directory to watch (default from config)")
	outDir := fs.String("out", "", "directory for table documents (default from config)")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, debugMode := setup(*configPath, *debug)
	defer logger.Sync()
	if *dir != "" {
		cfg.Watch.Directory = *dir
		if *outDir == "" {
			cfg.Watch.OutputDirectory = *dir
		}
	}
	if *outDir != "" {
		cfg.Watch.OutputDirectory = *outDir
	}
	if !cfg.Watch.Enabled() {
		fmt.Fprintln(os.Stderr, "No watch directory: set watch.directory in the config or pass --dir")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	components, err := initializeComponents(ctx, cfg, logger, debugMode, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	w := newWatcher(cfg, components, logger, debugMode, watcher.WithSink(cli.NewEventPrinter(os.Stdout)))
	if err := w.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start watcher: %v\n", err)
		os.Exit(1)
	}
	if err := w.SyncExistingFiles(); err != nil {
		logger.Warn("watcher sync failed", zap.Error(err))
	}
	fmt.Printf("Watching %s (Ctrl-C to stop)\n", w.Dir())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	cancel()
	w.Stop()
}

func runReports() {
	args := os.Args[2:]
	sub := "list"
	if len(args) > 0 && (args[0] == "list" || args[0] == "delete") {
		sub, args = args[0], args[1:]
	}
	fs := flag.NewFlagSet("reports", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 20, "number of reports to list")
	offset := fs.Int("offset", 0, "number of reports to skip")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(reorderArgs(args))

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, logger, _ := setup(*configPath, false)
	defer logger.Sync()

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()
	ctx := context.Background()

	switch sub {
	case "delete":
		if fs.NArg() < 1 {
			fmt.Println("Usage: tenderlens reports delete <report-id>")
			os.Exit(1)
		}
		if err := store.DeleteReport(ctx, fs.Arg(0)); err != nil {
			fmt.Fprintf(os.Stderr, "Deletion failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Report deleted: %s\n", fs.Arg(0))
	default:
		reports, err := store.ListReports(ctx, *offset, *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Listing reports failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteReports(os.Stdout, reports, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	}
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Reports             int64         `json:"reports"`
	DiskUsageBytes      *int64        `json:"disk_usage_bytes,omitempty"`
	SupportedExtensions []string      `json:"supported_extensions"`
	Config              *statusConfig `json:"config,omitempty"`
}

type statusConfig struct {
	InboxProvider   string `json:"inbox_provider"`
	LLMProvider     string `json:"llm_provider"`
	LLMModel        string `json:"llm_model"`
	OCRLanguage     string `json:"ocr_language"`
	MinDigitalChars int    `json:"min_digital_chars"`
	DatabasePath    string `json:"database_path,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = read storage directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		cfg, logger, _ := setup(*configPath, false)
		defer logger.Sync()
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		status, err = localStatus(context.Background(), cfg, store)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
	}

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := writeStatus(os.Stdout, status, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func localStatus(ctx context.Context, cfg *config.Config, store storage.Storage) (statusResponse, error) {
	count, err := store.CountReports(ctx)
	if err != nil {
		return statusResponse{}, fmt.Errorf("count reports: %w", err)
	}
	status := statusResponse{
		Reports:             count,
		SupportedExtensions: extract.SupportedExtensions(),
		Config: &statusConfig{
			InboxProvider:   cfg.Inbox.Provider,
			LLMProvider:     cfg.LLM.Provider,
			LLMModel:        cfg.LLM.Model,
			OCRLanguage:     cfg.Extract.OCRLanguage,
			MinDigitalChars: cfg.Extract.MinDigitalChars,
			DatabasePath:    cfg.Storage.DatabasePath,
		},
	}
	if diskBytes, err := storage.DatabaseBytes(cfg.Storage.DatabasePath); err == nil {
		status.DiskUsageBytes = &diskBytes
	}
	return status, nil
}

func writeStatus(w io.Writer, status statusResponse, format cli.OutputFormat) error {
	if format == cli.OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}
	fmt.Fprintf(w, "reports:            %d   # stored summary reports\n", status.Reports)
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # report database on disk\n", *status.DiskUsageBytes)
	}
	fmt.Fprintf(w, "extensions:         %v\n", status.SupportedExtensions)
	if c := status.Config; c != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# configuration")
		fmt.Fprintf(w, "inbox_provider:     %s\n", c.InboxProvider)
		fmt.Fprintf(w, "llm_provider:       %s\n", c.LLMProvider)
		fmt.Fprintf(w, "llm_model:          %s\n", c.LLMModel)
		fmt.Fprintf(w, "ocr_language:       %s\n", c.OCRLanguage)
		fmt.Fprintf(w, "min_digital_chars:  %d\n", c.MinDigitalChars)
		if c.DatabasePath != "" {
			fmt.Fprintf(w, "database_path:      %s\n", c.DatabasePath)
		}
	}
	return nil
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
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

// reorderArgs moves flags (and their values) that appear after the positional arguments to
// the front so that flag.Parse sees them; the flag package stops at the first non-flag.
func reorderArgs(args []string) []string {
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

// Components holds initialized services.
type Components struct {
	Storage   storage.Storage
	Inbox     inbox.Inbox
	Extractor *extract.Extractor
	Streamer  llm.Streamer
	Processor *pipeline.Processor
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

// initializeComponents wires storage, inbox, extractor, model and processor. With optionalInbox
// an inbox that cannot be opened is logged and left nil.
func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger, debug, optionalInbox bool) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	streamer, err := llm.New(cfg.LLM, llm.WithLogger(logger))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize llm: %w", err)
	}

	var ib inbox.Inbox
	ib, err = inbox.New(ctx, cfg.Inbox, inboxOptions(logger, debug)...)
	if err != nil {
		if !optionalInbox {
			_ = store.Close()
			return nil, fmt.Errorf("failed to initialize inbox: %w", err)
		}
		logger.Warn("inbox unavailable; email features disabled", zap.Error(err))
		ib = nil
	}

	extractor := newExtractor(cfg, logger)
	procOpts := []pipeline.Option{
		pipeline.WithStore(store),
		pipeline.WithParser(summary.Parser{KeepDuplicates: cfg.Table.KeepDuplicates}),
	}
	if debug {
		procOpts = append(procOpts, pipeline.WithLogger(logger))
	}
	logger.Info("components initialized",
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", streamer.Model()),
		zap.Bool("inbox", ib != nil),
	)
	return &Components{
		Storage:   store,
		Inbox:     ib,
		Extractor: extractor,
		Streamer:  streamer,
		Processor: pipeline.NewProcessor(ib, extractor, streamer, procOpts...),
	}, nil
}

func inboxOptions(logger *zap.Logger, debug bool) []inbox.Option {
	if !debug {
		return nil
	}
	return []inbox.Option{inbox.WithLogger(logger)}
}

func newExtractor(cfg *config.Config, logger *zap.Logger) *extract.Extractor {
	return extract.NewExtractor(
		extract.WithRasterizer(extract.NewPdftoppmRasterizer(cfg.Extract.PdftoppmPath, cfg.Extract.RenderDPI)),
		extract.WithMinDigitalChars(cfg.Extract.MinDigitalChars),
		extract.WithOCRLanguage(cfg.Extract.OCRLanguage),
		extract.WithLogger(logger),
	)
}

func newWatcher(cfg *config.Config, c *Components, logger *zap.Logger, debug bool, opts ...watcher.Option) *watcher.Watcher {
	if debug {
		opts = append(opts, watcher.WithLogger(logger))
	}
	return watcher.NewWatcher(cfg.Watch.Directory, cfg.Watch.OutputDirectory, c.Processor, opts...)
}

func printUsage() {
	fmt.Println(`tenderlens - Summarize tender emails and their attachments

Usage:
  tenderlens server [flags]                 Start the HTTP server
  tenderlens emails [flags]                 List recent inbox messages
  tenderlens summarize [flags] <id>         Summarize an email and its first attachment
  tenderlens summarize-file [flags] <path>  Summarize a local tender document
  tenderlens extract [flags] <path>         Print the text extracted from a document
  tenderlens table [flags] <summary.md|->   Convert a markdown summary into a table document
  tenderlens watch [flags]                  Summarize documents dropped into a folder
  tenderlens reports [list|delete] [flags]  List or delete stored reports
  tenderlens status [flags]                 Show storage and model status
  tenderlens version                        Show version
  tenderlens help                           Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/tenderlens/config.yaml,
                     or ./config.yaml when present)
  --debug            Enable debug logging (server, summarize, summarize-file, watch)
  --output string    Output format: text or json (emails, extract, reports, status)

Command Flags:
  emails          --limit int       Number of emails (default from config, 50)
  summarize       --out string      Directory for <attachment>_summary.docx (default: .)
  summarize-file  --out string      Directory for the document (default: next to the file)
  table           --out string      Output file (default: <input>_summary.<format>)
                  --format string   docx or xlsx (default: docx)
                  --keep-duplicates Keep repeated list items under a key
  watch           --dir string      Directory to watch (default: watch.directory)
                  --out string      Output directory (default: watch.output_directory)
  reports         --limit, --offset Paging for list
  status          --server string   Ask a running server instead of reading storage

Secrets such as llm.api_key or inbox.token_json may reference environment variables
(${VAR}); a .env file in the working directory is loaded first.

Examples:
  tenderlens emails --limit 10
  tenderlens summarize 18f2a9c0d1e2b3a4
  tenderlens summarize-file ~/Downloads/rfp.pdf
  tenderlens table --format xlsx summary.md
  tenderlens status --output json`)
}
