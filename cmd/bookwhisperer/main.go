// Package main is the Book Whisperer CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bookwhisperer/bookwhisperer/internal/catalog"
	"github.com/bookwhisperer/bookwhisperer/internal/cli"
	"github.com/bookwhisperer/bookwhisperer/internal/config"
	"github.com/bookwhisperer/bookwhisperer/internal/models"
	"github.com/bookwhisperer/bookwhisperer/internal/recommend"
	"github.com/bookwhisperer/bookwhisperer/internal/server"
	"github.com/bookwhisperer/bookwhisperer/internal/storage"
	"github.com/bookwhisperer/bookwhisperer/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/bookwhisperer/config.yaml"

// loadConfig loads config from path. When path is the default, it first
// looks for config.yaml in the current directory (for development); if
// that exists it is used. Returns the config and the path actually loaded.
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

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "serve":
		runServe()
	case "recommend":
		runRecommend()
	case "list":
		runList()
	case "history":
		runHistory()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("bookwhisperer version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Storage storage.Storage
	Syncer  *catalog.Syncer
	Engine  *recommend.Engine
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	client := catalog.NewClient(&cfg.Calibre, logger)
	return &Components{
		Storage: store,
		Syncer:  catalog.NewSyncer(client, store, logger),
		Engine:  recommend.NewEngine(&cfg.Recommend, logger),
	}, nil
}

func setup(configPath string) (*config.Config, *zap.Logger, *Components) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved))
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return cfg, logger, components
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolved, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolved),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	srv := server.NewServer(
		components.Syncer,
		components.Engine,
		components.Storage,
		&cfg.Server,
		logger,
	)
	srv.SetDatabasePath(cfg.Storage.DatabasePath)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
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

// buildQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves any flags (and their values) that appear after the
// query to the front of the slice so that flag.Parse() sees them. Go's
// flag package stops at the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
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

func outputFormat(name string) cli.OutputFormat {
	switch name {
	case "json":
		return cli.OutputJSON
	case "text":
		return cli.OutputText
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", name)
		os.Exit(1)
		return cli.OutputText
	}
}

func printRecommendUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: bookwhisperer recommend [flags] [query]\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces, used by the query and fuzzy strategies.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Strategies:
  content  Rank by similarity to your reading profile (past recommendations).
           Without history, the most broadly representative books rank first.
  query    Rank by similarity to free text (topics, authors, keywords).
  fuzzy    Rank by closeness to a book title; falls back to query ranking
           when no title comes close.

Examples:
  bookwhisperer recommend
  bookwhisperer recommend -n 3
  bookwhisperer recommend -strategy query space opera politics
  bookwhisperer recommend -strategy fuzzy dune messiah
`)
}

func runRecommend() {
	args := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = run locally)")
	strategy := fs.String("strategy", models.StrategyContent, "recommendation strategy: content, query, or fuzzy")
	count := fs.Int("n", 1, "number of recommendations")
	format := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printRecommendUsage(fs) }
	_ = fs.Parse(args)

	req := &models.RecommendRequest{
		Strategy: *strategy,
		Query:    buildQuery(fs.Args()),
		Count:    *count,
	}

	if *serverURL != "" {
		response, err := recommendViaHTTP(*serverURL, req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Recommendation failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteRecommendations(os.Stdout, response, outputFormat(*format)); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	_, logger, components := setup(*configPath)
	defer logger.Sync()
	defer components.Close()

	start := time.Now()
	ctx := context.Background()
	sync, err := components.Syncer.Sync(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Catalog sync failed: %v\n", err)
		os.Exit(1)
	}
	past, err := components.Storage.PastRecommendationIDs(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load history: %v\n", err)
		os.Exit(1)
	}
	result, err := components.Engine.Recommend(sync.Books, past, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Recommendation failed: %v\n", err)
		os.Exit(1)
	}
	if len(result.IDs) > 0 {
		today := time.Now().Format("2006-01-02")
		if err := components.Storage.RecordRecommendations(ctx, today, result.IDs); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to record history: %v\n", err)
			os.Exit(1)
		}
	}

	response := resolveResponse(sync.Books, result, req, time.Since(start))
	if err := cli.WriteRecommendations(os.Stdout, response, outputFormat(*format)); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// resolveResponse maps ranked IDs back to catalog entries.
func resolveResponse(books []*models.Book, result *recommend.Result, req *models.RecommendRequest, elapsed time.Duration) *models.RecommendResponse {
	byID := make(map[string]*models.Book, len(books))
	for _, book := range books {
		byID[book.ID] = book
	}
	resolved := make([]*models.RecommendedBook, 0, len(result.IDs))
	for i, id := range result.IDs {
		if book, ok := byID[id]; ok {
			resolved = append(resolved, &models.RecommendedBook{Book: book, Rank: i + 1})
		}
	}
	return &models.RecommendResponse{
		Strategy:  result.Strategy,
		Query:     req.Query,
		Count:     req.Count,
		Books:     resolved,
		FellBack:  result.FellBack,
		QueryTime: elapsed.Milliseconds(),
	}
}

func recommendViaHTTP(serverURL string, req *models.RecommendRequest) (*models.RecommendResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/recommend", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.RecommendResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runList() {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	format := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	_, logger, components := setup(*configPath)
	defer logger.Sync()
	defer components.Close()

	sync, err := components.Syncer.Sync(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Catalog sync failed: %v\n", err)
		os.Exit(1)
	}
	if outputFormat(*format) == cli.OutputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(sync.Books); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}
	cli.WriteBookTable(os.Stdout, sync.Books)
}

func runHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 0, "show at most this many entries (0 = all)")
	_ = fs.Parse(os.Args[2:])

	_, logger, components := setup(*configPath)
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	recs, err := components.Storage.ListRecommendations(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list history: %v\n", err)
		os.Exit(1)
	}

	// Resolve titles against the cached snapshot; no upstream round trip.
	titles := make(map[string]string)
	if books, err := components.Storage.LoadBooks(ctx); err == nil {
		for _, book := range books {
			titles[book.ID] = book.Title
		}
	}
	cli.WriteHistory(os.Stdout, recs, titles)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, components := setup(*configPath)
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	bookCount, err := components.Storage.CountBooks(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Count books failed: %v\n", err)
		os.Exit(1)
	}
	recCount, err := components.Storage.CountRecommendations(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Count recommendations failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("books:            %d   # cached catalog snapshot\n", bookCount)
	fmt.Printf("recommendations:  %d   # recorded history entries\n", recCount)
	if diskBytes, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath); err == nil {
		fmt.Printf("disk_usage_bytes: %d\n", diskBytes)
	}
	fmt.Printf("calibre_url:      %s\n", cfg.Calibre.URL)
	fmt.Printf("library:          %s\n", cfg.Calibre.Library)
	fmt.Printf("database_path:    %s\n", cfg.Storage.DatabasePath)
}

func printUsage() {
	fmt.Println(`bookwhisperer - Personal book recommendations from your Calibre library

Usage:
  bookwhisperer recommend [flags] [query]   Recommend books
  bookwhisperer list [flags]                List the catalog
  bookwhisperer history [flags]             Show past recommendations
  bookwhisperer serve [flags]               Start the HTTP server
  bookwhisperer status [flags]              Show catalog and history counts
  bookwhisperer version                     Show version
  bookwhisperer help                        Show this help

Recommend Flags:
  --config string     Config file path (default: /usr/local/etc/bookwhisperer/config.yaml)
  --server string     Server URL (empty = run locally against Calibre directly)
  --strategy string   content, query, or fuzzy (default: content)
  --n int             Number of recommendations (default: 1)
  --output string     Output format: text or json (default: text)

Serve Flags:
  --config string    Config file path
  --debug            Enable debug logging

Examples:
  bookwhisperer recommend
  bookwhisperer recommend -n 3
  bookwhisperer recommend -strategy query space opera politics
  bookwhisperer recommend -strategy fuzzy dune messiah
  bookwhisperer list
  bookwhisperer history -limit 20
  bookwhisperer serve`)
}
