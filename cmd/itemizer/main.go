package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/receipt-itemizer/internal/extraction"
	"github.com/zombor/receipt-itemizer/internal/receipt"
	"github.com/zombor/receipt-itemizer/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

// exitNoText is the exit status of a one-shot run over an image without text
const exitNoText = 2

type config struct {
	port        *int
	dbPath      *string
	storagePath *string
	scannerType *string
	geminiKey   *string
	geminiModel *string
	ollamaURL   *string
	ollamaModel *string
	tessLang    *string
	authUser    *string
	authPass    *string

	lineTolerance  *float64
	maxPrice       *float64
	maxItems       *int
	stripUnitPrice *bool

	logLevel  *string
	logFormat *string

	file  *string
	words *string
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("itemizer")
	cfg := config{
		port:        fs.IntLong("port", 8080, "HTTP server port"),
		dbPath:      fs.StringLong("db", "itemizer.db", "Database file path"),
		storagePath: fs.StringLong("storage", "./receipts", "Storage directory path"),
		scannerType: fs.StringLong("scanner", "tesseract", "Scanner type: 'tesseract', 'gemini' or 'ollama'"),
		geminiKey:   fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)"),
		geminiModel: fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name"),
		ollamaURL:   fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL"),
		ollamaModel: fs.StringLong("ollama-model", "qwen2.5vl:7b", "Ollama vision model name"),
		tessLang:    fs.StringLong("tesseract-lang", "eng", "Tesseract languages, '+' separated (e.g., eng+fra)"),
		authUser:    fs.StringLong("auth-user", "", "Basic auth username (optional)"),
		authPass:    fs.StringLong("auth-pass", "", "Basic auth password (optional)"),

		lineTolerance:  fs.Float64Long("line-tolerance", extraction.DefaultLineTolerance, "Max vertical distance (px) from a line's average Y for a word to join it"),
		maxPrice:       fs.Float64Long("max-price", extraction.DefaultMaxPrice, "Largest price accepted for a single item"),
		maxItems:       fs.IntLong("max-items", extraction.DefaultMaxItems, "Maximum number of items returned per receipt"),
		stripUnitPrice: fs.BoolLong("strip-unit-price", "Move the unit price in 'qty @ unit name price' lines out of the item name"),

		logLevel:  fs.StringLong("log-level", "info", "Log level: debug, info, warn, error"),
		logFormat: fs.StringLong("log-format", "text", "Log format: text or json"),

		file:  fs.StringLong("file", "", "Scan one image/PDF, print its items as JSON and exit"),
		words: fs.StringLong("words", "", "Extract items from a saved OCR result (JSON) and exit, without running OCR"),
	}
	_ = fs.StringLong("config", "", "Config file (optional, one 'flag value' per line)")
	showVersion := fs.BoolLong("version", "Show version information")

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("ITEMIZER"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithConfigAllowMissingFile(),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	logger, err := newLogger(os.Stderr, *cfg.logLevel, *cfg.logFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	extractor := extraction.New(extraction.Config{
		LineTolerance:  *cfg.lineTolerance,
		MaxPrice:       *cfg.maxPrice,
		MaxItems:       *cfg.maxItems,
		StripUnitPrice: *cfg.stripUnitPrice,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *cfg.words != "":
		err = extractWords(*cfg.words, extractor, os.Stdout)
	case *cfg.file != "":
		err = scanFile(ctx, cfg, *cfg.file, extractor, os.Stdout)
	default:
		err = serve(ctx, cfg, extractor)
	}

	if errors.Is(err, extraction.ErrNoTextDetected) {
		slog.Error("No text detected")
		os.Exit(exitNoText)
	}
	if err != nil {
		slog.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

// newLogger builds the process logger from the log flags
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q: want text or json", format)
	}
}

// newScanner builds the OCR engine selected by --scanner
func newScanner(cfg config) (scanning.Scanner, error) {
	switch *cfg.scannerType {
	case "tesseract":
		langs := strings.Split(*cfg.tessLang, "+")
		slog.Info("Initializing Tesseract scanner...", "languages", langs)
		return scanning.NewTesseract(langs...)
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := *cfg.geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			return nil, errors.New("gemini api key is required: set --gemini-key or GEMINI_API_KEY")
		}
		slog.Info("Initializing Gemini scanner...", "model", *cfg.geminiModel)
		return scanning.NewGemini(apiKey, *cfg.geminiModel)
	case "ollama":
		slog.Info("Initializing Ollama scanner...", "url", *cfg.ollamaURL, "model", *cfg.ollamaModel)
		return scanning.NewOllama(*cfg.ollamaURL, *cfg.ollamaModel)
	default:
		return nil, fmt.Errorf("invalid scanner type %q: want tesseract, gemini or ollama", *cfg.scannerType)
	}
}

// extractWords runs extraction over a saved OCR result
func extractWords(path string, extractor *extraction.Extractor, out io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading words file: %w", err)
	}

	var ocr scanning.OCRResult
	if err := json.Unmarshal(data, &ocr); err != nil {
		return fmt.Errorf("decoding words file: %w", err)
	}

	result, err := extractor.Extract(ocr.Words, ocr.FullText)
	if err != nil {
		return err
	}
	return writeResult(out, result)
}

// scanFile runs OCR and extraction over one file without touching the database
func scanFile(ctx context.Context, cfg config, path string, extractor *extraction.Extractor, out io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading receipt file: %w", err)
	}

	scanner, err := newScanner(cfg)
	if err != nil {
		return err
	}
	defer scanner.Close()

	ocr, err := scanner.ScanWords(ctx, data, mime.TypeByExtension(strings.ToLower(filepath.Ext(path))))
	if err != nil {
		return fmt.Errorf("scanning receipt: %w", err)
	}

	result, err := extractor.Extract(ocr.Words, ocr.FullText)
	if err != nil {
		return err
	}
	return writeResult(out, result)
}

func writeResult(out io.Writer, result *extraction.Result) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// serve runs the HTTP server until ctx is cancelled
func serve(ctx context.Context, cfg config, extractor *extraction.Extractor) error {
	slog.Info("Initializing database...")
	db, err := receipt.NewBoltDB(*cfg.dbPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer db.Close()

	scanner, err := newScanner(cfg)
	if err != nil {
		return fmt.Errorf("initializing scanner: %w", err)
	}
	defer scanner.Close()

	slog.Info("Initializing storage...")
	store, err := receipt.NewLocalStorage(*cfg.storagePath)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	receiptService := receipt.NewService(db, scanner, store, extractor)

	basicAuth := receipt.BasicAuth{
		Username: *cfg.authUser,
		Password: *cfg.authPass,
	}
	server := receipt.NewServer(receiptService, basicAuth)

	addr := fmt.Sprintf(":%d", *cfg.port)
	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)
	if *cfg.authUser != "" || *cfg.authPass != "" {
		slog.Info("Basic auth enabled", "user", *cfg.authUser)
	}

	if err := server.Start(ctx, addr); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("Shutting down...")
	return nil
}
