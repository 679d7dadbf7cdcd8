// ABOUTME: Entry point for the parley conversation bot
// ABOUTME: Wires storage, assistant runtime, Telegram bridge, and admin UI

package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/2389/parley/internal/assistant"
	"github.com/2389/parley/internal/bridge/telegram"
	"github.com/2389/parley/internal/config"
	"github.com/2389/parley/internal/leads"
	"github.com/2389/parley/internal/runtime"
	"github.com/2389/parley/internal/store"
	"github.com/2389/parley/internal/threadcache"
	"github.com/2389/parley/internal/tools"
	"github.com/2389/parley/internal/webadmin"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
                       _
 _ __   __ _ _ __ ___ | | ___ _   _
| '_ \ / _' | '__/ _ \| |/ _ \ | | |
| |_) | (_| | | |  __/| |  __/ |_| |
| .__/ \__,_|_|  \___||_|\___|\__, |
|_|                           |___/
`

// getConfigPath returns the path to the config file.
// Priority: PARLEY_CONFIG env var > XDG_CONFIG_HOME/parley/parley.yaml > ~/.config/parley/parley.yaml
func getConfigPath() string {
	if envPath := os.Getenv("PARLEY_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "parley.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "parley", "parley.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: parley <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve   Start the bot")
		fmt.Println("  init    Create a new config file interactively")
		fmt.Println("  health  Check admin UI health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Optional .env file for secrets referenced via ${VAR} in the config
	_ = godotenv.Load()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	persona, err := config.LoadPersona(cfg.Persona.Path)
	if err != nil {
		logger.Warn("persona file not usable, using defaults", "error", err, "path", cfg.Persona.Path)
	}

	// Startup info
	green := color.New(color.FgGreen)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Path)
	if cfg.WebAdmin.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Admin UI:  http://%s\n", cfg.WebAdmin.Addr)
	}
	fmt.Println()

	logger.Info("starting parley",
		"config", configPath,
		"database", cfg.Database.Path,
		"webadmin", cfg.WebAdmin.Enabled,
	)

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	cache := threadcache.New(threadcache.DefaultTTL)
	defer cache.Close()

	rt := runtime.NewOpenAIRuntime(cfg.Assistant.APIKey, cfg.Assistant.AssistantID, cfg.Assistant.BaseURL)

	leadsSvc := leads.NewService(st, logger)
	resolver := tools.NewResolver(leadsSvc, logger)

	svc := assistant.New(st, rt, resolver, cache, assistant.Config{
		PollInterval: cfg.Assistant.PollInterval,
		PollBudget:   cfg.Assistant.PollBudget,
		ApologyReply: persona.Apology,
		EmptyReply:   persona.Empty,
	}, logger)

	client := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.APIBase)
	bot := telegram.NewBot(client, svc, st, persona, logger)

	var adminSrv *http.Server
	if cfg.WebAdmin.Enabled {
		admin, err := webadmin.New(st, webadmin.Config{
			Password:  cfg.WebAdmin.Password,
			JWTSecret: cfg.WebAdmin.JWTSecret,
		})
		if err != nil {
			return fmt.Errorf("creating admin UI: %w", err)
		}

		mux := http.NewServeMux()
		admin.RegisterRoutes(mux)
		adminSrv = &http.Server{Addr: cfg.WebAdmin.Addr, Handler: mux}

		go func() {
			logger.Info("admin UI listening", "addr", cfg.WebAdmin.Addr)
			if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("admin UI server failed", "error", err)
			}
		}()
	}

	err = bot.Start(ctx)

	if adminSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := adminSrv.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Error("admin UI shutdown failed", "error", shutdownErr)
		}
	}

	logger.Info("parley stopped")
	return err
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	// Format timestamp
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	// Colorize level
	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	// Print message
	buf.WriteString(r.Message)

	// Print handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	// Print record attrs
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

func runHealth(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if !cfg.WebAdmin.Enabled {
		return fmt.Errorf("webadmin is disabled; nothing to check")
	}

	url := fmt.Sprintf("http://%s/healthz", cfg.WebAdmin.Addr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("parley configuration setup")
	fmt.Println("==========================")
	fmt.Println()

	defaultConfigPath := getConfigPath()

	outputFile := prompt(reader, "Config file path", defaultConfigPath)

	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	fmt.Println("\n--- Telegram Configuration ---")
	botToken := prompt(reader, "Bot token (or ${TELEGRAM_BOT_TOKEN})", "${TELEGRAM_BOT_TOKEN}")

	fmt.Println("\n--- Assistant Configuration ---")
	apiKey := prompt(reader, "API key (or ${OPENAI_API_KEY})", "${OPENAI_API_KEY}")
	assistantID := prompt(reader, "Assistant ID", "${OPENAI_ASSISTANT_ID}")

	fmt.Println("\n--- Database Configuration ---")
	dbPath := prompt(reader, "SQLite database path", "./parley.db")

	fmt.Println("\n--- Admin UI Configuration ---")
	enableAdmin := prompt(reader, "Enable admin UI?", "no")
	adminEnabled := strings.ToLower(enableAdmin) == "yes" || strings.ToLower(enableAdmin) == "y"

	var adminAddr, adminPassword string
	if adminEnabled {
		adminAddr = prompt(reader, "Admin UI address", "localhost:8080")
		adminPassword = prompt(reader, "Admin password", "")
	}

	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json)", "text")

	var cfg strings.Builder
	cfg.WriteString("# parley configuration\n")
	cfg.WriteString("# Generated by parley init\n\n")

	cfg.WriteString("telegram:\n")
	cfg.WriteString(fmt.Sprintf("  bot_token: \"%s\"\n", botToken))
	cfg.WriteString("\n")

	cfg.WriteString("assistant:\n")
	cfg.WriteString(fmt.Sprintf("  api_key: \"%s\"\n", apiKey))
	cfg.WriteString(fmt.Sprintf("  assistant_id: \"%s\"\n", assistantID))
	cfg.WriteString("  poll_interval: \"1s\"\n")
	cfg.WriteString("  poll_budget: 60\n")
	cfg.WriteString("\n")

	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  path: \"%s\"\n", dbPath))
	cfg.WriteString("\n")

	cfg.WriteString("webadmin:\n")
	cfg.WriteString(fmt.Sprintf("  enabled: %t\n", adminEnabled))
	if adminEnabled {
		// Random JWT secret per install
		secretBytes := make([]byte, 32)
		if _, err := rand.Read(secretBytes); err != nil {
			return fmt.Errorf("generating JWT secret: %w", err)
		}
		jwtSecret := base64.StdEncoding.EncodeToString(secretBytes)

		cfg.WriteString(fmt.Sprintf("  addr: \"%s\"\n", adminAddr))
		cfg.WriteString(fmt.Sprintf("  password: \"%s\"\n", adminPassword))
		cfg.WriteString(fmt.Sprintf("  jwt_secret: \"%s\"\n", jwtSecret))
	}
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: \"%s\"\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: \"%s\"\n", logFormat))

	configDir := filepath.Dir(outputFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Println("\nTo start the bot:")
	fmt.Printf("  parley serve\n")

	return nil
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
