// Package main is the entry point for the askbox server.
//
// The main package stays minimal — its job is to:
//  1. Read configuration (a .env file, then environment variables)
//  2. Create dependencies (logger, log ring)
//  3. Start the application
//
// All actual logic lives in imported packages (internal/server and below).
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/sakif/askbox/internal/logring"
	"github.com/sakif/askbox/internal/server"
)

// logRingCapacity bounds the /debug/logs window.
const logRingCapacity = 500

func main() {
	// === 1. LOAD .env ===
	// godotenv fills the process environment from a local .env file when one
	// exists. Real environment variables win; a missing file is not an error
	// (production sets everything through the environment).
	_ = godotenv.Load()

	debug := os.Getenv("DEBUG") == "1"

	// === 2. SET UP LOGGING ===
	// The ring handler wraps the text handler: every record reaches stdout
	// AND the bounded in-memory window that /debug/logs serves.
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	ring := logring.New(textHandler, logRingCapacity)
	logger := slog.New(ring)
	slog.SetDefault(logger)

	// === 3. READ CONFIGURATION ===
	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	// JWT_SECRET must be a long random string, e.g.:
	//   JWT_SECRET=$(openssl rand -hex 32)
	// Unlike optional integrations, there is no degraded mode without it —
	// every owner operation depends on tokens.
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET not set — refusing to start")
		os.Exit(1)
	}

	githubCallbackURL := os.Getenv("GITHUB_CALLBACK_URL")
	if githubCallbackURL == "" {
		githubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", port)
	}

	allowedOrigins := []string{"*"}
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		allowedOrigins = strings.Split(raw, ",")
		for i := range allowedOrigins {
			allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
		}
	}

	// === 4. DATABASE PATH ===
	dbPath := "data/askbox.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// === 5. CREATE AND START THE SERVER ===
	cfg := server.Config{
		Port:               port,
		DBPath:             dbPath,
		JWTSecret:          jwtSecret,
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  githubCallbackURL,
		AllowedOrigins:     allowedOrigins,
		Debug:              debug,
	}

	srv, err := server.New(cfg, logger, ring)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
