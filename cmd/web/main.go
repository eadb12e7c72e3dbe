// cmd/web/main.go
//
// pawnboard – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load env vars (host-wide file → .env fallback).
//
//  2. Load conf/global.yaml + PAWNBOARD_ overrides, resolving vault: refs.
//
//  3. Start daily rotating logger (tees to console when running in a TTY).
//
//  4. Build the backend API client and the route policy table
//     (conf/routes.yaml).
//
//  5. Build the board cache (lazy per-session boards, idle/LRU eviction)
//     and watch conf/routes.yaml for edits.
//
//  6. Init every registered component and mount its routes on the
//     authenticated API router (see router.go).
//
//  7. Serve until SIGINT/SIGTERM, then drain and close every board.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/yanizio/pawnboard/internal/api"
	"github.com/yanizio/pawnboard/internal/board"
	"github.com/yanizio/pawnboard/internal/component"
	"github.com/yanizio/pawnboard/internal/config"
	"github.com/yanizio/pawnboard/internal/logger"
	"github.com/yanizio/pawnboard/internal/requestinfo"
	"github.com/yanizio/pawnboard/internal/server"
	"github.com/yanizio/pawnboard/internal/widgetctx"

	_ "github.com/yanizio/pawnboard/components/admin"
	_ "github.com/yanizio/pawnboard/components/assettypes/widgets"
	_ "github.com/yanizio/pawnboard/components/contextpicker"
	_ "github.com/yanizio/pawnboard/components/dashboard/widgets"
	_ "github.com/yanizio/pawnboard/components/pages"
	_ "github.com/yanizio/pawnboard/components/session"
)

const serverEnvPath = "/usr/local/etc/pawnboard/global.env"

// loadEnv prefers the host-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

func init() { loadEnv() }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bootstrap console logger until the file logger is up.
	boot, _ := zap.NewDevelopment()
	zap.ReplaceGlobals(boot)

	//
	// ── 1.  Config ──────────────────────────────────────────────────────
	//
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	tee := logger.IsTTY()
	if cfg.Log.Tee != nil {
		tee = *cfg.Log.Tee
	}
	logOut, err := logger.New(cfg.Abs(cfg.Log.Dir), cfg.Log.Level, tee)
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer func() { _ = logOut.Sync() }()

	loc, err := cfg.Location()
	if err != nil {
		logOut.Fatalf("time zone %q: %v", cfg.TimeZone, err)
	}

	//
	// ── 2.  Backend client + route policy ───────────────────────────────
	//
	client, err := api.New(api.Options{
		BaseURL:   cfg.API.BaseURL,
		Token:     cfg.API.Token,
		Timeout:   cfg.API.Timeout,
		Retries:   cfg.API.Retries,
		RetryWait: cfg.API.RetryWait,
		CacheTTL:  cfg.API.CacheTTL,
		CacheSize: cfg.API.CacheSize,
	})
	if err != nil {
		logOut.Fatalf("api client: %v", err)
	}

	policy, err := widgetctx.LoadPolicy(cfg.Abs(cfg.Context.RoutesFile), cfg.Context.StrictUnknownRoutes)
	if err != nil {
		logOut.Fatalf("route policy: %v", err)
	}
	logOut.Infow("route policy loaded",
		"prefixes", policy.Prefixes(),
		"strict", policy.Strict())

	//
	// ── 3.  Board cache ─────────────────────────────────────────────────
	//
	boards := board.NewCache(client, policy, board.Options{
		IdleTTL:          cfg.Board.IdleTTL,
		MaxEntries:       cfg.Board.MaxEntries,
		EvictInterval:    cfg.Board.EvictInterval,
		FetchTimeout:     cfg.Board.FetchTimeout,
		FetchConcurrency: cfg.Board.FetchConcurrency,
	})
	defer boards.Close()

	//
	// ── 4.  Router + serve ──────────────────────────────────────────────
	//
	var geoPath string
	if cfg.GeoIP.DBPath != "" {
		geoPath = cfg.Abs(cfg.GeoIP.DBPath)
	}
	geo, err := requestinfo.OpenGeo(geoPath)
	if err != nil {
		logOut.Fatalf("geoip: %v", err)
	}
	defer func() { _ = geo.Close() }()

	routesFile := cfg.Abs(cfg.Context.RoutesFile)
	if _, err := widgetctx.WatchPolicy(ctx, routesFile, cfg.Context.StrictUnknownRoutes, boards.SetPolicy); err != nil {
		logOut.Warnw("route policy hot reload disabled", "err", err)
	}

	env := component.StaticEnv{Cache: boards, Zone: loc}
	handler, err := newRouter(cfg, env, client, geo)
	if err != nil {
		logOut.Fatalf("router: %v", err)
	}

	if err := server.Run(ctx, server.New(cfg.HTTP, handler), cfg.HTTP.ShutdownTimeout); err != nil {
		logOut.Errorw("http server", "err", err)
	}
	logOut.Infow("shutdown complete", "boards", boards.Len())
}
