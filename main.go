// main.go
//
// Entry point for the Yikes! game server.
// Boot order: load .env → decode config → set log level → open + migrate
// the database → seed the card catalog → wire stores, coordinator, HTTP
// server → serve.

package main

import (
	"context"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yikes-game/go-server/internal/catalog"
	"github.com/yikes-game/go-server/internal/game"
	"github.com/yikes-game/go-server/internal/httpserver"
	"github.com/yikes-game/go-server/internal/store"
)

// config is decoded from the environment (after godotenv loads .env).
type config struct {
	Port         string `env:"PORT,default=3001"`
	DBPath       string `env:"DB_PATH,default=./data/yikes.db"`
	LogLevel     string `env:"LOG_LEVEL,default=info"`
	ClientOrigin string `env:"CLIENT_ORIGIN,default=http://localhost:5173"`

	JWTSecret      string `env:"JWT_SECRET,default=dev_secret_change_me"`
	CookieName     string `env:"COOKIE_NAME,default=yikes_token"`
	JWTExpiresDays int    `env:"JWT_EXPIRES_DAYS,default=14"`

	// RoundTimeoutSeconds > 0 enables the lazy server-side round deadline;
	// 0 leaves timing to the client countdown, as the original game did.
	RoundTimeoutSeconds int `env:"ROUND_TIMEOUT_SECONDS,default=0"`

	StaticDir  string `env:"STATIC_DIR,default=./public"`
	Production bool   `env:"PRODUCTION,default=false"`
}

func main() {
	_ = godotenv.Load()

	var cfg config
	if err := envdecode.Decode(&cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to decode config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("db", cfg.DBPath).Msg("failed to open database")
	}
	defer db.Close()

	if err := store.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to apply migrations")
	}

	cat := catalog.New(db)
	if err := cat.Seed(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to seed card catalog")
	}

	st := store.New(db)
	coord := game.NewCoordinator(st, cat, time.Duration(cfg.RoundTimeoutSeconds)*time.Second)

	srv := httpserver.New(httpserver.Config{
		ClientOrigin:   cfg.ClientOrigin,
		JWTSecret:      cfg.JWTSecret,
		CookieName:     cfg.CookieName,
		JWTExpiresDays: cfg.JWTExpiresDays,
		StaticDir:      cfg.StaticDir,
		Production:     cfg.Production,
	}, st, cat, coord)

	log.Info().Str("port", cfg.Port).Msg("starting yikes-go server")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
