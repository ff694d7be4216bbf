// Package app assembles the application: database pool, migrations,
// repositories, services, handlers, bot and scheduler. Initialization order
// matters, components depend on each other.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"gasbot/internal/bot"
	"gasbot/internal/bot/board"
	"gasbot/internal/bot/filters"
	"gasbot/internal/bot/prompts"
	"gasbot/internal/config"
	"gasbot/internal/db/postgres"
	"gasbot/internal/features/garage"
	"gasbot/internal/features/ledger"
	"gasbot/internal/features/locations"
	"gasbot/internal/features/members"
	"gasbot/internal/jobs"
)

// App holds everything main needs to run and shut down.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	Prompts   *prompts.Manager
}

// New builds the application. Fails fast: an unreachable database or a bad
// bot token aborts startup.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("telegram: %w", err)
	}
	api.Debug = cfg.AppEnv == "development"
	log.WithField("username", api.Self.UserName).Info("Authorized on Telegram")

	// Repositories.
	memberRepo := members.NewRepository(pool)
	garageRepo := garage.NewRepository(pool)
	locationRepo := locations.NewRepository(pool)
	ledgerRepo := ledger.NewRepository(pool)

	// Services.
	memberService := members.NewService(memberRepo)
	garageService := garage.NewService(garageRepo, cfg)
	locationService := locations.NewService(locationRepo)
	ledgerService := ledger.NewService(ledgerRepo, garageService, memberService, locationService, cfg)

	if err := garageService.SyncFleet(ctx, cfg.Fleet); err != nil {
		pool.Close()
		return nil, fmt.Errorf("fleet sync: %w", err)
	}

	promptManager := prompts.NewManager(cfg.PromptTimeout)
	balanceBoard := board.New(api, cfg.GasChatID)

	// Handlers.
	ledgerHandler := ledger.NewHandler(ledgerService, garageService, promptManager, balanceBoard, api)
	memberHandler := members.NewHandler(memberService, api)
	garageHandler := garage.NewHandler(garageService, api)
	locationHandler := locations.NewHandler(locationService, api)

	chatFilter := filters.NewChatFilter(cfg.GasChatID, memberService, api)

	b := bot.New(
		api, cfg,
		memberService, locationService,
		ledgerHandler, memberHandler, garageHandler, locationHandler,
		chatFilter,
	)

	scheduler := jobs.NewScheduler(ledgerService, balanceBoard, cfg)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		DB:        pool,
		Prompts:   promptManager,
	}, nil
}

// Close releases everything New acquired.
func (a *App) Close() {
	a.Prompts.Close()
	a.DB.Close()
	log.Info("Application shut down")
}

// runMigrations applies the schema in order. Each migration runs once and
// is recorded in schema_migrations.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.EnsureMigrationTable(ctx, pool); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationUsers},
		{2, migrationCars},
		{3, migrationGasPrices},
		{4, migrationDrives},
		{5, migrationFills},
		{6, migrationLocations},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("migration %d: %w", m.version, err)
		}
	}

	log.Info("Database schema up to date")
	return nil
}

const migrationUsers = `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT UNIQUE NOT NULL,
		display_name TEXT NOT NULL,
		preferred_name TEXT,
		balance_owed NUMERIC(12,2) NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	)
`

const migrationCars = `
	CREATE TABLE IF NOT EXISTS cars (
		id BIGSERIAL PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		mpg NUMERIC(6,2) NOT NULL CHECK (mpg > 0),
		notes TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	)
`

const migrationGasPrices = `
	CREATE TABLE IF NOT EXISTS gas_prices (
		id BIGSERIAL PRIMARY KEY,
		price NUMERIC(6,2) NOT NULL CHECK (price > 0),
		set_by BIGINT,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	)
`

// car_id is SET NULL on delete so drive history survives fleet changes.
const migrationDrives = `
	CREATE TABLE IF NOT EXISTS drives (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(user_id),
		car_id BIGINT REFERENCES cars(id) ON DELETE SET NULL,
		miles NUMERIC(8,2) NOT NULL CHECK (miles >= 0),
		cost NUMERIC(12,2) NOT NULL,
		near_empty BOOLEAN NOT NULL DEFAULT FALSE,
		location TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_drives_user_id ON drives(user_id)
`

const migrationFills = `
	CREATE TABLE IF NOT EXISTS fills (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(user_id),
		car_id BIGINT REFERENCES cars(id) ON DELETE SET NULL,
		payer_id BIGINT NOT NULL REFERENCES users(user_id),
		amount NUMERIC(12,2) NOT NULL CHECK (amount > 0),
		price_per_gallon NUMERIC(6,2),
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_fills_payer_id ON fills(payer_id)
`

const migrationLocations = `
	CREATE TABLE IF NOT EXISTS locations (
		id BIGSERIAL PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		label TEXT NOT NULL,
		round_trip_miles NUMERIC(8,2) NOT NULL CHECK (round_trip_miles > 0),
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	)
`
