package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/LuizEscobarC/simplified-payment-api/internal/config"
	"github.com/LuizEscobarC/simplified-payment-api/internal/domain"
	"github.com/LuizEscobarC/simplified-payment-api/internal/infra/postgres"

	"github.com/jackc/pgx/v5"
)

const (
	ordinaryAccounts = 50
	merchantAccounts = 10
)

var initialBalance = decimal.NewFromInt(1000)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, using system environment")
	}
	cfg := config.Load()
	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to database")
	}
	defer pool.Close()

	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM accounts").Scan(&count); err != nil {
		log.Fatal().Err(err).Msg("could not count accounts")
	}
	if count > 0 {
		log.Info().Int("accounts", count).Msg("database already seeded, skipping")
		return
	}

	rows := make([][]any, 0, ordinaryAccounts+merchantAccounts)
	for i := 0; i < ordinaryAccounts; i++ {
		rows = append(rows, []any{uuid.New(), string(domain.RoleOrdinary), initialBalance})
	}
	for i := 0; i < merchantAccounts; i++ {
		rows = append(rows, []any{uuid.New(), string(domain.RoleMerchant), initialBalance})
	}

	inserted, err := pool.CopyFrom(
		ctx,
		pgx.Identifier{"accounts"},
		[]string{"id", "role", "balance"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("bulk insert failed")
	}

	log.Info().Int64("accounts", inserted).Msg("database seeded")
}
