// Command seeduser creates or refreshes a user row for local testing.
package main

import (
	"context"
	"flag"

	"github.com/joho/godotenv"

	"stickerline/internal/adapter/repo"
	"stickerline/internal/domain"
	"stickerline/internal/infra"
)

func main() {
	lineID := flag.String("line-id", "", "LINE user id to seed")
	name := flag.String("name", "Test User", "display name")
	picture := flag.String("picture", "", "profile picture URL")
	coins := flag.Int("coins", domain.FreeTrialCoins, "extra coins to credit on top of the trial grant")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	if *lineID == "" {
		logger.Fatal().Msg("-line-id is required")
	}

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	users := repo.NewUserRepository(dbpool)
	user, err := users.Sync(ctx, &domain.User{
		ID:          *lineID,
		DisplayName: *name,
		PictureURL:  *picture,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("seed user failed")
	}

	if *coins > 0 {
		if _, err := users.RefundCoins(ctx, user.ID, *coins); err != nil {
			logger.Fatal().Err(err).Msg("credit coins failed")
		}
	}

	refreshed, err := users.GetByID(ctx, user.ID)
	if err != nil {
		logger.Fatal().Err(err).Msg("reload user failed")
	}
	logger.Info().
		Str("user_id", refreshed.ID).
		Int("coin_balance", refreshed.CoinBalance).
		Msg("user seeded")
}
