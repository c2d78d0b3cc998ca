package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/gaprio/auth-service/internal/api"
	"github.com/gaprio/auth-service/internal/controller"
	"github.com/gaprio/auth-service/internal/migrations"
	"github.com/gaprio/auth-service/internal/service"
	"github.com/gaprio/auth-service/internal/storage/postgres"
	"github.com/gaprio/auth-service/internal/storage/redis"
	"github.com/gaprio/auth-service/internal/util"

	_ "github.com/lib/pq"
)

func main() {
	ctx := context.Background()
	logger := util.NewZapLogger()

	db, dbCleanup, err := util.NewDBConnection(logger)
	if err != nil {
		logger.Fatal(zap.Error(err))
	}
	if err := migrations.RunMigrations(db, logger); err != nil {
		logger.Fatal(zap.Error(err))
	}

	redisClient, redisCleanup, err := util.NewRedisClient(logger, util.NewRedisConfig())
	if err != nil {
		logger.Fatal(zap.Error(err))
	}

	store := postgres.NewStorage(db)
	cleanupFuncs := []func(){dbCleanup, redisCleanup}

	blacklist := redis.NewTokenBlacklist(redisClient)
	codeStorage := redis.NewCodeStorage(redisClient)

	tokenService := service.NewTokenService(util.NewTokenConfig(), blacklist)
	mailerService := service.NewMailerService(logger, util.GetMailerURL())
	authService := service.NewAuthService(
		tokenService,
		store,
		codeStorage,
		mailerService,
		util.NewVerificationConfig(),
		logger,
	)

	ctrl := controller.NewController(logger, authService)

	apiServer := api.NewAPI(ctrl, tokenService, util.NewServerConfig(), logger, cleanupFuncs)
	apiServer.Run(ctx)
}
