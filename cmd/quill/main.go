package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mjacome/quill/internal/auth"
	"github.com/mjacome/quill/internal/database"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/xlab/closer"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/mjacome/quill/internal/api"
)

func main() {

	defer closer.Close()

	closer.Bind(func() {
		log.Info().Msg("shutdown")
	})

	cfg, err := initConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Can't init config")
	}

	if err := initLogger(cfg); err != nil {
		log.Fatal().Err(err).Msg("Can't init logger")
	}

	if cfg.InMemory {
		log.Info().Msg("save data in memory")
	} else {
		mf, err := migrateData(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Can't init migration")
		}
		closer.Bind(mf)
	}

	ctx, cancelCtx := context.WithCancel(context.Background())
	closer.Bind(cancelCtx)

	a, cleanup, err := initApp(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Can't init app")
	}
	closer.Bind(cleanup)
	closer.Bind(a.Close)
	if err := a.Start(); err != nil {
		log.Fatal().Err(err).Msg("Can't start app")
	}

}

func initLogger(c *config) error {
	log.Debug().Msg("init logger")
	logLvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(logLvl)
	switch c.LogFmt {
	case "console":
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	case "json":
	default:
		return fmt.Errorf("unknown output format %s", c.LogFmt)

	}
	return nil
}

func migrateData(cfg *config) (func(), error) {
	log.Debug().Msg("start migrating data")
	m, err := migrate.New(
		cfg.MigrationDirectory,
		cfg.DbAddr)
	if err != nil {
		return nil, err
	}

	mClose := func() {
		if err, _ := m.Close(); err != nil {
			log.Error().Err(err).Msg("can not graceful stop migration")
		}
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		log.Error().Err(err).Msg("can not migrate data")
		return mClose, err
	}

	v, _, err := m.Version()
	if err != nil {
		log.Error().Err(err).Msg("can not get migration version")
		return mClose, err
	}
	log.Info().Uint("version", v).Msg("migration succesful")

	return mClose, nil
}

func initRepositoryConfig(cfg *config) *database.Config {
	return &database.Config{InMemory: cfg.InMemory, DbAddr: cfg.DbAddr}
}

func initAuthConfig(cfg *config) *auth.Config {
	return &auth.Config{
		Secret:   cfg.JWTSecret,
		UserTTL:  auth.DefaultUserTTL,
		AdminTTL: auth.DefaultAdminTTL,
	}
}

func initApiConfig(cfg *config) *api.Config {
	return &api.Config{Listen: cfg.Listen}
}
