// mkadmin bootstraps an administrator account. Registration over HTTP
// only ever creates ordinary users, so the first admin has to be written
// to the store directly.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/xlab/closer"

	"github.com/mjacome/quill/internal/auth"
	"github.com/mjacome/quill/internal/database"
	"github.com/mjacome/quill/internal/models"
)

var (
	username string
	password string
	email    string
)

func init() {
	flag.StringVar(&username, "username", "", "admin account name")
	flag.StringVar(&password, "password", "", "admin account password")
	flag.StringVar(&email, "email", "", "admin account email")
}

func main() {

	flag.Parse()
	if username == "" || password == "" || email == "" {
		fmt.Fprintln(os.Stderr, "usage: mkadmin -username <name> -password <pass> -email <addr>")
		os.Exit(2)
	}

	defer closer.Close()

	cfg, err := initConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Can't init config")
	}

	if err := initLogger(cfg); err != nil {
		log.Fatal().Err(err).Msg("Can't init logger")
	}

	ctx, cancelCtx := context.WithCancel(context.Background())
	closer.Bind(cancelCtx)

	repos, cleanup, err := database.NewRepositoryProvider(ctx, &database.Config{DbAddr: cfg.DbAddr})
	if err != nil {
		log.Fatal().Err(err).Msg("Can't connect to database")
	}
	closer.Bind(cleanup)

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatal().Err(err).Msg("Can't hash password")
	}

	id, err := repos.Users.Add(ctx, &models.UserDTO{
		Username: username,
		Password: hash,
		Email:    email,
		Type:     models.RoleAdmin,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Can't create admin account")
	}
	log.Info().Int64("id", id).Str("username", username).Msg("admin account created")
}

func initLogger(c *config) error {
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
