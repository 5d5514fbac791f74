package main

import (
	"context"
	"flag"
	"time"

	"quickchat-backend/internal/config"
	"quickchat-backend/internal/database"
	"quickchat-backend/internal/env"
	"quickchat-backend/internal/logging"

	"github.com/rs/zerolog/log"
)

// dynamo-setup creates the Users and Messages tables with their indexes.
// Existing tables are left alone, so it is safe to run on every deploy.
func main() {
	listOnly := flag.Bool("list", false, "only list existing tables")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall timeout")
	flag.Parse()

	logging.Setup(env.GetOrDefault(env.LogLevel, "info"), env.GetBool(env.LogPretty, true))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := database.NewDatabase(ctx, config.LoadAWS())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init dynamodb client")
	}

	if !*listOnly {
		if err := db.Client.EnsureTables(ctx, database.TableDefinitions()); err != nil {
			log.Fatal().Err(err).Msg("Failed to create tables")
		}
	}

	tables, err := db.Client.ListTables(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list tables")
	}
	log.Info().Strs("tables", tables).Msg("DynamoDB tables")
}
