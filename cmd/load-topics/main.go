package main

import (
	"flag"
	"os"

	"rank-it/internal/config"
	"rank-it/internal/db"
	"rank-it/internal/logging"
	"rank-it/internal/topics"
)

func main() {
	filePath := flag.String("file", "topics.csv", "path to topics csv (rows of topic,item)")
	flag.Parse()

	logger := logging.New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	if err := config.LoadDotEnv(".env"); err != nil {
		logger.Warn().Err(err).Msg("failed to load .env")
	}
	cfg := config.Load(config.NewViper())

	conn, err := db.Open(cfg.DatabaseURL, cfg.Pool())
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}

	seeds, err := topics.ReadFile(*filePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to read topics")
	}

	res, err := db.LoadTopicLibrary(conn, seeds)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load topics")
	}
	logger.Info().Int("topics", len(seeds)).Int("items", res.Inserted).Msg("topic library loaded")
	if len(res.Frozen) > 0 {
		logger.Warn().Strs("topics", res.Frozen).Msg("new items skipped for topics already used by rounds")
	}
}
