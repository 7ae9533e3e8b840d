package cmd

import (
	"context"

	"github.com/omdiwan06/CricketRAG/internal/config"
	historyrepo "github.com/omdiwan06/CricketRAG/internal/history/repository"
	"github.com/omdiwan06/CricketRAG/pkg/db"
	"github.com/omdiwan06/CricketRAG/pkg/util"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Initialize the database schema",
	Long:  `Create the query history tables and ensure the pgvector extension exists.`,
	Run: func(_ *cobra.Command, _ []string) {
		logger := util.NewLogger(zerolog.InfoLevel)
		ctx := context.Background()

		cfg, err := config.Load()
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to load configuration")
		}

		database, err := db.NewConnection(cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer database.Close()
		logger.Info().Msg("Database connection established")

		// Best-effort: the extension may already exist or the role may lack
		// the privilege
		if _, err := database.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
			logger.Warn().Err(err).Msg("Could not ensure pgvector extension")
		}

		if err := historyrepo.NewHistoryRepository(database).InitSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize history schema")
		}

		logger.Info().Msg("Database tables created successfully")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
