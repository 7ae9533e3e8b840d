package cmd

import (
	"context"
	"encoding/json"

	"github.com/omdiwan06/CricketRAG/pkg/util"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	historyLimit  int
	historyOffset int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the query history ledger",
	Long:  `Inspect the query history ledger - list recent queries, fetch one by id, or show aggregate statistics.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent queries, most recent first",
	Run: func(_ *cobra.Command, _ []string) {
		logger := util.NewLogger(zerolog.InfoLevel)
		ctx := context.Background()

		app, err := newApplication(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize application")
		}
		defer app.Close()

		list := app.history.GetQueryHistory(ctx, historyLimit, historyOffset)
		printJSON(logger, "history", list)
	},
}

var historyGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Get one query record with its source documents",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		logger := util.NewLogger(zerolog.InfoLevel)
		ctx := context.Background()

		queryID, err := uuid.Parse(args[0])
		if err != nil {
			logger.Fatal().Err(err).Msg("Invalid query id")
		}

		app, err := newApplication(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize application")
		}
		defer app.Close()

		record := app.history.GetQueryByID(ctx, queryID)
		if record == nil {
			logger.Fatal().Str("query_id", queryID.String()).Msg("Query not found")
		}

		printJSON(logger, "query", record)
		printJSON(logger, "source_documents", app.history.GetSourceDocumentsForQuery(ctx, queryID))
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate query statistics",
	Run: func(_ *cobra.Command, _ []string) {
		logger := util.NewLogger(zerolog.InfoLevel)
		ctx := context.Background()

		app, err := newApplication(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize application")
		}
		defer app.Close()

		printJSON(logger, "statistics", app.history.GetQueryStatistics(ctx))
	},
}

func printJSON(logger zerolog.Logger, key string, payload any) {
	jsonOutput, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to marshal JSON")
	}
	logger.Info().RawJSON(key, jsonOutput).Msg("OK")
}

func init() {
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "l", 10, "Number of records to return")
	historyListCmd.Flags().IntVarP(&historyOffset, "offset", "o", 0, "Number of records to skip")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyGetCmd)
	historyCmd.AddCommand(historyStatsCmd)
	rootCmd.AddCommand(historyCmd)
}
