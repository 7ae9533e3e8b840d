package cmd

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/omdiwan06/CricketRAG/internal/rag/models"
	"github.com/omdiwan06/CricketRAG/pkg/util"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var queryTopK int

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a question against the indexed corpus",
	Args:  cobra.MinimumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		logger := util.NewLogger(zerolog.InfoLevel)
		ctx := context.Background()

		app, err := newApplication(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize application")
		}
		defer app.Close()

		request := &models.QueryRequest{
			Query: strings.Join(args, " "),
			TopK:  queryTopK,
		}

		response := app.rag.Query(ctx, request)

		jsonOutput, err := json.MarshalIndent(response, "", "  ")
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to marshal JSON")
		}
		logger.Info().RawJSON("response", jsonOutput).Msg("Query completed")
	},
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 5, "Number of source documents to return")
	rootCmd.AddCommand(queryCmd)
}
