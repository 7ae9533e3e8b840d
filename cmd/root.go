package cmd

import (
	"github.com/omdiwan06/CricketRAG/pkg/util"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cricketrag",
	Short: "A RAG-based question answering service for cricket laws and guidance",
	Long: `cricketrag indexes a corpus of documents into a pgvector-backed store and
answers natural-language questions against it, recording every query in an
append-only history ledger.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger := util.NewLogger(zerolog.ErrorLevel)
		logger.Fatal().Err(err).Msg("Command failed")
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	logger := util.NewLogger(zerolog.ErrorLevel)
	err := godotenv.Load()
	if err != nil {
		logger.Warn().Msg("No .env file found, using system environment variables")
	}
}
