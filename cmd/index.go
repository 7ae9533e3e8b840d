package cmd

import (
	"context"

	"github.com/omdiwan06/CricketRAG/pkg/util"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	indexDirectory string
	indexRecreate  bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Load and index documents from the data folder",
	Long:  `Load every supported document from a directory, split it into chunks, embed the chunks and persist them into the vector store.`,
	Run: func(cmd *cobra.Command, _ []string) {
		logger := util.NewLogger(zerolog.InfoLevel)
		ctx := context.Background()

		app, err := newApplication(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize application")
		}
		defer app.Close()

		directory := indexDirectory
		if directory == "" {
			directory = app.cfg.DataFolder
		}

		if indexRecreate {
			logger.Info().Msg("Recreating vector table before indexing")
			if !app.rag.ForceRecreateIndex(ctx) {
				logger.Fatal().Msg("Failed to recreate vector table")
			}
		}

		if !app.rag.IndexFromDirectory(ctx, directory) {
			logger.Fatal().Str("directory", directory).Msg("Indexing failed")
		}

		count := app.rag.GetDocumentCount(ctx)
		logger.Info().Int("chunks", count).Msg("Indexing completed")
	},
}

func init() {
	indexCmd.Flags().StringVarP(&indexDirectory, "dir", "d", "", "Directory to load documents from (defaults to the configured data folder)")
	indexCmd.Flags().BoolVar(&indexRecreate, "recreate", false, "Drop and recreate the vector table before indexing")
	rootCmd.AddCommand(indexCmd)
}
