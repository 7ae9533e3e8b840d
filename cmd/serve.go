package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/omdiwan06/CricketRAG/internal/server"
	"github.com/omdiwan06/CricketRAG/pkg/util"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Start the HTTP API server exposing the RAG query and history endpoints.`,
	Run: func(_ *cobra.Command, _ []string) {
		logger := util.NewLogger(zerolog.InfoLevel)

		app, err := newApplication(context.Background())
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize application")
		}
		defer app.Close()

		handler := server.New(app.rag, app.history, app.cfg.DataFolder).Handler()
		httpServer := &http.Server{
			Addr:              ":" + servePort,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		logger.Info().Str("port", servePort).Msg("Ultimate Advisor API server started")
		if err := httpServer.ListenAndServe(); err != nil {
			logger.Fatal().Err(err).Msg("Server stopped")
		}
	},
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "8000", "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}
