package db

import (
	"database/sql"

	"github.com/omdiwan06/CricketRAG/internal/config"
	"github.com/omdiwan06/CricketRAG/pkg/util"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

type DB struct {
	*sql.DB
}

// NewConnection opens a PostgreSQL connection from the application
// configuration and verifies it with a ping.
func NewConnection(cfg *config.Config) (*DB, error) {
	logger := util.NewLogger(zerolog.ErrorLevel)

	database, err := sql.Open("postgres", cfg.DatabaseURL())
	if err != nil {
		logger.Err(err).Msg("failed to open database connection")
		return nil, err
	}

	if err := database.Ping(); err != nil {
		logger.Err(err).Msg("failed to ping database")
		database.Close()
		return nil, err
	}

	return &DB{DB: database}, nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}
