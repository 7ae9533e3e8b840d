package cmd

import (
	"context"

	"github.com/omdiwan06/CricketRAG/internal/config"
	historyrepo "github.com/omdiwan06/CricketRAG/internal/history/repository"
	historyservices "github.com/omdiwan06/CricketRAG/internal/history/services"
	"github.com/omdiwan06/CricketRAG/internal/rag/loader"
	ragrepo "github.com/omdiwan06/CricketRAG/internal/rag/repository"
	ragservices "github.com/omdiwan06/CricketRAG/internal/rag/services"
	"github.com/omdiwan06/CricketRAG/pkg/db"
)

// application bundles the wired services for a command invocation.
type application struct {
	cfg      *config.Config
	database *db.DB
	rag      *ragservices.RAGService
	history  *historyservices.HistoryService
}

// newApplication loads configuration, connects to the database and wires
// the full service graph: model binding (with dimension probe), vector
// store binding, query pipeline, history ledger and orchestration.
func newApplication(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	database, err := db.NewConnection(cfg)
	if err != nil {
		return nil, err
	}

	repo, err := ragrepo.New(ctx, cfg, database)
	if err != nil {
		database.Close()
		return nil, err
	}

	historyService := historyservices.NewHistoryService(historyrepo.NewHistoryRepository(database))
	ragService := ragservices.NewRAGService(repo, historyService, loader.NewDirectoryLoader())

	return &application{
		cfg:      cfg,
		database: database,
		rag:      ragService,
		history:  historyService,
	}, nil
}

func (a *application) Close() {
	if a.database != nil {
		a.database.Close()
	}
}
