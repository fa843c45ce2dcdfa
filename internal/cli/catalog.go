package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dullmace/faux-must-see/internal/adapters/catalog"
	"github.com/dullmace/faux-must-see/internal/adapters/sqlite"
	"github.com/dullmace/faux-must-see/internal/core/domain"
)

var errNoSQLitePath = errors.New("cli: catalog.sqlite_path is not configured")

// loadCatalog reads the lineup from the configured source.
func (a *app) loadCatalog(ctx context.Context) ([]domain.CandidateAct, error) {
	if a.cfg.Catalog.Source == "sqlite" {
		db, err := a.openSnapshots()
		if err != nil {
			return nil, err
		}
		defer db.Close()
		acts, err := db.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("cli: load catalog snapshot: %w", err)
		}
		return acts, nil
	}

	acts, err := catalog.NewFileStore(a.cfg.Catalog.Path).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("cli: load catalog: %w", err)
	}
	return acts, nil
}

func (a *app) openSnapshots() (*sqlite.Adapter, error) {
	if a.cfg.Catalog.SQLitePath == "" {
		return nil, errNoSQLitePath
	}
	db, err := sqlite.NewAdapter(a.cfg.Catalog.SQLitePath, a.cfg.Festival.Name)
	if err != nil {
		return nil, fmt.Errorf("cli: open snapshot store: %w", err)
	}
	return db, nil
}
