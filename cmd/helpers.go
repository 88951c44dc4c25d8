package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/boardpack/internal/dataset"
	"github.com/sells-group/boardpack/internal/metrics"
	"github.com/sells-group/boardpack/internal/store"
)

// loadMetrics loads the four datasets and computes the metrics package.
func loadMetrics() (*dataset.Tables, *metrics.Package, error) {
	tables, err := dataset.Load(cfg.Paths)
	if err != nil {
		return nil, nil, err
	}
	pkg, err := metrics.Compute(tables, cfg.Project, cfg.RAG)
	if err != nil {
		return nil, nil, err
	}
	return tables, pkg, nil
}

// openStore opens the configured run-history store.
func openStore(ctx context.Context) (store.Store, error) {
	s, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open run store")
	}
	return s, nil
}
