package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/chazu/spatial/pkg/canvas"
	"github.com/chazu/spatial/pkg/config"
	"github.com/chazu/spatial/pkg/engine"
	"github.com/chazu/spatial/pkg/persist"
	"github.com/chazu/spatial/pkg/store"
	"github.com/sirupsen/logrus"
)

// workspace is the loaded configuration, database and store shared by the
// subcommands.
type workspace struct {
	cfg   config.Config
	log   *logrus.Logger
	repo  *persist.Repository
	store *store.Memory
}

// openWorkspace loads configuration, opens the database and fills the
// store. An empty database is seeded from the configured layout script, or
// the built-in one.
func openWorkspace() (*workspace, error) {
	cfg, log, repo, err := openRepository()
	if err != nil {
		return nil, err
	}
	w := &workspace{cfg: cfg, log: log, repo: repo, store: store.NewMemory(store.WithLogger(log))}

	doc, err := repo.Load()
	if errors.Is(err, persist.ErrEmpty) {
		doc, err = w.seed()
		if err == nil {
			err = repo.Save(doc)
		}
	}
	if err == nil {
		err = w.store.Load(doc)
	}
	if err != nil {
		repo.Close()
		return nil, err
	}
	return w, nil
}

// openRepository loads configuration and opens the database without
// reading it.
func openRepository() (config.Config, *logrus.Logger, *persist.Repository, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("config: %w", err)
	}
	log, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("logger: %w", err)
	}
	repo, err := persist.Open(cfg.DBPath, log)
	if err != nil {
		return cfg, nil, nil, err
	}
	return cfg, log, repo, nil
}

// seed evaluates the configured seed script.
func (w *workspace) seed() (store.Document, error) {
	source, name := engine.DefaultSeed, "built-in seed"
	if w.cfg.Seed != "" {
		data, err := os.ReadFile(w.cfg.Seed)
		if err != nil {
			return store.Document{}, fmt.Errorf("seed: %w", err)
		}
		source, name = string(data), w.cfg.Seed
	}
	w.log.WithField("seed", name).Info("seeding empty database")
	return evalLayout(engine.NewEngine(), source)
}

// evalLayout runs a layout script and returns its document, joining every
// script error into one.
func evalLayout(eng *engine.Engine, source string) (store.Document, error) {
	doc, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		return store.Document{}, fmt.Errorf("layout: %w", err)
	}
	if len(evalErrs) > 0 {
		errs := make([]error, len(evalErrs))
		for i, e := range evalErrs {
			errs[i] = e
		}
		return store.Document{}, fmt.Errorf("layout: %w", errors.Join(errs...))
	}
	return *doc, nil
}

// autosave saves the store after every burst of changes.
func (w *workspace) autosave() {
	w.store.SetOnChange(w.repo.AutoSave(w.store.Export, w.cfg.AutosaveDelay))
}

// controller returns a controller over the store sized to the configured
// viewport.
func (w *workspace) controller() *canvas.Controller {
	mode, _ := canvas.ParseMode(w.cfg.Mode)
	return canvas.NewController(w.store,
		float64(w.cfg.Viewport.Width), float64(w.cfg.Viewport.Height),
		canvas.WithLogger(w.log), canvas.WithMode(mode))
}

// Close flushes the store to the database and closes it.
func (w *workspace) Close() error {
	w.store.SetOnChange(nil)
	saveErr := w.repo.Save(w.store.Export())
	return errors.Join(saveErr, w.repo.Close())
}
