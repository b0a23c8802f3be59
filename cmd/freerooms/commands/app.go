package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"freerooms/internal/avail"
	"freerooms/internal/cache"
	"freerooms/internal/config"
	"freerooms/internal/ics"
	"freerooms/internal/rooms"
)

const (
	sqliteRoomTable        = "room_calendars"
	sqliteCombinationTable = "combination_calendars"
)

// app holds everything a subcommand needs, built from one config.
type app struct {
	cfg       *config.Config
	resources *cache.ResourceCache
	combos    *cache.CombinationCache
	engine    *avail.Engine
	db        *sql.DB
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	roomStore, comboStore, err := a.openStores(ctx)
	if err != nil {
		return nil, err
	}
	ttl := cache.WithTTL(cfg.Cache.TTL())
	a.resources = cache.NewResourceCache(roomStore, ttl)
	a.combos = cache.NewCombinationCache(comboStore, ttl)

	levels, err := cfg.Levels()
	if err != nil {
		a.Close()
		return nil, err
	}

	src := ics.NewADESource(ics.ADEConfig{
		URLTemplate:       cfg.Source.URLTemplate,
		WindowDays:        cfg.Source.WindowDays,
		Timeout:           cfg.Source.Timeout(),
		RequestsPerSecond: cfg.Source.RequestsPerSecond,
	})
	a.engine = avail.NewEngine(src, a.resources, a.combos,
		avail.WithFetchConcurrency(cfg.FetchConcurrency),
		avail.WithPassthroughBelow(*cfg.PassthroughBelow),
		avail.WithLevels(avail.LevelTable(levels)),
	)
	return a, nil
}

func (a *app) openStores(ctx context.Context) (cache.Store, cache.Store, error) {
	switch a.cfg.Cache.Backend {
	case config.BackendMemory:
		return cache.NewMemoryStore(), cache.NewMemoryStore(), nil

	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(a.cfg.Cache.SQLitePath), 0o700); err != nil {
			return nil, nil, fmt.Errorf("create sqlite directory: %w", err)
		}
		db, err := cache.OpenSQLite(ctx, a.cfg.Cache.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		a.db = db
		roomStore, err := cache.NewSQLiteStore(db, sqliteRoomTable)
		if err != nil {
			a.Close()
			return nil, nil, err
		}
		comboStore, err := cache.NewSQLiteStore(db, sqliteCombinationTable)
		if err != nil {
			a.Close()
			return nil, nil, err
		}
		return roomStore, comboStore, nil

	default:
		return cache.NewFileStore(a.cfg.Cache.Dir, cache.ResourceStampFile),
			cache.NewFileStore(a.cfg.Cache.Dir, cache.CombinationStampFile), nil
	}
}

// initCaches seeds every known room id and prepares the combination store.
func (a *app) initCaches() error {
	if err := a.resources.Init(rooms.FetchableIDs()); err != nil {
		return err
	}
	return a.combos.Init()
}

func (a *app) Close() {
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
}
