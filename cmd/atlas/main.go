// Package main provides the atlas binary: it builds a connectivity map from
// zone content, a saved document, or the database, answers room and city
// queries, and persists the result.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/mudkit/atlas/internal/atlas"
	"github.com/mudkit/atlas/internal/config"
	"github.com/mudkit/atlas/internal/npc"
	"github.com/mudkit/atlas/internal/observability"
	"github.com/mudkit/atlas/internal/storage/postgres"
	"github.com/mudkit/atlas/internal/world"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/atlas.yaml", "path to configuration file")
	zonesDir := flag.String("zones", "", "build the map from zone YAML files in this directory (default: content.zones_dir from config)")
	loadPath := flag.String("load", "", "build the map from a saved connectivity document")
	dbLoad := flag.Bool("db-load", false, "build the map from the database room table")
	savePath := flag.String("save", "", "write the connectivity document to this path")
	dbSave := flag.Bool("db-save", false, "write the room table to the database")
	roomID := flag.String("room", "", "print connectivity for this room")
	cityID := flag.String("city", "", "print connectivity for this city")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	mode := cfg.Map.AdjacencyMode()

	sources := 0
	for _, set := range []bool{*zonesDir != "", *loadPath != "", *dbLoad} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		fmt.Fprintln(os.Stderr, "at most one of -zones, -load, -db-load may be given")
		os.Exit(1)
	}

	var pool *postgres.Pool
	if *dbLoad || *dbSave {
		dbStart := time.Now()
		pool, err = postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		logger.Info("database connected", zap.Duration("elapsed", time.Since(dbStart)))
	}

	m, err := buildMap(ctx, cfg, mode, *zonesDir, *loadPath, *dbLoad, pool, logger)
	if err != nil {
		logger.Fatal("building connectivity map", zap.Error(err))
	}
	logger.Info("map ready",
		zap.String("mode", string(mode)),
		zap.Int("rooms", m.RoomCount()),
		zap.Int("zones", m.ZoneCount()),
		zap.Duration("elapsed", time.Since(start)),
	)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if *roomID != "" {
		if err := printRoom(enc, m, cfg, *roomID, logger); err != nil {
			logger.Fatal("room query", zap.Error(err))
		}
	}
	if *cityID != "" {
		if err := enc.Encode(m.CityConnectivity(*cityID)); err != nil {
			logger.Fatal("city query", zap.Error(err))
		}
	}
	if *roomID == "" && *cityID == "" && *savePath == "" && !*dbSave {
		if err := enc.Encode(m.Snapshot()); err != nil {
			logger.Fatal("printing map", zap.Error(err))
		}
	}

	if *savePath != "" {
		if err := m.SaveFile(*savePath); err != nil {
			logger.Fatal("saving map", zap.Error(err))
		}
		logger.Info("map saved", zap.String("path", *savePath))
	}
	if *dbSave {
		if err := postgres.NewRoomRepository(pool.DB()).SaveMap(ctx, m); err != nil {
			logger.Fatal("saving map to database", zap.Error(err))
		}
		logger.Info("map saved to database", zap.Int("rooms", m.RoomCount()))
	}
}

// buildMap constructs the map from the selected source. With no source given
// it falls back to the configured zones directory.
func buildMap(ctx context.Context, cfg config.Config, mode atlas.AdjacencyMode,
	zonesDir, loadPath string, dbLoad bool, pool *postgres.Pool, logger *zap.Logger) (*atlas.Map, error) {

	if dbLoad {
		return postgres.NewRoomRepository(pool.DB()).LoadMap(ctx, mode)
	}

	m, err := atlas.NewMap(mode)
	if err != nil {
		return nil, err
	}

	if loadPath != "" {
		if err := m.LoadFile(loadPath); err != nil {
			return nil, err
		}
		return m, nil
	}

	dir := zonesDir
	if dir == "" {
		dir = cfg.Content.ZonesDir
	}
	zoneStart := time.Now()
	zones, err := world.LoadZonesFromDir(dir)
	if err != nil {
		return nil, err
	}
	if err := world.PopulateMap(m, zones); err != nil {
		return nil, err
	}
	logger.Info("zones ingested",
		zap.Int("zones", len(zones)),
		zap.Duration("elapsed", time.Since(zoneStart)),
	)
	return m, nil
}

// roomView is the room query output: connectivity plus any NPCs recorded at
// the room's location.
type roomView struct {
	atlas.RoomConnectivity
	Found bool         `json:"found"`
	NPCs  []npc.Record `json:"npcs,omitempty"`
}

// printRoom writes the room's connectivity, joined with NPC records from the
// configured store when one exists.
func printRoom(enc *json.Encoder, m *atlas.Map, cfg config.Config, roomID string, logger *zap.Logger) error {
	view := roomView{}
	rc, ok := m.RoomConnectivity(roomID)
	view.RoomConnectivity = rc
	view.Found = ok

	if ok && cfg.Content.NPCFile != "" {
		store, err := npc.OpenStore(cfg.Content.NPCFile)
		if err != nil {
			return err
		}
		view.NPCs = store.InLocation(roomID)
		logger.Debug("npc store consulted",
			zap.String("room_id", roomID),
			zap.Int("npcs", len(view.NPCs)),
		)
	}
	return enc.Encode(view)
}
