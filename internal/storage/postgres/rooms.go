package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mudkit/atlas/internal/atlas"
)

// ErrEmptyRoomTable is returned when loading a map from a database that holds
// no rooms.
var ErrEmptyRoomTable = errors.New("no rooms stored")

// RoomRepository persists a connectivity map's room table. Each row carries a
// monotonically increasing sequence, so loads replay rooms in the exact order
// they were registered — the derived zone and adjacency tables are never
// stored, only rederived.
type RoomRepository struct {
	db *pgxpool.Pool
}

// NewRoomRepository creates a RoomRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewRoomRepository(db *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{db: db}
}

// Replace rewrites the whole room table from the given entries inside one
// transaction. Entry order is preserved through the sequence column.
//
// Postcondition: On success the table holds exactly the given entries; on
// error the previous contents are untouched.
func (r *RoomRepository) Replace(ctx context.Context, entries []atlas.RoomEntry) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning room replace: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE atlas_rooms RESTART IDENTITY`); err != nil {
		return fmt.Errorf("truncating room table: %w", err)
	}
	for _, e := range entries {
		if _, err := tx.Exec(ctx, `
			INSERT INTO atlas_rooms (room_id, city_id, neighbors)
			VALUES ($1, $2, $3)`,
			e.RoomID, e.CityID, e.Neighbors,
		); err != nil {
			return fmt.Errorf("inserting room %q: %w", e.RoomID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing room replace: %w", err)
	}
	return nil
}

// LoadEntries returns all stored rooms in registration order.
//
// Postcondition: Returns a non-nil slice (may be empty) or a non-nil error.
func (r *RoomRepository) LoadEntries(ctx context.Context) ([]atlas.RoomEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT room_id, city_id, neighbors
		FROM atlas_rooms ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying rooms: %w", err)
	}
	defer rows.Close()

	entries := make([]atlas.RoomEntry, 0)
	for rows.Next() {
		var e atlas.RoomEntry
		if err := rows.Scan(&e.RoomID, &e.CityID, &e.Neighbors); err != nil {
			return nil, fmt.Errorf("scanning room row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading room rows: %w", err)
	}
	return entries, nil
}

// SaveMap stores the map's room table, replacing any previous contents.
func (r *RoomRepository) SaveMap(ctx context.Context, m *atlas.Map) error {
	return r.Replace(ctx, m.Rooms())
}

// LoadMap builds a fresh map in the given mode by replaying every stored
// room in registration order.
//
// Postcondition: Returns a populated Map, or ErrEmptyRoomTable (wrapped) when
// the table holds no rooms.
func (r *RoomRepository) LoadMap(ctx context.Context, mode atlas.AdjacencyMode) (*atlas.Map, error) {
	entries, err := r.LoadEntries(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("loading connectivity map: %w", ErrEmptyRoomTable)
	}

	m, err := atlas.NewMap(mode)
	if err != nil {
		return nil, err
	}
	if err := m.Replay(entries); err != nil {
		return nil, err
	}
	return m, nil
}
