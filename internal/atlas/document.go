package atlas

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
)

// ErrMalformedDocument is returned when a connectivity document does not
// contain the required rooms table.
var ErrMalformedDocument = errors.New("connectivity document missing rooms table")

// Document is the canonical form of a Map's state. Key names are stable
// across implementations: rooms, zones, city_connections. The zones and
// city_connections tables are output-only; restore rederives them by
// replaying the rooms table and never trusts them as input.
type Document struct {
	Rooms           map[string]RoomRecord `json:"rooms"`
	Zones           map[string][]string   `json:"zones"`
	CityConnections map[string][]string   `json:"city_connections"`
}

// RoomRecord is a single room's persisted state. Neighbor order carries no
// meaning; snapshots emit it sorted.
type RoomRecord struct {
	CityID    string   `json:"city_id"`
	Neighbors []string `json:"neighbors"`
}

// RoomEntry pairs a room ID with its stored state. Slices of RoomEntry
// produced by Map.Rooms preserve registration order.
type RoomEntry struct {
	RoomID    string
	CityID    string
	Neighbors []string
}

// Snapshot returns an immutable copy of the full map state in its canonical
// form. All collections are non-nil and sorted.
func (m *Map) Snapshot() Document {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc := Document{
		Rooms:           make(map[string]RoomRecord, len(m.rooms)),
		Zones:           make(map[string][]string, len(m.zones)),
		CityConnections: make(map[string][]string, len(m.connections)),
	}
	for id, entry := range m.rooms {
		doc.Rooms[id] = RoomRecord{
			CityID:    entry.cityID,
			Neighbors: sortedKeys(entry.neighbors),
		}
	}
	for city, members := range m.zones {
		doc.Zones[city] = sortedKeys(members)
	}
	for city, conns := range m.connections {
		doc.CityConnections[city] = sortedKeys(conns)
	}
	return doc
}

// Rooms returns all registered rooms in registration order. A room that was
// overwritten keeps its original position.
//
// Postcondition: Returns a non-nil slice; may be empty.
func (m *Map) Rooms() []RoomEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]RoomEntry, 0, len(m.order))
	for _, id := range m.order {
		entry, ok := m.rooms[id]
		if !ok {
			continue
		}
		out = append(out, RoomEntry{
			RoomID:    id,
			CityID:    entry.cityID,
			Neighbors: sortedKeys(entry.neighbors),
		})
	}
	return out
}

// Replay clears all map state and rebuilds it by registering every entry in
// order through the normal registration path. This is the single restore
// primitive: file loads replay in document order, database loads replay in
// stored sequence order.
//
// Postcondition: On error the map is left cleared, never half-restored from
// a prior state.
func (m *Map) Replay(entries []RoomEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reset()
	for _, e := range entries {
		if err := m.addRoomLocked(e.RoomID, e.CityID, e.Neighbors); err != nil {
			m.reset()
			return fmt.Errorf("replaying room %q: %w", e.RoomID, err)
		}
	}
	return nil
}

// Restore rebuilds the map from a Document. The Document's map form carries
// no registration order, so replay runs sorted by room ID — the fixed,
// deterministic fallback order. Prefer Load for documents read from files:
// it preserves the order the rooms table was written in.
func (m *Map) Restore(doc Document) error {
	if doc.Rooms == nil {
		return ErrMalformedDocument
	}

	ids := make([]string, 0, len(doc.Rooms))
	for id := range doc.Rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	entries := make([]RoomEntry, 0, len(ids))
	for _, id := range ids {
		rec := doc.Rooms[id]
		entries = append(entries, RoomEntry{RoomID: id, CityID: rec.CityID, Neighbors: rec.Neighbors})
	}
	return m.Replay(entries)
}

// Save writes the map state to w as an indented JSON document. The rooms
// table is written in registration order: encoding/json sorts map keys, so
// the table is emitted by hand to keep the order a later Load will replay.
//
// Postcondition: Returns a non-nil error on encoding or write failure; the
// failure is never silently swallowed.
func (m *Map) Save(w io.Writer) error {
	entries := m.Rooms()
	doc := m.Snapshot()

	var buf bytes.Buffer
	buf.WriteString("{\n  \"rooms\": {")
	for i, e := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.RoomID)
		if err != nil {
			return fmt.Errorf("encoding room ID %q: %w", e.RoomID, err)
		}
		rec, err := json.Marshal(RoomRecord{CityID: e.CityID, Neighbors: e.Neighbors})
		if err != nil {
			return fmt.Errorf("encoding room %q: %w", e.RoomID, err)
		}
		buf.WriteString("\n    ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(rec)
	}
	if len(entries) > 0 {
		buf.WriteString("\n  ")
	}
	buf.WriteString("},\n  \"zones\": ")
	zones, err := json.Marshal(doc.Zones)
	if err != nil {
		return fmt.Errorf("encoding zones table: %w", err)
	}
	buf.Write(zones)
	buf.WriteString(",\n  \"city_connections\": ")
	conns, err := json.Marshal(doc.CityConnections)
	if err != nil {
		return fmt.Errorf("encoding city connections table: %w", err)
	}
	buf.Write(conns)
	buf.WriteString("\n}\n")

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing connectivity document: %w", err)
	}
	return nil
}

// Load reads a JSON connectivity document from r and restores the map by
// replaying the rooms table in the order it appears in the document — the
// stored registration order when the document came from Save.
//
// Postcondition: Returns ErrMalformedDocument if the rooms table is absent,
// or a decode error on malformed JSON.
func (m *Map) Load(r io.Reader) error {
	entries, err := decodeRoomsTable(r)
	if err != nil {
		return err
	}
	return m.Replay(entries)
}

// decodeRoomsTable streams the document's rooms object, preserving key
// order. The zones and city_connections values are skipped: they are
// advisory output, rederived on replay.
func decodeRoomsTable(r io.Reader) ([]RoomEntry, error) {
	dec := json.NewDecoder(r)

	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("decoding connectivity document: %w", err)
	}

	var entries []RoomEntry
	seenRooms := false
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decoding connectivity document: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("decoding connectivity document: unexpected token %v", keyTok)
		}

		if key != "rooms" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, fmt.Errorf("decoding connectivity document key %q: %w", key, err)
			}
			continue
		}

		seenRooms = true
		if err := expectDelim(dec, '{'); err != nil {
			return nil, fmt.Errorf("decoding rooms table: %w", err)
		}
		for dec.More() {
			idTok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("decoding rooms table: %w", err)
			}
			id, ok := idTok.(string)
			if !ok {
				return nil, fmt.Errorf("decoding rooms table: unexpected token %v", idTok)
			}
			var rec RoomRecord
			if err := dec.Decode(&rec); err != nil {
				return nil, fmt.Errorf("decoding room %q: %w", id, err)
			}
			entries = append(entries, RoomEntry{RoomID: id, CityID: rec.CityID, Neighbors: rec.Neighbors})
		}
		if _, err := dec.Token(); err != nil { // closing }
			return nil, fmt.Errorf("decoding rooms table: %w", err)
		}
	}

	if !seenRooms {
		return nil, ErrMalformedDocument
	}
	if entries == nil {
		entries = []RoomEntry{}
	}
	return entries, nil
}

// expectDelim consumes the next token and checks it is the given delimiter.
func expectDelim(dec *json.Decoder, d rune) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != json.Delim(d) {
		return fmt.Errorf("expected %q, got %v", d, tok)
	}
	return nil
}

// SaveFile writes the map state to the given path.
func (m *Map) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating map file %s: %w", path, err)
	}
	if err := m.Save(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing map file %s: %w", path, err)
	}
	return nil
}

// LoadFile restores the map from a JSON document at the given path.
func (m *Map) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening map file %s: %w", path, err)
	}
	defer f.Close()
	return m.Load(f)
}
