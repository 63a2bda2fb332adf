// Package npc provides the flat NPC record store and the task dispatcher
// that serves dialogue, quest, and trade lookups from it.
package npc

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an NPC lookup yields no record.
var ErrNotFound = errors.New("npc not found")

// ErrDuplicateID is returned when adding a record whose ID is already taken.
var ErrDuplicateID = errors.New("npc id already taken")

// Quest is a quest offered by an NPC.
type Quest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Item is a tradable entry in an NPC's inventory.
type Item struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Record is a single NPC: a unique ID, a location (room ID), and the
// dialogue/quest/trade payloads the dispatcher serves.
type Record struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Location  string            `json:"location"`
	Dialogues map[string]string `json:"dialogues,omitempty"`
	Quests    []Quest           `json:"quests,omitempty"`
	Inventory []Item            `json:"inventory,omitempty"`
}

// clone returns a deep copy so callers never alias store-owned state.
func (r *Record) clone() Record {
	out := *r
	if r.Dialogues != nil {
		out.Dialogues = make(map[string]string, len(r.Dialogues))
		for k, v := range r.Dialogues {
			out.Dialogues[k] = v
		}
	}
	out.Quests = append([]Quest(nil), r.Quests...)
	out.Inventory = append([]Item(nil), r.Inventory...)
	return out
}

// Store holds the NPC records of one JSON file and indexes them by ID and by
// location. Mutations rewrite the whole file. All methods are safe for
// concurrent use.
type Store struct {
	mu      sync.RWMutex
	path    string
	records []*Record
	index   map[string]*Record
}

// OpenStore loads the record list from path. A missing file yields an empty
// store, not an error; any other read or parse failure is surfaced.
//
// Postcondition: Returns a Store with all records indexed by ID, or an error
// on unreadable files, malformed JSON, or duplicate/empty record IDs.
func OpenStore(path string) (*Store, error) {
	s := &Store{path: path, index: make(map[string]*Record)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading npc store %s: %w", path, err)
	}

	var records []*Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing npc store %s: %w", path, err)
	}
	for _, rec := range records {
		if rec.ID == "" {
			return nil, fmt.Errorf("npc store %s: record %q has no id", path, rec.Name)
		}
		if _, exists := s.index[rec.ID]; exists {
			return nil, fmt.Errorf("npc store %s: duplicate id %q", path, rec.ID)
		}
		s.records = append(s.records, rec)
		s.index[rec.ID] = rec
	}
	return s, nil
}

// Save rewrites the whole record list to the store's file.
//
// Postcondition: Returns a non-nil error on encoding or write failure.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding npc store: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing npc store %s: %w", s.path, err)
	}
	return nil
}

// Len returns the number of records in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// ByID returns a copy of the record with the given ID.
//
// Postcondition: Returns (record, true) if found, or (Record{}, false) on a
// lookup miss.
func (s *Store) ByID(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.index[id]
	if !ok {
		return Record{}, false
	}
	return rec.clone(), true
}

// InLocation returns copies of all records whose location matches, in store
// order.
//
// Postcondition: Returns a non-nil slice; may be empty.
func (s *Store) InLocation(location string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0)
	for _, rec := range s.records {
		if rec.Location == location {
			out = append(out, rec.clone())
		}
	}
	return out
}

// Add appends a new record and rewrites the file. A record with an empty ID
// is assigned a fresh UUID.
//
// Postcondition: Returns the stored record (with ID set), or ErrDuplicateID.
func (s *Store) Add(rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if _, exists := s.index[rec.ID]; exists {
		return Record{}, fmt.Errorf("adding npc %q: %w", rec.ID, ErrDuplicateID)
	}

	stored := rec.clone()
	s.records = append(s.records, &stored)
	s.index[stored.ID] = &stored

	if err := s.saveLocked(); err != nil {
		return Record{}, err
	}
	return stored.clone(), nil
}

// Patch holds optional field updates for one record. Nil fields are left
// untouched; Dialogues entries are merged key by key; Quests and Inventory
// replace the stored lists when non-nil.
type Patch struct {
	Name      *string
	Location  *string
	Dialogues map[string]string
	Quests    []Quest
	Inventory []Item
}

// Update merges patch into the record with the given ID and rewrites the
// whole file.
//
// Postcondition: Returns the updated record, or ErrNotFound.
func (s *Store) Update(id string, patch Patch) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.index[id]
	if !ok {
		return Record{}, fmt.Errorf("updating npc %q: %w", id, ErrNotFound)
	}

	if patch.Name != nil {
		rec.Name = *patch.Name
	}
	if patch.Location != nil {
		rec.Location = *patch.Location
	}
	if patch.Dialogues != nil {
		if rec.Dialogues == nil {
			rec.Dialogues = make(map[string]string, len(patch.Dialogues))
		}
		for k, v := range patch.Dialogues {
			rec.Dialogues[k] = v
		}
	}
	if patch.Quests != nil {
		rec.Quests = append([]Quest(nil), patch.Quests...)
	}
	if patch.Inventory != nil {
		rec.Inventory = append([]Item(nil), patch.Inventory...)
	}

	if err := s.saveLocked(); err != nil {
		return Record{}, err
	}
	return rec.clone(), nil
}
