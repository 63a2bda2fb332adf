package npc

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// DefaultDialogueKey is used when a dialogue task names no key.
const DefaultDialogueKey = "default"

// NoDialogueLine is returned when an NPC has no line for the requested key.
// A missing line is a payload, not an error.
const NoDialogueLine = "No dialogue available."

// ErrQuestNotFound is returned when an NPC does not offer the requested quest.
var ErrQuestNotFound = errors.New("quest not found")

// ErrItemNotFound is returned when an NPC does not stock the requested item.
var ErrItemNotFound = errors.New("item not found")

// Dispatcher answers dialogue, quest, and trade tasks against a Store.
type Dispatcher struct {
	store  *Store
	logger *zap.Logger
}

// NewDispatcher creates a Dispatcher over the given store. A nil logger is
// replaced with a no-op logger.
//
// Precondition: store must not be nil.
func NewDispatcher(store *Store, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{store: store, logger: logger}
}

// Dialogue returns the NPC's line for the given key, falling back to the
// default key when key is empty and to NoDialogueLine when no line exists.
//
// Postcondition: Returns ErrNotFound (wrapped) only for an unknown NPC.
func (d *Dispatcher) Dialogue(npcID, key string) (string, error) {
	rec, ok := d.store.ByID(npcID)
	if !ok {
		return "", fmt.Errorf("dialogue for npc %q: %w", npcID, ErrNotFound)
	}
	if key == "" {
		key = DefaultDialogueKey
	}
	line, ok := rec.Dialogues[key]
	if !ok {
		d.logger.Debug("dialogue key missing",
			zap.String("npc_id", npcID),
			zap.String("key", key),
		)
		return NoDialogueLine, nil
	}
	return line, nil
}

// Quests returns all quests the NPC offers.
//
// Postcondition: Returns a non-nil slice, or ErrNotFound for an unknown NPC.
func (d *Dispatcher) Quests(npcID string) ([]Quest, error) {
	rec, ok := d.store.ByID(npcID)
	if !ok {
		return nil, fmt.Errorf("quests for npc %q: %w", npcID, ErrNotFound)
	}
	if rec.Quests == nil {
		return []Quest{}, nil
	}
	return rec.Quests, nil
}

// Quest returns one quest by ID.
//
// Postcondition: Returns ErrNotFound for an unknown NPC, or ErrQuestNotFound
// when the NPC does not offer questID.
func (d *Dispatcher) Quest(npcID, questID string) (Quest, error) {
	quests, err := d.Quests(npcID)
	if err != nil {
		return Quest{}, err
	}
	for _, q := range quests {
		if q.ID == questID {
			return q, nil
		}
	}
	return Quest{}, fmt.Errorf("npc %q quest %q: %w", npcID, questID, ErrQuestNotFound)
}

// Inventory returns all items the NPC trades.
//
// Postcondition: Returns a non-nil slice, or ErrNotFound for an unknown NPC.
func (d *Dispatcher) Inventory(npcID string) ([]Item, error) {
	rec, ok := d.store.ByID(npcID)
	if !ok {
		return nil, fmt.Errorf("inventory for npc %q: %w", npcID, ErrNotFound)
	}
	if rec.Inventory == nil {
		return []Item{}, nil
	}
	return rec.Inventory, nil
}

// Trade returns one tradable item by ID.
//
// Postcondition: Returns ErrNotFound for an unknown NPC, or ErrItemNotFound
// when the NPC does not stock itemID.
func (d *Dispatcher) Trade(npcID, itemID string) (Item, error) {
	items, err := d.Inventory(npcID)
	if err != nil {
		return Item{}, err
	}
	for _, it := range items {
		if it.ID == itemID {
			return it, nil
		}
	}
	return Item{}, fmt.Errorf("npc %q item %q: %w", npcID, itemID, ErrItemNotFound)
}
