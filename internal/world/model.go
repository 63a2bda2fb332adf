// Package world loads zone content files and feeds them into the
// connectivity map: each room's exit targets become its declared neighbors,
// and the zone ID becomes the room's owning city.
package world

import (
	"fmt"
	"sort"

	"github.com/mudkit/atlas/internal/atlas"
)

// Exit represents a passage from one room to another.
type Exit struct {
	// Direction is the compass direction or named exit (e.g., "stairs").
	Direction string
	// TargetRoom is the ID of the destination room.
	TargetRoom string
}

// Room represents a location in a zone content file.
type Room struct {
	// ID uniquely identifies this room within the zone.
	ID string
	// ZoneID identifies the zone this room belongs to.
	ZoneID string
	// Title is the short display name of the room.
	Title string
	// Description is the room description.
	Description string
	// Exits lists all passages leading out of this room.
	Exits []Exit
}

// NeighborIDs returns the target room IDs of all exits, in declaration
// order. Duplicates are preserved; the connectivity map collapses them.
func (r *Room) NeighborIDs() []string {
	out := make([]string, 0, len(r.Exits))
	for _, e := range r.Exits {
		out = append(out, e.TargetRoom)
	}
	return out
}

// Zone groups related rooms into a themed area.
type Zone struct {
	// ID uniquely identifies this zone; it doubles as the city ID in the
	// connectivity map.
	ID string
	// Name is the display name of the zone.
	Name string
	// Description summarizes the zone's theme.
	Description string
	// Rooms contains all rooms in this zone, keyed by room ID.
	Rooms map[string]*Room
}

// Validate checks zone invariants.
//
// Postcondition: Returns nil if valid, or an error describing the first violation.
func (z *Zone) Validate() error {
	if z.ID == "" {
		return fmt.Errorf("zone ID must not be empty")
	}
	if z.Name == "" {
		return fmt.Errorf("zone %q: name must not be empty", z.ID)
	}
	if len(z.Rooms) == 0 {
		return fmt.Errorf("zone %q: must contain at least one room", z.ID)
	}
	for id, room := range z.Rooms {
		if room.ID != id {
			return fmt.Errorf("zone %q: room key %q does not match room ID %q", z.ID, id, room.ID)
		}
		if room.Title == "" {
			return fmt.Errorf("zone %q: room %q: title must not be empty", z.ID, id)
		}
		for _, exit := range room.Exits {
			if exit.TargetRoom == "" {
				return fmt.Errorf("zone %q: room %q: exit %q has empty target", z.ID, id, exit.Direction)
			}
		}
	}
	return nil
}

// PopulateMap registers every room of every zone in m. Zones and rooms are
// visited in sorted-ID order so the same content always produces the same
// registration sequence. Cross-zone exit targets are permitted; targets in
// zones processed later resolve per the map's adjacency mode.
//
// Precondition: every zone must have passed Validate.
func PopulateMap(m *atlas.Map, zones []*Zone) error {
	ordered := make([]*Zone, len(zones))
	copy(ordered, zones)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	for _, z := range ordered {
		roomIDs := make([]string, 0, len(z.Rooms))
		for id := range z.Rooms {
			roomIDs = append(roomIDs, id)
		}
		sort.Strings(roomIDs)
		for _, id := range roomIDs {
			room := z.Rooms[id]
			if err := m.AddRoom(room.ID, z.ID, room.NeighborIDs()); err != nil {
				return fmt.Errorf("registering room %q from zone %q: %w", room.ID, z.ID, err)
			}
		}
	}
	return nil
}
