// Package atlas builds and maintains the world connectivity map: the room
// table, per-city room membership, and the symmetric city-to-city adjacency
// graph induced by cross-city room edges.
package atlas

import (
	"fmt"
	"sort"
	"sync"
)

// AdjacencyMode selects how city adjacency is derived as rooms are added.
type AdjacencyMode string

const (
	// ModeIncremental resolves neighbor edges only against rooms already
	// registered at insertion time. Forward references are skipped and never
	// retroactively resolved, and adjacency derived from a room's previous
	// state survives an overwrite.
	ModeIncremental AdjacencyMode = "incremental"
	// ModeRecompute rederives the full adjacency table from the room table on
	// every change. Forward references resolve once both rooms exist and
	// overwrites never leave stale adjacency. The persisted document shape is
	// identical in both modes.
	ModeRecompute AdjacencyMode = "recompute"
)

// Valid reports whether m is a known adjacency mode.
func (m AdjacencyMode) Valid() bool {
	return m == ModeIncremental || m == ModeRecompute
}

// roomEntry is the stored state for a single registered room. Neighbor edges
// are kept exactly as declared; they are symmetrized at the city level only.
type roomEntry struct {
	cityID    string
	neighbors map[string]bool
}

// Map maintains three mappings under incremental room registration: room →
// (city, neighbor set), city → member-room set, and city → adjacent-city set.
// Map exclusively owns all three mappings; every view returned by its methods
// is a copy. All methods are safe for concurrent use.
type Map struct {
	mu          sync.RWMutex
	mode        AdjacencyMode
	rooms       map[string]*roomEntry
	order       []string // room IDs in first-registration order
	zones       map[string]map[string]bool
	connections map[string]map[string]bool
}

// NewMap creates an empty connectivity map using the given adjacency mode.
//
// Postcondition: Returns an empty Map, or an error if mode is unknown.
func NewMap(mode AdjacencyMode) (*Map, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("atlas: unknown adjacency mode %q (supported: %s, %s)",
			mode, ModeIncremental, ModeRecompute)
	}
	m := &Map{mode: mode}
	m.reset()
	return m, nil
}

// reset clears all three mappings. Caller must hold the write lock, or have
// exclusive access during construction.
func (m *Map) reset() {
	m.rooms = make(map[string]*roomEntry)
	m.order = nil
	m.zones = make(map[string]map[string]bool)
	m.connections = make(map[string]map[string]bool)
}

// Mode returns the adjacency mode the map was created with.
func (m *Map) Mode() AdjacencyMode {
	return m.mode
}

// AddRoom registers a room with its owning city and declared neighbors, or
// overwrites the room's city and neighbor set if the ID is already known.
// Duplicate neighbor IDs collapse into the stored set. Neighbors that are not
// yet registered rooms are skipped for adjacency purposes, not rejected.
//
// Precondition: roomID and cityID must be non-empty.
// Postcondition: The room's entry reflects exactly this call; the room is a
// member of cityID and of no other city; cross-city adjacency is updated per
// the map's AdjacencyMode.
func (m *Map) AddRoom(roomID, cityID string, neighbors []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addRoomLocked(roomID, cityID, neighbors)
}

func (m *Map) addRoomLocked(roomID, cityID string, neighbors []string) error {
	if roomID == "" {
		return fmt.Errorf("atlas: room ID must not be empty")
	}
	if cityID == "" {
		return fmt.Errorf("atlas: city ID for room %q must not be empty", roomID)
	}

	set := make(map[string]bool, len(neighbors))
	for _, n := range neighbors {
		set[n] = true
	}

	prev, existed := m.rooms[roomID]
	if existed && prev.cityID != cityID {
		// Membership tracks the stored city exactly; adjacency derived from
		// the previous state is left alone in incremental mode.
		if members, ok := m.zones[prev.cityID]; ok {
			delete(members, roomID)
			if len(members) == 0 {
				delete(m.zones, prev.cityID)
			}
		}
	}
	if !existed {
		m.order = append(m.order, roomID)
	}

	m.rooms[roomID] = &roomEntry{cityID: cityID, neighbors: set}
	m.memberSet(cityID)[roomID] = true

	switch m.mode {
	case ModeRecompute:
		m.recomputeConnections()
	default:
		for n := range set {
			nb, ok := m.rooms[n]
			if !ok {
				continue // forward reference: declared but not yet resolvable
			}
			m.connect(cityID, nb.cityID)
		}
	}
	return nil
}

// memberSet returns the member-room set for cityID, creating it if absent.
// Caller must hold the write lock.
func (m *Map) memberSet(cityID string) map[string]bool {
	members, ok := m.zones[cityID]
	if !ok {
		members = make(map[string]bool)
		m.zones[cityID] = members
	}
	return members
}

// connSet returns the adjacent-city set for cityID, creating it if absent.
// Caller must hold the write lock.
func (m *Map) connSet(cityID string) map[string]bool {
	conns, ok := m.connections[cityID]
	if !ok {
		conns = make(map[string]bool)
		m.connections[cityID] = conns
	}
	return conns
}

// connect records a symmetric adjacency between two cities. Same-city edges
// never produce an entry. Caller must hold the write lock.
func (m *Map) connect(a, b string) {
	if a == b {
		return
	}
	m.connSet(a)[b] = true
	m.connSet(b)[a] = true
}

// recomputeConnections rebuilds the full adjacency table from the room table.
// Caller must hold the write lock.
func (m *Map) recomputeConnections() {
	m.connections = make(map[string]map[string]bool)
	for _, entry := range m.rooms {
		for n := range entry.neighbors {
			if nb, ok := m.rooms[n]; ok {
				m.connect(entry.cityID, nb.cityID)
			}
		}
	}
}

// RoomConnectivity describes one room's position in the map: its city, its
// declared neighbors, and the full membership of its city. Slice order
// carries no meaning; values are sorted for determinism.
type RoomConnectivity struct {
	RoomID    string   `json:"room_id"`
	CityID    string   `json:"city_id"`
	Neighbors []string `json:"neighbors"`
	ZoneRooms []string `json:"zone_rooms"`
}

// CityConnectivity describes one city's room membership and adjacent cities.
// Unknown cities yield empty collections, never an error.
type CityConnectivity struct {
	CityID          string   `json:"city_id"`
	Rooms           []string `json:"rooms"`
	ConnectedCities []string `json:"connected_cities"`
}

// RoomConnectivity returns the connectivity view for a single room.
//
// Postcondition: Returns (view, true) if the room is registered, or
// (RoomConnectivity{}, false) on a lookup miss.
func (m *Map) RoomConnectivity(roomID string) (RoomConnectivity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.rooms[roomID]
	if !ok {
		return RoomConnectivity{}, false
	}
	return RoomConnectivity{
		RoomID:    roomID,
		CityID:    entry.cityID,
		Neighbors: sortedKeys(entry.neighbors),
		ZoneRooms: sortedKeys(m.zones[entry.cityID]),
	}, true
}

// CityConnectivity returns the connectivity view for a single city.
//
// Postcondition: Returns a view with non-nil (possibly empty) collections;
// unknown city IDs are not an error.
func (m *Map) CityConnectivity(cityID string) CityConnectivity {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return CityConnectivity{
		CityID:          cityID,
		Rooms:           sortedKeys(m.zones[cityID]),
		ConnectedCities: sortedKeys(m.connections[cityID]),
	}
}

// RoomCount returns the number of registered rooms.
func (m *Map) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// ZoneCount returns the number of cities with at least one member room.
func (m *Map) ZoneCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.zones)
}

// sortedKeys returns the keys of a set in sorted order. A nil set yields an
// empty, non-nil slice.
func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
