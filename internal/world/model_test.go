package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mudkit/atlas/internal/atlas"
)

func validTestZone() *Zone {
	return &Zone{
		ID:          "harbor",
		Name:        "Harbor District",
		Description: "Salt air and creaking docks.",
		Rooms: map[string]*Room{
			"docks": {
				ID:     "docks",
				ZoneID: "harbor",
				Title:  "The Docks",
				Exits:  []Exit{{Direction: "north", TargetRoom: "market"}},
			},
			"market": {
				ID:     "market",
				ZoneID: "harbor",
				Title:  "Fish Market",
				Exits:  []Exit{{Direction: "south", TargetRoom: "docks"}},
			},
		},
	}
}

func TestZoneValidate(t *testing.T) {
	assert.NoError(t, validTestZone().Validate())
}

func TestZoneValidate_EmptyID(t *testing.T) {
	z := validTestZone()
	z.ID = ""
	assert.Error(t, z.Validate())
}

func TestZoneValidate_EmptyName(t *testing.T) {
	z := validTestZone()
	z.Name = ""
	err := z.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "name must not be empty")
}

func TestZoneValidate_NoRooms(t *testing.T) {
	z := validTestZone()
	z.Rooms = map[string]*Room{}
	err := z.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "at least one room")
}

func TestZoneValidate_RoomKeyMismatch(t *testing.T) {
	z := validTestZone()
	z.Rooms["wrong"] = z.Rooms["docks"]
	delete(z.Rooms, "docks")
	err := z.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "does not match room ID")
}

func TestZoneValidate_EmptyExitTarget(t *testing.T) {
	z := validTestZone()
	z.Rooms["docks"].Exits = []Exit{{Direction: "north", TargetRoom: ""}}
	err := z.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "empty target")
}

func TestRoomNeighborIDs(t *testing.T) {
	r := &Room{
		ID: "a",
		Exits: []Exit{
			{Direction: "north", TargetRoom: "b"},
			{Direction: "east", TargetRoom: "c"},
		},
	}
	assert.Equal(t, []string{"b", "c"}, r.NeighborIDs())
}

func twoZoneContent() []*Zone {
	harbor := validTestZone()
	// Cross-zone exit from the market up into the citadel.
	harbor.Rooms["market"].Exits = append(harbor.Rooms["market"].Exits,
		Exit{Direction: "up", TargetRoom: "gate"})
	citadel := &Zone{
		ID:   "citadel",
		Name: "The Citadel",
		Rooms: map[string]*Room{
			"gate": {
				ID:     "gate",
				ZoneID: "citadel",
				Title:  "Citadel Gate",
				Exits:  []Exit{{Direction: "down", TargetRoom: "market"}},
			},
		},
	}
	return []*Zone{harbor, citadel}
}

func TestPopulateMap(t *testing.T) {
	m, err := atlas.NewMap(atlas.ModeIncremental)
	require.NoError(t, err)
	require.NoError(t, PopulateMap(m, twoZoneContent()))

	assert.Equal(t, 3, m.RoomCount())
	assert.Equal(t, 2, m.ZoneCount())

	harbor := m.CityConnectivity("harbor")
	assert.Equal(t, []string{"docks", "market"}, harbor.Rooms)
	assert.Equal(t, []string{"citadel"}, harbor.ConnectedCities)

	citadel := m.CityConnectivity("citadel")
	assert.Equal(t, []string{"gate"}, citadel.Rooms)
	assert.Equal(t, []string{"harbor"}, citadel.ConnectedCities)
}

// Populating two maps from the same content yields identical snapshots
// regardless of the order zones are passed in.
func TestPopulateMap_Deterministic(t *testing.T) {
	zones := twoZoneContent()
	reversed := []*Zone{zones[1], zones[0]}

	m1, err := atlas.NewMap(atlas.ModeIncremental)
	require.NoError(t, err)
	m2, err := atlas.NewMap(atlas.ModeIncremental)
	require.NoError(t, err)

	require.NoError(t, PopulateMap(m1, zones))
	require.NoError(t, PopulateMap(m2, reversed))

	assert.Equal(t, m1.Snapshot(), m2.Snapshot())
	assert.Equal(t, m1.Rooms(), m2.Rooms())
}

func TestPopulateMap_EmptyRoomID(t *testing.T) {
	m, err := atlas.NewMap(atlas.ModeIncremental)
	require.NoError(t, err)

	bad := &Zone{
		ID:   "bad",
		Name: "Bad",
		Rooms: map[string]*Room{
			"": {ID: "", ZoneID: "bad", Title: "Nameless"},
		},
	}
	err = PopulateMap(m, []*Zone{bad})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "registering room")
}
