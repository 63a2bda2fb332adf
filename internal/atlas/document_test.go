package atlas

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSave_KeysAndShape(t *testing.T) {
	m := buildTwoCityMap(t, ModeIncremental)

	var buf bytes.Buffer
	require.NoError(t, m.Save(&buf))

	out := buf.String()
	assert.Contains(t, out, `"rooms"`)
	assert.Contains(t, out, `"zones"`)
	assert.Contains(t, out, `"city_connections"`)
	assert.Contains(t, out, `"city_id"`)
	assert.Contains(t, out, `"neighbors"`)
	assert.True(t, json.Valid(buf.Bytes()), "saved document must be valid JSON")
}

func TestSave_RoomsTableKeepsRegistrationOrder(t *testing.T) {
	m, err := NewMap(ModeIncremental)
	require.NoError(t, err)
	require.NoError(t, m.AddRoom("zebra", "Z1", nil))
	require.NoError(t, m.AddRoom("alpha", "Z1", []string{"zebra"}))

	var buf bytes.Buffer
	require.NoError(t, m.Save(&buf))

	out := buf.String()
	assert.Less(t, strings.Index(out, `"zebra"`), strings.Index(out, `"alpha"`))
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	m := buildTwoCityMap(t, ModeIncremental)
	before := m.Snapshot()

	var buf bytes.Buffer
	require.NoError(t, m.Save(&buf))

	restored, err := NewMap(ModeIncremental)
	require.NoError(t, err)
	require.NoError(t, restored.Load(&buf))

	assert.Equal(t, before, restored.Snapshot())
	assert.Equal(t, m.Rooms(), restored.Rooms())
}

func TestSaveFileLoadFile_RoundTrip(t *testing.T) {
	m := buildTwoCityMap(t, ModeIncremental)
	path := filepath.Join(t.TempDir(), "map.json")

	require.NoError(t, m.SaveFile(path))

	restored, err := NewMap(ModeIncremental)
	require.NoError(t, err)
	require.NoError(t, restored.LoadFile(path))

	assert.Equal(t, m.Snapshot(), restored.Snapshot())
}

func TestLoadFile_Missing(t *testing.T) {
	m, err := NewMap(ModeIncremental)
	require.NoError(t, err)

	err = m.LoadFile(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "opening map file")
}

func TestLoad_MalformedJSON(t *testing.T) {
	m, err := NewMap(ModeIncremental)
	require.NoError(t, err)

	err = m.Load(strings.NewReader(`{"rooms": [`))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rooms table")
}

func TestLoad_MissingRoomsTable(t *testing.T) {
	m, err := NewMap(ModeIncremental)
	require.NoError(t, err)

	err = m.Load(strings.NewReader(`{"zones": {}, "city_connections": {}}`))
	assert.ErrorIs(t, err, ErrMalformedDocument)
}

func TestLoad_EmptyRoomsTable(t *testing.T) {
	m := buildTwoCityMap(t, ModeIncremental)

	require.NoError(t, m.Load(strings.NewReader(`{"rooms": {}}`)))
	assert.Equal(t, 0, m.RoomCount())
	assert.Equal(t, 0, m.ZoneCount())
}

func TestRestore_MissingRoomsTable(t *testing.T) {
	m, err := NewMap(ModeIncremental)
	require.NoError(t, err)
	assert.ErrorIs(t, m.Restore(Document{}), ErrMalformedDocument)
}

func TestRestore_ClearsPriorState(t *testing.T) {
	m := buildTwoCityMap(t, ModeIncremental)

	require.NoError(t, m.Restore(Document{
		Rooms: map[string]RoomRecord{
			"solo": {CityID: "cityC", Neighbors: []string{}},
		},
	}))

	assert.Equal(t, 1, m.RoomCount())
	assert.Equal(t, 1, m.ZoneCount())
	_, ok := m.RoomConnectivity("room1")
	assert.False(t, ok)
}

func TestReplay_InvalidRoomClearsMap(t *testing.T) {
	m := buildTwoCityMap(t, ModeIncremental)

	err := m.Replay([]RoomEntry{{RoomID: "bad", CityID: ""}})
	assert.Error(t, err)
	assert.Equal(t, 0, m.RoomCount())
}

// Property: for maps whose rooms only reference previously registered
// neighbors (no forward references), the saved document restores to an
// identical snapshot.
func TestPropertyRoundTripConfluence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m, err := NewMap(ModeIncremental)
		if err != nil {
			t.Fatalf("NewMap failed: %v", err)
		}

		numRooms := rapid.IntRange(1, 9).Draw(t, "num_rooms")
		ids := make([]string, numRooms)
		for i := range ids {
			ids[i] = "room" + string(rune('a'+i))
			city := rapid.SampledFrom([]string{"c1", "c2", "c3"}).Draw(t, "city")
			var neighbors []string
			if i > 0 {
				numNeighbors := rapid.IntRange(0, i).Draw(t, "num_neighbors")
				for j := 0; j < numNeighbors; j++ {
					neighbors = append(neighbors, ids[rapid.IntRange(0, i-1).Draw(t, "neighbor_idx")])
				}
			}
			if err := m.AddRoom(ids[i], city, neighbors); err != nil {
				t.Fatalf("AddRoom failed: %v", err)
			}
		}

		before := m.Snapshot()

		var buf bytes.Buffer
		if err := m.Save(&buf); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		restored, err := NewMap(ModeIncremental)
		if err != nil {
			t.Fatalf("NewMap failed: %v", err)
		}
		if err := restored.Load(&buf); err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		assert.Equal(t, before, restored.Snapshot())
	})
}

// Restore's sorted replay is deterministic: restoring the same document into
// two maps yields identical snapshots.
func TestRestore_Deterministic(t *testing.T) {
	doc := buildTwoCityMap(t, ModeIncremental).Snapshot()

	m1, err := NewMap(ModeIncremental)
	require.NoError(t, err)
	m2, err := NewMap(ModeIncremental)
	require.NoError(t, err)

	require.NoError(t, m1.Restore(doc))
	require.NoError(t, m2.Restore(doc))
	assert.Equal(t, m1.Snapshot(), m2.Snapshot())
}
