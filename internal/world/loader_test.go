package world

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harborYAML = `
zone:
  id: harbor
  name: Harbor District
  description: Salt air and creaking docks.
  rooms:
    - id: docks
      title: The Docks
      description: |
        Weathered planks stretch over grey water.
      exits:
        - direction: north
          target: market
    - id: market
      title: Fish Market
      description: Stalls of the morning catch.
      exits:
        - direction: south
          target: docks
        - direction: up
          target: gate
`

func TestLoadZoneFromBytes(t *testing.T) {
	zone, err := LoadZoneFromBytes([]byte(harborYAML))
	require.NoError(t, err)

	assert.Equal(t, "harbor", zone.ID)
	assert.Equal(t, "Harbor District", zone.Name)
	require.Len(t, zone.Rooms, 2)

	docks := zone.Rooms["docks"]
	require.NotNil(t, docks)
	assert.Equal(t, "harbor", docks.ZoneID)
	assert.Equal(t, "Weathered planks stretch over grey water.", docks.Description)
	require.Len(t, docks.Exits, 1)
	assert.Equal(t, "market", docks.Exits[0].TargetRoom)

	market := zone.Rooms["market"]
	require.NotNil(t, market)
	assert.Equal(t, []string{"docks", "gate"}, market.NeighborIDs())
}

func TestLoadZoneFromBytes_BadYAML(t *testing.T) {
	_, err := LoadZoneFromBytes([]byte("zone: [not a zone"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parsing zone YAML")
}

func TestLoadZoneFromBytes_InvalidZone(t *testing.T) {
	_, err := LoadZoneFromBytes([]byte("zone:\n  id: harbor\n"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validating zone")
}

func TestLoadZoneFromFile_Missing(t *testing.T) {
	_, err := LoadZoneFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "reading zone file")
}

func TestLoadZonesFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "harbor.yaml"), []byte(harborYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	zones, err := LoadZonesFromDir(dir)
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Equal(t, "harbor", zones[0].ID)
}

func TestLoadZonesFromDir_Empty(t *testing.T) {
	_, err := LoadZonesFromDir(t.TempDir())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no zone files found")
}

func TestLoadZonesFromDir_BadZone(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("zone:\n  id: x\n"), 0o644))

	_, err := LoadZonesFromDir(dir)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "loading zone from bad.yaml")
}
