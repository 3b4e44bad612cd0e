package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/mapcam/internal/monitoring"
	"github.com/banshee-data/mapcam/internal/poi"
)

func init() {
	monitoring.SetLogger(nil)
}

const collection = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": "ramp", "properties": {"name": "Boat ramp"},
     "geometry": {"type": "Point", "coordinates": [-84.81, 33.61]}},
    {"type": "Feature", "properties": {"id": "dock", "name": "Dock"},
     "geometry": {"type": "Point", "coordinates": [-84.80, 33.60]}},
    {"type": "Feature", "properties": {"name": "Trail"},
     "geometry": {"type": "LineString", "coordinates": [[-84.8, 33.6], [-84.7, 33.6]]}}
  ]
}`

func TestImportAndList(t *testing.T) {
	dir := t.TempDir()
	store, err := poi.Open(filepath.Join(dir, "features.db"))
	require.NoError(t, err)
	defer store.Close()

	path := filepath.Join(dir, "features.geojson")
	require.NoError(t, os.WriteFile(path, []byte(collection), 0o644))

	ctx := context.Background()
	res, err := importFile(ctx, store, path)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Len(t, res.Skipped, 1)

	var buf bytes.Buffer
	require.NoError(t, listFeatures(ctx, store, &buf))
	out := buf.String()
	assert.Contains(t, out, "ramp")
	assert.Contains(t, out, "Dock")
	assert.Contains(t, out, "2 features")
}

func TestImportMissingFile(t *testing.T) {
	store, err := poi.Open(filepath.Join(t.TempDir(), "features.db"))
	require.NoError(t, err)
	defer store.Close()

	_, err = importFile(context.Background(), store, filepath.Join(t.TempDir(), "nope.geojson"))
	assert.ErrorContains(t, err, "failed to read")
}
