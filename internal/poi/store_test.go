package poi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/mapcam/internal/geo"
	"github.com/banshee-data/mapcam/internal/monitoring"
)

func init() {
	monitoring.SetLogger(nil)
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "features.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

const collection = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": "ramp", "geometry": {"type": "Point", "coordinates": [-84.81, 33.61]}, "properties": {"name": "Boat ramp"}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-84.79, 33.60]}, "properties": {"id": "dock", "name": "Dock"}},
    {"type": "Feature", "id": "trail", "geometry": {"type": "LineString", "coordinates": [[-84.8, 33.6], [-84.7, 33.7]]}, "properties": {}},
    {"type": "Feature", "id": "far", "geometry": {"type": "Point", "coordinates": [-84.8, 95.0]}, "properties": {}}
  ]
}`

func TestOpenAppliesMigrations(t *testing.T) {
	s := openTestStore(t)

	version, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(2), version)

	// Running again is a no-op.
	require.NoError(t, s.MigrateUp())
}

func TestReopenKeepsFeatures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Upsert(context.Background(), []geo.Feature{
		{ID: "ramp", Name: "Boat ramp", Coordinates: orb.Point{-84.81, 33.61}},
	}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	f, err := s.Feature(context.Background(), "ramp")
	require.NoError(t, err)
	assert.Equal(t, "Boat ramp", f.Name)
}

func TestImportGeoJSON(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	res, err := s.ImportGeoJSON(ctx, []byte(collection))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Len(t, res.Skipped, 2)

	got, err := s.Features(ctx)
	require.NoError(t, err)
	want := []geo.Feature{
		{ID: "ramp", Name: "Boat ramp", Coordinates: orb.Point{-84.81, 33.61}},
		{ID: "dock", Name: "Dock", Coordinates: orb.Point{-84.79, 33.60}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("features mismatch (-want +got):\n%s", diff)
	}

	_, err = s.ImportGeoJSON(ctx, []byte(`{"type":`))
	assert.Error(t, err)
}

func TestUpsertUpdatesInPlace(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []geo.Feature{
		{ID: "a", Name: "A", Coordinates: orb.Point{1, 1}},
		{ID: "b", Name: "B", Coordinates: orb.Point{2, 2}},
	}))
	require.NoError(t, s.Upsert(ctx, []geo.Feature{
		{ID: "c", Name: "C", Coordinates: orb.Point{3, 3}},
		{ID: "a", Name: "A2", Coordinates: orb.Point{1.5, 1.5}},
	}))

	got, err := s.Features(ctx)
	require.NoError(t, err)
	var ids []string
	for _, f := range got {
		ids = append(ids, f.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	assert.Equal(t, "A2", got[0].Name)
	assert.Equal(t, orb.Point{1.5, 1.5}, got[0].Coordinates)
}

func TestUpsertRejectsInvalidFeature(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.Upsert(ctx, []geo.Feature{
		{ID: "ok", Coordinates: orb.Point{1, 1}},
		{ID: "", Coordinates: orb.Point{1, 1}},
	})
	require.ErrorIs(t, err, geo.ErrInvalidFeature)

	got, err := s.Features(ctx)
	require.NoError(t, err)
	assert.Empty(t, got, "nothing is stored when any feature is invalid")
}

func TestFeatureNotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Feature(ctx, "missing")
	assert.ErrorIs(t, err, geo.ErrFeatureNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "missing"), geo.ErrFeatureNotFound)

	require.NoError(t, s.Upsert(ctx, []geo.Feature{{ID: "x", Coordinates: orb.Point{0, 0}}}))
	require.NoError(t, s.Delete(ctx, "x"))
	_, err = s.Feature(ctx, "x")
	assert.ErrorIs(t, err, geo.ErrFeatureNotFound)
}

func TestSelectionLog(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordSelection(ctx, "ramp", false))
	require.NoError(t, s.RecordSelection(ctx, "ramp", true))
	require.NoError(t, s.RecordSelection(ctx, "", false))

	events, err := s.SelectionLog(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "", events[0].FeatureID)
	assert.Equal(t, "ramp", events[1].FeatureID)
	assert.True(t, events[1].PinLocked)
}

func TestAttachAdminRoutes(t *testing.T) {
	s := openTestStore(t)
	mux := http.NewServeMux()
	require.NoError(t, s.AttachAdminRoutes(mux))

	req := httptest.NewRequest(http.MethodGet, "/debug/", nil)
	req.RemoteAddr = "127.0.0.1:1234"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tailsql")
}

func TestBackupStaysBesideDatabase(t *testing.T) {
	s := openTestStore(t)
	mux := http.NewServeMux()
	require.NoError(t, s.AttachAdminRoutes(mux))

	req := httptest.NewRequest(http.MethodGet, "/debug/backup?label=nightly%20run", nil)
	req.RemoteAddr = "127.0.0.1:1234"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "features-backup-nightly_run-")

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(s.path), "features-backup-*.db"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
