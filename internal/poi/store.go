// Package poi stores the points of interest the camera can fly to.
package poi

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/paulmach/orb"
	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"

	"github.com/banshee-data/mapcam/internal/geo"
	"github.com/banshee-data/mapcam/internal/monitoring"
	"github.com/banshee-data/mapcam/internal/security"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a sqlite-backed feature catalogue.
type Store struct {
	*sql.DB
	path string
}

// Open opens (or creates) the database at path and applies pending
// migrations. Use ":memory:" only with a single connection.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &Store{DB: db, path: path}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// MigrateUp runs all pending migrations. It is a no-op at the latest version.
func (s *Store) MigrateUp() error {
	m, err := s.newMigrate()
	if err != nil {
		return err
	}
	// m is not closed: that would close the shared connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// MigrateVersion returns the schema version and dirty flag. 0 means no
// migration has been applied.
func (s *Store) MigrateVersion() (uint, bool, error) {
	m, err := s.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (s *Store) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.DB, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = migrateLogger{}
	return m, nil
}

type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...interface{}) {
	monitoring.Logf("[POI] migrate: "+format, v...)
}

func (migrateLogger) Verbose() bool { return false }

// Features returns every feature in display order.
func (s *Store) Features(ctx context.Context) ([]geo.Feature, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT feature_id, name, longitude, latitude
		FROM features
		ORDER BY sort_order, feature_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query features: %w", err)
	}
	defer rows.Close()

	var features []geo.Feature
	for rows.Next() {
		var (
			f        geo.Feature
			lon, lat float64
		)
		if err := rows.Scan(&f.ID, &f.Name, &lon, &lat); err != nil {
			return nil, fmt.Errorf("failed to scan feature: %w", err)
		}
		f.Coordinates = orb.Point{lon, lat}
		features = append(features, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate features: %w", err)
	}
	return features, nil
}

// Feature returns one feature. Unknown ids wrap geo.ErrFeatureNotFound.
func (s *Store) Feature(ctx context.Context, id string) (geo.Feature, error) {
	var (
		f        = geo.Feature{ID: id}
		lon, lat float64
	)
	err := s.QueryRowContext(ctx,
		`SELECT name, longitude, latitude FROM features WHERE feature_id = ?`, id,
	).Scan(&f.Name, &lon, &lat)
	if errors.Is(err, sql.ErrNoRows) {
		return geo.Feature{}, fmt.Errorf("%w: %q", geo.ErrFeatureNotFound, id)
	}
	if err != nil {
		return geo.Feature{}, fmt.Errorf("failed to load feature %q: %w", id, err)
	}
	f.Coordinates = orb.Point{lon, lat}
	return f, nil
}

// Upsert validates and stores features in one transaction. Their display
// order follows the slice order after any existing features.
func (s *Store) Upsert(ctx context.Context, features []geo.Feature) error {
	for _, f := range features {
		if err := f.Validate(); err != nil {
			return err
		}
	}

	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var base int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(sort_order), 0) FROM features`).Scan(&base); err != nil {
		return fmt.Errorf("failed to read sort order: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO features (feature_id, name, longitude, latitude, sort_order, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(feature_id) DO UPDATE SET
			name = excluded.name,
			longitude = excluded.longitude,
			latitude = excluded.latitude,
			updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for i, f := range features {
		if _, err := stmt.ExecContext(ctx, f.ID, f.Name, f.Longitude(), f.Latitude(), base+i+1); err != nil {
			return fmt.Errorf("failed to upsert feature %q: %w", f.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit features: %w", err)
	}
	return nil
}

// Delete removes a feature.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.ExecContext(ctx, `DELETE FROM features WHERE feature_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete feature %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", geo.ErrFeatureNotFound, id)
	}
	return nil
}

// ImportResult reports a GeoJSON import.
type ImportResult struct {
	Imported int     `json:"imported"`
	Skipped  []error `json:"-"`
}

// ImportGeoJSON stores the valid Point features of a FeatureCollection.
// Invalid features are skipped and listed in the result.
func (s *Store) ImportGeoJSON(ctx context.Context, data []byte) (ImportResult, error) {
	features, skipped, err := geo.ParseFeatureCollection(data)
	if err != nil {
		return ImportResult{}, err
	}
	for _, e := range skipped {
		monitoring.Logf("[POI] skipping feature: %v", e)
	}
	if err := s.Upsert(ctx, features); err != nil {
		return ImportResult{Skipped: skipped}, err
	}
	monitoring.Logf("[POI] imported %d features (%d skipped)", len(features), len(skipped))
	return ImportResult{Imported: len(features), Skipped: skipped}, nil
}

// SelectionEvent is one row of the selection log.
type SelectionEvent struct {
	FeatureID string    `json:"feature_id"`
	PinLocked bool      `json:"pin_locked"`
	Timestamp time.Time `json:"timestamp"`
}

// RecordSelection appends a selection change. An empty id records a clear.
func (s *Store) RecordSelection(ctx context.Context, featureID string, pinLocked bool) error {
	_, err := s.ExecContext(ctx,
		`INSERT INTO selection_log (feature_id, pin_locked) VALUES (?, ?)`, featureID, pinLocked)
	if err != nil {
		return fmt.Errorf("failed to record selection: %w", err)
	}
	return nil
}

// SelectionLog returns the most recent selection changes, newest first.
func (s *Store) SelectionLog(ctx context.Context, limit int) ([]SelectionEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.QueryContext(ctx, `
		SELECT feature_id, pin_locked, timestamp
		FROM selection_log
		ORDER BY log_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query selection log: %w", err)
	}
	defer rows.Close()

	var events []SelectionEvent
	for rows.Next() {
		var e SelectionEvent
		if err := rows.Scan(&e.FeatureID, &e.PinLocked, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan selection event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// AttachAdminRoutes mounts a tailsql console and a backup endpoint under
// /debug/.
func (s *Store) AttachAdminRoutes(mux *http.ServeMux) error {
	debug := tsweb.Debugger(mux)
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("failed to create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://"+s.path, s.DB, &tailsql.DBOptions{
		Label: "Feature DB",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("backup", "Create and download a backup of the feature database", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := fmt.Sprintf("features-backup-%d.db", time.Now().Unix())
		if label := r.URL.Query().Get("label"); label != "" {
			name = fmt.Sprintf("features-backup-%s-%d.db", label, time.Now().Unix())
		}
		backupPath, err := security.JoinWithin(filepath.Dir(s.path), name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if _, err := s.ExecContext(r.Context(), "VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("backup failed: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(backupPath)))
		http.ServeFile(w, r, backupPath)
	}))
	return nil
}
