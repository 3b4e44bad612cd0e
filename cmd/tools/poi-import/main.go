// Command poi-import loads points of interest from a GeoJSON
// FeatureCollection into the feature database.
//
// Features need a Point geometry and an "id" (or top-level feature id);
// anything else is reported and skipped. Existing features with the same id
// are updated in place.
//
// Usage:
//
//	go run ./cmd/tools/poi-import -db-path mapcam.db features.geojson
//
// Flags:
//
//	-db-path  Feature database path (default: mapcam.db)
//	-list     Print the stored features after importing
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/banshee-data/mapcam/internal/poi"
)

func main() {
	dbPath := flag.String("db-path", "mapcam.db", "path to the feature database")
	list := flag.Bool("list", false, "print the stored features after importing")
	flag.Parse()

	if flag.NArg() == 0 && !*list {
		fmt.Fprintf(os.Stderr, "Usage: %s [-db-path mapcam.db] [-list] file.geojson...\n", os.Args[0])
		os.Exit(2)
	}

	store, err := poi.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open feature database: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	for _, path := range flag.Args() {
		res, err := importFile(ctx, store, path)
		if err != nil {
			log.Fatalf("Failed to import %s: %v", path, err)
		}
		log.Printf("✓ %s: %d imported, %d skipped", path, res.Imported, len(res.Skipped))
	}

	if *list {
		if err := listFeatures(ctx, store, os.Stdout); err != nil {
			log.Fatalf("Failed to list features: %v", err)
		}
	}
}

func importFile(ctx context.Context, store *poi.Store, path string) (poi.ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return poi.ImportResult{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return store.ImportGeoJSON(ctx, data)
}

func listFeatures(ctx context.Context, store *poi.Store, w io.Writer) error {
	features, err := store.Features(ctx)
	if err != nil {
		return err
	}
	for _, f := range features {
		fmt.Fprintf(w, "%-24s %-32s %11.7f %12.7f\n", f.ID, f.Name, f.Latitude(), f.Longitude())
	}
	fmt.Fprintf(w, "%d features\n", len(features))
	return nil
}
