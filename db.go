package main

import (
	"fmt"
	"log"

	"github.com/banshee-data/constava/internal/calculator"
	"github.com/banshee-data/constava/internal/results"
	"github.com/banshee-data/constava/internal/resultsdb"
)

// archive records the run and its results in the SQLite archive named by
// --results-db, creating and migrating the database on first use.
func archive(sets []*results.Set, opts calculator.Options) {
	db, err := resultsdb.Open(*resultsDB)
	if err != nil {
		log.Fatalf("failed to open results db: %v", err)
	}
	defer db.Close()

	runID, err := db.InsertRun(*modelKind, *kdeBandwidth, *gridPoints, opts.Seed, opts.Seeded)
	if err != nil {
		log.Fatalf("failed to record run: %v", err)
	}
	if err := db.InsertResults(runID, sets); err != nil {
		log.Fatalf("failed to archive results: %v", err)
	}
	fmt.Printf("archived run %s in %s\n", runID, *resultsDB)
}
