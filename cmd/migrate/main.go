package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gocausal/adapters/postgres"
	"gocausal/domain/run"
	"gocausal/internal"
	"gocausal/internal/migration"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// migrate applies the run schema and optionally imports run records exported with
// `gocausal discover --record`.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate <database_url> [records_dir]")
	}

	databaseURL := os.Args[1]
	ctx := context.Background()

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	runner := migration.NewRunner(internal.NewDefaultLogger())
	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Schema migration failed: %v", err)
	}
	log.Printf("Schema at version %s", runner.Version())

	if len(os.Args) < 3 {
		return
	}
	recordsDir := os.Args[2]

	files, err := findRecordFiles(recordsDir)
	if err != nil {
		log.Fatalf("Failed to find run records: %v", err)
	}
	log.Printf("Found %d run record files to import", len(files))

	repo := postgres.NewRunRepository(db)
	imported := 0
	skipped := 0

	for _, file := range files {
		record, err := loadRecordFromFile(file)
		if err != nil {
			log.Printf("Failed to load run record from %s: %v", file, err)
			skipped++
			continue
		}

		if _, err := repo.Get(ctx, record.ID); err == nil {
			log.Printf("Run %s already imported, skipping", record.ID)
			skipped++
			continue
		}

		if err := repo.Save(ctx, record); err != nil {
			log.Printf("Failed to save run %s: %v", record.ID, err)
			skipped++
			continue
		}
		imported++
	}

	log.Printf("Import complete: %d imported, %d skipped", imported, skipped)
}

func findRecordFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(info.Name(), ".json") {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

func loadRecordFromFile(filePath string) (*run.Record, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var record run.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	if record.PAG == nil {
		return nil, errors.New("not a run record: no pag")
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	return &record, nil
}
