package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"cultural-property-api/internal/config"
	"cultural-property-api/internal/repository"
	"cultural-property-api/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	file := flag.String("file", "", "Path to the CSV file to import")
	encoding := flag.String("encoding", "auto", "Character encoding of the file (auto, utf-8, shift_jis, ...)")
	user := flag.Int64("user", 0, "Account id to record as the creator")
	skipErrors := flag.Bool("skip-errors", true, "Skip rows with validation errors instead of aborting")
	skipDuplicates := flag.Bool("skip-duplicates", true, "Skip rows that match an existing record")
	dryRun := flag.Bool("dry-run", false, "Preview only, do not write to the database")
	flag.Parse()

	if *file == "" {
		fmt.Println("Error: --file flag is required")
		os.Exit(1)
	}

	content, err := os.ReadFile(*file)
	if err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		os.Exit(1)
	}

	// Load config
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Connect to DB
	conn, err := pgxpool.New(context.Background(), cfg.DBSource)
	if err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	repo := repository.NewRepository(conn)
	if err := repo.Migrate(context.Background()); err != nil {
		fmt.Printf("Error creating schema: %v\n", err)
		os.Exit(1)
	}

	importer := service.NewImportService(repo, repository.NewSessionCache(30*time.Minute))

	preview, _, err := importer.Preview(context.Background(), content, *file, *encoding, true)
	if err != nil {
		fmt.Printf("Error previewing CSV: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Encoding: %s\n", preview.DetectedEncoding)
	fmt.Printf("Columns:  %v\n", preview.ColumnsDetected)
	fmt.Printf("Rows: %d total, %d valid, %d warnings, %d duplicates, %d errors\n",
		preview.TotalRows, preview.ValidRows, preview.WarningRows, preview.DuplicateRows, preview.ErrorRows)

	for _, row := range preview.Rows {
		for _, msg := range row.Errors {
			fmt.Printf("  row %d: ERROR %s\n", row.RowNumber, msg)
		}
		for _, msg := range row.Warnings {
			fmt.Printf("  row %d: WARN  %s\n", row.RowNumber, msg)
		}
	}

	if *dryRun {
		fmt.Println("Dry run, nothing written")
		return
	}

	var createdBy *int64
	if *user > 0 {
		createdBy = user
	}

	result := importer.Execute(context.Background(), service.ExecuteOptions{
		Rows:           preview.Rows,
		CreatedBy:      createdBy,
		SkipErrors:     *skipErrors,
		SkipDuplicates: *skipDuplicates,
	})

	for _, e := range result.Errors {
		if e.Row > 0 {
			fmt.Printf("  row %d: %s\n", e.Row, e.Message)
		} else {
			fmt.Printf("  %s\n", e.Message)
		}
	}

	if !result.Success {
		fmt.Println("Import failed")
		os.Exit(1)
	}

	fmt.Printf("Successfully imported %d records (%d skipped)\n", result.ImportedCount, result.SkippedCount)

	if err := verifyImport(context.Background(), conn, result.CreatedIDs); err != nil {
		fmt.Printf("Error verifying import: %v\n", err)
		os.Exit(1)
	}
}

func verifyImport(ctx context.Context, conn *pgxpool.Pool, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	var (
		id   int64
		name string
		geom string
	)
	err := conn.QueryRow(ctx,
		"SELECT id, name, ST_AsText(geom) FROM cultural_properties WHERE id = $1",
		ids[0],
	).Scan(&id, &name, &geom)
	if err != nil {
		return fmt.Errorf("failed to check sample record: %w", err)
	}

	fmt.Printf("Sample record: id=%d name=%s geom=%s\n", id, name, geom)
	return nil
}
