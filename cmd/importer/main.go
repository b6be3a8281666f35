package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"recognition-api/internal/config"

	"github.com/jackc/pgx/v5"
)

type knownLocationRecord struct {
	CanonicalKey string
	Name         string
	Address      string
	Lat          float64
	Lng          float64
	Aliases      []string
	Phone        string
}

func main() {
	file := flag.String("file", "", "Path to the known-locations CSV file to import")
	flag.Parse()

	if *file == "" {
		fmt.Println("Error: --file flag is required")
		os.Exit(1)
	}

	fmt.Printf("Starting import from file: %s\n", *file)

	records, err := parseCSV(*file)
	if err != nil {
		fmt.Printf("Error parsing CSV: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Parsed %d records\n", len(records))

	// Load config
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Connect to DB
	conn, err := pgx.Connect(context.Background(), cfg.DBSource)
	if err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(context.Background())

	// Ensure tables exist
	err = createTablesIfNotExist(conn)
	if err != nil {
		fmt.Printf("Error creating tables: %v\n", err)
		os.Exit(1)
	}

	// Insert records
	err = insertRecords(conn, records)
	if err != nil {
		fmt.Printf("Error inserting records: %v\n", err)
		os.Exit(1)
	}

	// Verify data
	err = verifyImport(conn, len(records))
	if err != nil {
		fmt.Printf("Error verifying import: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully imported %d records\n", len(records))
}

// parseCSV reads rows of the form:
// canonical_key,name,address,latitude,longitude,aliases,phone
// where aliases is a semicolon-separated list and phone may be empty.
func parseCSV(filePath string) ([]knownLocationRecord, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields

	// Skip header
	_, err = reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var records []knownLocationRecord
	for {
		record, err := reader.Read()
		if err != nil {
			if err.Error() == "EOF" {
				break
			}
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		if len(record) < 5 {
			return nil, fmt.Errorf("invalid record length: %d, expected at least 5 columns", len(record))
		}

		lat, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude: %s", record[3])
		}

		lng, err := strconv.ParseFloat(record[4], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude: %s", record[4])
		}

		location := knownLocationRecord{
			CanonicalKey: record[0],
			Name:         record[1],
			Address:      record[2],
			Lat:          lat,
			Lng:          lng,
		}
		if len(record) > 5 && record[5] != "" {
			location.Aliases = strings.Split(record[5], ";")
		}
		if len(record) > 6 {
			location.Phone = record[6]
		}

		records = append(records, location)
	}

	return records, nil
}

func createTablesIfNotExist(conn *pgx.Conn) error {
	query := `
	CREATE TABLE IF NOT EXISTS known_locations (
		id BIGSERIAL PRIMARY KEY,
		canonical_key VARCHAR(255) NOT NULL UNIQUE,
		name VARCHAR(255) NOT NULL,
		address VARCHAR(512) NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		aliases TEXT[] NOT NULL DEFAULT '{}',
		phone VARCHAR(32) NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS corrections (
		id UUID PRIMARY KEY,
		original_address VARCHAR(512) NOT NULL DEFAULT '',
		correct_address VARCHAR(512) NOT NULL,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		image_ref VARCHAR(512) NOT NULL DEFAULT '',
		device_id VARCHAR(255) NOT NULL DEFAULT '',
		method VARCHAR(64) NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS corrections_coords_idx ON corrections (latitude, longitude);
	CREATE TABLE IF NOT EXISTS training_queue (
		id BIGSERIAL PRIMARY KEY,
		image_ref VARCHAR(512) NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		address VARCHAR(512) NOT NULL DEFAULT '',
		device_id VARCHAR(255) NOT NULL DEFAULT '',
		status VARCHAR(16) NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		processed_at TIMESTAMPTZ
	);
	CREATE INDEX IF NOT EXISTS training_queue_dedup_idx ON training_queue (image_ref, latitude, longitude);
	CREATE INDEX IF NOT EXISTS training_queue_status_idx ON training_queue (status, created_at);
	`
	_, err := conn.Exec(context.Background(), query)
	return err
}

func insertRecords(conn *pgx.Conn, records []knownLocationRecord) error {
	// Use CopyFrom for bulk insert
	_, err := conn.CopyFrom(
		context.Background(),
		pgx.Identifier{"known_locations"},
		[]string{"canonical_key", "name", "address", "latitude", "longitude", "aliases", "phone"},
		pgx.CopyFromSlice(len(records), func(i int) ([]interface{}, error) {
			r := records[i]
			aliases := r.Aliases
			if aliases == nil {
				aliases = []string{}
			}
			return []interface{}{r.CanonicalKey, r.Name, r.Address, r.Lat, r.Lng, aliases, r.Phone}, nil
		}),
	)
	return err
}

func verifyImport(conn *pgx.Conn, expectedCount int) error {
	var count int
	err := conn.QueryRow(context.Background(), "SELECT COUNT(*) FROM known_locations").Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to count records: %w", err)
	}

	if count < expectedCount {
		return fmt.Errorf("record count mismatch: expected at least %d, got %d", expectedCount, count)
	}

	// Check a sample entry
	var key string
	err = conn.QueryRow(context.Background(), "SELECT canonical_key FROM known_locations LIMIT 1").Scan(&key)
	if err != nil {
		return fmt.Errorf("failed to check sample entry: %w", err)
	}

	fmt.Printf("Sample entry: %s\n", key)
	return nil
}
