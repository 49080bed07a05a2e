package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

var namePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

func main() {
	name := flag.String("name", "", "migration name, e.g. add_match_index")
	dir := flag.String("dir", filepath.Join("db", "migrations"), "migrations directory")
	flag.Parse()

	upPath, downPath, err := createMigration(*dir, *name, time.Now())
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("created %s and %s", upPath, downPath)
}

// createMigration writes an empty up/down pair named <timestamp>_<name>.
func createMigration(dir, name string, now time.Time) (string, string, error) {
	if name == "" {
		return "", "", fmt.Errorf("migration name is required")
	}
	if !namePattern.MatchString(name) {
		return "", "", fmt.Errorf("migration name must be lowercase letters, digits and underscores")
	}

	version := now.UTC().Format("20060102150405")
	base := fmt.Sprintf("%s_%s", version, name)
	upPath := filepath.Join(dir, base+".up.sql")
	downPath := filepath.Join(dir, base+".down.sql")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create migrations dir: %w", err)
	}
	if err := writeFile(upPath, "-- "+name+" (up)\n"); err != nil {
		return "", "", fmt.Errorf("create up migration: %w", err)
	}
	if err := writeFile(downPath, "-- "+name+" (down)\n"); err != nil {
		return "", "", fmt.Errorf("create down migration: %w", err)
	}
	return upPath, downPath, nil
}

func writeFile(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("file already exists: %s", path)
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
