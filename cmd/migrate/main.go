// CLI tool to run pending database migrations from db/.
// Checks the migrations table to skip already-applied files.
// Wraps each migration + record insert in a single transaction.
// Usage: go run ./cmd/migrate           (from the repo root)
//        go run ./cmd/migrate status    (list applied/pending, change nothing)
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, os.Getenv("DB_URL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	files, err := filepath.Glob(filepath.Join("db", "*.sql"))
	if err != nil || len(files) == 0 {
		fmt.Fprintln(os.Stderr, "No migration files found in db/")
		os.Exit(1)
	}
	sort.Strings(files)

	applied := appliedMigrations(ctx, conn)

	if len(os.Args) > 1 && os.Args[1] == "status" {
		printStatus(files, applied)
		return
	}

	ran := 0
	for _, f := range files {
		filename := filepath.Base(f)
		if _, ok := applied[filename]; ok {
			fmt.Printf("  skip: %s\n", filename)
			continue
		}

		content, err := os.ReadFile(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", filename, err)
			os.Exit(1)
		}

		tx, err := conn.Begin(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error starting transaction: %v\n", err)
			os.Exit(1)
		}

		if _, err := tx.Exec(ctx, string(content)); err != nil {
			tx.Rollback(ctx)
			fmt.Fprintf(os.Stderr, "Error running %s: %v\n", filename, err)
			os.Exit(1)
		}

		desc := descriptionFromFilename(filename)
		if _, err := tx.Exec(ctx, "INSERT INTO migrations (migration, description) VALUES ($1, $2)", filename, desc); err != nil {
			tx.Rollback(ctx)
			fmt.Fprintf(os.Stderr, "Error recording %s: %v\n", filename, err)
			os.Exit(1)
		}

		if err := tx.Commit(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error committing %s: %v\n", filename, err)
			os.Exit(1)
		}

		fmt.Printf("  applied: %s\n", filename)
		ran++
	}

	if ran == 0 {
		fmt.Println("No pending migrations.")
	} else {
		fmt.Printf("\n%d migration(s) applied.\n", ran)
	}
}

// appliedMigrations returns filename → applied_at for every recorded migration.
// An empty map when the migrations table doesn't exist yet (fresh database).
func appliedMigrations(ctx context.Context, conn *pgx.Conn) map[string]time.Time {
	applied := make(map[string]time.Time)
	rows, err := conn.Query(ctx, "SELECT migration, applied_at FROM migrations")
	if err != nil {
		return applied
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var at time.Time
		rows.Scan(&name, &at)
		applied[name] = at
	}
	return applied
}

// printStatus lists every migration file with its applied timestamp, or
// "pending" for files not yet run.
func printStatus(files []string, applied map[string]time.Time) {
	pending := 0
	for _, f := range files {
		filename := filepath.Base(f)
		if at, ok := applied[filename]; ok {
			fmt.Printf("  applied %s  %s\n", at.Format("2006-01-02 15:04"), filename)
		} else {
			fmt.Printf("  pending %s  %s\n", strings.Repeat(" ", 16), filename)
			pending++
		}
	}
	fmt.Printf("\n%d file(s), %d pending.\n", len(files), pending)
}

// descriptionFromFilename strips the YYYY-MM-DD-NNN- prefix and .sql suffix.
func descriptionFromFilename(filename string) string {
	name := strings.TrimSuffix(filename, ".sql")
	re := regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-\d{3}-`)
	name = re.ReplaceAllString(name, "")
	return strings.ReplaceAll(name, "-", " ")
}
