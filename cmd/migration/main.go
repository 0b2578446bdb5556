package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	_ = godotenv.Load()

	dbURL := strings.TrimSpace(os.Getenv("DB_URL"))
	if dbURL == "" {
		log.Fatal("DB_URL is required")
	}

	migrationsDir, err := resolveMigrationsDir()
	if err != nil {
		log.Fatalf("resolve migrations dir: %v", err)
	}

	sourceURL := "file://" + filepath.ToSlash(migrationsDir)
	m, err := migrate.New(sourceURL, dbURL)
	if err != nil {
		log.Fatalf("create migrator: %v", err)
	}
	defer closeMigrator(m)

	if err := run(m, sourceURL, os.Args[1], os.Args[2:]); err != nil {
		if errors.Is(err, errUnknownCommand) {
			printUsage()
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

var errUnknownCommand = errors.New("unknown command")

func run(m *migrate.Migrate, sourceURL, cmd string, args []string) error {
	switch strings.ToLower(strings.TrimSpace(cmd)) {
	case "up":
		if err := ignoreNoChange(m.Up()); err != nil {
			return err
		}
		log.Printf("migrations applied (source=%s)", sourceURL)
	case "down":
		steps := 1
		if len(args) > 0 {
			parsed, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil || parsed <= 0 {
				return fmt.Errorf("invalid down steps %q", args[0])
			}
			steps = parsed
		}
		if err := ignoreNoChange(m.Steps(-steps)); err != nil {
			return err
		}
		log.Printf("rolled back %d migration(s)", steps)
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("version: none")
			fmt.Println("dirty: false")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read version: %w", err)
		}
		fmt.Printf("version: %d\n", version)
		fmt.Printf("dirty: %t\n", dirty)
	case "force":
		target, err := parseTarget(args)
		if err != nil {
			return err
		}
		if err := m.Force(int(target)); err != nil {
			return fmt.Errorf("force version %d: %w", target, err)
		}
		log.Printf("forced version to %d", target)
	case "goto", "migrate":
		target, err := parseTarget(args)
		if err != nil {
			return err
		}
		if err := ignoreNoChange(m.Migrate(uint(target))); err != nil {
			return err
		}
		log.Printf("migrated to version %d", target)
	default:
		return errUnknownCommand
	}

	return nil
}

func parseTarget(args []string) (uint64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("a version argument is required")
	}
	target, err := strconv.ParseUint(strings.TrimSpace(args[0]), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", args[0], err)
	}
	return target, nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		log.Printf("no migration changes")
		return nil
	}
	return err
}

func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		log.Printf("close migration source: %v", srcErr)
	}
	if dbErr != nil {
		log.Printf("close migration db: %v", dbErr)
	}
}

func resolveMigrationsDir() (string, error) {
	candidates := []string{
		strings.TrimSpace(os.Getenv("MIGRATIONS_DIR")),
		"./migrations",
		"/app/migrations",
	}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			return abs, nil
		}
	}

	return "", fmt.Errorf("migration directory not found (checked MIGRATIONS_DIR, ./migrations, /app/migrations)")
}

func printUsage() {
	prog := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "usage: %s <up|down|version|force|goto> [args]\n", prog)
	fmt.Fprintln(os.Stderr, "examples:")
	fmt.Fprintf(os.Stderr, "  %s up\n", prog)
	fmt.Fprintf(os.Stderr, "  %s down 1\n", prog)
	fmt.Fprintf(os.Stderr, "  %s version\n", prog)
	fmt.Fprintf(os.Stderr, "  %s goto 1\n", prog)
}
