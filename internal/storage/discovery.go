package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ProjectDir is the per-project directory holding the database, the
// config file and the session lock.
const ProjectDir = ".hive"

// ErrNoDatabase is returned by discovery when no database exists yet.
var ErrNoDatabase = errors.New("no database found")

// DiscoverDatabase looks for .hive/*.db in the current directory only.
// Returns the absolute path to the database file, or an error wrapping
// ErrNoDatabase if not found.
//
// HIVE_DB_PATH is checked first so tests and scripts can point at an
// explicit file (or ":memory:") without discovery.
func DiscoverDatabase() (string, error) {
	if dbPath := os.Getenv("HIVE_DB_PATH"); dbPath != "" {
		return dbPath, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	// Parent directories are not searched, so a nested checkout never
	// picks up an enclosing project's learning data.
	return discoverDatabaseInDir(dir)
}

// ResolveDatabase returns the discovered database, falling back to
// .hive/hive.db under the current directory when none exists yet.
func ResolveDatabase() (string, error) {
	dbPath, err := DiscoverDatabase()
	if err == nil {
		return dbPath, nil
	}
	if !errors.Is(err, ErrNoDatabase) {
		return "", err
	}
	return filepath.Abs(DefaultPath)
}

// discoverDatabaseInDir checks for .hive/*.db in the specified directory only.
func discoverDatabaseInDir(dir string) (string, error) {
	hiveDir := filepath.Join(dir, ProjectDir)

	if info, err := os.Stat(hiveDir); err == nil && info.IsDir() {
		entries, err := os.ReadDir(hiveDir)
		if err == nil {
			// ReadDir sorts by name, so the choice is stable
			for _, entry := range entries {
				if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".db") {
					absPath, err := filepath.Abs(filepath.Join(hiveDir, entry.Name()))
					if err != nil {
						return "", fmt.Errorf("failed to get absolute path: %w", err)
					}
					return absPath, nil
				}
			}
		}
	}

	return "", fmt.Errorf(
		"%w: no %s/*.db in %s\n"+
			"  Run 'hive init' to create one in this directory\n"+
			"  Or use --db flag to specify database path explicitly",
		ErrNoDatabase, ProjectDir, dir)
}

// GetProjectRoot returns the project root directory for a given database path.
// The project root is the directory containing the .hive/ directory.
//
// Example:
//
//	dbPath: /home/user/myproject/.hive/hive.db
//	returns: /home/user/myproject
func GetProjectRoot(dbPath string) (string, error) {
	absPath, err := filepath.Abs(dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	dbDir := filepath.Dir(absPath)
	if filepath.Base(dbDir) != ProjectDir {
		return "", fmt.Errorf("database must be in a %s/ directory, got: %s", ProjectDir, dbPath)
	}

	return filepath.Dir(dbDir), nil
}

// ConfigPath returns the config file that belongs to a database, whether
// or not it exists.
func ConfigPath(dbPath string) string {
	return filepath.Join(filepath.Dir(dbPath), "config.yaml")
}

// ValidateAlignment ensures database and working directory are in the same
// project, so learning from one project is never applied to another.
func ValidateAlignment(dbPath, workingDir string) error {
	projectRoot, err := GetProjectRoot(dbPath)
	if err != nil {
		return fmt.Errorf("invalid database path: %w", err)
	}

	absWorkingDir, err := filepath.Abs(workingDir)
	if err != nil {
		return fmt.Errorf("invalid working directory: %w", err)
	}

	if !isAtOrBelow(absWorkingDir, projectRoot) {
		return fmt.Errorf(
			"database-working directory mismatch:\n"+
				"  database: %s\n"+
				"  project root: %s\n"+
				"  working directory: %s\n"+
				"\n"+
				"Either:\n"+
				"  - cd %s && hive ...\n"+
				"  - Use the correct --db flag for this directory",
			dbPath, projectRoot, absWorkingDir, projectRoot)
	}

	return nil
}

// isAtOrBelow checks if path is at or below root in the directory tree
func isAtOrBelow(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}

// InitProject creates a new .hive directory and returns the path the
// database should be opened at. The database itself is created on first
// connection.
func InitProject(projectDir, projectName string) (string, error) {
	if _, err := os.Stat(projectDir); os.IsNotExist(err) {
		return "", fmt.Errorf("project directory does not exist: %s", projectDir)
	}

	hiveDir := filepath.Join(projectDir, ProjectDir)
	if err := os.MkdirAll(hiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", ProjectDir, err)
	}

	dbName := projectName
	if dbName == "" {
		dbName = "hive"
	}
	if !strings.HasSuffix(dbName, ".db") {
		dbName += ".db"
	}

	dbPath := filepath.Join(hiveDir, dbName)
	if _, err := os.Stat(dbPath); err == nil {
		return "", fmt.Errorf("database already exists: %s", dbPath)
	}

	// the session lock is per machine
	ignore := filepath.Join(hiveDir, ".gitignore")
	if _, err := os.Stat(ignore); os.IsNotExist(err) {
		if err := os.WriteFile(ignore, []byte(sessionLockName+"\n.repl-history\n*.db-wal\n*.db-shm\n"), 0644); err != nil {
			return "", fmt.Errorf("failed to create .gitignore: %w", err)
		}
	}

	return dbPath, nil
}
