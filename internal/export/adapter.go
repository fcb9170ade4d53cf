package export

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Config holds the configuration for connecting to an export target.
type Config struct {
	// Type names the registered adapter (e.g. "duckdb", "postgres").
	Type string

	// Path is the file path for file-based databases. Use ":memory:"
	// for an in-memory database.
	Path string

	// Host is the hostname for network-based databases.
	Host string

	// Port is the port number for network-based databases.
	Port int

	// Database is the database name.
	Database string

	// Username for authentication.
	Username string

	// Password for authentication.
	Password string

	// Options contains additional driver-specific options.
	Options map[string]string
}

// Rows wraps sql.Rows to provide a consistent interface across adapters.
type Rows struct {
	*sql.Rows
}

// Adapter is the contract every export target implements.
type Adapter interface {
	// Connect establishes a connection using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string) (*Rows, error)

	// LoadCSV loads a CSV file into a table, creating the table with an
	// inferred schema.
	LoadCSV(ctx context.Context, tableName string, filePath string) error
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func(*slog.Logger) Adapter)
)

// Register adds an adapter factory to the registry. Called by adapter
// implementations in their init() functions.
func Register(name string, factory func(*slog.Logger) Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Get retrieves an adapter factory by name.
func Get(name string) (func(*slog.Logger) Adapter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// NewAdapter creates an adapter instance for cfg.Type. A nil logger uses
// a discard logger.
func NewAdapter(cfg Config, logger *slog.Logger) (Adapter, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("adapter type not specified")
	}
	factory, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownTargetError{Type: cfg.Type, Available: ListTargets()}
	}
	return factory(logger), nil
}

// ListTargets returns all registered adapter names (sorted).
func ListTargets() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if an adapter type is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// UnknownTargetError is returned when an unknown target type is requested.
type UnknownTargetError struct {
	Type      string
	Available []string
}

func (e *UnknownTargetError) Error() string {
	return fmt.Sprintf("unknown target type %q\nAvailable targets: %v\nHint: check --target or target.type in nmrtab.yaml", e.Type, e.Available)
}

// baseSQL provides common database/sql functionality. Embed it in
// adapters to get standard Close, Exec, and Query implementations.
type baseSQL struct {
	DB     *sql.DB
	Cfg    Config
	Logger *slog.Logger
}

func (b *baseSQL) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

func (b *baseSQL) Exec(ctx context.Context, sqlStr string) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	if _, err := b.DB.ExecContext(ctx, sqlStr); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

func (b *baseSQL) Query(ctx context.Context, sqlStr string) (*Rows, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	rows, err := b.DB.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return &Rows{Rows: rows}, nil
}
