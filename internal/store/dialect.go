package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect captures the differences between the SQL databases the store can
// run on: the database/sql driver name, DSN preparation and the column types
// substituted into the migration DDL.
type Dialect struct {
	Name       string
	DriverName string
	// Returning is true when inserted ids must be read with RETURNING
	// instead of LastInsertId.
	Returning bool
	// PrepareDSN normalizes a user supplied DSN. May be nil.
	PrepareDSN func(dsn string) (string, error)
	// Types maps DDL placeholders ({{pk}}, {{bool}}, ...) to column types.
	Types map[string]string
}

var (
	dialectsMu sync.RWMutex
	dialects   = map[string]*Dialect{}
)

// RegisterDialect makes a dialect available to Open under d.Name.
func RegisterDialect(d *Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[d.Name] = d
}

// LookupDialect returns the dialect registered under name.
func LookupDialect(name string) (*Dialect, error) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[name]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q (available: %s)", name, strings.Join(dialectNamesLocked(), ", "))
	}
	return d, nil
}

// Dialects returns the registered dialect names, sorted.
func Dialects() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	return dialectNamesLocked()
}

func dialectNamesLocked() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ddl expands the type placeholders of a migration statement.
func (d *Dialect) ddl(stmt string) string {
	pairs := make([]string, 0, len(d.Types)*2)
	for k, v := range d.Types {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(stmt)
}

func init() {
	RegisterDialect(&Dialect{
		Name:       "sqlite",
		DriverName: "sqlite",
		PrepareDSN: func(dsn string) (string, error) {
			if dsn == "" {
				return ":memory:?_journal_mode=WAL", nil
			}
			if !strings.Contains(dsn, "?") {
				dsn += "?_journal_mode=WAL&_busy_timeout=5000"
			}
			return dsn, nil
		},
		Types: map[string]string{
			"pk":          "INTEGER PRIMARY KEY AUTOINCREMENT",
			"id":          "INTEGER PRIMARY KEY",
			"bigint":      "INTEGER",
			"bool":        "INTEGER",
			"ts":          "DATETIME",
			"longtext":    "TEXT",
			"ifnotexists": "IF NOT EXISTS ",
		},
	})

	RegisterDialect(&Dialect{
		Name:       "postgres",
		DriverName: "pgx",
		Returning:  true,
		Types: map[string]string{
			"pk":          "BIGSERIAL PRIMARY KEY",
			"id":          "BIGINT PRIMARY KEY",
			"bigint":      "BIGINT",
			"bool":        "BOOLEAN",
			"ts":          "TIMESTAMPTZ",
			"longtext":    "TEXT",
			"ifnotexists": "IF NOT EXISTS ",
		},
	})

	RegisterDialect(&Dialect{
		Name:       "mysql",
		DriverName: "mysql",
		PrepareDSN: func(dsn string) (string, error) {
			cfg, err := mysql.ParseDSN(dsn)
			if err != nil {
				return "", fmt.Errorf("parse mysql dsn: %w", err)
			}
			// time.Time scanning needs parseTime; the driver default is off.
			cfg.ParseTime = true
			return cfg.FormatDSN(), nil
		},
		Types: map[string]string{
			"pk":          "BIGINT AUTO_INCREMENT PRIMARY KEY",
			"id":          "BIGINT PRIMARY KEY",
			"bigint":      "BIGINT",
			"bool":        "BOOLEAN",
			"ts":          "DATETIME(6)",
			"longtext":    "LONGTEXT",
			"ifnotexists": "",
		},
	})
}
