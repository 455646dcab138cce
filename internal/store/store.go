package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Options selects and tunes the database behind a Store.
type Options struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store persists administrators, contact submissions and site content.
type Store struct {
	db      *sqlx.DB
	dialect *Dialect
}

// Open connects to the configured database and applies the migrations.
// A sqlite driver with an empty DSN yields a private in-memory database.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Driver == "" {
		opts.Driver = "sqlite"
	}
	d, err := LookupDialect(opts.Driver)
	if err != nil {
		return nil, err
	}

	dsn := opts.DSN
	if d.PrepareDSN != nil {
		if dsn, err = d.PrepareDSN(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.ConnectContext(ctx, d.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d.Name, err)
	}

	if d.Name == "sqlite" {
		// One connection: sqlite serializes writers and an in-memory
		// database lives only as long as its connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	} else {
		if opts.MaxOpenConns > 0 {
			db.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			db.SetMaxIdleConns(opts.MaxIdleConns)
		}
		if opts.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(opts.ConnMaxLifetime)
		}
	}

	s := &Store{db: db, dialect: d}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s database: %w", d.Name, err)
	}
	return s, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Driver returns the name of the dialect in use.
func (s *Store) Driver() string {
	return s.dialect.Name
}

// insert runs a named INSERT and returns the generated id.
func (s *Store) insert(ctx context.Context, q string, arg any) (int64, error) {
	if s.dialect.Returning {
		stmt, err := s.db.PrepareNamedContext(ctx, q+" RETURNING id")
		if err != nil {
			return 0, err
		}
		defer stmt.Close()
		var id int64
		if err := stmt.GetContext(ctx, &id, arg); err != nil {
			return 0, err
		}
		return id, nil
	}

	result, err := s.db.NamedExecContext(ctx, q, arg)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// exec runs a positional statement that must touch at least one row.
func (s *Store) exec(ctx context.Context, q string, args ...any) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(q), args...)
	if err != nil {
		return err
	}
	return mustAffect(result.RowsAffected())
}

func mustAffect(n int64, err error) error {
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func now() time.Time {
	return time.Now().UTC()
}
