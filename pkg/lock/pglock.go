package lock

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/jackc/pgx/v5"
)

// Postgres is a Locker backed by a session-level Postgres advisory lock.
//
// Session advisory locks are tied to one connection, so Postgres holds a
// dedicated pgx connection open for its lifetime; Close releases it (and
// with it any lock still held).
type Postgres struct {
	conn *pgx.Conn
	key  int64
}

// NewPostgres connects to dsn and prepares an advisory lock keyed by a
// stable hash of name. Distinct names lock independently; every process
// migrating the same store must use the same name.
func NewPostgres(ctx context.Context, dsn, name string) (*Postgres, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting for advisory lock: %w", err)
	}
	return &Postgres{conn: conn, key: LockKey(name)}, nil
}

func (p *Postgres) Acquire(ctx context.Context) (func() error, error) {
	if _, err := p.conn.Exec(ctx, "SELECT pg_advisory_lock($1)", p.key); err != nil {
		return nil, fmt.Errorf("acquiring advisory lock %d: %w", p.key, err)
	}
	release := func() error {
		// Unlocking is not tied to the acquiring ctx; the run may have
		// been cancelled and the lock must still be released.
		if _, err := p.conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", p.key); err != nil {
			return fmt.Errorf("releasing advisory lock %d: %w", p.key, err)
		}
		return nil
	}
	return release, nil
}

// Close releases the dedicated connection.
func (p *Postgres) Close(ctx context.Context) error {
	return p.conn.Close(ctx)
}

// LockKey maps a lock name onto the Postgres advisory-lock keyspace.
func LockKey(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64())
}
