package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"skillwise/internal/common"

	"github.com/jackc/pgx/v5/pgconn"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type PgStore struct {
	db *sql.DB
	tx *sql.Tx
	q  querier
}

func NewPgStore(db *sql.DB) *PgStore {
	return &PgStore{db: db, q: db}
}

func (s *PgStore) Users() UserRepository { return &pgUserRepository{q: s.q} }
func (s *PgStore) Goals() GoalRepository { return &pgGoalRepository{q: s.q} }
func (s *PgStore) Challenges() ChallengeRepository { return &pgChallengeRepository{q: s.q} }
func (s *PgStore) Events() ProgressEventRepository { return &pgProgressEventRepository{q: s.q} }
func (s *PgStore) Submissions() SubmissionRepository { return &pgSubmissionRepository{q: s.q} }
func (s *PgStore) Ping(ctx context.Context) error { return classify("ping", s.db.PingContext(ctx)) }

func (s *PgStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin transaction", err)
	}
	defer tx.Rollback() // Rollback if not committed

	if err := fn(&PgStore{db: s.db, tx: tx, q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify("commit transaction", err)
	}
	return nil
}

// classify wraps a driver error with the matching domain sentinel, keeping
// the original in the chain.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, common.ErrNotFound)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505": // unique_violation
			return fmt.Errorf("%s: %w", op, common.ErrConflict)
		case pgErr.Code == "23503": // foreign_key_violation
			return fmt.Errorf("%s: referenced row does not exist: %w", op, common.ErrNotFound)
		case pgErr.Code == "40001", pgErr.Code == "40P01", strings.HasPrefix(pgErr.Code, "08"):
			return fmt.Errorf("%s: %w: %w", op, common.ErrTransient, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || pgconn.SafeToRetry(err) {
		return fmt.Errorf("%s: %w: %w", op, common.ErrTransient, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func rowsAffected(op string, res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classify(op, err)
	}
	return n, nil
}
