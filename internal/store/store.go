package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/vbonduro/multirental/internal/domain"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every store can run inside
// or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repos groups the table stores bound to one DBTX.
type Repos struct {
	Branches     *BranchStore
	Tools        *ToolStore
	StockLines   *StockLineStore
	Transactions *TransactionStore
}

func NewRepos(q DBTX) *Repos {
	return &Repos{
		Branches:     NewBranchStore(q),
		Tools:        NewToolStore(q),
		StockLines:   NewStockLineStore(q),
		Transactions: NewTransactionStore(q),
	}
}

// Store owns the database handle. Reads go through Repos; every mutation goes
// through InTx.
type Store struct {
	db    *sql.DB
	repos *Repos
}

func New(db *sql.DB) *Store {
	return &Store{db: db, repos: NewRepos(db)}
}

// Repos returns stores bound to the pool, for reads outside a transaction.
func (s *Store) Repos() *Repos {
	return s.repos
}

// InTx runs fn inside one database transaction. The transaction commits only
// if fn returns nil; any error or panic rolls it back before InTx returns.
// Lock timeouts surface as domain.ErrTransientStoreFailure.
func (s *Store) InTx(ctx context.Context, fn func(r *Repos) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Classify(fmt.Errorf("failed to begin transaction: %w", err))
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
				slog.Error("failed to roll back transaction", "error", rerr)
			}
		}
	}()

	if err = fn(NewRepos(tx)); err != nil {
		return Classify(err)
	}

	if err = tx.Commit(); err != nil {
		return Classify(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// Classify tags raw driver errors with a domain kind. Errors that already
// carry a kind, and errors it does not recognize, are returned unchanged.
func Classify(err error) error {
	if err == nil || domain.KindOf(err) != nil {
		return err
	}

	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return err
	}

	code := serr.Code()
	switch code & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return &domain.Error{Kind: domain.ErrTransientStoreFailure, Err: err}
	case sqlite3.SQLITE_CONSTRAINT:
		if isUniqueViolation(serr) {
			return err
		}
		return &domain.Error{Kind: domain.ErrIntegrityViolation, Err: err}
	}
	return err
}

// IsUniqueViolation reports whether err is a UNIQUE constraint failure.
func IsUniqueViolation(err error) bool {
	var serr *sqlite.Error
	return errors.As(err, &serr) && isUniqueViolation(serr)
}

func isUniqueViolation(serr *sqlite.Error) bool {
	code := serr.Code()
	if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
		return true
	}
	return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(serr.Error(), "UNIQUE")
}

// escapeLike escapes LIKE wildcards so user input matches literally. Queries
// using it must declare ESCAPE '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func likePattern(s string) string {
	return "%" + escapeLike(strings.ToLower(s)) + "%"
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		slog.Error("failed to close rows", "error", err)
	}
}
