package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vbonduro/multirental/internal/domain"
	"github.com/vbonduro/multirental/internal/store"
)

// ledger is the subset of store.Store the services require.
type ledger interface {
	Repos() *store.Repos
	InTx(ctx context.Context, fn func(r *store.Repos) error) error
}

// logFailure logs err at a level matching its kind: rejected requests are
// warnings, store faults are errors.
func logFailure(logger *slog.Logger, msg string, err error, args ...any) {
	args = append(args, "error", err)
	kind := domain.KindOf(err)
	switch {
	case kind == nil, errors.Is(kind, domain.ErrIntegrityViolation):
		logger.Error(msg, args...)
	default:
		logger.Warn(msg, append(args, "kind", kind.Error())...)
	}
}
