package aggregates

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	domainagg "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/aggregates"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/dbctx"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
)

// TxRunner opens the transaction an aggregate write runs in.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

// TxRunnerFunc adapts a plain function to TxRunner.
type TxRunnerFunc func(ctx context.Context, fn func(dbc dbctx.Context) error) error

func (f TxRunnerFunc) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	return f(ctx, fn)
}

// NewGormTxRunner runs each write in its own GORM transaction.
func NewGormTxRunner(db *gorm.DB) TxRunner {
	return TxRunnerFunc(func(ctx context.Context, fn func(dbc dbctx.Context) error) error {
		if fn == nil {
			return nil
		}
		if db == nil {
			return domainagg.NewError(domainagg.CodeInternal, "aggregate.tx", "no database configured for aggregate writes", nil)
		}
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(dbctx.Context{Ctx: ctx, Tx: tx})
		})
	})
}

// BaseDeps is shared by every aggregate. Zero-valued fields fall back to a
// GORM runner, silent hooks and a version guard on DB.
type BaseDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Runner   TxRunner
	Hooks    Hooks
	Versions VersionGuard
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.Versions.db == nil {
		d.Versions = NewVersionGuard(d.DB)
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return d
}

// executeWrite runs fn in one transaction and reports the classified outcome.
// The returned error is always nil or a *domainagg.Error.
func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	deps = deps.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}

	started := time.Now()
	err := Classify(op, deps.Runner.InTx(ctx, fn))
	outcome := WriteOutcome{Op: op, Code: domainagg.CodeOf(err), Duration: time.Since(started)}
	deps.Hooks.RecordWrite(outcome)

	switch outcome.Code {
	case domainagg.CodeConflict:
		deps.Log.Debug("aggregate write lost a version race", "op", op)
	case domainagg.CodeInternal:
		deps.Log.Error("aggregate write failed", "op", op, "error", err)
	}
	return err
}
