package testutil

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"

	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/data/aggregates"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/dbctx"
)

// Fault selects where FaultRunner breaks a transaction.
type Fault int

const (
	NoFault Fault = iota
	// FaultBegin fails before the body runs.
	FaultBegin
	// FaultCommit runs the body, then fails so every write is rolled back.
	FaultCommit
)

var ErrInjected = errors.New("injected transaction fault")

// FaultRunner wraps real GORM transactions when DB is set; otherwise the
// body runs without a Tx.
type FaultRunner struct {
	DB    *gorm.DB
	Fault Fault

	mu        sync.Mutex
	begins    int
	commits   int
	rollbacks int
}

var _ aggregates.TxRunner = (*FaultRunner)(nil)

func (r *FaultRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.begins++
	fault, db := r.Fault, r.DB
	r.mu.Unlock()

	if fault == FaultBegin {
		return ErrInjected
	}
	body := func(dbc dbctx.Context) error {
		if fn != nil {
			if err := fn(dbc); err != nil {
				return err
			}
		}
		if fault == FaultCommit {
			return ErrInjected
		}
		return nil
	}

	var err error
	if db != nil {
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return body(dbctx.Context{Ctx: ctx, Tx: tx})
		})
	} else {
		err = body(dbctx.Context{Ctx: ctx})
	}

	r.mu.Lock()
	if err != nil {
		r.rollbacks++
	} else {
		r.commits++
	}
	r.mu.Unlock()
	return err
}

// Stats reports begin, commit and rollback counts so far.
func (r *FaultRunner) Stats() (begins, commits, rollbacks int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.begins, r.commits, r.rollbacks
}
