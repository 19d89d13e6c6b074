package aggregates

import (
	"context"
	"errors"
	"testing"

	domainagg "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/aggregates"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/dbctx"
)

type outcomeLog []WriteOutcome

func (l *outcomeLog) RecordWrite(o WriteOutcome) { *l = append(*l, o) }

var directRunner = TxRunnerFunc(func(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	return fn(dbctx.Context{Ctx: ctx})
})

func TestExecuteWriteRecordsOutcome(t *testing.T) {
	cases := []struct {
		name       string
		body       error
		wantCode   domainagg.ErrorCode
		wantStatus string
	}{
		{name: "success", wantStatus: "success"},
		{name: "stale version", body: ConflictError("order moved on"), wantCode: domainagg.CodeConflict, wantStatus: "conflict"},
		{name: "locked", body: errors.New("database is locked"), wantCode: domainagg.CodeRetryable, wantStatus: "retryable"},
		{name: "broken rule", body: InvariantError("no tx"), wantCode: domainagg.CodeInvariantViolation, wantStatus: "invariant_violation"},
		{
			name:       "coded passthrough",
			body:       domainagg.NewError(domainagg.CodeInvalidTransition, "order.commit_transition", "complete from draft", nil),
			wantCode:   domainagg.CodeInvalidTransition,
			wantStatus: "invalid_transition",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var log outcomeLog
			err := executeWrite(context.Background(), BaseDeps{Runner: directRunner, Hooks: &log}, "order.commit_transition",
				func(dbctx.Context) error { return tc.body })
			if got := domainagg.CodeOf(err); got != tc.wantCode {
				t.Fatalf("code: want=%q got=%q (%v)", tc.wantCode, got, err)
			}
			if len(log) != 1 {
				t.Fatalf("outcomes: want=1 got=%d", len(log))
			}
			if log[0].Op != "order.commit_transition" || log[0].Status() != tc.wantStatus {
				t.Fatalf("outcome: want=(order.commit_transition,%s) got=(%s,%s)", tc.wantStatus, log[0].Op, log[0].Status())
			}
		})
	}
}

func TestExecuteWriteDefaultsOpName(t *testing.T) {
	var log outcomeLog
	if err := executeWrite(context.Background(), BaseDeps{Runner: directRunner, Hooks: &log}, "  ", func(dbctx.Context) error { return nil }); err != nil {
		t.Fatalf("executeWrite: %v", err)
	}
	if log[0].Op != "aggregate.write" {
		t.Fatalf("op: want=aggregate.write got=%s", log[0].Op)
	}
}

func TestGormTxRunnerWithoutDB(t *testing.T) {
	err := NewGormTxRunner(nil).InTx(context.Background(), func(dbctx.Context) error { return nil })
	if !domainagg.IsCode(err, domainagg.CodeInternal) {
		t.Fatalf("nil db: want=internal got=%v", err)
	}
}
