package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/dbctx"
)

func TestFaultRunner(t *testing.T) {
	bodyErr := errors.New("line item rejected")
	cases := []struct {
		name          string
		fault         Fault
		body          error
		wantErr       error
		wantRan       bool
		wantCommits   int
		wantRollbacks int
	}{
		{name: "commit", fault: NoFault, wantRan: true, wantCommits: 1},
		{name: "body error", fault: NoFault, body: bodyErr, wantErr: bodyErr, wantRan: true, wantRollbacks: 1},
		{name: "commit fault", fault: FaultCommit, wantErr: ErrInjected, wantRan: true, wantRollbacks: 1},
		{name: "begin fault", fault: FaultBegin, wantErr: ErrInjected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := &FaultRunner{Fault: tc.fault}
			ran := false
			err := r.InTx(context.Background(), func(dbctx.Context) error {
				ran = true
				return tc.body
			})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err: want=%v got=%v", tc.wantErr, err)
			}
			if ran != tc.wantRan {
				t.Fatalf("body ran: want=%v got=%v", tc.wantRan, ran)
			}
			begins, commits, rollbacks := r.Stats()
			if begins != 1 || commits != tc.wantCommits || rollbacks != tc.wantRollbacks {
				t.Fatalf("stats: want=(1,%d,%d) got=(%d,%d,%d)", tc.wantCommits, tc.wantRollbacks, begins, commits, rollbacks)
			}
		})
	}
}
