package payments

import "testing"

func TestComputeFee(t *testing.T) {
	cases := []struct {
		name        string
		amount      int64
		providerPct string
		fixed       int64
		platformPct string
		wantFee     int64
	}{
		{"typical card", 1000, "2.9", 30, "1", 69},
		{"no fees", 1000, "", 0, "", 0},
		{"half rounds down to even", 250, "1", 0, "", 2},
		{"half rounds up to even", 350, "1", 0, "", 4},
		{"fractional percentages", 12345, "1.75", 20, "0.25", 267},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputeFee(tc.amount, tc.providerPct, tc.fixed, tc.platformPct)
			if err != nil {
				t.Fatalf("ComputeFee: %v", err)
			}
			if got.Fee != tc.wantFee || got.NetAmount != tc.amount-tc.wantFee {
				t.Fatalf("fee: want=%d got=%+v", tc.wantFee, got)
			}
		})
	}
}

func TestComputeFeeRejectsBadPercent(t *testing.T) {
	if _, err := ComputeFee(100, "abc", 0, ""); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := ComputeFee(100, "-1", 0, ""); err == nil {
		t.Fatalf("expected negative percentage error")
	}
}
