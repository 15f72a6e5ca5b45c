package planner_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/gymplan/internal/planner"
)

func TestNewTimePolicy(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		session  int
		min, max int
		want     planner.TimePolicy
	}{
		{
			name:    "midpoint",
			session: 60, min: 45, max: 75,
			want: planner.TimePolicy{Scale: 1},
		},
		{
			name:    "above range",
			session: 100, min: 45, max: 75,
			want: planner.TimePolicy{Scale: 1.15, AboveMax: true, OverBy: 25},
		},
		{
			name:    "below range",
			session: 30, min: 45, max: 75,
			want: planner.TimePolicy{Scale: 0.85, BelowMin: true, UnderBy: 15},
		},
		{
			name:    "missing session",
			session: 0, min: 45, max: 75,
			want: planner.TimePolicy{Scale: 1},
		},
		{
			name:    "inverted range",
			session: 60, min: 75, max: 45,
			want: planner.TimePolicy{Scale: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := planner.NewTimePolicy(tt.session, tt.min, tt.max)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("NewTimePolicy mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAdjustSets(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		base     int
		slotType planner.SlotType
		policy   planner.TimePolicy
		want     int
	}{
		{"neutral", 4, planner.SlotCompound, planner.NewTimePolicy(60, 45, 75), 4},
		{"over by a quarter hour compound", 4, planner.SlotCompound, planner.NewTimePolicy(90, 45, 75), 6},
		{"over by a quarter hour other", 2, planner.SlotOther, planner.NewTimePolicy(90, 45, 75), 3},
		{"slightly over", 3, planner.SlotMain, planner.NewTimePolicy(80, 45, 75), 4},
		{"under by a quarter hour", 4, planner.SlotCompound, planner.NewTimePolicy(30, 45, 75), 2},
		{"never below one", 1, planner.SlotOther, planner.NewTimePolicy(5, 45, 75), 1},
		{"scaled down inside range", 4, planner.SlotMain, planner.NewTimePolicy(50, 40, 80), 3},
		{"scaled up inside range", 5, planner.SlotMain, planner.NewTimePolicy(66, 40, 80), 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := planner.AdjustSets(tt.base, tt.slotType, tt.policy); got != tt.want {
				t.Errorf("AdjustSets(%d, %s) = %d, want %d", tt.base, tt.slotType, got, tt.want)
			}
		})
	}
}

func TestAdjustSets_staysWithinBounds(t *testing.T) {
	t.Parallel()
	extra := map[planner.SlotType]int{
		planner.SlotCompound: 2,
		planner.SlotMain:     2,
		planner.SlotPrimary:  2,
		planner.SlotOther:    1,
		"":                   1,
	}
	for slotType, maxExtra := range extra {
		for base := 1; base <= 6; base++ {
			for session := 0; session <= 200; session += 5 {
				got := planner.AdjustSets(base, slotType, planner.NewTimePolicy(session, 40, 70))
				if got < 1 || got > base+maxExtra {
					t.Fatalf("AdjustSets(%d, %q) at %d minutes = %d, want within [1, %d]",
						base, slotType, session, got, base+maxExtra)
				}
			}
		}
	}
}
