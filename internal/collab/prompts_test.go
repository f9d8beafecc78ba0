package collab

import "testing"

func TestPromptCount(t *testing.T) {
	cases := []struct {
		seconds float64
		per     int
		want    int
	}{
		{185, 20, 10},
		{180, 20, 9},
		{1, 20, 1},
		{20, 20, 1},
		{20.5, 20, 2},
		{0, 20, 0},
		{185, 0, 0},
	}
	for _, tc := range cases {
		if got := PromptCount(tc.seconds, tc.per); got != tc.want {
			t.Errorf("PromptCount(%v, %d) = %d, want %d", tc.seconds, tc.per, got, tc.want)
		}
	}
}
