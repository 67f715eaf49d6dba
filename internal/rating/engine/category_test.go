package engine

import "testing"

func TestCategorizeTotality(t *testing.T) {
	valid := map[string]bool{
		"Very Poor": true,
		"Poor":      true,
		"Fair":      true,
		"Good":      true,
		"Excellent": true,
	}
	for r := 0; r <= 100; r++ {
		got := Categorize(float64(r))
		if !valid[got.Category] {
			t.Fatalf("score %d produced unknown category %q", r, got.Category)
		}
		if got.Color == "" || got.Description == "" {
			t.Fatalf("score %d produced incomplete category %+v", r, got)
		}
	}
}

func TestCategorizeBands(t *testing.T) {
	cases := []struct {
		rating   float64
		category string
		color    string
	}{
		{0, "Very Poor", "red"},
		{19, "Very Poor", "red"},
		{20, "Poor", "orange"},
		{39, "Poor", "orange"},
		{40, "Fair", "yellow"},
		{59, "Fair", "yellow"},
		{60, "Good", "light green"},
		{79, "Good", "light green"},
		{80, "Excellent", "green"},
		{100, "Excellent", "green"},
	}
	for _, tc := range cases {
		got := Categorize(tc.rating)
		if got.Category != tc.category {
			t.Fatalf("rating %.0f: expected %q, got %q", tc.rating, tc.category, got.Category)
		}
		if got.Color != tc.color {
			t.Fatalf("rating %.0f: expected color %q, got %q", tc.rating, tc.color, got.Color)
		}
	}
}

func TestCategorizeClampsOutOfRange(t *testing.T) {
	if got, want := Categorize(-5), Categorize(0); got != want {
		t.Fatalf("expected Categorize(-5) == Categorize(0), got %+v vs %+v", got, want)
	}
	if got, want := Categorize(150), Categorize(100); got != want {
		t.Fatalf("expected Categorize(150) == Categorize(100), got %+v vs %+v", got, want)
	}
}
