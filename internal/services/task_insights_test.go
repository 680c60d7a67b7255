package services

import "testing"

func TestCopyTitle(t *testing.T) {
	if got := CopyTitle("Fix login flow"); got != "Fix login flow (Copy)" {
		t.Errorf("Expected 'Fix login flow (Copy)', got %q", got)
	}
}

func TestFormatMinutes(t *testing.T) {
	cases := []struct {
		minutes int
		want    string
	}{
		{0, "0m"},
		{45, "45m"},
		{59, "59m"},
		{60, "1h 0m"},
		{205, "3h 25m"},
		{1440, "24h 0m"},
	}
	for _, c := range cases {
		if got := FormatMinutes(c.minutes); got != c.want {
			t.Errorf("FormatMinutes(%d) = %q, want %q", c.minutes, got, c.want)
		}
	}
}

func TestRoundedRate(t *testing.T) {
	cases := []struct {
		done, total int
		want        int
	}{
		{0, 0, 0},
		{0, 4, 0},
		{1, 3, 33},
		{2, 3, 67},
		{3, 4, 75},
		{4, 4, 100},
	}
	for _, c := range cases {
		if got := RoundedRate(c.done, c.total); got != c.want {
			t.Errorf("RoundedRate(%d, %d) = %d, want %d", c.done, c.total, got, c.want)
		}
	}
}
