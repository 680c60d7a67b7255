package services

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Acme Corp", "acme-corp"},
		{"  Trimmed  Name  ", "trimmed-name"},
		{"Already-Slugged", "already-slugged"},
		{"Symbols & Stuff!!", "symbols-stuff"},
		{"UPPER case 123", "upper-case-123"},
		{"---", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.name); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
