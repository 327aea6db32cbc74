package utils

import "testing"

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Electronics", "electronics"},
		{"spaces", "Home and Garden", "home-and-garden"},
		{"accents", "Téléphones Mobiles", "telephones-mobiles"},
		{"punctuation", "Kids' Toys & Games!", "kids-toys-games"},
		{"leading trailing", "  --Sale--  ", "sale"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenerateSlug(tt.in); got != tt.want {
				t.Errorf("GenerateSlug(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMergeImageUrlsArrays(t *testing.T) {
	old := []string{"a", "b", "c"}
	got := MergeImageUrlsArrays(old, []string{"b"}, []string{"d", "a"})
	want := []string{"a", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
			break
		}
	}
}

func TestIntersectStrings(t *testing.T) {
	got := IntersectStrings([]string{"a", "b", "c"}, []string{"b", "c", "d"})
	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("got %v", got)
	}
}
