package query

import (
	"reflect"
	"testing"
)

func TestLikePatternEscapesWildcards(t *testing.T) {
	cases := map[string]string{
		"Nintendo":  "%nintendo%",
		"  EA  ":    "%ea%",
		"100%":      `%100\%%`,
		"snake_eye": `%snake\_eye%`,
		`back\lash`: `%back\\lash%`,
	}
	for in, want := range cases {
		if got := LikePattern(in); got != want {
			t.Errorf("LikePattern(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" action, ,rpg ,, platformer")
	want := []string{"action", "rpg", "platformer"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitList = %v, want %v", got, want)
	}
	if SplitList("") != nil {
		t.Fatal("expected nil for empty input")
	}
}

func TestGameFilterScopes(t *testing.T) {
	if n := len((GameFilter{}).Scopes()); n != 0 {
		t.Fatalf("expected no scopes for empty filter, got %d", n)
	}
	f := GameFilter{Genres: []string{"rpg"}, Platform: "64b7f0c2a1b2c3d4e5f60718", Developer: "nin", Publisher: "ea"}
	if f.IsEmpty() {
		t.Fatal("expected filter to be non-empty")
	}
	if n := len(f.Scopes()); n != 4 {
		t.Fatalf("expected 4 scopes, got %d", n)
	}
}
