package envutil

import (
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Duration
	}{
		{"", time.Hour},
		{"90m", 90 * time.Minute},
		{"120", 2 * time.Minute},
		{"garbage", time.Hour},
	}
	for _, tc := range cases {
		t.Setenv("TEST_DURATION", tc.raw)
		if got := Duration("TEST_DURATION", time.Hour); got != tc.want {
			t.Fatalf("Duration(%q): want=%s got=%s", tc.raw, tc.want, got)
		}
	}
}

func TestBoolAndList(t *testing.T) {
	t.Setenv("TEST_BOOL", "off")
	if Bool("TEST_BOOL", true) {
		t.Fatalf("Bool: want=false got=true")
	}
	t.Setenv("TEST_LIST", " a, ,b ")
	got := List("TEST_LIST", nil)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("List: got=%v", got)
	}
}

func TestInvalidFallsBackToDefault(t *testing.T) {
	t.Setenv("TEST_INT64", "64MB")
	if got := Int64("TEST_INT64", 7); got != 7 {
		t.Fatalf("Int64: want=7 got=%d", got)
	}
	t.Setenv("TEST_INT64", "1048576")
	if got := Int64("TEST_INT64", 7); got != 1<<20 {
		t.Fatalf("Int64: want=%d got=%d", 1<<20, got)
	}
	t.Setenv("TEST_BOOL", "maybe")
	if !Bool("TEST_BOOL", true) {
		t.Fatalf("Bool: unparsable should keep default")
	}
}
