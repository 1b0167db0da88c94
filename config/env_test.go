package config

import (
	"testing"
	"time"
)

func TestDefaultsWhenUnset(t *testing.T) {
	t.Setenv("TTFE_TEST_UNSET", "")
	if got := String("TTFE_TEST_UNSET", "d"); got != "d" {
		t.Fatalf("String=%q", got)
	}
	if got := Int("TTFE_TEST_UNSET", 7); got != 7 {
		t.Fatalf("Int=%d", got)
	}
	if got := Int64("TTFE_TEST_UNSET", 9); got != 9 {
		t.Fatalf("Int64=%d", got)
	}
	if got := Duration("TTFE_TEST_UNSET", time.Second); got != time.Second {
		t.Fatalf("Duration=%v", got)
	}
	if got := Bool("TTFE_TEST_UNSET", true); !got {
		t.Fatal("Bool default lost")
	}
}

func TestValuesFromEnv(t *testing.T) {
	t.Setenv("TTFE_S", "hello")
	t.Setenv("TTFE_I", " 12 ")
	t.Setenv("TTFE_I64", "-5")
	t.Setenv("TTFE_D", "150ms")
	t.Setenv("TTFE_B", "YES")

	if got := String("TTFE_S", ""); got != "hello" {
		t.Fatalf("String=%q", got)
	}
	if got := Int("TTFE_I", 0); got != 12 {
		t.Fatalf("Int=%d", got)
	}
	if got := Int64("TTFE_I64", 0); got != -5 {
		t.Fatalf("Int64=%d", got)
	}
	if got := Duration("TTFE_D", 0); got != 150*time.Millisecond {
		t.Fatalf("Duration=%v", got)
	}
	if got := Bool("TTFE_B", false); !got {
		t.Fatal("Bool=false want true")
	}
}

func TestBadValuesFallBack(t *testing.T) {
	t.Setenv("TTFE_I", "twelve")
	t.Setenv("TTFE_D", "soon")
	t.Setenv("TTFE_B", "nope")
	if got := Int("TTFE_I", 3); got != 3 {
		t.Fatalf("Int=%d", got)
	}
	if got := Duration("TTFE_D", time.Minute); got != time.Minute {
		t.Fatalf("Duration=%v", got)
	}
	if got := Bool("TTFE_B", true); got {
		t.Fatal("Bool should be false for an unrecognised value")
	}
}
