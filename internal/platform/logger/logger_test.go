package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	r := redactor{enabled: true}
	out := r.sanitizeKVs([]interface{}{"api_key", "abc", "handle_id", "cachedContents/1"})
	if out[1] != "[REDACTED]" {
		t.Fatalf("api_key: want=[REDACTED] got=%v", out[1])
	}
	if out[3] != "cachedContents/1" {
		t.Fatalf("handle_id: want passthrough got=%v", out[3])
	}
}

func TestSanitizeKVsHashesUserIDs(t *testing.T) {
	r := redactor{enabled: true, salt: "pepper"}
	out := r.sanitizeKVs([]interface{}{"owner_user_id", "u-1"})
	got, _ := out[1].(string)
	if !strings.HasPrefix(got, "hash:") || len(got) != len("hash:")+12 {
		t.Fatalf("owner_user_id: want hash:<12 hex> got=%q", got)
	}
	again := r.sanitizeKVs([]interface{}{"owner_user_id", "u-1"})
	if again[1] != out[1] {
		t.Fatalf("hash not stable: %v vs %v", again[1], out[1])
	}
}

func TestSanitizeKVsDisabled(t *testing.T) {
	r := redactor{}
	out := r.sanitizeKVs([]interface{}{"password", "hunter2"})
	if out[1] != "hunter2" {
		t.Fatalf("password: want passthrough when disabled got=%v", out[1])
	}
}

func TestSanitizeKVsOddLength(t *testing.T) {
	r := redactor{enabled: true}
	out := r.sanitizeKVs([]interface{}{"a", 1, "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("odd kv: got=%v", out)
	}
}
