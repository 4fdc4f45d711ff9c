package gcp

import (
	"fmt"
	"net/url"
	"strings"
)

type BucketMode string

const (
	BucketModeGCS      BucketMode = "gcs"
	BucketModeEmulator BucketMode = "gcs_emulator"
)

func (m BucketMode) Emulated() bool { return m == BucketModeEmulator }

func (m BucketMode) known() bool {
	return m == BucketModeGCS || m == BucketModeEmulator
}

// BucketTarget names the backend the material bucket talks to. Inferred is set
// when no mode was configured and the emulator host alone selected the emulator.
type BucketTarget struct {
	Mode         BucketMode
	EmulatorHost string
	Inferred     bool
}

func (t BucketTarget) Origin() string {
	if t.Inferred {
		return "inferred_from_emulator_host"
	}
	return "configured"
}

type TargetErrorCode string

const (
	TargetBadMode         TargetErrorCode = "invalid_mode"
	TargetNoEmulatorHost  TargetErrorCode = "missing_emulator_host"
	TargetBadEmulatorHost TargetErrorCode = "invalid_emulator_host"
)

type TargetError struct {
	Code  TargetErrorCode
	Value string
	Cause error
}

func (e *TargetError) Error() string {
	if e == nil {
		return "invalid bucket target"
	}
	switch e.Code {
	case TargetBadMode:
		return fmt.Sprintf("unknown storage mode %q, want %q or %q", e.Value, BucketModeGCS, BucketModeEmulator)
	case TargetNoEmulatorHost:
		return fmt.Sprintf("storage mode %q needs an emulator host", BucketModeEmulator)
	case TargetBadEmulatorHost:
		return fmt.Sprintf("emulator host %q is not an absolute URL (e.g. http://fake-gcs:4443)", e.Value)
	}
	return "invalid bucket target"
}

func (e *TargetError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// ParseBucketTarget reads the storage.mode and storage.emulator_host settings.
func ParseBucketTarget(mode, emulatorHost string) (BucketTarget, error) {
	t := BucketTarget{EmulatorHost: strings.TrimSpace(emulatorHost)}
	raw := strings.TrimSpace(mode)
	switch m := BucketMode(strings.ToLower(raw)); {
	case m == "" && t.EmulatorHost != "":
		t.Mode, t.Inferred = BucketModeEmulator, true
	case m == "":
		t.Mode = BucketModeGCS
	case m.known():
		t.Mode = m
	default:
		return t, &TargetError{Code: TargetBadMode, Value: raw}
	}
	return t, t.Validate()
}

func (t BucketTarget) Validate() error {
	if !t.Mode.known() {
		return &TargetError{Code: TargetBadMode, Value: string(t.Mode)}
	}
	if !t.Mode.Emulated() {
		return nil
	}
	if t.EmulatorHost == "" {
		return &TargetError{Code: TargetNoEmulatorHost}
	}
	if _, err := absoluteURL(t.EmulatorHost); err != nil {
		return &TargetError{Code: TargetBadEmulatorHost, Value: t.EmulatorHost, Cause: err}
	}
	return nil
}

// absoluteURL returns raw without a trailing slash when it has both a scheme and
// a host.
func absoluteURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%q lacks a scheme or host", raw)
	}
	return strings.TrimRight(raw, "/"), nil
}
