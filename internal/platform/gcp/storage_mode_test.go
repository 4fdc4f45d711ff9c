package gcp

import (
	"errors"
	"testing"
)

func TestParseBucketTarget(t *testing.T) {
	cases := []struct {
		name     string
		mode     string
		host     string
		want     BucketMode
		inferred bool
	}{
		{"default gcs", "", "", BucketModeGCS, false},
		{"explicit gcs ignores host", "gcs", "http://fake-gcs:4443", BucketModeGCS, false},
		{"explicit emulator", "GCS_Emulator", "http://fake-gcs:4443", BucketModeEmulator, false},
		{"inferred emulator", "", " http://fake-gcs:4443 ", BucketModeEmulator, true},
	}
	for _, tc := range cases {
		got, err := ParseBucketTarget(tc.mode, tc.host)
		if err != nil {
			t.Fatalf("%s: ParseBucketTarget: %v", tc.name, err)
		}
		if got.Mode != tc.want || got.Inferred != tc.inferred {
			t.Fatalf("%s: want=%s/%v got=%s/%v", tc.name, tc.want, tc.inferred, got.Mode, got.Inferred)
		}
	}
}

func TestParseBucketTargetErrors(t *testing.T) {
	cases := []struct {
		mode string
		host string
		want TargetErrorCode
	}{
		{"local", "", TargetBadMode},
		{"gcs_emulator", "", TargetNoEmulatorHost},
		{"gcs_emulator", "fake-gcs:4443", TargetBadEmulatorHost},
	}
	for _, tc := range cases {
		_, err := ParseBucketTarget(tc.mode, tc.host)
		var te *TargetError
		if !errors.As(err, &te) {
			t.Fatalf("%s/%s: expected TargetError, got=%T (%v)", tc.mode, tc.host, err, err)
		}
		if te.Code != tc.want {
			t.Fatalf("%s/%s: code: want=%s got=%s", tc.mode, tc.host, tc.want, te.Code)
		}
		if te.Error() == "" {
			t.Fatalf("%s/%s: empty message", tc.mode, tc.host)
		}
	}
}

func TestBucketTargetOrigin(t *testing.T) {
	if got := (BucketTarget{Inferred: true}).Origin(); got != "inferred_from_emulator_host" {
		t.Fatalf("Origin inferred: got=%q", got)
	}
	if got := (BucketTarget{Mode: BucketModeGCS}).Origin(); got != "configured" {
		t.Fatalf("Origin configured: got=%q", got)
	}
	if err := (BucketTarget{Mode: "s3"}).Validate(); err == nil {
		t.Fatalf("Validate unknown mode: expected error")
	}
}
