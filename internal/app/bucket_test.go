package app

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/neurobridge-curriculum/internal/config"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/gcp"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/logger"
)

func stubBucketFactory(t *testing.T, failWith error) *gcp.BucketConfig {
	t.Helper()
	orig := newMaterialBucket
	t.Cleanup(func() { newMaterialBucket = orig })

	captured := &gcp.BucketConfig{}
	newMaterialBucket = func(_ context.Context, _ *logger.Logger, cfg gcp.BucketConfig) (*gcp.MaterialBucket, error) {
		*captured = cfg
		if failWith != nil {
			return nil, failWith
		}
		return &gcp.MaterialBucket{}, nil
	}
	return captured
}

func TestOpenMaterialBucketTargets(t *testing.T) {
	cases := []struct {
		name     string
		mode     string
		host     string
		want     gcp.BucketMode
		inferred bool
	}{
		{"gcs", "gcs", "", gcp.BucketModeGCS, false},
		{"emulator", "gcs_emulator", "http://fake-gcs:4443", gcp.BucketModeEmulator, false},
		{"inferred emulator", "", "http://fake-gcs:4443", gcp.BucketModeEmulator, true},
	}
	for _, tc := range cases {
		captured := stubBucketFactory(t, nil)
		cfg := config.Default()
		cfg.Storage.Mode = tc.mode
		cfg.Storage.EmulatorHost = tc.host

		if _, err := openMaterialBucket(context.Background(), logger.Nop(), cfg); err != nil {
			t.Fatalf("%s: openMaterialBucket: %v", tc.name, err)
		}
		if captured.Target.Mode != tc.want || captured.Target.Inferred != tc.inferred {
			t.Fatalf("%s: target: got=%+v", tc.name, captured.Target)
		}
		if captured.Bucket != cfg.Storage.Bucket {
			t.Fatalf("%s: bucket: want=%q got=%q", tc.name, cfg.Storage.Bucket, captured.Bucket)
		}
	}
}

func TestOpenMaterialBucketErrors(t *testing.T) {
	dialErr := errors.New("dial tcp: connection refused")
	cases := []struct {
		name    string
		mode    string
		host    string
		factory error
		want    BucketBootstrapCode
	}{
		{"invalid mode", "s3", "", nil, BucketBootstrapCode(gcp.TargetBadMode)},
		{"missing host", "gcs_emulator", "", nil, BucketBootstrapCode(gcp.TargetNoEmulatorHost)},
		{"invalid host", "gcs_emulator", "not-a-url", nil, BucketBootstrapCode(gcp.TargetBadEmulatorHost)},
		{"connect failed", "gcs", "", dialErr, BucketConnectFailed},
	}
	for _, tc := range cases {
		stubBucketFactory(t, tc.factory)
		cfg := config.Default()
		cfg.Storage.Mode = tc.mode
		cfg.Storage.EmulatorHost = tc.host

		_, err := openMaterialBucket(context.Background(), logger.Nop(), cfg)
		var got *BucketBootstrapError
		if !errors.As(err, &got) {
			t.Fatalf("%s: expected BucketBootstrapError, got=%T (%v)", tc.name, err, err)
		}
		if got.Code != tc.want {
			t.Fatalf("%s: code: want=%q got=%q", tc.name, tc.want, got.Code)
		}
		if tc.factory != nil && !errors.Is(err, tc.factory) {
			t.Fatalf("%s: cause should stay reachable", tc.name)
		}
	}
}
