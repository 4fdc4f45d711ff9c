package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/neurobridge-curriculum/internal/config"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/gcp"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/logger"
)

var newMaterialBucket = gcp.NewMaterialBucket

type BucketBootstrapCode string

// BucketConnectFailed covers every failure past config parsing; the other
// codes mirror gcp.TargetErrorCode.
const BucketConnectFailed BucketBootstrapCode = "connect_failed"

type BucketBootstrapError struct {
	Code   BucketBootstrapCode
	Target gcp.BucketTarget
	Cause  error
}

func (e *BucketBootstrapError) Error() string {
	if e == nil {
		return "material bucket bootstrap failed"
	}
	return fmt.Sprintf("material bucket bootstrap failed (code=%s mode=%q): %v", e.Code, e.Target.Mode, e.Cause)
}

func (e *BucketBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func bucketBootstrapError(target gcp.BucketTarget, err error) *BucketBootstrapError {
	code := BucketConnectFailed
	var te *gcp.TargetError
	if errors.As(err, &te) {
		code = BucketBootstrapCode(te.Code)
	}
	return &BucketBootstrapError{Code: code, Target: target, Cause: err}
}

// openMaterialBucket parses the storage target and connects the bucket.
func openMaterialBucket(ctx context.Context, log *logger.Logger, cfg config.Config) (*gcp.MaterialBucket, error) {
	target, err := gcp.ParseBucketTarget(cfg.Storage.Mode, cfg.Storage.EmulatorHost)
	if err == nil {
		log.Info("Opening material bucket",
			"bucket", cfg.Storage.Bucket,
			"mode", target.Mode,
			"mode_origin", target.Origin(),
		)
		var bucket *gcp.MaterialBucket
		bucket, err = newMaterialBucket(ctx, log, gcp.BucketConfig{
			Bucket:        cfg.Storage.Bucket,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
			Credentials:   cfg.GCP.Credentials,
			Target:        target,
		})
		if err == nil {
			return bucket, nil
		}
	}
	be := bucketBootstrapError(target, err)
	log.Error("Material bucket bootstrap failed",
		"mode", cfg.Storage.Mode,
		"emulator_host", cfg.Storage.EmulatorHost,
		"error_code", be.Code,
		"error", err,
	)
	return nil, be
}
