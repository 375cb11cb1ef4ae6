package connblockchair

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/blockchair-etl/flow/internal"
	"github.com/blockchair-etl/flow/logger"
	"github.com/blockchair-etl/flow/shared/exceptions"
)

// S3Mirror copies downloaded dumps into the bucket backing the external
// warehouse stage.
type S3Mirror struct {
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3Mirror builds a mirror for ETL_S3_BUCKET. Static AWS_* credentials
// take precedence, otherwise the SDK default chain applies.
func NewS3Mirror(ctx context.Context) (*S3Mirror, error) {
	bucket := internal.EtlS3Bucket()
	if bucket == "" {
		return nil, exceptions.NewConfigError("ETL_S3_BUCKET must be set to mirror dumps")
	}

	sdkConfig, err := config.LoadDefaultConfig(ctx, func(options *config.LoadOptions) error {
		if region := internal.EtlS3Region(); region != "" {
			options.Region = region
		}
		if keyID := internal.AwsAccessKeyID(); keyID != "" {
			options.Credentials = credentials.NewStaticCredentialsProvider(keyID, internal.AwsSecretAccessKey(), "")
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Mirror{
		uploader: manager.NewUploader(s3.NewFromConfig(sdkConfig)),
		bucket:   bucket,
		prefix:   internal.EtlS3Prefix(),
	}, nil
}

// Upload streams one local dump to <prefix>/<coin>/<kind>/<name> in the
// bucket and returns the key relative to the prefix, which is also the path
// under the external stage.
func (m *S3Mirror) Upload(ctx context.Context, coin string, kind string, localPath string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", exceptions.NewInputError(fmt.Errorf("opening %s: %w", localPath, err))
	}
	defer file.Close()

	relativeKey := path.Join(coin, kind, filepath.Base(localPath))
	key := path.Join(m.prefix, relativeKey)
	if _, err := m.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
		Body:   file,
	}); err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	logger.LoggerFromCtx(ctx).Info("dump mirrored",
		slog.String("s3Path", "s3://"+m.bucket+"/"+key))
	return relativeKey, nil
}

// StageURL is the external stage location the mirror fills.
func (m *S3Mirror) StageURL() string {
	return "s3://" + path.Join(m.bucket, m.prefix)
}
