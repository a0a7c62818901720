package writer

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "featureflow/config"
	"featureflow/logger"
)

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader stores encoded feature matrices in a bucket.
type S3Uploader struct {
	client      objectPutter
	bucket      string
	prefix      string
	compression string
	version     string
	log         *logger.Log
}

// NewS3Uploader builds an S3 client from cfg. Static credentials are used
// when both keys are set, otherwise the default AWS chain applies.
func NewS3Uploader(ctx context.Context, cfg *appconfig.Config) (*S3Uploader, error) {
	log := logger.GetLogger()
	s3cfg := cfg.Storage.S3

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(s3cfg.Region),
	}
	if s3cfg.AccessKeyID != "" && s3cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				s3cfg.AccessKeyID,
				s3cfg.SecretAccessKey,
				"",
			),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		log.WithComponent("s3_uploader").WithError(err).Warn("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if s3cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(s3cfg.Endpoint)
		}
		o.UsePathStyle = s3cfg.PathStyle
	})

	log.WithComponent("s3_uploader").WithFields(logger.Fields{
		"bucket":     s3cfg.Bucket,
		"region":     s3cfg.Region,
		"endpoint":   s3cfg.Endpoint,
		"path_style": s3cfg.PathStyle,
	}).Info("s3 uploader initialized")

	return newS3Uploader(client, cfg), nil
}

func newS3Uploader(client objectPutter, cfg *appconfig.Config) *S3Uploader {
	return &S3Uploader{
		client:      client,
		bucket:      cfg.Storage.S3.Bucket,
		prefix:      cfg.Storage.S3.Prefix,
		compression: cfg.Output.Compression,
		version:     cfg.Featureflow.Version,
		log:         logger.GetLogger(),
	}
}

// ObjectKey lays out matrix files as
// <prefix>/symbol=<symbol>/<yyyy>/<mm>/<dd>/<run_id>_features.parquet.
func ObjectKey(prefix, symbol, runID string, ts time.Time) string {
	if symbol == "" {
		symbol = "all"
	}
	ts = ts.UTC()
	return path.Join(
		prefix,
		"symbol="+symbol,
		fmt.Sprintf("%04d", ts.Year()),
		fmt.Sprintf("%02d", ts.Month()),
		fmt.Sprintf("%02d", ts.Day()),
		runID+"_features.parquet",
	)
}

// Key returns ObjectKey under the configured prefix.
func (u *S3Uploader) Key(symbol, runID string, ts time.Time) string {
	return ObjectKey(u.prefix, symbol, runID, ts)
}

// Upload puts data at key and returns the s3:// location.
func (u *S3Uploader) Upload(ctx context.Context, key string, data []byte) (string, error) {
	log := u.log.WithComponent("s3_uploader").WithFields(logger.Fields{
		"operation": "upload_to_s3",
		"s3_key":    key,
		"data_size": len(data),
	})
	log.Info("uploading to S3")

	input := &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
		Metadata: map[string]string{
			"content-type":        "parquet",
			"compression":         u.compression,
			"featureflow-version": u.version,
		},
	}

	if _, err := u.client.PutObject(ctx, input); err != nil {
		log.WithError(err).WithEnv("S3_BUCKET").Error("failed to upload to S3")
		return "", fmt.Errorf("failed to upload to S3 bucket %s: %w", u.bucket, err)
	}

	log.Info("successfully uploaded to S3")
	return fmt.Sprintf("s3://%s/%s", u.bucket, key), nil
}
