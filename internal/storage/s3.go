package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/vidupload/backend/internal/config"
	"github.com/vidupload/backend/internal/models"
)

const uploadPartSize = 5 * 1024 * 1024

// S3Gateway is the object store gateway backed by an S3-compatible service. It issues
// pre-signed URLs for client transfers and performs server-side existence checks, deletes
// and uploads.
type S3Gateway struct {
	client    *s3.Client
	presigner *s3.PresignClient
	uploader  *manager.Uploader
	bucket    string
	region    string
}

// New configures a gateway for the bucket described by cfg. Static keys are used when both
// are set, otherwise the default AWS credential chain applies.
func New(ctx context.Context, cfg config.ObjectStoreConfig) (*S3Gateway, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 gateway: bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
		// S3-compatible stores do not all accept the default request checksums.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	gateway := NewWithClient(client, cfg.Bucket)
	gateway.region = cfg.Region
	return gateway, nil
}

// NewWithClient wraps an existing S3 client.
func NewWithClient(client *s3.Client, bucket string) *S3Gateway {
	return &S3Gateway{
		client:    client,
		presigner: s3.NewPresignClient(client),
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = uploadPartSize
			u.LeavePartsOnError = false
		}),
		bucket: bucket,
		region: client.Options().Region,
	}
}

// Bucket returns the bucket the gateway operates on.
func (g *S3Gateway) Bucket() string {
	return g.bucket
}

// PutURL returns a pre-signed URL allowing a single PUT of key until ttl elapses.
func (g *S3Gateway) PutURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	presigned, err := g.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign put %s: %w", key, err)
	}
	return presigned.URL, nil
}

// GetURL returns a pre-signed URL allowing GETs of key until ttl elapses.
func (g *S3Gateway) GetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	presigned, err := g.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", key, err)
	}
	return presigned.URL, nil
}

// Exists reports whether key is present in the bucket.
func (g *S3Gateway) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := g.head(ctx, key); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("check object %s: %w", key, err)
	}
	return true, nil
}

// ErrObjectNotFound is returned by Stat when the key is absent.
var ErrObjectNotFound = errors.New("object not found")

// Stat returns the stored metadata of key.
func (g *S3Gateway) Stat(ctx context.Context, key string) (models.ObjectInfo, error) {
	out, err := g.head(ctx, key)
	if err != nil {
		if isNotFound(err) {
			return models.ObjectInfo{}, ErrObjectNotFound
		}
		return models.ObjectInfo{}, fmt.Errorf("stat object %s: %w", key, err)
	}
	return models.ObjectInfo{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		ETag:         strings.Trim(aws.ToString(out.ETag), `"`),
		ContentType:  aws.ToString(out.ContentType),
		LastModified: aws.ToTime(out.LastModified),
	}, nil
}

func (g *S3Gateway) head(ctx context.Context, key string) (*s3.HeadObjectOutput, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	return g.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
}

// Delete removes key. Deleting an absent key succeeds.
func (g *S3Gateway) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	_, err := g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// Put streams r into key, switching to multipart uploads for large bodies.
func (g *S3Gateway) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	input := &s3.PutObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
		Body:   r,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := g.uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("upload object %s: %w", key, err)
	}
	return nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (g *S3Gateway) EnsureBucket(ctx context.Context) error {
	_, err := g.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(g.bucket)})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("check bucket %s: %w", g.bucket, err)
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(g.bucket)}
	if g.region != "" && g.region != "us-east-1" {
		input.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(g.region),
		}
	}
	if _, err := g.client.CreateBucket(ctx, input); err != nil {
		var owned *s3types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", g.bucket, err)
	}
	return nil
}

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("s3 gateway: empty key")
	}
	return nil
}

func isNotFound(err error) bool {
	var notFound *s3types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket":
			return true
		}
	}
	return false
}
