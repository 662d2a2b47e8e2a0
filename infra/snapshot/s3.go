package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kilianp07/feederwatch/core/model"
	coresnap "github.com/kilianp07/feederwatch/core/snapshot"
)

// S3Config selects the bucket holding the snapshots. Endpoint and PathStyle
// allow S3-compatible servers such as MinIO.
type S3Config struct {
	Bucket          string `json:"bucket"`
	Prefix          string `json:"prefix"`
	Region          string `json:"region"`
	Endpoint        string `json:"endpoint"`
	PathStyle       bool   `json:"path_style"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
}

// S3Store keeps one object per cycle under a key prefix.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Store builds the client from the default AWS configuration chain.
// Static credentials in cfg take precedence over the chain.
func NewS3Store(ctx context.Context, cfg S3Config, optFns ...func(*s3.Options)) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 store: bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3 store: load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		for _, fn := range optFns {
			fn(o)
		}
	})
	prefix := strings.Trim(cfg.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &S3Store{client: client, bucket: cfg.Bucket, prefix: prefix}, nil
}

// Save uploads snap. HeadObject is checked first so objects are never
// overwritten.
func (s *S3Store) Save(ctx context.Context, snap model.Snapshot) (string, error) {
	b, err := coresnap.Encode(snap)
	if err != nil {
		return "", err
	}
	key := s.prefix + coresnap.Key(snap.CycleNumber, snap.Timestamp)
	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key})
	if err == nil {
		return "", fmt.Errorf("%s: %w", key, coresnap.ErrExists)
	}
	var nf *types.NotFound
	if !errors.As(err, &nf) {
		return "", fmt.Errorf("head %s: %w", key, err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        bytes.NewReader(b),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return key, nil
}

func (s *S3Store) keys(ctx context.Context) ([]string, error) {
	var keys []string
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            &s.bucket,
			Prefix:            aws.String(s.prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range out.Contents {
			k := aws.ToString(obj.Key)
			if _, ok := coresnap.ParseCycle(k); ok {
				keys = append(keys, k)
			}
		}
		if aws.ToBool(out.IsTruncated) && out.NextContinuationToken != nil {
			token = out.NextContinuationToken
			continue
		}
		return keys, nil
	}
}

func (s *S3Store) get(ctx context.Context, key string) (model.Snapshot, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("get %s: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()
	b, err := io.ReadAll(out.Body)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("read %s: %w", key, err)
	}
	return coresnap.Decode(key, b)
}

// List downloads every snapshot under the prefix.
func (s *S3Store) List(ctx context.Context) (coresnap.Listing, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return coresnap.Listing{}, err
	}
	var l coresnap.Listing
	for _, k := range keys {
		snap, err := s.get(ctx, k)
		if err != nil {
			var ce *coresnap.CorruptError
			if errors.As(err, &ce) {
				l.Skipped = append(l.Skipped, ce)
				continue
			}
			return coresnap.Listing{}, err
		}
		l.Snapshots = append(l.Snapshots, snap)
	}
	coresnap.SortByCycle(l.Snapshots)
	return l, nil
}

// Latest downloads the object with the highest cycle number.
func (s *S3Store) Latest(ctx context.Context) (*model.Snapshot, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return nil, err
	}
	return newestDecodable(keys, func(key string) (model.Snapshot, error) {
		return s.get(ctx, key)
	})
}

// Close is a no-op; the SDK client holds no resources needing release.
func (s *S3Store) Close() error { return nil }
