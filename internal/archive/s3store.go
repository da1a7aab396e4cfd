// Package archive mirrors completed backtest runs and paper-trader equity
// snapshots to an S3-compatible bucket: a per-run archival export rather
// than a whole-database nightly backup.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// Store uploads JSON-encoded archival records to a single S3-compatible
// bucket. A nil Store is valid and every method becomes a no-op, so
// archival stays optional for deployments without object storage
// configured.
type Store struct {
	client *s3.Client
	uploader *manager.Uploader
	bucket string
	log zerolog.Logger
}

// NewStore builds a Store from the default AWS credential chain
// (environment, shared config, or instance role), pointed at bucket.
// endpoint overrides the resolved endpoint for S3-compatible providers
// (R2, MinIO); pass "" to use AWS S3 directly.
func NewStore(ctx context.Context, bucket, region, endpoint string, log zerolog.Logger) (*Store, error) {
	optFns := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("archive: loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = &endpoint
		}
		o.UsePathStyle = endpoint != ""
	})

	return &Store{
		client: client,
		uploader: manager.NewUploader(client),
		bucket: bucket,
		log: log.With().Str("component", "archive_store").Logger(),
	}, nil
}

func (s *Store) put(ctx context.Context, key string, payload any) error {
	if s == nil {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("archive: marshaling %s: %w", key, err)
	}
	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key: &key,
		Body: bytes.NewReader(body),
		ContentType: strPtr("application/json"),
	})
	if err != nil {
		return fmt.Errorf("archive: uploading %s: %w", key, err)
	}
	s.log.Debug().Str("key", key).Int("bytes", len(body)).Msg("archived record")
	return nil
}

// ArchiveBacktestRun uploads one completed BacktestRun under
// backtests/<strategy_id>/<run_id>.json.
func (s *Store) ArchiveBacktestRun(ctx context.Context, strategyID, runID string, run any) error {
	key := fmt.Sprintf("backtests/%s/%s.json", strategyID, runID)
	return s.put(ctx, key, run)
}

// ArchiveEquitySnapshot uploads one portfolio's daily equity point under
// portfolios/<portfolio_id>/equity/<date>.json.
func (s *Store) ArchiveEquitySnapshot(ctx context.Context, portfolioID string, asOf time.Time, point any) error {
	key := fmt.Sprintf("portfolios/%s/equity/%s.json", portfolioID, asOf.UTC().Format("2006-01-02"))
	return s.put(ctx, key, point)
}

// ListBacktestRuns returns the run IDs archived under a given strategy,
// in S3's lexicographic key order (by run ID, not by archive time).
func (s *Store) ListBacktestRuns(ctx context.Context, strategyID string) ([]string, error) {
	if s == nil {
		return nil, nil
	}
	prefix := fmt.Sprintf("backtests/%s/", strategyID)
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: &s.bucket,
		Prefix: &prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("archive: listing %s: %w", prefix, err)
	}
	runIDs := make([]string, 0, len(out.Contents))
	for _, obj := range out.Contents {
		name := strings.TrimPrefix(*obj.Key, prefix)
		runIDs = append(runIDs, strings.TrimSuffix(name, ".json"))
	}
	return runIDs, nil
}

func strPtr(v string) *string { return &v }
