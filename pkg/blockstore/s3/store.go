// Package s3 provides an S3-backed blockstore.Store implementation.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/wavecore/blockseq/internal/metrics"
	"github.com/wavecore/blockseq/pkg/blockstore"
	"github.com/wavecore/blockseq/pkg/sample"
)

// Config holds configuration for the S3 block store.
type Config struct {
	Bucket         string
	Region         string
	Endpoint       string
	KeyPrefix      string
	MaxRetries     int
	ForcePathStyle bool
}

// Store is an S3-backed implementation of blockstore.Store. No summary
// object is stored: ReadSummary fetches the requested sample range and
// computes the summary points from it on every call.
type Store struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
	maxRetry  int
	closed    bool
	mu        sync.RWMutex
	metrics   metrics.StoreMetrics
}

// New creates a new S3 block store with an existing client.
func New(client *s3.Client, config Config) *Store {
	maxRetry := config.MaxRetries
	if maxRetry <= 0 {
		maxRetry = 1
	}
	return &Store{
		client:    client,
		bucket:    config.Bucket,
		keyPrefix: config.KeyPrefix,
		maxRetry:  maxRetry,
		metrics:   metrics.NewStoreMetrics(),
	}
}

// NewFromConfig creates a new S3 block store by building an S3 client from config.
func NewFromConfig(ctx context.Context, config Config) (*Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if config.Region != "" {
		opts = append(opts, awsconfig.WithRegion(config.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if config.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.BaseEndpoint = aws.String(config.Endpoint) })
	}
	if config.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.UsePathStyle = true })
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return New(client, config), nil
}

func (s *Store) fullKey(id string) string { return s.keyPrefix + id }

func (s *Store) withRetry(ctx context.Context, storeType string, op func() error) error {
	var err error
	for attempt := 0; attempt < s.maxRetry; attempt++ {
		if attempt > 0 {
			metrics.RecordRetry(s.metrics, storeType, attempt)
			select {
			case <-time.After(blockstore.RetryBackoff(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		err = op()
		if err == nil || isNotFoundError(err) {
			return err
		}
	}
	return err
}

func (s *Store) NewSimpleBlock(ctx context.Context, format sample.Format, buf sample.Buffer) (*blockstore.Handle, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, blockstore.ErrStoreClosed
	}
	s.mu.RUnlock()

	id := uuid.NewString()
	key := s.fullKey(id)
	start := time.Now()
	err := s.withRetry(ctx, "s3", func() error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(buf.Data),
		})
		return err
	})
	metrics.ObserveWrite(s.metrics, "s3", int64(len(buf.Data)), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("s3: put object: %w", err)
	}
	return blockstore.NewSimpleHandle(id, int64(buf.Len()), format), nil
}

func (s *Store) NewSilentBlock(length int64, format sample.Format) *blockstore.Handle {
	return blockstore.NewSilentHandle(length, format)
}

func (s *Store) NewAliasBlock(path string, offset, length int64, channel int, format sample.Format) *blockstore.Handle {
	return blockstore.NewAliasHandle(path, offset, length, channel, format, false)
}

func (s *Store) NewOnDemandAliasBlock(path string, offset, length int64, channel int, format sample.Format) *blockstore.Handle {
	return blockstore.NewAliasHandle(path, offset, length, channel, format, true)
}

func (s *Store) NewOnDemandDecodeBlock(ctx context.Context, path string, length int64, format sample.Format) (*blockstore.Handle, error) {
	// S3 has no local decode worker; on-demand decode blocks are expected to
	// be populated by pkg/blockstore/decode wrapping this store.
	id := uuid.NewString()
	return blockstore.NewOnDemandDecodeHandle(id, length, format), nil
}

func (s *Store) CopyBlock(ctx context.Context, h *blockstore.Handle) (*blockstore.Handle, error) {
	switch h.Kind() {
	case blockstore.KindSilent, blockstore.KindAlias, blockstore.KindOnDemandAlias:
		return h.Retain(), nil
	}
	if !h.IsLocked() {
		return h.Retain(), nil
	}

	newID := uuid.NewString()
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(s.fullKey(newID)),
		CopySource: aws.String(s.bucket + "/" + s.fullKey(h.ID())),
	})
	if err != nil {
		return nil, fmt.Errorf("s3: copy object: %w", err)
	}
	return h.WithID(newID), nil
}

func (s *Store) ReadData(ctx context.Context, h *blockstore.Handle, dst sample.Buffer, offset, length int64, mayBlock bool) (int64, error) {
	switch h.Kind() {
	case blockstore.KindSilent:
		n := blockstore.ClampLen(offset, length, h.Length())
		blockstore.ZeroFill(dst, n)
		return n, nil
	case blockstore.KindOnDemandDecode:
		return 0, blockstore.ErrDataUnavailable
	case blockstore.KindAlias, blockstore.KindOnDemandAlias:
		return 0, fmt.Errorf("s3: alias blocks reference local media and cannot be read through S3")
	}

	n := blockstore.ClampLen(offset, length, h.Length())
	if n <= 0 {
		return 0, nil
	}
	size := h.Format().Size()
	rangeHeader := fmt.Sprintf("bytes=%d-%d", offset*int64(size), (offset+n)*int64(size)-1)

	start := time.Now()
	var data []byte
	err := s.withRetry(ctx, "s3", func() error {
		resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.fullKey(h.ID())),
			Range:  aws.String(rangeHeader),
		})
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		data, err = io.ReadAll(resp.Body)
		return err
	})
	metrics.ObserveRead(s.metrics, "s3", int64(len(data)), time.Since(start), err)
	if err != nil {
		if isNotFoundError(err) {
			return 0, blockstore.ErrBlockNotFound
		}
		return 0, fmt.Errorf("s3: get object range: %w", err)
	}

	converted, err := sample.Convert(dst.Format, sample.Buffer{Format: h.Format(), Data: data})
	if err != nil {
		return 0, err
	}
	copy(dst.Data, converted.Data)
	return n, nil
}

func (s *Store) GetMinMaxRMS(ctx context.Context, h *blockstore.Handle, offset, length int64) (blockstore.MinMaxRMS, error) {
	if length <= 0 || h.Kind() == blockstore.KindSilent {
		return blockstore.MinMaxRMS{}, nil
	}
	buf := sample.NewBuffer(h.Format(), int(length))
	n, err := s.ReadData(ctx, h, buf, offset, length, true)
	if err != nil {
		return blockstore.MinMaxRMS{}, err
	}
	return sample.Analyze(buf.Slice(0, int(n)).ToFloat64()), nil
}

func (s *Store) ReadSummary(ctx context.Context, h *blockstore.Handle, stride int, offset, length int64, mayBlock bool) ([]blockstore.SummaryPoint, error) {
	if h.Kind() == blockstore.KindSilent {
		n := (length + int64(stride) - 1) / int64(stride)
		return make([]blockstore.SummaryPoint, n), nil
	}
	buf := sample.NewBuffer(h.Format(), int(length))
	n, err := s.ReadData(ctx, h, buf, offset, length, mayBlock)
	if err != nil {
		return nil, err
	}
	return sample.SummarizeStride(buf.Slice(0, int(n)).ToFloat64(), stride), nil
}

func (s *Store) SummaryAvailable(h *blockstore.Handle) bool {
	return h.Kind() != blockstore.KindOnDemandAlias && h.Kind() != blockstore.KindOnDemandDecode
}

func (s *Store) DataAvailable(h *blockstore.Handle) bool {
	return h.Kind() != blockstore.KindOnDemandDecode
}

func (s *Store) Length(h *blockstore.Handle) int64       { return h.Length() }
func (s *Store) SetLength(h *blockstore.Handle, n int64) { h.SetLength(n) }
func (s *Store) IsAlias(h *blockstore.Handle) bool {
	return h.Kind() == blockstore.KindAlias || h.Kind() == blockstore.KindOnDemandAlias
}
func (s *Store) Lock(h *blockstore.Handle)      { h.SetLocked(true) }
func (s *Store) CloseLock(h *blockstore.Handle) { h.SetLocked(false) }
func (s *Store) Unlock(h *blockstore.Handle)    { h.SetLocked(false) }

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return blockstore.ErrStoreClosed
	}
	s.mu.RUnlock()

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return fmt.Errorf("s3: health check failed: %w", err)
	}
	return nil
}

func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "NoSuchKey") ||
		strings.Contains(errStr, "NotFound") ||
		strings.Contains(errStr, "404")
}

var _ blockstore.Store = (*Store)(nil)
