package commands

import (
	"context"
	"fmt"

	"github.com/wavecore/blockseq/internal/config"
	"github.com/wavecore/blockseq/pkg/blockstore"
	"github.com/wavecore/blockseq/pkg/blockstore/fs"
	"github.com/wavecore/blockseq/pkg/blockstore/memory"
	"github.com/wavecore/blockseq/pkg/blockstore/s3"
)

// openStore builds the block store selected by cfg.Store.Type. The memory
// backend is only useful for import/convert round trips within a single
// invocation, since nothing persists it between runs.
func openStore(ctx context.Context, cfg *config.Config) (blockstore.Store, error) {
	switch cfg.Store.Type {
	case "", "memory":
		return memory.New(), nil
	case "filesystem":
		store, err := fs.Open(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open filesystem store at %q: %w", cfg.Store.Path, err)
		}
		return store, nil
	case "s3":
		store, err := s3.NewFromConfig(ctx, s3.Config{
			Bucket:         cfg.Store.S3.Bucket,
			Region:         cfg.Store.S3.Region,
			Endpoint:       cfg.Store.S3.Endpoint,
			KeyPrefix:      cfg.Store.S3.KeyPrefix,
			MaxRetries:     cfg.Store.S3.MaxRetries,
			ForcePathStyle: cfg.Store.S3.ForcePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("open s3 store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unrecognised store type %q", cfg.Store.Type)
	}
}
