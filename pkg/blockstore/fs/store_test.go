//go:build integration

package fs_test

import (
	"testing"

	"github.com/wavecore/blockseq/pkg/blockstore"
	"github.com/wavecore/blockseq/pkg/blockstore/fs"
	"github.com/wavecore/blockseq/pkg/blockstore/storetest"
)

func TestConformance(t *testing.T) {
	storetest.RunConformanceSuite(t, func(t *testing.T) blockstore.Store {
		store, err := fs.Open(t.TempDir())
		if err != nil {
			t.Fatalf("fs.Open() failed: %v", err)
		}
		t.Cleanup(func() { store.Close() })
		return store
	})
}
