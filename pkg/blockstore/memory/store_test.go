package memory_test

import (
	"testing"

	"github.com/wavecore/blockseq/pkg/blockstore"
	"github.com/wavecore/blockseq/pkg/blockstore/memory"
	"github.com/wavecore/blockseq/pkg/blockstore/storetest"
)

func TestConformance(t *testing.T) {
	storetest.RunConformanceSuite(t, func(t *testing.T) blockstore.Store {
		return memory.New()
	})
}
