package sequence

import (
	"context"
	"time"

	"github.com/wavecore/blockseq/internal/logger"
	"github.com/wavecore/blockseq/internal/metrics"
)

// commitIfConsistent implements §4.7's full-check commit discipline: run
// C7 against the entire candidate list, and on success atomically replace
// the live snapshot. Every Pattern-B mutator funnels through here, which is
// what makes the strong guarantee mechanical rather than something each
// mutator has to reimplement: if check fails, s is returned to the caller
// exactly as it was before the call, because nothing about s has been
// touched yet.
func (s *Sequence) commitIfConsistent(newBlocks BlockList, newTotal int64) error {
	start := time.Now()
	err := check(newBlocks, s.maxSamples, 0, newTotal)
	metrics.ObserveConsistencyCheck(s.metrics, checkStatus(err), time.Since(start))
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.blocks = newBlocks
	s.numSamples = newTotal
	s.mu.Unlock()

	metrics.RecordBlockCount(s.metrics, s.id, len(newBlocks))
	return nil
}

// appendBlocksIfConsistent implements §4.7's append-consistency discipline:
// it checks newBlocks only from index from onward instead of re-walking the
// whole list, so bulk Append stays O(samples appended) rather than O(n^2)
// over repeated small appends. When Append has enlarged an undersized last
// block, from is that block's index, so the replaced block is checked too;
// on failure the caller's candidate list is simply discarded (nothing has
// been committed yet).
func (s *Sequence) appendBlocksIfConsistent(newBlocks BlockList, from int64, newTotal int64) error {
	start := time.Now()
	err := check(newBlocks, s.maxSamples, int(from), newTotal)
	metrics.ObserveConsistencyCheck(s.metrics, checkStatus(err), time.Since(start))
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.blocks = newBlocks
	s.numSamples = newTotal
	s.mu.Unlock()

	metrics.RecordBlockCount(s.metrics, s.id, len(newBlocks))
	return nil
}

func checkStatus(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// logEdit is a small helper shared by every mutator to record latency and
// outcome once the operation returns, matching the ambient logger/metrics
// stack's "observe at the edge" convention rather than threading timers
// through each algorithm.
func (s *Sequence) logEdit(ctx context.Context, operation string, start time.Time, err error) {
	metrics.ObserveEdit(s.metrics, operation, time.Since(start), err)
	if err != nil {
		logger.WarnCtx(ctx, "sequence edit failed", "operation", operation, "sequence_id", s.id, "error", err)
		return
	}
	logger.DebugCtx(ctx, "sequence edit committed", "operation", operation, "sequence_id", s.id, "duration_ms", logger.Duration(start))
}
