package recommendations

import (
	"context"
	"fmt"
	"log"
	"sync"

	"lifeboard/models"
)

// SyncState tracks one pending user action against the cached batch.
type SyncState string

const (
	StateIdle              SyncState = "idle"
	StateOptimisticApplied SyncState = "optimistic_applied"
	StateConfirmed         SyncState = "confirmed"
	StateRolledBack        SyncState = "rolled_back"
)

// Mutator performs the persisting action behind a replacement: add to
// library, rate, or mark not-interested.
type Mutator func(ctx context.Context) error

// Refetcher rebuilds the full batch from authoritative state. In the running
// system this is Service.Batch behind an HTTP round trip.
type Refetcher interface {
	Batch(ctx context.Context, userID string, filter models.MediaFilter) (models.RecommendationBatch, error)
}

// ApplyResult reports what a completed action did to the cached batch.
type ApplyResult struct {
	State       SyncState
	Replacement *models.ContentItem
	// Refetched is set when a mutation failure forced a full rebuild.
	Refetched bool
}

// Synchronizer owns the cached batch and is the single mutation path for it.
// Every user action flows through Apply: the swap is applied optimistically
// from the buffer, the persisting request runs, and on failure the
// optimistic state is discarded in favor of a full server-authoritative
// refetch.
type Synchronizer struct {
	replacer *Replacer
	refetch  Refetcher
	userID   string
	filter   models.MediaFilter

	mu    sync.Mutex
	batch models.RecommendationBatch
	state SyncState
}

// NewSynchronizer wraps an already-fetched batch.
func NewSynchronizer(replacer *Replacer, refetch Refetcher, userID string, filter models.MediaFilter, batch models.RecommendationBatch) *Synchronizer {
	return &Synchronizer{
		replacer: replacer,
		refetch:  refetch,
		userID:   userID,
		filter:   filter,
		batch:    batch,
		state:    StateIdle,
	}
}

// Batch returns a copy of the cached batch.
func (s *Synchronizer) Batch() models.RecommendationBatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneBatch(s.batch)
}

// State returns the outcome of the most recent action.
func (s *Synchronizer) State() SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Refresh replaces the cached batch with a fresh server build. Any local
// optimistic state is overwritten; the server copy always wins.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	fresh, err := s.refetch.Batch(ctx, s.userID, s.filter)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.batch = fresh
	s.state = StateIdle
	s.mu.Unlock()
	return nil
}

// Apply consumes one recommendation: it optimistically swaps the item from
// the buffer, runs mutate, and reconciles.
//
// Success with a prior buffer swap confirms the local state as-is. Success
// without one (empty buffer) performs the single-fetch replacement now; if
// that fetch fails too the list is simply left one short. Mutation failure
// discards the optimistic swap and forces a full refetch so the cache never
// keeps client-only state the server did not accept.
func (s *Synchronizer) Apply(ctx context.Context, remove models.ContentRef, mutate Mutator) (ApplyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.batch.Contains(remove) {
		return ApplyResult{State: s.state}, ErrNotInBatch
	}
	snapshot := cloneBatch(s.batch)

	var replacement *models.ContentItem
	if len(s.batch.Buffer) > 0 {
		item, err := s.replacer.Replace(ctx, &s.batch, remove)
		if err != nil {
			return ApplyResult{State: s.state}, err
		}
		replacement = item
		s.state = StateOptimisticApplied
	}

	if err := mutate(ctx); err != nil {
		return s.rollback(ctx, snapshot, err)
	}

	if replacement == nil {
		// Buffer was empty, so the slot is still occupied by the consumed
		// item. Do the network replacement now; a failure here leaves the
		// list short by one rather than retrying.
		item, repErr := s.replacer.Replace(ctx, &s.batch, remove)
		if repErr != nil {
			log.Printf("[recommendations] deferred replacement failed for %s: %v", remove.Key(), repErr)
			s.dropFromBatch(remove)
		} else {
			replacement = item
		}
	}

	s.state = StateConfirmed
	return ApplyResult{State: StateConfirmed, Replacement: replacement}, nil
}

// rollback discards optimistic state after a failed mutation. The refetch is
// authoritative; only if it also fails does the pre-action snapshot come
// back, so the user never sees a half-applied batch.
func (s *Synchronizer) rollback(ctx context.Context, snapshot models.RecommendationBatch, cause error) (ApplyResult, error) {
	s.state = StateRolledBack
	fresh, err := s.refetch.Batch(ctx, s.userID, s.filter)
	if err != nil {
		log.Printf("[recommendations] rollback refetch failed: %v", err)
		s.batch = snapshot
		return ApplyResult{State: StateRolledBack}, fmt.Errorf("mutation failed: %w", cause)
	}
	s.batch = fresh
	return ApplyResult{State: StateRolledBack, Refetched: true}, fmt.Errorf("mutation failed: %w", cause)
}

func (s *Synchronizer) dropFromBatch(ref models.ContentRef) {
	if idx := indexOf(s.batch.Recommendations, ref); idx >= 0 {
		s.batch.Recommendations = append(s.batch.Recommendations[:idx], s.batch.Recommendations[idx+1:]...)
	}
}

func cloneBatch(batch models.RecommendationBatch) models.RecommendationBatch {
	out := batch
	out.Recommendations = append([]models.ContentItem(nil), batch.Recommendations...)
	out.Buffer = append([]models.ContentItem(nil), batch.Buffer...)
	if batch.BasedOn != nil {
		basis := *batch.BasedOn
		out.BasedOn = &basis
	}
	return out
}
