package ledger

import (
	"context"
	"path"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"donasi/internal/domain"
)

const sweepConcurrency = 4

// SweepOrphanProofs deletes stored proof images that no donation references
// and that are older than grace. Blob stores that cannot list or delete are
// skipped.
func (s *Service) SweepOrphanProofs(ctx context.Context, grace time.Duration) (int, error) {
	lister, canList := s.blobs.(domain.BlobLister)
	deleter, canDelete := s.blobs.(domain.BlobDeleter)
	if !canList || !canDelete {
		return 0, nil
	}

	blobs, err := lister.List(ctx)
	if err != nil {
		return 0, &domain.StorageError{Op: "list proofs", Err: err}
	}
	// A cached store may lag behind the process that records donations;
	// sweeping against stale data would delete referenced proofs.
	if r, ok := s.store.(domain.CollectionReloader); ok {
		if err := r.Reload(ctx); err != nil {
			return 0, &domain.StorageError{Op: "reload " + domain.KeyDonations, Err: err}
		}
	}
	donations, err := s.ListDonations(ctx)
	if err != nil {
		return 0, err
	}
	// Names are matched rather than URLs: imported records may reference the
	// same file through a relative "/uploads/<name>" path.
	referenced := make(map[string]struct{}, len(donations))
	for _, d := range donations {
		if d.ProofImage != nil && *d.ProofImage != "" {
			referenced[path.Base(*d.ProofImage)] = struct{}{}
		}
	}

	cutoff := s.now().Add(-grace)
	var removed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)
	for _, b := range blobs {
		if !strings.HasPrefix(path.Base(b.Key), ProofPrefix) || b.ModTime.After(cutoff) {
			continue
		}
		if _, ok := referenced[path.Base(b.Key)]; ok {
			continue
		}
		g.Go(func() error {
			if err := deleter.Delete(gctx, b.URL); err != nil {
				return &domain.StorageError{Op: "delete proof " + b.Key, Err: err}
			}
			removed.Add(1)
			return nil
		})
	}
	err = g.Wait()

	n := int(removed.Load())
	s.metrics.ObserveSweep(n)
	s.observe(domain.KeyDonations, "sweep", err)
	if n > 0 {
		s.log(ctx).Info().Int("removed", n).Msg("orphan proofs swept")
	}
	return n, err
}
