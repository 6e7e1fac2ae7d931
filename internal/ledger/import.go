package ledger

import (
	"context"

	"donasi/internal/domain"
)

// ImportResult summarizes a wholesale import.
type ImportResult struct {
	Imported int
	// Reassigned counts records whose id was missing or already taken by an
	// earlier record and received a fresh one.
	Reassigned int
	NextID     int64
}

// ImportDonations replaces the donation collection with items. Legacy
// snapshots may carry duplicate ids; later duplicates are renumbered.
func (s *Service) ImportDonations(ctx context.Context, items []domain.Donation) (ImportResult, error) {
	for i := range items {
		if items[i].Status == "" {
			items[i].Status = domain.StatusPending
		}
		if items[i].PaymentMethod == "" {
			items[i].PaymentMethod = domain.PaymentBankTransfer
		}
	}
	res := renumber(items, donationID, func(d *domain.Donation, id int64) { d.ID = id })
	err := replace(ctx, s, domain.KeyDonations, items, res.NextID)
	s.observe(domain.KeyDonations, "import", err)
	if err == nil {
		s.log(ctx).Info().Int("imported", res.Imported).Int("reassigned", res.Reassigned).Msg("donations imported")
	}
	return res, err
}

// ImportFundUsage replaces the fund-usage collection with items.
func (s *Service) ImportFundUsage(ctx context.Context, items []domain.FundUsage) (ImportResult, error) {
	res := renumber(items, fundUsageID, func(f *domain.FundUsage, id int64) { f.ID = id })
	err := replace(ctx, s, domain.KeyFundUsage, items, res.NextID)
	s.observe(domain.KeyFundUsage, "import", err)
	if err == nil {
		s.log(ctx).Info().Int("imported", res.Imported).Int("reassigned", res.Reassigned).Msg("fund usage imported")
	}
	return res, err
}

func renumber[T any](items []T, id func(T) int64, setID func(*T, int64)) ImportResult {
	res := ImportResult{Imported: len(items), NextID: sequence(1, items, id)}
	seen := make(map[int64]struct{}, len(items))
	for i := range items {
		v := id(items[i])
		if _, dup := seen[v]; v > 0 && !dup {
			seen[v] = struct{}{}
			continue
		}
		setID(&items[i], res.NextID)
		seen[res.NextID] = struct{}{}
		res.NextID++
		res.Reassigned++
	}
	return res
}
