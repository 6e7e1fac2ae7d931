package ledger

import (
	"context"

	"donasi/internal/domain"
)

func fundUsageID(f domain.FundUsage) int64 { return f.ID }

// ListFundUsage returns every fund-usage entry in insertion order.
func (s *Service) ListFundUsage(ctx context.Context) ([]domain.FundUsage, error) {
	items, err := list[domain.FundUsage](ctx, s, domain.KeyFundUsage)
	s.observe(domain.KeyFundUsage, "list", err)
	return items, err
}

// AddFundUsage appends a disbursement entry.
func (s *Service) AddFundUsage(ctx context.Context, in domain.FundUsageInput) (domain.FundUsage, error) {
	entry, err := s.addFundUsage(ctx, in)
	s.observe(domain.KeyFundUsage, "add", err)
	return entry, err
}

func (s *Service) addFundUsage(ctx context.Context, in domain.FundUsageInput) (domain.FundUsage, error) {
	in, err := validateFundUsageInput(in)
	if err != nil {
		return domain.FundUsage{}, err
	}
	amount, err := ParseAmount(in.Amount)
	if err != nil {
		return domain.FundUsage{}, err
	}

	now := s.timestamp()
	var created domain.FundUsage
	err = mutate(ctx, s, domain.KeyFundUsage, fundUsageID, func(items []domain.FundUsage, next int64) ([]domain.FundUsage, int64, error) {
		created = domain.FundUsage{
			ID:          next,
			Category:    in.Category,
			Amount:      amount,
			Description: in.Description,
			Date:        now,
		}
		return append(items, created), next + 1, nil
	})
	if err != nil {
		return domain.FundUsage{}, err
	}
	s.log(ctx).Info().Int64("id", created.ID).Str("category", created.Category).Msg("fund usage recorded")
	return created, nil
}

// DeleteFundUsage removes entry id.
func (s *Service) DeleteFundUsage(ctx context.Context, id int64) error {
	err := mutate(ctx, s, domain.KeyFundUsage, fundUsageID, func(items []domain.FundUsage, next int64) ([]domain.FundUsage, int64, error) {
		for i := range items {
			if items[i].ID == id {
				return append(items[:i], items[i+1:]...), next, nil
			}
		}
		return nil, 0, domain.ErrNotFound
	})
	s.observe(domain.KeyFundUsage, "delete", err)
	return err
}
