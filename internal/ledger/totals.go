package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"donasi/internal/domain"
)

// TotalDonations sums every donation. A read failure is logged and reported
// as an empty ledger rather than an error.
func (s *Service) TotalDonations(ctx context.Context) domain.Totals {
	totals := domain.Totals{Currency: domain.Currency}
	items, err := list[domain.Donation](ctx, s, domain.KeyDonations)
	s.observe(domain.KeyDonations, "total", err)
	if err != nil {
		s.log(ctx).Error().Err(err).Msg("totals degraded to zero")
		return totals
	}
	totals.Total, totals.Count = sumAmounts(items)
	return totals
}

func sumAmounts(items []domain.Donation) (float64, int) {
	sum := decimal.Zero
	for _, d := range items {
		sum = sum.Add(decimal.NewFromFloat(d.Amount))
	}
	total, _ := sum.Float64()
	return total, len(items)
}
