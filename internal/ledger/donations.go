package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"donasi/internal/domain"
)

// ProofPrefix starts the name of every proof image the ledger stores.
const ProofPrefix = "donasi-"

func donationID(d domain.Donation) int64 { return d.ID }

// ListDonations returns every donation in insertion order.
func (s *Service) ListDonations(ctx context.Context) ([]domain.Donation, error) {
	items, err := list[domain.Donation](ctx, s, domain.KeyDonations)
	s.observe(domain.KeyDonations, "list", err)
	return items, err
}

// SubmitDonation validates the input, uploads the optional proof image and
// appends the donation. Validation failures never touch either store.
func (s *Service) SubmitDonation(ctx context.Context, in domain.DonationInput, proof *domain.ProofUpload) (domain.Donation, error) {
	d, err := s.submitDonation(ctx, in, proof)
	s.observe(domain.KeyDonations, "submit", err)
	return d, err
}

func (s *Service) submitDonation(ctx context.Context, in domain.DonationInput, proof *domain.ProofUpload) (domain.Donation, error) {
	in, err := validateDonationInput(in)
	if err != nil {
		return domain.Donation{}, err
	}
	amount, err := ParseAmount(in.Amount)
	if err != nil {
		return domain.Donation{}, err
	}
	if proof != nil {
		if err := s.CheckProof(*proof); err != nil {
			return domain.Donation{}, err
		}
	}

	now := s.timestamp()
	var proofURL *string
	if proof != nil {
		url, err := s.uploadProof(ctx, *proof, ProofName(now.UnixMilli(), rand.Int64N(1_000_000_000), proof.Filename, proof.ContentType))
		if err != nil {
			return domain.Donation{}, err
		}
		proofURL = &url
	}

	var created domain.Donation
	err = mutate(ctx, s, domain.KeyDonations, donationID, func(items []domain.Donation, next int64) ([]domain.Donation, int64, error) {
		created = domain.Donation{
			ID:            next,
			Name:          in.Name,
			Email:         in.Email,
			Phone:         in.Phone,
			Amount:        amount,
			PaymentMethod: domain.PaymentMethod(in.PaymentMethod),
			Message:       in.Message,
			ProofImage:    proofURL,
			Date:          now,
			Status:        domain.StatusPending,
		}
		return append(items, created), next + 1, nil
	})
	if err != nil {
		if proofURL != nil {
			s.discardBlob(ctx, *proofURL, "submit failed")
		}
		return domain.Donation{}, err
	}
	s.log(ctx).Info().Int64("id", created.ID).Float64("amount", created.Amount).Bool("proof", proofURL != nil).Msg("donation recorded")
	return created, nil
}

// CheckProof validates a proof image before anything is written.
func (s *Service) CheckProof(p domain.ProofUpload) error {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(p.ContentType)), "image/") {
		return domain.NewValidationError(domain.CodeImageOnly, "proofImage")
	}
	if int64(len(p.Data)) > s.maxUploadBytes {
		return &domain.ValidationError{
			Code:   domain.CodeFileTooLarge,
			Field:  "proofImage",
			Detail: humanize.IBytes(uint64(s.maxUploadBytes)),
		}
	}
	return nil
}

// UploadProof validates and stores an image outside of any donation, as the
// upload diagnostics endpoint does. It returns the stored name and URL.
func (s *Service) UploadProof(ctx context.Context, p domain.ProofUpload) (string, string, error) {
	if err := s.CheckProof(p); err != nil {
		return "", "", err
	}
	name := ProofName(s.now().UnixMilli(), rand.Int64N(1_000_000_000), p.Filename, p.ContentType)
	url, err := s.uploadProof(ctx, p, name)
	return name, url, err
}

func (s *Service) uploadProof(ctx context.Context, p domain.ProofUpload, name string) (string, error) {
	if s.blobs == nil {
		return "", &domain.StorageError{Op: "upload proof", Err: errors.New("no blob store configured")}
	}
	url, err := s.blobs.Put(ctx, name, p.ContentType, p.Data)
	if err != nil {
		return "", &domain.StorageError{Op: "upload proof", Err: err}
	}
	s.metrics.ObserveUpload(len(p.Data))
	s.log(ctx).Debug().Str("name", name).Int("bytes", len(p.Data)).Msg("proof uploaded")
	return url, nil
}

// ProofName builds donasi-<millis>-<9 digits>.<ext>. The extension comes from
// the uploaded filename, falling back to the MIME subtype.
func ProofName(millis, random int64, filename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(strings.ReplaceAll(filename, `\`, "/"))))
	if ext == "" || ext == "." {
		ext = ""
		if _, sub, ok := strings.Cut(strings.ToLower(contentType), "/"); ok {
			sub, _, _ = strings.Cut(sub, ";")
			sub, _, _ = strings.Cut(sub, "+")
			if sub = strings.TrimSpace(sub); sub != "" {
				ext = "." + sub
			}
		}
	}
	return fmt.Sprintf("%s%d-%09d%s", ProofPrefix, millis, random%1_000_000_000, ext)
}

// UpdateDonationAmount changes only the amount of donation id.
func (s *Service) UpdateDonationAmount(ctx context.Context, id int64, amount float64) (domain.Donation, error) {
	var updated domain.Donation
	err := CheckAmount(amount)
	if err == nil {
		err = mutate(ctx, s, domain.KeyDonations, donationID, func(items []domain.Donation, next int64) ([]domain.Donation, int64, error) {
			for i := range items {
				if items[i].ID == id {
					items[i].Amount = amount
					updated = items[i]
					return items, next, nil
				}
			}
			return nil, 0, domain.ErrNotFound
		})
	}
	s.observe(domain.KeyDonations, "update", err)
	return updated, err
}

// DeleteDonation removes donation id and then, best effort, its proof image.
// A failed image delete is logged and may leave an orphan for the sweeper.
func (s *Service) DeleteDonation(ctx context.Context, id int64) error {
	var removed domain.Donation
	err := mutate(ctx, s, domain.KeyDonations, donationID, func(items []domain.Donation, next int64) ([]domain.Donation, int64, error) {
		for i := range items {
			if items[i].ID == id {
				removed = items[i]
				return append(items[:i], items[i+1:]...), next, nil
			}
		}
		return nil, 0, domain.ErrNotFound
	})
	s.observe(domain.KeyDonations, "delete", err)
	if err != nil {
		return err
	}
	if removed.ProofImage != nil && *removed.ProofImage != "" {
		s.discardBlob(ctx, *removed.ProofImage, "donation deleted")
	}
	return nil
}

func (s *Service) discardBlob(ctx context.Context, url, reason string) {
	deleter, ok := s.blobs.(domain.BlobDeleter)
	if !ok {
		return
	}
	if err := deleter.Delete(ctx, url); err != nil {
		s.log(ctx).Warn().Err(err).Str("url", url).Str("reason", reason).Msg("proof cleanup failed")
		return
	}
	s.log(ctx).Debug().Str("url", url).Str("reason", reason).Msg("proof removed")
}
