package handlers

import (
	"net/http"

	"donasi/internal/domain"
	"donasi/internal/ledger"
)

func (a *App) DonationsList(w http.ResponseWriter, r *http.Request) {
	items, err := a.Ledger.ListDonations(r.Context())
	if err != nil {
		a.fail(w, r, subjectDonation, err)
		return
	}
	a.json(w, http.StatusOK, items)
}

// DonationsCreate accepts the multipart donation form with an optional
// proofImage file.
func (a *App) DonationsCreate(w http.ResponseWriter, r *http.Request) {
	if err := a.parseForm(w, r); err != nil {
		a.fail(w, r, subjectDonation, err)
		return
	}
	var in domain.DonationInput
	if err := a.forms.Decode(&in, r.PostForm); err != nil {
		a.fail(w, r, subjectDonation, invalidPayload(err))
		return
	}
	proof, err := formFile(r, "proofImage")
	if err != nil {
		a.fail(w, r, subjectDonation, err)
		return
	}

	donation, err := a.Ledger.SubmitDonation(r.Context(), in, proof)
	if err != nil {
		a.fail(w, r, subjectDonation, err)
		return
	}
	a.json(w, http.StatusCreated, envelope{
		Success: true,
		Message: translate(r.Context(), subjectDonation.key("created")),
		Data:    donation,
	})
}

func (a *App) DonationsUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r)
	if err != nil {
		a.fail(w, r, subjectDonation, err)
		return
	}
	var req amountRequest
	if err := a.decodeBody(w, r, &req); err != nil {
		a.fail(w, r, subjectDonation, err)
		return
	}
	if req.Amount == "" {
		a.fail(w, r, subjectDonation, domain.NewValidationError(domain.CodeNonPositiveAmount, "amount"))
		return
	}
	amount, err := ledger.ParseAmount(string(req.Amount))
	if err != nil {
		a.fail(w, r, subjectDonation, err)
		return
	}

	donation, err := a.Ledger.UpdateDonationAmount(r.Context(), id, amount)
	if err != nil {
		a.fail(w, r, subjectDonation, err)
		return
	}
	a.audit(r, "donation.update", id)
	a.json(w, http.StatusOK, envelope{
		Success: true,
		Message: translate(r.Context(), subjectDonation.key("updated")),
		Data:    donation,
	})
}

func (a *App) DonationsDelete(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r)
	if err != nil {
		a.fail(w, r, subjectDonation, err)
		return
	}
	if err := a.Ledger.DeleteDonation(r.Context(), id); err != nil {
		a.fail(w, r, subjectDonation, err)
		return
	}
	a.audit(r, "donation.delete", id)
	a.json(w, http.StatusOK, envelope{
		Success: true,
		Message: translate(r.Context(), subjectDonation.key("deleted")),
	})
}

// DonationsTotal never fails: the ledger degrades read errors to zeros.
func (a *App) DonationsTotal(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Ledger.TotalDonations(r.Context()))
}
