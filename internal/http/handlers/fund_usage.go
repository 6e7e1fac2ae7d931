package handlers

import (
	"net/http"

	"donasi/internal/domain"
)

func (a *App) FundUsageList(w http.ResponseWriter, r *http.Request) {
	items, err := a.Ledger.ListFundUsage(r.Context())
	if err != nil {
		a.fail(w, r, subjectFundUsage, err)
		return
	}
	a.json(w, http.StatusOK, items)
}

func (a *App) FundUsageCreate(w http.ResponseWriter, r *http.Request) {
	var req fundUsageRequest
	if err := a.decodeBody(w, r, &req); err != nil {
		a.fail(w, r, subjectFundUsage, err)
		return
	}
	entry, err := a.Ledger.AddFundUsage(r.Context(), domain.FundUsageInput{
		Category:    req.Category,
		Amount:      string(req.Amount),
		Description: req.Description,
	})
	if err != nil {
		a.fail(w, r, subjectFundUsage, err)
		return
	}
	a.audit(r, "fund_usage.create", entry.ID)
	a.json(w, http.StatusCreated, envelope{
		Success: true,
		Message: translate(r.Context(), subjectFundUsage.key("created")),
		Data:    entry,
	})
}

func (a *App) FundUsageDelete(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r)
	if err != nil {
		a.fail(w, r, subjectFundUsage, err)
		return
	}
	if err := a.Ledger.DeleteFundUsage(r.Context(), id); err != nil {
		a.fail(w, r, subjectFundUsage, err)
		return
	}
	a.audit(r, "fund_usage.delete", id)
	a.json(w, http.StatusOK, envelope{
		Success: true,
		Message: translate(r.Context(), subjectFundUsage.key("deleted")),
	})
}
