package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"donasi/pkg/zip"
)

// Export downloads both collections as a zip of the JSON snapshot files.
func (a *App) Export(w http.ResponseWriter, r *http.Request) {
	donations, err := a.Ledger.ListDonations(r.Context())
	if err != nil {
		a.fail(w, r, subjectDonation, err)
		return
	}
	fundUsage, err := a.Ledger.ListFundUsage(r.Context())
	if err != nil {
		a.fail(w, r, subjectFundUsage, err)
		return
	}

	now := a.Now().UTC()
	entries := make([]zip.Entry, 0, 2)
	for _, item := range []struct {
		name string
		v    any
	}{
		{"donations.json", donations},
		{"fund-usage.json", fundUsage},
	} {
		data, err := json.MarshalIndent(item.v, "", "  ")
		if err != nil {
			a.fail(w, r, subjectDonation, err)
			return
		}
		entries = append(entries, zip.Entry{Name: item.name, Modified: now, Data: data})
	}
	archive, err := zip.Archive(entries)
	if err != nil {
		a.fail(w, r, subjectDonation, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=donasi-export-%s.zip", now.Format("20060102-150405")))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}
