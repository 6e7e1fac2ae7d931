package handlers

import (
	"net/http"

	"donasi/internal/domain"
)

// TestUpload stores a single "image" file without creating a donation, so
// deployments can check the blob store end to end.
func (a *App) TestUpload(w http.ResponseWriter, r *http.Request) {
	if err := a.parseForm(w, r); err != nil {
		a.fail(w, r, subjectDonation, err)
		return
	}
	file, err := formFile(r, "image")
	if err != nil {
		a.fail(w, r, subjectDonation, err)
		return
	}
	if file == nil {
		a.fail(w, r, subjectDonation, domain.NewValidationError(domain.CodeMissingFile, "image"))
		return
	}

	name, url, err := a.Ledger.UploadProof(r.Context(), *file)
	if err != nil {
		a.fail(w, r, subjectDonation, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  translate(r.Context(), msgUploadOK),
		"filename": name,
		"path":     url,
	})
}
