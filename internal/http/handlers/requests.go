package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dustin/go-humanize"

	"donasi/internal/domain"
)

// multipartOverhead leaves room for the text fields next to the file.
const multipartOverhead = 1 << 20

// flexAmount accepts a JSON number or a numeric string.
type flexAmount string

func (f *flexAmount) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexAmount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexAmount(n.String())
	return nil
}

type amountRequest struct {
	Amount flexAmount `json:"amount" schema:"amount"`
}

type fundUsageRequest struct {
	Category    string     `json:"category" schema:"category"`
	Amount      flexAmount `json:"amount" schema:"amount"`
	Description string     `json:"description" schema:"description"`
}

func invalidPayload(err error) error {
	return &domain.ValidationError{Code: domain.CodeInvalidPayload, Detail: err.Error()}
}

// parseForm parses a multipart or url-encoded body capped at the upload
// limit plus overhead.
func (a *App) parseForm(w http.ResponseWriter, r *http.Request) error {
	limit := a.Ledger.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	err := r.ParseMultipartForm(limit + multipartOverhead)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return &domain.ValidationError{Code: domain.CodeFileTooLarge, Detail: humanize.IBytes(uint64(limit))}
	case err != nil:
		return invalidPayload(err)
	}
	return nil
}

// formFile reads an optional uploaded file. A missing file yields nil.
func formFile(r *http.Request, field string) (*domain.ProofUpload, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, invalidPayload(err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, invalidPayload(err)
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return &domain.ProofUpload{Filename: header.Filename, ContentType: contentType, Data: data}, nil
}

// decodeBody fills dst from a JSON body, or from form values via schema.
func (a *App) decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	if isJSON(r) || r.Header.Get("Content-Type") == "" {
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, multipartOverhead))
		if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
			return invalidPayload(err)
		}
		return nil
	}
	if err := a.parseForm(w, r); err != nil {
		return err
	}
	if err := a.forms.Decode(dst, r.PostForm); err != nil {
		return invalidPayload(err)
	}
	return nil
}
