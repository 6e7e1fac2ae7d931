package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"donasi/internal/domain"
)

func donorFields() map[string]string {
	return map[string]string{
		"name":          "Budi Santoso",
		"email":         "budi@example.org",
		"phone":         "081234567890",
		"amount":        "250000",
		"paymentMethod": "digital-payment",
		"message":       "Semangat!",
	}
}

func TestDonationsCreateWithProofImage(t *testing.T) {
	ta := newTestApp(t)
	req := multipartRequest(t, http.MethodPost, "/api/donations", donorFields(), formFileSpec{
		field: "proofImage", filename: "bukti.png", contentType: "image/png", data: pngBytes,
	})
	rr := httptest.NewRecorder()

	ta.app.DonationsCreate(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	res := decode[donationResult](t, rr)
	if !res.Success || res.Message != "Donasi berhasil dikirim!" {
		t.Fatalf("unexpected envelope %#v", res)
	}
	d := res.Data
	if d.ID != 1 || d.Amount != 250000 || d.PaymentMethod != domain.PaymentDigitalPayment || d.Status != domain.StatusPending {
		t.Fatalf("unexpected donation %#v", d)
	}
	if d.ProofImage == nil || !strings.HasPrefix(*d.ProofImage, "http://localhost:5000/uploads/donasi-") {
		t.Fatalf("unexpected proof url %v", d.ProofImage)
	}
	name := strings.TrimPrefix(*d.ProofImage, "http://localhost:5000/uploads/")
	if data, err := afero.ReadFile(ta.fs, name); err != nil || string(data) != string(pngBytes) {
		t.Fatalf("proof not stored: %v", err)
	}

	list := httptest.NewRecorder()
	ta.app.DonationsList(list, httptest.NewRequest(http.MethodGet, "/api/donations", nil))
	items := decode[[]domain.Donation](t, list)
	if len(items) != 1 || items[0].ID != 1 {
		t.Fatalf("list = %#v", items)
	}
}

func TestDonationsCreateDetectsUntypedImage(t *testing.T) {
	ta := newTestApp(t)
	req := multipartRequest(t, http.MethodPost, "/api/donations", donorFields(), formFileSpec{
		field: "proofImage", filename: "bukti", contentType: "application/octet-stream", data: pngBytes,
	})
	rr := httptest.NewRecorder()
	ta.app.DonationsCreate(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	res := decode[donationResult](t, rr)
	if !strings.HasSuffix(*res.Data.ProofImage, ".png") {
		t.Fatalf("extension not derived from detected type: %s", *res.Data.ProofImage)
	}
}

func TestDonationsCreateWithoutProof(t *testing.T) {
	ta := newTestApp(t)
	rr := httptest.NewRecorder()
	ta.app.DonationsCreate(rr, multipartRequest(t, http.MethodPost, "/api/donations", donorFields()))
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if res := decode[donationResult](t, rr); res.Data.ProofImage != nil {
		t.Fatalf("proofImage = %v, want null", *res.Data.ProofImage)
	}
}

func TestDonationsCreateAcceptsURLEncodedForm(t *testing.T) {
	ta := newTestApp(t)
	req := httptest.NewRequest(http.MethodPost, "/api/donations", strings.NewReader("name=Ani&email=ani%40example.org&amount=10000"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	ta.app.DonationsCreate(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if res := decode[donationResult](t, rr); res.Data.PaymentMethod != domain.PaymentBankTransfer {
		t.Fatalf("paymentMethod = %q, want default", res.Data.PaymentMethod)
	}
}

func TestDonationsCreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		fields func(map[string]string)
		file   *formFileSpec
		locale string
		want   string
	}{
		{
			name:   "missing name",
			fields: func(f map[string]string) { delete(f, "name") },
			want:   "Nama, email, dan jumlah donasi wajib diisi",
		},
		{
			name:   "missing email in english",
			fields: func(f map[string]string) { f["email"] = "" },
			locale: "en",
			want:   "Name, email and donation amount are required",
		},
		{
			name:   "negative amount",
			fields: func(f map[string]string) { f["amount"] = "-1" },
			want:   "Jumlah donasi harus lebih dari 0",
		},
		{
			name:   "bad payment method",
			fields: func(f map[string]string) { f["paymentMethod"] = "cash" },
			want:   "Metode pembayaran tidak didukung",
		},
		{
			name: "non image proof",
			file: &formFileSpec{field: "proofImage", filename: "bukti.pdf", contentType: "application/pdf", data: []byte("%PDF-1.4")},
			want: "Hanya file gambar yang diperbolehkan",
		},
		{
			name: "oversized proof",
			file: &formFileSpec{field: "proofImage", filename: "big.png", contentType: "image/png", data: make([]byte, 3000)},
			want: "Ukuran file terlalu besar (2.0 KiB)",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ta := newTestApp(t)
			fields := donorFields()
			if tc.fields != nil {
				tc.fields(fields)
			}
			var files []formFileSpec
			if tc.file != nil {
				files = append(files, *tc.file)
			}
			req := multipartRequest(t, http.MethodPost, "/api/donations", fields, files...)
			if tc.locale != "" {
				req = withLocale(req, tc.locale)
			}
			rr := httptest.NewRecorder()
			ta.app.DonationsCreate(rr, req)
			expectError(t, rr, http.StatusBadRequest, tc.want)

			if blobs := ta.storedBlobs(t); len(blobs) != 0 {
				t.Fatalf("blob written on rejected submission")
			}
		})
	}
}

func TestDonationsUpdate(t *testing.T) {
	ta := newTestApp(t)
	create := httptest.NewRecorder()
	ta.app.DonationsCreate(create, multipartRequest(t, http.MethodPost, "/api/donations", donorFields()))
	created := decode[donationResult](t, create).Data

	for _, body := range []string{`{"amount": 300000}`, `{"amount": "300000"}`} {
		rr := httptest.NewRecorder()
		ta.app.DonationsUpdate(rr, jsonRequest(http.MethodPut, "/api/donations?id=1", body))
		if rr.Code != http.StatusOK {
			t.Fatalf("body %s: status = %d, %s", body, rr.Code, rr.Body.String())
		}
		res := decode[donationResult](t, rr)
		if res.Message != "Donasi berhasil diupdate" || res.Data.Amount != 300000 {
			t.Fatalf("unexpected envelope %#v", res)
		}
		want := created
		want.Amount = 300000
		if res.Data.Name != want.Name || !res.Data.Date.Equal(want.Date) || res.Data.Email != want.Email {
			t.Fatalf("fields other than amount changed: %#v", res.Data)
		}
	}
}

func TestDonationsUpdateErrors(t *testing.T) {
	ta := newTestApp(t)
	ta.app.DonationsCreate(httptest.NewRecorder(), multipartRequest(t, http.MethodPost, "/api/donations", donorFields()))

	tests := []struct {
		name   string
		target string
		body   string
		status int
		want   string
	}{
		{name: "missing id", target: "/api/donations", body: `{"amount":1}`, status: http.StatusBadRequest, want: "ID donasi diperlukan"},
		{name: "non numeric id", target: "/api/donations?id=abc", body: `{"amount":1}`, status: http.StatusBadRequest, want: "ID donasi tidak valid"},
		{name: "missing amount", target: "/api/donations?id=1", body: `{}`, status: http.StatusBadRequest, want: "Jumlah donasi harus lebih dari 0"},
		{name: "zero amount", target: "/api/donations?id=1", body: `{"amount":0}`, status: http.StatusBadRequest, want: "Jumlah donasi harus lebih dari 0"},
		{name: "malformed body", target: "/api/donations?id=1", body: `{"amount":true}`, status: http.StatusBadRequest},
		{name: "unknown id", target: "/api/donations?id=42", body: `{"amount":1}`, status: http.StatusNotFound, want: "Donasi tidak ditemukan"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			ta.app.DonationsUpdate(rr, jsonRequest(http.MethodPut, tc.target, tc.body))
			expectError(t, rr, tc.status, tc.want)
		})
	}
}

func TestDonationsDelete(t *testing.T) {
	ta := newTestApp(t)
	create := httptest.NewRecorder()
	ta.app.DonationsCreate(create, multipartRequest(t, http.MethodPost, "/api/donations", donorFields(), formFileSpec{
		field: "proofImage", filename: "bukti.png", contentType: "image/png", data: pngBytes,
	}))
	created := decode[donationResult](t, create).Data

	rr := httptest.NewRecorder()
	ta.app.DonationsDelete(rr, httptest.NewRequest(http.MethodDelete, "/api/donations?id=1", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	res := decode[map[string]any](t, rr)
	if res["success"] != true || res["message"] != "Donasi berhasil dihapus" {
		t.Fatalf("unexpected body %v", res)
	}
	if _, ok := res["data"]; ok {
		t.Fatalf("delete must not return data")
	}
	name := strings.TrimPrefix(*created.ProofImage, "http://localhost:5000/uploads/")
	if ok, _ := afero.Exists(ta.fs, name); ok {
		t.Fatalf("proof image survived delete")
	}

	again := httptest.NewRecorder()
	ta.app.DonationsDelete(again, httptest.NewRequest(http.MethodDelete, "/api/donations?id=1", nil))
	expectError(t, again, http.StatusNotFound, "Donasi tidak ditemukan")

	missing := httptest.NewRecorder()
	ta.app.DonationsDelete(missing, httptest.NewRequest(http.MethodDelete, "/api/donations", nil))
	expectError(t, missing, http.StatusBadRequest, "ID donasi diperlukan")
}

func TestDonationsDeleteRemovesProofReferencedByLocalPath(t *testing.T) {
	ta := newTestApp(t)
	ctx := context.Background()
	const name = "donasi-1700000000000-000000042.png"
	if err := afero.WriteFile(ta.fs, name, pngBytes, 0o644); err != nil {
		t.Fatalf("seed proof: %v", err)
	}
	rel := "/uploads/" + name
	if _, err := ta.app.Ledger.ImportDonations(ctx, []domain.Donation{{ID: 1, Name: "Ani", Amount: 1000, ProofImage: &rel}}); err != nil {
		t.Fatalf("ImportDonations: %v", err)
	}

	rr := httptest.NewRecorder()
	ta.app.DonationsDelete(rr, httptest.NewRequest(http.MethodDelete, "/api/donations?id=1", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if ok, _ := afero.Exists(ta.fs, name); ok {
		t.Fatalf("proof referenced as %s survived delete", rel)
	}
}

func TestDonationsTotal(t *testing.T) {
	ta := newTestApp(t)
	for _, amount := range []string{"100000", "250000"} {
		fields := donorFields()
		fields["amount"] = amount
		ta.app.DonationsCreate(httptest.NewRecorder(), multipartRequest(t, http.MethodPost, "/api/donations", fields))
	}

	rr := httptest.NewRecorder()
	ta.app.DonationsTotal(rr, httptest.NewRequest(http.MethodGet, "/api/donations/total", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := decode[domain.Totals](t, rr); got != (domain.Totals{Total: 350000, Count: 2, Currency: "IDR"}) {
		t.Fatalf("totals = %#v", got)
	}
}

func TestStoreFailures(t *testing.T) {
	ta := newTestAppWithStore(t, brokenStore{})

	total := httptest.NewRecorder()
	ta.app.DonationsTotal(total, httptest.NewRequest(http.MethodGet, "/api/total", nil))
	if total.Code != http.StatusOK {
		t.Fatalf("total status = %d, want 200", total.Code)
	}
	if got := decode[domain.Totals](t, total); got != (domain.Totals{Currency: "IDR"}) {
		t.Fatalf("degraded totals = %#v", got)
	}

	list := httptest.NewRecorder()
	ta.app.DonationsList(list, httptest.NewRequest(http.MethodGet, "/api/donations", nil))
	expectError(t, list, http.StatusInternalServerError, "")

	create := httptest.NewRecorder()
	ta.app.DonationsCreate(create, multipartRequest(t, http.MethodPost, "/api/donations", donorFields()))
	if create.Code != http.StatusInternalServerError {
		t.Fatalf("create status = %d", create.Code)
	}
	body := decode[errorBody](t, create)
	if !strings.HasPrefix(body.Error, "Terjadi kesalahan server: ") || !strings.Contains(body.Error, "connection refused") {
		t.Fatalf("error message lacks cause: %q", body.Error)
	}
}
