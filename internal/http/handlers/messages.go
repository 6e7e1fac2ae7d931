package handlers

import (
	"context"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"donasi/internal/domain"
	"donasi/internal/middleware"
)

// Message keys that are not validation codes.
const (
	msgServerError      = "server_error"
	msgMethodNotAllowed = "method_not_allowed"
	msgRouteNotFound    = "route_not_found"
	msgUnauthorized     = "unauthorized"
	msgTooManyRequests  = "too_many_requests"
	msgHealthRunning    = "health.running"
	msgUploadOK         = "upload.ok"
)

var messages = buildCatalog()

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.Indonesian))
	set := func(key, id, en string) {
		_ = b.SetString(language.Indonesian, key, id)
		_ = b.SetString(language.English, key, en)
	}

	set(domain.CodeMissingDonorFields, "Nama, email, dan jumlah donasi wajib diisi", "Name, email and donation amount are required")
	set(domain.CodeMissingFundFields, "Kategori dan jumlah wajib diisi", "Category and amount are required")
	set(domain.CodeInvalidAmount, "Jumlah harus berupa angka", "Amount must be a number")
	set(domain.CodeNonPositiveAmount, "Jumlah donasi harus lebih dari 0", "Amount must be greater than 0")
	set(domain.CodeInvalidPaymentMethod, "Metode pembayaran tidak didukung", "Unsupported payment method")
	set(domain.CodeImageOnly, "Hanya file gambar yang diperbolehkan", "Only image files are allowed")
	set(domain.CodeFileTooLarge, "Ukuran file terlalu besar", "File is too large")
	set(domain.CodeMissingFile, "Tidak ada file", "No file uploaded")
	set(domain.CodeInvalidPayload, "Data permintaan tidak valid", "Invalid request payload")

	set(subjectDonation.key(domain.CodeMissingID), "ID donasi diperlukan", "Donation ID is required")
	set(subjectDonation.key(domain.CodeInvalidID), "ID donasi tidak valid", "Donation ID must be an integer")
	set(subjectDonation.key("not_found"), "Donasi tidak ditemukan", "Donation not found")
	set(subjectDonation.key("created"), "Donasi berhasil dikirim!", "Donation submitted!")
	set(subjectDonation.key("updated"), "Donasi berhasil diupdate", "Donation updated")
	set(subjectDonation.key("deleted"), "Donasi berhasil dihapus", "Donation deleted")

	set(subjectFundUsage.key(domain.CodeMissingID), "ID penggunaan dana diperlukan", "Fund usage ID is required")
	set(subjectFundUsage.key(domain.CodeInvalidID), "ID penggunaan dana tidak valid", "Fund usage ID must be an integer")
	set(subjectFundUsage.key("not_found"), "Penggunaan dana tidak ditemukan", "Fund usage not found")
	set(subjectFundUsage.key("created"), "Penggunaan dana berhasil ditambahkan", "Fund usage added")
	set(subjectFundUsage.key("deleted"), "Penggunaan dana berhasil dihapus", "Fund usage deleted")

	set(msgServerError, "Terjadi kesalahan server", "Internal server error")
	set(msgMethodNotAllowed, "Metode tidak diizinkan", "Method not allowed")
	set(msgRouteNotFound, "Endpoint tidak ditemukan", "Endpoint not found")
	set(msgUnauthorized, "Akses admin diperlukan", "Admin authorization required")
	set(msgTooManyRequests, "Terlalu banyak permintaan, coba lagi nanti", "Too many requests, try again later")
	set(msgHealthRunning, "Server backend berjalan", "Backend server is running")
	set(msgUploadOK, "File berhasil diupload!", "File uploaded!")
	return b
}

// translate resolves key for the request locale.
func translate(ctx context.Context, key string) string {
	tag := language.Indonesian
	if middleware.LocaleFromContext(ctx) == "en" {
		tag = language.English
	}
	return message.NewPrinter(tag, message.Catalog(messages)).Sprintf(key)
}

// subject names the collection a handler works on, for messages that differ
// between donations and fund usage.
type subject string

const (
	subjectDonation  subject = "donation"
	subjectFundUsage subject = "fund_usage"
)

func (s subject) key(suffix string) string { return string(s) + "." + suffix }
