package ledger

import (
	"errors"
	"math"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"donasi/internal/domain"
)

func required(code string) validation.Rule {
	return validation.Required.ErrorObject(validation.NewError(code, code))
}

// validationFailure converts the first failing field, in the given order,
// into a domain.ValidationError.
func validationFailure(err error, fields ...string) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}
	for _, field := range fields {
		fe, ok := errs[field]
		if !ok {
			continue
		}
		var ve validation.Error
		if errors.As(fe, &ve) {
			return domain.NewValidationError(ve.Code(), field)
		}
		return &domain.ValidationError{Code: domain.CodeInvalidPayload, Field: field, Detail: fe.Error()}
	}
	return &domain.ValidationError{Code: domain.CodeInvalidPayload, Detail: err.Error()}
}

func validateDonationInput(in domain.DonationInput) (domain.DonationInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Amount = strings.TrimSpace(in.Amount)
	in.PaymentMethod = strings.TrimSpace(in.PaymentMethod)

	methods := make([]any, 0, len(domain.PaymentMethods))
	for _, m := range domain.PaymentMethods {
		methods = append(methods, string(m))
	}
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Name, required(domain.CodeMissingDonorFields)),
		validation.Field(&in.Email, required(domain.CodeMissingDonorFields)),
		validation.Field(&in.Amount, required(domain.CodeMissingDonorFields)),
		validation.Field(&in.PaymentMethod, validation.In(methods...).
			ErrorObject(validation.NewError(domain.CodeInvalidPaymentMethod, domain.CodeInvalidPaymentMethod))),
	)
	if err := validationFailure(err, "name", "email", "amount", "paymentMethod"); err != nil {
		return in, err
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = string(domain.PaymentBankTransfer)
	}
	return in, nil
}

func validateFundUsageInput(in domain.FundUsageInput) (domain.FundUsageInput, error) {
	in.Category = strings.TrimSpace(in.Category)
	in.Amount = strings.TrimSpace(in.Amount)
	in.Description = strings.TrimSpace(in.Description)

	err := validation.ValidateStruct(&in,
		validation.Field(&in.Category, required(domain.CodeMissingFundFields)),
		validation.Field(&in.Amount, required(domain.CodeMissingFundFields)),
	)
	return in, validationFailure(err, "category", "amount")
}

// ParseAmount parses a textual amount and requires it to be a finite number
// greater than zero.
func ParseAmount(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, domain.NewValidationError(domain.CodeInvalidAmount, "amount")
	}
	return v, CheckAmount(v)
}

// CheckAmount rejects amounts that are not strictly positive.
func CheckAmount(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return domain.NewValidationError(domain.CodeInvalidAmount, "amount")
	}
	if v <= 0 {
		return domain.NewValidationError(domain.CodeNonPositiveAmount, "amount")
	}
	return nil
}
