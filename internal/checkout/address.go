package checkout

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/go-playground/validator/v10"
)

var (
	pincodePattern = regexp.MustCompile(`^\d{6}$`)
	phonePattern   = regexp.MustCompile(`^[6-9]\d{9}$`)
)

var addressMessages = map[string]string{
	"FullName": "Full name is required",
	"Line1":    "Address is required",
	"City":     "City is required",
	"State":    "State is required",
	"Pincode":  "Pincode must be 6 digits",
	"Phone":    "Valid 10-digit phone required",
}

var addressValidator = newAddressValidator()

func newAddressValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("pincode", func(fl validator.FieldLevel) bool {
		return pincodePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

// ValidateAddress trims the address in place and reports the first invalid
// field with its customer-facing message. Details list every failing field.
func ValidateAddress(addr *Address) error {
	if addr == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, addressMessages["FullName"])
	}
	addr.FullName = strings.TrimSpace(addr.FullName)
	addr.Line1 = strings.TrimSpace(addr.Line1)
	addr.Line2 = strings.TrimSpace(addr.Line2)
	addr.City = strings.TrimSpace(addr.City)
	addr.State = strings.TrimSpace(addr.State)
	addr.Pincode = strings.TrimSpace(addr.Pincode)
	addr.Phone = strings.TrimSpace(addr.Phone)

	err := addressValidator.Struct(addr)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address")
	}
	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = addressMessages[fe.StructField()]
	}
	return pkgerrors.New(pkgerrors.CodeValidation, addressMessages[fieldErrs[0].StructField()]).WithDetails(details)
}

// FormatAddress renders the snapshot stored on the order, one part per line.
func FormatAddress(addr Address) string {
	lines := []string{addr.FullName, addr.Line1}
	if addr.Line2 != "" {
		lines = append(lines, addr.Line2)
	}
	lines = append(lines,
		fmt.Sprintf("%s, %s - %s", addr.City, addr.State, addr.Pincode),
		addr.Phone,
	)
	return strings.Join(lines, "\n")
}
