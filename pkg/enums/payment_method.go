package enums

import (
	"fmt"
	"strings"
)

// PaymentMethod describes how a customer settles an order.
type PaymentMethod string

const (
	PaymentMethodOnline PaymentMethod = "ONLINE"
	PaymentMethodCOD    PaymentMethod = "COD"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodOnline,
	PaymentMethodCOD,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsOffline reports whether the method settles outside the payment gateway.
func (p PaymentMethod) IsOffline() bool {
	return p == PaymentMethodCOD
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if strings.EqualFold(string(candidate), strings.TrimSpace(value)) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
