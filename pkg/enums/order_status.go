package enums

import (
	"fmt"
	"regexp"
	"strings"
)

// OrderStatus is the fulfillment lifecycle, independent of PaymentStatus.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusAccepted   OrderStatus = "Accepted"
	OrderStatusInProgress OrderStatus = "InProgress"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusRejected   OrderStatus = "Rejected"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusAccepted,
	OrderStatusInProgress,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusRejected,
}

var wordBoundary = regexp.MustCompile(`([a-z])([A-Z])`)

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// Label renders the status for humans ("InProgress" -> "In Progress").
func (o OrderStatus) Label() string {
	return wordBoundary.ReplaceAllString(string(o), "$1 $2")
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if strings.EqualFold(string(candidate), strings.TrimSpace(value)) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
