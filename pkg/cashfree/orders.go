package cashfree

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Payment statuses reported by the payments endpoint and webhooks.
const (
	PaymentStatusSuccess   = "SUCCESS"
	PaymentStatusFailed    = "FAILED"
	PaymentStatusCancelled = "CANCELLED"
	PaymentStatusPending   = "PENDING"
	PaymentStatusUserDrop  = "USER_DROPPED"
)

type CustomerDetails struct {
	CustomerID    string `json:"customer_id"`
	CustomerPhone string `json:"customer_phone"`
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
}

type OrderMeta struct {
	ReturnURL string `json:"return_url,omitempty"`
	NotifyURL string `json:"notify_url,omitempty"`
}

type CreateOrderRequest struct {
	OrderID         string          `json:"order_id"`
	OrderAmount     float64         `json:"order_amount"`
	OrderCurrency   string          `json:"order_currency"`
	CustomerDetails CustomerDetails `json:"customer_details"`
	OrderMeta       OrderMeta       `json:"order_meta"`
	OrderNote       string          `json:"order_note,omitempty"`
}

type CreateOrderResponse struct {
	CFOrderID        FlexibleID `json:"cf_order_id"`
	OrderID          string     `json:"order_id"`
	OrderStatus      string     `json:"order_status"`
	PaymentSessionID string     `json:"payment_session_id"`
}

// Payment is one attempt listed under an order.
type Payment struct {
	CFPaymentID    FlexibleID `json:"cf_payment_id"`
	OrderID        string     `json:"order_id"`
	PaymentStatus  string     `json:"payment_status"`
	PaymentAmount  float64    `json:"payment_amount"`
	PaymentMessage string     `json:"payment_message"`
	PaymentGroup   string     `json:"payment_group"`
	PaymentTime    string     `json:"payment_time"`
}

// FlexibleID accepts identifiers encoded either as JSON strings or numbers.
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("cashfree id: %w", err)
	}
	*f = FlexibleID(n.String())
	return nil
}

func (f FlexibleID) String() string {
	return string(f)
}

// CreateOrder registers an order with Cashfree and returns its payment session.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error) {
	if strings.TrimSpace(req.OrderID) == "" {
		return nil, errors.New("cashfree: order id is required")
	}
	if req.OrderAmount <= 0 {
		return nil, errors.New("cashfree: order amount must be positive")
	}
	if req.OrderCurrency == "" {
		req.OrderCurrency = "INR"
	}
	var resp CreateOrderResponse
	if err := c.do(ctx, http.MethodPost, "/orders", req, &resp); err != nil {
		return nil, err
	}
	if resp.PaymentSessionID == "" {
		return nil, errors.New("cashfree: response missing payment_session_id")
	}
	return &resp, nil
}

// FetchPayments lists payment attempts for an order, newest first.
func (c *Client) FetchPayments(ctx context.Context, orderID string) ([]Payment, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, errors.New("cashfree: order id is required")
	}
	var payments []Payment
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID)+"/payments", nil, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}
