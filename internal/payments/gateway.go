package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/printshop-backend/pkg/cashfree"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GatewayStatus is the normalized status of the latest payment attempt.
type GatewayStatus string

const (
	GatewaySuccess   GatewayStatus = "SUCCESS"
	GatewayFailed    GatewayStatus = "FAILED"
	GatewayCancelled GatewayStatus = "CANCELLED"
	GatewayPending   GatewayStatus = "PENDING"
)

const orderNote = "3D Print Order"

// SessionRequest carries what the provider needs to open a hosted payment page.
type SessionRequest struct {
	OrderID       uuid.UUID
	Amount        decimal.Decimal
	CustomerID    uuid.UUID
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	ReturnURL     string
	NotifyURL     string
}

// GatewayPayment is the latest attempt reported by the provider.
type GatewayPayment struct {
	Status            GatewayStatus
	ProviderPaymentID string
}

// Gateway is the payment provider boundary. Provider payload shapes stay
// behind it.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (string, error)
	FetchLatestPaymentStatus(ctx context.Context, orderID uuid.UUID) (GatewayPayment, error)
}

type cashfreeAPI interface {
	CreateOrder(ctx context.Context, req cashfree.CreateOrderRequest) (*cashfree.CreateOrderResponse, error)
	FetchPayments(ctx context.Context, orderID string) ([]cashfree.Payment, error)
}

// CashfreeGateway adapts the Cashfree client to Gateway.
type CashfreeGateway struct {
	api      cashfreeAPI
	currency string
}

// NewCashfreeGateway wraps api. Currency defaults to INR.
func NewCashfreeGateway(api cashfreeAPI, currency string) (*CashfreeGateway, error) {
	if api == nil {
		return nil, fmt.Errorf("cashfree client required")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "INR"
	}
	return &CashfreeGateway{api: api, currency: currency}, nil
}

func (g *CashfreeGateway) CreateSession(ctx context.Context, req SessionRequest) (string, error) {
	resp, err := g.api.CreateOrder(ctx, cashfree.CreateOrderRequest{
		OrderID:       req.OrderID.String(),
		OrderAmount:   req.Amount.Round(2).InexactFloat64(),
		OrderCurrency: g.currency,
		CustomerDetails: cashfree.CustomerDetails{
			CustomerID:    req.CustomerID.String(),
			CustomerPhone: req.CustomerPhone,
			CustomerName:  req.CustomerName,
			CustomerEmail: req.CustomerEmail,
		},
		OrderMeta: cashfree.OrderMeta{
			ReturnURL: req.ReturnURL,
			NotifyURL: req.NotifyURL,
		},
		OrderNote: orderNote,
	})
	if err != nil {
		return "", gatewayError(err, "create payment session")
	}
	return resp.PaymentSessionID, nil
}

// FetchLatestPaymentStatus reads the first listed attempt. No attempts yet
// means PENDING.
func (g *CashfreeGateway) FetchLatestPaymentStatus(ctx context.Context, orderID uuid.UUID) (GatewayPayment, error) {
	payments, err := g.api.FetchPayments(ctx, orderID.String())
	if err != nil {
		return GatewayPayment{}, gatewayError(err, "fetch payment status")
	}
	if len(payments) == 0 {
		return GatewayPayment{Status: GatewayPending}, nil
	}
	latest := payments[0]
	return GatewayPayment{
		Status:            NormalizeStatus(latest.PaymentStatus),
		ProviderPaymentID: latest.CFPaymentID.String(),
	}, nil
}

// NormalizeStatus folds provider statuses into the four the core acts on.
func NormalizeStatus(raw string) GatewayStatus {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case cashfree.PaymentStatusSuccess:
		return GatewaySuccess
	case cashfree.PaymentStatusFailed:
		return GatewayFailed
	case cashfree.PaymentStatusCancelled:
		return GatewayCancelled
	default:
		return GatewayPending
	}
}

func gatewayError(err error, msg string) error {
	var apiErr *cashfree.APIError
	if errors.As(err, &apiErr) && !apiErr.Temporary() {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, msg+": request rejected by provider")
	}
	return pkgerrors.Wrap(pkgerrors.CodeGateway, err, msg)
}
