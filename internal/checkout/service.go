package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/printshop-backend/internal/coupons"
	"github.com/angelmondragon/printshop-backend/internal/orders"
	"github.com/angelmondragon/printshop-backend/internal/payments"
	"github.com/angelmondragon/printshop-backend/internal/pricing"
	"github.com/angelmondragon/printshop-backend/internal/products"
	"github.com/angelmondragon/printshop-backend/internal/stock"
	"github.com/angelmondragon/printshop-backend/pkg/config"
	"github.com/angelmondragon/printshop-backend/pkg/db"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
	"github.com/angelmondragon/printshop-backend/pkg/metrics"
	"github.com/angelmondragon/printshop-backend/pkg/outbox"
	"github.com/angelmondragon/printshop-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	msgEmptyCart       = "Cart is empty"
	msgInvalidQuantity = "Quantity must be at least 1"
	msgPaymentInit     = "Failed to initiate online payment. Please try again."
	guestEmail         = "guest@example.com"
	returnPath         = "/orders/verify?order_id="
	webhookPath        = "/api/v1/payments/webhook"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service places orders.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, error)
}

// Deps groups the collaborators of the checkout service.
type Deps struct {
	Tx        txRunner
	Products  products.Repository
	Coupons   coupons.Repository
	Orders    orders.Repository
	Evaluator *pricing.Evaluator
	Outbox    outboxPublisher
	Gateway   payments.Gateway
	Site      config.SiteConfig
	Metrics   *metrics.PaymentMetrics
	Logger    *logger.Logger
}

type service struct {
	tx        txRunner
	products  products.Repository
	coupons   coupons.Repository
	orders    orders.Repository
	evaluator *pricing.Evaluator
	outbox    outboxPublisher
	gateway   payments.Gateway
	site      config.SiteConfig
	metrics   *metrics.PaymentMetrics
	logg      *logger.Logger
}

// NewService builds the checkout service. A nil Metrics is a no-op.
func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case deps.Products == nil:
		return nil, fmt.Errorf("products repository required")
	case deps.Coupons == nil:
		return nil, fmt.Errorf("coupons repository required")
	case deps.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case deps.Evaluator == nil:
		return nil, fmt.Errorf("pricing evaluator required")
	case deps.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	case deps.Gateway == nil:
		return nil, fmt.Errorf("payment gateway required")
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.NewPaymentMetrics(nil)
	}
	return &service{
		tx:        deps.Tx,
		products:  deps.Products,
		coupons:   deps.Coupons,
		orders:    deps.Orders,
		evaluator: deps.Evaluator,
		outbox:    deps.Outbox,
		gateway:   deps.Gateway,
		site:      deps.Site,
		metrics:   m,
		logg:      deps.Logger,
	}, nil
}

// PlaceOrder commits the order, its items, the stock decrements and the
// coupon usage together, then opens a payment session for ONLINE orders.
// A session failure leaves the committed order with payment FAILED.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, error) {
	method, err := s.validate(&input)
	if err != nil {
		s.reject(ctx, err)
		return nil, err
	}
	ctx = s.logg.WithUserID(ctx, input.UserID.String())

	var (
		order  *models.Order
		totals pricing.Breakdown
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		order, totals, txErr = s.placeInTx(ctx, tx, input, method)
		return txErr
	})
	if err != nil {
		s.reject(ctx, err)
		return nil, err
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.metrics.OrderPlaced(method.String())
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"payment_method": method.String(),
		"total":          totals.Total.String(),
	}), "order placed")

	result := &PlaceOrderResult{
		OrderID:       order.ID,
		PaymentMethod: method,
		PaymentStatus: enums.PaymentStatusPending,
		Totals:        totals,
	}
	if method.IsOffline() {
		return result, nil
	}

	sessionID, err := s.gateway.CreateSession(ctx, payments.SessionRequest{
		OrderID:       order.ID,
		Amount:        totals.Total,
		CustomerID:    input.UserID,
		CustomerName:  input.Address.FullName,
		CustomerEmail: customerEmail(input.Email),
		CustomerPhone: input.Address.Phone,
		ReturnURL:     s.site.URL(returnPath + order.ID.String()),
		NotifyURL:     s.site.URL(webhookPath),
	})
	if err == nil && strings.TrimSpace(sessionID) == "" {
		err = errors.New("empty payment session id")
	}
	if err != nil {
		s.metrics.GatewayFailure("create_session")
		s.logg.Error(ctx, "payment session creation failed", err)
		return nil, s.failPayment(ctx, order.ID, err)
	}
	// Without a stored session neither the poller nor verify can resolve the
	// order, so it is failed the same way as a gateway error.
	if err := s.orders.SetPaymentSession(ctx, order.ID, sessionID); err != nil {
		s.logg.Error(ctx, "failed to store payment session", err)
		return nil, s.failPayment(ctx, order.ID, err)
	}
	result.PaymentSessionID = sessionID
	return result, nil
}

func (s *service) validate(input *PlaceOrderInput) (enums.PaymentMethod, error) {
	if input.UserID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if len(input.Cart) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, msgEmptyCart)
	}
	for i, line := range input.Cart {
		if line.ProductID == uuid.Nil {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "productId is required").
				WithDetails(map[string]any{"line": i})
		}
		if line.Quantity < 1 {
			return "", pkgerrors.New(pkgerrors.CodeValidation, msgInvalidQuantity).
				WithDetails(map[string]any{"line": i})
		}
		if err := line.CustomInput.Validate(); err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid custom input").
				WithDetails(map[string]any{"line": i})
		}
	}
	if err := ValidateAddress(&input.Address); err != nil {
		return "", err
	}

	method := input.PaymentMethod
	if method == "" {
		method = enums.PaymentMethodOnline
	}
	if !method.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Invalid payment method")
	}
	return method, nil
}

func (s *service) placeInTx(ctx context.Context, tx *gorm.DB, input PlaceOrderInput, method enums.PaymentMethod) (*models.Order, pricing.Breakdown, error) {
	productRepo := s.products.WithTx(tx)
	couponRepo := s.coupons.WithTx(tx)
	orderRepo := s.orders.WithTx(tx)

	requests := make([]stock.Request, len(input.Cart))
	for i, line := range input.Cart {
		requests[i] = stock.Request{ProductID: line.ProductID, Quantity: line.Quantity}
	}
	requests = stock.Aggregate(requests)
	ids := make([]uuid.UUID, len(requests))
	for i, req := range requests {
		ids[i] = req.ProductID
	}

	catalog, err := productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pricing.Breakdown{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}
	if err := stock.Validate(requests, catalog); err != nil {
		return nil, pricing.Breakdown{}, err
	}
	if err := checkRequiredInput(input.Cart, catalog); err != nil {
		return nil, pricing.Breakdown{}, err
	}

	lines := make([]pricing.Line, len(input.Cart))
	for i, line := range input.Cart {
		lines[i] = pricing.Line{UnitPrice: unitPrice(line, catalog), Quantity: line.Quantity}
	}
	subtotal := pricing.Subtotal(lines)

	var coupon *models.Coupon
	discount := decimal.Zero
	if code := coupons.NormalizeCode(input.CouponCode); code != "" {
		coupon, err = couponRepo.FindByCode(ctx, code)
		if err != nil {
			return nil, pricing.Breakdown{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load coupon")
		}
		discount, err = s.evaluator.EvaluateCoupon(coupon, subtotal)
		if err != nil {
			return nil, pricing.Breakdown{}, err
		}
	}
	totals := s.evaluator.Totals(subtotal, discount)

	order := &models.Order{
		UserID:        input.UserID,
		Status:        enums.OrderStatusPending,
		Subtotal:      totals.Subtotal,
		Discount:      totals.Discount,
		Tax:           totals.Tax,
		Shipping:      totals.Shipping,
		TotalAmount:   totals.Total,
		Address:       FormatAddress(input.Address),
		PaymentMethod: method,
		PaymentStatus: enums.PaymentStatusPending,
	}
	if coupon != nil {
		order.CouponID = &coupon.ID
		order.CouponCode = &coupon.Code
	}
	if err := orderRepo.CreateOrder(ctx, order); err != nil {
		return nil, pricing.Breakdown{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
	}

	items := make([]models.OrderItem, len(input.Cart))
	for i, line := range input.Cart {
		items[i] = models.OrderItem{
			OrderID:     order.ID,
			ProductID:   line.ProductID,
			ProductName: catalog[line.ProductID].Name,
			Quantity:    line.Quantity,
			Price:       unitPrice(line, catalog),
			CustomInput: line.CustomInput,
		}
	}
	if err := orderRepo.CreateItems(ctx, items); err != nil {
		return nil, pricing.Breakdown{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order items")
	}
	order.Items = items

	for _, req := range requests {
		if err := s.decrement(ctx, productRepo, req, catalog[req.ProductID]); err != nil {
			return nil, pricing.Breakdown{}, err
		}
	}

	if coupon != nil {
		ok, err := couponRepo.IncrementUsage(ctx, coupon.ID)
		if err != nil {
			if db.IsCheckViolation(err, "") {
				return nil, pricing.Breakdown{}, pkgerrors.New(pkgerrors.CodeCouponRejected, pricing.MsgCouponExhausted)
			}
			return nil, pricing.Breakdown{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "increment coupon usage")
		}
		if !ok {
			return nil, pricing.Breakdown{}, pkgerrors.New(pkgerrors.CodeCouponRejected, pricing.MsgCouponExhausted)
		}
	}

	err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: input.UserID, Role: enums.UserRoleCustomer.String()},
		Data: payloads.OrderCreatedEvent{
			OrderID:       order.ID,
			UserID:        input.UserID,
			PaymentMethod: method,
			TotalAmount:   totals.Total,
			CouponCode:    order.CouponCode,
			ItemCount:     len(items),
		},
	})
	if err != nil {
		return nil, pricing.Breakdown{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order created")
	}
	return order, totals, nil
}

// decrement is the authoritative stock guard. A lost race rolls the whole
// order back with the stock the winner left behind.
func (s *service) decrement(ctx context.Context, repo products.Repository, req stock.Request, product models.Product) error {
	ok, err := repo.DecrementStock(ctx, req.ProductID, req.Quantity)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement stock")
	}
	if ok {
		return nil
	}
	available := 0
	if fresh, loadErr := repo.FindByIDs(ctx, []uuid.UUID{req.ProductID}); loadErr == nil {
		available = fresh[req.ProductID].Stock
	}
	return stock.InsufficientStock(product.Name, available)
}

func (s *service) failPayment(ctx context.Context, orderID uuid.UUID, cause error) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		changed, err := s.orders.WithTx(tx).MarkFailed(ctx, orderID)
		if err != nil || !changed {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentFailed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Data: payloads.PaymentStatusChangedEvent{
				OrderID:  orderID,
				Previous: enums.PaymentStatusPending,
				Current:  enums.PaymentStatusFailed,
				Source:   "checkout",
			},
		})
	})
	if err != nil {
		s.logg.Error(ctx, "failed to mark payment failed", err)
	}
	return pkgerrors.Wrap(pkgerrors.CodeGateway, cause, msgPaymentInit).
		WithDetails(map[string]any{"orderId": orderID.String()})
}

func (s *service) reject(ctx context.Context, err error) {
	code := pkgerrors.CodeInternal
	if typed := pkgerrors.As(err); typed != nil {
		code = typed.Code()
	}
	s.metrics.CheckoutRejected(string(code))
	if code == pkgerrors.CodeInternal {
		s.logg.Error(ctx, "checkout failed", err)
		return
	}
	s.logg.Info(s.logg.WithField(ctx, "code", string(code)), "checkout rejected: "+err.Error())
}

func checkRequiredInput(cart []CartLine, catalog map[uuid.UUID]models.Product) error {
	for _, line := range cart {
		product := catalog[line.ProductID]
		missing := line.CustomInput.Missing(product.CustomFields.Required())
		if len(missing) > 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("Missing required details for %s", product.Name)).
				WithDetails(map[string]any{"productId": product.ID.String(), "fields": missing})
		}
	}
	return nil
}

// unitPrice prefers the persisted price. The submitted price only applies to
// products absent from the catalog, which stock validation rejects first.
func unitPrice(line CartLine, catalog map[uuid.UUID]models.Product) decimal.Decimal {
	if product, ok := catalog[line.ProductID]; ok {
		return product.Price
	}
	return line.Price
}

func customerEmail(email string) string {
	if email = strings.TrimSpace(email); email != "" {
		return email
	}
	return guestEmail
}
