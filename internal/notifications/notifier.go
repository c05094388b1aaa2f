package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
	"github.com/angelmondragon/printshop-backend/pkg/mailer"
)

// Notifier emails customers when an admin changes their order status.
type Notifier struct {
	sender    mailer.Sender
	storeName string
	logg      *logger.Logger
}

// NewNotifier builds a notifier on top of sender.
func NewNotifier(sender mailer.Sender, storeName string, logg *logger.Logger) (*Notifier, error) {
	if sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Notifier{sender: sender, storeName: storeName, logg: logg}, nil
}

// Subject is the email subject for a status change. It carries the raw
// status value; the body uses the spaced label.
func Subject(order models.Order, status enums.OrderStatus) string {
	return fmt.Sprintf("Order #%s – Status: %s", order.ShortID(), status)
}

// OrderStatusChanged renders and sends one email. Missing SMTP credentials
// skip delivery with a warning and are not an error.
func (n *Notifier) OrderStatusChanged(ctx context.Context, order models.Order, status enums.OrderStatus) error {
	if order.User == nil || strings.TrimSpace(order.User.Email) == "" {
		return pkgerrors.New(pkgerrors.CodeNotification, "order has no recipient")
	}
	ctx = n.logg.WithFields(ctx, map[string]any{
		"order_id": order.ID.String(),
		"status":   status.String(),
	})

	body, err := n.render(order, status)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNotification, err, "render status email")
	}
	err = n.sender.Send(ctx, mailer.Message{
		To:      order.User.Email,
		Subject: Subject(order, status),
		HTML:    body,
	})
	if errors.Is(err, mailer.ErrNotConfigured) {
		n.logg.Warn(ctx, "smtp not configured; skipping order status email")
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNotification, err, "send status email")
	}
	n.logg.Info(ctx, "order status email sent")
	return nil
}

func (n *Notifier) render(order models.Order, status enums.OrderStatus) (string, error) {
	data := emailData{
		StoreName:    n.storeName,
		CustomerName: order.User.Name,
		ShortID:      order.ShortID(),
		StatusLabel:  status.Label(),
		Total:        order.TotalAmount.String(),
		AddressLines: strings.Split(order.Address, "\n"),
	}
	for _, item := range order.Items {
		data.Items = append(data.Items, emailItem{
			Name:        item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price.String(),
			CustomInput: customInputText(item),
		})
	}
	var buf bytes.Buffer
	if err := statusEmail.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func customInputText(item models.OrderItem) string {
	if len(item.CustomInput) == 0 {
		return "-"
	}
	raw, err := json.Marshal(item.CustomInput)
	if err != nil {
		return "-"
	}
	return string(raw)
}
