package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/angelmondragon/printshop-backend/api/responses"
	"github.com/angelmondragon/printshop-backend/internal/payments"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

const (
	signatureHeader = "x-webhook-signature"
	timestampHeader = "x-webhook-timestamp"
	maxBodyBytes    = 1 << 20
)

// Ingestor verifies and applies a raw webhook delivery.
type Ingestor interface {
	Ingest(ctx context.Context, body []byte, signature, timestamp string) (payments.WebhookResult, error)
}

type ack struct {
	Success bool `json:"success"`
}

// CashfreeWebhook receives payment notifications. The raw body is handed
// over unparsed because the signature covers its exact bytes.
func CashfreeWebhook(ingestor Ingestor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if ingestor == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook ingestor unavailable"))
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		result, err := ingestor.Ingest(ctx, body, r.Header.Get(signatureHeader), r.Header.Get(timestampHeader))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(logg.WithField(ctx, "webhook_result", string(result)), "cashfree webhook handled")
		}
		responses.WriteRaw(w, http.StatusOK, ack{Success: true})
	}
}
