package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/apex/log"

	"gemini-relay/internal/metrics"
	"gemini-relay/internal/services"
)

// provider is the single external call every operation makes.
type provider interface {
	Generate(ctx context.Context, payload *services.Payload) (any, error)
}

type dispatcher struct {
	provider provider
}

// call performs exactly one provider call and flattens its response. The call
// is detached from client cancellation: once issued it runs to completion.
func (d dispatcher) call(r *http.Request, op string, payload *services.Payload) (string, error) {
	ctx := context.WithoutCancel(r.Context())

	startedAt := time.Now()
	resp, err := d.provider.Generate(ctx, payload)
	metrics.ObserveProviderCall(op, startedAt, err)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"operation":  op,
			"model":      payload.Model,
			"request_id": r.Header.Get("X-Request-ID"),
		}).Error("provider call failed")
		return "", &services.ProviderError{Op: op, Err: err}
	}

	return services.ExtractText(resp), nil
}
