package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"shop-core/internal/model"

	"github.com/rs/zerolog"
)

// StatusOK is the canonical success token the gateway sends back on the
// synchronous callback. Anything else fails closed.
const StatusOK = "OK"

// RequestResult is the outcome of initiating a payment with the gateway.
type RequestResult struct {
	Authority  string
	PaymentURL string
}

// VerifyOutcome is the outcome of a gateway-side verification call.
type VerifyOutcome struct {
	RefID   string
	CardPan string
}

// Gateway abstracts the external payment provider. Implementations must be
// safe for concurrent use. A transport or timeout failure is reported as
// model.ErrGatewayUnavailable; nothing is persisted by the caller in that
// case, so the attempt is cleanly retriable.
type Gateway interface {
	// Request asks the gateway to open a payment attempt and returns the
	// authority identifying it plus the URL the customer is redirected to.
	Request(ctx context.Context, amount int64, description, callbackURL string) (*RequestResult, error)

	// Verify confirms with the gateway that the attempt identified by
	// authority settled for the expected amount.
	Verify(ctx context.Context, authority string, amount int64) (*VerifyOutcome, error)

	// Name identifies the provider for persistence and logging.
	Name() string
}

// Config holds the HTTP gateway client settings.
type Config struct {
	Name       string
	BaseURL    string
	MerchantID string
	Timeout    time.Duration
}

// httpGateway talks JSON over HTTPS to the payment provider.
type httpGateway struct {
	cfg    Config
	client *http.Client
	logger zerolog.Logger
}

// New creates an HTTP payment gateway client.
func New(cfg Config, logger zerolog.Logger) Gateway {
	return &httpGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("component", "payment-gateway").Str("gateway", cfg.Name).Logger(),
	}
}

func (g *httpGateway) Name() string {
	return g.cfg.Name
}

type requestPayload struct {
	MerchantID  string `json:"merchant_id"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	CallbackURL string `json:"callback_url"`
}

type requestReply struct {
	Code      int    `json:"code"`
	Authority string `json:"authority"`
	Message   string `json:"message"`
}

type verifyPayload struct {
	MerchantID string `json:"merchant_id"`
	Authority  string `json:"authority"`
	Amount     int64  `json:"amount"`
}

type verifyReply struct {
	Code    int    `json:"code"`
	RefID   string `json:"ref_id"`
	CardPan string `json:"card_pan"`
	Message string `json:"message"`
}

// gatewayCodeOK is the provider's "settled" response code.
const gatewayCodeOK = 100

// Request asks the gateway to open a payment attempt.
func (g *httpGateway) Request(ctx context.Context, amount int64, description, callbackURL string) (*RequestResult, error) {
	var reply requestReply
	err := g.post(ctx, "/pg/v4/payment/request.json", requestPayload{
		MerchantID:  g.cfg.MerchantID,
		Amount:      amount,
		Description: description,
		CallbackURL: callbackURL,
	}, &reply)
	if err != nil {
		return nil, err
	}

	if reply.Code != gatewayCodeOK || reply.Authority == "" {
		g.logger.Warn().
			Int("code", reply.Code).
			Str("message", reply.Message).
			Msg("gateway rejected payment request")
		return nil, model.ErrGatewayUnavailable
	}

	return &RequestResult{
		Authority:  reply.Authority,
		PaymentURL: fmt.Sprintf("%s/pg/StartPay/%s", g.cfg.BaseURL, reply.Authority),
	}, nil
}

// Verify confirms a settled payment attempt with the gateway.
func (g *httpGateway) Verify(ctx context.Context, authority string, amount int64) (*VerifyOutcome, error) {
	var reply verifyReply
	err := g.post(ctx, "/pg/v4/payment/verify.json", verifyPayload{
		MerchantID: g.cfg.MerchantID,
		Authority:  authority,
		Amount:     amount,
	}, &reply)
	if err != nil {
		return nil, err
	}

	if reply.Code != gatewayCodeOK {
		g.logger.Info().
			Int("code", reply.Code).
			Str("authority", authority).
			Str("message", reply.Message).
			Msg("gateway verification rejected")
		return nil, model.NewDomainError(model.ErrCodeGateway, reply.Message)
	}

	return &VerifyOutcome{RefID: reply.RefID, CardPan: reply.CardPan}, nil
}

// post sends a JSON request to the gateway and decodes the reply. Transport
// failures and non-2xx statuses surface as ErrGatewayUnavailable.
func (g *httpGateway) post(ctx context.Context, path string, payload, reply any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal gateway payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Error().Err(err).Str("path", path).Msg("gateway call failed")
		return model.ErrGatewayUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.logger.Error().Int("status", resp.StatusCode).Str("path", path).Msg("gateway returned non-2xx status")
		return model.ErrGatewayUnavailable
	}

	if err := json.NewDecoder(resp.Body).Decode(reply); err != nil {
		g.logger.Error().Err(err).Str("path", path).Msg("failed to decode gateway reply")
		return model.ErrGatewayUnavailable
	}

	return nil
}
