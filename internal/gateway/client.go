package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/addotey/musician-payments/internal/services"
)

const defaultTimeout = 10 * time.Second

var _ TransferProvider = (*Client)(nil)

// Gateways quote amounts in minor units; keep conversion in one place.
func floatToDecimal(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Div(decimal.NewFromInt(100)).Round(2)
}

// Client talks to the transfer gateway's REST API. Responses arrive in a
// {"status": bool, "message": string, "data": {...}} envelope.
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
}

func NewClient(baseURL, secret string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		secret:  secret,
		http:    &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Timeouts and connection failures never mean the transfer failed;
		// the caller leaves the payment approved and retries explicitly.
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return fmt.Errorf("gateway %s %s timed out: %w", method, path, services.ErrGatewayUnavailable)
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return fmt.Errorf("gateway %s %s: %v: %w", method, path, urlErr.Err, services.ErrGatewayUnavailable)
		}
		return fmt.Errorf("gateway %s %s: %v: %w", method, path, err, services.ErrGatewayUnavailable)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("gateway read body: %v: %w", err, services.ErrGatewayUnavailable)
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("gateway returned %d: %w", resp.StatusCode, services.ErrGatewayUnavailable)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("gateway returned malformed response (%d): %w", resp.StatusCode, services.ErrGatewayUnavailable)
	}
	if resp.StatusCode >= 400 || !env.Status {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("gateway declined: %s: %w", msg, services.ErrGatewayRejected)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("gateway data decode: %v: %w", err, services.ErrGatewayUnavailable)
		}
	}
	return nil
}

type recipientData struct {
	RecipientCode string `json:"recipient_code"`
}

func (c *Client) CreateRecipient(ctx context.Context, profile RecipientProfile) (string, error) {
	var data recipientData
	if err := c.do(ctx, http.MethodPost, "/transferrecipient", profile, &data); err != nil {
		return "", err
	}
	if data.RecipientCode == "" {
		return "", fmt.Errorf("gateway returned empty recipient code: %w", services.ErrGatewayRejected)
	}
	return data.RecipientCode, nil
}

type transferData struct {
	ID           int64  `json:"id"`
	TransferCode string `json:"transfer_code"`
	Status       string `json:"status"`
}

func (c *Client) InitiateTransfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	wire := struct {
		Source    string `json:"source"`
		Amount    int64  `json:"amount"` // minor units
		Recipient string `json:"recipient"`
		Reason    string `json:"reason"`
		Reference string `json:"reference"`
	}{
		Source:    "balance",
		Amount:    req.Amount.Mul(decimal.NewFromInt(100)).IntPart(),
		Recipient: req.RecipientID,
		Reason:    req.Reason,
		Reference: req.Reference,
	}
	var data transferData
	if err := c.do(ctx, http.MethodPost, "/transfer", wire, &data); err != nil {
		return nil, err
	}
	if data.Status == "failed" || data.Status == "reversed" {
		return nil, fmt.Errorf("transfer %s: %w", data.Status, services.ErrGatewayRejected)
	}
	return &TransferResult{
		TransferCode: data.TransferCode,
		TransferID:   fmt.Sprintf("%d", data.ID),
		Status:       data.Status,
	}, nil
}

type verifyData struct {
	Status        string  `json:"status"`
	FailureReason string  `json:"failure_reason"`
	Amount        float64 `json:"amount"`
}

func (c *Client) VerifyTransfer(ctx context.Context, transferCode string) (*TransferStatus, error) {
	var data verifyData
	if err := c.do(ctx, http.MethodGet, "/transfer/verify/"+url.PathEscape(transferCode), nil, &data); err != nil {
		return nil, err
	}
	return &TransferStatus{
		Status:        data.Status,
		FailureReason: data.FailureReason,
		Amount:        floatToDecimal(data.Amount),
	}, nil
}

type balanceData struct {
	Currency string  `json:"currency"`
	Balance  float64 `json:"balance"`
}

func (c *Client) Balance(ctx context.Context) (*Balance, error) {
	var data []balanceData
	if err := c.do(ctx, http.MethodGet, "/balance", nil, &data); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("gateway returned empty balance: %w", services.ErrGatewayRejected)
	}
	return &Balance{Amount: floatToDecimal(data[0].Balance), Currency: data[0].Currency}, nil
}
