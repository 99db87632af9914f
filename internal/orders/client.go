package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kynkyro/shaderstore-backend/pkg/config"
	pkgerrors "github.com/kynkyro/shaderstore-backend/pkg/errors"
	"github.com/kynkyro/shaderstore-backend/pkg/logger"
)

const submitPath = "/v1/orders"

// Client submits orders to the external order service over HTTP. Submission is
// a single attempt; retry policy belongs to the shopper pressing the button
// again, not to this client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logg       *logger.Logger
}

// NewClient builds the order service client from configuration.
func NewClient(cfg config.OrdersConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.ServiceURL) == "" {
		return nil, fmt.Errorf("order service URL required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.ServiceURL, "/"),
		logg:       logg,
	}, nil
}

type submitResponse struct {
	Data  *SubmitResult `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) Submit(ctx context.Context, input SubmitOrderInput) (SubmitResult, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return SubmitResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode order payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+submitPath, bytes.NewReader(payload))
	if err != nil {
		return SubmitResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build order request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SubmitResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order service unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return SubmitResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read order service response")
	}

	var decoded submitResponse
	if err := json.Unmarshal(body, &decoded); err != nil && resp.StatusCode < 300 {
		return SubmitResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode order service response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := "order service rejected the submission"
		details := map[string]any{"status": resp.StatusCode}
		if decoded.Error != nil {
			details["upstream_code"] = decoded.Error.Code
			details["upstream_message"] = decoded.Error.Message
		}
		c.logg.Warn(c.logg.WithFields(ctx, details), message)
		return SubmitResult{}, pkgerrors.New(pkgerrors.CodeDependency, message).WithDetails(details)
	}

	if decoded.Data == nil || decoded.Data.OrderRef == "" {
		return SubmitResult{}, pkgerrors.New(pkgerrors.CodeDependency, "order service returned no order reference")
	}
	return *decoded.Data, nil
}
