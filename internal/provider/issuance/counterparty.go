// Package issuance asks a Counterparty node to compose the asset issuance
// transaction that carries a stamp.
package issuance

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"stamp-core/internal/provider/httpclient"
	"stamp-core/internal/service"
	"stamp-core/pkg/logger"
	"stamp-core/pkg/wallet/types"
)

type Counterparty struct {
	client *httpclient.Client
}

var _ service.IssuanceService = (*Counterparty)(nil)

func NewCounterparty(baseURL string, timeout time.Duration, maxRetries int) *Counterparty {
	retry := httpclient.DefaultRetryConfig()
	retry.MaxRetries = maxRetries
	return &Counterparty{client: httpclient.New(baseURL, timeout, retry)}
}

type composeResponse struct {
	Result struct {
		RawTransaction string `json:"rawtransaction"`
	} `json:"result"`
	Error string `json:"error"`
}

// CreateBaseTransaction returns the unsigned issuance transaction hex.
func (c *Counterparty) CreateBaseTransaction(ctx context.Context, req types.IssuanceRequest) (string, error) {
	q := url.Values{}
	q.Set("asset", req.Asset)
	q.Set("quantity", strconv.FormatUint(req.Quantity, 10))
	q.Set("divisible", strconv.FormatBool(req.Divisible))
	q.Set("lock", strconv.FormatBool(req.Locked))
	q.Set("description", req.Description)
	q.Set("allow_unconfirmed_inputs", "true")

	var resp composeResponse
	path := "/v2/addresses/" + url.PathEscape(req.Source) + "/compose/issuance"
	if err := c.client.GetJSON(ctx, path, q, &resp); err != nil {
		return "", fmt.Errorf("compose issuance for %s: %w", req.Source, err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("compose issuance for %s: %s", req.Source, resp.Error)
	}
	if resp.Result.RawTransaction == "" {
		return "", fmt.Errorf("compose issuance for %s: empty rawtransaction: %w", req.Source, service.ErrNoData)
	}

	logger.Debug("发行基础交易已生成",
		zap.String("source", req.Source),
		zap.String("asset", req.Asset),
		zap.Int("hex_len", len(resp.Result.RawTransaction)))
	return resp.Result.RawTransaction, nil
}
