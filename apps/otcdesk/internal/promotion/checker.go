package promotion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultCheckTimeout bounds the external eligibility call.
const DefaultCheckTimeout = 5 * time.Second

// HTTPChecker calls an external eligibility endpoint with the buyer's wallet
// address. Callers treat every error as not eligible.
type HTTPChecker struct {
	client *http.Client
}

func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	return &HTTPChecker{client: &http.Client{Timeout: timeout}}
}

type checkRequest struct {
	Address string `json:"address"`
}

type checkResponse struct {
	Eligible bool `json:"eligible"`
}

func (c *HTTPChecker) CheckURL(ctx context.Context, checkURL, walletAddress string) (bool, error) {
	body, err := json.Marshal(checkRequest{Address: walletAddress})
	if err != nil {
		return false, fmt.Errorf("failed to marshal eligibility request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, checkURL, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to build eligibility request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("eligibility check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("eligibility check returned status %d", resp.StatusCode)
	}

	var parsed checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return false, fmt.Errorf("failed to decode eligibility response: %w", err)
	}

	return parsed.Eligible, nil
}
