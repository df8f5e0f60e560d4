// Package nucleus fetches bearer tokens from a Nucleus auth endpoint.
package nucleus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultExpiresIn = 900 * time.Second

// Issuer implements credential.TokenIssuer over HTTP.
type Issuer struct {
	http   *http.Client
	logger *zap.Logger
}

// NewIssuer creates a token issuer.
func NewIssuer(httpClient *http.Client, logger *zap.Logger) *Issuer {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Issuer{http: httpClient, logger: logger}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// IssueToken requests a token from {server}/auth/token.
// The server value may omit the scheme; https is assumed.
func (i *Issuer) IssueToken(ctx context.Context, server string) (string, time.Time, error) {
	endpoint := server
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	endpoint = strings.TrimSuffix(endpoint, "/") + "/auth/token"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := i.http.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", time.Time{}, fmt.Errorf(
			"token endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)),
		)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", time.Time{}, fmt.Errorf("parse token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("token endpoint returned empty access_token")
	}

	expiresIn := defaultExpiresIn
	if tr.ExpiresIn > 0 {
		expiresIn = time.Duration(tr.ExpiresIn) * time.Second
	}
	i.logger.Debug("issued nucleus token", zap.String("server", server))
	return tr.AccessToken, time.Now().Add(expiresIn), nil
}
