// classes manages the loyalty class (the program definition shared by every
// card) at the wallet vendor's class-management endpoint.
//
// Authentication is a two-step bearer exchange: the service signs an RS256
// assertion with its own key and trades it at the token endpoint for a
// short-lived access token, which authorizes the class call.
//
// An already-exists response (HTTP 409) from the class endpoint is handled
// per the configured conflict policy - the upstream API is not consistent
// about whether re-creating a class is an error, so the choice is explicit
// configuration rather than a guess.
package classes

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brightcard/walletpass/internal/config"
	"github.com/brightcard/walletpass/internal/crypto"
)

// assertion lifetime per the bearer-exchange contract
const assertionLifetime = time.Hour

const jwtBearerGrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"

// BearerClaims is the claim set of a bearer-exchange assertion
type BearerClaims struct {
	Issuer   string `json:"iss"`
	Scope    string `json:"scope"`
	Audience string `json:"aud"`
	IssuedAt int64  `json:"iat"`
	Expires  int64  `json:"exp"`
}

// NewBearerClaims builds the assertion claims for the token endpoint.
// exp is always iat+3600.
func NewBearerClaims(issuerID, scope, tokenEndpoint string, issuedAt int64) BearerClaims {
	return BearerClaims{
		Issuer:   issuerID,
		Scope:    scope,
		Audience: tokenEndpoint,
		IssuedAt: issuedAt,
		Expires:  issuedAt + int64(assertionLifetime.Seconds()),
	}
}

// LoyaltyClass is the program definition registered with the wallet vendor.
type LoyaltyClass struct {
	ID                 string `json:"id"`
	IssuerName         string `json:"issuerName"`
	ProgramName        string `json:"programName"`
	HexBackgroundColor string `json:"hexBackgroundColor,omitempty"`
	ReviewStatus       string `json:"reviewStatus"`
}

// EnsureOutcome reports how EnsureClass concluded.
type EnsureOutcome string

const (
	// OutcomeCreated: the class was created by this call
	OutcomeCreated EnsureOutcome = "created"

	// OutcomeAlreadyExists: the class existed and the idempotent policy accepted that
	OutcomeAlreadyExists EnsureOutcome = "already_exists"
)

// Client calls the class-management endpoint.
type Client struct {
	classEndpoint  string
	tokenEndpoint  string
	scope          string
	issuerID       string
	conflictPolicy string
	privateKey     *rsa.PrivateKey
	httpClient     *http.Client

	// now is the clock; overridable in tests
	now func() time.Time
}

// NewClient creates a class-management client from configuration.
func NewClient(cfg *config.ServerEnvironment, privateKey *rsa.PrivateKey) *Client {
	return &Client{
		classEndpoint:  cfg.ClassEndpointURL,
		tokenEndpoint:  cfg.TokenEndpointURL,
		scope:          cfg.TokenScope,
		issuerID:       cfg.IssuerID,
		conflictPolicy: cfg.ClassConflictPolicy,
		privateKey:     privateKey,
		httpClient:     &http.Client{Timeout: cfg.ClassTimeout},
		now:            time.Now,
	}
}

// tokenResponse is the token endpoint response shape
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// exchangeToken signs a bearer assertion and trades it for an access token.
func (c *Client) exchangeToken(ctx context.Context) (string, error) {
	claims := NewBearerClaims(c.issuerID, c.scope, c.tokenEndpoint, c.now().Unix())

	assertion, err := crypto.SignCompact(claims, c.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign bearer assertion: %w", err)
	}

	form := url.Values{}
	form.Set("grant_type", jwtBearerGrantType)
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("token endpoint returned HTTP %d: %s", resp.StatusCode, string(body))
	}

	var parsed tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", fmt.Errorf("token response carries no access_token")
	}

	return parsed.AccessToken, nil
}

// EnsureClass creates the loyalty class at the class-management endpoint.
//
// HTTP 200/201 is a creation; HTTP 409 is resolved by the configured conflict
// policy (idempotent success or surfaced error).
func (c *Client) EnsureClass(ctx context.Context, class LoyaltyClass) (EnsureOutcome, error) {
	if c.classEndpoint == "" {
		return "", fmt.Errorf("class endpoint is not configured")
	}

	accessToken, err := c.exchangeToken(ctx)
	if err != nil {
		return "", err
	}

	if class.ReviewStatus == "" {
		class.ReviewStatus = "UNDER_REVIEW"
	}

	payload, err := json.Marshal(class)
	if err != nil {
		return "", fmt.Errorf("failed to marshal class: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.classEndpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build class request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("class request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		return OutcomeCreated, nil

	case resp.StatusCode == http.StatusConflict:
		if c.conflictPolicy == config.ClassConflictIdempotent {
			return OutcomeAlreadyExists, nil
		}
		return "", fmt.Errorf("class %s already exists", class.ID)

	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("class endpoint returned HTTP %d: %s", resp.StatusCode, string(body))
	}
}
