// Package googleauth verifies Google-issued ID tokens.
package googleauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/promptpilot/promptpilot/internal/errs"
	"github.com/promptpilot/promptpilot/pkg/models"
)

const defaultEndpoint = "https://oauth2.googleapis.com/tokeninfo"

// Verifier validates ID tokens against Google's tokeninfo endpoint.
// Verification is pure: no local state is touched.
type Verifier struct {
	client   *http.Client
	endpoint string
	clientID string
}

// NewVerifier creates a verifier for the registered OAuth client id.
func NewVerifier(clientID string) *Verifier {
	return &Verifier{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		endpoint: defaultEndpoint,
		clientID: clientID,
	}
}

// NewVerifierWithEndpoint creates a verifier against a custom endpoint.
func NewVerifierWithEndpoint(clientID, endpoint string) *Verifier {
	v := NewVerifier(clientID)
	v.endpoint = endpoint
	return v
}

type tokenInfo struct {
	Subject  string `json:"sub"`
	Audience string `json:"aud"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
}

// Verify checks an ID token's signature, issuer and expiry via the
// tokeninfo endpoint and its audience locally, and extracts the
// caller's identity. Any failure maps to ErrInvalidCredential; the
// attempt is rejected, never retried.
func (v *Verifier) Verify(ctx context.Context, idToken string) (*models.Identity, error) {
	if idToken == "" {
		return nil, fmt.Errorf("%w: empty id token", errs.ErrInvalidCredential)
	}

	reqURL := fmt.Sprintf("%s?id_token=%s", v.endpoint, url.QueryEscape(idToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokeninfo request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: tokeninfo request failed: %v", errs.ErrInvalidCredential, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: tokeninfo returned status %d", errs.ErrInvalidCredential, resp.StatusCode)
	}

	var info tokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: malformed tokeninfo response: %v", errs.ErrInvalidCredential, err)
	}

	if info.Audience != v.clientID {
		return nil, fmt.Errorf("%w: audience mismatch", errs.ErrInvalidCredential)
	}

	if info.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", errs.ErrInvalidCredential)
	}

	return &models.Identity{
		SubjectID:   info.Subject,
		Email:       info.Email,
		DisplayName: info.Name,
		Picture:     info.Picture,
	}, nil
}
