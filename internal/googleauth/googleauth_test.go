package googleauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptpilot/promptpilot/internal/errs"
)

const testClientID = "test-client.apps.googleusercontent.com"

func newTokeninfoServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id_token") == "" {
			t.Error("Expected id_token query parameter")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestVerifyValidToken(t *testing.T) {
	srv := newTokeninfoServer(t, http.StatusOK, `{
		"sub": "1234567890",
		"aud": "`+testClientID+`",
		"email": "user@example.com",
		"name": "Test User",
		"picture": "https://example.com/p.png"
	}`)
	defer srv.Close()

	v := NewVerifierWithEndpoint(testClientID, srv.URL)
	identity, err := v.Verify(context.Background(), "valid-token")
	require.NoError(t, err)
	assert.Equal(t, "1234567890", identity.SubjectID)
	assert.Equal(t, "user@example.com", identity.Email)
	assert.Equal(t, "Test User", identity.DisplayName)
}

func TestVerifyAudienceMismatch(t *testing.T) {
	srv := newTokeninfoServer(t, http.StatusOK, `{
		"sub": "1234567890",
		"aud": "some-other-client",
		"email": "user@example.com"
	}`)
	defer srv.Close()

	v := NewVerifierWithEndpoint(testClientID, srv.URL)
	_, err := v.Verify(context.Background(), "valid-token-wrong-audience")
	assert.ErrorIs(t, err, errs.ErrInvalidCredential)
}

func TestVerifyRejectedToken(t *testing.T) {
	srv := newTokeninfoServer(t, http.StatusBadRequest, `{"error": "invalid_token"}`)
	defer srv.Close()

	v := NewVerifierWithEndpoint(testClientID, srv.URL)
	_, err := v.Verify(context.Background(), "expired-or-garbage")
	assert.ErrorIs(t, err, errs.ErrInvalidCredential)
}

func TestVerifyEmptyToken(t *testing.T) {
	v := NewVerifier(testClientID)
	_, err := v.Verify(context.Background(), "")
	assert.ErrorIs(t, err, errs.ErrInvalidCredential)
}

func TestVerifyMissingSubject(t *testing.T) {
	srv := newTokeninfoServer(t, http.StatusOK, `{"aud": "`+testClientID+`"}`)
	defer srv.Close()

	v := NewVerifierWithEndpoint(testClientID, srv.URL)
	_, err := v.Verify(context.Background(), "token-without-sub")
	assert.ErrorIs(t, err, errs.ErrInvalidCredential)
}
