package tokens

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusbook/auth/testdata"
)

const testIssuer = "http://localhost:8080/api/auth"

func newTestSigner(t *testing.T, ttl int) *Signer {
	t.Helper()

	signer, err := NewSigner(&Config{
		Issuer:         testIssuer,
		PrivateKeyPEM:  testdata.PrivateKeyPEM,
		AccessTokenTTL: ttl,
	})
	require.NoError(t, err)
	return signer
}

func TestIssueAndVerify(t *testing.T) {
	signer := newTestSigner(t, 900)

	token, err := signer.Issue("alice@example.com", "student")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Subject)
	assert.Equal(t, "student", claims.Role)
}

// A resource server that only has the published JWKS must be able to
// verify issued tokens.
func TestIssuedTokenVerifiableViaJWKS(t *testing.T) {
	signer := newTestSigner(t, 900)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"keys": []any{signer.PublicKey()},
		})
	}))
	defer ts.Close()

	token, err := signer.Issue("alice@example.com", "student")
	require.NoError(t, err)

	ctx := context.Background()
	keySet := gooidc.NewRemoteKeySet(ctx, ts.URL)
	verifier := gooidc.NewVerifier(testIssuer, keySet, &gooidc.Config{SkipClientIDCheck: true})

	verified, err := verifier.Verify(ctx, token)
	require.NoError(t, err, "Expected no error when verifying access token")

	var claims struct {
		Role string `json:"role"`
	}
	require.NoError(t, verified.Claims(&claims))
	assert.Equal(t, "alice@example.com", verified.Subject)
	assert.Equal(t, "student", claims.Role)
}

func TestVerifyExpired(t *testing.T) {
	signer := newTestSigner(t, -60)

	token, err := signer.Issue("alice@example.com", "student")
	require.NoError(t, err)

	_, err = signer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyTampered(t *testing.T) {
	signer := newTestSigner(t, 900)

	token, err := signer.Issue("alice@example.com", "student")
	require.NoError(t, err)

	// Clobber the signature.
	tampered := token[:len(token)-8] + "AAAAAAAA"
	_, err = signer.Verify(tampered)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = signer.Verify("not a token at all")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyWrongIssuer(t *testing.T) {
	signer := newTestSigner(t, 900)

	other, err := NewSigner(&Config{
		Issuer:         "http://other.example.com",
		PrivateKeyPEM:  testdata.PrivateKeyPEM,
		AccessTokenTTL: 900,
	})
	require.NoError(t, err)

	token, err := other.Issue("alice@example.com", "student")
	require.NoError(t, err)

	_, err = signer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestConfigValidateDefaultsTTL(t *testing.T) {
	c := &Config{
		Issuer:        testIssuer,
		PrivateKeyPEM: testdata.PrivateKeyPEM,
	}
	c.Validate()
	assert.Equal(t, 900, c.AccessTokenTTL)
}
