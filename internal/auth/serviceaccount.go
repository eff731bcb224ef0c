// Package auth implements the service-account trust-token pipeline: it builds
// and signs a JWT from an offline credential and exchanges it for a short-lived
// bearer token via the OAuth2 JWT-bearer grant. No server component is
// involved; the private key never leaves this process.
package auth

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	// ChatScope is the messaging scope requested in every assertion.
	ChatScope = "https://www.googleapis.com/auth/chat.bot"

	// assertionLifetime is the claimed validity window (exp - iat).
	assertionLifetime = time.Hour

	// exchangeTimeout bounds the token endpoint call.
	exchangeTimeout = 30 * time.Second

	grantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"
)

// Credential is the subset of a service-account JSON key the flow needs.
type Credential struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

// CredentialError reports a malformed credential: bad JSON, missing fields,
// or an unparseable private key.
type CredentialError struct {
	Reason string
	Err    error
}

func (e *CredentialError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid service account credential: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid service account credential: %s", e.Reason)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// ExchangeError reports a rejected or unreachable token endpoint.
type ExchangeError struct {
	StatusCode  int
	Code        string
	Description string
	Err         error
}

func (e *ExchangeError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("token exchange failed: %v", e.Err)
	case e.Description != "":
		return fmt.Sprintf("token exchange failed: %s: %s", e.Code, e.Description)
	case e.Code != "":
		return fmt.Sprintf("token exchange failed: %s", e.Code)
	default:
		return fmt.Sprintf("token exchange failed: http %d", e.StatusCode)
	}
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// ParseCredential decodes a raw service-account JSON key.
func ParseCredential(raw []byte) (*Credential, error) {
	var cred Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return nil, &CredentialError{Reason: "malformed JSON", Err: err}
	}
	switch {
	case cred.ClientEmail == "":
		return nil, &CredentialError{Reason: "missing client_email"}
	case cred.PrivateKey == "":
		return nil, &CredentialError{Reason: "missing private_key"}
	case cred.TokenURI == "":
		return nil, &CredentialError{Reason: "missing token_uri"}
	}
	return &cred, nil
}

// Issuer performs the assertion build, sign, and exchange. Assertions are
// constructed fresh per call and never cached; the wall-clock iat makes two
// calls with the same credential produce different assertions, which the
// protocol requires.
type Issuer struct {
	client *http.Client
	scope  string
	now    func() time.Time
}

// NewIssuer creates an issuer with a bounded-timeout HTTP client.
func NewIssuer() *Issuer {
	return NewIssuerWithClient(&http.Client{Timeout: exchangeTimeout})
}

// NewIssuerWithClient creates an issuer with a custom HTTP client (for testing).
func NewIssuerWithClient(client *http.Client) *Issuer {
	return &Issuer{
		client: client,
		scope:  ChatScope,
		now:    time.Now,
	}
}

// AccessToken signs a fresh assertion for cred and exchanges it at the
// credential's token endpoint. The returned token is held by the caller for
// one call and never persisted.
func (i *Issuer) AccessToken(ctx context.Context, cred *Credential) (*oauth2.Token, error) {
	key, err := parsePrivateKey(cred.PrivateKey)
	if err != nil {
		return nil, err
	}
	assertion, err := i.signAssertion(cred, key)
	if err != nil {
		return nil, err
	}
	return i.exchange(ctx, cred.TokenURI, assertion)
}

// TokenSource adapts the issuer to oauth2.TokenSource. It deliberately does
// not wrap with a reuse source: every Token call performs a fresh exchange.
func (i *Issuer) TokenSource(ctx context.Context, cred *Credential) oauth2.TokenSource {
	return &issuerSource{ctx: ctx, issuer: i, cred: cred}
}

type issuerSource struct {
	ctx    context.Context
	issuer *Issuer
	cred   *Credential
}

func (s *issuerSource) Token() (*oauth2.Token, error) {
	return s.issuer.AccessToken(s.ctx, s.cred)
}

// parsePrivateKey imports the PEM PKCS#8 private key as an RSA signing key.
// Keys pasted out of JSON often carry escaped newlines; normalize first.
func parsePrivateKey(pemText string) (*rsa.PrivateKey, error) {
	pemText = strings.ReplaceAll(pemText, `\n`, "\n")
	block, _ := pem.Decode([]byte(pemText))
	if block == nil {
		return nil, &CredentialError{Reason: "private_key is not PEM"}
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, &CredentialError{Reason: "cannot parse private_key", Err: err}
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, &CredentialError{Reason: fmt.Sprintf("private_key is %T, want RSA", parsed)}
	}
	return key, nil
}

type claimSet struct {
	Iss   string `json:"iss"`
	Scope string `json:"scope"`
	Aud   string `json:"aud"`
	Exp   int64  `json:"exp"`
	Iat   int64  `json:"iat"`
}

// signAssertion produces the three-segment RS256 JWT.
func (i *Issuer) signAssertion(cred *Credential, key *rsa.PrivateKey) (string, error) {
	header, err := json.Marshal(map[string]string{"alg": "RS256", "typ": "JWT"})
	if err != nil {
		return "", err
	}

	iat := i.now().Unix()
	claims, err := json.Marshal(claimSet{
		Iss:   cred.ClientEmail,
		Scope: i.scope,
		Aud:   cred.TokenURI,
		Exp:   iat + int64(assertionLifetime/time.Second),
		Iat:   iat,
	})
	if err != nil {
		return "", err
	}

	enc := base64.RawURLEncoding
	signingInput := enc.EncodeToString(header) + "." + enc.EncodeToString(claims)

	digest := sha256.Sum256([]byte(signingInput))
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return "", &CredentialError{Reason: "signing failed", Err: err}
	}
	return signingInput + "." + enc.EncodeToString(sig), nil
}

// exchange trades the assertion for a bearer token at the token endpoint.
func (i *Issuer) exchange(ctx context.Context, tokenURI, assertion string) (*oauth2.Token, error) {
	form := url.Values{
		"grant_type": {grantType},
		"assertion":  {assertion},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &ExchangeError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, &ExchangeError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &ExchangeError{StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var denial struct {
			Error       string `json:"error"`
			Description string `json:"error_description"`
		}
		// Best effort; some endpoints return plain text on failure.
		_ = json.Unmarshal(body, &denial)
		return nil, &ExchangeError{
			StatusCode:  resp.StatusCode,
			Code:        denial.Error,
			Description: denial.Description,
		}
	}

	var grant struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &grant); err != nil {
		return nil, &ExchangeError{StatusCode: resp.StatusCode, Err: err}
	}
	if grant.AccessToken == "" {
		return nil, &ExchangeError{StatusCode: resp.StatusCode, Code: "empty access_token"}
	}

	tok := &oauth2.Token{
		AccessToken: grant.AccessToken,
		TokenType:   grant.TokenType,
	}
	if tok.TokenType == "" {
		tok.TokenType = "Bearer"
	}
	if grant.ExpiresIn > 0 {
		tok.Expiry = i.now().Add(time.Duration(grant.ExpiresIn) * time.Second)
	}
	return tok, nil
}
