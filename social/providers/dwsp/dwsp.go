package dwsp

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	auth "github.com/goliatone/go-auth-dwsp"
	"github.com/goliatone/go-auth-dwsp/social"
	"github.com/goliatone/go-print"
)

const (
	// ProviderName identifies DWSP in logs and activity events.
	ProviderName = "dwsp"

	DefaultBaseURL = "https://31.133.60.137:3001"
	DefaultTimeout = 10 * time.Second

	tokenPath   = "/s/auth/oauth/token"
	userPath    = "/s/users/public/api/user/"
	tokenHeader = "api-token"

	// maxBodyBytes bounds how much of a provider response is read.
	maxBodyBytes = 1 << 20
)

// ErrMissingCredentials is returned by New when the client id or secret
// is not configured.
var ErrMissingCredentials = errors.New("dwsp: client id and client secret are required")

// Config holds DWSP client configuration.
type Config struct {
	ClientID     string
	ClientSecret string

	BaseURL string
	// AuthorizeURL is the provider page the login endpoint redirects to.
	AuthorizeURL string

	Timeout time.Duration
	// InsecureSkipVerify relaxes TLS verification for this client only.
	InsecureSkipVerify bool

	HTTPClient *http.Client
	Logger     auth.Logger
}

// Provider implements social.Provider for DWSP.
type Provider struct {
	config     Config
	httpClient *http.Client
	logger     auth.Logger
}

var _ social.Provider = (*Provider)(nil)

// New creates a new DWSP provider.
func New(cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, ErrMissingCredentials
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	client := cfg.HTTPClient
	if client == nil {
		client = newHTTPClient(cfg.Timeout, cfg.InsecureSkipVerify)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = auth.Logger(noopLogger{})
	}

	return &Provider{
		config:     cfg,
		httpClient: client,
		logger:     logger,
	}, nil
}

func newHTTPClient(timeout time.Duration, insecure bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecure {
		transport.TLSClientConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: true, // #nosec G402 -- opt-in, scoped to this client
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// Name implements social.Provider.
func (p *Provider) Name() string {
	return ProviderName
}

// AuthCodeURL implements social.Provider.
func (p *Provider) AuthCodeURL() string {
	if p.config.AuthorizeURL == "" {
		return ""
	}

	parsed, err := url.Parse(p.config.AuthorizeURL)
	if err != nil {
		p.logger.Error("invalid dwsp authorize url", "url", p.config.AuthorizeURL, "error", err)
		return ""
	}
	query := parsed.Query()
	query.Set("clientId", p.config.ClientID)
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// Exchange implements social.Provider.
func (p *Provider) Exchange(ctx context.Context, code string) (*social.Token, error) {
	payload, err := json.Marshal(tokenRequest{
		AuthorizationCode: code,
		ClientID:          p.config.ClientID,
		ClientSecret:      p.config.ClientSecret,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+tokenPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	status, body, err := p.do(req, "exchange")
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		p.logUpstream("dwsp token exchange rejected", status, body)
		return nil, providerError("exchange", status, social.CodeBadStatus, "unexpected status", nil, decodeRaw(body))
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		p.logUpstream("dwsp token response undecodable", status, body)
		return nil, providerError("exchange", status, social.CodeInvalidResponse, "failed to decode token response", err, nil)
	}
	if tokenResp.Token == "" {
		p.logUpstream("dwsp token response without token", status, body)
		return nil, providerError("exchange", status, social.CodeMissingToken, "missing access token", nil, nil)
	}

	return &social.Token{
		AccessToken: tokenResp.Token,
	}, nil
}

// UserInfo implements social.Provider.
func (p *Provider) UserInfo(ctx context.Context, token *social.Token) (*social.RemoteProfile, error) {
	if token == nil || token.AccessToken == "" {
		return nil, providerError("user_info", 0, social.CodeMissingToken, "missing access token", nil, nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.BaseURL+userPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(tokenHeader, token.AccessToken)

	status, body, err := p.do(req, "user_info")
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		p.logUpstream("dwsp user info rejected", status, body)
		return nil, providerError("user_info", status, social.CodeBadStatus, "unexpected status", nil, decodeRaw(body))
	}

	var userResp userResponse
	if err := json.Unmarshal(body, &userResp); err != nil {
		p.logUpstream("dwsp user info undecodable", status, body)
		return nil, providerError("user_info", status, social.CodeInvalidResponse, "failed to decode user response", err, nil)
	}
	if userResp.Account == nil {
		p.logger.Error("dwsp user info without account, does the client have the required scopes?", "status", status)
		return nil, providerError("user_info", status, social.CodeMissingAccount, "account missing from response", nil, nil)
	}
	if strings.TrimSpace(userResp.Account.UUID) == "" {
		p.logUpstream("dwsp account without uuid", status, body)
		return nil, providerError("user_info", status, social.CodeMissingUserID, "account uuid missing", nil, nil)
	}

	return mapProfile(userResp.Account, decodeRaw(body)), nil
}

func (p *Provider) do(req *http.Request, operation string) (int, []byte, error) {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Error("dwsp request failed", "operation", operation, "error", err)
		return 0, nil, providerError(operation, 0, social.CodeTransport, "request failed", err, nil)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, providerError(operation, resp.StatusCode, social.CodeTransport, "failed to read response", err, nil)
	}

	return resp.StatusCode, body, nil
}

func (p *Provider) logUpstream(msg string, status int, body []byte) {
	details := any(strings.TrimSpace(string(body)))
	if raw := decodeRaw(body); raw != nil {
		details = print.MaybePrettyJSON(raw)
	}
	p.logger.Error(msg, "status", status, "body", details)
}

func providerError(operation string, status int, code, description string, err error, raw map[string]any) *social.ProviderError {
	return &social.ProviderError{
		Provider:    ProviderName,
		Operation:   operation,
		Status:      status,
		Code:        code,
		Description: description,
		Err:         err,
		Raw:         raw,
	}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
