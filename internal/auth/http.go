package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// HTTPConfig parameterizes the delegated HTTP JSON broker. Every operation
// POSTs a JSON body to its URL with the API key in a static header.
type HTTPConfig struct {
	AuthURL        string `mapstructure:"auth_url" yaml:"auth_url"`
	EntryURL       string `mapstructure:"entry_url" yaml:"entry_url"`
	AccessTokenURL string `mapstructure:"access_token_url" yaml:"access_token_url"`
	ServerIDURL    string `mapstructure:"server_id_url" yaml:"server_id_url"`
	APIKey         string `mapstructure:"api_key" yaml:"api_key"`
}

// apiKeyHeader carries the static credential to the delegated backend.
const apiKeyHeader = "X-Launch-Server-Key"

// HTTP delegates every broker operation to an external JSON service.
type HTTP struct {
	cfg    HTTPConfig
	client *http.Client
}

// NewHTTP validates the endpoint configuration and returns the broker.
func NewHTTP(cfg HTTPConfig) (*HTTP, error) {
	for name, url := range map[string]string{
		"auth_url":         cfg.AuthURL,
		"entry_url":        cfg.EntryURL,
		"access_token_url": cfg.AccessTokenURL,
		"server_id_url":    cfg.ServerIDURL,
	} {
		if url == "" {
			return nil, fmt.Errorf("http auth provider: %s is required", name)
		}
	}
	return &HTTP{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// backendResponse is the common shape of delegated responses. A non-empty
// Message means the backend refused the operation.
type backendResponse struct {
	Message string `json:"message,omitempty"`
}

// refusalError carries a message-present backend reply. What a refusal means
// depends on the endpoint: bad credentials on auth, an unknown entry on the
// lookup and update endpoints.
type refusalError struct {
	message string
}

func (e *refusalError) Error() string {
	return e.message
}

// refusedAs rewraps a backend refusal under the given sentinel and passes
// every other error through.
func refusedAs(err, sentinel error) error {
	var refusal *refusalError
	if errors.As(err, &refusal) {
		return fmt.Errorf("%w: %s", sentinel, refusal.message)
	}
	return err
}

// post sends a JSON body and decodes the response into out (when non-nil).
// Non-2xx statuses and message-present bodies are errors; only the
// backend-supplied message is surfaced.
func (h *HTTP) post(ctx context.Context, url string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, h.cfg.APIKey)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("auth backend request: %w", err)
	}
	defer resp.Body.Close()

	var envelope struct {
		backendResponse
		Result json.RawMessage `json:"result,omitempty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode auth backend response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if envelope.Message != "" {
			return &refusalError{message: envelope.Message}
		}
		return fmt.Errorf("auth backend returned status %d", resp.StatusCode)
	}
	if envelope.Message != "" {
		return &refusalError{message: envelope.Message}
	}
	if out != nil && envelope.Result != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("decode auth backend result: %w", err)
		}
	}
	return nil
}

func (h *HTTP) Auth(ctx context.Context, login, password, ip string) (uuid.UUID, error) {
	var result struct {
		UUID uuid.UUID `json:"uuid"`
	}
	body := map[string]string{"login": login, "password": password, "ip": ip}
	if err := h.post(ctx, h.cfg.AuthURL, body, &result); err != nil {
		return uuid.Nil, refusedAs(err, ErrAuthFailed)
	}
	return result.UUID, nil
}

func (h *HTTP) EntryByUUID(ctx context.Context, id uuid.UUID) (Entry, error) {
	var entry Entry
	body := map[string]string{"uuid": id.String()}
	if err := h.post(ctx, h.cfg.EntryURL, body, &entry); err != nil {
		return Entry{}, refusedAs(err, ErrEntryNotFound)
	}
	return entry, nil
}

func (h *HTTP) EntryByUsername(ctx context.Context, username string) (Entry, error) {
	var entry Entry
	body := map[string]string{"username": username}
	if err := h.post(ctx, h.cfg.EntryURL, body, &entry); err != nil {
		return Entry{}, refusedAs(err, ErrEntryNotFound)
	}
	return entry, nil
}

func (h *HTTP) SetAccessToken(ctx context.Context, id uuid.UUID, token string) error {
	body := map[string]string{"uuid": id.String(), "accessToken": token}
	return refusedAs(h.post(ctx, h.cfg.AccessTokenURL, body, nil), ErrEntryNotFound)
}

func (h *HTTP) SetServerID(ctx context.Context, id uuid.UUID, serverID string) error {
	body := map[string]string{"uuid": id.String(), "serverId": serverID}
	return refusedAs(h.post(ctx, h.cfg.ServerIDURL, body, nil), ErrEntryNotFound)
}

func (h *HTTP) Close() error {
	h.client.CloseIdleConnections()
	return nil
}
