package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mr1hm/go-campus-alerts/internal/models"
)

type Fetcher interface {
	FetchAlerts(ctx context.Context, token string) ([]models.Alert, error)
}

// FetchError is a non-200 answer from the alerts endpoint. Like transport
// errors it is transient: the poller logs it and tries again next tick.
type FetchError struct {
	StatusCode int
	Message    string
}

func (e *FetchError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("fetching alerts: status %d", e.StatusCode)
	}
	return fmt.Sprintf("fetching alerts: status %d: %s", e.StatusCode, e.Message)
}

type HTTPFetcher struct {
	baseURL string
	client  *http.Client
}

// NewHTTPFetcher targets {baseURL}/api/alerts. A nil client gets a 15s timeout.
func NewHTTPFetcher(baseURL string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (f *HTTPFetcher) FetchAlerts(ctx context.Context, token string) ([]models.Alert, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/api/alerts", nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)
		return nil, &FetchError{StatusCode: resp.StatusCode, Message: body.Error}
	}

	var alerts []models.Alert
	if err := json.NewDecoder(resp.Body).Decode(&alerts); err != nil {
		return nil, fmt.Errorf("error decoding alerts: %w", err)
	}
	return alerts, nil
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Login exchanges credentials for a session token at {baseURL}/api/auth/login.
func (f *HTTPFetcher) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/api/auth/login", bytes.NewReader(payload))
	if err != nil {
		return "", nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)
		return "", nil, &FetchError{StatusCode: resp.StatusCode, Message: body.Error}
	}

	var session loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", nil, fmt.Errorf("error decoding session: %w", err)
	}
	return session.Token, session.User, nil
}
