package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client submits outbound SMS to the HTTP gateway using basic auth.
// A single attempt is made per send; failures propagate to the caller.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
}

// NewClient creates a Client targeting the given gateway base URL.
func NewClient(baseURL, username, password string) *Client {
	return &Client{
		baseURL:  baseURL,
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type sendRequest struct {
	TextMessage  textMessage `json:"textMessage"`
	PhoneNumbers []string    `json:"phoneNumbers"`
}

type textMessage struct {
	Text string `json:"text"`
}

// sendResponse covers the gateway's known response shapes: some
// deployments return the message id at the top level, others nest it
// under a messages array.
type sendResponse struct {
	ID       string `json:"id"`
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// SendResult is the parsed gateway response.
type SendResult struct {
	// MessageID is the provider-assigned id, empty when the gateway
	// returned none.
	MessageID string
	// Raw is the gateway's response body verbatim.
	Raw json.RawMessage
}

// StatusError reports a non-2xx gateway response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway returned %d: %s", e.StatusCode, e.Body)
}

// Send posts the message to the gateway's /message endpoint.
func (c *Client) Send(ctx context.Context, phoneNumber, body string) (*SendResult, error) {
	if phoneNumber == "" || body == "" {
		return nil, errors.New("phone number and message body are required")
	}

	payload, err := json.Marshal(sendRequest{
		TextMessage:  textMessage{Text: body},
		PhoneNumbers: []string{phoneNumber},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/message", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var sr sendResponse
	if err := json.Unmarshal(respBody, &sr); err != nil {
		return nil, fmt.Errorf("decode response: %w body=%q", err, string(respBody))
	}

	result := &SendResult{Raw: json.RawMessage(respBody)}
	switch {
	case sr.ID != "":
		result.MessageID = sr.ID
	case len(sr.Messages) > 0:
		result.MessageID = sr.Messages[0].ID
	}

	return result, nil
}
