// ABOUTME: Minimal Telegram Bot API client over HTTP JSON
// ABOUTME: Covers getUpdates long-polling, sendMessage, and sendChatAction

package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultAPIBase = "https://api.telegram.org"

// Client is a thin wrapper over the Telegram Bot API methods the bridge uses.
type Client struct {
	token   string
	apiBase string
	http    *http.Client
}

// NewClient returns a Client for the given bot token. apiBase overrides the
// production endpoint; an empty string selects api.telegram.org.
func NewClient(token, apiBase string) *Client {
	if strings.TrimSpace(apiBase) == "" {
		apiBase = defaultAPIBase
	}
	return &Client{
		token:   token,
		apiBase: strings.TrimRight(apiBase, "/"),
		// Long-poll requests block server-side for up to the requested
		// timeout, so the client deadline must exceed it.
		http: &http.Client{Timeout: 70 * time.Second},
	}
}

// Update is one entry from getUpdates.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is the subset of a Telegram message the bridge reads.
type Message struct {
	MessageID int64 `json:"message_id"`
	From      struct {
		ID        int64  `json:"id"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		IsBot     bool   `json:"is_bot"`
	} `json:"from"`
	Chat struct {
		ID   int64  `json:"id"`
		Type string `json:"type"`
	} `json:"chat"`
	Text string `json:"text"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

type getUpdatesResponse struct {
	apiResponse
	Result []Update `json:"result"`
}

// GetUpdates long-polls for updates after offset, blocking server-side for up
// to timeoutSeconds.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]Update, error) {
	payload := map[string]any{
		"timeout": timeoutSeconds,
	}
	if offset > 0 {
		payload["offset"] = offset
	}

	var result getUpdatesResponse
	if err := c.call(ctx, "getUpdates", payload, &result); err != nil {
		return nil, err
	}
	return result.Result, nil
}

// SendMessage sends text to a chat. parseMode may be empty for plain text or
// "Markdown" for formatted replies.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text, parseMode string) error {
	payload := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	if parseMode != "" {
		payload["parse_mode"] = parseMode
	}
	return c.call(ctx, "sendMessage", payload, nil)
}

// SendChatAction shows an activity indicator such as "typing" in the chat.
func (c *Client) SendChatAction(ctx context.Context, chatID int64, action string) error {
	payload := map[string]any{
		"chat_id": chatID,
		"action":  action,
	}
	return c.call(ctx, "sendChatAction", payload, nil)
}

func (c *Client) call(ctx context.Context, method string, payload any, out any) error {
	url := c.apiBase + "/bot" + c.token + "/" + method
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("telegram api %s: status=%d body=%s", method, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var base apiResponse
	if err := json.Unmarshal(respBody, &base); err != nil {
		return err
	}
	if !base.OK {
		return fmt.Errorf("telegram api %s: %s", method, base.Description)
	}

	if out != nil {
		return json.Unmarshal(respBody, out)
	}
	return nil
}
