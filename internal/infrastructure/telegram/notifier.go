package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ArticleSignals/internal/ports"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	// maxMessageRunes is the Bot API limit on sendMessage text.
	maxMessageRunes = 4096
)

// Notifier delivers operator alerts to one Telegram chat.
type Notifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier targets the public Bot API unless baseURL is set.
func NewNotifier(botToken, chatID, baseURL string) *Notifier {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// PublishAlert sends message as plain text, split on line boundaries when it
// exceeds the API limit. Chunks are sent in order; the first failure stops.
func (n *Notifier) PublishAlert(ctx context.Context, message string) error {
	if n.botToken == "" || n.chatID == "" {
		return errors.New("telegram notifier misconfigured")
	}
	if strings.TrimSpace(message) == "" {
		return nil
	}

	for i, chunk := range split(message, maxMessageRunes) {
		if err := n.send(ctx, chunk); err != nil {
			return fmt.Errorf("send alert part %d: %w", i+1, err)
		}
	}
	return nil
}

// apiResponse is the envelope every Bot API method returns.
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (n *Notifier) send(ctx context.Context, text string) error {
	form := url.Values{
		"chat_id":                  {n.chatID},
		"text":                     {text},
		"disable_web_page_preview": {"true"},
	}
	endpoint := n.baseURL + "/bot" + n.botToken + "/sendMessage"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var body apiResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)
	if resp.StatusCode != http.StatusOK {
		if body.Description != "" {
			return fmt.Errorf("telegram %s: %s", resp.Status, body.Description)
		}
		return fmt.Errorf("telegram %s", resp.Status)
	}
	if decodeErr == nil && !body.OK {
		return fmt.Errorf("telegram rejected message: %s", body.Description)
	}
	return nil
}

// split cuts s into pieces of at most limit runes, preferring line breaks.
func split(s string, limit int) []string {
	var parts []string
	runes := []rune(s)
	for len(runes) > limit {
		cut := limit
		for i := limit; i > 0; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		parts = append(parts, strings.TrimRight(string(runes[:cut]), "\n"))
		runes = runes[cut:]
	}
	return append(parts, string(runes))
}
