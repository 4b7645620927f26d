package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultAPIURL = "https://api.telegram.org"

type Options struct {
	BotToken string
	ChatID   string
	APIURL   string
	Timeout  time.Duration
}

// Client sends run summaries to a Telegram chat.
type Client struct {
	url        string
	chatID     string
	httpClient *http.Client
}

func NewClient(options Options) *Client {
	var apiURL = options.APIURL

	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	return &Client{
		url:        fmt.Sprintf("%v/bot%v/sendMessage", apiURL, options.BotToken),
		chatID:     options.ChatID,
		httpClient: &http.Client{Timeout: options.Timeout},
	}
}

func (client *Client) Send(ctx context.Context, text string) error {
	var form = url.Values{
		"chat_id":    {client.chatID},
		"text":       {text},
		"parse_mode": {"HTML"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, client.url, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram sendMessage: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		return fmt.Errorf("telegram sendMessage failed with status %v: %v", resp.Status, strings.TrimSpace(string(body)))
	}

	return nil
}
