package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

type SlackClient struct {
	webhookURL string
	client     *http.Client
}

type SlackMessage struct {
	Blocks []Block `json:"blocks"`
}

type Block struct {
	Type string `json:"type"`
	Text *Text  `json:"text,omitempty"`
}

type Text struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

func NewSlackClient() *SlackClient {
	webhookURL := os.Getenv("SLACK_WEBHOOK_URL")
	return &SlackClient{
		webhookURL: webhookURL,
		client:     &http.Client{},
	}
}

// SendSignupAlert posts an organization-signup notice to the admin
// Slack channel. Without a configured webhook it is a no-op.
func (c *SlackClient) SendSignupAlert(orgName, contactEmail string, requestedUsers []string) error {
	if c.webhookURL == "" {
		fmt.Println("No SLACK_WEBHOOK_URL configured, skipping alert")
		return nil
	}

	usersText := "none requested"
	if len(requestedUsers) > 0 {
		usersText = strings.Join(requestedUsers, ", ")
	}

	message := SlackMessage{
		Blocks: []Block{
			{
				Type: "header",
				Text: &Text{
					Type:  "plain_text",
					Text:  fmt.Sprintf("New organization signup: %s", orgName),
					Emoji: true,
				},
			},
			{
				Type: "section",
				Text: &Text{
					Type: "mrkdwn",
					Text: "*Contact:* " + contactEmail,
				},
			},
			{
				Type: "section",
				Text: &Text{
					Type: "mrkdwn",
					Text: "*Requested user accounts:* " + usersText,
				},
			},
		},
	}

	return c.sendMessage(message)
}

func (c *SlackClient) sendMessage(message SlackMessage) error {
	reqBody, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	resp, err := c.client.Post(c.webhookURL, "application/json", bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("post error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("slack error: %s", string(body))
	}

	return nil
}
