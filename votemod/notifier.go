package votemod

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Interface for a type that can handle sending notifications about actions taken
type Notifier interface {
	SendDelete(ctx context.Context, post Post, tally int) error
}

type SlackNotifier struct {
	SlackWebhookURL string
	// optional; http.DefaultClient if nil
	Client *http.Client
	// instance base URL, used to link to the post
	Host string
}

var _ Notifier = (*SlackNotifier)(nil)

func (n *SlackNotifier) SendDelete(ctx context.Context, post Post, tally int) error {
	msg := "🗑️ Partybot Post Deletion 🗑️\n"
	msg += fmt.Sprintf("`%d` / %s\n", post.ID, post.Title)
	if n.Host != "" {
		msg += fmt.Sprintf("<%s/post/%d|view>\n", n.Host, post.ID)
	}
	msg += fmt.Sprintf("Requests: %d\n", tally)
	return n.sendSlackMsg(ctx, msg)
}

type SlackWebhookBody struct {
	Text string `json:"text"`
}

// Sends a simple slack message to a channel via "incoming webhook".
//
// The slack incoming webhook must be already configured in the slack workplace.
func (n *SlackNotifier) sendSlackMsg(ctx context.Context, msg string) error {
	body, err := json.Marshal(SlackWebhookBody{Text: msg})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.SlackWebhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	buf.ReadFrom(resp.Body)
	if resp.StatusCode != 200 || buf.String() != "ok" {
		return fmt.Errorf("failed slack webhook POST request. status=%d", resp.StatusCode)
	}
	return nil
}
