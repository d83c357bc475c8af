package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"SlangHarvester/internal/domain"
	"SlangHarvester/internal/ports"
)

const defaultAPIBase = "https://api.telegram.org"

// Notifier sends cycle reports to an operator chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  defaultAPIBase,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// PublishReport posts a plain-text cycle summary to Telegram.
func (n *Notifier) PublishReport(ctx context.Context, report domain.CycleReport, cycleErr error) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimSuffix(n.apiBase, "/"), n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", FormatReport(report, cycleErr))

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

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

// FormatReport renders the message body.
func FormatReport(report domain.CycleReport, cycleErr error) string {
	var b strings.Builder
	if cycleErr != nil {
		fmt.Fprintf(&b, "Harvest %s failed: %v\n", report.RunID, cycleErr)
	} else {
		fmt.Fprintf(&b, "Harvest %s finished in %s\n", report.RunID, report.Duration().Round(time.Second))
	}
	fmt.Fprintf(&b, "Tabs: %d, links: %d (failed %d, skipped %d)\n",
		report.Tabs, report.Links, report.LinksFailed, report.LinksSkipped)
	fmt.Fprintf(&b, "Definitions: %d extracted, %d new, %d duplicate",
		report.Extracted, report.Inserted, report.Duplicates)
	if report.StorageFaults > 0 {
		fmt.Fprintf(&b, ", %d not saved", report.StorageFaults)
	}
	return b.String()
}
