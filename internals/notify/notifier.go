package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/jadenj13/notesync/internals/syncer"
)

type Notifier interface {
	NotifyReport(ctx context.Context, report syncer.Report) error
}

type SlackNotifier struct {
	client    *slack.Client
	channelID string // channel the run summary is posted to
}

func NewSlackNotifier(botToken, channelID string, opts ...slack.Option) *SlackNotifier {
	return &SlackNotifier{
		client:    slack.New(botToken, opts...),
		channelID: channelID,
	}
}

func (n *SlackNotifier) NotifyReport(ctx context.Context, report syncer.Report) error {
	_, _, err := n.client.PostMessageContext(ctx, n.channelID,
		slack.MsgOptionText(Summary(report), false),
	)
	if err != nil {
		return fmt.Errorf("slack notify: %w", err)
	}
	return nil
}

// Summary renders a report as Slack mrkdwn.
func Summary(report syncer.Report) string {
	totals := report.Totals()
	repos := 0
	for _, f := range report.Files {
		repos += len(f.Repos)
	}

	var sb strings.Builder
	if report.OK() {
		sb.WriteString(":white_check_mark: *Notes synced*\n")
	} else {
		sb.WriteString(":warning: *Notes synced with errors*\n")
	}
	fmt.Fprintf(&sb, "Directory: `%s`\n", report.Dir)
	fmt.Fprintf(&sb, "Files: %d, repositories: %d\n", len(report.Files), repos)
	fmt.Fprintf(&sb, "Issues created: %d, skipped: %d, failed: %d",
		totals[syncer.StatusCreated], totals[syncer.StatusSkipped], totals[syncer.StatusFailed])
	if n := totals[syncer.StatusPending]; n > 0 {
		fmt.Fprintf(&sb, ", pending (dry run): %d", n)
	}

	for _, repo := range report.Failures() {
		fmt.Fprintf(&sb, "\n• *%s*", repo.Name)
		if repo.Err != nil {
			fmt.Fprintf(&sb, ": %s", repo.Err)
			continue
		}
		for _, t := range repo.Tickets {
			if t.Status == syncer.StatusFailed {
				fmt.Fprintf(&sb, "\n    ◦ %s: %s", t.Title, t.Err)
			}
		}
	}
	return sb.String()
}
