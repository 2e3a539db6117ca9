package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cinematch/internal/config"
)

const userAgent = "cinematch/0.1.0"

// RunStats is what the completion message reports.
type RunStats struct {
	Processed     int
	Added         int
	PendingReview int
	Failed        int
	Duration      time.Duration
	Cancelled     bool
}

// Service defines the notification surface used by the CLI.
type Service interface {
	NotifyRunStarted(ctx context.Context, root string, files int) error
	NotifyRunCompleted(ctx context.Context, root string, stats RunStats) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg config.Notifications) Service {
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		events:   cfg,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	events   config.Notifications
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context, root string, files int) error {
	if !n.events.RunStarted {
		return nil
	}
	data := payload{
		title:   "cinematch - Run Started",
		message: fmt.Sprintf("Matching %d files in %s", files, strings.TrimSpace(root)),
		tags:    []string{"cinematch", "run", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, root string, stats RunStats) error {
	if !n.events.RunCompleted {
		return nil
	}
	duration := stats.Duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	title := "cinematch - Run Complete"
	switch {
	case stats.Cancelled:
		title = "cinematch - Run Cancelled"
	case stats.Failed > 0:
		title = "cinematch - Run Complete (with errors)"
	}
	message := fmt.Sprintf("%s: %d processed, %d added, %d awaiting review, %d failed in %s",
		strings.TrimSpace(root), stats.Processed, stats.Added, stats.PendingReview, stats.Failed, duration)

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"cinematch", "run", "completed"},
	}
	if stats.PendingReview > 0 {
		data.tags = append(data.tags, "review")
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.events.Errors {
		return nil
	}
	detail := "unknown"
	if err != nil {
		detail = strings.TrimSpace(err.Error())
	}
	message := "Error: " + detail
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		message = fmt.Sprintf("Error with %s: %s", contextLabel, detail)
	}

	data := payload{
		title:    "cinematch - Error",
		message:  message,
		tags:     []string{"cinematch", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "cinematch - Test",
		message:  "Notification system test",
		tags:     []string{"cinematch", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

// header renders the ntfy publish headers for p.
func (p payload) header() http.Header {
	h := http.Header{}
	h.Set("User-Agent", userAgent)
	h.Set("Content-Type", "text/plain; charset=utf-8")
	if p.title != "" {
		h.Set("Title", p.title)
	}
	if len(p.tags) > 0 {
		h.Set("Tags", strings.Join(p.tags, ","))
	}
	if p.priority != "" {
		h.Set("Priority", p.priority)
	}
	return h
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("ntfy request: %w", err)
	}
	req.Header = data.header()

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("ntfy publish: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

type noopService struct{}

func (noopService) NotifyRunStarted(context.Context, string, int) error        { return nil }
func (noopService) NotifyRunCompleted(context.Context, string, RunStats) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error           { return nil }
func (noopService) TestNotification(context.Context) error                     { return nil }
