package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

// ReminderService sends daily practice reminder emails.
type ReminderService interface {
	SendPracticeReminder(ctx context.Context, toEmail, collectionName string, freshWords int) error
}

// NoopReminderService is used when reminders are disabled.
type NoopReminderService struct{}

func (s *NoopReminderService) SendPracticeReminder(ctx context.Context, toEmail, collectionName string, freshWords int) error {
	log.Printf("[ReminderService] noop practice reminder to=%s collection=%s", toEmail, collectionName)
	return nil
}

// ResendReminderService sends reminder emails via Resend REST API.
type ResendReminderService struct {
	from   string
	client *resend.Client
}

func NewResendReminderService(apiKey, from string) (*ResendReminderService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("reminder from address is required")
	}
	return &ResendReminderService{
		from:   from,
		client: resend.NewClient(apiKey),
	}, nil
}

func (s *ResendReminderService) SendPracticeReminder(ctx context.Context, toEmail, collectionName string, freshWords int) error {
	if toEmail == "" {
		return fmt.Errorf("toEmail is required")
	}

	subject := fmt.Sprintf("Time to practice: %s", collectionName)
	body := fmt.Sprintf("You have %d new words waiting in %q. A short session keeps the streak alive.", freshWords, collectionName)
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{toEmail},
		Subject: subject,
		Text:    body,
		Html:    fmt.Sprintf("<p>You have <strong>%d</strong> new words waiting in %q.</p><p>A short session keeps the streak alive.</p>", freshWords, collectionName),
	}

	// Напоминание за день одно, ключ идемпотентности — дата
	options := &resend.SendEmailOptions{
		IdempotencyKey: fmt.Sprintf("reminder-%s-%s", toEmail, time.Now().Format("2006-01-02")),
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		_, err := s.client.Emails.SendWithOptions(ctx, params, options)
		if err == nil {
			return nil
		}
		lastErr = err

		if wait, ok := resendRetryDelay(err, attempt); ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		return fmt.Errorf("resend send failed: %w", err)
	}

	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

func resendRetryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			if seconds > 30 {
				seconds = 30
			}
			return time.Duration(seconds) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && (netErr.Timeout() || netErr.Temporary()) {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporar") {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	return 0, false
}
