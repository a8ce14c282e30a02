package sms

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/arsmn/go-smsir/smsir"
	"github.com/samber/lo"

	"github.com/Alijeyrad/teleclinic_backend/config"
)

var ErrMissingTemplate = errors.New("sms template is not configured")

// Templates holds sms.ir template ids. Each template must declare the
// booking_number, date and time parameters.
type Templates struct {
	BookingConfirmation string
	BookingCancellation string
}

// Client provides SMS sending functionality via sms.ir.
type Client struct {
	client    *smsir.Client
	enabled   bool
	templates Templates
}

// NewFromConfig creates a new SMS client from the application configuration.
// If SMS is disabled, returns a client that no-ops on all operations.
func NewFromConfig(cfg config.SMSConfig) (*Client, error) {
	templates := Templates{
		BookingConfirmation: cfg.SMSIR.BookingTemplateID,
		BookingCancellation: cfg.SMSIR.CancellationTemplateID,
	}
	if !cfg.Enabled {
		return &Client{enabled: false, templates: templates}, nil
	}

	if cfg.SMSIR.APIKey == "" {
		return nil, fmt.Errorf("sms.ir API key required when SMS enabled")
	}

	client := smsir.NewClient().WithAuthentication(cfg.SMSIR.APIKey, cfg.SMSIR.SecretKey)

	return &Client{
		client:    client,
		enabled:   true,
		templates: templates,
	}, nil
}

// SendTemplate sends a templated message. If SMS is disabled, this is a
// no-op and returns nil.
//
// Parameters are sent in key order.
func (c *Client) SendTemplate(ctx context.Context, phoneNumber, templateID string, params map[string]string) error {
	if !c.enabled {
		// No-op when disabled (useful for development)
		return nil
	}

	if phoneNumber == "" {
		return fmt.Errorf("phone number is required")
	}
	if templateID == "" {
		return ErrMissingTemplate
	}

	keys := lo.Keys(params)
	slices.Sort(keys)
	req := &smsir.UltraFastSendRequest{
		Mobile:     phoneNumber,
		TemplateID: templateID,
		Parameters: lo.Map(keys, func(k string, _ int) smsir.UltraFastParameter {
			return smsir.UltraFastParameter{Key: k, Value: params[k]}
		}),
	}

	if _, err := c.client.Verification.UltraFastSend(ctx, req); err != nil {
		return fmt.Errorf("sms.ir send failed: %w", err)
	}
	return nil
}

func bookingParams(bookingNumber, date, time string) map[string]string {
	return map[string]string{
		"booking_number": bookingNumber,
		"date":           date,
		"time":           time,
	}
}

// SendBookingConfirmation tells a patient their booking was received.
func (c *Client) SendBookingConfirmation(ctx context.Context, phoneNumber, bookingNumber, date, time string) error {
	return c.SendTemplate(ctx, phoneNumber, c.templates.BookingConfirmation, bookingParams(bookingNumber, date, time))
}

// SendBookingCancellation tells a patient their booking was cancelled.
func (c *Client) SendBookingCancellation(ctx context.Context, phoneNumber, bookingNumber, date, time string) error {
	return c.SendTemplate(ctx, phoneNumber, c.templates.BookingCancellation, bookingParams(bookingNumber, date, time))
}

// IsEnabled returns whether SMS sending is enabled.
func (c *Client) IsEnabled() bool {
	return c.enabled
}
