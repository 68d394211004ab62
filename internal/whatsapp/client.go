// Package whatsapp delivers lead notifications through a
// go-whatsapp-web-multidevice gateway.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"estate_crm_backend/platform/config"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/phone"
)

// ErrInvalidPhone is returned for numbers that do not parse in the configured region.
var ErrInvalidPhone = errors.New("whatsapp: invalid phone number")

// Config is what the client reads from the application config.
type Config interface {
	config.WhatsAppConfig
	config.PhoneConfig
}

// Client sends plain text messages to staff phones.
type Client struct {
	baseURL  string
	apiKey   string
	deviceID string
	phones   phone.Normalizer
	http     *http.Client
	log      *logger.Logger
}

type sendMessageRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// NewClient returns nil when no gateway URL is configured. A nil Client drops
// every message.
func NewClient(cfg Config, log *logger.Logger) *Client {
	if cfg.GetWhatsAppURL() == "" {
		return nil
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.GetWhatsAppURL(), "/"),
		apiKey:   cfg.GetWhatsAppKey(),
		deviceID: cfg.GetWhatsAppDeviceID(),
		phones:   phone.NewNormalizer(cfg.GetPhoneRegion()),
		http:     &http.Client{Timeout: 10 * time.Second},
		log:      log,
	}
}

// SendMessage posts message to the gateway for phoneNumber. The number is
// checked against the configured region and sent as E.164 digits without the
// leading plus.
func (c *Client) SendMessage(ctx context.Context, phoneNumber string, message string) error {
	if c == nil {
		return nil
	}
	if !c.phones.IsValid(phoneNumber) {
		return fmt.Errorf("%w: %q", ErrInvalidPhone, strings.TrimSpace(phoneNumber))
	}

	body, err := json.Marshal(sendMessageRequest{
		Phone:   strings.TrimPrefix(c.phones.NormalizeE164(phoneNumber), "+"),
		Message: message,
	})
	if err != nil {
		return fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send/message", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", basicAuth(c.apiKey))
	}
	if c.deviceID != "" {
		req.Header.Set("X-Device-Id", c.deviceID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("whatsapp gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.log.Info("whatsapp notification sent", "status", resp.StatusCode)
	return nil
}

// basicAuth accepts either "user:pass" or a ready "Basic ..." header value.
func basicAuth(apiKey string) string {
	if strings.HasPrefix(strings.ToLower(apiKey), "basic ") {
		return apiKey
	}
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(apiKey))
}
