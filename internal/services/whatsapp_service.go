package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// WhatsAppService talks to a WhatsApp Business style HTTP API and
// implements the notifier.Gateway capability. Every call is bounded by
// the client timeout; a timeout is reported as a send failure.
type WhatsAppService struct {
	baseURL       string
	accessToken   string
	phoneNumberID string
	groupNumber   string
	client        *http.Client
	log           *logrus.Logger
}

func NewWhatsAppService(logger *logrus.Logger) *WhatsAppService {
	baseURL := os.Getenv("WHATSAPP_API_URL")
	if baseURL == "" {
		baseURL = "https://graph.facebook.com/v18.0"
	}

	return &WhatsAppService{
		baseURL:       baseURL,
		accessToken:   os.Getenv("WHATSAPP_ACCESS_TOKEN"),
		phoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
		groupNumber:   os.Getenv("WHATSAPP_GROUP_NUMBER"),
		client:        &http.Client{Timeout: 30 * time.Second},
		log:           logger,
	}
}

// GroupNumber returns the destination of the daily group broadcast.
func (s *WhatsAppService) GroupNumber() string {
	return s.groupNumber
}

// TestConnection verifies the credentials against the phone-number
// endpoint. Used as the pre-flight check before every batch.
func (s *WhatsAppService) TestConnection(ctx context.Context) bool {
	if s.accessToken == "" || s.phoneNumberID == "" {
		s.log.Warn("whatsapp credentials not configured")
		return false
	}

	url := fmt.Sprintf("%s/%s", s.baseURL, s.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+s.accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.WithError(err).Warn("whatsapp connection test failed")
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

type sendMessageRequest struct {
	MessagingProduct string      `json:"messaging_product"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Text             textPayload `json:"text"`
}

type textPayload struct {
	Body string `json:"body"`
}

type sendMessageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Send delivers one text message and returns the provider message id.
func (s *WhatsAppService) Send(ctx context.Context, to string, body string) (string, error) {
	if to == "" {
		return "", fmt.Errorf("empty destination number")
	}

	payload, err := json.Marshal(sendMessageRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             textPayload{Body: body},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", s.baseURL, s.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.accessToken)
	req.Header.Set("Content-Type", "application/json")
	// Client reference for correlating provider logs with the ledger.
	req.Header.Set("X-Client-Ref", uuid.NewString())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode whatsapp response: %w", err)
	}

	if resp.StatusCode >= 400 {
		if parsed.Error != nil {
			return "", fmt.Errorf("whatsapp API error %d: %s", parsed.Error.Code, parsed.Error.Message)
		}
		return "", fmt.Errorf("whatsapp API returned status %d", resp.StatusCode)
	}
	if len(parsed.Messages) == 0 {
		return "", fmt.Errorf("whatsapp response carried no message id")
	}

	return parsed.Messages[0].ID, nil
}
