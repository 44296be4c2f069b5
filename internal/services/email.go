package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"

	"github.com/rpetrillo/spendsplit/internal/report"
)

// EmailService sends summary emails through the Azure Communication
// Services REST API.
type EmailService struct {
	endpoint   string
	cred       azcore.TokenCredential
	httpClient *http.Client
}

// NewEmailService builds a sender from COMMUNICATION_SERVICES_ENDPOINT.
// A nil credential defaults to managed identity.
func NewEmailService(cred azcore.TokenCredential) (*EmailService, error) {
	endpoint := os.Getenv("COMMUNICATION_SERVICES_ENDPOINT")
	if endpoint == "" {
		return nil, fmt.Errorf("COMMUNICATION_SERVICES_ENDPOINT environment variable is required")
	}

	if cred == nil {
		var err error
		cred, err = newTokenCredential()
		if err != nil {
			return nil, fmt.Errorf("failed to create azure credential: %w", err)
		}
	}

	return &EmailService{
		endpoint:   endpoint,
		cred:       cred,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type emailAddress struct {
	Address string `json:"address"`
}

type emailRecipients struct {
	To []emailAddress `json:"to"`
}

type emailContent struct {
	Subject   string `json:"subject"`
	HTML      string `json:"html"`
	PlainText string `json:"plainText,omitempty"`
}

type emailRequest struct {
	SenderAddress string          `json:"senderAddress"`
	Content       emailContent    `json:"content"`
	Recipients    emailRecipients `json:"recipients"`
}

// Send delivers a rendered email. An empty text body falls back to the HTML
// body. A provider rejection is a transport error that aborts the run.
func (s *EmailService) Send(ctx context.Context, email report.Email) error {
	token, err := s.cred.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{"https://communication.azure.com//.default"},
	})
	if err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}

	to := make([]emailAddress, len(email.Recipients))
	for i, addr := range email.Recipients {
		to[i] = emailAddress{Address: addr}
	}

	textBody := email.TextBody
	if textBody == "" {
		textBody = email.HTMLBody
	}

	body, err := json.Marshal(emailRequest{
		SenderAddress: email.Sender,
		Content: emailContent{
			Subject:   email.Subject,
			HTML:      email.HTMLBody,
			PlainText: textBody,
		},
		Recipients: emailRecipients{To: to},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	url := fmt.Sprintf("%s/emails:send?api-version=2023-03-31", s.endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token.Token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("email request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	slog.Info("email sent", "recipients", email.Recipients, "subject", email.Subject)
	return nil
}
