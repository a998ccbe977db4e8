package services

import (
	"fmt"
	"os"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type EmailService struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewEmailService() *EmailService {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	fromEmail := os.Getenv("SENDGRID_NOTIFICATIONS_FROM_EMAIL")
	fromName := os.Getenv("SENDGRID_FROM_NAME")

	client := sendgrid.NewSendClient(apiKey)

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

// SendPasswordResetEmail sends a temporary password to a user who
// requested a reset.
func (s *EmailService) SendPasswordResetEmail(userEmail, userName, tempPassword string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(userName, userEmail)
	subject := "Meeting Manager password reset"
	plainContent := fmt.Sprintf("Hello %s, your temporary password is: %s\nPlease log in and change it immediately.", userName, tempPassword)
	htmlContent := fmt.Sprintf("<p>Hello %s,</p><p>Your temporary password is: <strong>%s</strong></p><p>Please log in and change it immediately.</p>", userName, tempPassword)

	message := mail.NewSingleEmail(from, subject, to, plainContent, htmlContent)
	response, err := s.client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send reset email to %s: %d", userEmail, response.StatusCode)
	}
	return nil
}
