package mailer

import (
	"context"
	"fmt"

	"pizza-shop/internal/config"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"
)

// Mailer sends the transactional emails the service needs. Implementations
// are best-effort collaborators: callers decide whether a failure matters.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, email, token string) error
	SendPasswordResetEmail(ctx context.Context, email, token string) error
	SendLowStockAlert(ctx context.Context, itemName string, stock, threshold int) error
	SendOrderStatusUpdate(ctx context.Context, email string, orderID uuid.UUID, status string) error
}

type smtpMailer struct {
	client      *mail.Client
	from        string
	adminEmail  string
	frontendURL string
}

// NewSMTPMailer builds a Mailer over an authenticated SMTP connection.
func NewSMTPMailer(cfg config.SMTPConfig, frontendURL string) (Mailer, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.User),
		mail.WithPassword(cfg.Password),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return &smtpMailer{
		client:      client,
		from:        cfg.From,
		adminEmail:  cfg.AdminEmail,
		frontendURL: frontendURL,
	}, nil
}

func (m *smtpMailer) send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (m *smtpMailer) SendVerificationEmail(ctx context.Context, email, token string) error {
	verificationURL := fmt.Sprintf("%s/verify-email/%s", m.frontendURL, token)
	body := fmt.Sprintf(`
		<h1>Email Verification</h1>
		<p>Please click the link below to verify your email address:</p>
		<a href="%s">Verify Email</a>
		<p>This link will expire in 30 minutes.</p>
		<p>If you didn't create an account, please ignore this email.</p>
	`, verificationURL)

	return m.send(ctx, email, "Email Verification - Pizza Ordering App", body)
}

func (m *smtpMailer) SendPasswordResetEmail(ctx context.Context, email, token string) error {
	resetURL := fmt.Sprintf("%s/reset-password/%s", m.frontendURL, token)
	body := fmt.Sprintf(`
		<h1>Password Reset</h1>
		<p>You requested a password reset. Please click the link below to reset your password:</p>
		<a href="%s">Reset Password</a>
		<p>This link will expire in 30 minutes.</p>
		<p>If you didn't request a password reset, please ignore this email.</p>
	`, resetURL)

	return m.send(ctx, email, "Password Reset - Pizza Ordering App", body)
}

func (m *smtpMailer) SendLowStockAlert(ctx context.Context, itemName string, stock, threshold int) error {
	body := fmt.Sprintf(`
		<h1>Low Stock Alert</h1>
		<p><strong>Item:</strong> %s</p>
		<p><strong>Current Stock:</strong> %d</p>
		<p><strong>Threshold:</strong> %d</p>
		<p>Please restock this item as soon as possible.</p>
	`, itemName, stock, threshold)

	return m.send(ctx, m.adminEmail, fmt.Sprintf("Low Stock Alert - %s", itemName), body)
}

func (m *smtpMailer) SendOrderStatusUpdate(ctx context.Context, email string, orderID uuid.UUID, status string) error {
	body := fmt.Sprintf(`
		<h1>Order Status Update</h1>
		<p>Your order #%s status has been updated to: <strong>%s</strong></p>
		<p>Thank you for choosing our pizza service!</p>
	`, orderID, status)

	return m.send(ctx, email, fmt.Sprintf("Order Status Update - Order #%s", orderID), body)
}
