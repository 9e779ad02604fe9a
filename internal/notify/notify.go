// Package notify tells customers and operators about orders that need a human.
package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/nikolayk812/podstore/internal/domain"
	"github.com/nikolayk812/podstore/internal/port"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const senderName = "Storefront"

// mailSender is the part of the SendGrid client the notifier uses.
type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type SendGrid struct {
	client   mailSender
	from     string
	opsEmail string
}

var _ port.Notifier = (*SendGrid)(nil)

func NewSendGrid(apiKey, from, opsEmail string) (*SendGrid, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("sendgrid api key is empty")
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("from address is empty")
	}
	return &SendGrid{
		client:   sendgrid.NewSendClient(apiKey),
		from:     from,
		opsEmail: opsEmail,
	}, nil
}

func (s *SendGrid) ManualOrderPlaced(ctx context.Context, address domain.ShippingAddress, order domain.Order, total domain.Money) error {
	subject := fmt.Sprintf("Order %s received", order.ID)
	body := fmt.Sprintf(
		"Hi %s,\n\nwe received your order %s for %s.\nPayment instructions follow in a separate email; the order ships once payment arrives.\n",
		address.FirstName, order.ID, total,
	)
	return s.send(ctx, address.Email, subject, body)
}

func (s *SendGrid) FulfillmentPending(ctx context.Context, c domain.Checkout) error {
	if s.opsEmail == "" {
		log.Printf("[notify] no ops email configured, checkout=%s needs reconciliation", c.ID)
		return nil
	}
	subject := fmt.Sprintf("Reconciliation needed: checkout %s", c.ID)
	return s.send(ctx, s.opsEmail, subject, reconciliationBody(c))
}

func (s *SendGrid) send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("to address is empty")
	}

	message := mail.NewSingleEmail(
		mail.NewEmail(senderName, s.from),
		subject,
		mail.NewEmail("", to),
		body,
		fmt.Sprintf("<pre>%s</pre>", body),
	)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}

	if response.StatusCode >= 400 {
		log.Printf("[sendgrid] error status=%d, body=%s", response.StatusCode, response.Body)
		return fmt.Errorf("sendgrid send failed: status=%d", response.StatusCode)
	}

	log.Printf("[sendgrid] mail sent: status=%d to=%s subject=%s", response.StatusCode, to, subject)
	return nil
}

// Log writes notifications to the process log. Used when mail is not configured.
type Log struct{}

var _ port.Notifier = Log{}

func (Log) ManualOrderPlaced(_ context.Context, address domain.ShippingAddress, order domain.Order, total domain.Money) error {
	log.Printf("[notify] manual order placed order=%s email=%s total=%s", order.ID, address.Email, total)
	return nil
}

func (Log) FulfillmentPending(_ context.Context, c domain.Checkout) error {
	log.Printf("[notify] RECONCILIATION checkout=%s intent=%s total=%s reason=%q", c.ID, c.PaymentIntentID, c.Total, c.FailureReason)
	return nil
}

func reconciliationBody(c domain.Checkout) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Payment %s succeeded but the fulfillment order was not created.\n\n", c.PaymentIntentID)
	fmt.Fprintf(&b, "checkout: %s\ncustomer: %s %s <%s>\ntotal: %s\nreason: %s\n\nlines:\n",
		c.ID, c.Address.FirstName, c.Address.LastName, c.Address.Email, c.Total, c.FailureReason)
	for _, l := range c.Lines {
		fmt.Fprintf(&b, "  product=%s variant=%d qty=%d\n", l.ProviderProductID, l.VariantID, l.Quantity)
	}
	return b.String()
}
