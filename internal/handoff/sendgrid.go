package handoff

import (
	"context"
	"fmt"
	"html"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"stockcart/internal/domain"
	"stockcart/internal/pkg/logger"
)

// MailSender é a parte do cliente SendGrid usada aqui.
type MailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// EmailConfig identifica remetente e caixa da loja.
type EmailConfig struct {
	From string
	To   string
}

// EmailNotifier envia o pedido por e-mail para a caixa da loja.
type EmailNotifier struct {
	sender MailSender
	cfg    EmailConfig
	logger logger.Logger
}

// NewSendGridNotifier cria o notificador com o cliente oficial.
func NewSendGridNotifier(apiKey string, cfg EmailConfig, log logger.Logger) *EmailNotifier {
	return NewEmailNotifier(sendgrid.NewSendClient(apiKey), cfg, log)
}

// NewEmailNotifier aceita qualquer MailSender (testes).
func NewEmailNotifier(sender MailSender, cfg EmailConfig, log logger.Logger) *EmailNotifier {
	return &EmailNotifier{sender: sender, cfg: cfg, logger: log}
}

func (n *EmailNotifier) Deliver(ctx context.Context, payload domain.HandoffPayload) error {
	if n.cfg.From == "" || n.cfg.To == "" {
		return fmt.Errorf("remetente ou destinatário do e-mail não configurado")
	}

	body := RenderText(payload)
	subject := fmt.Sprintf("Nuevo pedido: %s (%d productos)", payload.Total.StringFixed(2), payload.TotalUnits)
	message := mail.NewSingleEmail(
		mail.NewEmail("Tienda", n.cfg.From),
		subject,
		mail.NewEmail("", n.cfg.To),
		body,
		fmt.Sprintf("<pre>%s</pre>", html.EscapeString(body)),
	)

	resp, err := n.sender.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}

	n.logger.Debug("Pedido enviado por e-mail", map[string]interface{}{"status": resp.StatusCode, "to": n.cfg.To})
	return nil
}
