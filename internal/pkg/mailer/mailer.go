package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"legado/internal/domain"
)

// Mailer define o contrato de envio de e-mails transacionais.
// O conteúdo dos templates não é responsabilidade desta camada: apenas um
// resumo simples do pedido é montado aqui.
type Mailer interface {
	SendOrderConfirmation(order domain.Order) error
}

// SMTPConfig agrupa as credenciais de conexão SMTP.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// SMTPMailer é a implementação concreta da interface Mailer via SMTP.
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer cria uma nova instância do mailer.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// SendOrderConfirmation envia o resumo do pedido para o cliente.
func (m *SMTPMailer) SendOrderConfirmation(order domain.Order) error {
	if order.CustomerEmail == "" {
		return fmt.Errorf("pedido %s sem e-mail de cliente", order.ID)
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Hola %s,\r\n\r\n", order.CustomerName)
	fmt.Fprintf(&body, "Recibimos tu pedido %s. Resumen:\r\n\r\n", order.ID)
	for _, line := range order.Lines {
		label := line.Name
		if line.Size != "" {
			label += " - Talla: " + line.Size
		}
		if line.VariantName != "" {
			label += " - Color: " + line.VariantName
		}
		fmt.Fprintf(&body, "  %d x %s ($%d MXN c/u)\r\n", line.Quantity, label, line.Price)
	}
	fmt.Fprintf(&body, "\r\nEnvío: $%d MXN\r\nTotal: $%d MXN\r\n", order.Shipping, order.Total)
	fmt.Fprintf(&body, "\r\nGracias por tu compra.\r\n")

	msg := strings.Builder{}
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", m.cfg.FromName, m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", order.CustomerEmail)
	fmt.Fprintf(&msg, "Subject: Confirmación de pedido %s\r\n", order.ID)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	msg.WriteString(body.String())

	addr := m.cfg.Host + ":" + m.cfg.Port
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{order.CustomerEmail}, []byte(msg.String())); err != nil {
		return fmt.Errorf("falha ao enviar confirmação do pedido %s: %w", order.ID, err)
	}
	return nil
}

// NopMailer descarta os e-mails. Usado quando o SMTP não está configurado
// (desenvolvimento local): o registro do pedido nunca depende do e-mail.
type NopMailer struct{}

func (NopMailer) SendOrderConfirmation(order domain.Order) error { return nil }
