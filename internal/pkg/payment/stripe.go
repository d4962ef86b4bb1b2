package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"

	"legado/internal/domain"
)

// MetadataItemsKey é a chave de metadados da sessão onde o carrinho completo
// (incluindo os IDs estáveis de produto/variante) viaja de ida e volta pelo
// gateway. É daqui que a baixa de estoque resolve as linhas compradas, em vez
// de re-derivar produtos a partir de nomes de exibição.
const MetadataItemsKey = "items"

// ShippingOption é uma opção de envio apresentada no checkout.
type ShippingOption struct {
	Name   string
	Amount int // Em pesos inteiros; convertido para centavos na fronteira
}

// SessionRequest agrupa tudo que o gateway precisa para abrir uma sessão
// de pagamento. Os preços das linhas já vêm resolvidos (incluindo preços
// internos) pela camada de serviço.
type SessionRequest struct {
	Lines    []domain.OrderLine
	Shipping []ShippingOption
}

// Session identifica a sessão criada no gateway.
type Session struct {
	ID  string `json:"sessionId"`
	URL string `json:"url,omitempty"`
}

// SessionResult é o estado de uma sessão consultada após o checkout.
type SessionResult struct {
	ID            string
	Paid          bool
	CustomerName  string
	CustomerEmail string
	ShippingAddr  string
	Total         int // Em pesos inteiros
	Shipping      int // Em pesos inteiros
	Lines         []domain.OrderLine
}

// Event é um evento de pagamento recebido via webhook, já verificado.
// Completed indica checkout.session.completed; os demais tipos chegam com
// Completed=false e são apenas registrados.
type Event struct {
	Type      string
	SessionID string
	Completed bool
	Lines     []domain.OrderLine
	Customer  string
	Email     string
}

// Gateway define o contrato com o processador de pagamentos.
// O protocolo de sessão/webhook do gateway é uma caixa-preta: a aplicação
// só depende dos campos expostos aqui.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (Session, error)
	RetrieveSession(ctx context.Context, sessionID string) (SessionResult, error)
	ParseWebhook(payload []byte, signature string) (Event, error)
}

// StripeGateway é a implementação concreta da interface Gateway usando o
// SDK oficial do Stripe (Checkout Sessions + webhooks assinados).
type StripeGateway struct {
	webhookSecret string
	baseURL       string
}

// NewStripeGateway configura o SDK e retorna o gateway.
func NewStripeGateway(secretKey, webhookSecret, baseURL string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{
		webhookSecret: webhookSecret,
		baseURL:       baseURL,
	}
}

// CreateSession abre uma sessão de Stripe Checkout com as linhas do carrinho.
// O carrinho inteiro (com IDs estáveis) é serializado nos metadados da sessão
// para que o webhook de confirmação consiga aplicar a baixa de estoque.
func (g *StripeGateway) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Lines))
	for _, line := range req.Lines {
		item := &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String("mxn"),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Name),
					Metadata: map[string]string{
						"size": line.Size,
					},
				},
				// Stripe espera centavos
				UnitAmount: stripe.Int64(int64(line.Price) * 100),
			},
			Quantity: stripe.Int64(int64(line.Quantity)),
		}
		lineItems = append(lineItems, item)
	}

	shippingOptions := make([]*stripe.CheckoutSessionShippingOptionParams, 0, len(req.Shipping))
	for _, opt := range req.Shipping {
		shippingOptions = append(shippingOptions, &stripe.CheckoutSessionShippingOptionParams{
			ShippingRateData: &stripe.CheckoutSessionShippingOptionShippingRateDataParams{
				Type: stripe.String("fixed_amount"),
				FixedAmount: &stripe.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
					Amount:   stripe.Int64(int64(opt.Amount) * 100),
					Currency: stripe.String("mxn"),
				},
				DisplayName: stripe.String(opt.Name),
			},
		})
	}

	itemsJSON, err := json.Marshal(req.Lines)
	if err != nil {
		return Session{}, fmt.Errorf("falha ao serializar linhas do carrinho: %w", err)
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes:  stripe.StringSlice([]string{"card"}),
		LineItems:           lineItems,
		Mode:                stripe.String(string(stripe.CheckoutSessionModePayment)),
		AllowPromotionCodes: stripe.Bool(true),
		SuccessURL:          stripe.String(g.baseURL + "/success.html?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:           stripe.String(g.baseURL + "/productos.html"),
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice([]string{"MX"}),
		},
		ShippingOptions: shippingOptions,
	}
	params.Context = ctx
	params.AddMetadata(MetadataItemsKey, string(itemsJSON))

	s, err := session.New(params)
	if err != nil {
		return Session{}, fmt.Errorf("falha ao criar sessão de checkout: %w", err)
	}

	return Session{ID: s.ID, URL: s.URL}, nil
}

// RetrieveSession consulta o estado de uma sessão existente (usada pela
// página de sucesso para confirmar o pagamento e registrar o pedido).
func (g *StripeGateway) RetrieveSession(ctx context.Context, sessionID string) (SessionResult, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("line_items")
	params.AddExpand("customer")

	s, err := session.Get(sessionID, params)
	if err != nil {
		return SessionResult{}, fmt.Errorf("falha ao consultar sessão %s: %w", sessionID, err)
	}

	result := SessionResult{
		ID:    s.ID,
		Paid:  s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Lines: linesFromMetadata(s.Metadata),
	}

	if s.AmountTotal > 0 {
		result.Total = int(s.AmountTotal / 100)
	}
	if s.TotalDetails != nil {
		result.Shipping = int(s.TotalDetails.AmountShipping / 100)
	}
	if s.CustomerDetails != nil {
		result.CustomerName = s.CustomerDetails.Name
		result.CustomerEmail = s.CustomerDetails.Email
	}
	if s.ShippingDetails != nil && s.ShippingDetails.Address != nil {
		result.ShippingAddr = formatAddress(s.ShippingDetails.Address)
	} else if s.CustomerDetails != nil && s.CustomerDetails.Address != nil {
		result.ShippingAddr = formatAddress(s.CustomerDetails.Address)
	}

	return result, nil
}

// ParseWebhook verifica a assinatura do webhook e traduz o evento para o
// formato interno. Um payload com assinatura inválida é rejeitado aqui,
// antes de qualquer efeito colateral.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return Event{}, fmt.Errorf("assinatura do webhook inválida: %w", err)
	}

	parsed := Event{Type: string(event.Type)}

	if event.Type != "checkout.session.completed" {
		return parsed, nil
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return Event{}, fmt.Errorf("falha ao decodificar sessão do evento: %w", err)
	}

	parsed.Completed = true
	parsed.SessionID = s.ID
	parsed.Lines = linesFromMetadata(s.Metadata)
	if s.CustomerDetails != nil {
		parsed.Customer = s.CustomerDetails.Name
		parsed.Email = s.CustomerDetails.Email
	}

	return parsed, nil
}

// linesFromMetadata recupera as linhas do carrinho gravadas nos metadados
// da sessão. Metadados ausentes ou malformados resultam em lista vazia;
// o chamador decide como registrar isso.
func linesFromMetadata(metadata map[string]string) []domain.OrderLine {
	raw, ok := metadata[MetadataItemsKey]
	if !ok || raw == "" {
		return nil
	}

	var lines []domain.OrderLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil
	}
	return lines
}

func formatAddress(addr *stripe.Address) string {
	out := addr.Line1
	if addr.Line2 != "" {
		out += ", " + addr.Line2
	}
	if addr.City != "" {
		out += ", " + addr.City
	}
	if addr.State != "" {
		out += ", " + addr.State
	}
	if addr.PostalCode != "" {
		out += ", CP " + addr.PostalCode
	}
	if addr.Country != "" {
		out += ", " + addr.Country
	}
	return out
}
