package domain

import (
	"encoding/json"
)

// DefaultSizeKey é a chave usada no StockMap quando o produto não tem
// dimensão de talla mas a variante ainda controla estoque.
const DefaultSizeKey = "_default"

// StockMap mapeia talla -> contagem restante de uma variante.
// Um valor nil significa "sem controle" (ilimitado) para aquela talla.
type StockMap map[string]*int

// UnmarshalJSON decodifica o mapa de estoque defensivamente: entradas
// malformadas (não-inteiras ou negativas) são tratadas como ilimitadas
// em vez de derrubar a leitura do produto inteiro.
func (m *StockMap) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		// Mapa inteiro malformado: ilimitado.
		*m = nil
		return nil
	}

	out := make(StockMap, len(raw))
	for key, val := range raw {
		// Decodificar em *int distingue null (permanece nil) de 0.
		var n *int
		if err := json.Unmarshal(val, &n); err != nil || n == nil || *n < 0 {
			out[key] = nil
			continue
		}
		count := *n
		out[key] = &count
	}
	*m = out
	return nil
}

// StockValue é o resultado de uma consulta de disponibilidade:
// uma contagem numérica OU o sentinela "ilimitado".
type StockValue struct {
	Unlimited bool `json:"unlimited"`
	Count     int  `json:"count"`
}

// StockUnlimited é o sentinela para estoque sem controle.
var StockUnlimited = StockValue{Unlimited: true}

// StockCount cria um StockValue numérico.
func StockCount(n int) StockValue {
	return StockValue{Count: n}
}

// IsZero informa se o valor representa "esgotado" (0 rastreado).
func (s StockValue) IsZero() bool {
	return !s.Unlimited && s.Count == 0
}

// StockMode identifica o modo de disponibilidade de um produto.
// O modo é derivado uma única vez da forma dos dados ("alguma variante tem
// mapa de estoque?") e nunca misturado: no modo por variante o campo
// Product.Stock é completamente ignorado.
type StockMode int

const (
	// StockModeSimple controla o estoque pelo campo Product.Stock.
	StockModeSimple StockMode = iota
	// StockModePerVariant controla o estoque pelos StockMaps das variantes.
	StockModePerVariant
)

// Mode resolve o modo de disponibilidade do produto.
func (p Product) Mode() StockMode {
	for _, v := range p.Variants {
		if v.HasStockMap() {
			return StockModePerVariant
		}
	}
	return StockModeSimple
}

// sizeKey normaliza a talla consultada: produtos sem dimensão de talla
// usam a chave _default.
func (p Product) sizeKey(size string) string {
	if size == "" || len(p.Sizes) == 0 {
		return DefaultSizeKey
	}
	return size
}

// Availability responde "quanto resta de X" para uma combinação
// produto+variante+talla. Função pura, sem efeitos colaterais — usada
// tanto pela validação no checkout quanto pela UI da loja.
func (p Product) Availability(variantName, size string) StockValue {
	if p.Mode() == StockModePerVariant {
		variant, ok := p.FindVariant(variantName)
		if !ok || !variant.HasStockMap() {
			return StockUnlimited
		}
		count, tracked := variant.Stock[p.sizeKey(size)]
		if !tracked || count == nil || *count < 0 {
			return StockUnlimited
		}
		return StockCount(*count)
	}

	if p.Stock == nil {
		return StockUnlimited
	}
	return StockCount(*p.Stock)
}

// TotalStock soma o estoque rastreado do produto, para banners do tipo
// "só restam N". Entradas nil contribuem 0 para a soma sem tornar o total
// ilimitado; um produto sem nenhum mapa de estoque é ilimitado.
func (p Product) TotalStock() StockValue {
	if p.Mode() == StockModePerVariant {
		total := 0
		for _, v := range p.Variants {
			for _, count := range v.Stock {
				if count != nil && *count > 0 {
					total += *count
				}
			}
		}
		return StockCount(total)
	}

	if p.Stock == nil {
		return StockUnlimited
	}
	return StockCount(*p.Stock)
}

// OutOfStock informa se o produto inteiro está esgotado.
// No modo por variante: true apenas se toda variante COM mapa tem todas as
// entradas exatamente em 0 — uma variante sem mapa é ilimitada e portanto
// impede o esgotamento do produto. No modo simples: true sse Stock == 0.
func (p Product) OutOfStock() bool {
	if p.Mode() == StockModePerVariant {
		for _, v := range p.Variants {
			if !v.HasStockMap() {
				return false
			}
			for _, count := range v.Stock {
				if count == nil || *count != 0 {
					return false
				}
			}
		}
		return true
	}

	return p.Stock != nil && *p.Stock == 0
}

// ClampDecrement aplica uma baixa com piso em zero: o contador nunca fica
// negativo, independentemente da quantidade pedida.
func ClampDecrement(current, quantity int) int {
	if quantity >= current {
		return 0
	}
	return current - quantity
}

// InsufficientStock descreve uma linha do carrinho cuja quantidade pedida
// excede a disponibilidade. É dado estruturado (não exceção): o checkout
// devolve TODAS as falhas de uma vez para a UI da loja.
// @Description Linha do carrinho com estoque insuficiente.
type InsufficientStock struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	VariantName string `json:"variant_name,omitempty"`
	Size        string `json:"size,omitempty"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

// OrderLine é uma linha de pedido, tanto no carrinho enviado ao checkout
// quanto nas linhas confirmadas recebidas do gateway de pagamento.
// ProductID é o identificador estável; Name é apenas exibição (e fallback
// de resolução para sessões antigas sem metadados de ID).
type OrderLine struct {
	ProductID   string `json:"product_id"`
	Name        string `json:"name"`
	VariantName string `json:"variant,omitempty"`
	Size        string `json:"size,omitempty"`
	Quantity    int    `json:"quantity"`
	Price       int    `json:"price"` // Unitário, em pesos inteiros
}
