package domain

import (
	"time"
)

// Product representa o item principal do catálogo (a Entidade).
// O campo Price usa unidades inteiras de moeda (pesos MXN, sem centavos);
// a conversão para centavos acontece apenas na fronteira com o gateway de pagamento.
type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Description  string    `json:"description"`
	Price        int       `json:"price"`
	Image        string    `json:"image,omitempty"`
	Images       []string  `json:"images,omitempty"`
	Gradient     string    `json:"gradient,omitempty"`
	Sizes        []string  `json:"sizes"` // Sequência ordenada de tallas; vazia = produto sem dimensão de talla
	Stock        *int      `json:"stock"` // Estoque simples: nil = ilimitado, 0 = esgotado. Ignorado no modo por variante.
	Variants     []Variant `json:"variants"`
	IsActive     bool      `json:"is_active"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Variant representa uma variação de um Produto (e.g., cor "Negra").
// O controle de estoque por talla é feito pelo StockMap da variante.
type Variant struct {
	Name   string   `json:"name"`
	Color  string   `json:"color,omitempty"`
	Image  string   `json:"image,omitempty"`
	Images []string `json:"images,omitempty"`

	// Stock mapeia talla -> contagem restante. Mapa ausente (nil) = estoque
	// ilimitado para a variante inteira; chave ausente = ilimitado para
	// aquela talla; valor 0 = combinação variante+talla esgotada.
	Stock StockMap `json:"stock,omitempty"`
}

// HasStockMap informa se a variante carrega controle de estoque próprio.
// Um mapa presente porém vazio é tratado como ausente: não há nenhuma
// entrada rastreada, logo a variante é ilimitada.
func (v Variant) HasStockMap() bool {
	return len(v.Stock) > 0
}

// FindVariant localiza uma variante pelo nome (único dentro do produto).
func (p Product) FindVariant(name string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return Variant{}, false
}

// ProductFilter define os parâmetros de busca do catálogo público.
type ProductFilter struct {
	Category   string
	ActiveOnly bool
}
