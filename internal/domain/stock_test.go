package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"legado/internal/domain"
)

func intPtr(n int) *int { return &n }

// playera tem tallas rastreadas na variante Negra: CH=2, M=0, G=null.
func playera() domain.Product {
	return domain.Product{
		ID:    "prod-playera",
		Name:  "Playera Oficial",
		Price: 100,
		Sizes: []string{"CH", "M", "G"},
		Variants: []domain.Variant{
			{Name: "Negra", Stock: domain.StockMap{"CH": intPtr(2), "M": intPtr(0), "G": nil}},
			{Name: "Blanca"},
		},
	}
}

func TestAvailability_PerVariantSizes(t *testing.T) {
	p := playera()

	assert.Equal(t, domain.StockCount(2), p.Availability("Negra", "CH"))
	assert.Equal(t, domain.StockCount(0), p.Availability("Negra", "M"))
	assert.True(t, p.Availability("Negra", "M").IsZero())
	// Valor null e chave ausente são ilimitados.
	assert.Equal(t, domain.StockUnlimited, p.Availability("Negra", "G"))
	assert.Equal(t, domain.StockUnlimited, p.Availability("Negra", "XL"))
	// Variante sem mapa é ilimitada inteira.
	assert.Equal(t, domain.StockUnlimited, p.Availability("Blanca", "M"))
}

func TestAvailability_DefaultSizeKey(t *testing.T) {
	// Produto sem dimensão de talla mas com estoque rastreado na variante.
	mochila := domain.Product{
		ID:   "prod-mochila",
		Name: "Mochila Legado",
		Variants: []domain.Variant{
			{Name: "Café", Stock: domain.StockMap{domain.DefaultSizeKey: intPtr(4)}},
		},
	}

	assert.Equal(t, domain.StockCount(4), mochila.Availability("Café", ""))
}

func TestAvailability_SimpleMode(t *testing.T) {
	gorra := domain.Product{ID: "prod-gorra", Name: "Gorra Legado", Stock: intPtr(3)}
	assert.Equal(t, domain.StockCount(3), gorra.Availability("", ""))

	sinControl := domain.Product{ID: "prod-maleta", Name: "Maleta de Viaje"}
	assert.Equal(t, domain.StockUnlimited, sinControl.Availability("", ""))
}

// TestMode_VariantMapWinsOverSimpleField garante que os modos nunca se
// misturam: com qualquer variante rastreando estoque, o campo simples é
// completamente ignorado.
func TestMode_VariantMapWinsOverSimpleField(t *testing.T) {
	p := playera()
	p.Stock = intPtr(99)

	assert.Equal(t, domain.StockModePerVariant, p.Mode())
	assert.Equal(t, domain.StockCount(2), p.Availability("Negra", "CH"))
	assert.Equal(t, domain.StockCount(2), p.TotalStock())
}

func TestTotalStock(t *testing.T) {
	p := playera()
	// CH=2 soma; M=0 e G=null contribuem 0 sem tornar o total ilimitado.
	assert.Equal(t, domain.StockCount(2), p.TotalStock())

	sinMapas := domain.Product{Name: "Maleta de Viaje"}
	assert.Equal(t, domain.StockUnlimited, sinMapas.TotalStock())

	simples := domain.Product{Name: "Gorra Legado", Stock: intPtr(7)}
	assert.Equal(t, domain.StockCount(7), simples.TotalStock())
}

func TestOutOfStock(t *testing.T) {
	// A variante Blanca sem mapa é ilimitada: produto nunca esgota.
	assert.False(t, playera().OutOfStock())

	agotado := domain.Product{
		Sizes: []string{"CH", "M"},
		Variants: []domain.Variant{
			{Name: "Negra", Stock: domain.StockMap{"CH": intPtr(0), "M": intPtr(0)}},
		},
	}
	assert.True(t, agotado.OutOfStock())

	// Uma talla null impede o esgotamento.
	agotado.Variants[0].Stock["G"] = nil
	assert.False(t, agotado.OutOfStock())

	assert.True(t, domain.Product{Stock: intPtr(0)}.OutOfStock())
	assert.False(t, domain.Product{Stock: intPtr(1)}.OutOfStock())
	assert.False(t, domain.Product{}.OutOfStock()) // ilimitado nunca esgota
}

func TestClampDecrement(t *testing.T) {
	assert.Equal(t, 3, domain.ClampDecrement(5, 2))
	assert.Equal(t, 0, domain.ClampDecrement(2, 2))
	assert.Equal(t, 0, domain.ClampDecrement(1, 4)) // nunca negativo
	assert.Equal(t, 0, domain.ClampDecrement(0, 1)) // esgotado fica esgotado
}

// TestStockMap_UnmarshalDefensive trata entradas malformadas ou negativas
// como ilimitadas em vez de derrubar a leitura do produto.
func TestStockMap_UnmarshalDefensive(t *testing.T) {
	var m domain.StockMap
	err := json.Unmarshal([]byte(`{"CH": 2, "M": "dos", "G": -1, "XL": null}`), &m)

	assert.NoError(t, err)
	assert.Equal(t, intPtr(2), m["CH"])
	assert.Nil(t, m["M"])
	assert.Nil(t, m["G"])
	assert.Nil(t, m["XL"])

	var broken domain.StockMap
	err = json.Unmarshal([]byte(`"no es un mapa"`), &broken)
	assert.NoError(t, err)
	assert.Nil(t, broken)
}

// TestAvailability_NullEntryFromJSONIsUnlimited garante que uma talla com
// valor null no JSON persiste como "sem controle" depois da decodificação:
// nunca como contagem 0 (o que esgotaria uma talla rastreável).
func TestAvailability_NullEntryFromJSONIsUnlimited(t *testing.T) {
	var v domain.Variant
	err := json.Unmarshal([]byte(`{"name": "Negra", "stock": {"CH": 2, "G": null}}`), &v)
	assert.NoError(t, err)

	p := domain.Product{
		Name:     "Playera Oficial",
		Sizes:    []string{"CH", "M", "G"},
		Variants: []domain.Variant{v},
	}

	assert.Equal(t, domain.StockCount(2), p.Availability("Negra", "CH"))
	assert.Equal(t, domain.StockUnlimited, p.Availability("Negra", "G"))
	assert.False(t, p.OutOfStock())
}

func TestHasStockMap_EmptyMapIsUnlimited(t *testing.T) {
	assert.False(t, domain.Variant{Name: "Negra"}.HasStockMap())
	assert.False(t, domain.Variant{Name: "Negra", Stock: domain.StockMap{}}.HasStockMap())
	assert.True(t, domain.Variant{Name: "Negra", Stock: domain.StockMap{"CH": nil}}.HasStockMap())
}
