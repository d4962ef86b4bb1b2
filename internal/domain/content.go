package domain

import "time"

// Seções e chaves conhecidas da tabela de conteúdo do site.
const (
	ContentSectionSettings = "settings"
	ContentKeyMaintenance  = "maintenance_mode"
)

// ContentEntry é um bloco de conteúdo editável do site, chaveado por
// (section, key). Inclui os ajustes globais, como o modo manutenção.
type ContentEntry struct {
	Section   string    `json:"section"`
	Key       string    `json:"key"`
	Content   string    `json:"content,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
