package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Consent is the immutable record that a user accepted a given consent text.
// Only the hash of the text shown is kept.
type Consent struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Version    string    `json:"version"`
	TextHash   string    `json:"text_hash"`
	IPAddress  string    `json:"ip_address,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	AcceptedAt time.Time `json:"accepted_at"`
}

// ConsentDocument is the canonical consent text presented before registration.
type ConsentDocument struct {
	Version string `json:"version"`
	Text    string `json:"text"`
}

// CurrentConsent is the consent document served to new users.
var CurrentConsent = ConsentDocument{
	Version: "v1.0",
	Text: "Autorización informada para el tratamiento de datos de salud (v1.0)\n" +
		"• Finalidad: mejorar la atención y automanejo de ECNT.\n" +
		"• Datos: identificación y registros de salud proporcionados.\n" +
		"• Transferencias: solo equipo autorizado conforme a la ley.\n" +
		"• Seguridad: medidas técnicas/administrativas, acceso restringido.\n" +
		"• Derechos ARCO: acceso, rectificación, cancelación u oposición.\n" +
		"Al aceptar, confirmas que leíste y autorizas el tratamiento.",
}

// HashConsentText returns the lowercase hex SHA-256 of the exact text shown to the user.
func HashConsentText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
