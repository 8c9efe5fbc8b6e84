package garmin

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// TokenStore es el blob de sesión que el servicio entrega al backend
// principal tras un login exitoso y recibe de vuelta en cada fetch. Viaja
// opaco (base64 de este JSON); solo este paquete lo interpreta.
type TokenStore struct {
	OAuth2 OAuth2Token `json:"oauth2_token"`
}

type OAuth2Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
}

// Expired reporta si el access token ya venció (con 1 minuto de margen).
func (t OAuth2Token) Expired() bool {
	if t.ExpiresAt == 0 {
		return false
	}
	return time.Now().Add(time.Minute).Unix() >= t.ExpiresAt
}

// EncodeTokens serializa el TokenStore al blob opaco.
func EncodeTokens(ts TokenStore) (string, error) {
	b, err := json.Marshal(ts)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// DecodeTokens abre el blob opaco. Un blob ilegible cuenta como sesión
// inválida (AuthError), no como error interno.
func DecodeTokens(blob string) (TokenStore, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return TokenStore{}, &AuthError{Msg: fmt.Sprintf("token blob no es base64: %v", err)}
	}
	var ts TokenStore
	if err := json.Unmarshal(raw, &ts); err != nil {
		return TokenStore{}, &AuthError{Msg: fmt.Sprintf("token blob ilegible: %v", err)}
	}
	if ts.OAuth2.AccessToken == "" {
		return TokenStore{}, &AuthError{Msg: "token blob sin access token"}
	}
	return ts, nil
}
