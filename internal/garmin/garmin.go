// Package garmin implementa el cliente hacia Garmin Connect: restauración de
// sesión desde el blob de tokens, getters por métrica/fecha sobre la Connect
// API, y el handshake de login en dos fases (login → ok | MFA; resume con
// código). El protocolo del vendor es plomería fina: acá no hay lógica de
// negocio, solo transporte.
package garmin

import (
	"errors"
	"fmt"
)

// URLs base por región. Garmin China usa dominios propios.
const (
	apiBase   = "https://connectapi.garmin.com"
	apiBaseCN = "https://connectapi.garmin.cn"
	ssoBase   = "https://sso.garmin.com/sso"
	ssoBaseCN = "https://sso.garmin.cn/sso"
)

// AuthError indica que el vendor rechazó las credenciales o la sesión.
// El mensaje del vendor se conserva para reportarlo al caller.
type AuthError struct {
	Msg string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("garmin: auth rejected: %s", e.Msg)
}

// IsAuthError reporta si err (o su cadena) es un rechazo de auth del vendor.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// ErrMFARequired la devuelve Login cuando Garmin exige segundo factor.
// El estado resumible viaja por separado.
var ErrMFARequired = errors.New("garmin: mfa required")
