package domain

import (
	"errors"
	"fmt"
)

// Errores sentinel de la taxonomía de fallos del cliente externo.
var (
	// ErrCircuitOpen se devuelve sin intentar la llamada cuando el breaker
	// del target sigue abierto. El caller lo interpreta como "saltar esta
	// cuenta en este tick".
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrRetriesExhausted se devuelve cuando todos los intentos fallaron sin
	// un error concreto que propagar.
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// APIError es una respuesta no exitosa que no se reintenta (p. ej. 401/404).
// El caller decide: un 401 dispara el refresh de credenciales aguas arriba.
type APIError struct {
	Target     string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %s: status %d", e.Target, e.StatusCode)
}

// IsAuthExpired devuelve true si err es una respuesta 401 de la API.
func IsAuthExpired(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 401
}
