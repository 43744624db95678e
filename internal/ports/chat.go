package ports

import "context"

// ChatGateway mantiene la sesión de chat de cada cuenta. La ingesta de
// mensajes y los eventos de bonus se consumen fuera del core; el scheduler
// solo necesita conectar cuentas en farming y desconectarlas al demotarlas.
type ChatGateway interface {
	// Connect abre la sesión de chat de la cuenta. Idempotente.
	Connect(ctx context.Context, accountID int64, username, accessToken string) error

	// Disconnect cierra la sesión de chat de la cuenta si existe.
	Disconnect(accountID int64)

	// Close cierra todas las sesiones abiertas.
	Close()
}
