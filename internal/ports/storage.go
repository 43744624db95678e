package ports

import (
	"context"
	"time"

	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/domain"
)

// Storage persiste cuentas, canales, slots, stats de apuestas y settings.
type Storage interface {
	// GetAccounts devuelve las cuentas con el status dado.
	GetAccounts(ctx context.Context, status domain.AccountStatus) ([]domain.Account, error)

	// SaveAccount inserta o actualiza una cuenta y devuelve su ID.
	SaveAccount(ctx context.Context, account domain.Account) (int64, error)

	// UpdateAccountStatus cambia el estado del ciclo de vida de una cuenta.
	UpdateAccountStatus(ctx context.Context, accountID int64, status domain.AccountStatus) error

	// UpdateAccountTokens persiste el nuevo par de credenciales atómicamente.
	UpdateAccountTokens(ctx context.Context, accountID int64, accessToken, refreshToken string) error

	// AddAccountPoints suma delta al balance de puntos de la cuenta.
	AddAccountPoints(ctx context.Context, accountID int64, delta int64) error

	// DeleteAccount elimina la cuenta y cascada sus canales y slots.
	DeleteAccount(ctx context.Context, accountID int64) error

	// ImportChannels crea en bloque los canales seguidos de una cuenta.
	ImportChannels(ctx context.Context, accountID int64, channels []domain.FollowedChannel) error

	// GetChannels devuelve todos los canales seguidos de una cuenta.
	GetChannels(ctx context.Context, accountID int64) ([]domain.FollowedChannel, error)

	// UpdateChannelState actualiza live-status, juego y viewers de un canal.
	UpdateChannelState(ctx context.Context, accountID int64, channelID string, status domain.LiveStatus, game string, viewers int64) error

	// AddChannelPoints suma puntos a un canal y registra el momento del claim.
	AddChannelPoints(ctx context.Context, accountID int64, channelID string, delta int64, claimedAt time.Time) error

	// ReplaceSlots reemplaza atómicamente (delete-all + insert) los slots de
	// una cuenta. Ningún lector externo debe observar el set vacío a medias.
	ReplaceSlots(ctx context.Context, accountID int64, slots []domain.StreamSlot) error

	// GetSlots devuelve los slots vigentes de una cuenta.
	GetSlots(ctx context.Context, accountID int64) ([]domain.StreamSlot, error)

	// RecordBet añade una fila append-only al histórico de apuestas.
	RecordBet(ctx context.Context, stat domain.BettingStat) error

	// GetChannelBets devuelve el histórico de apuestas de un canal.
	GetChannelBets(ctx context.Context, channelID string) ([]domain.BettingStat, error)

	// GetSettings devuelve el mapa name→value completo.
	GetSettings(ctx context.Context) (map[string]string, error)

	// PutSetting hace upsert de una opción. El caller valida los bounds
	// antes de escribir.
	PutSetting(ctx context.Context, name, value string) error

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
