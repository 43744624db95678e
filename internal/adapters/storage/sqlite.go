package storage

// sqlite.go — persistencia relacional del miner.
//
// Estrategia:
//   - `accounts` / `channels`: estado duradero, upsert por clave natural.
//   - `stream_slots`: efímeros por diseño — DELETE + INSERT en una sola
//     transacción por tick, nadie observa el set vacío a medias.
//   - `betting_stats`: append-only; el perfil de riesgo se deriva al leer,
//     nunca se almacena.
//   - `settings`: name→value con UPSERT; los bounds se validan antes de
//     llegar aquí.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    username      TEXT    NOT NULL UNIQUE,
    access_token  TEXT    NOT NULL DEFAULT '',
    refresh_token TEXT    NOT NULL DEFAULT '',
    status        TEXT    NOT NULL DEFAULT 'idle',
    points        INTEGER NOT NULL DEFAULT 0,
    created_at    DATETIME NOT NULL,
    updated_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS channels (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id    INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    channel_id    TEXT    NOT NULL,
    name          TEXT    NOT NULL,
    status        TEXT    NOT NULL DEFAULT 'offline',
    game          TEXT    NOT NULL DEFAULT '',
    viewer_count  INTEGER NOT NULL DEFAULT 0,
    points        INTEGER NOT NULL DEFAULT 0,
    last_claim_at DATETIME,
    UNIQUE(account_id, channel_id)
);

CREATE TABLE IF NOT EXISTS stream_slots (
    id          TEXT    PRIMARY KEY,
    account_id  INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    channel_id  TEXT    NOT NULL,
    class       TEXT    NOT NULL,
    assigned_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS betting_stats (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id INTEGER NOT NULL,
    channel_id TEXT    NOT NULL,
    stake      INTEGER NOT NULL,
    outcome    TEXT    NOT NULL,
    strategy   TEXT    NOT NULL DEFAULT '',
    delta      INTEGER NOT NULL DEFAULT 0,
    settled_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    name  TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_channels_account ON channels(account_id);
CREATE INDEX IF NOT EXISTS idx_slots_account    ON stream_slots(account_id);
CREATE INDEX IF NOT EXISTS idx_bets_channel     ON betting_stats(channel_id);
`

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica
// el schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// GetAccounts devuelve las cuentas con el status dado.
func (s *SQLiteStorage) GetAccounts(ctx context.Context, status domain.AccountStatus) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, access_token, refresh_token, status, points, created_at, updated_at
		FROM accounts
		WHERE status = ?
		ORDER BY id
	`, string(status))
	if err != nil {
		return nil, fmt.Errorf("storage.GetAccounts: query: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var a domain.Account
		var st string
		if err := rows.Scan(&a.ID, &a.Username, &a.AccessToken, &a.RefreshToken, &st, &a.Points, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("storage.GetAccounts: scan: %w", err)
		}
		a.Status = domain.AccountStatus(st)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// SaveAccount inserta o actualiza una cuenta por username y devuelve su ID.
func (s *SQLiteStorage) SaveAccount(ctx context.Context, a domain.Account) (int64, error) {
	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (username, access_token, refresh_token, status, points, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			access_token  = excluded.access_token,
			refresh_token = excluded.refresh_token,
			status        = excluded.status,
			updated_at    = excluded.updated_at
	`, a.Username, a.AccessToken, a.RefreshToken, string(a.Status), a.Points, now, now); err != nil {
		return 0, fmt.Errorf("storage.SaveAccount: upsert %s: %w", a.Username, err)
	}

	// LastInsertId no es fiable tras un upsert que actualiza: resolvemos
	// siempre por username.
	var id int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT id FROM accounts WHERE username = ?`, a.Username,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("storage.SaveAccount: resolve id: %w", err)
	}
	return id, nil
}

// UpdateAccountStatus cambia el estado del ciclo de vida de una cuenta.
func (s *SQLiteStorage) UpdateAccountStatus(ctx context.Context, accountID int64, status domain.AccountStatus) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), accountID,
	); err != nil {
		return fmt.Errorf("storage.UpdateAccountStatus: %w", err)
	}
	return nil
}

// UpdateAccountTokens persiste el nuevo par de credenciales en un solo UPDATE.
// Si refreshToken está vacío (el servidor no lo rotó) se conserva el actual.
func (s *SQLiteStorage) UpdateAccountTokens(ctx context.Context, accountID int64, accessToken, refreshToken string) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE accounts
		SET access_token  = ?,
		    refresh_token = CASE WHEN ? = '' THEN refresh_token ELSE ? END,
		    updated_at    = ?
		WHERE id = ?
	`, accessToken, refreshToken, refreshToken, time.Now().UTC(), accountID); err != nil {
		return fmt.Errorf("storage.UpdateAccountTokens: %w", err)
	}
	return nil
}

// AddAccountPoints suma delta al balance de puntos de la cuenta.
func (s *SQLiteStorage) AddAccountPoints(ctx context.Context, accountID int64, delta int64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET points = points + ?, updated_at = ? WHERE id = ?`,
		delta, time.Now().UTC(), accountID,
	); err != nil {
		return fmt.Errorf("storage.AddAccountPoints: %w", err)
	}
	return nil
}

// DeleteAccount elimina la cuenta; channels y slots caen por cascada.
func (s *SQLiteStorage) DeleteAccount(ctx context.Context, accountID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, accountID); err != nil {
		return fmt.Errorf("storage.DeleteAccount: %w", err)
	}
	return nil
}

// ImportChannels crea en bloque los canales seguidos de una cuenta.
// Los que ya existen se conservan con su estado actual.
func (s *SQLiteStorage) ImportChannels(ctx context.Context, accountID int64, channels []domain.FollowedChannel) error {
	if len(channels) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.ImportChannels: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO channels (account_id, channel_id, name, status, game, viewer_count, points)
		VALUES (?, ?, ?, 'offline', '', 0, 0)
		ON CONFLICT(account_id, channel_id) DO UPDATE SET name = excluded.name
	`)
	if err != nil {
		return fmt.Errorf("storage.ImportChannels: prepare: %w", err)
	}
	defer stmt.Close()

	for _, ch := range channels {
		if _, err := stmt.ExecContext(ctx, accountID, ch.ChannelID, ch.Name); err != nil {
			return fmt.Errorf("storage.ImportChannels: insert %s: %w", ch.ChannelID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.ImportChannels: commit: %w", err)
	}
	return nil
}

// GetChannels devuelve todos los canales seguidos de una cuenta, en orden de
// vinculación. El allocator depende de que este orden sea estable.
func (s *SQLiteStorage) GetChannels(ctx context.Context, accountID int64) ([]domain.FollowedChannel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, channel_id, name, status, game, viewer_count, points, last_claim_at
		FROM channels
		WHERE account_id = ?
		ORDER BY id
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("storage.GetChannels: query: %w", err)
	}
	defer rows.Close()

	var channels []domain.FollowedChannel
	for rows.Next() {
		var ch domain.FollowedChannel
		var st string
		var lastClaim sql.NullTime
		if err := rows.Scan(&ch.ID, &ch.AccountID, &ch.ChannelID, &ch.Name, &st, &ch.Game, &ch.ViewerCount, &ch.Points, &lastClaim); err != nil {
			return nil, fmt.Errorf("storage.GetChannels: scan: %w", err)
		}
		ch.Status = domain.LiveStatus(st)
		if lastClaim.Valid {
			ch.LastClaimAt = lastClaim.Time
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// UpdateChannelState actualiza live-status, juego y viewers de un canal.
func (s *SQLiteStorage) UpdateChannelState(ctx context.Context, accountID int64, channelID string, status domain.LiveStatus, game string, viewers int64) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE channels SET status = ?, game = ?, viewer_count = ?
		WHERE account_id = ? AND channel_id = ?
	`, string(status), game, viewers, accountID, channelID); err != nil {
		return fmt.Errorf("storage.UpdateChannelState: %s: %w", channelID, err)
	}
	return nil
}

// AddChannelPoints suma puntos al canal y registra el momento del claim.
func (s *SQLiteStorage) AddChannelPoints(ctx context.Context, accountID int64, channelID string, delta int64, claimedAt time.Time) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE channels SET points = points + ?, last_claim_at = ?
		WHERE account_id = ? AND channel_id = ?
	`, delta, claimedAt.UTC(), accountID, channelID); err != nil {
		return fmt.Errorf("storage.AddChannelPoints: %s: %w", channelID, err)
	}
	return nil
}

// ReplaceSlots reemplaza atómicamente los slots de una cuenta: DELETE +
// INSERTs dentro de la misma transacción.
func (s *SQLiteStorage) ReplaceSlots(ctx context.Context, accountID int64, slots []domain.StreamSlot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.ReplaceSlots: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM stream_slots WHERE account_id = ?`, accountID); err != nil {
		return fmt.Errorf("storage.ReplaceSlots: clear: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stream_slots (id, account_id, channel_id, class, assigned_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.ReplaceSlots: prepare: %w", err)
	}
	defer stmt.Close()

	for _, slot := range slots {
		if _, err := stmt.ExecContext(ctx, slot.ID, slot.AccountID, slot.ChannelID, string(slot.Class), slot.AssignedAt.UTC()); err != nil {
			return fmt.Errorf("storage.ReplaceSlots: insert %s: %w", slot.ChannelID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.ReplaceSlots: commit: %w", err)
	}
	return nil
}

// GetSlots devuelve los slots vigentes de una cuenta.
func (s *SQLiteStorage) GetSlots(ctx context.Context, accountID int64) ([]domain.StreamSlot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, channel_id, class, assigned_at
		FROM stream_slots
		WHERE account_id = ?
		ORDER BY class, assigned_at
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("storage.GetSlots: query: %w", err)
	}
	defer rows.Close()

	var slots []domain.StreamSlot
	for rows.Next() {
		var slot domain.StreamSlot
		var class string
		if err := rows.Scan(&slot.ID, &slot.AccountID, &slot.ChannelID, &class, &slot.AssignedAt); err != nil {
			return nil, fmt.Errorf("storage.GetSlots: scan: %w", err)
		}
		slot.Class = domain.SlotClass(class)
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// RecordBet añade una fila append-only al histórico de apuestas.
func (s *SQLiteStorage) RecordBet(ctx context.Context, stat domain.BettingStat) error {
	settledAt := stat.SettledAt
	if settledAt.IsZero() {
		settledAt = time.Now()
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO betting_stats (account_id, channel_id, stake, outcome, strategy, delta, settled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, stat.AccountID, stat.ChannelID, stat.Stake, string(stat.Outcome), stat.Strategy, stat.Delta, settledAt.UTC()); err != nil {
		return fmt.Errorf("storage.RecordBet: %w", err)
	}
	return nil
}

// GetChannelBets devuelve el histórico de apuestas de un canal, más antiguo
// primero.
func (s *SQLiteStorage) GetChannelBets(ctx context.Context, channelID string) ([]domain.BettingStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, channel_id, stake, outcome, strategy, delta, settled_at
		FROM betting_stats
		WHERE channel_id = ?
		ORDER BY id
	`, channelID)
	if err != nil {
		return nil, fmt.Errorf("storage.GetChannelBets: query: %w", err)
	}
	defer rows.Close()

	var stats []domain.BettingStat
	for rows.Next() {
		var st domain.BettingStat
		var outcome string
		if err := rows.Scan(&st.ID, &st.AccountID, &st.ChannelID, &st.Stake, &outcome, &st.Strategy, &st.Delta, &st.SettledAt); err != nil {
			return nil, fmt.Errorf("storage.GetChannelBets: scan: %w", err)
		}
		st.Outcome = domain.BetOutcome(outcome)
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// GetSettings devuelve el mapa name→value completo.
func (s *SQLiteStorage) GetSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("storage.GetSettings: query: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("storage.GetSettings: scan: %w", err)
		}
		values[name] = value
	}
	return values, rows.Err()
}

// PutSetting hace upsert de una opción.
func (s *SQLiteStorage) PutSetting(ctx context.Context, name, value string) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value
	`, name, value); err != nil {
		return fmt.Errorf("storage.PutSetting: %s: %w", name, err)
	}
	return nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
