package postgres

import (
	"context"
	"fmt"

	"driver-portal/internal/domain/session"
	"driver-portal/internal/ports"
)

// SessionStore keeps one device's session keys in portal_session_kv. Every
// method runs in its own transaction through the unit of work, or joins the
// caller's transaction when one is already in ctx.
type SessionStore struct {
	uow      ports.UnitOfWork
	deviceID string
}

// NewSessionStore constructs a SessionStore for deviceID.
func NewSessionStore(uow ports.UnitOfWork, deviceID string) *SessionStore {
	return &SessionStore{uow: uow, deviceID: deviceID}
}

// Get reads all keys of the device; missing keys read as "".
func (s *SessionStore) Get(ctx context.Context) (session.Session, error) {
	values := make(map[string]string, 3)

	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		tx, err := MustTxFromContext(ctx)
		if err != nil {
			return err
		}

		rows, err := tx.Query(ctx, `
			SELECT key, value
			FROM portal_session_kv
			WHERE device_id = $1
		`, s.deviceID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var k, v string
			if err := rows.Scan(&k, &v); err != nil {
				return err
			}
			values[k] = v
		}
		return rows.Err()
	})
	if err != nil {
		return session.Session{}, fmt.Errorf("load session: %w", err)
	}

	return session.FromValues(values), nil
}

// Save replaces every key of the device in one transaction.
func (s *SessionStore) Save(ctx context.Context, sess session.Session) error {
	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		tx, err := MustTxFromContext(ctx)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM portal_session_kv WHERE device_id = $1`, s.deviceID); err != nil {
			return err
		}

		for _, k := range session.Keys() {
			v := sess.Values()[k]
			if v == "" {
				continue
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO portal_session_kv (device_id, key, value, updated_at)
				VALUES ($1, $2, $3, now())
			`, s.deviceID, k, v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Clear deletes every key of the device.
func (s *SessionStore) Clear(ctx context.Context) error {
	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		tx, err := MustTxFromContext(ctx)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `DELETE FROM portal_session_kv WHERE device_id = $1`, s.deviceID)
		return err
	})
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
