package sessiontool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"driver-portal/internal/cli"
	"driver-portal/internal/domain/auth"
	"driver-portal/internal/general/config"
	"driver-portal/internal/general/jwt"
	"driver-portal/internal/general/logger"
)

// Run prints the session stored for deviceID, or clears it when clearSession is set.
// Nothing is sent to the backend.
func Run(ctx context.Context, configPath, deviceID string, clearSession bool, out io.Writer) error {
	logger := logger.New("portal-session")
	logger.SetOutput(os.Stderr)

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}
	logger.SetLevel(cfg.Log.Level)

	stores, err := cli.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "session_store_failed", "Failed to open session store", err, map[string]any{"driver": cfg.Store.Driver})
		return err
	}
	defer stores.Close()

	store := stores.ForDevice(deviceID)

	if clearSession {
		if err := store.Clear(ctx); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		fmt.Fprintf(out, "Oturum silindi (%s)\n", deviceID)
		return nil
	}

	sess, err := store.Get(ctx)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}

	fmt.Fprintf(out, "Cihaz:   %s (%s)\n", deviceID, cfg.Store.Driver)
	fmt.Fprintf(out, "Şehir:   %s\n", orDash(sess.City))
	fmt.Fprintf(out, "Telefon: %s\n", orDash(auth.MaskPhone(sess.Phone)))

	info, err := jwt.Peek(sess.Token)
	switch {
	case errors.Is(err, jwt.ErrEmptyToken):
		fmt.Fprintln(out, "Oturum:  yok")
		return nil
	case err != nil:
		return err
	case info.Opaque:
		fmt.Fprintln(out, "Oturum:  var (opak anahtar)")
		return nil
	}

	fmt.Fprintln(out, "Oturum:  var (JWT)")
	if info.Subject != "" {
		fmt.Fprintf(out, "Sürücü:  %s\n", info.Subject)
	}
	if !info.IssuedAt.IsZero() {
		fmt.Fprintf(out, "Verildi: %s\n", info.IssuedAt.Format(time.RFC3339))
	}
	if !info.ExpiresAt.IsZero() {
		state := "geçerli"
		if info.Expired(time.Now()) {
			state = "süresi dolmuş"
		}
		fmt.Fprintf(out, "Bitiş:   %s (%s)\n", info.ExpiresAt.Format(time.RFC3339), state)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
