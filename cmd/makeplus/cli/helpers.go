package cli

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/makeplus/makeplus-api/internal/config"
	"github.com/makeplus/makeplus-api/internal/model"
	"github.com/makeplus/makeplus-api/internal/service"
	"github.com/makeplus/makeplus-api/internal/store"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	configFile string
	envFile    string
	dev        bool
}

// load builds the effective configuration. --dev forces the development
// environment and debug logging over every other source.
func (o *options) load() (*config.Config, error) {
	v := viper.New()
	if o.dev {
		v.Set("server.environment", "development")
		v.Set("logging.level", "debug")
	}
	return config.Load(v, o.configFile, o.envFile)
}

// newLogger builds the process logger from the logging section.
func newLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openStore connects to the configured database and applies migrations.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store.Store, error) {
	st, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	logger.Debug("store opened", "driver", st.Driver())
	return st, nil
}

// newAuthService wires the token issuer and bcrypt hasher. Development runs
// without a configured secret get a random one, so sessions end on restart.
func newAuthService(cfg *config.Config, st *store.Store, logger *slog.Logger) (*service.AuthService, error) {
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		secret = hex.EncodeToString(buf)
		logger.Warn("auth.jwt_secret is not set; using a random secret, sessions end on restart")
	}
	tokens := service.NewTokenIssuer(secret, cfg.Auth.TokenTTL)
	return service.NewAuthService(st, tokens, service.NewBcryptHasher(), logger), nil
}

// readPassword prompts for a password on a terminal, or reads one line from
// the command input when it is not a terminal (scripts, tests).
func readPassword(cmd *cobra.Command, prompt string, confirm bool) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		if !confirm {
			return string(pw), nil
		}
		fmt.Fprint(cmd.ErrOrStderr(), "Confirm password: ")
		again, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read confirmation: %w", err)
		}
		if string(pw) != string(again) {
			return "", errors.New("passwords do not match")
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// findAdmin resolves an admin by numeric id or email.
func findAdmin(ctx context.Context, st *store.Store, ref string) (*model.Admin, error) {
	var (
		admin *model.Admin
		err   error
	)
	if id, perr := strconv.ParseInt(ref, 10, 64); perr == nil {
		admin, err = st.GetAdmin(ctx, id)
	} else {
		admin, err = st.GetAdminCredentials(ctx, ref)
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("admin %q not found", ref)
	}
	if err != nil {
		return nil, err
	}
	admin.PasswordHash = ""
	return admin, nil
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
