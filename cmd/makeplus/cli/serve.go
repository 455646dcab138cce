package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/makeplus/makeplus-api/internal/server"
)

const banner = `
 __  __       _        _
|  \/  | __ _| | _____| |_ _ __  _   _ ___
| |\/| |/ _' | |/ / _ \ '_ \ '_ \| | | / __|
| |  | | (_| |   <  __/ |_) | |_) | |_| \__ \
|_|  |_|\__,_|_|\_\___| .__/| .__/ \__,_|___/
                      |_|   |_|
`

func newServeCmd(opts *options) *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Makeplus API server",
		Long:  "Start the HTTP server that exposes the public content, the contact form and the admin API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts, host, port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP listen port (overrides server.port)")
	cmd.Flags().StringVar(&host, "host", "", "HTTP listen host (overrides server.host)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *options, host string, port int) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	if host != "" {
		cfg.Server.Host = host
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.Logging, os.Stderr)
	ctx := cmd.Context()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()
	logger.Info("store initialized", "driver", st.Driver())

	authSvc, err := newAuthService(cfg, st, logger)
	if err != nil {
		return err
	}

	hasAdmin, err := st.HasAnyAdmin(ctx)
	if err != nil {
		logger.Warn("failed to check for admin", "error", err)
	}
	if !hasAdmin {
		logger.Warn("no admin account found - run: makeplus admin create --email <email> --role superadmin")
	}

	srv := server.New(cfg, server.Deps{
		Store:   st,
		Auth:    authSvc,
		Version: versionString(),
	}, logger)

	out := cmd.OutOrStdout()
	fmt.Fprint(out, banner)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "→ Makeplus %s (%s)\n", versionString(), cfg.Server.Environment)
	fmt.Fprintf(out, "→ Listening on http://%s\n", cfg.Addr())
	fmt.Fprintf(out, "→ OpenAPI:    http://%s/openapi.json\n", cfg.Addr())
	fmt.Fprintf(out, "→ Health:     http://%s/api/health\n", cfg.Addr())
	fmt.Fprintln(out)

	return srv.ListenAndServe()
}
