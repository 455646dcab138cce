package cli

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mpmcp "github.com/makeplus/makeplus-api/internal/mcp"
)

func newMCPCmd(opts *options) *cobra.Command {
	var (
		transport string
		addr      string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server that lets an operator's AI agent
browse contact submissions and site content, and triage submissions by status.

In stdio mode, the MCP server communicates over stdin/stdout using JSON-RPC,
suitable for desktop MCP clients. In HTTP mode it serves the streamable HTTP
transport on --addr at /mcp; every HTTP request needs an admin session token
(Authorization: Bearer <token>), which requires auth.jwt_secret to be set.
Logs always go to stderr.`,
		Example: `  makeplus mcp                                  # stdio mode
  makeplus mcp --transport http --addr :3001   # streamable HTTP`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(cmd, opts, transport, addr)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport mode: stdio or http")
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:3001", "Listen address (only used with --transport http)")

	return cmd
}

func runMCP(cmd *cobra.Command, opts *options, transport, addr string) error {
	if transport != "stdio" && transport != "http" {
		return fmt.Errorf("unsupported transport %q; use 'stdio' or 'http'", transport)
	}

	cfg, err := opts.load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging, cmd.ErrOrStderr())

	st, err := openStore(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	mcpSrv := mpmcp.NewMCPServer(st, versionString(), logger)

	if transport == "http" {
		if cfg.Auth.JWTSecret == "" {
			return errors.New("auth.jwt_secret must be set to serve MCP over HTTP")
		}
		authSvc, err := newAuthService(cfg, st, logger)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return mcpSrv.ListenAndServe(ctx, addr, authSvc)
	}
	return mcpSrv.ServeStdio()
}
