package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/makeplus/makeplus-api/internal/model"
	"github.com/makeplus/makeplus-api/internal/service"
	"github.com/makeplus/makeplus-api/internal/store"
)

func newAdminCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin users",
		Long:  "Create, list, enable and disable the accounts that can sign in to the Makeplus dashboard.",
	}

	cmd.AddCommand(newAdminCreateCmd(opts))
	cmd.AddCommand(newAdminListCmd(opts))
	cmd.AddCommand(newAdminActiveCmd(opts, "activate", true))
	cmd.AddCommand(newAdminActiveCmd(opts, "deactivate", false))
	cmd.AddCommand(newAdminPasswdCmd(opts))

	return cmd
}

// adminEnv is an opened store and auth service for one admin command.
type adminEnv struct {
	st   *store.Store
	auth *service.AuthService
}

func openAdminEnv(cmd *cobra.Command, opts *options) (*adminEnv, error) {
	cfg, err := opts.load()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Logging, cmd.ErrOrStderr())
	st, err := openStore(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, err
	}
	auth, err := newAuthService(cfg, st, logger)
	if err != nil {
		st.Close()
		return nil, err
	}
	return &adminEnv{st: st, auth: auth}, nil
}

// ---------- admin create ----------

func newAdminCreateCmd(opts *options) *cobra.Command {
	var (
		email    string
		password string
		name     string
		role     string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new admin user",
		Example: `  makeplus admin create --email admin@makeplus.fr --name "Site Admin" --role superadmin
  makeplus admin create --email editor@makeplus.fr --name Editor  # prompts for password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminCreate(cmd, opts, email, password, name, model.Role(role))
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (prompted if omitted)")
	cmd.Flags().StringVar(&name, "name", "", "Admin display name")
	cmd.Flags().StringVar(&role, "role", string(model.RoleAdmin), "Role: admin or superadmin")
	cmd.MarkFlagRequired("email")

	return cmd
}

func runAdminCreate(cmd *cobra.Command, opts *options, email, password, name string, role model.Role) error {
	if !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email address: %q", email)
	}
	if !role.Valid() {
		return fmt.Errorf("invalid role %q: use admin or superadmin", role)
	}
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	if password == "" {
		pw, err := readPassword(cmd, "Password: ", true)
		if err != nil {
			return err
		}
		password = pw
	}
	if len(password) < service.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", service.MinPasswordLength)
	}

	env, err := openAdminEnv(cmd, opts)
	if err != nil {
		return err
	}
	defer env.st.Close()

	admin, err := env.auth.CreateAdmin(cmd.Context(), email, name, password, role)
	if errors.Is(err, store.ErrConflict) {
		return fmt.Errorf("an admin with email %q already exists", strings.ToLower(email))
	}
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s %q (id %d)\n", admin.Role, admin.Email, admin.ID)
	return nil
}

// ---------- admin list ----------

func newAdminListCmd(opts *options) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all admin users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminList(cmd, opts, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runAdminList(cmd *cobra.Command, opts *options, jsonOutput bool) error {
	env, err := openAdminEnv(cmd, opts)
	if err != nil {
		return err
	}
	defer env.st.Close()

	admins, err := env.st.ListAdmins(cmd.Context())
	if err != nil {
		return fmt.Errorf("list admins: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(admins)
	}

	if len(admins) == 0 {
		fmt.Fprintln(out, "No admin users configured. Use 'makeplus admin create' to create one.")
		return nil
	}
	printAdmins(out, admins)
	return nil
}

func printAdmins(out io.Writer, admins []model.Admin) {
	fmt.Fprintf(out, "%-6s %-30s %-24s %-11s %-7s %s\n", "ID", "EMAIL", "NAME", "ROLE", "ACTIVE", "LAST LOGIN")
	fmt.Fprintf(out, "%-6s %-30s %-24s %-11s %-7s %s\n", "--", "-----", "----", "----", "------", "----------")
	for _, a := range admins {
		active := "yes"
		if !a.IsActive {
			active = "no"
		}
		last := "never"
		if a.LastLoginAt != nil {
			last = a.LastLoginAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(out, "%-6d %-30s %-24s %-11s %-7s %s\n", a.ID, a.Email, a.Name, a.Role, active, last)
	}
}

// ---------- admin activate / deactivate ----------

func newAdminActiveCmd(opts *options, use string, active bool) *cobra.Command {
	short := "Re-enable a disabled admin user"
	if !active {
		short = "Disable an admin user; their sessions stop working immediately"
	}
	return &cobra.Command{
		Use:   use + " <email|id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openAdminEnv(cmd, opts)
			if err != nil {
				return err
			}
			defer env.st.Close()

			admin, err := findAdmin(cmd.Context(), env.st, args[0])
			if err != nil {
				return err
			}
			if err := env.auth.SetActive(cmd.Context(), admin.ID, active); err != nil {
				return fmt.Errorf("%s admin: %w", use, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Admin %q %sd\n", admin.Email, use)
			return nil
		},
	}
}

// ---------- admin passwd ----------

func newAdminPasswdCmd(opts *options) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "passwd <email|id>",
		Short: "Reset an admin user's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				pw, err := readPassword(cmd, "New password: ", true)
				if err != nil {
					return err
				}
				password = pw
			}

			env, err := openAdminEnv(cmd, opts)
			if err != nil {
				return err
			}
			defer env.st.Close()

			admin, err := findAdmin(cmd.Context(), env.st, args[0])
			if err != nil {
				return err
			}
			if err := env.auth.SetPassword(cmd.Context(), admin.ID, password); err != nil {
				return fmt.Errorf("reset password: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %q\n", admin.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "New password (prompted if omitted)")

	return cmd
}
