package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/makeplus/makeplus-api/internal/model"
)

// testConfig writes a config file pointing at a fresh sqlite database and
// returns its path.
func testConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "makeplus.yaml")
	body := "server:\n  environment: test\n" +
		"database:\n  driver: sqlite\n  dsn: " + filepath.Join(dir, "makeplus.db") + "\n" +
		"auth:\n  jwt_secret: cli-test-secret\n" +
		"logging:\n  level: error\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// run executes the root command with args and stdin, returning stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd("1.2.3", "abc123", "2026-01-01")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "missing.env")))
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := run(t, stdin, args...)
	if err != nil {
		t.Fatalf("makeplus %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func listAdmins(t *testing.T, cfg string) []model.Admin {
	t.Helper()
	var admins []model.Admin
	out := mustRun(t, "", "admin", "list", "--json", "--config", cfg)
	if err := json.Unmarshal([]byte(out), &admins); err != nil {
		t.Fatalf("decode admin list: %v\n%s", err, out)
	}
	return admins
}

func TestVersion(t *testing.T) {
	out := mustRun(t, "", "version", "--json")
	var info buildInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Version != "1.2.3" || info.Commit != "abc123" || info.Built != "2026-01-01" {
		t.Errorf("info = %+v", info)
	}

	out = mustRun(t, "", "version")
	if !strings.HasPrefix(out, "makeplus 1.2.3\n") {
		t.Errorf("text output = %q", out)
	}
}

func TestAdminLifecycle(t *testing.T) {
	cfg := testConfig(t)

	if out := mustRun(t, "", "admin", "list", "--config", cfg); !strings.Contains(out, "No admin users") {
		t.Errorf("empty list output = %q", out)
	}

	out := mustRun(t, "correct horse battery\n",
		"admin", "create", "--email", " Root@Makeplus.test ", "--name", "Root", "--role", "superadmin", "--config", cfg)
	if !strings.Contains(out, `superadmin "root@makeplus.test"`) {
		t.Errorf("create output = %q", out)
	}
	mustRun(t, "", "admin", "create", "--email", "editor@makeplus.test", "--password", "editor-password", "--config", cfg)

	admins := listAdmins(t, cfg)
	if len(admins) != 2 {
		t.Fatalf("admins = %d, want 2", len(admins))
	}
	byEmail := map[string]model.Admin{}
	for _, a := range admins {
		byEmail[a.Email] = a
	}
	editor := byEmail["editor@makeplus.test"]
	if editor.Role != model.RoleAdmin || editor.Name != "editor" || !editor.IsActive {
		t.Errorf("editor = %+v, want active admin named editor", editor)
	}
	if byEmail["root@makeplus.test"].Role != model.RoleSuperAdmin {
		t.Errorf("root role = %q", byEmail["root@makeplus.test"].Role)
	}

	mustRun(t, "", "admin", "deactivate", "editor@makeplus.test", "--config", cfg)
	for _, a := range listAdmins(t, cfg) {
		if a.Email == "editor@makeplus.test" && a.IsActive {
			t.Error("editor still active after deactivate")
		}
	}

	mustRun(t, "", "admin", "activate", strconv.FormatInt(editor.ID, 10), "--config", cfg)
	for _, a := range listAdmins(t, cfg) {
		if a.Email == "editor@makeplus.test" && !a.IsActive {
			t.Error("editor still inactive after activate")
		}
	}

	out = mustRun(t, "a-brand-new-password\n", "admin", "passwd", "editor@makeplus.test", "--config", cfg)
	if !strings.Contains(out, "Password updated") {
		t.Errorf("passwd output = %q", out)
	}

	text := mustRun(t, "", "admin", "ls", "--config", cfg)
	if !strings.Contains(text, "editor@makeplus.test") || !strings.Contains(text, "never") {
		t.Errorf("table output = %q", text)
	}
}

func TestAdminCreateRejects(t *testing.T) {
	cfg := testConfig(t)
	mustRun(t, "", "admin", "create", "--email", "root@makeplus.test", "--password", "supersecret", "--config", cfg)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad email", []string{"--email", "not-an-email", "--password", "supersecret"}, "invalid email"},
		{"bad role", []string{"--email", "x@makeplus.test", "--password", "supersecret", "--role", "owner"}, "invalid role"},
		{"short password", []string{"--email", "x@makeplus.test", "--password", "short"}, "at least 8"},
		{"duplicate", []string{"--email", "ROOT@makeplus.test", "--password", "supersecret"}, "already exists"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"admin", "create", "--config", cfg}, tt.args...)
			_, err := run(t, "", args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestAdminUnknown(t *testing.T) {
	cfg := testConfig(t)
	for _, ref := range []string{"ghost@makeplus.test", "42"} {
		_, err := run(t, "", "admin", "deactivate", ref, "--config", cfg)
		if err == nil || !strings.Contains(err.Error(), "not found") {
			t.Errorf("deactivate %s: err = %v, want not found", ref, err)
		}
	}
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "makeplus.yaml")

	mustRun(t, "", "config", "init", "-o", path)
	if _, err := run(t, "", "config", "init", "-o", path); err == nil {
		t.Error("second init without --force should fail")
	}
	mustRun(t, "", "config", "init", "-o", path, "--force")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "rate_limit:") {
		t.Errorf("written config lacks rate_limit section:\n%s", data)
	}

	out := mustRun(t, "", "config", "show", "--config", testConfig(t))
	if strings.Contains(out, "cli-test-secret") {
		t.Error("config show leaks the jwt secret")
	}
	if !strings.Contains(out, "jwt_secret: '********'") && !strings.Contains(out, `jwt_secret: "********"`) {
		t.Errorf("jwt secret not redacted:\n%s", out)
	}
}

func TestConfigRejectsMissingSecretOutsideDevelopment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "makeplus.yaml")
	body := "server:\n  environment: production\ndatabase:\n  driver: sqlite\n  dsn: " + filepath.Join(dir, "db") + "\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MAKEPLUS_AUTH_JWT_SECRET", "")
	t.Setenv("JWT_SECRET", "")

	_, err := run(t, "", "admin", "list", "--config", path)
	if err == nil || !strings.Contains(err.Error(), "jwt_secret") {
		t.Errorf("err = %v, want jwt_secret error", err)
	}

	// --dev switches to the development environment, where a random
	// secret is generated instead.
	if _, err := run(t, "", "admin", "list", "--config", path, "--dev"); err != nil {
		t.Errorf("--dev: %v", err)
	}
}

func TestOpenAPICommand(t *testing.T) {
	out := mustRun(t, "", "openapi", "--server", "https://api.makeplus.test")
	var doc struct {
		OpenAPI string `json:"openapi"`
		Info    struct {
			Version string `json:"version"`
		} `json:"info"`
		Servers []struct {
			URL string `json:"url"`
		} `json:"servers"`
		Paths map[string]any `json:"paths"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.OpenAPI != "3.1.0" {
		t.Errorf("openapi = %q", doc.OpenAPI)
	}
	if len(doc.Servers) != 1 || doc.Servers[0].URL != "https://api.makeplus.test" {
		t.Errorf("servers = %+v", doc.Servers)
	}
	if _, ok := doc.Paths["/api/admin/login"]; !ok {
		t.Error("login path missing")
	}

	file := filepath.Join(t.TempDir(), "openapi.json")
	mustRun(t, "", "openapi", "-o", file)
	if _, err := os.Stat(file); err != nil {
		t.Errorf("output file: %v", err)
	}
}

func TestMCPRejectsUnknownTransport(t *testing.T) {
	_, err := run(t, "", "mcp", "--transport", "sse")
	if err == nil || !strings.Contains(err.Error(), "unsupported transport") {
		t.Errorf("err = %v", err)
	}
}
