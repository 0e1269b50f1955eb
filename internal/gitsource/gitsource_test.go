package gitsource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/mendio-dev/mendio/pkg/shared/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestResolveSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.js")
	writeFile(t, path, "console.log('x');\n")

	f := NewFetcher(&config.Config{}, Credentials{}, hclog.NewNullLogger())
	sources, err := f.Resolve(path, "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(sources) != 1 || sources[0].Name != "app.js" {
		t.Fatalf("unexpected sources: %+v", sources)
	}
}

func TestResolveDirectoryWalksOnlySources(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "app.js"), "let a = 1;\n")
	writeFile(t, filepath.Join(dir, "src", "view.jsx"), "export default () => null;\n")
	writeFile(t, filepath.Join(dir, "src", "styles.css"), "body {}\n")
	writeFile(t, filepath.Join(dir, "node_modules", "dep", "index.js"), "module.exports = {};\n")
	writeFile(t, filepath.Join(dir, "package.json"), "{\"name\": \"demo\"}\n")
	writeFile(t, filepath.Join(dir, "README.md"), "# hi\n")

	f := NewFetcher(&config.Config{}, Credentials{}, hclog.NewNullLogger())
	sources, err := f.Resolve(dir, "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(sources) != 3 {
		t.Fatalf("expected 3 sources, got %d: %+v", len(sources), sources)
	}
	names := map[string]bool{}
	for _, s := range sources {
		names[s.Name] = true
	}
	if !names["src/app.js"] || !names["src/view.jsx"] || !names["package.json"] {
		t.Fatalf("unexpected source names: %+v", names)
	}
}

func TestResolveMissingTarget(t *testing.T) {
	f := NewFetcher(&config.Config{}, Credentials{}, hclog.NewNullLogger())
	if _, err := f.Resolve(filepath.Join(t.TempDir(), "nope.js"), ""); err == nil {
		t.Fatalf("expected an error for a missing target")
	}
}

func TestIsRemote(t *testing.T) {
	cases := []struct {
		target string
		want   bool
	}{
		{"https://github.com/acme/app", true},
		{"http://gitlab.local/g/p", true},
		{"git@github.com:acme/app.git", true},
		{"ssh://git@host/repo.git", true},
		{"./src/app.js", false},
		{"src", false},
		{"/abs/path/app.js", false},
	}
	for _, c := range cases {
		if got := IsRemote(c.target); got != c.want {
			t.Errorf("IsRemote(%q) = %v, want %v", c.target, got, c.want)
		}
	}
}

func TestAuthValidation(t *testing.T) {
	cfg := &config.Config{}
	cfg.GitClient.AuthType = "http"
	f := NewFetcher(cfg, Credentials{}, hclog.NewNullLogger())
	if _, err := f.auth(); err == nil {
		t.Fatalf("http auth without a token must fail")
	}

	cfg.GitClient.AuthType = "carrier-pigeon"
	if _, err := f.auth(); err == nil {
		t.Fatalf("unknown auth type must fail")
	}

	cfg.GitClient.AuthType = ""
	a, err := f.auth()
	if err != nil {
		t.Fatalf("anonymous auth failed: %v", err)
	}
	if a != nil {
		t.Fatalf("expected anonymous access without credentials, got %T", a)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	if got := expandHome("~/.ssh/id_rsa"); got != filepath.Join(home, ".ssh/id_rsa") {
		t.Fatalf("expandHome returned %q", got)
	}
	if got := expandHome("/etc/key"); got != "/etc/key" {
		t.Fatalf("absolute paths must pass through, got %q", got)
	}
}
