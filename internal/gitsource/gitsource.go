// Package gitsource materializes analysis targets on the local disk. A
// target may be a file, a directory, or a remote repository URL; remote
// targets are shallow-cloned under the projects home and refreshed when
// fetched again.
package gitsource

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gitsight/go-vcsurl"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"github.com/hashicorp/go-hclog"
	crssh "golang.org/x/crypto/ssh"

	"github.com/mendio-dev/mendio/pkg/shared/config"
	"github.com/mendio-dev/mendio/pkg/shared/files"
)

// Git auth types accepted in git_client.auth_type.
const (
	AuthNone     = "none"
	AuthHTTP     = "http"
	AuthSSHKey   = "ssh-key"
	AuthSSHAgent = "ssh-agent"
)

// Credentials carries fetch secrets. They come from the environment, never
// from the config file.
type Credentials struct {
	Username       string
	Token          string
	SSHKeyPassword string
}

// CredentialsFromEnv reads fetch secrets from MENDIO_GIT_USERNAME,
// MENDIO_GIT_TOKEN and MENDIO_SSH_KEY_PASSWORD.
func CredentialsFromEnv() Credentials {
	return Credentials{
		Username:       os.Getenv("MENDIO_GIT_USERNAME"),
		Token:          os.Getenv("MENDIO_GIT_TOKEN"),
		SSHKeyPassword: os.Getenv("MENDIO_SSH_KEY_PASSWORD"),
	}
}

// Source is one resolved analysis input.
type Source struct {
	Path string // absolute or caller-relative path on disk
	Name string // display name, relative to the resolved root
}

// Fetcher resolves targets and clones remote ones.
type Fetcher struct {
	cfg    *config.Config
	creds  Credentials
	logger hclog.Logger
}

// NewFetcher builds a Fetcher from config and environment credentials.
func NewFetcher(cfg *config.Config, creds Credentials, logger hclog.Logger) *Fetcher {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Fetcher{cfg: cfg, creds: creds, logger: logger}
}

// Resolve turns a target argument into the list of JS/JSX sources to
// analyze. A remote URL is fetched first, a directory is walked, a single
// file is returned as is.
func (f *Fetcher) Resolve(target, branch string) ([]Source, error) {
	if IsRemote(target) {
		dir, err := f.Fetch(target, branch)
		if err != nil {
			return nil, err
		}
		return walkSources(dir)
	}

	st, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("unable to read target %q: %w", target, err)
	}
	if st.IsDir() {
		return walkSources(target)
	}
	return []Source{{Path: target, Name: filepath.Base(target)}}, nil
}

// IsRemote reports whether a target looks like a repository URL rather than
// a local path.
func IsRemote(target string) bool {
	return strings.HasPrefix(target, "http://") ||
		strings.HasPrefix(target, "https://") ||
		strings.HasPrefix(target, "ssh://") ||
		strings.HasPrefix(target, "git@")
}

// Fetch shallow-clones cloneURL under the projects home and returns the
// checkout path. An existing checkout is hard-reset and pulled instead of
// cloned again, so deleted files reappear and the tree moves to the remote
// tip.
func (f *Fetcher) Fetch(cloneURL, branch string) (string, error) {
	info, err := vcsurl.Parse(cloneURL)
	if err != nil {
		return "", fmt.Errorf("unable to parse clone URL %q: %w", cloneURL, err)
	}

	projectsHome := config.GetMendioProjectsHome(f.cfg)
	if err := files.CreateFolderIfNotExists(projectsHome); err != nil {
		return "", err
	}
	targetFolder := filepath.Join(projectsHome, info.ID)

	auth, err := f.auth()
	if err != nil {
		return "", err
	}

	// Progress from the git transport goes to the debug log.
	output := f.logger.StandardWriter(&hclog.StandardLoggerOptions{
		InferLevels: true,
		ForceLevel:  hclog.Debug,
	})

	depth := f.cfg.GitClient.Depth
	if depth <= 0 {
		depth = 1
	}
	cloneOptions := &git.CloneOptions{
		URL:      cloneURL,
		Auth:     auth,
		Progress: output,
		Depth:    depth,
	}
	pullOptions := &git.PullOptions{
		Auth:     auth,
		Progress: output,
		Depth:    depth,
	}
	if branch != "" {
		ref := plumbing.ReferenceName(fmt.Sprintf("refs/heads/%s", branch))
		cloneOptions.ReferenceName = ref
		pullOptions.ReferenceName = ref
	}

	f.logger.Debug("fetching repository", "repo", info.Name, "branch", branch, "targetFolder", targetFolder)
	_, err = git.PlainClone(targetFolder, false, cloneOptions)
	switch {
	case err == git.ErrRepositoryAlreadyExists:
		if err := f.refresh(targetFolder, pullOptions); err != nil {
			return "", err
		}
	case err != nil:
		return "", fmt.Errorf("unable to clone %q: %w", cloneURL, err)
	}

	f.logger.Info("fetch finished", "repo", info.Name, "branch", branch, "targetFolder", targetFolder)
	return targetFolder, nil
}

// refresh brings an existing checkout back to the remote tip.
func (f *Fetcher) refresh(targetFolder string, pullOptions *git.PullOptions) error {
	f.logger.Debug("checkout already on disk, refreshing", "targetFolder", targetFolder)

	r, err := git.PlainOpen(targetFolder)
	if err != nil {
		return fmt.Errorf("unable to open checkout %q: %w", targetFolder, err)
	}
	w, err := r.Worktree()
	if err != nil {
		return fmt.Errorf("unable to open worktree of %q: %w", targetFolder, err)
	}

	// Hard reset restores files deleted from the checkout between runs.
	if err := w.Reset(&git.ResetOptions{Mode: git.HardReset}); err != nil {
		return fmt.Errorf("unable to reset %q: %w", targetFolder, err)
	}
	if err := w.Pull(pullOptions); err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("unable to pull %q: %w", targetFolder, err)
	}
	return nil
}

// auth builds the transport auth method from git_client settings. With no
// auth type configured, HTTP basic auth is used when credentials are present
// and anonymous access otherwise.
func (f *Fetcher) auth() (transport.AuthMethod, error) {
	switch f.cfg.GitClient.AuthType {
	case "", AuthNone:
		if f.creds.Username != "" && f.creds.Token != "" {
			return &http.BasicAuth{Username: f.creds.Username, Password: f.creds.Token}, nil
		}
		return nil, nil
	case AuthHTTP:
		if f.creds.Token == "" {
			return nil, fmt.Errorf("http auth requires MENDIO_GIT_TOKEN")
		}
		return &http.BasicAuth{Username: f.creds.Username, Password: f.creds.Token}, nil
	case AuthSSHKey:
		keyPath := expandHome(f.cfg.GitClient.SSHKeyPath)
		if _, err := os.Stat(keyPath); err != nil {
			return nil, fmt.Errorf("unable to read ssh key %q: %w", keyPath, err)
		}
		pk, err := ssh.NewPublicKeysFromFile("git", keyPath, f.creds.SSHKeyPassword)
		if err != nil {
			return nil, fmt.Errorf("unable to load ssh key %q: %w", keyPath, err)
		}
		pk.HostKeyCallbackHelper = ssh.HostKeyCallbackHelper{
			HostKeyCallback: crssh.InsecureIgnoreHostKey(),
		}
		return pk, nil
	case AuthSSHAgent:
		pk, err := ssh.NewSSHAgentAuth("git")
		if err != nil {
			return nil, fmt.Errorf("unable to reach ssh agent: %w", err)
		}
		pk.HostKeyCallbackHelper = ssh.HostKeyCallbackHelper{
			HostKeyCallback: crssh.InsecureIgnoreHostKey(),
		}
		return pk, nil
	default:
		return nil, fmt.Errorf("unknown git auth type %q", f.cfg.GitClient.AuthType)
	}
}

// expandHome resolves a leading ~/ so ssh key paths like ~/.ssh/id_rsa work.
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// sourceExts are the file extensions treated as analyzable sources.
var sourceExts = map[string]bool{
	".js":  true,
	".jsx": true,
	".ts":  true,
	".tsx": true,
	".mjs": true,
	".cjs": true,
}

// includeNames are extension-less files worth scanning anyway; package
// manifests can carry injected install scripts.
var includeNames = map[string]bool{
	"package.json": true,
}

// skipDirs are directory names never descended into while walking a target.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"dist":         true,
	"build":        true,
}

func walkSources(root string) ([]Source, error) {
	var sources []Source
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access %q: %w", path, err)
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !sourceExts[strings.ToLower(filepath.Ext(d.Name()))] && !includeNames[d.Name()] {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = d.Name()
		}
		sources = append(sources, Source{Path: path, Name: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sources, nil
}
