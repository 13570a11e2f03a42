// Package sftpfs browses and transfers files on an SFTP server.
package sftpfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/vivekkundariya/opskit/internal/domain/credential"
	errUtils "github.com/vivekkundariya/opskit/internal/errors"
	"github.com/vivekkundariya/opskit/internal/ui"
)

const (
	DefaultPort    = 22
	ConnectTimeout = 30 * time.Second
)

// Config holds the resolved SFTP_* settings.
type Config struct {
	Host          string
	Port          int
	Username      string
	Password      string
	KeyFile       string
	KeyPassphrase string
	KnownHosts    string
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ConfigFromCredentials maps SFTP_* values. A password or a key file is
// required.
func ConfigFromCredentials(creds *credential.Resolved, home string) (Config, error) {
	cfg := Config{
		Host:          creds.Get("HOST"),
		Port:          DefaultPort,
		Username:      creds.Get("USERNAME"),
		Password:      creds.Get("PASSWORD"),
		KeyFile:       expandHome(creds.Get("KEY_FILE"), home),
		KeyPassphrase: creds.Get("KEY_PASSPHRASE"),
		KnownHosts:    expandHome(creds.GetOr("KNOWN_HOSTS", filepath.Join(home, ".ssh", "known_hosts")), home),
	}
	if p := creds.Get("PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return Config{}, fmt.Errorf("%w: PORT %q is not a number", errUtils.ErrInvalidConfig, p)
		}
		cfg.Port = port
	}
	if cfg.Password == "" && cfg.KeyFile == "" {
		return Config{}, errUtils.WithHints(
			fmt.Errorf("%w: no authentication method specified", errUtils.ErrInvalidConfig),
			"set SFTP_PASSWORD or SFTP_KEY_FILE in the credentials file",
		)
	}
	return cfg, nil
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

func authMethods(cfg Config) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod
	if cfg.KeyFile != "" {
		pem, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("%w: SSH key file not found: %s", errUtils.ErrInvalidConfig, cfg.KeyFile)
		}
		var signer ssh.Signer
		if cfg.KeyPassphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(pem, []byte(cfg.KeyPassphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(pem)
		}
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, errUtils.WithHints(
				fmt.Errorf("%w: SSH key is encrypted but no passphrase provided", errUtils.ErrInvalidConfig),
				"set SFTP_KEY_PASSPHRASE in the credentials file",
			)
		}
		if err != nil {
			return nil, errUtils.WithHints(
				fmt.Errorf("%w: could not load SSH key %s: %w", errUtils.ErrInvalidConfig, cfg.KeyFile, err),
				"supported formats: Ed25519, RSA, ECDSA",
			)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	if cfg.Password != "" {
		methods = append(methods, ssh.Password(cfg.Password))
	}
	return methods, nil
}

// HostKeyCallback checks against the known_hosts file when it exists and
// otherwise accepts any key with a warning.
func HostKeyCallback(path string) (ssh.HostKeyCallback, error) {
	if _, err := os.Stat(path); err == nil {
		cb, err := knownhosts.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read known hosts %s: %w", path, err)
		}
		return cb, nil
	}
	ui.Warnf("Known hosts file %s not found; host key will not be verified", path)
	return ssh.InsecureIgnoreHostKey(), nil
}

// Session is an open SSH connection with an SFTP subsystem.
type Session struct {
	ssh  *ssh.Client
	sftp *sftp.Client
}

// Dial connects and authenticates.
func Dial(ctx context.Context, cfg Config) (*Session, error) {
	auth, err := authMethods(cfg)
	if err != nil {
		return nil, err
	}
	hostKey, err := HostKeyCallback(cfg.KnownHosts)
	if err != nil {
		return nil, err
	}

	ui.Debug("Connecting to %s as %s", cfg.Addr(), cfg.Username)
	d := net.Dialer{Timeout: ConnectTimeout}
	conn, err := d.DialContext(ctx, "tcp", cfg.Addr())
	if err != nil {
		return nil, errUtils.WithHints(
			fmt.Errorf("could not connect to %s: %w", cfg.Addr(), err),
			"check the hostname and port, and ensure the server is reachable",
		)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, cfg.Addr(), &ssh.ClientConfig{
		User:            cfg.Username,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         ConnectTimeout,
	})
	if err != nil {
		conn.Close()
		var keyErr *knownhosts.KeyError
		if errors.As(err, &keyErr) {
			return nil, errUtils.WithHints(fmt.Errorf("host key verification failed: %w", err),
				"the server key does not match "+cfg.KnownHosts)
		}
		return nil, errUtils.WithHints(fmt.Errorf("SSH handshake failed: %w", err),
			"check your username and password/SSH key")
	}
	client := ssh.NewClient(sshConn, chans, reqs)

	sc, err := sftp.NewClient(client)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to start SFTP subsystem: %w", err)
	}
	return &Session{ssh: client, sftp: sc}, nil
}

// Close ends the SFTP and SSH sessions.
func (s *Session) Close() error {
	err := s.sftp.Close()
	if cerr := s.ssh.Close(); err == nil {
		err = cerr
	}
	return err
}

func (s *Session) ReadDir(p string) ([]os.FileInfo, error) { return s.sftp.ReadDir(p) }
func (s *Session) Stat(p string) (os.FileInfo, error)      { return s.sftp.Stat(p) }
func (s *Session) Lstat(p string) (os.FileInfo, error)     { return s.sftp.Lstat(p) }
func (s *Session) Remove(p string) error                   { return s.sftp.Remove(p) }
func (s *Session) Mkdir(p string) error                    { return s.sftp.Mkdir(p) }
func (s *Session) RemoveDirectory(p string) error          { return s.sftp.RemoveDirectory(p) }

func (s *Session) Open(p string) (io.ReadCloser, error) {
	f, err := s.sftp.Open(p)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Session) Create(p string) (io.WriteCloser, error) {
	f, err := s.sftp.Create(p)
	if err != nil {
		return nil, err
	}
	return f, nil
}
