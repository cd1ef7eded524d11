// Package remote manages one authenticated FTPS connection to the remote
// store: directory-ensure and binary upload primitives with guaranteed
// close semantics.
package remote

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/psyger-labs/ftpferry/internal/model"
)

const dialTimeout = 30 * time.Second

// Conn is the subset of the FTP control connection the session drives.
// *ftp.ServerConn satisfies it; tests substitute a fake server.
type Conn interface {
	ChangeDir(path string) error
	MakeDir(path string) error
	Stor(name string, r io.Reader) error
	Quit() error
}

// Session is one authenticated connection. Sessions are owned by the call
// scope that opened them, never shared across sources, and closed exactly
// once per open.
type Session struct {
	conn Conn
	host string
}

// NewSession wraps an already-connected Conn.
func NewSession(conn Conn, host string) *Session {
	return &Session{conn: conn, host: host}
}

// Dial opens an explicit-TLS connection to cfg.Host (port 21 unless the
// host carries one) and authenticates. Data-channel protection is part of
// the TLS dial options.
func Dial(ctx context.Context, cfg model.RemoteConfig) (*Session, error) {
	addr := cfg.Host
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, "21")
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("remote: bad host %q: %w", cfg.Host, err)
	}

	log.Printf("remote: connecting to %s", addr)
	conn, err := ftp.Dial(addr,
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(dialTimeout),
		ftp.DialWithExplicitTLS(&tls.Config{ServerName: host}),
	)
	if err != nil {
		return nil, fmt.Errorf("remote: connect %s: %w", addr, err)
	}

	if err := conn.Login(cfg.User, cfg.Password); err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("remote: login %s@%s: %w", cfg.User, addr, err)
	}

	log.Printf("remote: connected to %s", addr)
	return &Session{conn: conn, host: addr}, nil
}

// EnsureDir navigates to path, creating missing segments from the root on
// the way and tolerating segments that already exist. Any navigation
// failure is taken to mean the path does not exist yet; a genuine
// permission problem on an existing tree therefore only surfaces from the
// create/re-navigate step, not from the first ChangeDir.
func (s *Session) EnsureDir(path string) error {
	if err := s.conn.ChangeDir(path); err == nil {
		log.Printf("remote: entered %s", path)
		return nil
	}

	current := "/"
	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		if seg == "" {
			continue
		}
		current += seg + "/"
		if err := s.conn.ChangeDir(current); err == nil {
			continue
		}
		// MakeDir may fail because the segment already exists; the
		// re-navigation below decides whether it is actually usable.
		_ = s.conn.MakeDir(current)
		if err := s.conn.ChangeDir(current); err != nil {
			return fmt.Errorf("remote: create %s: %w", current, err)
		}
	}
	log.Printf("remote: created and entered %s", path)
	return nil
}

// Upload streams r to name inside the current remote directory. EnsureDir
// must have succeeded on this session first.
func (s *Session) Upload(name string, r io.Reader) error {
	if err := s.conn.Stor(name, r); err != nil {
		return fmt.Errorf("remote: store %s: %w", name, err)
	}
	log.Printf("remote: uploaded %s", name)
	return nil
}

// Close ends the session with a graceful quit, falling back to dropping
// the connection when the quit fails. It deliberately reports nothing so
// teardown can never mask or replace a prior pipeline error.
func (s *Session) Close() {
	if err := s.conn.Quit(); err != nil {
		log.Printf("remote: warning: quit %s: %v (dropping connection)", s.host, err)
		if c, ok := s.conn.(io.Closer); ok {
			_ = c.Close()
		}
		return
	}
	log.Printf("remote: closed %s", s.host)
}
