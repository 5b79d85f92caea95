package smbfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	smb2 "github.com/hirochachacha/go-smb2"

	"mytvlog/internal/catalog"
	"mytvlog/internal/logging"
)

// Options configures the SMB client.
type Options struct {
	Server      string
	Port        int
	Username    string
	Password    string
	Domain      string
	DialTimeout time.Duration
}

// Client is the SMB-backed FileStore. It holds one authenticated session to
// the configured server and mounts one share per root segment on demand. The
// session is health-checked with a share enumeration before use and redialed
// when it has gone stale. Share paths naming any other server are rejected.
type Client struct {
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	conn    net.Conn
	session *smb2.Session
	shares  map[string]*smb2.Share
}

// NewClient returns a client that dials lazily on first use.
func NewClient(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.Port == 0 {
		opts.Port = 445
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 10 * time.Second
	}
	return &Client{
		opts:   opts,
		logger: logger,
		shares: make(map[string]*smb2.Share),
	}
}

// Close logs off the session and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
	return nil
}

func (c *Client) teardownLocked() {
	for root, share := range c.shares {
		_ = share.Umount()
		delete(c.shares, root)
	}
	if c.session != nil {
		_ = c.session.Logoff()
		c.session = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) ensureSessionLocked(ctx context.Context) error {
	if c.session != nil {
		if _, err := c.session.ListSharenames(); err == nil {
			return nil
		}
		c.logger.Warn("smb session stale, redialing", logging.String("server", c.opts.Server))
		c.teardownLocked()
	}

	addr := net.JoinHostPort(c.opts.Server, strconv.Itoa(c.opts.Port))
	conn, err := net.DialTimeout("tcp", addr, c.opts.DialTimeout)
	if err != nil {
		return fmt.Errorf("dial smb server %s: %w", addr, err)
	}

	dialer := &smb2.Dialer{
		Initiator: &smb2.NTLMInitiator{
			User:     c.opts.Username,
			Password: c.opts.Password,
			Domain:   c.opts.Domain,
		},
	}
	session, err := dialer.DialContext(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("establish smb session with %s: %w", addr, err)
	}
	c.conn = conn
	c.session = session
	return nil
}

// share returns a mounted share for the given root segment.
func (c *Client) share(ctx context.Context, root string) (*smb2.Share, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureSessionLocked(ctx); err != nil {
		return nil, err
	}
	if share, ok := c.shares[root]; ok {
		return share, nil
	}
	share, err := c.session.Mount(root)
	if err != nil {
		return nil, fmt.Errorf("mount share %s: %w", root, err)
	}
	c.shares[root] = share
	return share, nil
}

func (c *Client) resolve(ctx context.Context, p string) (*smb2.Share, string, error) {
	server, root, rest, ok := catalog.SplitSharePath(p)
	if !ok {
		return nil, "", fmt.Errorf("not a share path: %s", p)
	}
	if err := c.checkServer(server, p); err != nil {
		return nil, "", err
	}
	share, err := c.share(ctx, root)
	if err != nil {
		return nil, "", err
	}
	return share, remoteName(rest), nil
}

// checkServer rejects paths that name a server other than the configured one.
func (c *Client) checkServer(server, p string) error {
	if !strings.EqualFold(server, c.opts.Server) {
		return fmt.Errorf("%s names server %s, client is configured for %s", p, server, c.opts.Server)
	}
	return nil
}

// remoteName converts a slash-delimited in-share path to the wire form.
func remoteName(rest string) string {
	return strings.ReplaceAll(rest, "/", `\`)
}

func isNotExist(err error) bool {
	return os.IsNotExist(err) || errors.Is(err, fs.ErrNotExist)
}

// FileSize returns the size of the file at p, or nil when it does not exist.
func (c *Client) FileSize(ctx context.Context, p string) (*int64, error) {
	share, name, err := c.resolve(ctx, p)
	if err != nil {
		return nil, err
	}
	info, err := share.WithContext(ctx).Stat(name)
	if isNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", p, err)
	}
	size := info.Size()
	return &size, nil
}

// Exists reports whether a file is present at p.
func (c *Client) Exists(ctx context.Context, p string) (bool, error) {
	size, err := c.FileSize(ctx, p)
	if err != nil {
		return false, err
	}
	return size != nil, nil
}

// MoveFiles relocates every file matching srcPattern into dstDir. Each file
// is copied, verified against the source size and modification time, and only
// then removed; an existing destination file aborts the move.
func (c *Client) MoveFiles(ctx context.Context, srcPattern, dstDir string) error {
	srcServer, srcRoot, srcRest, ok := catalog.SplitSharePath(srcPattern)
	if !ok {
		return fmt.Errorf("not a share path: %s", srcPattern)
	}
	dstServer, dstRoot, dstRest, ok := catalog.SplitSharePath(dstDir + "/")
	if !ok {
		return fmt.Errorf("not a share path: %s", dstDir)
	}
	dstRest = strings.TrimSuffix(dstRest, "/")
	if err := c.checkServer(srcServer, srcPattern); err != nil {
		return err
	}
	if err := c.checkServer(dstServer, dstDir); err != nil {
		return err
	}

	srcShare, err := c.share(ctx, srcRoot)
	if err != nil {
		return err
	}
	dstShare, err := c.share(ctx, dstRoot)
	if err != nil {
		return err
	}
	srcFS := srcShare.WithContext(ctx)
	dstFS := dstShare.WithContext(ctx)

	if dstRest != "" {
		if err := dstFS.MkdirAll(remoteName(dstRest), 0o755); err != nil {
			return fmt.Errorf("create destination directory %s: %w", dstDir, err)
		}
	}

	srcDir := catalog.ParentDir(srcRest)
	pattern := catalog.BaseName(srcRest)

	entries, err := srcFS.ReadDir(remoteName(srcDir))
	if err != nil {
		return fmt.Errorf("list source directory of %s: %w", srcPattern, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		matched, err := path.Match(pattern, entry.Name())
		if err != nil {
			return fmt.Errorf("bad pattern %s: %w", pattern, err)
		}
		if !matched {
			continue
		}

		srcName := remoteName(srcDir + "/" + entry.Name())
		dstName := entry.Name()
		if dstRest != "" {
			dstName = remoteName(dstRest + "/" + entry.Name())
		}

		if _, statErr := dstFS.Stat(dstName); statErr == nil {
			return fmt.Errorf("destination already exists: %s/%s", dstDir, entry.Name())
		} else if !isNotExist(statErr) {
			return fmt.Errorf("stat destination %s/%s: %w", dstDir, entry.Name(), statErr)
		}

		if err := copyVerified(srcFS, dstFS, srcName, dstName); err != nil {
			return fmt.Errorf("move %s: %w", entry.Name(), err)
		}
		if err := srcFS.Remove(srcName); err != nil {
			return fmt.Errorf("remove source %s: %w", entry.Name(), err)
		}
	}
	return nil
}

func copyVerified(srcFS, dstFS *smb2.Share, srcName, dstName string) error {
	src, err := srcFS.Open(srcName)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	dst, err := dstFS.Create(dstName)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("copy: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}

	srcInfo, err := srcFS.Stat(srcName)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if err := dstFS.Chtimes(dstName, time.Now(), srcInfo.ModTime()); err != nil {
		return fmt.Errorf("set destination times: %w", err)
	}
	dstInfo, err := dstFS.Stat(dstName)
	if err != nil {
		return fmt.Errorf("stat destination: %w", err)
	}
	if dstInfo.Size() != srcInfo.Size() || !dstInfo.ModTime().Equal(srcInfo.ModTime()) {
		return fmt.Errorf("size or mtime mismatch after copy")
	}
	return nil
}

// DeleteFiles removes every file matching pattern. A missing source
// directory counts as nothing to delete.
func (c *Client) DeleteFiles(ctx context.Context, pattern string) (bool, error) {
	server, root, rest, ok := catalog.SplitSharePath(pattern)
	if !ok {
		return false, fmt.Errorf("not a share path: %s", pattern)
	}
	if err := c.checkServer(server, pattern); err != nil {
		return false, err
	}
	share, err := c.share(ctx, root)
	if err != nil {
		return false, err
	}
	shareFS := share.WithContext(ctx)

	dir := catalog.ParentDir(rest)
	base := catalog.BaseName(rest)

	entries, err := shareFS.ReadDir(remoteName(dir))
	if isNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("list directory of %s: %w", pattern, err)
	}

	deleted := false
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		matched, err := path.Match(base, entry.Name())
		if err != nil {
			return deleted, fmt.Errorf("bad pattern %s: %w", base, err)
		}
		if !matched {
			continue
		}
		if err := shareFS.Remove(remoteName(dir + "/" + entry.Name())); err != nil {
			return deleted, fmt.Errorf("remove %s: %w", entry.Name(), err)
		}
		deleted = true
	}
	return deleted, nil
}
