package ftp

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// CreateDirectory creates a directory on the server, returning true if a
// directory was created and false if it already existed. With force set,
// missing parent directories are created first, each parent strictly before
// its child.
//
// A directory that already exists is not an error: servers disagree on how
// they report it (reply codes 550 and 521, plus assorted message phrasings),
// and all known variants are treated as "not created". Any other rejection
// is returned as a ProtocolError carrying the reply.
func (c *Client) CreateDirectory(dir string, force bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.createDirectory(context.Background(), dir, force)
}

// CreateDirectoryContext is CreateDirectory with cooperative cancellation,
// checked between commands. A command already sent always has its reply read
// before the cancellation takes effect.
func (c *Client) CreateDirectoryContext(ctx context.Context, dir string, force bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.createDirectory(ctx, dir, force)
}

// createDirectory is the recursive worker behind CreateDirectory. The
// session mutex is taken once at the public entry point; recursive calls
// re-enter here lock-free.
func (c *Client) createDirectory(ctx context.Context, dir string, force bool) (bool, error) {
	if c.conn == nil || !c.ready {
		return false, &StateError{Op: "MKD"}
	}

	// The root and the current working directory always exist; creating
	// them is a no-op with zero network calls. This is also where the
	// parent recursion terminates.
	clean := normalizePath(dir)
	if clean == "/" || clean == "." {
		return false, nil
	}

	// Vendors with non-standard path syntax can take over entirely.
	if created, err := c.handler.MakeDirectory(ctx, c, clean); err != nil {
		return false, err
	} else if created {
		return true, nil
	}

	if force {
		parent := path.Dir(clean)
		if parent != clean {
			exists, err := c.directoryExists(ctx, parent)
			if err != nil {
				return false, err
			}
			if !exists {
				if _, err := c.createDirectory(ctx, parent, force); err != nil {
					return false, err
				}
			}
		}
	}

	reply, err := c.sendCommandContext(ctx, "MKD", clean)
	if err != nil {
		return false, err
	}

	if reply.Success() {
		return true, nil
	}

	if isAlreadyExistsReply(reply) {
		return false, nil
	}

	return false, &ProtocolError{
		Command:  "MKD " + clean,
		Response: reply.Message,
		Code:     reply.Code,
	}
}

// DirectoryExists probes whether a directory exists by attempting to change
// into it, restoring the working directory afterwards.
func (c *Client) DirectoryExists(dir string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.directoryExists(context.Background(), dir)
}

// DirectoryExistsContext is DirectoryExists with cooperative cancellation.
func (c *Client) DirectoryExistsContext(ctx context.Context, dir string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.directoryExists(ctx, dir)
}

// directoryExists is the CWD-probe worker. Callers hold the session mutex.
func (c *Client) directoryExists(ctx context.Context, dir string) (bool, error) {
	clean := normalizePath(dir)
	if clean == "/" || clean == "." {
		return true, nil
	}

	pwd, err := c.currentDir(ctx)
	if err != nil {
		return false, err
	}

	reply, err := c.sendCommandContext(ctx, "CWD", clean)
	if err != nil {
		return false, err
	}
	if !reply.Success() {
		return false, nil
	}

	// Restore the working directory; the probe must be side-effect free.
	if _, err := c.expectSuccess(ctx, "CWD", pwd); err != nil {
		return false, err
	}
	return true, nil
}

// ChangeDir changes the current working directory.
func (c *Client) ChangeDir(dir string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.expectSuccess(context.Background(), "CWD", dir)
	return err
}

// CurrentDir returns the current working directory.
func (c *Client) CurrentDir() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentDir(context.Background())
}

// currentDir issues PWD and parses the quoted path from the reply.
// Callers hold the session mutex.
func (c *Client) currentDir(ctx context.Context) (string, error) {
	reply, err := c.expectSuccess(ctx, "PWD")
	if err != nil {
		return "", err
	}

	// Example: 257 "/home/user" is the current directory
	msg := reply.Message
	start := strings.Index(msg, "\"")
	if start == -1 {
		return "", fmt.Errorf("invalid PWD reply: %s", msg)
	}
	end := strings.Index(msg[start+1:], "\"")
	if end == -1 {
		return "", fmt.Errorf("invalid PWD reply: %s", msg)
	}
	return msg[start+1 : start+1+end], nil
}

// RemoveDir removes a directory.
func (c *Client) RemoveDir(dir string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.expectSuccess(context.Background(), "RMD", dir)
	return err
}

// normalizePath brings a path into canonical FTP form: forward slashes,
// no trailing separator, "." for the current directory.
func normalizePath(dir string) string {
	dir = strings.ReplaceAll(dir, "\\", "/")
	dir = strings.TrimSuffix(dir, "/")
	if dir == "" {
		return "/"
	}
	clean := path.Clean(dir)
	if clean == "" {
		return "."
	}
	return clean
}

// isAlreadyExistsReply reports whether a failed MKD reply means the
// directory already exists. Code 550 is the RFC 959 "file unavailable"
// class most servers use for an existing directory, and 521 is the
// dedicated "directory already exists" code. Servers hiding the condition
// behind other codes are caught by their message phrasing.
func isAlreadyExistsReply(r *Reply) bool {
	switch r.Code {
	case 550, 521:
		return true
	}

	msg := strings.ToLower(r.Message)
	for _, phrase := range []string{
		"already exists",
		"file exists",
		"folder exists",
		"directory exists",
		"file exist",
	} {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
