package ftp

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// sendCommandContext sends one FTP command and reads its reply. It is the
// single execution primitive behind every operation in this package.
//
// The control channel is strict request/reply: once a command has been
// written, its reply is always read before returning, even if ctx is
// cancelled in the meantime. Skipping a reply would desynchronize every
// subsequent exchange. Cancellation is therefore checked before sending,
// never mid-exchange.
//
// Callers hold the session mutex; this function performs no locking.
func (c *Client) sendCommandContext(ctx context.Context, command string, args ...string) (*Reply, error) {
	if c.conn == nil {
		return nil, &StateError{Op: command}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := command
	if len(args) > 0 {
		cmd = fmt.Sprintf("%s %s", command, strings.Join(args, " "))
	}

	if c.logger != nil {
		c.logger.Debug("ftp command", "cmd", cmd)
	}

	c.lastCommand = time.Now()

	// A reply sitting in the buffer before we send anything means the
	// server pushed data outside the request/reply rhythm (or a previous
	// exchange was aborted). Drain it so it cannot be mistaken for the
	// reply to this command. Suppressed during the connection handshake.
	if c.status.StaleDataCheck && c.reader.Buffered() > 0 {
		stale, _ := c.reader.Peek(c.reader.Buffered())
		c.reader.Discard(c.reader.Buffered())
		if c.logger != nil {
			c.logger.Warn("discarded stale control-channel data", "bytes", len(stale))
		}
	}

	if c.timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return nil, fmt.Errorf("failed to set write deadline: %w", err)
		}
	}

	if _, err := fmt.Fprintf(c.conn, "%s\r\n", cmd); err != nil {
		return nil, fmt.Errorf("failed to send command: %w", err)
	}

	// Deadline goes on the underlying connection, not the bufio.Reader.
	if c.timeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return nil, fmt.Errorf("failed to set read deadline: %w", err)
		}
	}

	reply, err := readReply(c.reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read reply: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug("ftp reply", "code", reply.Code, "message", reply.Message)
	}

	return reply, nil
}

// expectSuccess sends a command and requires a positive reply (leading digit
// 1, 2 or 3). A negative reply becomes a ProtocolError carrying the reply.
func (c *Client) expectSuccess(ctx context.Context, command string, args ...string) (*Reply, error) {
	reply, err := c.sendCommandContext(ctx, command, args...)
	if err != nil {
		return nil, err
	}
	if !reply.Success() {
		return reply, &ProtocolError{
			Command:  command,
			Response: reply.Message,
			Code:     reply.Code,
		}
	}
	return reply, nil
}

// expectCode sends a command and requires an exact reply code.
func (c *Client) expectCode(ctx context.Context, expectedCode int, command string, args ...string) (*Reply, error) {
	reply, err := c.sendCommandContext(ctx, command, args...)
	if err != nil {
		return nil, err
	}
	if reply.Code != expectedCode {
		return reply, &ProtocolError{
			Command:  command,
			Response: reply.Message,
			Code:     reply.Code,
		}
	}
	return reply, nil
}
