package ftp

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"
)

// dialControl opens the TCP control connection, honoring the configured
// network (IP-version preference) and timeout.
func (c *Client) dialControl(ctx context.Context) (net.Conn, error) {
	port := c.port
	if port == "" {
		if c.encryption == EncryptionImplicit {
			port = "990"
		} else {
			port = "21"
		}
	}
	addr := net.JoinHostPort(c.host, port)

	dialer := *c.dialer
	dialer.Timeout = c.timeout

	conn, err := dialer.DialContext(ctx, c.network, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return conn, nil
}

// activateTLS wraps the control connection in TLS and completes the
// handshake. Called immediately after dial under implicit mode, or after a
// positive AUTH TLS reply under explicit and auto modes.
func (c *Client) activateTLS(ctx context.Context) error {
	config := c.tlsConfig
	if config == nil {
		config = &tls.Config{}
	}
	config = config.Clone()
	if config.ServerName == "" {
		config.ServerName = c.host
	}

	if c.logger != nil {
		c.logger.Debug("starting TLS handshake", "mode", c.encryption.String())
	}

	tlsConn := tls.Client(c.conn, config)

	if c.timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
			return fmt.Errorf("failed to set deadline: %w", err)
		}
	}

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return fmt.Errorf("TLS handshake failed: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug("TLS handshake complete", "mode", c.encryption.String())
	}

	c.conn = tlsConn
	c.reader = bufio.NewReader(c.conn)
	c.encrypted = true
	return nil
}

// deactivateTLS strips the TLS framing from the control channel after a
// positive CCC reply. Anything the server still emits under the old framing
// (typically a close_notify record) is drained from the raw socket before
// the channel is treated as plaintext again.
func (c *Client) deactivateTLS() {
	// Drop any decrypted bytes still buffered under the old framing.
	if n := c.reader.Buffered(); n > 0 {
		_, _ = c.reader.Discard(n)
	}

	// Drain residual TLS records from the raw socket.
	_ = c.rawConn.SetReadDeadline(time.Now().Add(250 * time.Millisecond))
	buf := make([]byte, 512)
	for {
		if _, err := c.rawConn.Read(buf); err != nil {
			break
		}
	}
	_ = c.rawConn.SetReadDeadline(time.Time{})

	c.conn = c.rawConn
	c.reader = bufio.NewReader(c.conn)
	c.encrypted = false

	if c.logger != nil {
		c.logger.Debug("control channel downgraded to plaintext")
	}
}

// closeTransport tears down the control channel. Negotiation state (status
// flags, capabilities, vendor) is left as-is; a failed Connect is resumed
// only by reconnecting.
func (c *Client) closeTransport() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = nil
	c.rawConn = nil
	c.reader = nil
	c.encrypted = false
	c.ready = false
}
