package ftp

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"time"
)

// Option is a functional option for configuring an FTP client.
type Option func(*Client) error

// WithTimeout sets the timeout for connecting and for each command/reply
// exchange. An expired timeout is fatal for the operation in progress; this
// package never retries.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		c.timeout = timeout
		return nil
	}
}

// WithIdleTimeout sets the maximum idle time before sending NOOP keep-alive.
// If the connection is idle for longer than this duration, a NOOP command
// will be sent automatically to prevent the server from closing the
// connection. Set to 0 to disable automatic keep-alive.
func WithIdleTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		c.idleTimeout = timeout
		return nil
	}
}

// WithExplicitTLS enables explicit TLS mode (AUTH TLS). The client connects
// on the standard FTP port and upgrades the control channel with AUTH TLS.
// A rejected upgrade fails the connection with a SecurityError.
//
// The provided tls.Config should include the ServerName for certificate
// validation.
func WithExplicitTLS(config *tls.Config) Option {
	return func(c *Client) error {
		if c.encryption == EncryptionImplicit {
			return fmt.Errorf("explicit TLS cannot be combined with implicit TLS")
		}
		if config == nil {
			config = &tls.Config{}
		}
		c.tlsConfig = config
		c.encryption = EncryptionExplicit
		return nil
	}
}

// WithImplicitTLS enables implicit TLS mode. The client connects directly
// with TLS, typically on port 990. This is a legacy mode but still used by
// some servers.
func WithImplicitTLS(config *tls.Config) Option {
	return func(c *Client) error {
		if c.encryption == EncryptionExplicit || c.encryption == EncryptionAuto {
			return fmt.Errorf("implicit TLS cannot be combined with explicit TLS")
		}
		if config == nil {
			config = &tls.Config{}
		}
		c.tlsConfig = config
		c.encryption = EncryptionImplicit
		return nil
	}
}

// WithAutoTLS attempts an AUTH TLS upgrade but continues unencrypted when the
// server rejects it. The rejection is recorded in the connection status.
func WithAutoTLS(config *tls.Config) Option {
	return func(c *Client) error {
		if c.encryption == EncryptionImplicit {
			return fmt.Errorf("auto TLS cannot be combined with implicit TLS")
		}
		if config == nil {
			config = &tls.Config{}
		}
		c.tlsConfig = config
		c.encryption = EncryptionAuto
		return nil
	}
}

// WithCredentials sets the username and password used during the connection
// handshake. Without credentials the handshake skips authentication and the
// caller may Login later.
func WithCredentials(user, password string) Option {
	return func(c *Client) error {
		c.user = user
		c.password = password
		return nil
	}
}

// WithAuthenticator replaces the default USER/PASS authentication performed
// during the handshake.
func WithAuthenticator(a Authenticator) Option {
	return func(c *Client) error {
		c.auth = a
		return nil
	}
}

// WithHost enables the HOST command (RFC 7151) for virtual-host selection.
// It is sent right after the greeting, before any TLS upgrade. If name is
// empty the configured host is sent. A rejected HOST fails the connection.
func WithHost(name string) Option {
	return func(c *Client) error {
		c.sendHost = true
		c.hostName = name
		return nil
	}
}

// WithPlainDataChannel skips the PBSZ/PROT exchange after a TLS upgrade,
// leaving data connections unprotected. By default an encrypted control
// channel also requests an encrypted data channel.
func WithPlainDataChannel() Option {
	return func(c *Client) error {
		c.dataProtection = false
		return nil
	}
}

// WithPlaintextDowngrade issues CCC after authentication, dropping TLS from
// the control channel while data connections stay protected. This is useful
// behind NAT devices that must rewrite PASV/PORT addresses. A rejected CCC
// fails the connection with a SecurityError.
//
// Only meaningful with explicit or auto TLS; an implicit-TLS channel cannot
// be downgraded.
func WithPlaintextDowngrade() Option {
	return func(c *Client) error {
		c.plaintextAfterAuth = true
		return nil
	}
}

// WithoutFeatureDiscovery disables the FEAT exchange during the handshake.
// The capability set stays empty unless the vendor handler supplies defaults.
func WithoutFeatureDiscovery() Option {
	return func(c *Client) error {
		c.checkCapabilities = false
		return nil
	}
}

// WithNetwork sets the network for the control connection: "tcp" (default,
// either IP version), "tcp4" or "tcp6".
func WithNetwork(network string) Option {
	return func(c *Client) error {
		switch network {
		case "tcp", "tcp4", "tcp6":
			c.network = network
			return nil
		default:
			return fmt.Errorf("unsupported network %q", network)
		}
	}
}

// WithLogger enables debug logging using the provided logger.
// All FTP commands and replies will be logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// WithDialer sets a custom net.Dialer for establishing connections.
// This can be used to configure source addresses, keep-alive settings, etc.
func WithDialer(dialer *net.Dialer) Option {
	return func(c *Client) error {
		c.dialer = dialer
		return nil
	}
}

// WithListingParser pins a caller-supplied directory-listing parser. A
// pinned parser is used as-is; the handshake's parser selection is skipped.
func WithListingParser(parser ListingParser) Option {
	return func(c *Client) error {
		c.customParser = parser
		return nil
	}
}

// WithServerHandler installs a vendor handler up front, bypassing vendor
// detection. The handler persists across reconnects until replaced.
func WithServerHandler(h ServerHandler) Option {
	return func(c *Client) error {
		c.handler = h
		return nil
	}
}

// WithHandlerRegistry gives the client its own handler registry instead of
// the package default.
func WithHandlerRegistry(r *HandlerRegistry) Option {
	return func(c *Client) error {
		c.registry = r
		return nil
	}
}
