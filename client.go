package ftp

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

// Client represents an FTP client session. A session owns exactly one
// control channel; one logical command/reply exchange is in flight at a
// time. The blocking methods enforce this with the session mutex. The
// Context-suffixed methods take the same mutex, so both surfaces share one
// exclusion policy.
type Client struct {
	// host and port for the connection
	host string
	port string

	// network is "tcp", "tcp4" or "tcp6" (IP-version preference)
	network string

	// user and password for the default authentication hand-off
	user     string
	password string

	// auth replaces the default USER/PASS exchange when set
	auth Authenticator

	// sendHost enables the HOST command; hostName overrides its argument
	sendHost bool
	hostName string

	// encryption is the TLS negotiation mode, fixed before Connect
	encryption EncryptionMode

	// tlsConfig is the TLS configuration (if TLS is enabled)
	tlsConfig *tls.Config

	// dataProtection requests PBSZ 0 / PROT P after a TLS upgrade
	dataProtection bool

	// plaintextAfterAuth requests a CCC downgrade after authentication
	plaintextAfterAuth bool

	// checkCapabilities enables FEAT discovery during the handshake
	checkCapabilities bool

	// timeout is the timeout for dialing and for each exchange
	timeout time.Duration

	// idleTimeout is the idle period before a keep-alive NOOP; 0 disables
	idleTimeout time.Duration

	// logger is used for debug logging
	logger *slog.Logger

	// dialer is used to establish connections
	dialer *net.Dialer

	// conn is the control channel; rawConn is the TCP connection under
	// any TLS framing, kept for the CCC downgrade
	conn    net.Conn
	rawConn net.Conn

	// reader is a buffered reader for the control channel
	reader *bufio.Reader

	// encrypted reports whether conn currently carries TLS
	encrypted bool

	// status holds per-connection facts, reset at every Connect
	status ConnectionStatus

	// encoding is the control-channel text encoding in effect
	encoding textEncoding

	// caps and hashAlgos hold the negotiated (or assumed) capabilities
	caps      capabilitySet
	hashAlgos []HashAlgorithm

	// cloned marks a session that reuses a prior negotiation, skipping
	// FEAT on its first Connect
	cloned bool

	// vendor and handler are resolved at most once per connection attempt
	vendor   ServerVendor
	handler  ServerHandler
	registry *HandlerRegistry

	// system is the raw SYST reply, serverOS the family parsed from it
	system   string
	serverOS ServerOS

	// parser selection state
	parserKind   ParserKind
	parser       ListingParser
	customParser ListingParser

	// currentType tracks the negotiated data type; "" means stale and
	// forces the next transfer to re-issue TYPE
	currentType string

	// ready gates post-handshake operations
	ready bool

	// mu serializes access to the control channel
	mu sync.Mutex

	// lastCommand tracks the time of the last command sent
	lastCommand time.Time

	// quitChan signals the keep-alive goroutine to stop
	quitChan chan struct{}
}

// Authenticator authenticates a session during the connection handshake.
// The default implementation sends USER/PASS with the configured credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, c *Client) error
}

// NewClient creates a client for the given address without connecting.
// The address is "host:port" or just "host"; the port defaults to 21, or
// 990 under implicit TLS. An empty address is accepted here and rejected by
// Connect with a ConfigError.
func NewClient(addr string, options ...Option) (*Client, error) {
	c := &Client{
		network:           "tcp",
		timeout:           30 * time.Second,
		encryption:        EncryptionNone,
		dataProtection:    true,
		checkCapabilities: true,
		dialer:            &net.Dialer{},
		registry:          defaultRegistry,
		caps:              make(capabilitySet),
	}

	if addr != "" {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			// Bare hostname without a port
			host, port = addr, ""
		}
		c.host = host
		c.port = port
	}

	for _, opt := range options {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	return c, nil
}

// Dial creates a client and connects it.
//
// Example:
//
//	client, err := ftp.Dial("ftp.example.com:21",
//	    ftp.WithCredentials("user", "pass"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Quit()
func Dial(addr string, options ...Option) (*Client, error) {
	c, err := NewClient(addr, options...)
	if err != nil {
		return nil, err
	}
	if err := c.Connect(); err != nil {
		return nil, err
	}
	return c, nil
}

// Connect establishes the control channel and runs the full connection
// handshake. Calling Connect on a connected session tears the existing
// channel down first; Connect is never additive.
func (c *Client) Connect() error {
	return c.ConnectContext(context.Background())
}

// ConnectContext is Connect with cooperative cancellation. Cancellation is
// checked between handshake steps, never mid-exchange: once a command has
// been sent its reply is read before returning.
func (c *Client) ConnectContext(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connect(ctx)
}

// Connected reports whether the session completed its handshake and is
// ready for operations.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready && c.conn != nil
}

// IsEncrypted reports whether the control channel currently carries TLS.
func (c *Client) IsEncrypted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.encrypted
}

// Status returns the per-connection facts recorded during the handshake.
func (c *Client) Status() ConnectionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Vendor returns the server vendor resolved during the handshake.
func (c *Client) Vendor() ServerVendor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vendor
}

// Handler returns the installed vendor handler, or nil before the first
// handshake.
func (c *Client) Handler() ServerHandler {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler
}

// SystemType returns the raw SYST reply recorded during the handshake.
func (c *Client) SystemType() (string, ServerOS) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.system, c.serverOS
}

// HasCapability reports whether the server advertised (or the vendor
// defaults assume) the capability.
func (c *Client) HasCapability(feat Capability) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.caps.has(feat)
}

// Capabilities returns the negotiated capability set.
func (c *Client) Capabilities() []Capability {
	c.mu.Lock()
	defer c.mu.Unlock()
	caps := make([]Capability, 0, len(c.caps))
	for feat := range c.caps {
		caps = append(caps, feat)
	}
	return caps
}

// HashAlgorithms returns the hash algorithms the server supports for the
// HASH command.
func (c *Client) HashAlgorithms() []HashAlgorithm {
	c.mu.Lock()
	defer c.mu.Unlock()
	algos := make([]HashAlgorithm, len(c.hashAlgos))
	copy(algos, c.hashAlgos)
	return algos
}

// Parser returns the listing parser selected during the handshake and the
// kind it was selected as.
func (c *Client) Parser() (ListingParser, ParserKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.parser, c.parserKind
}

// Clone returns a disconnected session with the same configuration that
// reuses this session's negotiated capabilities, vendor and parser choice.
// Its first Connect skips FEAT discovery, saving a round trip. The clone
// must Connect before use.
func (c *Client) Clone() *Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	clone := &Client{
		host:               c.host,
		port:               c.port,
		network:            c.network,
		user:               c.user,
		password:           c.password,
		auth:               c.auth,
		sendHost:           c.sendHost,
		hostName:           c.hostName,
		encryption:         c.encryption,
		tlsConfig:          c.tlsConfig,
		dataProtection:     c.dataProtection,
		plaintextAfterAuth: c.plaintextAfterAuth,
		checkCapabilities:  c.checkCapabilities,
		timeout:            c.timeout,
		idleTimeout:        c.idleTimeout,
		logger:             c.logger,
		dialer:             c.dialer,
		registry:           c.registry,
		customParser:       c.customParser,
		cloned:             true,
		vendor:             c.vendor,
		handler:            c.handler,
		caps:               make(capabilitySet),
	}
	for feat := range c.caps {
		clone.caps.add(feat)
	}
	clone.hashAlgos = append(clone.hashAlgos, c.hashAlgos...)
	return clone
}

// Login authenticates with the FTP server using the provided username and
// password. Connect performs this automatically when credentials are
// configured.
func (c *Client) Login(username, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.login(context.Background(), username, password)
}

// login sends USER/PASS. Callers hold the session mutex.
func (c *Client) login(ctx context.Context, username, password string) error {
	reply, err := c.sendCommandContext(ctx, "USER", username)
	if err != nil {
		return err
	}

	// 230 means no password is required
	if reply.Code == 230 {
		return nil
	}

	if reply.Code != 331 {
		return &ProtocolError{
			Command:  "USER",
			Response: reply.Message,
			Code:     reply.Code,
		}
	}

	if _, err := c.expectCode(ctx, 230, "PASS", password); err != nil {
		return err
	}

	return nil
}

// Type sets the transfer type (e.g., "A", "I"). The negotiated type is
// remembered and redundant TYPE commands are skipped; a reconnect clears the
// memory so the first Type after Connect always reaches the server.
func (c *Client) Type(transferType string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.currentType == transferType {
		if c.logger != nil {
			c.logger.Debug("transfer type already set, skipping TYPE command", "type", transferType)
		}
		return nil
	}

	if _, err := c.expectCode(context.Background(), 200, "TYPE", transferType); err != nil {
		return err
	}
	c.currentType = transferType
	return nil
}

// Noop sends a NOOP (no operation) command to the server. This is useful as
// a keepalive to prevent the connection from timing out during long idle
// periods.
func (c *Client) Noop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.expectSuccess(context.Background(), "NOOP")
	return err
}

// Quit closes the connection gracefully by sending the QUIT command.
func (c *Client) Quit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	c.stopKeepAlive()

	// Ignore errors, we're closing anyway
	_, _ = c.sendCommandContext(context.Background(), "QUIT")

	err := c.conn.Close()
	c.conn = nil
	c.rawConn = nil
	c.reader = nil
	c.encrypted = false
	c.ready = false
	return err
}

// startKeepAlive starts a goroutine that sends NOOP commands if the
// connection has been idle for the configured idleTimeout.
// Callers hold the session mutex.
func (c *Client) startKeepAlive() {
	if c.idleTimeout == 0 {
		return
	}

	c.quitChan = make(chan struct{})

	// Tick at half the idle timeout to be safe
	ticker := time.NewTicker(c.idleTimeout / 2)
	quit := c.quitChan

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.mu.Lock()
				last := c.lastCommand
				c.mu.Unlock()

				if time.Since(last) >= c.idleTimeout {
					if c.logger != nil {
						c.logger.Debug("sending keep-alive NOOP")
					}
					// Ignore errors (connection might be closed)
					_ = c.Noop()
				}
			case <-quit:
				return
			}
		}
	}()
}

// stopKeepAlive stops the keep-alive goroutine if it is running.
// Callers hold the session mutex.
func (c *Client) stopKeepAlive() {
	if c.quitChan != nil {
		close(c.quitChan)
		c.quitChan = nil
	}
}
