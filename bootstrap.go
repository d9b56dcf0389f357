package ftp

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"
)

// connect runs the connection handshake from a cold (or torn-down) channel
// to a Ready session. Callers hold the session mutex.
//
// The sequence is fixed: dial (TLS-first under implicit mode), greeting,
// optional HOST, TLS upgrade negotiation, authentication, data-channel
// protection, FEAT discovery, encoding negotiation, SYST, vendor handler
// resolution, optional CCC downgrade, listing-parser selection. Graceful
// degradation is built in at the steps where real servers disagree: a
// rejected AUTH TLS under auto mode, a rejected OPTS UTF8 and a missing
// FEAT all leave the connection usable.
func (c *Client) connect(ctx context.Context) (retErr error) {
	// Connect is never additive: an existing channel is torn down first.
	if c.conn != nil {
		c.stopKeepAlive()
		c.closeTransport()
	}

	if c.host == "" {
		return &ConfigError{Reason: "no host configured"}
	}

	// Per-connection state starts clean. Capabilities are handled
	// separately below because clones reuse them.
	c.status = ConnectionStatus{}
	c.hashAlgos = nil
	c.vendor = VendorUnknown
	c.encoding = encodingAuto
	c.ready = false

	conn, err := c.dialControl(ctx)
	if err != nil {
		return err
	}
	c.rawConn = conn
	c.conn = conn

	// From here on, any fatal error closes the socket. Negotiation state
	// stays as the failure left it; the caller must reconnect.
	defer func() {
		if retErr != nil {
			c.closeTransport()
		}
	}()

	// Under implicit mode the transport is TLS before any protocol bytes.
	if c.encryption == EncryptionImplicit {
		if err := c.activateTLS(ctx); err != nil {
			return &SecurityError{Command: "TLS", Err: err}
		}
	} else {
		c.reader = bufio.NewReader(c.conn)
	}

	greeting, err := c.readGreeting()
	if err != nil {
		return err
	}

	// Cheap first-pass vendor guess from the banner text. The SYST-based
	// second pass later never overwrites this.
	c.vendor = vendorFromBanner(greeting.String())

	if c.sendHost {
		name := c.hostName
		if name == "" {
			name = c.host
		}
		if _, err := c.expectSuccess(ctx, "HOST", name); err != nil {
			return err
		}
	}

	if c.encryption == EncryptionExplicit || c.encryption == EncryptionAuto {
		if err := c.negotiateTLS(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	// Authentication hand-off. Failures propagate as-is.
	switch {
	case c.auth != nil:
		if err := c.auth.Authenticate(ctx, c); err != nil {
			return err
		}
	case c.user != "":
		if err := c.login(ctx, c.user, c.password); err != nil {
			return err
		}
	}

	// Protected data channel: PBSZ 0 then PROT P, both required once the
	// control channel is encrypted and data protection is wanted.
	if c.encrypted && c.dataProtection {
		if _, err := c.expectSuccess(ctx, "PBSZ", "0"); err != nil {
			return err
		}
		if _, err := c.expectSuccess(ctx, "PROT", "P"); err != nil {
			return err
		}
	}

	assumeDefaults, err := c.discoverCapabilities(ctx)
	if err != nil {
		return err
	}

	if err := c.negotiateEncoding(ctx); err != nil {
		return err
	}

	if err := c.detectSystem(ctx); err != nil {
		return err
	}

	if c.handler == nil {
		c.handler = c.registry.Lookup(c.vendor)
	}
	if err := c.handler.BeforeConnect(ctx, c); err != nil {
		return err
	}

	// FEAT was unavailable: substitute the vendor's known defaults.
	if assumeDefaults {
		for _, feat := range c.handler.DefaultCapabilities() {
			c.caps.add(feat)
		}
		if len(c.hashAlgos) == 0 {
			c.hashAlgos = append(c.hashAlgos, c.handler.DefaultHashAlgorithms()...)
		}
	}

	// Plaintext downgrade. Implicit-TLS channels cannot be downgraded:
	// the server expects TLS framing on that socket for its lifetime.
	if c.encrypted && c.plaintextAfterAuth && c.encryption != EncryptionImplicit {
		reply, err := c.sendCommandContext(ctx, "CCC")
		if err != nil {
			return err
		}
		if !reply.Success() {
			return &SecurityError{Command: "CCC", Response: reply.Message, Code: reply.Code}
		}
		c.deactivateTLS()
	}

	c.selectListingParser()

	// A reconnect invalidates any previously negotiated data type; the
	// next transfer must re-issue TYPE.
	c.currentType = ""

	if err := c.handler.AfterConnect(ctx, c); err != nil {
		return err
	}

	c.ready = true
	c.status.StaleDataCheck = true
	c.lastCommand = time.Now()
	c.startKeepAlive()

	if c.logger != nil {
		c.logger.Debug("ftp session ready",
			"vendor", c.vendor.String(),
			"os", c.serverOS.String(),
			"encrypted", c.encrypted,
			"parser", c.parserKind.String())
	}
	return nil
}

// readGreeting reads the server's initial reply and requires the 220
// service-ready code.
func (c *Client) readGreeting() (*Reply, error) {
	if c.timeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return nil, fmt.Errorf("failed to set read deadline: %w", err)
		}
	}

	greeting, err := readReply(c.reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read greeting: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug("ftp greeting", "code", greeting.Code, "message", greeting.Message)
	}

	if greeting.Code != 220 {
		return nil, &ProtocolError{
			Command:  "CONNECT",
			Response: greeting.Message,
			Code:     greeting.Code,
		}
	}
	return greeting, nil
}

// negotiateTLS issues AUTH TLS and upgrades the transport on success. A
// rejection is fatal only under explicit mode; auto mode records the failed
// upgrade and continues unencrypted.
func (c *Client) negotiateTLS(ctx context.Context) error {
	reply, err := c.sendCommandContext(ctx, "AUTH", "TLS")
	if err != nil {
		return err
	}

	if !reply.Success() {
		c.status.TLSUpgradeFailed = true
		if c.encryption == EncryptionExplicit {
			return &SecurityError{Command: "AUTH TLS", Response: reply.Message, Code: reply.Code}
		}
		if c.logger != nil {
			c.logger.Debug("AUTH TLS rejected, continuing unencrypted",
				"code", reply.Code, "message", reply.Message)
		}
		return nil
	}

	if err := c.activateTLS(ctx); err != nil {
		return &SecurityError{Command: "AUTH TLS", Err: err}
	}
	return nil
}

// discoverCapabilities runs FEAT unless a cloned session brought its
// capabilities along. It reports whether vendor defaults should substitute
// for an unavailable FEAT; a missing or rejected FEAT never fails the
// connection.
func (c *Client) discoverCapabilities(ctx context.Context) (assumeDefaults bool, err error) {
	if !c.cloned {
		c.caps = make(capabilitySet)
	}

	if len(c.caps) > 0 || !c.checkCapabilities {
		return false, nil
	}

	reply, err := c.sendCommandContext(ctx, "FEAT")
	if err != nil {
		return false, err
	}

	if !reply.Success() {
		return true, nil
	}

	lines := reply.InfoLines()
	if len(lines) == 0 {
		return true, nil
	}

	for _, line := range lines {
		feat, params, ok := parseFeatLine(line)
		if !ok {
			continue // unrecognized features are dropped
		}
		c.caps.add(feat)
		if feat == CapHash {
			c.hashAlgos = parseHashAlgorithms(params)
		}
	}
	return false, nil
}

// negotiateEncoding switches the session to UTF-8 when the server advertises
// it and optimistically issues OPTS UTF8 ON. Servers are inconsistent about
// this command, so a rejection is recorded but never fatal.
func (c *Client) negotiateEncoding(ctx context.Context) error {
	if c.encoding == encodingAuto && c.caps.has(CapUTF8) {
		c.encoding = encodingUTF8
	}

	if c.encoding != encodingUTF8 {
		return nil
	}

	reply, err := c.sendCommandContext(ctx, "OPTS", "UTF8", "ON")
	if err != nil {
		return err
	}
	c.status.UTF8Accepted = reply.Success()
	if !reply.Success() && c.logger != nil {
		c.logger.Debug("OPTS UTF8 ON rejected", "code", reply.Code)
	}
	return nil
}

// detectSystem issues SYST, records the OS family and, if the banner pass
// came up empty, resolves the vendor from the reply. A rejected SYST is
// tolerated; OS detection simply stays unknown.
func (c *Client) detectSystem(ctx context.Context) error {
	reply, err := c.sendCommandContext(ctx, "SYST")
	if err != nil {
		return err
	}
	if !reply.Success() {
		return nil
	}

	c.system = strings.TrimSpace(reply.Message)
	c.serverOS = detectServerOS(c.system)
	if c.vendor == VendorUnknown {
		c.vendor = vendorFromSystem(c.system)
	}
	return nil
}

// selectListingParser picks the parser kind for the session and initializes
// the parser. A caller-pinned custom parser always wins; otherwise the
// vendor handler's preference applies, except that the machine-readable
// parser is preferred unconditionally when MLSD is available. Initialization
// never fails: unknown OS families fall back to generic format probing.
func (c *Client) selectListingParser() {
	kind := ParserAuto
	if c.customParser != nil {
		kind = ParserCustom
	} else {
		kind = c.handler.PreferredParser()
		if c.caps.has(CapMLSD) {
			kind = ParserMachine
		}
	}

	c.parserKind = kind
	c.parser = selectParser(kind, c.serverOS, c.customParser)
}

// Execute sends a raw command over the control channel and returns the
// reply. It exists for Authenticator and ServerHandler implementations,
// which run while the session lock is already held; calling it concurrently
// with other operations on the same session is the caller's responsibility
// to avoid.
func (c *Client) Execute(ctx context.Context, command string, args ...string) (*Reply, error) {
	return c.sendCommandContext(ctx, command, args...)
}
