// Package ftp implements the control-channel lifecycle of an FTP/FTPS
// client: session bootstrap, capability and vendor discovery, and
// vendor-tolerant directory management.
//
// # Overview
//
// The package centers on the connection handshake. Connect drives a fixed
// negotiation sequence - TCP (or implicit TLS) connect, greeting, optional
// HOST, AUTH TLS upgrade, authentication, PBSZ/PROT data-channel protection,
// FEAT capability discovery, UTF-8 encoding negotiation, SYST, vendor
// handler resolution, optional CCC plaintext downgrade and listing-parser
// selection. Steps where real servers disagree degrade gracefully instead of
// failing: a rejected AUTH TLS under auto mode, a rejected OPTS UTF8 and a
// missing FEAT all leave the connection usable.
//
// # Basic Usage
//
//	client, err := ftp.Dial("ftp.example.com:21",
//	    ftp.WithCredentials("username", "password"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Quit()
//
//	created, err := client.CreateDirectory("/pub/incoming/2026", true)
//
// # TLS Support
//
// Explicit TLS (recommended): the client connects on port 21 and upgrades
// with AUTH TLS. A rejected upgrade is fatal:
//
//	client, err := ftp.Dial("ftp.example.com:21",
//	    ftp.WithExplicitTLS(&tls.Config{ServerName: "ftp.example.com"}),
//	)
//
// Auto TLS attempts the same upgrade but falls back to plaintext when the
// server rejects it; the failed upgrade is recorded in the connection
// status. Implicit TLS (legacy, port 990) wraps the socket in TLS before
// any protocol bytes are exchanged:
//
//	client, err := ftp.Dial("ftp.example.com:990",
//	    ftp.WithImplicitTLS(&tls.Config{ServerName: "ftp.example.com"}),
//	)
//
// WithPlaintextDowngrade issues CCC after authentication, dropping TLS from
// the control channel (useful behind address-rewriting NATs) while data
// connections stay protected.
//
// # Vendor Handlers
//
// The handshake identifies the server implementation from its greeting
// banner or SYST reply and installs a ServerHandler encapsulating that
// vendor's quirks: capabilities to assume when FEAT is unavailable, the
// listing-parser format the vendor emits, directory-creation overrides and
// connect hooks. Custom handlers can be registered on DefaultRegistry or
// installed per client with WithServerHandler.
//
// # Directory Creation
//
// CreateDirectory is idempotent and, with force set, recursive: missing
// parents are created strictly before their children, and every known
// vendor variant of "directory already exists" is reported as a non-error
// "not created" result.
//
// # Blocking and Context Surfaces
//
// Every operation has a blocking form (Connect, CreateDirectory) and a
// context form (ConnectContext, CreateDirectoryContext) producing the same
// command sequence and final state. Both take the session mutex; one
// logical command/reply exchange is in flight at a time. Cancellation is
// cooperative, checked between exchanges: a command already sent always has
// its reply read first, because skipping a reply would desynchronize the
// channel.
//
// # Error Handling
//
// Failures map to four types: ConfigError (unusable configuration, nothing
// was dialed), ProtocolError (the server rejected a required command; the
// full reply is attached), SecurityError (a mandatory TLS upgrade or
// downgrade failed) and StateError (operation on a session that is not
// connected). There are no automatic retries anywhere in this package.
package ftp
