package ftp

import (
	"bufio"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

// serverScript maps a command verb and argument to a canned reply. An empty
// return falls back to the default happy-path reply for that verb.
type serverScript func(verb, arg string) string

// scriptConfig configures a scripted test server.
type scriptConfig struct {
	greeting string
	script   serverScript
	tls      *tls.Config // enables AUTH TLS upgrades (and implicit mode)
	implicit bool        // wrap the connection in TLS before the greeting
}

// scriptServer is a minimal scripted FTP control channel for handshake
// tests. It speaks canned replies, records every command it receives and
// supports AUTH TLS upgrades and CCC downgrades.
type scriptServer struct {
	t  *testing.T
	ln net.Listener

	cfg scriptConfig

	mu       sync.Mutex
	commands []string
	conns    int
}

func newScriptServer(t *testing.T, cfg scriptConfig) *scriptServer {
	t.Helper()

	if cfg.greeting == "" {
		cfg.greeting = "220 Test FTP server ready"
	}
	if cfg.script == nil {
		cfg.script = func(verb, arg string) string { return "" }
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	s := &scriptServer{t: t, ln: ln, cfg: cfg}
	go s.serve()
	t.Cleanup(s.Close)
	return s
}

func (s *scriptServer) addr() string {
	return s.ln.Addr().String()
}

func (s *scriptServer) Close() {
	_ = s.ln.Close()
}

// Commands returns every command line received so far, in order.
func (s *scriptServer) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.commands))
	copy(out, s.commands)
	return out
}

// CommandsMatching returns the received commands starting with prefix.
func (s *scriptServer) CommandsMatching(prefix string) []string {
	var out []string
	for _, cmd := range s.Commands() {
		if strings.HasPrefix(cmd, prefix) {
			out = append(out, cmd)
		}
	}
	return out
}

// ConnCount returns how many connections have been accepted.
func (s *scriptServer) ConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns
}

func (s *scriptServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns++
		s.mu.Unlock()
		go s.handle(conn)
	}
}

func (s *scriptServer) handle(conn net.Conn) {
	defer conn.Close()

	raw := conn
	if s.cfg.implicit && s.cfg.tls != nil {
		tlsConn := tls.Server(conn, s.cfg.tls)
		if err := tlsConn.Handshake(); err != nil {
			return
		}
		conn = tlsConn
	}

	reader := bufio.NewReader(conn)
	writeReply := func(text string) bool {
		for _, line := range strings.Split(text, "\n") {
			if _, err := conn.Write([]byte(line + "\r\n")); err != nil {
				return false
			}
		}
		return true
	}

	if !writeReply(s.cfg.greeting) {
		return
	}

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")

		s.mu.Lock()
		s.commands = append(s.commands, line)
		s.mu.Unlock()

		verb, arg, _ := strings.Cut(line, " ")
		verb = strings.ToUpper(verb)

		reply := s.cfg.script(verb, arg)
		if reply == "" {
			reply = defaultReply(verb, arg)
		}
		if !writeReply(reply) {
			return
		}

		switch {
		case verb == "QUIT":
			return
		case verb == "AUTH" && strings.HasPrefix(reply, "234") && s.cfg.tls != nil:
			tlsConn := tls.Server(conn, s.cfg.tls)
			if err := tlsConn.Handshake(); err != nil {
				return
			}
			conn = tlsConn
			reader = bufio.NewReader(conn)
		case verb == "CCC" && strings.HasPrefix(reply, "2"):
			// Back to plaintext on the raw socket
			conn = raw
			reader = bufio.NewReader(conn)
		}
	}
}

// defaultReply is the happy-path behavior of the scripted server: a plain
// Unix server that accepts logins, lists a standard feature set and creates
// every directory it is asked for.
func defaultReply(verb, arg string) string {
	switch verb {
	case "USER":
		return "331 Password required"
	case "PASS":
		return "230 Logged in"
	case "FEAT":
		return "211-Features:\n UTF8\n MLST type*;size*;modify*;\n MLSD\n SIZE\n MDTM\n MFMT\n REST STREAM\n EPSV\n211 End"
	case "OPTS":
		return "200 Always in UTF8 mode"
	case "SYST":
		return "215 UNIX Type: L8"
	case "PWD":
		return `257 "/" is the current directory`
	case "CWD":
		return "250 Directory changed"
	case "TYPE":
		return "200 Type set"
	case "MKD":
		return `257 "` + arg + `" created`
	case "NOOP":
		return "200 NOOP ok"
	case "PBSZ":
		return "200 PBSZ=0"
	case "PROT":
		return "200 Protection set to Private"
	case "HOST":
		return "220 Host accepted"
	case "AUTH":
		return "502 Command not implemented"
	case "CCC":
		return "533 CCC not allowed"
	case "QUIT":
		return "221 Goodbye"
	default:
		return "500 Unknown command"
	}
}

// testTimeout bounds every exchange in the scripted tests.
const testTimeout = 2 * time.Second

// dialScript connects a client to a scripted server with a short timeout.
func dialScript(t *testing.T, s *scriptServer, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithTimeout(testTimeout)}, opts...)
	c, err := Dial(s.addr(), opts...)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Quit() })
	return c
}

// newTestTLSConfig builds a server TLS config with a fresh self-signed
// certificate for 127.0.0.1.
func newTestTLSConfig(t *testing.T) *tls.Config {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "127.0.0.1"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
		DNSNames:     []string{"localhost"},
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("failed to create certificate: %v", err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{{
			Certificate: [][]byte{der},
			PrivateKey:  key,
		}},
	}
}
