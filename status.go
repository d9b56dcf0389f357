package ftp

import "strings"

// EncryptionMode controls whether and how the control channel is upgraded
// to TLS. It must be chosen before Connect and does not change during a
// connection attempt.
type EncryptionMode int

const (
	// EncryptionNone uses a plaintext control channel.
	EncryptionNone EncryptionMode = iota

	// EncryptionImplicit wraps the TCP connection in TLS before any
	// protocol bytes are exchanged (legacy FTPS, typically port 990).
	EncryptionImplicit

	// EncryptionExplicit upgrades the channel with AUTH TLS after the
	// greeting. A rejected upgrade is fatal.
	EncryptionExplicit

	// EncryptionAuto attempts AUTH TLS after the greeting but continues
	// unencrypted if the server rejects it.
	EncryptionAuto
)

// String returns the mode name.
func (m EncryptionMode) String() string {
	switch m {
	case EncryptionImplicit:
		return "implicit"
	case EncryptionExplicit:
		return "explicit"
	case EncryptionAuto:
		return "auto"
	default:
		return "none"
	}
}

// ConnectionStatus records per-connection facts discovered during the
// bootstrap handshake. It is reset at the start of every Connect and is
// read-only afterwards.
type ConnectionStatus struct {
	// TLSUpgradeFailed is set when AUTH TLS was attempted and rejected.
	// Under EncryptionAuto the connection continues unencrypted.
	TLSUpgradeFailed bool

	// UTF8Accepted is set when the server accepted OPTS UTF8 ON.
	UTF8Accepted bool

	// StaleDataCheck is enabled once the session is Ready. While the
	// bootstrap handshake is in flight it stays off so negotiation
	// traffic is never misread as stale data.
	StaleDataCheck bool
}

// ServerOS is the operating-system family detected from the SYST reply.
type ServerOS int

const (
	OSUnknown ServerOS = iota
	OSUnix
	OSWindows
	OSVMS
	OSIBM
)

// String returns the OS family name.
func (o ServerOS) String() string {
	switch o {
	case OSUnix:
		return "unix"
	case OSWindows:
		return "windows"
	case OSVMS:
		return "vms"
	case OSIBM:
		return "ibm"
	default:
		return "unknown"
	}
}

// detectServerOS maps a SYST reply message to an OS family.
// Typical replies: "UNIX Type: L8", "Windows_NT", "VMS OpenVMS V8.4".
func detectServerOS(syst string) ServerOS {
	s := strings.ToUpper(syst)
	switch {
	case strings.Contains(s, "UNIX"), strings.Contains(s, "LINUX"):
		return OSUnix
	case strings.Contains(s, "WINDOWS"):
		return OSWindows
	case strings.Contains(s, "VMS"):
		return OSVMS
	case strings.Contains(s, "MVS"), strings.Contains(s, "OS/390"), strings.Contains(s, "Z/OS"):
		return OSIBM
	default:
		return OSUnknown
	}
}

// textEncoding is the control-channel text encoding in effect.
type textEncoding int

const (
	// encodingAuto is the default: plain ASCII until the server
	// advertises UTF8, then UTF-8.
	encodingAuto textEncoding = iota
	encodingUTF8
)
