package ftp

import (
	"context"
	"strings"
)

// ServerHandler encapsulates one server implementation's quirks and defaults.
// A handler is selected during the connection handshake, from the vendor
// detected in the greeting banner or the SYST reply, and stays installed for
// the life of the session.
//
// Handlers supply default capabilities for servers whose FEAT command is
// unavailable, a preferred listing-parser kind, an optional directory-creation
// override, and hooks that run around the handshake.
type ServerHandler interface {
	// Vendor returns the vendor this handler serves.
	Vendor() ServerVendor

	// DefaultCapabilities returns the capabilities to assume when FEAT
	// is unavailable or rejected.
	DefaultCapabilities() []Capability

	// DefaultHashAlgorithms returns the hash algorithms to assume when
	// FEAT is unavailable or rejected.
	DefaultHashAlgorithms() []HashAlgorithm

	// PreferredParser returns the listing-parser kind to use for this
	// vendor unless the server advertises MLSD or the caller pinned a
	// custom parser.
	PreferredParser() ParserKind

	// MakeDirectory may take over directory creation for vendors with
	// non-standard path syntax. Returning true short-circuits the normal
	// creation path and reports the directory as created. Returning
	// false defers to the normal path.
	MakeDirectory(ctx context.Context, c *Client, dir string) (bool, error)

	// BeforeConnect runs right after the handler is installed, while the
	// handshake is still in flight.
	BeforeConnect(ctx context.Context, c *Client) error

	// AfterConnect runs as the final handshake step, just before the
	// session becomes Ready.
	AfterConnect(ctx context.Context, c *Client) error
}

// genericHandler is the fallback handler and the embeddable base for the
// vendor-specific ones. Its defaults are deliberately conservative: a server
// we know nothing about gets no assumed capabilities.
type genericHandler struct{}

func (genericHandler) Vendor() ServerVendor { return VendorUnknown }

func (genericHandler) DefaultCapabilities() []Capability { return nil }

func (genericHandler) DefaultHashAlgorithms() []HashAlgorithm { return nil }

func (genericHandler) PreferredParser() ParserKind { return ParserAuto }

func (genericHandler) MakeDirectory(ctx context.Context, c *Client, dir string) (bool, error) {
	return false, nil
}

func (genericHandler) BeforeConnect(ctx context.Context, c *Client) error { return nil }

func (genericHandler) AfterConnect(ctx context.Context, c *Client) error { return nil }

// fileZillaHandler covers FileZilla Server. Modern releases always ship
// MLSD and UTF-8.
type fileZillaHandler struct{ genericHandler }

func (fileZillaHandler) Vendor() ServerVendor { return VendorFileZilla }

func (fileZillaHandler) DefaultCapabilities() []Capability {
	return []Capability{CapUTF8, CapMLST, CapMLSD, CapSize, CapMDTM, CapMFMT, CapRest, CapEPSV, CapTVFS}
}

func (fileZillaHandler) PreferredParser() ParserKind { return ParserMachine }

// proFTPDHandler covers ProFTPD.
type proFTPDHandler struct{ genericHandler }

func (proFTPDHandler) Vendor() ServerVendor { return VendorProFTPD }

func (proFTPDHandler) DefaultCapabilities() []Capability {
	return []Capability{CapUTF8, CapMLST, CapMLSD, CapSize, CapMDTM, CapMFMT, CapRest, CapEPSV, CapTVFS, CapHash}
}

func (proFTPDHandler) DefaultHashAlgorithms() []HashAlgorithm {
	return []HashAlgorithm{HashSHA1, HashSHA256, HashSHA512, HashMD5, HashCRC32}
}

func (proFTPDHandler) PreferredParser() ParserKind { return ParserUnix }

// pureFTPdHandler covers Pure-FTPd.
type pureFTPdHandler struct{ genericHandler }

func (pureFTPdHandler) Vendor() ServerVendor { return VendorPureFTPd }

func (pureFTPdHandler) DefaultCapabilities() []Capability {
	return []Capability{CapUTF8, CapMLST, CapMLSD, CapSize, CapMDTM, CapMFMT, CapRest, CapEPSV, CapTVFS}
}

func (pureFTPdHandler) PreferredParser() ParserKind { return ParserUnix }

// vsFTPdHandler covers vsftpd, which keeps a deliberately small feature
// surface: no MLSD and no UTF-8 in its stock configuration.
type vsFTPdHandler struct{ genericHandler }

func (vsFTPdHandler) Vendor() ServerVendor { return VendorVsFTPd }

func (vsFTPdHandler) DefaultCapabilities() []Capability {
	return []Capability{CapSize, CapMDTM, CapRest, CapEPSV}
}

func (vsFTPdHandler) PreferredParser() ParserKind { return ParserUnix }

// windowsIISHandler covers the Microsoft IIS FTP service.
type windowsIISHandler struct{ genericHandler }

func (windowsIISHandler) Vendor() ServerVendor { return VendorWindowsIIS }

func (windowsIISHandler) DefaultCapabilities() []Capability {
	return []Capability{CapUTF8, CapSize, CapMDTM, CapRest, CapEPSV}
}

func (windowsIISHandler) PreferredParser() ParserKind { return ParserDOS }

// servUHandler covers Serv-U.
type servUHandler struct{ genericHandler }

func (servUHandler) Vendor() ServerVendor { return VendorServU }

func (servUHandler) DefaultCapabilities() []Capability {
	return []Capability{CapUTF8, CapMLST, CapMLSD, CapSize, CapMDTM, CapMFMT, CapRest, CapEPSV}
}

func (servUHandler) PreferredParser() ParserKind { return ParserUnix }

// openVMSHandler covers OpenVMS servers, whose native directory syntax uses
// bracketed specs like "[A.B.C]" that do not decompose into slash-separated
// parents.
type openVMSHandler struct{ genericHandler }

func (openVMSHandler) Vendor() ServerVendor { return VendorOpenVMS }

func (openVMSHandler) DefaultCapabilities() []Capability {
	return []Capability{CapSize, CapMDTM, CapRest}
}

func (openVMSHandler) PreferredParser() ParserKind { return ParserVMS }

// MakeDirectory issues a single MKD for bracketed VMS directory specs, since
// splitting them on "/" to create parents would mangle the path. Unix-style
// paths fall through to the normal recursive creation.
func (openVMSHandler) MakeDirectory(ctx context.Context, c *Client, dir string) (bool, error) {
	if !strings.Contains(dir, "[") {
		return false, nil
	}
	reply, err := c.sendCommandContext(ctx, "MKD", dir)
	if err != nil {
		return false, err
	}
	if reply.Success() {
		return true, nil
	}
	if isAlreadyExistsReply(reply) {
		return false, nil
	}
	return false, &ProtocolError{Command: "MKD " + dir, Response: reply.Message, Code: reply.Code}
}
