package ftp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVendorFromBanner(t *testing.T) {
	t.Parallel()
	tests := []struct {
		banner string
		want   ServerVendor
	}{
		{"220-FileZilla Server 1.7.0", VendorFileZilla},
		{"220 ProFTPD 1.3.8 Server (Debian)", VendorProFTPD},
		{"220---------- Welcome to Pure-FTPd [privsep] [TLS] ----------", VendorPureFTPd},
		{"220 (vsFTPd 3.0.5)", VendorVsFTPd},
		{"220 Microsoft FTP Service", VendorWindowsIIS},
		{"220 Serv-U FTP Server v15.3 ready...", VendorServU},
		{"220 ftp.example.org OpenVMS FTP Server", VendorOpenVMS},
		{"220 host WU-FTPD 2.6.2 ready", VendorWuFTPd},
		{"220 Welcome to my FTP server", VendorUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, vendorFromBanner(tt.banner), "banner %q", tt.banner)
	}
}

func TestVendorFromSystem(t *testing.T) {
	t.Parallel()

	assert.Equal(t, VendorWindowsIIS, vendorFromSystem("Windows_NT"))
	assert.Equal(t, VendorOpenVMS, vendorFromSystem("VMS OpenVMS V8.4"))
	assert.Equal(t, VendorUnknown, vendorFromSystem("UNIX Type: L8"))
}

func TestDetectServerOS(t *testing.T) {
	t.Parallel()
	tests := []struct {
		syst string
		want ServerOS
	}{
		{"UNIX Type: L8", OSUnix},
		{"Linux", OSUnix},
		{"Windows_NT", OSWindows},
		{"VMS OpenVMS V8.4", OSVMS},
		{"MVS is the operating system of this server", OSIBM},
		{"AMIGA", OSUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, detectServerOS(tt.syst), "syst %q", tt.syst)
	}
}

func TestHandlerRegistry(t *testing.T) {
	t.Parallel()

	r := NewHandlerRegistry()

	// Unmapped vendors fall back to the generic handler
	h := r.Lookup(VendorProFTPD)
	assert.Equal(t, VendorUnknown, h.Vendor())
	assert.Empty(t, h.DefaultCapabilities())

	r.Register(proFTPDHandler{})
	h = r.Lookup(VendorProFTPD)
	assert.Equal(t, VendorProFTPD, h.Vendor())
	assert.Contains(t, h.DefaultCapabilities(), CapMLSD)
}

func TestDefaultRegistryBuiltins(t *testing.T) {
	t.Parallel()

	for _, vendor := range []ServerVendor{
		VendorFileZilla, VendorProFTPD, VendorPureFTPd, VendorVsFTPd,
		VendorWindowsIIS, VendorServU, VendorOpenVMS,
	} {
		h := DefaultRegistry().Lookup(vendor)
		assert.Equal(t, vendor, h.Vendor(), "vendor %s", vendor)
	}

	// vsftpd keeps a deliberately small default feature surface
	vs := DefaultRegistry().Lookup(VendorVsFTPd)
	assert.NotContains(t, vs.DefaultCapabilities(), CapMLSD)
	assert.NotContains(t, vs.DefaultCapabilities(), CapUTF8)

	// IIS emits DOS listings
	iis := DefaultRegistry().Lookup(VendorWindowsIIS)
	assert.Equal(t, ParserDOS, iis.PreferredParser())
}
