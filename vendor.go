package ftp

import (
	"strings"
	"sync"
)

// ServerVendor identifies the server implementation on the other end of the
// control channel. It is resolved at most once per connection attempt: first
// from the greeting banner, then, if the banner was inconclusive, from the
// SYST reply. Once resolved it is never overwritten for that connection.
type ServerVendor int

const (
	VendorUnknown ServerVendor = iota
	VendorFileZilla
	VendorProFTPD
	VendorPureFTPd
	VendorVsFTPd
	VendorWindowsIIS
	VendorServU
	VendorOpenVMS
	VendorWuFTPd
)

// String returns the vendor name.
func (v ServerVendor) String() string {
	switch v {
	case VendorFileZilla:
		return "FileZilla"
	case VendorProFTPD:
		return "ProFTPD"
	case VendorPureFTPd:
		return "Pure-FTPd"
	case VendorVsFTPd:
		return "vsftpd"
	case VendorWindowsIIS:
		return "Windows IIS"
	case VendorServU:
		return "Serv-U"
	case VendorOpenVMS:
		return "OpenVMS"
	case VendorWuFTPd:
		return "WU-FTPD"
	default:
		return "unknown"
	}
}

// bannerVendors maps greeting-banner substrings to vendors. The greeting is
// a cheap heuristic; servers that hide their banner are picked up later from
// SYST.
var bannerVendors = []struct {
	needle string
	vendor ServerVendor
}{
	{"filezilla", VendorFileZilla},
	{"proftpd", VendorProFTPD},
	{"pure-ftpd", VendorPureFTPd},
	{"vsftpd", VendorVsFTPd},
	{"microsoft ftp service", VendorWindowsIIS},
	{"serv-u", VendorServU},
	{"openvms", VendorOpenVMS},
	{"wu-", VendorWuFTPd},
	{"wuftpd", VendorWuFTPd},
}

// vendorFromBanner guesses the server vendor from the greeting banner text.
func vendorFromBanner(banner string) ServerVendor {
	b := strings.ToLower(banner)
	for _, e := range bannerVendors {
		if strings.Contains(b, e.needle) {
			return e.vendor
		}
	}
	return VendorUnknown
}

// vendorFromSystem guesses the server vendor from the SYST reply. This is
// the second detection pass and runs only when the banner pass came up empty.
func vendorFromSystem(syst string) ServerVendor {
	s := strings.ToLower(syst)
	switch {
	case strings.Contains(s, "windows_nt"):
		return VendorWindowsIIS
	case strings.Contains(s, "vms"):
		return VendorOpenVMS
	default:
		return VendorUnknown
	}
}

// HandlerRegistry maps server vendors to their handlers. The package-level
// default registry knows the built-in handlers; callers may register their
// own to add vendors or replace built-in behavior.
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[ServerVendor]ServerHandler
}

// NewHandlerRegistry returns an empty registry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[ServerVendor]ServerHandler)}
}

// Register installs a handler for its vendor, replacing any previous one.
func (r *HandlerRegistry) Register(h ServerHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[h.Vendor()] = h
}

// Lookup returns the handler for the vendor. Unmapped vendors get the
// generic handler so every connection always has a handler installed.
func (r *HandlerRegistry) Lookup(v ServerVendor) ServerHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if h, ok := r.handlers[v]; ok {
		return h
	}
	return genericHandler{}
}

// defaultRegistry holds the built-in vendor handlers.
var defaultRegistry = func() *HandlerRegistry {
	r := NewHandlerRegistry()
	r.Register(fileZillaHandler{})
	r.Register(proFTPDHandler{})
	r.Register(pureFTPdHandler{})
	r.Register(vsFTPdHandler{})
	r.Register(windowsIISHandler{})
	r.Register(servUHandler{})
	r.Register(openVMSHandler{})
	return r
}()

// DefaultRegistry returns the registry of built-in vendor handlers.
// Handlers registered here affect every client that has not been given its
// own registry.
func DefaultRegistry() *HandlerRegistry {
	return defaultRegistry
}
