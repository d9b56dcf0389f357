package ftp

import "strings"

// Capability is an optional protocol feature the server has advertised via
// FEAT, or is assumed to support from its vendor defaults.
type Capability int

const (
	CapUTF8 Capability = iota
	CapMLST
	CapMLSD
	CapSize
	CapMDTM
	CapMFMT
	CapRest
	CapEPSV
	CapEPRT
	CapPRET
	CapTVFS
	CapHash
	CapHost
	CapCCC
	CapAuthTLS
	CapPBSZ
	CapProt
	CapXCRC
	CapXMD5
	CapXSHA1
)

// capabilityNames maps the first token of a FEAT line to a capability.
// Unrecognized lines are dropped, which keeps FEAT parsing forward-compatible
// with servers that advertise extensions this client does not know about.
var capabilityNames = map[string]Capability{
	"UTF8":  CapUTF8,
	"MLST":  CapMLST,
	"MLSD":  CapMLSD,
	"SIZE":  CapSize,
	"MDTM":  CapMDTM,
	"MFMT":  CapMFMT,
	"REST":  CapRest,
	"EPSV":  CapEPSV,
	"EPRT":  CapEPRT,
	"PRET":  CapPRET,
	"TVFS":  CapTVFS,
	"HASH":  CapHash,
	"HOST":  CapHost,
	"CCC":   CapCCC,
	"AUTH":  CapAuthTLS,
	"PBSZ":  CapPBSZ,
	"PROT":  CapProt,
	"XCRC":  CapXCRC,
	"XMD5":  CapXMD5,
	"XSHA1": CapXSHA1,
}

// String returns the FEAT token for the capability.
func (c Capability) String() string {
	for name, v := range capabilityNames {
		if v == c {
			return name
		}
	}
	return "UNKNOWN"
}

// capabilitySet is the set of negotiated capabilities, owned by the session
// and mutated only during the bootstrap handshake.
type capabilitySet map[Capability]struct{}

func (s capabilitySet) add(c Capability) {
	s[c] = struct{}{}
}

func (s capabilitySet) has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// HashAlgorithm identifies a hash algorithm supported by the server's HASH
// command (draft-bryan-ftp-hash).
type HashAlgorithm int

const (
	HashSHA1 HashAlgorithm = iota
	HashSHA256
	HashSHA512
	HashMD5
	HashCRC32
)

// String returns the wire name of the algorithm.
func (h HashAlgorithm) String() string {
	switch h {
	case HashSHA1:
		return "SHA-1"
	case HashSHA256:
		return "SHA-256"
	case HashSHA512:
		return "SHA-512"
	case HashMD5:
		return "MD5"
	case HashCRC32:
		return "CRC32"
	default:
		return "UNKNOWN"
	}
}

var hashAlgorithmNames = map[string]HashAlgorithm{
	"SHA-1":   HashSHA1,
	"SHA1":    HashSHA1,
	"SHA-256": HashSHA256,
	"SHA256":  HashSHA256,
	"SHA-512": HashSHA512,
	"SHA512":  HashSHA512,
	"MD5":     HashMD5,
	"CRC32":   HashCRC32,
}

// parseFeatLine maps one FEAT information line to a capability.
// The boolean result is false for unrecognized lines.
//
// Lines look like "UTF8", "REST STREAM", "AUTH TLS" or
// "HASH SHA-1;SHA-256*;MD5".
func parseFeatLine(line string) (Capability, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, "", false
	}

	name, params, _ := strings.Cut(line, " ")
	feat, ok := capabilityNames[strings.ToUpper(name)]
	if !ok {
		return 0, "", false
	}

	// AUTH is only a TLS capability when it actually offers TLS/SSL.
	if feat == CapAuthTLS {
		p := strings.ToUpper(params)
		if !strings.Contains(p, "TLS") && !strings.Contains(p, "SSL") {
			return 0, "", false
		}
	}

	return feat, params, true
}

// parseHashAlgorithms parses the parameter list of a "HASH" FEAT line,
// e.g. "SHA-1*;SHA-256;MD5". The server marks its preferred algorithm with
// a trailing asterisk; the marker is dropped here.
func parseHashAlgorithms(params string) []HashAlgorithm {
	var algos []HashAlgorithm
	for _, tok := range strings.Split(params, ";") {
		tok = strings.TrimSuffix(strings.TrimSpace(tok), "*")
		if algo, ok := hashAlgorithmNames[strings.ToUpper(tok)]; ok {
			algos = append(algos, algo)
		}
	}
	return algos
}
