package ftp

import (
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// ParserKind selects the directory-listing parser for a session. The kind is
// chosen once per connection attempt: a caller-pinned custom parser wins,
// otherwise the vendor handler's preference applies, and the machine-readable
// parser is preferred unconditionally when the server advertises MLSD.
type ParserKind int

const (
	// ParserAuto tries every built-in parser in order.
	ParserAuto ParserKind = iota

	// ParserMachine parses MLSD/MLST fact lines (RFC 3659).
	ParserMachine

	// ParserUnix parses ls-style listings.
	ParserUnix

	// ParserDOS parses IIS/DOS-style listings.
	ParserDOS

	// ParserVMS parses OpenVMS listings.
	ParserVMS

	// ParserCustom marks a caller-supplied parser pinned via
	// WithListingParser. It is never selected automatically.
	ParserCustom
)

// String returns the kind name.
func (k ParserKind) String() string {
	switch k {
	case ParserMachine:
		return "machine"
	case ParserUnix:
		return "unix"
	case ParserDOS:
		return "dos"
	case ParserVMS:
		return "vms"
	case ParserCustom:
		return "custom"
	default:
		return "auto"
	}
}

// Entry represents a file or directory entry from a directory listing.
type Entry struct {
	Name    string
	Type    string // "file", "dir", or "link"
	Size    int64
	ModTime time.Time
	Target  string // For symlinks, the target path
	Raw     string // The raw listing line
}

// ListingParser parses one directory-listing line into an entry.
// Implementations report false for lines they do not understand, letting a
// composite parser fall through to the next format.
type ListingParser interface {
	Parse(line string) (*Entry, bool)
}

// selectParser resolves a parser kind and detected server OS to a concrete
// parser. It never fails: unknown kinds and OS families fall back to trying
// every built-in format.
func selectParser(kind ParserKind, os ServerOS, custom ListingParser) ListingParser {
	switch kind {
	case ParserCustom:
		if custom != nil {
			return custom
		}
	case ParserMachine:
		return &MachineParser{}
	case ParserUnix:
		return &UnixParser{}
	case ParserDOS:
		return &DOSParser{}
	case ParserVMS:
		return &VMSParser{}
	}

	// Auto: order the candidates by what the detected OS makes likely.
	switch os {
	case OSWindows:
		return &compositeParser{parsers: []ListingParser{&MachineParser{}, &DOSParser{}, &UnixParser{}}}
	case OSVMS:
		return &compositeParser{parsers: []ListingParser{&VMSParser{}, &UnixParser{}}}
	default:
		return &compositeParser{parsers: []ListingParser{&MachineParser{}, &UnixParser{}, &DOSParser{}}}
	}
}

// compositeParser tries multiple parsers in order.
type compositeParser struct {
	parsers []ListingParser
}

func (p *compositeParser) Parse(line string) (*Entry, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil, false
	}
	for _, parser := range p.parsers {
		if entry, ok := parser.Parse(trimmed); ok {
			return entry, true
		}
	}
	slog.Debug("unable to parse listing line, unknown format", "raw", line)
	return nil, false
}

// UnixParser parses ls-style directory entries, in both the 9-field and
// 8-field (no group) layouts.
type UnixParser struct{}

func (p *UnixParser) Parse(line string) (*Entry, bool) {
	fields := strings.Fields(line)
	if len(fields) < 8 {
		return nil, false
	}

	perms := fields[0]
	isSymbolic := len(perms) >= 1 && strings.ContainsRune("-dlbcps", rune(perms[0]))
	if !isSymbolic {
		return nil, false
	}

	entry := &Entry{Raw: line}
	switch perms[0] {
	case 'd':
		entry.Type = "dir"
	case 'l':
		entry.Type = "link"
	default:
		entry.Type = "file"
	}

	// 9-field: perms links owner group size month day time/year name
	// 8-field: perms links owner size month day time/year name
	var sizeIdx, nameStartIdx int
	if len(fields) >= 9 {
		if _, err := strconv.ParseInt(fields[4], 10, 64); err == nil {
			sizeIdx, nameStartIdx = 4, 8
		} else if _, err := strconv.ParseInt(fields[3], 10, 64); err == nil {
			sizeIdx, nameStartIdx = 3, 7
		} else {
			return nil, false
		}
	} else {
		if _, err := strconv.ParseInt(fields[3], 10, 64); err == nil {
			sizeIdx, nameStartIdx = 3, 7
		} else {
			return nil, false
		}
	}

	entry.Size, _ = strconv.ParseInt(fields[sizeIdx], 10, 64)

	fullName := strings.Join(fields[nameStartIdx:], " ")
	if entry.Type == "link" {
		if before, after, ok := strings.Cut(fullName, " -> "); ok {
			entry.Name = before
			entry.Target = after
		} else {
			entry.Name = fullName
		}
	} else {
		entry.Name = fullName
	}

	return entry, true
}

// DOSParser parses DOS/Windows-style directory entries, e.g.
//
//	"12-14-23  12:22PM           1037794 report.pdf"
//	"09-24-24  10:30AM       <DIR>          logs"
type DOSParser struct{}

func (p *DOSParser) Parse(line string) (*Entry, bool) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return nil, false
	}
	if !isDOSDate(fields[0]) {
		return nil, false
	}

	entry := &Entry{Raw: line}
	if fields[2] == "<DIR>" {
		entry.Type = "dir"
		entry.Name = strings.Join(fields[3:], " ")
		return entry, true
	}

	size, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return nil, false
	}
	entry.Type = "file"
	entry.Size = size
	entry.Name = strings.Join(fields[3:], " ")
	return entry, true
}

// isDOSDate checks if a string looks like a DOS/Windows date:
// MM-DD-YY, MM-DD-YYYY, MM/DD/YY or MM/DD/YYYY.
func isDOSDate(s string) bool {
	var parts []string
	switch {
	case strings.Contains(s, "-"):
		parts = strings.Split(s, "-")
	case strings.Contains(s, "/"):
		parts = strings.Split(s, "/")
	default:
		return false
	}
	if len(parts) != 3 {
		return false
	}
	for i, part := range parts {
		if len(part) < 1 || len(part) > 4 {
			return false
		}
		if i == 2 && len(part) != 2 && len(part) != 4 {
			return false
		}
		if i < 2 && len(part) > 2 {
			return false
		}
		for _, ch := range part {
			if ch < '0' || ch > '9' {
				return false
			}
		}
	}
	return true
}

// MachineParser parses MLSD fact lines (RFC 3659), e.g.
//
//	"type=file;size=1024;modify=20231220143000; report.pdf"
type MachineParser struct{}

func (p *MachineParser) Parse(line string) (*Entry, bool) {
	facts, name, ok := strings.Cut(line, "; ")
	if !ok || name == "" || !strings.Contains(facts, "=") {
		return nil, false
	}

	entry := &Entry{Raw: line, Name: name, Type: "file"}
	for _, fact := range strings.Split(facts, ";") {
		key, value, ok := strings.Cut(fact, "=")
		if !ok {
			continue
		}
		switch strings.ToLower(key) {
		case "type":
			v := strings.ToLower(value)
			switch {
			case v == "dir" || v == "cdir" || v == "pdir":
				entry.Type = "dir"
			case strings.HasPrefix(v, "os.unix=slink"), strings.HasPrefix(v, "os.unix=symlink"):
				entry.Type = "link"
			}
		case "size":
			entry.Size, _ = strconv.ParseInt(value, 10, 64)
		case "modify":
			if t, err := time.Parse("20060102150405", value); err == nil {
				entry.ModTime = t.UTC()
			}
		}
	}
	return entry, true
}

// VMSParser parses OpenVMS directory entries, e.g.
//
//	"LOGIN.COM;3       1  12-DEC-2023 14:30:00  [SYSTEM]"
//	"WORK.DIR;1        5  12-DEC-2023 14:30:00  [SYSTEM]"
type VMSParser struct{}

func (p *VMSParser) Parse(line string) (*Entry, bool) {
	fields := strings.Fields(line)
	if len(fields) < 1 || !strings.Contains(fields[0], ";") {
		return nil, false
	}

	name, _, ok := strings.Cut(fields[0], ";")
	if !ok || name == "" {
		return nil, false
	}

	entry := &Entry{Raw: line, Name: name, Type: "file"}
	if strings.HasSuffix(strings.ToUpper(name), ".DIR") {
		entry.Type = "dir"
		entry.Name = strings.TrimSuffix(strings.TrimSuffix(name, ".DIR"), ".dir")
	}
	if len(fields) >= 2 {
		// VMS sizes are in 512-byte blocks.
		if blocks, err := strconv.ParseInt(fields[1], 10, 64); err == nil {
			entry.Size = blocks * 512
		}
	}
	return entry, true
}
