package ftp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Reply represents one FTP server reply to a command.
type Reply struct {
	// Code is the three-digit reply code (e.g., 220, 550)
	Code int

	// Message is the human-readable message from the server
	Message string

	// Lines contains all raw lines of the reply (for multi-line replies)
	Lines []string
}

// Success reports whether the reply is positive: the leading digit of the
// code is 1 (preliminary), 2 (completion) or 3 (intermediate).
func (r *Reply) Success() bool {
	return r.Code >= 100 && r.Code < 400
}

// Is2xx returns true if the reply code is in the 2xx range (completion).
func (r *Reply) Is2xx() bool {
	return r.Code >= 200 && r.Code < 300
}

// Is3xx returns true if the reply code is in the 3xx range (intermediate).
func (r *Reply) Is3xx() bool {
	return r.Code >= 300 && r.Code < 400
}

// String returns the full reply as a string.
func (r *Reply) String() string {
	return strings.Join(r.Lines, "\n")
}

// InfoLines returns the informational payload of a multi-line reply: every
// line except the opening and terminating status lines, with the leading
// space of RFC 2389 continuation lines trimmed. FEAT capability discovery
// consumes this.
func (r *Reply) InfoLines() []string {
	if len(r.Lines) < 3 {
		return nil
	}
	var info []string
	for _, line := range r.Lines[1 : len(r.Lines)-1] {
		info = append(info, strings.TrimSpace(line))
	}
	return info
}

// readReply reads a complete FTP reply from the reader.
// It handles both single-line and multi-line replies.
//
// Single-line format: "220 Welcome\r\n"
// Multi-line format:
//
//	"220-Welcome to FTP\r\n"
//	"220-This is line 2\r\n"
//	"220 Ready\r\n"
//
// The reply is complete when a line starts with the code followed by a space.
func readReply(r *bufio.Reader) (*Reply, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return nil, err
	}

	line = strings.TrimRight(line, "\r\n")
	if len(line) < 4 {
		return nil, fmt.Errorf("invalid reply line: %q", line)
	}

	code, err := strconv.Atoi(line[0:3])
	if err != nil {
		return nil, fmt.Errorf("invalid reply code: %q", line[0:3])
	}

	lines := []string{line}

	// Common single-line reply
	if line[3] == ' ' {
		return &Reply{
			Code:    code,
			Message: line[4:],
			Lines:   lines,
		}, nil
	}

	// Multi-line reply must start with '-'
	if line[3] != '-' {
		return nil, fmt.Errorf("invalid reply format: %q", line)
	}

	if err := readMultiLine(r, code, &lines); err != nil {
		return nil, err
	}

	var messageLines []string
	for _, l := range lines {
		switch {
		case len(l) > 0 && l[0] == ' ':
			messageLines = append(messageLines, strings.TrimSpace(l))
		case len(l) > 4:
			messageLines = append(messageLines, l[4:])
		}
	}

	return &Reply{
		Code:    code,
		Message: strings.Join(messageLines, "\n"),
		Lines:   lines,
	}, nil
}

func readMultiLine(r *bufio.Reader, code int, lines *[]string) error {
	codeStr := fmt.Sprintf("%03d", code)

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if err == io.EOF && len(*lines) > 0 {
				return fmt.Errorf("unexpected EOF reading reply")
			}
			return err
		}

		line = strings.TrimRight(line, "\r\n")

		// RFC 2389 continuation lines start with a space
		if len(line) > 0 && line[0] == ' ' {
			*lines = append(*lines, line)
			continue
		}

		if len(line) < 4 || line[0:3] != codeStr {
			return fmt.Errorf("reply code mismatch or invalid line: %q", line)
		}

		*lines = append(*lines, line)

		if line[3] == ' ' {
			return nil // End of reply
		}

		if line[3] != '-' {
			return fmt.Errorf("invalid reply format: %q", line)
		}
	}
}
