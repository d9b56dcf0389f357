package ftp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"/", "/"},
		{"", "/"},
		{".", "."},
		{"./", "."},
		{"/a/b/c", "/a/b/c"},
		{"/a/b/c/", "/a/b/c"},
		{"a/b", "a/b"},
		{"/a//b", "/a/b"},
		{"/a/./b", "/a/b"},
		{"\\a\\b", "/a/b"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.in); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsAlreadyExistsReply(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		reply Reply
		want  bool
	}{
		{"550 file unavailable", Reply{Code: 550, Message: "Create directory operation failed."}, true},
		{"521 dedicated code", Reply{Code: 521, Message: "Directory already exists"}, true},
		{"other code with phrasing", Reply{Code: 553, Message: "Can't create directory: File exists"}, true},
		{"windows phrasing", Reply{Code: 451, Message: "Cannot create a file when that file already exists."}, true},
		{"unrelated failure", Reply{Code: 530, Message: "Not logged in"}, false},
		{"permission denied on 553", Reply{Code: 553, Message: "Permission denied"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isAlreadyExistsReply(&tt.reply); got != tt.want {
				t.Errorf("isAlreadyExistsReply(%d %q) = %v, want %v",
					tt.reply.Code, tt.reply.Message, got, tt.want)
			}
		})
	}
}

func TestCreateDirectoryRoot(t *testing.T) {
	t.Parallel()
	s := newScriptServer(t, scriptConfig{})
	c := dialScript(t, s)

	for _, dir := range []string{"/", ".", "", "./"} {
		created, err := c.CreateDirectory(dir, true)
		require.NoError(t, err, "dir %q", dir)
		assert.False(t, created, "dir %q", dir)
	}

	// The root and current directory always exist; no MKD may be issued.
	assert.Empty(t, s.CommandsMatching("MKD"))
}

func TestCreateDirectorySimple(t *testing.T) {
	t.Parallel()
	s := newScriptServer(t, scriptConfig{})
	c := dialScript(t, s)

	created, err := c.CreateDirectory("/data", false)
	require.NoError(t, err)
	assert.True(t, created)

	assert.Equal(t, []string{"MKD /data"}, s.CommandsMatching("MKD"))
}

func TestCreateDirectoryRecursive(t *testing.T) {
	t.Parallel()
	s := newScriptServer(t, scriptConfig{
		script: func(verb, arg string) string {
			// Nothing under / exists yet
			if verb == "CWD" && arg != "/" {
				return "550 No such directory"
			}
			return ""
		},
	})
	c := dialScript(t, s)

	created, err := c.CreateDirectory("/a/b/c", true)
	require.NoError(t, err)
	assert.True(t, created)

	// Every parent is created strictly before its child.
	assert.Equal(t, []string{"MKD /a", "MKD /a/b", "MKD /a/b/c"}, s.CommandsMatching("MKD"))
}

func TestCreateDirectoryExistingParents(t *testing.T) {
	t.Parallel()
	s := newScriptServer(t, scriptConfig{})
	c := dialScript(t, s)

	// All parents exist (every CWD succeeds): only the leaf is created.
	created, err := c.CreateDirectory("/a/b/c", true)
	require.NoError(t, err)
	assert.True(t, created)

	assert.Equal(t, []string{"MKD /a/b/c"}, s.CommandsMatching("MKD"))
}

func TestCreateDirectoryAlreadyExists(t *testing.T) {
	t.Parallel()
	s := newScriptServer(t, scriptConfig{
		script: func(verb, arg string) string {
			if verb == "MKD" {
				return "550 Can't create directory: File exists"
			}
			return ""
		},
	})
	c := dialScript(t, s)

	created, err := c.CreateDirectory("/a", true)
	require.NoError(t, err, "already-exists must not be an error")
	assert.False(t, created)
}

func TestCreateDirectoryFatalReply(t *testing.T) {
	t.Parallel()
	s := newScriptServer(t, scriptConfig{
		script: func(verb, arg string) string {
			if verb == "MKD" {
				return "553 Requested action not taken"
			}
			return ""
		},
	})
	c := dialScript(t, s)

	created, err := c.CreateDirectory("/x", true)
	assert.False(t, created)

	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 553, pe.Code)
	assert.Equal(t, "MKD /x", pe.Command)
	assert.Equal(t, "Requested action not taken", pe.Response)
}

func TestCreateDirectoryNotConnected(t *testing.T) {
	t.Parallel()
	c, err := NewClient("127.0.0.1:21")
	require.NoError(t, err)

	_, err = c.CreateDirectory("/a", true)
	var se *StateError
	require.ErrorAs(t, err, &se)
}

func TestCreateDirectoryContextCanceled(t *testing.T) {
	t.Parallel()
	s := newScriptServer(t, scriptConfig{})
	c := dialScript(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.CreateDirectoryContext(ctx, "/a", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDirectoryExists(t *testing.T) {
	t.Parallel()
	s := newScriptServer(t, scriptConfig{
		script: func(verb, arg string) string {
			if verb == "CWD" && arg == "/missing" {
				return "550 No such directory"
			}
			return ""
		},
	})
	c := dialScript(t, s)

	exists, err := c.DirectoryExists("/pub")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = c.DirectoryExists("/missing")
	require.NoError(t, err)
	assert.False(t, exists)

	// The probe restores the working directory after a successful CWD.
	cwds := s.CommandsMatching("CWD")
	assert.Equal(t, []string{"CWD /pub", "CWD /", "CWD /missing"}, cwds)
}

func TestVMSMakeDirectoryOverride(t *testing.T) {
	t.Parallel()
	s := newScriptServer(t, scriptConfig{
		greeting: "220 node.example.org OpenVMS FTP Server ready",
		script: func(verb, arg string) string {
			if verb == "SYST" {
				return "215 VMS OpenVMS V8.4"
			}
			return ""
		},
	})
	c := dialScript(t, s)
	require.Equal(t, VendorOpenVMS, c.Vendor())

	// Bracketed VMS specs are created with a single MKD, no parent walk.
	created, err := c.CreateDirectory("[WORK.REPORTS]", true)
	require.NoError(t, err)
	assert.True(t, created)

	assert.Equal(t, []string{"MKD [WORK.REPORTS]"}, s.CommandsMatching("MKD"))
	assert.Empty(t, s.CommandsMatching("CWD"))
}
