package denylist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsJunkHandle(t *testing.T) {
	l := Default()
	tests := []struct {
		handle string
		junk   bool
	}{
		{"elonmusk", false},
		{"torvalds", false},
		{"jane.doe", false},
		{"acme_corp", false},
		{"a", true},
		{"ab", true},
		{"div", true},
		{"admin", true},
		{"12345", true},
		{"0.9.14", true},
		{"v1.2.3", true},
		{"1.2beta", true},
		{"2col", true},
		{"page1", true},
		{"item_12", true},
		{"row_", true},
		{"_private", true},
		{"-dash", true},
	}
	for _, tt := range tests {
		t.Run(tt.handle, func(t *testing.T) {
			assert.Equal(t, tt.junk, l.IsJunkHandle(tt.handle))
		})
	}
}

func TestIsJunkHandle_EveryToken(t *testing.T) {
	l := Default()
	tokens := l.JunkHandleTokens()
	require.Greater(t, len(tokens), 150)
	for _, tok := range tokens {
		assert.True(t, l.IsJunkHandle(tok), tok)
	}
}

func TestIsBlockedWebsiteHost(t *testing.T) {
	l := Default()
	tests := []struct {
		host    string
		blocked bool
	}{
		{"facebook.com", true},
		{"www.facebook.com", true},
		{"cdn.jsdelivr.net", true},
		{"x.com", true},
		{"dropbox.com", true},
		{"mybox.com", false},
		{"acme.com", false},
		{"t.media.io", false},
		{"t.me", true},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.blocked, l.IsBlockedWebsiteHost(tt.host))
		})
	}
}

func TestIsBlockedEmailDomain(t *testing.T) {
	l := Default()
	assert.True(t, l.IsBlockedEmailDomain("example.com"))
	assert.True(t, l.IsBlockedEmailDomain("o123.ingest.sentry.io"))
	assert.True(t, l.IsBlockedEmailDomain("Wix.com"))
	assert.False(t, l.IsBlockedEmailDomain("acme.com"))
	assert.False(t, l.IsBlockedEmailDomain("notexample.com"))
}

func TestIsGenericInbox(t *testing.T) {
	l := Default()
	assert.True(t, l.IsGenericInbox("info"))
	assert.True(t, l.IsGenericInbox("No-Reply"))
	assert.False(t, l.IsGenericInbox("jane"))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "denylist.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
junk_handles: [Jordi]
website_domains: [linktr.ee]
email_domains: [corp.invalid]
generic_inboxes: [office]
`), 0o600))

	l, err := Load(path)
	require.NoError(t, err)

	assert.True(t, l.IsJunkHandle("jordi"))
	assert.True(t, l.IsBlockedWebsiteHost("linktr.ee"))
	assert.True(t, l.IsBlockedEmailDomain("corp.invalid"))
	assert.True(t, l.IsGenericInbox("office"))

	// Built-ins survive and the default lists are untouched.
	assert.True(t, l.IsJunkHandle("div"))
	assert.False(t, Default().IsJunkHandle("jordi"))
}

func TestLoad_EmptyPathIsDefault(t *testing.T) {
	l, err := Load("")
	require.NoError(t, err)
	assert.Same(t, Default(), l)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denylist: read")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("junk_handles: [unclosed"), 0o600))
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denylist: parse")
}
