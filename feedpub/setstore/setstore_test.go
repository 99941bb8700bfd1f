package setstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemSetStoreText(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	p := filepath.Join(t.TempDir(), "ignored.txt")
	require.NoError(t, os.WriteFile(p, []byte("# news sites\nexample.com\n\n  spam.co.uk  \n#commented.org\n"), 0644))

	s := NewMemSetStore()
	require.NoError(t, s.LoadFromFileText("ignored-domains", p))

	for _, d := range []string{"example.com", "spam.co.uk"} {
		ok, err := s.InSet(ctx, "ignored-domains", d)
		assert.NoError(err)
		assert.True(ok, d)
	}
	for _, d := range []string{"commented.org", "#commented.org", "", "other.net"} {
		ok, err := s.InSet(ctx, "ignored-domains", d)
		assert.NoError(err)
		assert.False(ok, d)
	}

	// unknown set
	ok, err := s.InSet(ctx, "other", "example.com")
	assert.NoError(err)
	assert.False(ok)

	assert.Error(s.LoadFromFileText("x", filepath.Join(t.TempDir(), "missing.txt")))
}

func TestMemSetStoreJSON(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	p := filepath.Join(t.TempDir(), "sets.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"ignored-domains": ["example.com", "spam.net"]}`), 0644))

	s := NewMemSetStore()
	require.NoError(t, s.LoadFromFileJSON(p))
	ok, err := s.InSet(ctx, "ignored-domains", "spam.net")
	assert.NoError(err)
	assert.True(ok)

	s.Add("ignored-domains", "extra.org")
	ok, err = s.InSet(ctx, "ignored-domains", "extra.org")
	assert.NoError(err)
	assert.True(ok)
}
