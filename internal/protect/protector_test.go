package protect

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/ShubhamGupta2412/vaultboard/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret-that-is-at-least-32-bytes!!"

func newProtector(t *testing.T, opts ...Option) *Protector {
	t.Helper()
	p, err := New([]byte(secret), opts...)
	require.NoError(t, err)
	return p
}

func TestNew_RejectsShortSecret(t *testing.T) {
	_, err := New([]byte("short"))
	require.ErrorIs(t, err, common.ErrSecretMissing)
}

func TestProtectReveal_RoundTrip(t *testing.T) {
	p := newProtector(t)
	for _, plain := range []string{"", "secret123456", "unicode ключ 🔐", strings.Repeat("x", 4096)} {
		stored, err := p.Protect(plain, true)
		require.NoError(t, err)
		assert.NotEqual(t, plain, stored)
		assert.True(t, LooksEncrypted(stored))
		assert.Equal(t, plain, p.Reveal(stored, true))
	}
}

func TestProtect_NotSensitiveIsIdentity(t *testing.T) {
	p := newProtector(t)
	stored, err := p.Protect("plain text", false)
	require.NoError(t, err)
	assert.Equal(t, "plain text", stored)
	assert.Equal(t, "plain text", p.Reveal("plain text", false))
}

func TestReveal_Fallbacks(t *testing.T) {
	var reasons []FallbackReason
	p := newProtector(t, WithFallbackHook(func(r FallbackReason) { reasons = append(reasons, r) }))

	other, err := New([]byte(strings.Repeat("z", 40)))
	require.NoError(t, err)
	foreign, err := other.Protect("from another key", true)
	require.NoError(t, err)

	// 40 chars of base64 alphabet that is not a real ciphertext.
	lookalike := strings.Repeat("QUJD", 10)

	tests := []struct {
		name   string
		stored string
		reason FallbackReason
	}{
		{"legacy plaintext", "my old password", FallbackNotEncrypted},
		{"ciphertext-shaped plaintext", lookalike, FallbackDecrypt},
		{"wrong key", foreign, FallbackDecrypt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reasons = nil
			assert.NotPanics(t, func() {
				assert.Equal(t, tt.stored, p.Reveal(tt.stored, true))
			})
			assert.Equal(t, []FallbackReason{tt.reason}, reasons)
		})
	}
}

func TestReveal_NilHookIsFine(t *testing.T) {
	p := newProtector(t)
	assert.Equal(t, "plain", p.Reveal("plain", true))
}

func TestLooksEncrypted(t *testing.T) {
	smallest := base64.StdEncoding.EncodeToString(make([]byte, 28))
	require.Len(t, smallest, 40)

	assert.True(t, LooksEncrypted(smallest))
	assert.False(t, LooksEncrypted(smallest[:36]), "too short")
	assert.False(t, LooksEncrypted(smallest+"A"), "not a multiple of 4")
	assert.False(t, LooksEncrypted(strings.Repeat("a b!", 10)), "outside alphabet")
	assert.False(t, LooksEncrypted(""))
}

func TestMask(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "****"},
		{"12345678", "****"},
		{"123456789", "1234********6789"},
		{"secret123456", "secr********3456"},
		{"пароль-секрет", "паро********крет"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Mask(tt.in), tt.in)
	}
}

func TestPreview(t *testing.T) {
	long := strings.Repeat("é", PreviewRunes+5)

	assert.Equal(t, "secr********3456", Preview("secret123456", true))
	assert.Equal(t, "short", Preview("short", false))
	assert.Equal(t, strings.Repeat("é", PreviewRunes), Preview(long, false))
}
