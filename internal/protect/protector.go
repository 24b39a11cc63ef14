// Package protect applies at-rest encryption and list-view masking to entry
// content.
package protect

import (
	"encoding/base64"
	"fmt"
	"regexp"

	"github.com/ShubhamGupta2412/vaultboard/internal/common"
	"github.com/ShubhamGupta2412/vaultboard/internal/cryptox"
)

const (
	// MinSecretLen is the shortest secret New accepts.
	MinSecretLen = 32

	// PreviewRunes is the list-view truncation length for non-sensitive content.
	PreviewRunes = 120

	keyInfo   = "vaultboard/content/v1"
	maskFill  = "********"
	maskShort = "****"
)

// minEncodedLen is the base64 length of an empty-plaintext ciphertext.
var minEncodedLen = base64.StdEncoding.EncodedLen(cryptox.NonceSize + cryptox.Overhead)

var base64Shape = regexp.MustCompile(`^[A-Za-z0-9+/]+={0,2}$`)

// FallbackReason tells the OnFallback hook why Reveal returned stored text.
type FallbackReason string

const (
	FallbackNotEncrypted FallbackReason = "not_encrypted"
	FallbackDecode       FallbackReason = "decode"
	FallbackDecrypt      FallbackReason = "decrypt"
)

// Protector encrypts and reveals sensitive content with a key derived from
// the configured secret.
type Protector struct {
	key        []byte
	onFallback func(FallbackReason)
}

type Option func(*Protector)

// WithFallbackHook registers fn to be called whenever Reveal cannot decrypt
// and returns the stored text instead.
func WithFallbackHook(fn func(FallbackReason)) Option {
	return func(p *Protector) { p.onFallback = fn }
}

func New(secret []byte, opts ...Option) (*Protector, error) {
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("%w: need at least %d bytes", common.ErrSecretMissing, MinSecretLen)
	}
	key, err := cryptox.DeriveKey(secret, keyInfo)
	if err != nil {
		return nil, err
	}
	p := &Protector{key: key}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Protect returns plaintext unchanged when not sensitive, otherwise the
// base64 encoding of nonce || ciphertext || tag.
func (p *Protector) Protect(plaintext string, sensitive bool) (string, error) {
	if !sensitive {
		return plaintext, nil
	}
	blob, err := cryptox.Seal(p.key, []byte(plaintext))
	if err != nil {
		return "", fmt.Errorf("seal content: %w", err)
	}
	return base64.StdEncoding.EncodeToString(blob), nil
}

// Reveal undoes Protect. It never fails: legacy plaintext and undecryptable
// values are returned verbatim and reported to the fallback hook.
func (p *Protector) Reveal(stored string, sensitive bool) string {
	if !sensitive {
		return stored
	}
	if !LooksEncrypted(stored) {
		p.fallback(FallbackNotEncrypted)
		return stored
	}
	blob, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		p.fallback(FallbackDecode)
		return stored
	}
	plain, err := cryptox.Open(p.key, blob)
	if err != nil {
		p.fallback(FallbackDecrypt)
		return stored
	}
	return string(plain)
}

func (p *Protector) fallback(r FallbackReason) {
	if p.onFallback != nil {
		p.onFallback(r)
	}
}

// LooksEncrypted reports whether s has the shape of a Protect output.
// Plaintext can look encrypted; Reveal handles that by falling back.
func LooksEncrypted(s string) bool {
	return len(s) >= minEncodedLen && len(s)%4 == 0 && base64Shape.MatchString(s)
}

// Mask hides content for list views: eight runes or fewer become "****",
// longer content keeps its first and last four runes.
func Mask(content string) string {
	r := []rune(content)
	if len(r) <= 8 {
		return maskShort
	}
	return string(r[:4]) + maskFill + string(r[len(r)-4:])
}

// Preview is the list-view rendering of already revealed content.
func Preview(content string, sensitive bool) string {
	if sensitive {
		return Mask(content)
	}
	r := []rune(content)
	if len(r) <= PreviewRunes {
		return content
	}
	return string(r[:PreviewRunes])
}
