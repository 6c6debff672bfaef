package invitation

import (
	"crypto/rand"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	slugTokenLength = 6
	maxSlugPart     = 32
	fallbackPrefix  = "undangan"
	base62          = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// slugify reduces s to lower-case ASCII words joined by dashes. Accents are
// stripped; anything else outside [a-z0-9] separates words.
func slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}

	out := b.String()
	if len(out) > maxSlugPart {
		out = strings.TrimRight(out[:maxSlugPart], "-")
	}
	return out
}

// randomToken returns n characters drawn uniformly from base62.
func randomToken(n int) (string, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, n*2)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, c := range buf {
			// 248 is the largest multiple of 62 below 256.
			if c >= 248 {
				continue
			}
			out = append(out, base62[int(c)%len(base62)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// buildSlug joins the couple's names with token, e.g. "siti-budi-x4Tq9a".
func buildSlug(bride, groom, token string) string {
	parts := make([]string, 0, 3)
	for _, name := range []string{bride, groom} {
		if s := slugify(name); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		parts = append(parts, fallbackPrefix)
	}
	return strings.Join(append(parts, token), "-")
}
