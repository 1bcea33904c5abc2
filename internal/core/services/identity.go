package services

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
)

// fallbackNamespace scopes name-based fallback identities.
var fallbackNamespace = uuid.MustParse("6f1c2a4e-8d3b-5f70-9a41-2c7e0b5d9e13")

// DeriveIdentity computes the key a record is stored under.
//
// With a platform post ID the key is (account, post ID). Without one the
// key is a SHA-1 name-based UUID over the account, the UTC timestamp and
// the first domain.FallbackCaptionRunes runes of the caption, so the same
// post re-exported without IDs maps to the same key on every upload.
func DeriveIdentity(accountID, postID string, timestamp time.Time, caption string) domain.IdentityKey {
	accountID = strings.TrimSpace(accountID)
	postID = strings.TrimSpace(postID)

	if postID != "" {
		return nativeIdentity(accountID, postID)
	}
	return fallbackIdentity(accountID, timestamp, caption)
}

func nativeIdentity(accountID, postID string) domain.IdentityKey {
	return domain.IdentityKey{
		AccountID: accountID,
		ID:        postID,
		Kind:      domain.IdentityNative,
	}
}

func fallbackIdentity(accountID string, timestamp time.Time, caption string) domain.IdentityKey {
	name := strings.Join([]string{
		accountID,
		timestamp.UTC().Format(time.RFC3339Nano),
		truncateRunes(strings.TrimSpace(caption), domain.FallbackCaptionRunes),
	}, "\x1f")

	return domain.IdentityKey{
		AccountID: accountID,
		ID:        uuid.NewSHA1(fallbackNamespace, []byte(name)).String(),
		Kind:      domain.IdentityFallback,
	}
}

// truncateRunes returns at most n runes of s.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
