package domain

// IdentityKind says which branch produced an IdentityKey.
type IdentityKind string

// Identity branches.
const (
	// IdentityNative keys on the platform post ID.
	IdentityNative IdentityKind = "native"

	// IdentityFallback keys on a hash of account, timestamp and caption prefix.
	IdentityFallback IdentityKind = "fallback"
)

// FallbackCaptionRunes is how much of the caption feeds the fallback hash.
const FallbackCaptionRunes = 120

// IdentityKey identifies one logical post across uploads.
// No two stored records share the same (AccountID, ID) pair.
type IdentityKey struct {
	AccountID string       `json:"account_id"`
	ID        string       `json:"id"`
	Kind      IdentityKind `json:"kind"`
}

// IsZero returns true if the key has not been assigned.
func (k IdentityKey) IsZero() bool {
	return k.AccountID == "" && k.ID == ""
}

// String returns "account/id".
func (k IdentityKey) String() string {
	return k.AccountID + "/" + k.ID
}
