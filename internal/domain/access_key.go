package domain

// AccessKey gates artist registration. Operators provision keys with a
// use budget; each successful registration spends one use.
type AccessKey struct {
	Syncable
	Code        string `json:"code"` // Stored uppercase
	CurrentUses int    `json:"current_uses"`
	MaxUses     int    `json:"max_uses"`
	CreatedBy   string `json:"created_by,omitempty"` // Operator user ID
	Note        string `json:"note,omitempty"`
}

// IsExhausted returns true when the key has no uses left.
func (k *AccessKey) IsExhausted() bool {
	return k.CurrentUses >= k.MaxUses
}

// RemainingUses returns how many registrations the key still covers.
func (k *AccessKey) RemainingUses() int {
	left := k.MaxUses - k.CurrentUses
	if left < 0 {
		return 0
	}
	return left
}
