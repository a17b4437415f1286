// Package dedup computes canonical identity hashes for parsed leads and
// tracks which hashes have already been ingested. The presence of a hash in
// processed_lead_hashes is the sole authority for "already ingested".
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"dealerportal_backend/internal/adf"
	"dealerportal_backend/platform/phone"
)

// IdentityHash returns a deterministic fingerprint of a lead's core identity:
// customer first/last name, email, phone, and vehicle year/make/model.
// Fields are normalized (trimmed, lower-cased, inner whitespace collapsed,
// phone to E.164) so incidental formatting differences between duplicate
// submissions hash identically. Absent fields normalize to the empty string.
// Non-identity fields (comments, trim, colors) do not participate.
func IdentityHash(lead *adf.ParsedLead) string {
	parts := []string{
		normalize(lead.FirstName),
		normalize(lead.LastName),
		normalize(lead.Email),
		normalize(phone.NormalizeE164(lead.Phone)),
		normalize(lead.Vehicle.Year),
		normalize(lead.Vehicle.Make),
		normalize(lead.Vehicle.Model),
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func normalize(value string) string {
	return strings.ToLower(strings.Join(strings.Fields(value), " "))
}
