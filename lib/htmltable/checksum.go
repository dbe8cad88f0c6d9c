package htmltable

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"slices"
	"strings"
)

// ChecksumRecords hashes a record set independently of insertion
// order: records are serialized sorted by identity, so two snapshots
// holding the same records always produce the same checksum. Used for
// idempotent re-ingestion detection, not integrity against tampering.
func ChecksumRecords(records []Record) string {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b Record) int {
		return strings.Compare(a.Identity, b.Identity)
	})

	// map keys marshal in sorted order, which keeps this deterministic
	encoded, err := json.Marshal(sorted)
	if err != nil {
		return ""
	}
	sum := md5.Sum(encoded)
	return hex.EncodeToString(sum[:])
}
