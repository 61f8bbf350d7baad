package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ContentHash fingerprints an ordered category list. Two lists hash equal
// only when every field of every category matches in the same order.
func ContentHash(categories []Category) string {
	h := sha256.New()
	for _, c := range categories {
		fmt.Fprintf(h, "%s|%s|%s|%s|%s\n", c.ID, c.Name, c.Icon, c.Slug, c.Image)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// SourceHash fingerprints the upstream records a list was built from. It
// does not depend on synthetic ids or randomly chosen images, so the same
// payload always hashes the same.
func SourceHash(raws []RawCategory) string {
	data, err := json.Marshal(raws)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
