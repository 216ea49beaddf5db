package importer

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"
)

// refSeparator joins cells when hashing a line. It cannot appear in typical
// CSV text.
const refSeparator = "\x1f"

// referencer assigns reference numbers to the rows of one file.
type referencer struct {
	seen map[string]int
}

func newReferencer() *referencer {
	return &referencer{seen: make(map[string]int)}
}

// assign returns the bank-provided reference when present, otherwise a hash
// of the line content and how many times that content has occurred so far.
// It must be called for every data row in file order.
func (r *referencer) assign(rec []string, cols Columns) string {
	key := strings.Join(rec, refSeparator)
	r.seen[key]++
	occurrence := r.seen[key]

	if cols.Reference >= 0 && cols.Reference < len(rec) {
		if ref := strings.TrimSpace(rec[cols.Reference]); ref != "" {
			return ref
		}
	}
	return HashReference(rec, occurrence)
}

// HashReference derives a reference number from a CSV line and the 1-based
// occurrence of identical lines in the same file.
func HashReference(rec []string, occurrence int) string {
	key := strings.Join(rec, refSeparator) + refSeparator + strconv.Itoa(occurrence)
	sum := xxh3.HashString128(key).Bytes()
	return hex.EncodeToString(sum[:])
}
