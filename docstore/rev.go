package docstore

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// NextRev produces the successor revision token for embedded stores: a
// monotonically increasing generation number joined to a fresh ULID suffix.
// The generation of a malformed previous token is treated as zero.
func NextRev(prev string, now time.Time) (string, error) {
	gen := int64(0)
	if prev != "" {
		head, _, ok := strings.Cut(prev, "-")
		if ok {
			if n, err := strconv.ParseInt(head, 10, 64); err == nil {
				gen = n
			}
		}
	}

	id, err := ulid.New(ulid.Timestamp(now), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return "", ErrBadDocument.WithCause(err)
	}

	return fmt.Sprintf("%d-%s", gen+1, strings.ToLower(id.String())), nil
}
