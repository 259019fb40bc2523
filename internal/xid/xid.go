package xid

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// New returns a prefixed identifier such as "bill-6f1c...". Identifiers are
// unique per process run and across runs; ordering is not implied.
func New(prefix string) string {
	id, err := uuid.NewRandom()
	if err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%s", prefix, id.String())
}
