package winery

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IDPrefix marks winery identifiers so they can't be confused with other entities.
const IDPrefix = "ry_"

type Winery struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	CreatedAtUTC time.Time  `json:"createdAtUtc"`
	UpdatedAtUTC *time.Time `json:"updatedAtUtc"`
}

// New builds a winery with a fresh id. The name is stored trimmed.
func New(name string) Winery {
	return Winery{
		ID:           NewID(),
		Name:         strings.TrimSpace(name),
		CreatedAtUTC: time.Now().UTC(),
	}
}

// NewID returns IDPrefix followed by a time-ordered UUIDv7.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does.
		id = uuid.New()
	}
	return IDPrefix + id.String()
}

// ParseID validates that s is a winery id and returns it unchanged.
func ParseID(s string) (string, error) {
	rest, ok := strings.CutPrefix(s, IDPrefix)
	if !ok {
		return "", fmt.Errorf("%w: missing %q prefix", ErrInvalidID, IDPrefix)
	}
	u, err := uuid.Parse(rest)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	// uuid.Parse also accepts braced, urn, undashed and upper-case forms.
	if u.String() != rest {
		return "", fmt.Errorf("%w: %q is not in canonical form", ErrInvalidID, rest)
	}
	return s, nil
}

// NormalizeName is the uniqueness key: two names collide when their
// normalized forms are equal.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
