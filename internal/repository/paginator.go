package repository

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPaginationToken is returned when a page token cannot be decoded.
var ErrInvalidPaginationToken = errors.New("invalid page token")

// DefaultPaginationLimit is the batch size used when a caller asks for none.
const DefaultPaginationLimit = 100

const (
	maxPaginationLimit = 100
	tokenPrefix        = "id:"
)

// Paginator is keyset pagination state: the next page holds ids greater than LastID.
type Paginator struct {
	LastID int64
}

// Encode renders the paginator as an opaque token safe to pass in a query string.
func (p Paginator) Encode() string {
	return base64.RawURLEncoding.EncodeToString([]byte(tokenPrefix + strconv.FormatInt(p.LastID, 10)))
}

// DecodePageToken parses a token produced by Paginator.Encode. Every failure
// wraps ErrInvalidPaginationToken.
func DecodePageToken(token string) (*Paginator, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPaginationToken, err)
	}

	rest, ok := strings.CutPrefix(string(raw), tokenPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: missing %q prefix", ErrInvalidPaginationToken, tokenPrefix)
	}

	lastID, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPaginationToken, err)
	}
	if lastID < 0 {
		return nil, fmt.Errorf("%w: negative id %d", ErrInvalidPaginationToken, lastID)
	}

	return &Paginator{LastID: lastID}, nil
}
