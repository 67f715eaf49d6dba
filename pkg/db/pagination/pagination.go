package pagination

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 200
)

var ErrInvalidPageToken = errors.New("invalid_page_token")

// Pagination carries cursor parameters bound from query strings.
type Pagination struct {
	PageToken string `form:"page_token" json:"page_token"`
	PageSize  int    `form:"page_size" json:"page_size"`
}

// PageInfo is embedded into list responses.
type PageInfo struct {
	NextPageToken string `json:"next_page_token,omitempty"`
}

// Limit normalizes the requested page size.
func (p Pagination) Limit() int {
	size := p.PageSize
	if size <= 0 {
		return DefaultPageSize
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}

// EncodeToken encodes a numeric cursor into an opaque page token.
func EncodeToken(id int64) string {
	if id == 0 {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(id, 10)))
}

// DecodeToken decodes an opaque page token back into a numeric cursor.
// An empty token decodes to zero, meaning "start from the beginning".
func DecodeToken(token string) (int64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, ErrInvalidPageToken
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || id < 0 {
		return 0, ErrInvalidPageToken
	}
	return id, nil
}
