package pagination

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	token := EncodeToken(1234567890)
	if token == "" {
		t.Fatalf("expected non-empty token")
	}
	id, err := DecodeToken(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if id != 1234567890 {
		t.Fatalf("expected 1234567890, got %d", id)
	}
}

func TestDecodeEmptyToken(t *testing.T) {
	id, err := DecodeToken("")
	if err != nil {
		t.Fatalf("decode empty: %v", err)
	}
	if id != 0 {
		t.Fatalf("expected 0, got %d", id)
	}
}

func TestDecodeInvalidToken(t *testing.T) {
	if _, err := DecodeToken("!!not-base64!!"); err != ErrInvalidPageToken {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}
}

func TestLimitBounds(t *testing.T) {
	if got := (Pagination{}).Limit(); got != DefaultPageSize {
		t.Fatalf("expected default %d, got %d", DefaultPageSize, got)
	}
	if got := (Pagination{PageSize: 1000}).Limit(); got != MaxPageSize {
		t.Fatalf("expected max %d, got %d", MaxPageSize, got)
	}
	if got := (Pagination{PageSize: 10}).Limit(); got != 10 {
		t.Fatalf("expected 10, got %d", got)
	}
}
