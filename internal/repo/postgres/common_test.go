package postgres

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/mosaic-labs/mosaic-go/internal/domain"
	"github.com/mosaic-labs/mosaic-go/internal/repo"
)

func TestEncodeDecodeVariables(t *testing.T) {
	raw, err := encodeVariables(domain.Variables{"theme": "dark", "limit": float64(10)})
	if err != nil {
		t.Fatalf("encodeVariables() err=%v", err)
	}
	vars, err := decodeVariables(raw)
	if err != nil {
		t.Fatalf("decodeVariables() err=%v", err)
	}
	if vars["theme"] != "dark" {
		t.Fatalf("theme=%v", vars["theme"])
	}
	if vars["limit"] != float64(10) {
		t.Fatalf("limit=%v", vars["limit"])
	}
}

func TestEncodeVariablesNil(t *testing.T) {
	raw, err := encodeVariables(nil)
	if err != nil {
		t.Fatalf("encodeVariables(nil) err=%v", err)
	}
	if string(raw) != "{}" {
		t.Fatalf("encodeVariables(nil)=%s, want {}", raw)
	}
}

func TestDecodeVariablesEmpty(t *testing.T) {
	vars, err := decodeVariables(nil)
	if err != nil {
		t.Fatalf("decodeVariables(nil) err=%v", err)
	}
	if vars == nil {
		t.Fatalf("decodeVariables(nil) returned nil map")
	}
}

func TestHandleNotFound(t *testing.T) {
	if err := handleNotFound(sql.ErrNoRows); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("handleNotFound(ErrNoRows)=%v, want repo.ErrNotFound", err)
	}
	other := errors.New("connection reset")
	if err := handleNotFound(other); !errors.Is(err, other) {
		t.Fatalf("handleNotFound passed through wrong error: %v", err)
	}
}
