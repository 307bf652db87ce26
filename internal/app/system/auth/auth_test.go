package auth_test

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/stratacrm/internal/app/system/auth"
	"go.uber.org/zap"
)

const testKey = "test-handshake-key-must-be-32-chars-long"

func newTestCodec(t *testing.T) *auth.Codec {
	t.Helper()
	c, err := auth.NewCodec(testKey, time.Hour, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create codec: %v", err)
	}
	return c
}

func TestNewCodec_EmptyKey(t *testing.T) {
	if _, err := auth.NewCodec("", time.Hour, zap.NewNop()); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	c := newTestCodec(t)

	token, err := c.Encode(auth.Handshake{CompanyID: "acme", UserID: "u-1"})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	h, err := c.Decode(token)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if h.CompanyID != "acme" || h.UserID != "u-1" {
		t.Errorf("unexpected handshake: %+v", h)
	}

	info := h.Info()
	if info.TenantID != "acme" || info.UserID != "u-1" {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestCodec_EncodeRequiresCompany(t *testing.T) {
	c := newTestCodec(t)
	if _, err := c.Encode(auth.Handshake{UserID: "u-1"}); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestCodec_DecodeMissing(t *testing.T) {
	c := newTestCodec(t)
	if _, err := c.Decode(""); !errors.Is(err, auth.ErrMissingToken) {
		t.Errorf("expected ErrMissingToken, got %v", err)
	}
}

func TestCodec_DecodeTampered(t *testing.T) {
	c := newTestCodec(t)
	if _, err := c.Decode("not-a-real-token"); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestCodec_DecodeWrongKey(t *testing.T) {
	c := newTestCodec(t)
	other, err := auth.NewCodec("another-handshake-key-also-32-chars-long", time.Hour, zap.NewNop())
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}
	token, err := other.Encode(auth.Handshake{CompanyID: "acme"})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if _, err := c.Decode(token); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestCodec_DecodeRejectsBadTenantID(t *testing.T) {
	c := newTestCodec(t)
	token, err := c.Encode(auth.Handshake{CompanyID: "acme corp; drop"})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if _, err := c.Decode(token); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestFromRequest_QueryAndBearer(t *testing.T) {
	c := newTestCodec(t)
	token, err := c.Encode(auth.Handshake{CompanyID: "acme", UserID: "u-2"})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	req := httptest.NewRequest("GET", "/ws?token="+token, nil)
	h, err := c.FromRequest(req)
	if err != nil {
		t.Fatalf("FromRequest (query) failed: %v", err)
	}
	if h.UserID != "u-2" {
		t.Errorf("expected u-2, got %q", h.UserID)
	}

	req = httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if _, err := c.FromRequest(req); err != nil {
		t.Fatalf("FromRequest (bearer) failed: %v", err)
	}

	req = httptest.NewRequest("GET", "/ws", nil)
	if _, err := c.FromRequest(req); !errors.Is(err, auth.ErrMissingToken) {
		t.Errorf("expected ErrMissingToken, got %v", err)
	}
}
