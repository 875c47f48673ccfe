package apikey

import "testing"

func TestHashKey_DeterministicAndDistinct(t *testing.T) {
	a := HashKey("my-secret-key")
	b := HashKey("my-secret-key")
	if a != b {
		t.Errorf("HashKey not deterministic: %q != %q", a, b)
	}
	if c := HashKey("a-different-key"); c == a {
		t.Errorf("HashKey should differ for distinct inputs")
	}
}

func TestHashKey_IsHexSHA256Length(t *testing.T) {
	h := HashKey("x")
	if len(h) != 64 {
		t.Errorf("HashKey length = %d, want 64 hex chars", len(h))
	}
}

func TestGenerateRawKey_UniqueAndHexEncoded(t *testing.T) {
	a := generateRawKey()
	b := generateRawKey()
	if a == b {
		t.Errorf("expected two independently generated keys to differ")
	}
	if len(a) != 64 {
		t.Errorf("generateRawKey() length = %d, want 64 hex chars for 32 bytes", len(a))
	}
}

func TestKeyInfo_CanRefresh_UnrestrictedWhenClaimEmpty(t *testing.T) {
	k := KeyInfo{}
	if !k.CanRefresh("docs") {
		t.Errorf("a key with no AllowedProperties claim should authorize any searchProperty")
	}
}

func TestKeyInfo_CanRefresh_ScopedToClaim(t *testing.T) {
	k := KeyInfo{AllowedProperties: []string{"docs", "blog"}}
	if !k.CanRefresh("blog") {
		t.Errorf("expected blog to be authorized")
	}
	if k.CanRefresh("admin") {
		t.Errorf("expected admin to be rejected, not in claim")
	}
}
