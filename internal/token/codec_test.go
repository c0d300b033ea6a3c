package token

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"sync"
	"testing"
	"time"
)

var (
	testKeyOnce sync.Once
	testPrivPEM []byte
	testPubPEM  []byte
	testKeyErr  error
)

// testKeyPair generates one RSA key pair for the whole test run.
func testKeyPair(t *testing.T) (privPEM, pubPEM []byte) {
	t.Helper()

	testKeyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			testKeyErr = err
			return
		}
		testPrivPEM = pem.EncodeToMemory(&pem.Block{
			Type:  "RSA PRIVATE KEY",
			Bytes: x509.MarshalPKCS1PrivateKey(key),
		})
		pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
		if err != nil {
			testKeyErr = err
			return
		}
		testPubPEM = pem.EncodeToMemory(&pem.Block{
			Type:  "PUBLIC KEY",
			Bytes: pubDER,
		})
	})
	if testKeyErr != nil {
		t.Fatalf("generating test key pair: %v", testKeyErr)
	}
	return testPrivPEM, testPubPEM
}

func testCodec(t *testing.T) *Codec {
	t.Helper()

	privPEM, pubPEM := testKeyPair(t)
	codec, err := New(privPEM, pubPEM)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return codec
}

type testIdentity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

func TestIssue_RoundTrip(t *testing.T) {
	codec := testCodec(t)

	want := testIdentity{ID: 42, Username: "carol"}
	tokenString, err := codec.Issue(want, 3600)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if parts := strings.Split(tokenString, "."); len(parts) != 3 {
		t.Fatalf("token has %d segments, want 3", len(parts))
	}

	var got testIdentity
	if err := codec.Parse(tokenString, &got); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got != want {
		t.Errorf("Parse() = %+v, want %+v", got, want)
	}
}

func TestIssue_ClaimsShape(t *testing.T) {
	codec := testCodec(t)
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	codec.now = func() time.Time { return issued }

	tokenString, err := codec.Issue(testIdentity{ID: 1, Username: "a"}, 600)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := codec.Claims(tokenString)
	if err != nil {
		t.Fatalf("Claims() error = %v", err)
	}
	if claims.ID == "" {
		t.Error("claims should carry a non-empty jti")
	}
	if claims.IssuedAt != issued.Unix() {
		t.Errorf("IssuedAt = %d, want %d", claims.IssuedAt, issued.Unix())
	}
	if claims.ExpiresAt == nil {
		t.Fatal("ExpiresAt should be set for a finite TTL")
	}
	if *claims.ExpiresAt != issued.Unix()+600 {
		t.Errorf("ExpiresAt = %d, want %d", *claims.ExpiresAt, issued.Unix()+600)
	}
}

func TestIssue_FreshIdentifiers(t *testing.T) {
	codec := testCodec(t)

	first, err := codec.Issue(testIdentity{ID: 1}, 60)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	second, err := codec.Issue(testIdentity{ID: 1}, 60)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	firstClaims, err := codec.Claims(first)
	if err != nil {
		t.Fatalf("Claims() error = %v", err)
	}
	secondClaims, err := codec.Claims(second)
	if err != nil {
		t.Fatalf("Claims() error = %v", err)
	}
	if firstClaims.ID == secondClaims.ID {
		t.Error("two issued tokens should carry distinct jti values")
	}
}

func TestVerify_ValidToken(t *testing.T) {
	codec := testCodec(t)

	tokenString, err := codec.Issue(testIdentity{ID: 7, Username: "bob"}, 3600)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if !codec.Verify(tokenString) {
		t.Error("Verify() = false for a freshly issued token")
	}
}

func TestVerify_Expired(t *testing.T) {
	codec := testCodec(t)
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	codec.now = func() time.Time { return issued }

	tokenString, err := codec.Issue(testIdentity{ID: 7}, 600)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	codec.now = func() time.Time { return issued.Add(601 * time.Second) }
	if codec.Verify(tokenString) {
		t.Error("Verify() = true for an expired token")
	}
}

func TestVerify_ZeroTTLIsAlreadyExpired(t *testing.T) {
	codec := testCodec(t)

	tokenString, err := codec.Issue(testIdentity{ID: 7}, 0)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if codec.Verify(tokenString) {
		t.Error("Verify() = true for a zero-TTL token")
	}
}

func TestVerify_NoExpiry(t *testing.T) {
	codec := testCodec(t)

	tokenString, err := codec.Issue(testIdentity{ID: 7}, NoExpiry)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := codec.Claims(tokenString)
	if err != nil {
		t.Fatalf("Claims() error = %v", err)
	}
	if claims.ExpiresAt != nil {
		t.Error("NoExpiry token should not carry an exp claim")
	}

	// Still valid far in the future
	codec.now = func() time.Time { return time.Now().AddDate(100, 0, 0) }
	if !codec.Verify(tokenString) {
		t.Error("Verify() = false for a NoExpiry token in the far future")
	}
}

func TestVerify_Tampered(t *testing.T) {
	codec := testCodec(t)

	tokenString, err := codec.Issue(testIdentity{ID: 7, Username: "bob"}, 3600)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	// Flip one character in the payload segment
	parts := strings.Split(tokenString, ".")
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	if codec.Verify(tampered) {
		t.Error("Verify() = true for a tampered token")
	}
}

func TestVerify_Malformed(t *testing.T) {
	codec := testCodec(t)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"one segment", "abc"},
		{"two segments", "abc.def"},
		{"four segments", "a.b.c.d"},
		{"garbage base64", "!!!.???.###"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if codec.Verify(tt.token) {
				t.Errorf("Verify(%q) = true", tt.token)
			}
		})
	}
}

func TestParse_DoesNotRequireValidSignature(t *testing.T) {
	codec := testCodec(t)

	tokenString, err := codec.Issue(testIdentity{ID: 9, Username: "eve"}, 3600)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	// Destroy the signature segment; Parse only reads the payload.
	parts := strings.Split(tokenString, ".")
	broken := parts[0] + "." + parts[1] + ".AAAA"

	var got testIdentity
	if err := codec.Parse(broken, &got); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got.Username != "eve" {
		t.Errorf("Parse() username = %q, want %q", got.Username, "eve")
	}
	if codec.Verify(broken) {
		t.Error("Verify() = true for a broken signature")
	}
}

func TestClaims_Malformed(t *testing.T) {
	codec := testCodec(t)

	if _, err := codec.Claims("not-a-token"); err == nil {
		t.Error("Claims() should fail for a malformed token")
	}
}
