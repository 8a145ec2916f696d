package evidence

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

func writeKeyring(t *testing.T, armored bool) (string, *openpgp.Entity) {
	t.Helper()
	entity, err := openpgp.NewEntity("wipetrace evidence", "", "evidence@wipetrace.local", nil)
	if err != nil {
		t.Fatalf("generate entity: %v", err)
	}

	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	if err != nil {
		t.Fatalf("armor encode: %v", err)
	}
	if err := entity.Serialize(w); err != nil {
		t.Fatalf("serialize public key: %v", err)
	}
	w.Close()

	path := filepath.Join(t.TempDir(), "keyring.asc")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write keyring: %v", err)
	}
	return path, entity
}

func writePrivateKeyring(t *testing.T, entity *openpgp.Entity) string {
	t.Helper()
	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PrivateKeyType, nil)
	if err != nil {
		t.Fatalf("armor encode: %v", err)
	}
	if err := entity.SerializePrivate(w, nil); err != nil {
		t.Fatalf("serialize private key: %v", err)
	}
	w.Close()

	path := filepath.Join(t.TempDir(), "private.asc")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write private keyring: %v", err)
	}
	return path
}

func TestSealThenVerifyRoundTrips(t *testing.T) {
	pubPath, entity := writeKeyring(t, true)
	privPath := writePrivateKeyring(t, entity)

	doc := []byte(`{"session_id":"SID-DEADBEEF","verdict":"HIGH"}`)
	sigPath := filepath.Join(t.TempDir(), "result.json.sig")

	if err := Seal(doc, privPath, sigPath); err != nil {
		t.Fatalf("seal: %v", err)
	}
	if err := Verify(doc, pubPath, sigPath); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestVerifyRejectsTamperedDocument(t *testing.T) {
	pubPath, entity := writeKeyring(t, true)
	privPath := writePrivateKeyring(t, entity)

	doc := []byte(`{"session_id":"SID-DEADBEEF","verdict":"HIGH"}`)
	sigPath := filepath.Join(t.TempDir(), "result.json.sig")

	if err := Seal(doc, privPath, sigPath); err != nil {
		t.Fatalf("seal: %v", err)
	}

	tampered := []byte(`{"session_id":"SID-DEADBEEF","verdict":"NEGLIGIBLE"}`)
	if err := Verify(tampered, pubPath, sigPath); err == nil {
		t.Fatalf("want verification to fail for a tampered document")
	}
}
