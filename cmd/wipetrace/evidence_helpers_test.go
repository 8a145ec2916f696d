package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

func writeTestPrivateKeyring(t *testing.T, dir string) string {
	t.Helper()
	entity, err := openpgp.NewEntity("wipetrace evidence", "", "evidence@wipetrace.local", nil)
	if err != nil {
		t.Fatalf("generate entity: %v", err)
	}

	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PrivateKeyType, nil)
	if err != nil {
		t.Fatalf("armor encode: %v", err)
	}
	if err := entity.SerializePrivate(w, nil); err != nil {
		t.Fatalf("serialize private key: %v", err)
	}
	w.Close()

	path := filepath.Join(dir, "private.asc")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write private keyring: %v", err)
	}
	return path
}
