// Package evidence seals a completed result document with a detached
// OpenPGP signature, giving a chain-of-custody artifact that proves the
// document was produced by this scanner and has not been altered since.
package evidence

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

// Seal produces an ASCII-armored detached signature over docData using
// the first entity in the keyring at keyringPath, and writes it to
// sigPath. That first entity must carry a private key; later entities
// are not tried.
func Seal(docData []byte, keyringPath, sigPath string) error {
	keyring, err := loadKeyring(keyringPath)
	if err != nil {
		return err
	}
	if len(keyring) == 0 {
		return fmt.Errorf("seal evidence: keyring %s has no keys", keyringPath)
	}

	var sigBuf bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&sigBuf, keyring[0], bytes.NewReader(docData), nil); err != nil {
		return fmt.Errorf("seal evidence: sign: %w", err)
	}

	if err := os.WriteFile(sigPath, sigBuf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("seal evidence: write signature %s: %w", sigPath, err)
	}
	return nil
}

// Verify checks a detached signature file against docData and the public
// keys in the keyring, returning an error if the signature does not
// verify against any key in the ring.
func Verify(docData []byte, keyringPath, sigPath string) error {
	keyring, err := loadKeyring(keyringPath)
	if err != nil {
		return err
	}

	sigFile, err := os.Open(sigPath)
	if err != nil {
		return fmt.Errorf("verify evidence: open signature %s: %w", sigPath, err)
	}
	defer sigFile.Close()

	block, err := armor.Decode(sigFile)
	if err != nil {
		return fmt.Errorf("verify evidence: decode signature: %w", err)
	}

	if _, err := openpgp.CheckDetachedSignature(keyring, bytes.NewReader(docData), block.Body, nil); err != nil {
		return fmt.Errorf("verify evidence: signature does not verify: %w", err)
	}
	return nil
}

func loadKeyring(path string) (openpgp.EntityList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load keyring %s: %w", path, err)
	}
	defer f.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		return nil, fmt.Errorf("parse keyring %s: %w", path, err)
	}
	return keyring, nil
}
