package integrity

import (
	"fmt"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/open-edge-platform/formula-installer/internal/formula"
	"github.com/open-edge-platform/formula-installer/internal/utils/logger"
)

// VerifySignature checks an armored detached OpenPGP signature of the file at
// path against the armored public key ring in publicKeyPath.
func VerifySignature(path, signaturePath, publicKeyPath string) error {
	log := logger.Logger()

	keyFile, err := os.Open(publicKeyPath)
	if err != nil {
		return fmt.Errorf("opening public key %s: %w", publicKeyPath, err)
	}
	defer keyFile.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(keyFile)
	if err != nil {
		return fmt.Errorf("reading public key %s: %w", publicKeyPath, err)
	}

	signed, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer signed.Close()

	sig, err := os.Open(signaturePath)
	if err != nil {
		return fmt.Errorf("opening signature %s: %w", signaturePath, err)
	}
	defer sig.Close()

	signer, err := openpgp.CheckArmoredDetachedSignature(keyring, signed, sig, nil)
	if err != nil {
		return fmt.Errorf("%w: signature of %s does not verify: %v", formula.ErrIntegrity, path, err)
	}

	for name := range signer.Identities {
		log.Infof("signature of %s verified, signed by %s", path, name)
		break
	}
	return nil
}
