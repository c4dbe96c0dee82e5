package binary

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
	"github.com/spf13/afero"
)

// ErrSignature indicates an OpenPGP detached signature did not verify.
var ErrSignature = errors.New("signature verification failed")

// LoadKeyring reads an OpenPGP keyring, armored or binary.
func LoadKeyring(data []byte) (openpgp.EntityList, error) {
	keyring, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		// Try reading as non-armored keyring
		keyring, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}

	return keyring, nil
}

// LoadKeyringFile reads an OpenPGP keyring from path.
func LoadKeyringFile(fs afero.Fs, path string) (openpgp.EntityList, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return LoadKeyring(data)
}

// VerifySignature checks a detached signature over message. Armored
// signatures are tried first, then binary ones.
func VerifySignature(keyring openpgp.KeyRing, message, signature []byte) error {
	_, err := openpgp.CheckArmoredDetachedSignature(keyring, bytes.NewReader(message), bytes.NewReader(signature), nil)
	if err != nil {
		_, err = openpgp.CheckDetachedSignature(keyring, bytes.NewReader(message), bytes.NewReader(signature), nil)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSignature, err)
	}
	return nil
}

// Sign writes an armored detached signature of message to w.
func Sign(w io.Writer, signer *openpgp.Entity, message []byte) error {
	if signer == nil || signer.PrivateKey == nil {
		return fmt.Errorf("signer has no private key")
	}
	if err := openpgp.ArmoredDetachSign(w, signer, bytes.NewReader(message), nil); err != nil {
		return fmt.Errorf("sign: %w", err)
	}
	return nil
}

// LoadSigner reads the first entity carrying a usable private key from an
// armored or binary secret keyring.
func LoadSigner(data []byte) (*openpgp.Entity, error) {
	keyring, err := LoadKeyring(data)
	if err != nil {
		return nil, err
	}
	for _, entity := range keyring {
		if entity.PrivateKey != nil && !entity.PrivateKey.Encrypted {
			return entity, nil
		}
	}
	return nil, fmt.Errorf("keyring has no unencrypted private key")
}
