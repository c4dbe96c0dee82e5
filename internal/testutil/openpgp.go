package testutil

import (
	"bytes"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
)

// NewSigningEntity generates a fast EdDSA key pair for signing tests.
func NewSigningEntity(t *testing.T) *openpgp.Entity {
	t.Helper()

	entity, err := openpgp.NewEntity("esptools test", "", "test@example.com", &packet.Config{
		Algorithm: packet.PubKeyAlgoEdDSA,
	})
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	return entity
}

// ArmoredPublicKey serializes the public half of entity.
func ArmoredPublicKey(t *testing.T, entity *openpgp.Entity) []byte {
	t.Helper()
	return armorKey(t, openpgp.PublicKeyType, func(w *bytes.Buffer) error {
		aw, err := armor.Encode(w, openpgp.PublicKeyType, nil)
		if err != nil {
			return err
		}
		if err := entity.Serialize(aw); err != nil {
			return err
		}
		return aw.Close()
	})
}

// ArmoredPrivateKey serializes the private half of entity.
func ArmoredPrivateKey(t *testing.T, entity *openpgp.Entity) []byte {
	t.Helper()
	return armorKey(t, openpgp.PrivateKeyType, func(w *bytes.Buffer) error {
		aw, err := armor.Encode(w, openpgp.PrivateKeyType, nil)
		if err != nil {
			return err
		}
		if err := entity.SerializePrivate(aw, nil); err != nil {
			return err
		}
		return aw.Close()
	})
}

func armorKey(t *testing.T, blockType string, write func(*bytes.Buffer) error) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		t.Fatalf("failed to armor %s: %v", blockType, err)
	}
	return buf.Bytes()
}
