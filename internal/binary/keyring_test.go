package binary

import (
	"bytes"
	"errors"
	"testing"

	"github.com/spf13/afero"

	"github.com/ZebulonRouseFrantzich/esptools/internal/testutil"
)

func TestLoadKeyring(t *testing.T) {
	entity := testutil.NewSigningEntity(t)

	tests := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{
			name:    "armored_public_key",
			data:    testutil.ArmoredPublicKey(t, entity),
			wantErr: false,
		},
		{
			name:    "garbage",
			data:    []byte("not a keyring"),
			wantErr: true,
		},
		{
			name:    "empty",
			data:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keyring, err := LoadKeyring(tt.data)

			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(keyring) != 1 {
				t.Errorf("expected 1 entity, got %d", len(keyring))
			}
		})
	}
}

func TestLoadKeyringFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	entity := testutil.NewSigningEntity(t)

	if err := afero.WriteFile(fs, "/keys/release.asc", testutil.ArmoredPublicKey(t, entity), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if _, err := LoadKeyringFile(fs, "/keys/release.asc"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if _, err := LoadKeyringFile(fs, "/keys/missing.asc"); err == nil {
		t.Error("expected error for missing keyring")
	}
}

func TestSignAndVerifySignature(t *testing.T) {
	entity := testutil.NewSigningEntity(t)

	signer, err := LoadSigner(testutil.ArmoredPrivateKey(t, entity))
	if err != nil {
		t.Fatalf("LoadSigner failed: %v", err)
	}

	keyring, err := LoadKeyring(testutil.ArmoredPublicKey(t, entity))
	if err != nil {
		t.Fatalf("LoadKeyring failed: %v", err)
	}

	message := []byte(`{"version":1,"tools":[]}`)

	var sig bytes.Buffer
	if err := Sign(&sig, signer, message); err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	tests := []struct {
		name      string
		message   []byte
		signature []byte
		wantErr   bool
	}{
		{
			name:      "valid_signature",
			message:   message,
			signature: sig.Bytes(),
			wantErr:   false,
		},
		{
			name:      "tampered_message",
			message:   []byte(`{"version":1,"tools":["evil"]}`),
			signature: sig.Bytes(),
			wantErr:   true,
		},
		{
			name:      "garbage_signature",
			message:   message,
			signature: []byte("-----BEGIN PGP SIGNATURE-----\nbogus\n"),
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifySignature(keyring, tt.message, tt.signature)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				if !errors.Is(err, ErrSignature) {
					t.Errorf("expected ErrSignature, got %v", err)
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadSigner_PublicOnly(t *testing.T) {
	entity := testutil.NewSigningEntity(t)

	if _, err := LoadSigner(testutil.ArmoredPublicKey(t, entity)); err == nil {
		t.Error("expected error for keyring without private key")
	}
}

func TestSign_NilSigner(t *testing.T) {
	var buf bytes.Buffer
	if err := Sign(&buf, nil, []byte("message")); err == nil {
		t.Error("expected error for nil signer")
	}
}
