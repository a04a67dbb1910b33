package bridge

import (
	"crypto/ed25519"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// secp256k1 signatures travel as 64-byte compact R||S over the keccak256
// digest of the message; ed25519 signs the raw message bytes.
const secp256k1SignatureLen = 64

// VerifySignature reports whether sig is a valid signature over msg by key.
// Fails closed: malformed keys, malformed signatures, and unknown schemes all
// yield false, never an error or panic that could be mistaken for success.
func VerifySignature(msg, sig []byte, key PublicKey) bool {
	switch key.Scheme {
	case KeySchemeEd25519:
		if len(key.Bytes) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
			return false
		}
		return ed25519.Verify(ed25519.PublicKey(key.Bytes), msg, sig)

	case KeySchemeSecp256k1:
		pub, err := secp256k1.ParsePubKey(key.Bytes)
		if err != nil {
			return false
		}
		if len(sig) != secp256k1SignatureLen {
			return false
		}
		var r, s secp256k1.ModNScalar
		if overflow := r.SetByteSlice(sig[:32]); overflow {
			return false
		}
		if overflow := s.SetByteSlice(sig[32:]); overflow {
			return false
		}
		if r.IsZero() || s.IsZero() {
			return false
		}
		digest := Keccak256(msg)
		return secpecdsa.NewSignature(&r, &s).Verify(digest, pub)

	default:
		return false
	}
}

// ValidatePublicKey checks that key is well formed for its scheme. Used when
// configuring or rotating the trusted signer key, so a corrupt key is caught
// at configuration time instead of silently failing every verification.
func ValidatePublicKey(key PublicKey) error {
	switch key.Scheme {
	case KeySchemeEd25519:
		if len(key.Bytes) != ed25519.PublicKeySize {
			return ErrInvalidRequest
		}
		return nil
	case KeySchemeSecp256k1:
		if _, err := secp256k1.ParsePubKey(key.Bytes); err != nil {
			return ErrInvalidRequest
		}
		return nil
	default:
		return ErrInvalidRequest
	}
}
