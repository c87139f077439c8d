package crypto

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Signer signs gswap API payloads with a secp256k1 key, GalaChain style:
// the payload is serialized to canonical JSON (object keys sorted, no
// whitespace), hashed with keccak256, signed, and the 65-byte recoverable
// signature base64-encoded into the payload's "signature" field.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	publicKey  string
}

// NewSigner creates a Signer from a hex-encoded secp256k1 private key.
func NewSigner(privateKeyHex string) (*Signer, error) {
	pk, err := ethcrypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("crypto/signer: invalid private key: %w", err)
	}
	pub := base64.StdEncoding.EncodeToString(ethcrypto.CompressPubkey(&pk.PublicKey))
	return &Signer{privateKey: pk, publicKey: pub}, nil
}

// PublicKey returns the base64-encoded compressed public key that the DEX
// uses to verify signatures.
func (s *Signer) PublicKey() string {
	return s.publicKey
}

// Sign serializes payload canonically, signs its keccak256 digest, and
// returns the base64-encoded signature.
func (s *Signer) Sign(payload any) (string, error) {
	canonical, err := CanonicalJSON(payload)
	if err != nil {
		return "", fmt.Errorf("crypto/signer: canonicalize payload: %w", err)
	}

	digest := ethcrypto.Keccak256(canonical)
	sig, err := ethcrypto.Sign(digest, s.privateKey)
	if err != nil {
		return "", fmt.Errorf("crypto/signer: sign: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// CanonicalJSON serializes v with object keys sorted recursively and no
// insignificant whitespace, so the signed bytes are stable regardless of
// struct field order.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var generic any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := writeCanonical(&buf, generic); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeCanonical recursively writes value with sorted object keys.
func writeCanonical(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := writeCanonical(buf, t[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil

	case []any:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil

	case json.Number:
		buf.WriteString(t.String())
		return nil

	default:
		b, err := json.Marshal(t)
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	}
}
