package bridge

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/fardream/go-bcs/bcs"
	"golang.org/x/crypto/sha3"
)

// messageVersion is bumped whenever the canonical wire layout changes; the
// signer and this verifier must agree on it.
const messageVersion = 1

const bridgedAssetDomain = "mintgate/bridged-asset:v1"

// InboundMessage is the relay-delivered attestation that an asset was locked
// on an origin chain. The threshold signer signs the canonical BCS encoding
// of these fields; any byte difference invalidates the signature.
type InboundMessage struct {
	OriginChainID ChainID `json:"originChainId"`
	OriginTxHash  string  `json:"originTxHash"`
	Recipient     string  `json:"recipient"`
	TokenRef      string  `json:"tokenRef"`
	MetadataURI   string  `json:"metadataUri"`
	DisplayName   string  `json:"displayName"`
	Symbol        string  `json:"symbol"`
	OriginalOwner string  `json:"originalOwner"`
	Nonce         uint64  `json:"nonce"`
}

// wireMessage fixes the field order of the canonical encoding. BCS has no
// map or field-name ambiguity, so equal structs always encode to equal bytes.
type wireMessage struct {
	Version       uint8
	OriginChainID uint64
	OriginTxHash  []byte
	Recipient     string
	TokenRef      string
	MetadataURI   string
	DisplayName   string
	Symbol        string
	OriginalOwner string
	Nonce         uint64
}

// CanonicalBytes returns the exact byte sequence the trusted signer signs.
func (m *InboundMessage) CanonicalBytes() ([]byte, error) {
	txHash, err := decodeTxHash(m.OriginTxHash)
	if err != nil {
		return nil, err
	}
	return bcs.Marshal(&wireMessage{
		Version:       messageVersion,
		OriginChainID: uint64(m.OriginChainID),
		OriginTxHash:  txHash,
		Recipient:     m.Recipient,
		TokenRef:      m.TokenRef,
		MetadataURI:   m.MetadataURI,
		DisplayName:   m.DisplayName,
		Symbol:        m.Symbol,
		OriginalOwner: m.OriginalOwner,
		Nonce:         m.Nonce,
	})
}

// ReceiptKey returns the replay guard key for this message, with the tx hash
// normalized so differently-cased submissions of the same hash collide.
func (m *InboundMessage) ReceiptKey() ReceiptKey {
	return ReceiptKey{
		OriginChainID: m.OriginChainID,
		OriginTxHash:  NormalizeTxHash(m.OriginTxHash),
		Nonce:         m.Nonce,
	}
}

func (m *InboundMessage) validate() error {
	if m.Recipient == "" || m.OriginChainID == LocalChain {
		return ErrInvalidRequest
	}
	if _, err := decodeTxHash(m.OriginTxHash); err != nil {
		return err
	}
	return nil
}

// NormalizeTxHash lowercases a 0x-prefixed hash for use in map keys.
func NormalizeTxHash(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

func decodeTxHash(h string) ([]byte, error) {
	h = strings.TrimPrefix(NormalizeTxHash(h), "0x")
	if h == "" {
		return nil, ErrInvalidRequest
	}
	raw, err := hex.DecodeString(h)
	if err != nil {
		return nil, ErrInvalidRequest
	}
	return raw, nil
}

// DeriveBridgedAssetID deterministically derives the local asset identifier
// for a first-arrival bridged asset from its origin transaction. Replaying
// the same origin message always targets the same local record, which keeps
// reception idempotent.
func DeriveBridgedAssetID(originChainID ChainID, originTxHash string) (string, error) {
	txHash, err := decodeTxHash(originTxHash)
	if err != nil {
		return "", err
	}
	var chainBE [8]byte
	binary.BigEndian.PutUint64(chainBE[:], uint64(originChainID))

	buf := make([]byte, 0, len(bridgedAssetDomain)+8+len(txHash))
	buf = append(buf, bridgedAssetDomain...)
	buf = append(buf, chainBE[:]...)
	buf = append(buf, txHash...)
	return fmt.Sprintf("0x%x", Keccak256(buf)), nil
}

// Keccak256 hashes data with the legacy Keccak-256 used by EVM chains.
func Keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}
