package bridge

import (
	"sort"
	"time"
)

// ChainID identifies an external ledger using EVM-style numeric chain IDs.
type ChainID uint64

// LocalChain marks assets native to this ledger (originChainId == 0).
const LocalChain ChainID = 0

// KeyScheme selects the signature scheme a PublicKey belongs to.
type KeyScheme string

const (
	KeySchemeEd25519   KeyScheme = "ed25519"
	KeySchemeSecp256k1 KeyScheme = "secp256k1"
)

// PublicKey is the trusted signer's verification key, tagged by scheme.
type PublicKey struct {
	Scheme KeyScheme `json:"scheme"`
	Bytes  []byte    `json:"bytes"`
}

// Equal reports whether two keys are the same scheme and bytes.
func (k PublicKey) Equal(other PublicKey) bool {
	if k.Scheme != other.Scheme || len(k.Bytes) != len(other.Bytes) {
		return false
	}
	for i := range k.Bytes {
		if k.Bytes[i] != other.Bytes[i] {
			return false
		}
	}
	return true
}

// TransferStatus tracks the outbound transfer lifecycle.
type TransferStatus string

const (
	TransferStatusPending   TransferStatus = "pending"
	TransferStatusCompleted TransferStatus = "completed"
	TransferStatusFailed    TransferStatus = "failed"
)

// Terminal reports whether a status admits no further transitions.
func (s TransferStatus) Terminal() bool {
	return s == TransferStatusCompleted || s == TransferStatusFailed
}

// ProgramConfig is the singleton deployment configuration. It is created once
// by Initialize and mutated only through coordinator operations gated by
// Authority. Paused gates transfer operations only, never reads.
type ProgramConfig struct {
	Authority               string               `json:"authority"`
	TrustedSignerKey        PublicKey            `json:"trustedSignerKey"`
	RelayIdentifier         string               `json:"relayIdentifier"`
	SupportedChainIDs       map[ChainID]struct{} `json:"-"`
	Paused                  bool                 `json:"paused"`
	TotalAssetsRegistered   uint64               `json:"totalAssetsRegistered"`
	TotalTransfersInitiated uint64               `json:"totalTransfersInitiated"`
	CreatedAt               time.Time            `json:"createdAt"`
}

// SupportedChains returns the supported destination chains in ascending order.
func (c *ProgramConfig) SupportedChains() []ChainID {
	out := make([]ChainID, 0, len(c.SupportedChainIDs))
	for id := range c.SupportedChainIDs {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (c *ProgramConfig) supports(id ChainID) bool {
	_, ok := c.SupportedChainIDs[id]
	return ok
}

// clone returns a deep copy safe to hand out after the service lock is released.
func (c *ProgramConfig) clone() *ProgramConfig {
	cp := *c
	cp.SupportedChainIDs = make(map[ChainID]struct{}, len(c.SupportedChainIDs))
	for id := range c.SupportedChainIDs {
		cp.SupportedChainIDs[id] = struct{}{}
	}
	cp.TrustedSignerKey.Bytes = append([]byte(nil), c.TrustedSignerKey.Bytes...)
	return &cp
}

// AssetRecord is the registry entry for one bridgeable asset. The record is
// permanent provenance: it is created once by the mint operation and never
// deleted. Locked is true while an outbound transfer is in flight or the
// asset's canonical custody lives on another chain.
type AssetRecord struct {
	AssetID            string    `json:"assetId"`
	OriginalOwner      string    `json:"originalOwner"`
	CurrentOwner       string    `json:"currentOwner"`
	MetadataURI        string    `json:"metadataUri"`
	DisplayName        string    `json:"displayName"`
	Symbol             string    `json:"symbol"`
	CrossChainEligible bool      `json:"crossChainEligible"`
	Locked             bool      `json:"locked"`
	OriginChainID      ChainID   `json:"originChainId"`
	CreatedAt          time.Time `json:"createdAt"`
}

// TransferRecord is one outbound transfer attempt, keyed by (assetId, nonce).
// Immutable after creation except for the Pending -> Completed/Failed status
// transition. The external relay consumes Pending records to carry the
// message to the destination chain.
type TransferRecord struct {
	AssetID            string         `json:"assetId"`
	InitiatingOwner    string         `json:"initiatingOwner"`
	DestinationChainID ChainID        `json:"destinationChainId"`
	DestinationAddress []byte         `json:"destinationAddress"`
	Nonce              uint64         `json:"nonce"`
	Status             TransferStatus `json:"status"`
	CreatedAt          time.Time      `json:"createdAt"`
}

// ReceiptKey is the replay guard's key space: globally unique per inbound
// message.
type ReceiptKey struct {
	OriginChainID ChainID `json:"originChainId"`
	OriginTxHash  string  `json:"originTxHash"`
	Nonce         uint64  `json:"nonce"`
}

// ReceiptRecord proves that a specific inbound message was validated and
// applied exactly once. Immutable after creation.
type ReceiptRecord struct {
	AssetID               string    `json:"assetId"`
	OriginChainID         ChainID   `json:"originChainId"`
	OriginTxHash          string    `json:"originTxHash"`
	Recipient             string    `json:"recipient"`
	OriginalOwnerOnOrigin string    `json:"originalOwnerOnOrigin"`
	Nonce                 uint64    `json:"nonce"`
	Verified              bool      `json:"verified"`
	CreatedAt             time.Time `json:"createdAt"`
}

// Key returns the replay guard key for this receipt.
func (r *ReceiptRecord) Key() ReceiptKey {
	return ReceiptKey{OriginChainID: r.OriginChainID, OriginTxHash: r.OriginTxHash, Nonce: r.Nonce}
}

type transferKey struct {
	assetID string
	nonce   uint64
}
