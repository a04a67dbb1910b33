package api

import (
	"github.com/mintgate/mintgate-backend/internal/bridge"
)

// ErrorResponse is the error payload for all API errors
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Admin requests

type InitializeRequest struct {
	Authority         string   `json:"authority"`
	RelayIdentifier   string   `json:"relayIdentifier"`
	SignerKeyScheme   string   `json:"signerKeyScheme"`
	SignerKeyHex      string   `json:"signerKeyHex"`
	SupportedChainIDs []uint64 `json:"supportedChainIds"`
}

type PauseRequest struct {
	Authority string `json:"authority"`
	Paused    bool   `json:"paused"`
}

type SignerRequest struct {
	Authority       string `json:"authority"`
	SignerKeyScheme string `json:"signerKeyScheme"`
	SignerKeyHex    string `json:"signerKeyHex"`
}

type ChainRequest struct {
	Authority string `json:"authority"`
	ChainID   uint64 `json:"chainId"`
}

// Asset requests

type RegisterAssetRequest struct {
	AssetID            string `json:"assetId"`
	Owner              string `json:"owner"`
	MetadataURI        string `json:"metadataUri"`
	DisplayName        string `json:"displayName"`
	Symbol             string `json:"symbol"`
	CrossChainEligible bool   `json:"crossChainEligible"`
}

// Transfer requests

type InitiateTransferRequest struct {
	AssetID            string `json:"assetId"`
	Owner              string `json:"owner"`
	DestinationChainID uint64 `json:"destinationChainId"`
	DestinationAddress string `json:"destinationAddress"` // 0x-prefixed hex
	Nonce              uint64 `json:"nonce"`
}

type ConfirmTransferRequest struct {
	AssetID string `json:"assetId"`
	Nonce   uint64 `json:"nonce"`
	Success bool   `json:"success"`
}

// ReceiveRequest carries a relay-attested inbound message and its signature
type ReceiveRequest struct {
	Message   bridge.InboundMessage `json:"message"`
	Signature string                `json:"signature"` // hex-encoded
}

// Response DTOs

type ConfigDTO struct {
	Authority               string   `json:"authority"`
	RelayIdentifier         string   `json:"relayIdentifier"`
	SignerKeyScheme         string   `json:"signerKeyScheme"`
	SupportedChainIDs       []uint64 `json:"supportedChainIds"`
	Paused                  bool     `json:"paused"`
	TotalAssetsRegistered   uint64   `json:"totalAssetsRegistered"`
	TotalTransfersInitiated uint64   `json:"totalTransfersInitiated"`
	CreatedAt               int64    `json:"createdAt"`
}

type AssetDTO struct {
	AssetID            string `json:"assetId"`
	OriginalOwner      string `json:"originalOwner"`
	CurrentOwner       string `json:"currentOwner"`
	MetadataURI        string `json:"metadataUri"`
	DisplayName        string `json:"displayName"`
	Symbol             string `json:"symbol"`
	CrossChainEligible bool   `json:"crossChainEligible"`
	Locked             bool   `json:"locked"`
	OriginChainID      uint64 `json:"originChainId"`
	CreatedAt          int64  `json:"createdAt"`
}

type TransferDTO struct {
	AssetID            string `json:"assetId"`
	InitiatingOwner    string `json:"initiatingOwner"`
	DestinationChainID uint64 `json:"destinationChainId"`
	DestinationAddress string `json:"destinationAddress"` // 0x-prefixed hex
	Nonce              uint64 `json:"nonce"`
	Status             string `json:"status"`
	CreatedAt          int64  `json:"createdAt"`
}

type ReceiptDTO struct {
	AssetID               string `json:"assetId"`
	OriginChainID         uint64 `json:"originChainId"`
	OriginTxHash          string `json:"originTxHash"`
	Recipient             string `json:"recipient"`
	OriginalOwnerOnOrigin string `json:"originalOwnerOnOrigin"`
	Nonce                 uint64 `json:"nonce"`
	Verified              bool   `json:"verified"`
	CreatedAt             int64  `json:"createdAt"`
}

type ReceiveResponseDTO struct {
	Receipt ReceiptDTO `json:"receipt"`
	Asset   AssetDTO   `json:"asset"`
}

type PendingTransfersDTO struct {
	Transfers []TransferDTO `json:"transfers"`
}
