package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mintgate/mintgate-backend/internal/bridge"
	"github.com/mintgate/mintgate-backend/internal/config"
	"github.com/mintgate/mintgate-backend/internal/store"
	"github.com/mintgate/mintgate-backend/internal/ws"
)

// MetricsInterface defines the interface for metrics recording
type MetricsInterface interface {
	RecordHTTPRequest(ctx context.Context, method, path string, status int, duration time.Duration)
}

// AuditStore is the optional Postgres-backed audit trail: historical
// transfers and receipts that outlive a process restart.
type AuditStore interface {
	Ping(ctx context.Context) error
	GetTransfersByAsset(ctx context.Context, assetID string, limit int) ([]bridge.TransferRecord, error)
	GetReceiptsByAsset(ctx context.Context, assetID string, limit int) ([]bridge.ReceiptRecord, error)
}

type Handler struct {
	bridgeSvc  *bridge.Service
	wsHub      *ws.Hub
	sseHandler *ws.SSEHandler
	cache      *store.Cache
	repo       AuditStore // nil when Postgres is disabled
	config     *config.Config
	logger     *zap.SugaredLogger
	metrics    MetricsInterface
}

func NewHandler(
	bridgeSvc *bridge.Service,
	wsHub *ws.Hub,
	sseHandler *ws.SSEHandler,
	cache *store.Cache,
	repo AuditStore,
	config *config.Config,
	logger *zap.SugaredLogger,
	metrics MetricsInterface,
) *Handler {
	return &Handler{
		bridgeSvc:  bridgeSvc,
		wsHub:      wsHub,
		sseHandler: sseHandler,
		cache:      cache,
		repo:       repo,
		config:     config,
		logger:     logger,
		metrics:    metrics,
	}
}

// Admin endpoints

func (h *Handler) Initialize(w http.ResponseWriter, r *http.Request) {
	var req InitializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	key, err := decodeSignerKey(req.SignerKeyScheme, req.SignerKeyHex)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_SIGNER_KEY", err.Error())
		return
	}

	chains := make([]bridge.ChainID, 0, len(req.SupportedChainIDs))
	for _, id := range req.SupportedChainIDs {
		chains = append(chains, bridge.ChainID(id))
	}

	cfg, err := h.bridgeSvc.Initialize(r.Context(), bridge.InitParams{
		Authority:         req.Authority,
		TrustedSignerKey:  key,
		RelayIdentifier:   req.RelayIdentifier,
		SupportedChainIDs: chains,
	})
	if err != nil {
		h.writeBridgeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toConfigDTO(cfg))
}

func (h *Handler) SetPaused(w http.ResponseWriter, r *http.Request) {
	var req PauseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	cfg, err := h.bridgeSvc.SetPaused(r.Context(), req.Authority, req.Paused)
	if err != nil {
		h.writeBridgeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toConfigDTO(cfg))
}

func (h *Handler) SetSigner(w http.ResponseWriter, r *http.Request) {
	var req SignerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	key, err := decodeSignerKey(req.SignerKeyScheme, req.SignerKeyHex)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_SIGNER_KEY", err.Error())
		return
	}

	cfg, err := h.bridgeSvc.SetTrustedSignerKey(r.Context(), req.Authority, key)
	if err != nil {
		h.writeBridgeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toConfigDTO(cfg))
}

func (h *Handler) AddChain(w http.ResponseWriter, r *http.Request) {
	var req ChainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	cfg, err := h.bridgeSvc.AddSupportedChain(r.Context(), req.Authority, bridge.ChainID(req.ChainID))
	if err != nil {
		h.writeBridgeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toConfigDTO(cfg))
}

func (h *Handler) RemoveChain(w http.ResponseWriter, r *http.Request) {
	chainID, err := strconv.ParseUint(chi.URLParam(r, "chainID"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_CHAIN_ID", "chainID must be a number")
		return
	}
	authority := r.Header.Get("X-Bridge-Authority")

	cfg, err := h.bridgeSvc.RemoveSupportedChain(r.Context(), authority, bridge.ChainID(chainID))
	if err != nil {
		h.writeBridgeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toConfigDTO(cfg))
}

// Config and stats

func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	// Serve from cache when fresh; the config rarely changes
	var cached ConfigDTO
	if err := h.cache.GetBridgeConfig(r.Context(), &cached); err == nil {
		h.writeJSON(w, http.StatusOK, cached)
		return
	}

	cfg, err := h.bridgeSvc.Config(r.Context())
	if err != nil {
		h.writeBridgeError(w, err)
		return
	}

	dto := toConfigDTO(cfg)
	if err := h.cache.SetBridgeConfig(r.Context(), dto); err != nil {
		h.logger.Debugw("Failed to cache bridge config", "error", err)
	}

	h.writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	var cached bridge.Stats
	if err := h.cache.GetBridgeStats(r.Context(), &cached); err == nil {
		h.writeJSON(w, http.StatusOK, cached)
		return
	}

	stats := h.bridgeSvc.Stats(r.Context())
	if err := h.cache.SetBridgeStats(r.Context(), stats); err != nil {
		h.logger.Debugw("Failed to cache bridge stats", "error", err)
	}

	h.writeJSON(w, http.StatusOK, stats)
}

// Asset endpoints

func (h *Handler) RegisterAsset(w http.ResponseWriter, r *http.Request) {
	var req RegisterAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	rec, err := h.bridgeSvc.RegisterAsset(r.Context(), bridge.RegisterAssetParams{
		AssetID:            req.AssetID,
		Owner:              req.Owner,
		MetadataURI:        req.MetadataURI,
		DisplayName:        req.DisplayName,
		Symbol:             req.Symbol,
		CrossChainEligible: req.CrossChainEligible,
	})
	if err != nil {
		h.writeBridgeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toAssetDTO(rec))
}

func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "assetID")

	var cached AssetDTO
	if err := h.cache.GetAsset(r.Context(), assetID, &cached); err == nil {
		h.writeJSON(w, http.StatusOK, cached)
		return
	}

	rec, err := h.bridgeSvc.GetAsset(r.Context(), assetID)
	if err != nil {
		h.writeBridgeError(w, err)
		return
	}

	dto := toAssetDTO(rec)
	if err := h.cache.SetAsset(r.Context(), assetID, dto); err != nil {
		h.logger.Debugw("Failed to cache asset", "assetId", assetID, "error", err)
	}

	h.writeJSON(w, http.StatusOK, dto)
}

// Transfer endpoints

func (h *Handler) InitiateTransfer(w http.ResponseWriter, r *http.Request) {
	var req InitiateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	addr, err := bridge.ParseHexAddress(req.DestinationAddress)
	if err != nil {
		h.writeBridgeError(w, err)
		return
	}

	rec, err := h.bridgeSvc.InitiateTransfer(r.Context(), bridge.InitiateParams{
		AssetID:            req.AssetID,
		Owner:              req.Owner,
		DestinationChainID: bridge.ChainID(req.DestinationChainID),
		DestinationAddress: addr,
		Nonce:              req.Nonce,
	})
	if err != nil {
		h.writeBridgeError(w, err)
		return
	}

	// The asset's lock state changed; drop any stale cache entry
	if err := h.cache.DeleteAsset(r.Context(), req.AssetID); err != nil {
		h.logger.Debugw("Failed to invalidate asset cache", "assetId", req.AssetID, "error", err)
	}

	h.writeJSON(w, http.StatusCreated, toTransferDTO(rec))
}

func (h *Handler) ConfirmTransfer(w http.ResponseWriter, r *http.Request) {
	var req ConfirmTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	rec, err := h.bridgeSvc.ConfirmTransfer(r.Context(), req.AssetID, req.Nonce, req.Success)
	if err != nil {
		h.writeBridgeError(w, err)
		return
	}

	if err := h.cache.DeleteAsset(r.Context(), req.AssetID); err != nil {
		h.logger.Debugw("Failed to invalidate asset cache", "assetId", req.AssetID, "error", err)
	}

	h.writeJSON(w, http.StatusOK, toTransferDTO(rec))
}

func (h *Handler) GetTransfer(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "assetID")
	nonce, err := strconv.ParseUint(chi.URLParam(r, "nonce"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_NONCE", "nonce must be a number")
		return
	}

	var cached TransferDTO
	if err := h.cache.GetTransfer(r.Context(), assetID, nonce, &cached); err == nil {
		h.writeJSON(w, http.StatusOK, cached)
		return
	}

	rec, err := h.bridgeSvc.GetTransfer(r.Context(), assetID, nonce)
	if err != nil {
		h.writeBridgeError(w, err)
		return
	}

	dto := toTransferDTO(rec)
	// Only terminal transfers are safe to cache; pending ones change under
	// the relay's feet.
	if rec.Status.Terminal() {
		if err := h.cache.SetTransfer(r.Context(), assetID, nonce, dto); err != nil {
			h.logger.Debugw("Failed to cache transfer", "assetId", assetID, "nonce", nonce, "error", err)
		}
	}

	h.writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) ListPendingTransfers(w http.ResponseWriter, r *http.Request) {
	pending := h.bridgeSvc.ListPendingTransfers(r.Context())

	dto := PendingTransfersDTO{Transfers: make([]TransferDTO, 0, len(pending))}
	for _, rec := range pending {
		dto.Transfers = append(dto.Transfers, toTransferDTO(rec))
	}

	h.writeJSON(w, http.StatusOK, dto)
}

// Receive endpoint

func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	var req ReceiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	sig, err := hex.DecodeString(strings.TrimPrefix(req.Signature, "0x"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_SIGNATURE_ENCODING", "signature must be hex")
		return
	}

	receipt, asset, err := h.bridgeSvc.Receive(r.Context(), req.Message, sig)
	if err != nil {
		h.writeBridgeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, ReceiveResponseDTO{
		Receipt: toReceiptDTO(receipt),
		Asset:   toAssetDTO(asset),
	})
}

// Audit history endpoints, served from the Postgres audit trail when enabled

func (h *Handler) GetAssetTransferHistory(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		h.writeError(w, http.StatusServiceUnavailable, "AUDIT_UNAVAILABLE", "audit trail is not enabled")
		return
	}
	assetID := chi.URLParam(r, "assetID")

	records, err := h.repo.GetTransfersByAsset(r.Context(), assetID, historyLimit(r))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	dto := PendingTransfersDTO{Transfers: make([]TransferDTO, 0, len(records))}
	for i := range records {
		dto.Transfers = append(dto.Transfers, toTransferDTO(&records[i]))
	}
	h.writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) GetAssetReceiptHistory(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		h.writeError(w, http.StatusServiceUnavailable, "AUDIT_UNAVAILABLE", "audit trail is not enabled")
		return
	}
	assetID := chi.URLParam(r, "assetID")

	records, err := h.repo.GetReceiptsByAsset(r.Context(), assetID, historyLimit(r))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	out := make([]ReceiptDTO, 0, len(records))
	for i := range records {
		out = append(out, toReceiptDTO(&records[i]))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func historyLimit(r *http.Request) int {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	return limit
}

// Receipt endpoints

func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	chainID, err := strconv.ParseUint(chi.URLParam(r, "chainID"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_CHAIN_ID", "chainID must be a number")
		return
	}
	nonce, err := strconv.ParseUint(chi.URLParam(r, "nonce"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_NONCE", "nonce must be a number")
		return
	}
	txHash := chi.URLParam(r, "txHash")

	rec, err := h.bridgeSvc.GetReceipt(r.Context(), bridge.ReceiptKey{
		OriginChainID: bridge.ChainID(chainID),
		OriginTxHash:  txHash,
		Nonce:         nonce,
	})
	if err != nil {
		h.writeBridgeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toReceiptDTO(rec))
}

// Health and ops endpoints

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.Ping(r.Context()); err != nil {
		h.writeError(w, http.StatusServiceUnavailable, "CACHE_UNAVAILABLE", err.Error())
		return
	}
	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			h.writeError(w, http.StatusServiceUnavailable, "DATABASE_UNAVAILABLE", err.Error())
			return
		}
	}
	if !h.bridgeSvc.Stats(r.Context()).Initialized {
		h.writeError(w, http.StatusServiceUnavailable, "NOT_INITIALIZED", "bridge is not initialized")
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("READY"))
}

// WebSocket endpoint
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.wsHub.HandleWebSocket(w, r)
}

// SSE endpoint
func (h *Handler) HandleSSE(w http.ResponseWriter, r *http.Request) {
	h.sseHandler.HandleSSE(w, r)
}

// Utility methods

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.logger.Errorw("API error", "code", code, "message", message, "status", status)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := ErrorResponse{
		Code:    code,
		Message: message,
	}
	json.NewEncoder(w).Encode(err)
}

// writeBridgeError maps bridge sentinel errors to HTTP status codes and
// stable error codes.
func (h *Handler) writeBridgeError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL_ERROR"

	switch {
	case errors.Is(err, bridge.ErrNotInitialized):
		status, code = http.StatusConflict, "NOT_INITIALIZED"
	case errors.Is(err, bridge.ErrAlreadyInitialized):
		status, code = http.StatusConflict, "ALREADY_INITIALIZED"
	case errors.Is(err, bridge.ErrUnauthorized):
		status, code = http.StatusForbidden, "UNAUTHORIZED"
	case errors.Is(err, bridge.ErrPaused):
		status, code = http.StatusServiceUnavailable, "PAUSED"
	case errors.Is(err, bridge.ErrInvalidDestinationChain):
		status, code = http.StatusBadRequest, "INVALID_DESTINATION_CHAIN"
	case errors.Is(err, bridge.ErrInvalidAddressEncoding):
		status, code = http.StatusBadRequest, "INVALID_ADDRESS_ENCODING"
	case errors.Is(err, bridge.ErrNotEligible):
		status, code = http.StatusUnprocessableEntity, "NOT_ELIGIBLE"
	case errors.Is(err, bridge.ErrAlreadyLocked):
		status, code = http.StatusConflict, "ALREADY_LOCKED"
	case errors.Is(err, bridge.ErrNotOwner):
		status, code = http.StatusForbidden, "NOT_OWNER"
	case errors.Is(err, bridge.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, bridge.ErrAssetExists):
		status, code = http.StatusConflict, "ASSET_EXISTS"
	case errors.Is(err, bridge.ErrInvalidSignature):
		status, code = http.StatusUnauthorized, "INVALID_SIGNATURE"
	case errors.Is(err, bridge.ErrNonceAlreadyUsed):
		status, code = http.StatusConflict, "NONCE_ALREADY_USED"
	case errors.Is(err, bridge.ErrInconsistentReceiptState):
		status, code = http.StatusConflict, "INCONSISTENT_RECEIPT_STATE"
	case errors.Is(err, bridge.ErrInvalidRequest):
		status, code = http.StatusBadRequest, "INVALID_REQUEST"
	}

	h.writeError(w, status, code, err.Error())
}

func decodeSignerKey(scheme, keyHex string) (bridge.PublicKey, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(keyHex), "0x"))
	if err != nil {
		return bridge.PublicKey{}, fmt.Errorf("signer key must be hex: %w", err)
	}
	key := bridge.PublicKey{Scheme: bridge.KeyScheme(scheme), Bytes: raw}
	if err := bridge.ValidatePublicKey(key); err != nil {
		return bridge.PublicKey{}, fmt.Errorf("malformed %s signer key", scheme)
	}
	return key, nil
}

// DTO mapping

func toConfigDTO(cfg *bridge.ProgramConfig) ConfigDTO {
	chains := make([]uint64, 0, len(cfg.SupportedChainIDs))
	for _, id := range cfg.SupportedChains() {
		chains = append(chains, uint64(id))
	}
	return ConfigDTO{
		Authority:               cfg.Authority,
		RelayIdentifier:         cfg.RelayIdentifier,
		SignerKeyScheme:         string(cfg.TrustedSignerKey.Scheme),
		SupportedChainIDs:       chains,
		Paused:                  cfg.Paused,
		TotalAssetsRegistered:   cfg.TotalAssetsRegistered,
		TotalTransfersInitiated: cfg.TotalTransfersInitiated,
		CreatedAt:               cfg.CreatedAt.Unix(),
	}
}

func toAssetDTO(rec *bridge.AssetRecord) AssetDTO {
	return AssetDTO{
		AssetID:            rec.AssetID,
		OriginalOwner:      rec.OriginalOwner,
		CurrentOwner:       rec.CurrentOwner,
		MetadataURI:        rec.MetadataURI,
		DisplayName:        rec.DisplayName,
		Symbol:             rec.Symbol,
		CrossChainEligible: rec.CrossChainEligible,
		Locked:             rec.Locked,
		OriginChainID:      uint64(rec.OriginChainID),
		CreatedAt:          rec.CreatedAt.Unix(),
	}
}

func toTransferDTO(rec *bridge.TransferRecord) TransferDTO {
	return TransferDTO{
		AssetID:            rec.AssetID,
		InitiatingOwner:    rec.InitiatingOwner,
		DestinationChainID: uint64(rec.DestinationChainID),
		DestinationAddress: "0x" + hex.EncodeToString(rec.DestinationAddress),
		Nonce:              rec.Nonce,
		Status:             string(rec.Status),
		CreatedAt:          rec.CreatedAt.Unix(),
	}
}

func toReceiptDTO(rec *bridge.ReceiptRecord) ReceiptDTO {
	return ReceiptDTO{
		AssetID:               rec.AssetID,
		OriginChainID:         uint64(rec.OriginChainID),
		OriginTxHash:          rec.OriginTxHash,
		Recipient:             rec.Recipient,
		OriginalOwnerOnOrigin: rec.OriginalOwnerOnOrigin,
		Nonce:                 rec.Nonce,
		Verified:              rec.Verified,
		CreatedAt:             rec.CreatedAt.Unix(),
	}
}
