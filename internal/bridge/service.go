// Package bridge implements the cross-chain NFT bridge core: the asset
// registry, outbound transfer initiation, inbound message reception with
// signature verification and replay protection, and the coordinator
// operations that manage the program configuration.
package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mintgate/mintgate-backend/internal/ledger"
)

// CustodianID is the bridge's own custody identity on the host ledger.
// Locked assets are held by it until the return leg releases them.
const CustodianID = "mintgate:custody"

// Event channels consumed by the relay surface.
const (
	ChannelTransfersPending = "mg:transfers:pending"
	ChannelReceiptsSettled  = "mg:receipts:settled"
)

// Publisher fans bridge events out to the relay surface. Publishing is
// best-effort: a failed publish never rolls back a committed operation,
// because the relay can always fall back to polling pending transfers.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload interface{}) error
}

// AuditSink receives write-through copies of committed records for durable
// audit storage. Sink errors are logged, not propagated; the in-memory
// state is authoritative.
type AuditSink interface {
	UpsertAsset(ctx context.Context, rec AssetRecord) error
	StoreTransfer(ctx context.Context, rec TransferRecord) error
	UpdateTransferStatus(ctx context.Context, assetID string, nonce uint64, status TransferStatus) error
	StoreReceipt(ctx context.Context, rec ReceiptRecord) error
}

// Recorder counts bridge operations for observability.
type Recorder interface {
	RecordAssetRegistered(ctx context.Context)
	RecordTransferInitiated(ctx context.Context)
	RecordReceiptApplied(ctx context.Context)
	RecordReplayRejected(ctx context.Context)
	RecordSignatureFailure(ctx context.Context)
}

// Event is the envelope published on bridge channels.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithPublisher wires event publication for the relay surface.
func WithPublisher(p Publisher) ServiceOption {
	return func(s *Service) { s.events = p }
}

// WithAuditSink wires durable write-through persistence of records.
func WithAuditSink(a AuditSink) ServiceOption {
	return func(s *Service) { s.audit = a }
}

// WithRecorder wires operation metrics.
func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) { s.recorder = r }
}

// Service holds all bridge state behind one mutex. Every mutating operation
// validates first and applies its record mutations while holding the lock,
// so an operation either commits fully or has no effect, and concurrent
// operations touching the same records serialize.
type Service struct {
	mu sync.Mutex

	cfg       *ProgramConfig
	assets    map[string]*AssetRecord
	transfers map[transferKey]*TransferRecord
	receipts  map[ReceiptKey]*ReceiptRecord
	replay    *replayGuard

	tokens   ledger.TokenLedger
	events   Publisher
	audit    AuditSink
	recorder Recorder
	logger   *zap.SugaredLogger
}

func NewService(tokens ledger.TokenLedger, logger *zap.SugaredLogger, opts ...ServiceOption) *Service {
	s := &Service{
		assets:    make(map[string]*AssetRecord),
		transfers: make(map[transferKey]*TransferRecord),
		receipts:  make(map[ReceiptKey]*ReceiptRecord),
		replay:    newReplayGuard(),
		tokens:    tokens,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InitParams configures the singleton ProgramConfig.
type InitParams struct {
	Authority         string
	TrustedSignerKey  PublicKey
	RelayIdentifier   string
	SupportedChainIDs []ChainID
}

// Initialize creates the ProgramConfig. It can succeed exactly once per
// deployment.
func (s *Service) Initialize(_ context.Context, params InitParams) (*ProgramConfig, error) {
	if params.Authority == "" {
		return nil, ErrInvalidRequest
	}
	if err := ValidatePublicKey(params.TrustedSignerKey); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg != nil {
		return nil, ErrAlreadyInitialized
	}

	chains := make(map[ChainID]struct{}, len(params.SupportedChainIDs))
	for _, id := range params.SupportedChainIDs {
		if id == LocalChain {
			return nil, ErrInvalidDestinationChain
		}
		chains[id] = struct{}{}
	}

	s.cfg = &ProgramConfig{
		Authority:         params.Authority,
		TrustedSignerKey:  params.TrustedSignerKey,
		RelayIdentifier:   params.RelayIdentifier,
		SupportedChainIDs: chains,
		CreatedAt:         time.Now(),
	}

	s.logger.Infow("Bridge initialized",
		"authority", params.Authority,
		"relay", params.RelayIdentifier,
		"signerScheme", params.TrustedSignerKey.Scheme,
		"supportedChains", s.cfg.SupportedChains(),
	)

	return s.cfg.clone(), nil
}

// Config returns a copy of the ProgramConfig. Reads are never gated by the
// pause flag.
func (s *Service) Config(_ context.Context) (*ProgramConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg == nil {
		return nil, ErrNotInitialized
	}
	return s.cfg.clone(), nil
}

// RegisterAssetParams describes a new bridgeable asset minted on this ledger.
type RegisterAssetParams struct {
	AssetID            string
	Owner              string
	MetadataURI        string
	DisplayName        string
	Symbol             string
	CrossChainEligible bool
	OriginChainID      ChainID
}

// RegisterAsset mints a new asset record and its token account. Metadata and
// the eligibility flag are immutable afterwards. Registration is not a
// transfer operation and is therefore not gated by the pause flag.
func (s *Service) RegisterAsset(ctx context.Context, params RegisterAssetParams) (*AssetRecord, error) {
	if params.AssetID == "" || params.Owner == "" {
		return nil, ErrInvalidRequest
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg == nil {
		return nil, ErrNotInitialized
	}
	if _, ok := s.assets[params.AssetID]; ok {
		return nil, ErrAssetExists
	}

	if err := s.tokens.Create(ctx, params.AssetID, params.Owner); err != nil {
		return nil, fmt.Errorf("create token account: %w", err)
	}

	rec := &AssetRecord{
		AssetID:            params.AssetID,
		OriginalOwner:      params.Owner,
		CurrentOwner:       params.Owner,
		MetadataURI:        params.MetadataURI,
		DisplayName:        params.DisplayName,
		Symbol:             params.Symbol,
		CrossChainEligible: params.CrossChainEligible,
		OriginChainID:      params.OriginChainID,
		CreatedAt:          time.Now(),
	}
	s.assets[params.AssetID] = rec
	s.cfg.TotalAssetsRegistered++

	out := *rec
	s.auditAsset(ctx, out)
	if s.recorder != nil {
		s.recorder.RecordAssetRegistered(ctx)
	}

	s.logger.Infow("Asset registered",
		"assetId", rec.AssetID,
		"owner", rec.CurrentOwner,
		"eligible", rec.CrossChainEligible,
		"originChainId", rec.OriginChainID,
	)

	return &out, nil
}

// AssertOwnership verifies that claimant owns the asset. The registry's
// CurrentOwner is a cache; the external ledger's custody record is
// cross-checked so the cache alone is never trusted for a security decision.
func (s *Service) AssertOwnership(ctx context.Context, assetID, claimant string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assertOwnershipLocked(ctx, assetID, claimant)
}

func (s *Service) assertOwnershipLocked(ctx context.Context, assetID, claimant string) error {
	rec, ok := s.assets[assetID]
	if !ok {
		return ErrNotFound
	}
	if rec.CurrentOwner != claimant {
		return ErrNotOwner
	}
	holder, err := s.tokens.CustodyOf(ctx, assetID)
	if err != nil {
		return fmt.Errorf("custody lookup: %w", err)
	}
	if holder != claimant {
		return ErrNotOwner
	}
	return nil
}

// InitiateParams describes an outbound transfer request.
type InitiateParams struct {
	AssetID            string
	Owner              string
	DestinationChainID ChainID
	DestinationAddress []byte
	Nonce              uint64
}

// InitiateTransfer locks the asset, records a pending transfer, and emits
// the event the external relay consumes. Validation failures are total:
// nothing is written and custody does not move.
func (s *Service) InitiateTransfer(ctx context.Context, params InitiateParams) (*TransferRecord, error) {
	s.mu.Lock()

	if s.cfg == nil {
		s.mu.Unlock()
		return nil, ErrNotInitialized
	}
	if s.cfg.Paused {
		s.mu.Unlock()
		return nil, ErrPaused
	}
	if !s.cfg.supports(params.DestinationChainID) {
		s.mu.Unlock()
		return nil, ErrInvalidDestinationChain
	}
	if err := ValidateDestinationAddress(params.DestinationChainID, params.DestinationAddress); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if err := s.assertOwnershipLocked(ctx, params.AssetID, params.Owner); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	rec := s.assets[params.AssetID]
	if !rec.CrossChainEligible {
		s.mu.Unlock()
		return nil, ErrNotEligible
	}
	if rec.Locked {
		s.mu.Unlock()
		return nil, ErrAlreadyLocked
	}

	key := transferKey{assetID: params.AssetID, nonce: params.Nonce}
	if _, ok := s.transfers[key]; ok {
		s.mu.Unlock()
		return nil, ErrNonceAlreadyUsed
	}

	// Custody moves first: the ledger transfer is all-or-nothing, and the
	// in-memory mutations below cannot fail once it succeeds.
	if err := s.tokens.TransferCustody(ctx, params.AssetID, params.Owner, CustodianID); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("move custody: %w", err)
	}

	rec.Locked = true
	transfer := &TransferRecord{
		AssetID:            params.AssetID,
		InitiatingOwner:    params.Owner,
		DestinationChainID: params.DestinationChainID,
		DestinationAddress: append([]byte(nil), params.DestinationAddress...),
		Nonce:              params.Nonce,
		Status:             TransferStatusPending,
		CreatedAt:          time.Now(),
	}
	s.transfers[key] = transfer
	s.cfg.TotalTransfersInitiated++

	outTransfer := *transfer
	outAsset := *rec
	s.mu.Unlock()

	s.auditAsset(ctx, outAsset)
	s.auditTransfer(ctx, outTransfer)
	s.publish(ctx, ChannelTransfersPending, "transfer.pending", outTransfer)
	if s.recorder != nil {
		s.recorder.RecordTransferInitiated(ctx)
	}

	s.logger.Infow("Transfer initiated",
		"assetId", params.AssetID,
		"owner", params.Owner,
		"destinationChainId", params.DestinationChainID,
		"nonce", params.Nonce,
	)

	return &outTransfer, nil
}

// ConfirmTransfer drives a pending transfer to its terminal state based on
// an external confirmation. Confirming an already-terminal transfer is a
// no-op, not an error, so duplicate confirmation deliveries are harmless.
// A failed transfer releases the lock and returns custody to the initiator.
func (s *Service) ConfirmTransfer(ctx context.Context, assetID string, nonce uint64, success bool) (*TransferRecord, error) {
	s.mu.Lock()

	if s.cfg == nil {
		s.mu.Unlock()
		return nil, ErrNotInitialized
	}
	transfer, ok := s.transfers[transferKey{assetID: assetID, nonce: nonce}]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	if transfer.Status.Terminal() {
		out := *transfer
		s.mu.Unlock()
		return &out, nil
	}

	var assetCopy *AssetRecord
	if success {
		transfer.Status = TransferStatusCompleted
	} else {
		transfer.Status = TransferStatusFailed
		if rec, ok := s.assets[assetID]; ok && rec.Locked {
			if err := s.tokens.TransferCustody(ctx, assetID, CustodianID, transfer.InitiatingOwner); err != nil {
				transfer.Status = TransferStatusPending
				s.mu.Unlock()
				return nil, fmt.Errorf("return custody: %w", err)
			}
			rec.Locked = false
			rec.CurrentOwner = transfer.InitiatingOwner
			cp := *rec
			assetCopy = &cp
		}
	}

	out := *transfer
	s.mu.Unlock()

	if assetCopy != nil {
		s.auditAsset(ctx, *assetCopy)
	}
	if s.audit != nil {
		if err := s.audit.UpdateTransferStatus(ctx, assetID, nonce, out.Status); err != nil {
			s.logger.Warnw("Audit transfer status update failed", "assetId", assetID, "nonce", nonce, "error", err)
		}
	}

	s.logger.Infow("Transfer confirmed",
		"assetId", assetID,
		"nonce", nonce,
		"status", out.Status,
	)

	return &out, nil
}

// Receive applies an inbound cross-chain message: authenticate, consume the
// replay key, then either unlock the returning local asset or create a new
// bridged asset, and record the receipt. Steps after authentication are one
// atomic unit under the service lock.
func (s *Service) Receive(ctx context.Context, msg InboundMessage, signature []byte) (*ReceiptRecord, *AssetRecord, error) {
	if err := msg.validate(); err != nil {
		return nil, nil, err
	}
	canonical, err := msg.CanonicalBytes()
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()

	if s.cfg == nil {
		s.mu.Unlock()
		return nil, nil, ErrNotInitialized
	}
	if s.cfg.Paused {
		s.mu.Unlock()
		return nil, nil, ErrPaused
	}

	// Authentication comes strictly before the replay check so a forged
	// message can never burn a nonce.
	if !VerifySignature(canonical, signature, s.cfg.TrustedSignerKey) {
		s.mu.Unlock()
		if s.recorder != nil {
			s.recorder.RecordSignatureFailure(ctx)
		}
		s.logger.Warnw("Inbound message rejected: invalid signature",
			"originChainId", msg.OriginChainID,
			"originTxHash", msg.OriginTxHash,
			"nonce", msg.Nonce,
		)
		return nil, nil, ErrInvalidSignature
	}

	key := msg.ReceiptKey()
	if s.replay.consumed(key) {
		s.mu.Unlock()
		if s.recorder != nil {
			s.recorder.RecordReplayRejected(ctx)
		}
		return nil, nil, ErrNonceAlreadyUsed
	}

	// Choose and fully validate the branch before consuming the replay key,
	// so a rejected message leaves no trace.
	var (
		returnLeg bool
		assetID   string
	)
	if local, ok := s.assets[msg.TokenRef]; ok {
		if !local.Locked {
			s.mu.Unlock()
			return nil, nil, ErrInconsistentReceiptState
		}
		returnLeg = true
		assetID = msg.TokenRef
	} else {
		assetID, err = DeriveBridgedAssetID(msg.OriginChainID, msg.OriginTxHash)
		if err != nil {
			s.mu.Unlock()
			return nil, nil, err
		}
		if _, ok := s.assets[assetID]; ok {
			s.mu.Unlock()
			return nil, nil, ErrInconsistentReceiptState
		}
	}

	var asset *AssetRecord
	if returnLeg {
		rec := s.assets[assetID]
		if err := s.tokens.TransferCustody(ctx, assetID, CustodianID, msg.Recipient); err != nil {
			s.mu.Unlock()
			return nil, nil, fmt.Errorf("release custody: %w", err)
		}
		if err := s.replay.reserve(key); err != nil {
			// Unreachable while the lock is held; kept as an invariant check.
			s.mu.Unlock()
			return nil, nil, err
		}
		rec.Locked = false
		rec.CurrentOwner = msg.Recipient
		asset = rec
	} else {
		if err := s.tokens.Create(ctx, assetID, msg.Recipient); err != nil {
			s.mu.Unlock()
			return nil, nil, fmt.Errorf("create token account: %w", err)
		}
		if err := s.replay.reserve(key); err != nil {
			s.mu.Unlock()
			return nil, nil, err
		}
		asset = &AssetRecord{
			AssetID:            assetID,
			OriginalOwner:      msg.Recipient,
			CurrentOwner:       msg.Recipient,
			MetadataURI:        msg.MetadataURI,
			DisplayName:        msg.DisplayName,
			Symbol:             msg.Symbol,
			CrossChainEligible: true,
			OriginChainID:      msg.OriginChainID,
			CreatedAt:          time.Now(),
		}
		s.assets[assetID] = asset
		s.cfg.TotalAssetsRegistered++
	}

	receipt := &ReceiptRecord{
		AssetID:               assetID,
		OriginChainID:         msg.OriginChainID,
		OriginTxHash:          NormalizeTxHash(msg.OriginTxHash),
		Recipient:             msg.Recipient,
		OriginalOwnerOnOrigin: msg.OriginalOwner,
		Nonce:                 msg.Nonce,
		Verified:              true,
		CreatedAt:             time.Now(),
	}
	s.receipts[key] = receipt

	outReceipt := *receipt
	outAsset := *asset
	s.mu.Unlock()

	s.auditAsset(ctx, outAsset)
	if s.audit != nil {
		if err := s.audit.StoreReceipt(ctx, outReceipt); err != nil {
			s.logger.Warnw("Audit receipt store failed", "assetId", assetID, "error", err)
		}
	}
	s.publish(ctx, ChannelReceiptsSettled, "receipt.settled", outReceipt)
	if s.recorder != nil {
		s.recorder.RecordReceiptApplied(ctx)
	}

	s.logger.Infow("Inbound message applied",
		"assetId", assetID,
		"originChainId", msg.OriginChainID,
		"originTxHash", msg.OriginTxHash,
		"nonce", msg.Nonce,
		"returnLeg", returnLeg,
		"recipient", msg.Recipient,
	)

	return &outReceipt, &outAsset, nil
}

// Coordinator operations. All are restricted to the configured authority.

func (s *Service) SetPaused(_ context.Context, authority string, paused bool) (*ProgramConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireAuthorityLocked(authority); err != nil {
		return nil, err
	}
	s.cfg.Paused = paused
	s.logger.Infow("Pause flag updated", "paused", paused)
	return s.cfg.clone(), nil
}

// SetTrustedSignerKey rotates the threshold signer key. Rotation only
// affects future verifications; settled receipts stay valid.
func (s *Service) SetTrustedSignerKey(_ context.Context, authority string, key PublicKey) (*ProgramConfig, error) {
	if err := ValidatePublicKey(key); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireAuthorityLocked(authority); err != nil {
		return nil, err
	}
	s.cfg.TrustedSignerKey = key
	s.logger.Infow("Trusted signer key rotated", "scheme", key.Scheme)
	return s.cfg.clone(), nil
}

func (s *Service) AddSupportedChain(_ context.Context, authority string, id ChainID) (*ProgramConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireAuthorityLocked(authority); err != nil {
		return nil, err
	}
	if id == LocalChain {
		return nil, ErrInvalidDestinationChain
	}
	s.cfg.SupportedChainIDs[id] = struct{}{}
	return s.cfg.clone(), nil
}

func (s *Service) RemoveSupportedChain(_ context.Context, authority string, id ChainID) (*ProgramConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireAuthorityLocked(authority); err != nil {
		return nil, err
	}
	delete(s.cfg.SupportedChainIDs, id)
	return s.cfg.clone(), nil
}

func (s *Service) requireAuthorityLocked(authority string) error {
	if s.cfg == nil {
		return ErrNotInitialized
	}
	if authority == "" || authority != s.cfg.Authority {
		return ErrUnauthorized
	}
	return nil
}

// Query surface. All reads return copies and are never gated by pause.

func (s *Service) GetAsset(_ context.Context, assetID string) (*AssetRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.assets[assetID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *rec
	return &out, nil
}

func (s *Service) GetTransfer(_ context.Context, assetID string, nonce uint64) (*TransferRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.transfers[transferKey{assetID: assetID, nonce: nonce}]
	if !ok {
		return nil, ErrNotFound
	}
	out := *rec
	return &out, nil
}

// ListPendingTransfers returns all non-terminal transfers. This is the
// polling fallback for relays that do not hold a stream subscription.
func (s *Service) ListPendingTransfers(_ context.Context) []*TransferRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*TransferRecord
	for _, rec := range s.transfers {
		if rec.Status == TransferStatusPending {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out
}

func (s *Service) GetReceipt(_ context.Context, key ReceiptKey) (*ReceiptRecord, error) {
	key.OriginTxHash = NormalizeTxHash(key.OriginTxHash)

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.receipts[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := *rec
	return &out, nil
}

// Stats summarizes bridge state for health checks.
type Stats struct {
	Initialized   bool `json:"initialized"`
	Paused        bool `json:"paused"`
	Assets        int  `json:"assets"`
	Transfers     int  `json:"transfers"`
	Receipts      int  `json:"receipts"`
	ConsumedNonce int  `json:"consumedNonces"`
}

func (s *Service) Stats(_ context.Context) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		Initialized:   s.cfg != nil,
		Assets:        len(s.assets),
		Transfers:     len(s.transfers),
		Receipts:      len(s.receipts),
		ConsumedNonce: s.replay.size(),
	}
	if s.cfg != nil {
		st.Paused = s.cfg.Paused
	}
	return st
}

func (s *Service) auditAsset(ctx context.Context, rec AssetRecord) {
	if s.audit == nil {
		return
	}
	if err := s.audit.UpsertAsset(ctx, rec); err != nil {
		s.logger.Warnw("Audit asset upsert failed", "assetId", rec.AssetID, "error", err)
	}
}

func (s *Service) auditTransfer(ctx context.Context, rec TransferRecord) {
	if s.audit == nil {
		return
	}
	if err := s.audit.StoreTransfer(ctx, rec); err != nil {
		s.logger.Warnw("Audit transfer store failed", "assetId", rec.AssetID, "nonce", rec.Nonce, "error", err)
	}
}

func (s *Service) publish(ctx context.Context, channel, eventType string, data interface{}) {
	if s.events == nil {
		return
	}
	ev := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := s.events.Publish(ctx, channel, ev); err != nil {
		s.logger.Warnw("Event publish failed", "channel", channel, "type", eventType, "error", err)
	}
}
