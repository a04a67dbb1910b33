// Package repository persists bridge records to Postgres as a durable audit
// trail. The in-memory bridge service stays authoritative; these tables are
// write-through copies used for queries that outlive a process restart.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/mintgate/mintgate-backend/internal/bridge"
)

type Repository struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

func NewRepository(db *sql.DB, logger *zap.SugaredLogger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

var _ bridge.AuditSink = (*Repository)(nil)

// Asset records
func (r *Repository) UpsertAsset(ctx context.Context, rec bridge.AssetRecord) error {
	query := `
		INSERT INTO bridge_assets (asset_id, original_owner, current_owner, metadata_uri, display_name, symbol, cross_chain_eligible, locked, origin_chain_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (asset_id) DO UPDATE SET
			current_owner = EXCLUDED.current_owner,
			locked = EXCLUDED.locked
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.AssetID,
		rec.OriginalOwner,
		rec.CurrentOwner,
		rec.MetadataURI,
		rec.DisplayName,
		rec.Symbol,
		rec.CrossChainEligible,
		rec.Locked,
		uint64(rec.OriginChainID),
		rec.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert asset: %w", err)
	}

	return nil
}

// Transfer records
func (r *Repository) StoreTransfer(ctx context.Context, rec bridge.TransferRecord) error {
	query := `
		INSERT INTO bridge_transfers (asset_id, nonce, initiating_owner, destination_chain_id, destination_address, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (asset_id, nonce) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.AssetID,
		rec.Nonce,
		rec.InitiatingOwner,
		uint64(rec.DestinationChainID),
		rec.DestinationAddress,
		string(rec.Status),
		rec.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to store transfer: %w", err)
	}

	return nil
}

func (r *Repository) UpdateTransferStatus(ctx context.Context, assetID string, nonce uint64, status bridge.TransferStatus) error {
	query := `UPDATE bridge_transfers SET status = $1 WHERE asset_id = $2 AND nonce = $3`

	_, err := r.db.ExecContext(ctx, query, string(status), assetID, nonce)
	if err != nil {
		return fmt.Errorf("failed to update transfer status: %w", err)
	}

	return nil
}

// Receipt records
func (r *Repository) StoreReceipt(ctx context.Context, rec bridge.ReceiptRecord) error {
	query := `
		INSERT INTO bridge_receipts (origin_chain_id, origin_tx_hash, nonce, asset_id, recipient, original_owner_on_origin, verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (origin_chain_id, origin_tx_hash, nonce) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		uint64(rec.OriginChainID),
		rec.OriginTxHash,
		rec.Nonce,
		rec.AssetID,
		rec.Recipient,
		rec.OriginalOwnerOnOrigin,
		rec.Verified,
		rec.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to store receipt: %w", err)
	}

	return nil
}

// Query methods for API
func (r *Repository) GetTransfersByAsset(ctx context.Context, assetID string, limit int) ([]bridge.TransferRecord, error) {
	query := `
		SELECT asset_id, nonce, initiating_owner, destination_chain_id, destination_address, status, created_at
		FROM bridge_transfers
		WHERE asset_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, assetID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfers: %w", err)
	}
	defer rows.Close()

	var transfers []bridge.TransferRecord
	for rows.Next() {
		var (
			rec    bridge.TransferRecord
			destID uint64
			status string
		)
		err := rows.Scan(
			&rec.AssetID,
			&rec.Nonce,
			&rec.InitiatingOwner,
			&destID,
			&rec.DestinationAddress,
			&status,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		rec.DestinationChainID = bridge.ChainID(destID)
		rec.Status = bridge.TransferStatus(status)
		transfers = append(transfers, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return transfers, nil
}

func (r *Repository) GetReceiptsByAsset(ctx context.Context, assetID string, limit int) ([]bridge.ReceiptRecord, error) {
	query := `
		SELECT origin_chain_id, origin_tx_hash, nonce, asset_id, recipient, original_owner_on_origin, verified, created_at
		FROM bridge_receipts
		WHERE asset_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, assetID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query receipts: %w", err)
	}
	defer rows.Close()

	var receipts []bridge.ReceiptRecord
	for rows.Next() {
		var (
			rec     bridge.ReceiptRecord
			chainID uint64
		)
		err := rows.Scan(
			&chainID,
			&rec.OriginTxHash,
			&rec.Nonce,
			&rec.AssetID,
			&rec.Recipient,
			&rec.OriginalOwnerOnOrigin,
			&rec.Verified,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		rec.OriginChainID = bridge.ChainID(chainID)
		receipts = append(receipts, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return receipts, nil
}

// Health check
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
