// Package ledger abstracts the host ledger's native token custody
// primitives. The bridge calls into it to verify custody before honoring
// ownership claims and to move custody together with lock/unlock, but the
// ledger never participates in bridge-state decisions.
package ledger

import (
	"context"
	"errors"
)

var (
	ErrUnknownAsset = errors.New("unknown asset")
	ErrAssetExists  = errors.New("asset already exists")
	ErrNotCustodian = errors.New("not the current custodian")
)

// TokenLedger is the external token-custody collaborator.
//
// TransferCustody must be all-or-nothing: it either fully moves custody or
// leaves it untouched and returns an error. The bridge relies on this to
// keep its own atomic units honest.
type TokenLedger interface {
	// Create mints the token account for a new asset under owner's custody.
	Create(ctx context.Context, assetID, owner string) error

	// CustodyOf returns the identity currently holding the asset.
	CustodyOf(ctx context.Context, assetID string) (string, error)

	// TransferCustody moves the asset from from to to, failing if from is
	// not the current holder.
	TransferCustody(ctx context.Context, assetID, from, to string) error
}
