package bridge

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mintgate/mintgate-backend/internal/ledger"
)

const (
	testAuthority = "authority-1"
	testRelay     = "relay-1"
	testOwner     = "owner-1"
)

type testHarness struct {
	svc    *Service
	tokens *ledger.Memory
	signer ed25519.PrivateKey
}

func newTestHarness(t *testing.T, opts ...ServiceOption) *testHarness {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	tokens := ledger.NewMemory()
	svc := NewService(tokens, zap.NewNop().Sugar(), opts...)

	_, err = svc.Initialize(context.Background(), InitParams{
		Authority:         testAuthority,
		TrustedSignerKey:  PublicKey{Scheme: KeySchemeEd25519, Bytes: pub},
		RelayIdentifier:   testRelay,
		SupportedChainIDs: []ChainID{1, 56, 137},
	})
	require.NoError(t, err)

	return &testHarness{svc: svc, tokens: tokens, signer: priv}
}

func (h *testHarness) sign(t *testing.T, msg InboundMessage) []byte {
	t.Helper()
	canonical, err := msg.CanonicalBytes()
	require.NoError(t, err)
	return ed25519.Sign(h.signer, canonical)
}

func (h *testHarness) registerAsset(t *testing.T, assetID string, eligible bool) *AssetRecord {
	t.Helper()
	rec, err := h.svc.RegisterAsset(context.Background(), RegisterAssetParams{
		AssetID:            assetID,
		Owner:              testOwner,
		MetadataURI:        "ipfs://meta/" + assetID,
		DisplayName:        "Asset " + assetID,
		Symbol:             "AST",
		CrossChainEligible: eligible,
	})
	require.NoError(t, err)
	return rec
}

func destAddr() []byte {
	return []byte{
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a,
		0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10, 0x11, 0x12, 0x13, 0x14,
	}
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	key := PublicKey{Scheme: KeySchemeEd25519, Bytes: pub}

	t.Run("only once", func(t *testing.T) {
		svc := NewService(ledger.NewMemory(), zap.NewNop().Sugar())
		cfg, err := svc.Initialize(ctx, InitParams{
			Authority:         testAuthority,
			TrustedSignerKey:  key,
			RelayIdentifier:   testRelay,
			SupportedChainIDs: []ChainID{1, 56, 137},
		})
		require.NoError(t, err)
		assert.Equal(t, testAuthority, cfg.Authority)
		assert.Equal(t, []ChainID{1, 56, 137}, cfg.SupportedChains())
		assert.False(t, cfg.Paused)

		_, err = svc.Initialize(ctx, InitParams{
			Authority:        "someone-else",
			TrustedSignerKey: key,
		})
		assert.ErrorIs(t, err, ErrAlreadyInitialized)
	})

	t.Run("rejects malformed signer key", func(t *testing.T) {
		svc := NewService(ledger.NewMemory(), zap.NewNop().Sugar())
		_, err := svc.Initialize(ctx, InitParams{
			Authority:        testAuthority,
			TrustedSignerKey: PublicKey{Scheme: KeySchemeEd25519, Bytes: pub[:10]},
		})
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("rejects local chain in supported set", func(t *testing.T) {
		svc := NewService(ledger.NewMemory(), zap.NewNop().Sugar())
		_, err := svc.Initialize(ctx, InitParams{
			Authority:         testAuthority,
			TrustedSignerKey:  key,
			SupportedChainIDs: []ChainID{LocalChain, 1},
		})
		assert.ErrorIs(t, err, ErrInvalidDestinationChain)
	})

	t.Run("operations before initialize fail", func(t *testing.T) {
		svc := NewService(ledger.NewMemory(), zap.NewNop().Sugar())
		_, err := svc.Config(ctx)
		assert.ErrorIs(t, err, ErrNotInitialized)
		_, err = svc.RegisterAsset(ctx, RegisterAssetParams{AssetID: "a", Owner: testOwner})
		assert.ErrorIs(t, err, ErrNotInitialized)
		_, err = svc.InitiateTransfer(ctx, InitiateParams{AssetID: "a", Owner: testOwner, DestinationChainID: 1, DestinationAddress: destAddr()})
		assert.ErrorIs(t, err, ErrNotInitialized)
	})
}

func TestRegisterAsset(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)

	rec := h.registerAsset(t, "A1", true)
	assert.Equal(t, testOwner, rec.OriginalOwner)
	assert.Equal(t, testOwner, rec.CurrentOwner)
	assert.False(t, rec.Locked)
	assert.Equal(t, LocalChain, rec.OriginChainID)

	holder, err := h.tokens.CustodyOf(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, testOwner, holder)

	cfg, err := h.svc.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cfg.TotalAssetsRegistered)

	t.Run("duplicate id rejected", func(t *testing.T) {
		_, err := h.svc.RegisterAsset(ctx, RegisterAssetParams{AssetID: "A1", Owner: "other"})
		assert.ErrorIs(t, err, ErrAssetExists)
	})

	t.Run("empty fields rejected", func(t *testing.T) {
		_, err := h.svc.RegisterAsset(ctx, RegisterAssetParams{AssetID: "", Owner: testOwner})
		assert.ErrorIs(t, err, ErrInvalidRequest)
		_, err = h.svc.RegisterAsset(ctx, RegisterAssetParams{AssetID: "A2", Owner: ""})
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})
}

func TestAssertOwnership(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)
	h.registerAsset(t, "A1", true)

	assert.NoError(t, h.svc.AssertOwnership(ctx, "A1", testOwner))
	assert.ErrorIs(t, h.svc.AssertOwnership(ctx, "A1", "impostor"), ErrNotOwner)
	assert.ErrorIs(t, h.svc.AssertOwnership(ctx, "missing", testOwner), ErrNotFound)

	t.Run("registry cache disagreeing with ledger custody is rejected", func(t *testing.T) {
		// Move real custody out from under the registry cache.
		require.NoError(t, h.tokens.TransferCustody(ctx, "A1", testOwner, "thief"))
		assert.ErrorIs(t, h.svc.AssertOwnership(ctx, "A1", testOwner), ErrNotOwner)
		require.NoError(t, h.tokens.TransferCustody(ctx, "A1", "thief", testOwner))
	})
}

func TestInitiateTransfer(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)
	h.registerAsset(t, "A1", true)

	transfer, err := h.svc.InitiateTransfer(ctx, InitiateParams{
		AssetID:            "A1",
		Owner:              testOwner,
		DestinationChainID: 56,
		DestinationAddress: destAddr(),
		Nonce:              42,
	})
	require.NoError(t, err)
	assert.Equal(t, TransferStatusPending, transfer.Status)
	assert.Equal(t, uint64(42), transfer.Nonce)
	assert.Equal(t, ChainID(56), transfer.DestinationChainID)

	asset, err := h.svc.GetAsset(ctx, "A1")
	require.NoError(t, err)
	assert.True(t, asset.Locked)
	assert.Equal(t, testOwner, asset.CurrentOwner)

	holder, err := h.tokens.CustodyOf(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, CustodianID, holder)

	cfg, err := h.svc.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cfg.TotalTransfersInitiated)

	t.Run("locked asset cannot initiate again", func(t *testing.T) {
		_, err := h.svc.InitiateTransfer(ctx, InitiateParams{
			AssetID: "A1", Owner: testOwner, DestinationChainID: 56,
			DestinationAddress: destAddr(), Nonce: 43,
		})
		// Custody sits with the bridge while locked, so the ownership
		// check trips before the lock check.
		assert.ErrorIs(t, err, ErrNotOwner)
	})
}

func TestInitiateTransferValidation(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)
	h.registerAsset(t, "A1", true)
	h.registerAsset(t, "A2", false)

	base := InitiateParams{
		AssetID:            "A1",
		Owner:              testOwner,
		DestinationChainID: 56,
		DestinationAddress: destAddr(),
		Nonce:              42,
	}

	tests := []struct {
		name   string
		mutate func(*InitiateParams)
		want   error
	}{
		{name: "unsupported destination", mutate: func(p *InitiateParams) { p.DestinationChainID = 999 }, want: ErrInvalidDestinationChain},
		{name: "local chain destination", mutate: func(p *InitiateParams) { p.DestinationChainID = LocalChain }, want: ErrInvalidDestinationChain},
		{name: "short address", mutate: func(p *InitiateParams) { p.DestinationAddress = p.DestinationAddress[:19] }, want: ErrInvalidAddressEncoding},
		{name: "unknown asset", mutate: func(p *InitiateParams) { p.AssetID = "missing" }, want: ErrNotFound},
		{name: "not the owner", mutate: func(p *InitiateParams) { p.Owner = "impostor" }, want: ErrNotOwner},
		{name: "not eligible", mutate: func(p *InitiateParams) { p.AssetID = "A2" }, want: ErrNotEligible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := base
			tt.mutate(&params)
			_, err := h.svc.InitiateTransfer(ctx, params)
			require.ErrorIs(t, err, tt.want)

			// A rejected initiation leaves no trace.
			asset, err := h.svc.GetAsset(ctx, "A1")
			require.NoError(t, err)
			assert.False(t, asset.Locked)
			holder, err := h.tokens.CustodyOf(ctx, "A1")
			require.NoError(t, err)
			assert.Equal(t, testOwner, holder)
			_, err = h.svc.GetTransfer(ctx, params.AssetID, params.Nonce)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}

	t.Run("nonce reuse per asset", func(t *testing.T) {
		_, err := h.svc.InitiateTransfer(ctx, base)
		require.NoError(t, err)
		_, err = h.svc.ConfirmTransfer(ctx, "A1", base.Nonce, false)
		require.NoError(t, err)

		// Asset is unlocked again, but the (assetId, nonce) pair is spent.
		_, err = h.svc.InitiateTransfer(ctx, base)
		assert.ErrorIs(t, err, ErrNonceAlreadyUsed)

		next := base
		next.Nonce = 43
		_, err = h.svc.InitiateTransfer(ctx, next)
		assert.NoError(t, err)
	})
}

func TestConfirmTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("success completes and keeps the lock", func(t *testing.T) {
		h := newTestHarness(t)
		h.registerAsset(t, "A1", true)
		_, err := h.svc.InitiateTransfer(ctx, InitiateParams{
			AssetID: "A1", Owner: testOwner, DestinationChainID: 56,
			DestinationAddress: destAddr(), Nonce: 42,
		})
		require.NoError(t, err)

		transfer, err := h.svc.ConfirmTransfer(ctx, "A1", 42, true)
		require.NoError(t, err)
		assert.Equal(t, TransferStatusCompleted, transfer.Status)

		asset, err := h.svc.GetAsset(ctx, "A1")
		require.NoError(t, err)
		assert.True(t, asset.Locked)

		holder, err := h.tokens.CustodyOf(ctx, "A1")
		require.NoError(t, err)
		assert.Equal(t, CustodianID, holder)
	})

	t.Run("failure unlocks and returns custody", func(t *testing.T) {
		h := newTestHarness(t)
		h.registerAsset(t, "A1", true)
		_, err := h.svc.InitiateTransfer(ctx, InitiateParams{
			AssetID: "A1", Owner: testOwner, DestinationChainID: 56,
			DestinationAddress: destAddr(), Nonce: 42,
		})
		require.NoError(t, err)

		transfer, err := h.svc.ConfirmTransfer(ctx, "A1", 42, false)
		require.NoError(t, err)
		assert.Equal(t, TransferStatusFailed, transfer.Status)

		asset, err := h.svc.GetAsset(ctx, "A1")
		require.NoError(t, err)
		assert.False(t, asset.Locked)
		assert.Equal(t, testOwner, asset.CurrentOwner)

		holder, err := h.tokens.CustodyOf(ctx, "A1")
		require.NoError(t, err)
		assert.Equal(t, testOwner, holder)
	})

	t.Run("terminal confirmations are idempotent", func(t *testing.T) {
		h := newTestHarness(t)
		h.registerAsset(t, "A1", true)
		_, err := h.svc.InitiateTransfer(ctx, InitiateParams{
			AssetID: "A1", Owner: testOwner, DestinationChainID: 56,
			DestinationAddress: destAddr(), Nonce: 42,
		})
		require.NoError(t, err)

		_, err = h.svc.ConfirmTransfer(ctx, "A1", 42, true)
		require.NoError(t, err)

		// A late contradictory confirmation must not flip the state.
		transfer, err := h.svc.ConfirmTransfer(ctx, "A1", 42, false)
		require.NoError(t, err)
		assert.Equal(t, TransferStatusCompleted, transfer.Status)
	})

	t.Run("unknown transfer", func(t *testing.T) {
		h := newTestHarness(t)
		_, err := h.svc.ConfirmTransfer(ctx, "A1", 42, true)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestReceiveFirstArrival(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)

	msg := InboundMessage{
		OriginChainID: 1,
		OriginTxHash:  "0xab12cd34ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34",
		Recipient:     "recipient-1",
		MetadataURI:   "ipfs://meta",
		DisplayName:   "Wrapped Thing",
		Symbol:        "WTHNG",
		OriginalOwner: "0x00112233445566778899aabbccddeeff00112233",
		Nonce:         7,
	}
	sig := h.sign(t, msg)

	receipt, asset, err := h.svc.Receive(ctx, msg, sig)
	require.NoError(t, err)
	assert.True(t, receipt.Verified)
	assert.Equal(t, msg.OriginalOwner, receipt.OriginalOwnerOnOrigin)
	assert.Equal(t, "recipient-1", asset.CurrentOwner)
	assert.Equal(t, ChainID(1), asset.OriginChainID)
	assert.False(t, asset.Locked)
	assert.True(t, asset.CrossChainEligible)

	wantID, err := DeriveBridgedAssetID(msg.OriginChainID, msg.OriginTxHash)
	require.NoError(t, err)
	assert.Equal(t, wantID, asset.AssetID)

	holder, err := h.tokens.CustodyOf(ctx, asset.AssetID)
	require.NoError(t, err)
	assert.Equal(t, "recipient-1", holder)

	got, err := h.svc.GetReceipt(ctx, msg.ReceiptKey())
	require.NoError(t, err)
	assert.Equal(t, receipt.AssetID, got.AssetID)

	t.Run("replay rejected", func(t *testing.T) {
		_, _, err := h.svc.Receive(ctx, msg, sig)
		assert.ErrorIs(t, err, ErrNonceAlreadyUsed)
	})

	t.Run("same tx different nonce collides on derived id", func(t *testing.T) {
		dup := msg
		dup.Nonce = 8
		_, _, err := h.svc.Receive(ctx, dup, h.sign(t, dup))
		assert.ErrorIs(t, err, ErrInconsistentReceiptState)
	})
}

func TestReceiveRejectsBadSignature(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)

	msg := InboundMessage{
		OriginChainID: 1,
		OriginTxHash:  "0xab12cd34ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34",
		Recipient:     "recipient-1",
		Nonce:         7,
	}
	sig := h.sign(t, msg)

	t.Run("tampered field", func(t *testing.T) {
		tampered := msg
		tampered.Recipient = "attacker"
		_, _, err := h.svc.Receive(ctx, tampered, sig)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("garbage signature", func(t *testing.T) {
		_, _, err := h.svc.Receive(ctx, msg, make([]byte, 64))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("rejection does not consume the replay key", func(t *testing.T) {
		_, _, err := h.svc.Receive(ctx, msg, sig)
		assert.NoError(t, err)
	})
}

func TestReceiveReturnLeg(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)
	h.registerAsset(t, "A1", true)

	_, err := h.svc.InitiateTransfer(ctx, InitiateParams{
		AssetID: "A1", Owner: testOwner, DestinationChainID: 56,
		DestinationAddress: destAddr(), Nonce: 42,
	})
	require.NoError(t, err)
	_, err = h.svc.ConfirmTransfer(ctx, "A1", 42, true)
	require.NoError(t, err)

	msg := InboundMessage{
		OriginChainID: 56,
		OriginTxHash:  "0xfeedface00000000000000000000000000000000000000000000000000000001",
		Recipient:     "returnee-1",
		TokenRef:      "A1",
		OriginalOwner: "0x00112233445566778899aabbccddeeff00112233",
		Nonce:         1,
	}

	receipt, asset, err := h.svc.Receive(ctx, msg, h.sign(t, msg))
	require.NoError(t, err)
	assert.Equal(t, "A1", receipt.AssetID)
	assert.False(t, asset.Locked)
	assert.Equal(t, "returnee-1", asset.CurrentOwner)

	holder, err := h.tokens.CustodyOf(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, "returnee-1", holder)

	t.Run("return leg for an unlocked asset is inconsistent", func(t *testing.T) {
		again := msg
		again.OriginTxHash = "0xfeedface00000000000000000000000000000000000000000000000000000002"
		again.Nonce = 2
		_, _, err := h.svc.Receive(ctx, again, h.sign(t, again))
		assert.ErrorIs(t, err, ErrInconsistentReceiptState)
	})
}

func TestPauseGate(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)
	h.registerAsset(t, "A1", true)

	_, err := h.svc.SetPaused(ctx, testAuthority, true)
	require.NoError(t, err)

	_, err = h.svc.InitiateTransfer(ctx, InitiateParams{
		AssetID: "A1", Owner: testOwner, DestinationChainID: 56,
		DestinationAddress: destAddr(), Nonce: 42,
	})
	assert.ErrorIs(t, err, ErrPaused)

	msg := InboundMessage{
		OriginChainID: 1,
		OriginTxHash:  "0xab12cd34ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34",
		Recipient:     "recipient-1",
		Nonce:         7,
	}
	_, _, err = h.svc.Receive(ctx, msg, h.sign(t, msg))
	assert.ErrorIs(t, err, ErrPaused)

	// Reads stay available while paused.
	_, err = h.svc.GetAsset(ctx, "A1")
	assert.NoError(t, err)
	_, err = h.svc.Config(ctx)
	assert.NoError(t, err)

	t.Run("unpause restores operation", func(t *testing.T) {
		_, err := h.svc.SetPaused(ctx, testAuthority, false)
		require.NoError(t, err)
		_, err = h.svc.InitiateTransfer(ctx, InitiateParams{
			AssetID: "A1", Owner: testOwner, DestinationChainID: 56,
			DestinationAddress: destAddr(), Nonce: 42,
		})
		assert.NoError(t, err)
	})
}

func TestCoordinatorAuthorization(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)

	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	newKey := PublicKey{Scheme: KeySchemeEd25519, Bytes: pub}

	_, err = h.svc.SetPaused(ctx, "impostor", true)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = h.svc.SetTrustedSignerKey(ctx, "impostor", newKey)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = h.svc.AddSupportedChain(ctx, "impostor", 10)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = h.svc.RemoveSupportedChain(ctx, "impostor", 56)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = h.svc.SetPaused(ctx, "", true)
	assert.ErrorIs(t, err, ErrUnauthorized)

	cfg, err := h.svc.Config(ctx)
	require.NoError(t, err)
	assert.False(t, cfg.Paused)
	assert.Equal(t, []ChainID{1, 56, 137}, cfg.SupportedChains())
}

func TestSupportedChainManagement(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)
	h.registerAsset(t, "A1", true)

	cfg, err := h.svc.AddSupportedChain(ctx, testAuthority, 10)
	require.NoError(t, err)
	assert.Equal(t, []ChainID{1, 10, 56, 137}, cfg.SupportedChains())

	_, err = h.svc.AddSupportedChain(ctx, testAuthority, LocalChain)
	assert.ErrorIs(t, err, ErrInvalidDestinationChain)

	cfg, err = h.svc.RemoveSupportedChain(ctx, testAuthority, 56)
	require.NoError(t, err)
	assert.Equal(t, []ChainID{1, 10, 137}, cfg.SupportedChains())

	_, err = h.svc.InitiateTransfer(ctx, InitiateParams{
		AssetID: "A1", Owner: testOwner, DestinationChainID: 56,
		DestinationAddress: destAddr(), Nonce: 42,
	})
	assert.ErrorIs(t, err, ErrInvalidDestinationChain)
}

func TestSignerKeyRotation(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)

	newPub, newPriv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	_, err = h.svc.SetTrustedSignerKey(ctx, testAuthority, PublicKey{Scheme: KeySchemeEd25519, Bytes: newPub})
	require.NoError(t, err)

	msg := InboundMessage{
		OriginChainID: 1,
		OriginTxHash:  "0xab12cd34ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34",
		Recipient:     "recipient-1",
		Nonce:         7,
	}

	t.Run("old key no longer accepted", func(t *testing.T) {
		_, _, err := h.svc.Receive(ctx, msg, h.sign(t, msg))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("new key accepted", func(t *testing.T) {
		canonical, err := msg.CanonicalBytes()
		require.NoError(t, err)
		_, _, err = h.svc.Receive(ctx, msg, ed25519.Sign(newPriv, canonical))
		assert.NoError(t, err)
	})

	t.Run("malformed rotation rejected", func(t *testing.T) {
		_, err := h.svc.SetTrustedSignerKey(ctx, testAuthority, PublicKey{Scheme: KeySchemeEd25519, Bytes: newPub[:8]})
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})
}

func TestListPendingTransfers(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)
	h.registerAsset(t, "A1", true)
	h.registerAsset(t, "A2", true)

	_, err := h.svc.InitiateTransfer(ctx, InitiateParams{
		AssetID: "A1", Owner: testOwner, DestinationChainID: 56,
		DestinationAddress: destAddr(), Nonce: 1,
	})
	require.NoError(t, err)
	_, err = h.svc.InitiateTransfer(ctx, InitiateParams{
		AssetID: "A2", Owner: testOwner, DestinationChainID: 137,
		DestinationAddress: destAddr(), Nonce: 1,
	})
	require.NoError(t, err)

	assert.Len(t, h.svc.ListPendingTransfers(ctx), 2)

	_, err = h.svc.ConfirmTransfer(ctx, "A1", 1, true)
	require.NoError(t, err)

	pending := h.svc.ListPendingTransfers(ctx)
	require.Len(t, pending, 1)
	assert.Equal(t, "A2", pending[0].AssetID)
}

func TestStats(t *testing.T) {
	ctx := context.Background()

	svc := NewService(ledger.NewMemory(), zap.NewNop().Sugar())
	assert.False(t, svc.Stats(ctx).Initialized)

	h := newTestHarness(t)
	h.registerAsset(t, "A1", true)

	st := h.svc.Stats(ctx)
	assert.True(t, st.Initialized)
	assert.False(t, st.Paused)
	assert.Equal(t, 1, st.Assets)
	assert.Equal(t, 0, st.ConsumedNonce)
}
