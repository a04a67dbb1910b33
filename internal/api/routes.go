package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Routes(m *Middleware, corsOrigins []string, rateLimitRPM int) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(m.RequestID)
	r.Use(m.RequestLogger)
	r.Use(m.Recoverer)
	r.Use(m.SecurityHeaders)
	r.Use(m.Compress)
	r.Use(m.Timeout(15 * time.Second))
	r.Use(middleware.Heartbeat("/ping"))

	// CORS and rate limiting - configured from main
	r.Use(m.CORS(corsOrigins))
	r.Use(m.RateLimit(rateLimitRPM))

	// Health endpoints
	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)

	// v1 API routes
	r.Route("/v1", func(r chi.Router) {
		// Coordinator administration
		r.Route("/admin", func(r chi.Router) {
			r.Post("/initialize", h.Initialize)
			r.Post("/pause", h.SetPaused)
			r.Post("/signer", h.SetSigner)
			r.Post("/chains", h.AddChain)
			r.Delete("/chains/{chainID}", h.RemoveChain)
		})

		// Program state
		r.Get("/config", h.GetConfig)
		r.Get("/stats", h.GetStats)

		// Asset registry
		r.Route("/assets", func(r chi.Router) {
			r.Post("/", h.RegisterAsset)
			r.Get("/{assetID}", h.GetAsset)
			r.Get("/{assetID}/transfers", h.GetAssetTransferHistory)
			r.Get("/{assetID}/receipts", h.GetAssetReceiptHistory)
		})

		// Outbound transfers
		r.Route("/transfers", func(r chi.Router) {
			r.Post("/", h.InitiateTransfer)
			r.Post("/confirm", h.ConfirmTransfer)
			r.Get("/pending", h.ListPendingTransfers)
			r.Get("/{assetID}/{nonce}", h.GetTransfer)
		})

		// Inbound relay messages
		r.Post("/receive", h.Receive)
		r.Get("/receipts/{chainID}/{txHash}/{nonce}", h.GetReceipt)

		// Live updates
		r.Get("/stream", h.HandleSSE)
		r.Get("/ws", h.HandleWebSocket)
	})

	return r
}
