// internal/server/router.go
//
// 本檔負責 HTTP 路由註冊與中介層（middleware）。
// 同一組路由同時掛在根路徑與 /api/v1 下。
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router 建立並回傳整個 HTTP 處理鏈。
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(correlationID)
	r.Use(requestLogger(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", CorrelationIDHeader},
		ExposedHeaders: []string{CorrelationIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", s.routes)
	r.Group(s.routes)

	return r
}

func (s *Server) routes(r chi.Router) {
	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", s.listAccounts)
		r.Post("/", s.createAccount)

		r.Route("/{acc}", func(r chi.Router) {
			r.Get("/", s.getAccount)
			r.Get("/dashboard", s.dashboard)
			r.Post("/deposit", s.deposit)
			r.Post("/withdraw", s.withdraw)
			r.Post("/transfer", s.transfer)

			r.Get("/loans/eligibility", s.loanEligibility)
			r.Post("/loans", s.applyLoan)
			r.Post("/loans/{loanID}/payments", s.payLoan)

			r.Post("/term-deposits", s.openTermDeposit)
		})
	})

	r.Post("/admin/persist", s.persist)
}
