package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nastyazhadan/trade-settlement/shared/interceptors/logger"
	"github.com/nastyazhadan/trade-settlement/shared/interceptors/recovery"
	"github.com/nastyazhadan/trade-settlement/shared/interceptors/xrequestid"
)

func NewRouter(handler *Handler, gatherer prometheus.Gatherer) http.Handler {
	router := chi.NewRouter()
	router.Use(xrequestid.HTTP, logger.HTTP, recovery.HTTP)

	router.Get("/healthz", handler.Health)
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	router.Route("/api", func(r chi.Router) {
		r.Post("/users", handler.CreateAccount)
		r.Get("/users/{username}", handler.GetAccount)

		r.Post("/stocks", handler.CreateStock)
		r.Get("/stocks", handler.ListStocks)
		r.Get("/stocks/{ticker}", handler.GetStock)

		r.Post("/transactions", handler.CreateTransaction)
		r.Get("/transactions/{username}", handler.ListTransactions)
		r.Get("/transactions/{username}/by-date", handler.ListTransactionsByDate)

		r.Get("/orders/{id}", handler.GetOrder)
	})

	return router
}
