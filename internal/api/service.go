/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"account-ledger-go/internal/ledger"
	"account-ledger-go/internal/models"
	"account-ledger-go/internal/registry"
	"account-ledger-go/internal/statement"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthChecker reports whether the backing store can serve requests
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Server exposes the registry, ledger and statement operations over HTTP
type Server struct {
	accounts   *registry.Service
	ledger     *ledger.Service
	statements *statement.Generator
	health     HealthChecker

	requestTimeout time.Duration
	metricsEnabled bool
}

func NewServer(accounts *registry.Service, ledgerService *ledger.Service, statements *statement.Generator, health HealthChecker, cfg models.ServerConfig) *Server {
	return &Server{
		accounts:       accounts,
		ledger:         ledgerService,
		statements:     statements,
		health:         health,
		requestTimeout: cfg.RequestTimeout,
		metricsEnabled: cfg.MetricsEnabled,
	}
}

// Handler returns the chi router with all routes mounted
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if s.requestTimeout > 0 {
		r.Use(middleware.Timeout(s.requestTimeout))
	}

	r.Get("/health", s.handleHealth)
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", s.handleCreateAccount)
			r.Get("/", s.handleListAccounts)
			r.Get("/by-number/{accountNumber}", s.handleGetAccountByNumber)
			r.Get("/by-customer/{customerId}", s.handleListAccountsByCustomer)
			r.Get("/{accountId}", s.handleGetAccount)
			r.Put("/{accountId}", s.handleUpdateAccount)
			r.Delete("/{accountId}", s.handleDeleteAccount)
		})
		r.Route("/movements", func(r chi.Router) {
			r.Post("/", s.handleCreateMovement)
			r.Get("/", s.handleListMovements)
			r.Get("/by-account/{accountId}", s.handleListMovementsByAccount)
			r.Get("/{movementId}", s.handleGetMovement)
			r.Put("/{movementId}", s.handleUpdateMovement)
			r.Delete("/{movementId}", s.handleDeleteMovement)
		})
		r.Get("/reports/{customerId}", s.handleReport)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed on %s", r.Method, r.URL.Path))
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.health.Ping(r.Context()); err != nil {
		writeError(w, r, fmt.Errorf("database health check failed: %w", err))
		return
	}
	writeData(w, http.StatusOK, "Service is healthy", map[string]string{"status": "ok"})
}
