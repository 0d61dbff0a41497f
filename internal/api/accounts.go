package api

import (
	"fmt"
	"net/http"

	"account-ledger-go/internal/registry"
	"account-ledger-go/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type createAccountRequest struct {
	AccountNumber  string           `json:"accountNumber"`
	AccountType    string           `json:"accountType"`
	InitialBalance *decimal.Decimal `json:"initialBalance"`
	CustomerId     string           `json:"customerId"`
}

type updateAccountRequest struct {
	AccountNumber  *string          `json:"accountNumber"`
	AccountType    *string          `json:"accountType"`
	InitialBalance *decimal.Decimal `json:"initialBalance"`
	Status         *bool            `json:"status"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.InitialBalance == nil {
		writeError(w, r, fmt.Errorf("%w: initial balance is required", store.ErrValidation))
		return
	}

	account, err := s.accounts.Create(r.Context(), registry.CreateAccountParams{
		AccountNumber:  req.AccountNumber,
		AccountType:    req.AccountType,
		InitialBalance: *req.InitialBalance,
		CustomerId:     req.CustomerId,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	view, err := s.accounts.View(r.Context(), *account)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "Account created successfully", view)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := s.accounts.Get(r.Context(), chi.URLParam(r, "accountId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := s.accounts.View(r.Context(), *account)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Account retrieved successfully", view)
}

func (s *Server) handleGetAccountByNumber(w http.ResponseWriter, r *http.Request) {
	account, err := s.accounts.GetByNumber(r.Context(), chi.URLParam(r, "accountNumber"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := s.accounts.View(r.Context(), *account)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Account retrieved successfully", view)
}

func (s *Server) handleListAccountsByCustomer(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.accounts.ListByCustomer(r.Context(), chi.URLParam(r, "customerId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	views, err := s.accounts.Views(r.Context(), accounts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Accounts retrieved successfully", views)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.accounts.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	views, err := s.accounts.Views(r.Context(), accounts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Accounts retrieved successfully", views)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req updateAccountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	account, err := s.accounts.Update(r.Context(), chi.URLParam(r, "accountId"), registry.AccountPatch{
		AccountNumber:  req.AccountNumber,
		AccountType:    req.AccountType,
		InitialBalance: req.InitialBalance,
		Status:         req.Status,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := s.accounts.View(r.Context(), *account)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Account updated successfully", view)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.accounts.Delete(r.Context(), chi.URLParam(r, "accountId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if outcome == registry.DeleteSoft {
		writeMessage(w, http.StatusOK, "Account has movements and was deactivated")
		return
	}
	writeMessage(w, http.StatusOK, "Account deleted successfully")
}
