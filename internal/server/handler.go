// internal/server/handler.go
//
// Package server 提供 HTTP 操作介面（operator），作為 bank 模組的應用層。
// 每個 handler 僅負責：
//  1. 解析請求並轉為 bank 層的原始輸入
//  2. 呼叫 bank 層執行操作（驗證、變更與快照寫入皆在 bank 層完成）
//  3. 以一致格式回傳成功結果或具名的拒絕原因
package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ledgerbank/internal/bank"
	"ledgerbank/internal/money"
)

// Server 為 HTTP 層核心結構。
type Server struct {
	Bank *bank.Bank
	log  *zap.Logger
}

// NewServer 建立新的 HTTP 伺服器。log 可為 nil。
func NewServer(b *bank.Bank, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{Bank: b, log: log}
}

type createAccountRequest struct {
	Name string `json:"name"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type termRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Years  int             `json:"years"`
}

type transferRequest struct {
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// respond 記錄指標並輸出結果。
// ErrPersistence 時操作已在記憶體生效，payload 一併回傳讓呼叫端知道目前狀態。
func (s *Server) respond(w http.ResponseWriter, r *http.Request, op string, okStatus int, payload any, err error) {
	operationsTotal.WithLabelValues(op, outcome(err)).Inc()
	if err == nil {
		writeJSON(w, okStatus, payload)
		return
	}
	status, code := classify(err)
	body := errorBody{Error: err.Error(), Code: code}
	if errors.Is(err, bank.ErrPersistence) {
		body.Result = payload
		s.log.Error("operation applied but not persisted",
			zap.String("operation", op),
			zap.String("cid", CorrelationIDFromContext(r.Context())),
			zap.Error(err))
	}
	writeJSON(w, status, body)
}

// createAccount: POST /accounts
func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respond(w, r, "create_account", 0, nil, err)
		return
	}
	a, err := s.Bank.CreateAccount(r.Context(), req.Name)
	s.respond(w, r, "create_account", http.StatusCreated, a, err)
}

// listAccounts: GET /accounts
func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Bank.List())
}

// getAccount: GET /accounts/{acc}
func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	a, err := s.Bank.Get(chi.URLParam(r, "acc"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// dashboard: GET /accounts/{acc}/dashboard
func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.Bank.Dashboard(chi.URLParam(r, "acc"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// deposit: POST /accounts/{acc}/deposit
func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respond(w, r, "deposit", 0, nil, err)
		return
	}
	a, err := s.Bank.Deposit(r.Context(), chi.URLParam(r, "acc"), req.Amount)
	s.respond(w, r, "deposit", http.StatusOK, a, err)
}

// withdraw: POST /accounts/{acc}/withdraw
func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respond(w, r, "withdraw", 0, nil, err)
		return
	}
	a, err := s.Bank.Withdraw(r.Context(), chi.URLParam(r, "acc"), req.Amount)
	s.respond(w, r, "withdraw", http.StatusOK, a, err)
}

// transfer: POST /accounts/{acc}/transfer  → JSON {to, amount}
// 成功後同時回傳雙方最新狀態。
func (s *Server) transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respond(w, r, "transfer", 0, nil, err)
		return
	}
	res, err := s.Bank.Transfer(r.Context(), chi.URLParam(r, "acc"), req.To, req.Amount)
	s.respond(w, r, "transfer", http.StatusOK, res, err)
}

// loanEligibility: GET /accounts/{acc}/loans/eligibility?amount=
func (s *Server) loanEligibility(w http.ResponseWriter, r *http.Request) {
	amt, err := money.Parse(r.URL.Query().Get("amount"))
	if err != nil {
		writeErr(w, errors.Join(bank.ErrInvalidAmount, err))
		return
	}
	e, err := s.Bank.CheckEligibility(chi.URLParam(r, "acc"), amt)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"eligibility": e,
		"eligible":    e.Eligible(),
	})
}

// applyLoan: POST /accounts/{acc}/loans → JSON {amount, years}
func (s *Server) applyLoan(w http.ResponseWriter, r *http.Request) {
	var req termRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respond(w, r, "apply_loan", 0, nil, err)
		return
	}
	loan, err := s.Bank.ApplyLoan(r.Context(), chi.URLParam(r, "acc"), req.Amount, req.Years)
	s.respond(w, r, "apply_loan", http.StatusCreated, loan, err)
}

// payLoan: POST /accounts/{acc}/loans/{loanID}/payments → JSON {amount}
func (s *Server) payLoan(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respond(w, r, "pay_loan", 0, nil, err)
		return
	}
	p, err := s.Bank.PayLoan(r.Context(), chi.URLParam(r, "acc"), chi.URLParam(r, "loanID"), req.Amount)
	s.respond(w, r, "pay_loan", http.StatusOK, p, err)
}

// openTermDeposit: POST /accounts/{acc}/term-deposits → JSON {amount, years}
func (s *Server) openTermDeposit(w http.ResponseWriter, r *http.Request) {
	var req termRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respond(w, r, "open_term_deposit", 0, nil, err)
		return
	}
	td, err := s.Bank.OpenTermDeposit(r.Context(), chi.URLParam(r, "acc"), req.Amount, req.Years)
	s.respond(w, r, "open_term_deposit", http.StatusCreated, td, err)
}

// persist: POST /admin/persist，於快照寫入失敗後手動重試。
func (s *Server) persist(w http.ResponseWriter, r *http.Request) {
	err := s.Bank.Persist(r.Context())
	s.respond(w, r, "persist", http.StatusOK, s.Bank.Status(), err)
}

// health 提供健康檢查端點：GET /health。
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"ledger": s.Bank.Status(),
	})
}
