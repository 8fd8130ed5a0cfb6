// internal/server/response.go
//
// 本檔負責統一 HTTP 回應格式與「領域錯誤 → 狀態碼」對照。
// 成功回應直接輸出 JSON；錯誤回應一律為 {"error","code"}，
// 快照寫入失敗時另附 "result"（記憶體中已生效的結果）。
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"ledgerbank/internal/bank"
)

type errorBody struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Result any    `json:"result,omitempty"`
}

// errorTable 依序比對；第一個符合者決定狀態碼與錯誤代碼。
var errorTable = []struct {
	err    error
	status int
	code   string
}{
	{bank.ErrPersistence, http.StatusInternalServerError, "persistence_failure"},
	{bank.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{bank.ErrInvalidDuration, http.StatusBadRequest, "invalid_duration"},
	{bank.ErrInvalidName, http.StatusBadRequest, "invalid_name"},
	{bank.ErrSelfTransfer, http.StatusBadRequest, "self_transfer"},
	{bank.ErrAccountNotFound, http.StatusNotFound, "account_not_found"},
	{bank.ErrRecipientNotFound, http.StatusNotFound, "recipient_not_found"},
	{bank.ErrLoanNotFound, http.StatusNotFound, "loan_not_found"},
	{bank.ErrInsufficientFunds, http.StatusConflict, "insufficient_funds"},
	{bank.ErrLoanLimitReached, http.StatusConflict, "loan_limit_reached"},
	{bank.ErrDepositLimitReached, http.StatusConflict, "deposit_limit_reached"},
	{bank.ErrMinimumAmountNotMet, http.StatusConflict, "minimum_amount_not_met"},
	{bank.ErrOverpayment, http.StatusConflict, "overpayment_rejected"},
	{bank.ErrLoanDenied, http.StatusUnprocessableEntity, "loan_denied"},
	{bank.ErrIDExhausted, http.StatusServiceUnavailable, "id_exhausted"},
	{errBadRequest, http.StatusBadRequest, "bad_request"},
}

// errBadRequest 代表請求本身無法解析（JSON 格式錯誤等）。
var errBadRequest = errors.New("malformed request")

// classify 回傳錯誤對應的狀態碼與錯誤代碼。
func classify(err error) (int, string) {
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			return e.status, e.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

// writeJSON 統一輸出成功回應。
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr 統一輸出錯誤回應。
func writeErr(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeJSON(w, status, errorBody{Error: err.Error(), Code: code})
}

// decodeJSON 解析請求內容；失敗時包成 errBadRequest。
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}
