package net

import (
	"encoding/json"
	"net/http"

	perr "newslens/internal/platform/errors"
)

// Wire is the envelope every endpoint writes, including middleware rejections
type Wire struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       any            `json:"data,omitempty"`
}

// Reply builds the envelope for data under status
// a non nil err replaces both: the status comes from its code and data is dropped
func Reply(status int, data any, err error, reqID string) (int, Wire) {
	if err != nil {
		status = perr.HTTPStatus(err)
		w := perr.WireFrom(err)
		return status, Wire{
			StatusCode: status,
			Status:     http.StatusText(status),
			Code:       w.Code,
			Error:      w.Message,
			RequestID:  reqID,
		}
	}
	if status == 0 {
		status = http.StatusOK
	}
	return status, Wire{StatusCode: status, Status: http.StatusText(status), RequestID: reqID, Data: data}
}

// Error is Reply for a failure
func Error(err error, reqID string) (int, Wire) { return Reply(0, nil, err, reqID) }

// WriteJSON writes v as the json body with status
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
