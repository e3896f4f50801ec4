// File: /models/response.go
package models

import "encoding/json"

// Response is the envelope every backend endpoint answers with. Success
// responses carry Data, failures carry Error.
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message"`
	Code    int    `json:"code"`
	Error   string `json:"error,omitempty"`
}

// rawResponse lets the error field be a string or any JSON value, since the
// backend sometimes reports structured errors.
type rawResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Code    int             `json:"code"`
	Status  int             `json:"status"`
	Error   json.RawMessage `json:"error"`
}

// DecodeResponse parses an envelope without touching Data.
func DecodeResponse(body []byte) (Response[json.RawMessage], error) {
	var raw rawResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return Response[json.RawMessage]{}, err
	}
	code := raw.Code
	if code == 0 {
		code = raw.Status
	}
	resp := Response[json.RawMessage]{
		Success: raw.Success,
		Data:    raw.Data,
		Message: raw.Message,
		Code:    code,
	}
	if len(raw.Error) > 0 && string(raw.Error) != "null" {
		var s string
		if err := json.Unmarshal(raw.Error, &s); err == nil {
			resp.Error = s
		} else {
			resp.Error = string(raw.Error)
		}
	}
	return resp, nil
}
