package response

import (
	"errors"

	"barangay-registry/internal/error/apperr"
	"barangay-registry/internal/error/code"
)

// Response is the uniform result envelope
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success wraps data in a success envelope
func Success(data interface{}) (int, Response) {
	return code.StatusOK, Response{
		Code:    code.ErrSuccess,
		Message: code.GetMessage(code.ErrSuccess),
		Data:    data,
	}
}

// Fail builds an envelope for a bare code
func Fail(errorCode int, data interface{}) (int, Response) {
	return code.GetStatus(errorCode), Response{
		Code:    errorCode,
		Message: code.GetMessage(errorCode),
		Data:    data,
	}
}

// FromError builds the envelope and HTTP status for err
func FromError(err error) (int, Response) {
	if err == nil {
		return Success(nil)
	}
	errorCode := apperr.CodeOf(err)
	status := code.GetStatus(errorCode)
	resp := Response{Code: errorCode, Message: err.Error()}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		detail := map[string]interface{}{}
		if len(appErr.Fields) > 0 {
			detail["fields"] = appErr.Fields
		}
		if appErr.Count > 0 {
			detail["count"] = appErr.Count
		}
		if appErr.Retryable {
			detail["retryable"] = true
		}
		if appErr.StatusUnknown {
			detail["statusUnknown"] = true
		}
		if len(detail) > 0 {
			resp.Data = detail
		}
	}
	return status, resp
}
