package response

import (
	"errors"
	"net/http"

	"wallet-ledger/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// Envelope is the uniform shape of every response, success or failure.
type Envelope struct {
	Status     bool   `json:"status"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}

// Success builds a successful envelope.
func Success(statusCode int, message string, data any) *Envelope {
	return &Envelope{
		Status:     true,
		StatusCode: statusCode,
		Message:    message,
		Data:       data,
	}
}

// Failure converts err into a failure envelope. Unknown errors become a 500
// without leaking their text.
func Failure(err error) *Envelope {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		data := gin.H{"errorCode": appErr.Code}
		if appErr.Retryable {
			data["retryable"] = true
		}
		return &Envelope{
			Status:     false,
			StatusCode: appErr.HTTPStatus,
			Message:    appErr.Message,
			Data:       data,
		}
	}

	return &Envelope{
		Status:     false,
		StatusCode: http.StatusInternalServerError,
		Message:    "Internal server error",
		Data:       gin.H{"errorCode": "SYS_000"},
	}
}

// Write sends env using its own status code.
func Write(c *gin.Context, env *Envelope) {
	c.JSON(env.StatusCode, env)
}

// OK sends a 200 envelope with data.
func OK(c *gin.Context, message string, data any) {
	Write(c, Success(http.StatusOK, message, data))
}

// Created sends a 201 envelope with data.
func Created(c *gin.Context, message string, data any) {
	Write(c, Success(http.StatusCreated, message, data))
}

// Error sends a failure envelope. It checks if err is an *apperror.AppError
// and maps it accordingly, otherwise returns 500.
func Error(c *gin.Context, err error) {
	Write(c, Failure(err))
}

// Invalid sends a 400 envelope whose message is the first validation error
// and whose data carries the full list.
func Invalid(c *gin.Context, message string, details any) {
	Write(c, &Envelope{
		Status:     false,
		StatusCode: http.StatusBadRequest,
		Message:    message,
		Data:       gin.H{"errorCode": "VAL_001", "errors": details},
	})
}
