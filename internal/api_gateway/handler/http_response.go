package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crowdfunding-ledger/internal/api_gateway/middleware"
	"github.com/crowdfunding-ledger/internal/domain/shared"
	funds "github.com/crowdfunding-ledger/internal/funds/service"
)

// Response is the envelope of every API response.
type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	Meta          *MetaInfo   `json:"meta,omitempty"`
}

type ErrorInfo struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

type MetaInfo struct {
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
	TotalItems int `json:"total_items,omitempty"`
}

func newPaginatedResponse(data interface{}, page, perPage, totalItems int) *Response {
	totalPages := (totalItems + perPage - 1) / perPage
	return &Response{
		Data: data,
		Meta: &MetaInfo{
			Page:       page,
			PerPage:    perPage,
			TotalPages: totalPages,
			TotalItems: totalItems,
		},
	}
}

func respond(c *gin.Context, status int, resp *Response) {
	resp.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(status, resp)
}

func RespondWithData(c *gin.Context, statusCode int, data interface{}) {
	respond(c, statusCode, &Response{Data: data})
}

func RespondWithError(c *gin.Context, statusCode int, code, message string) {
	respond(c, statusCode, &Response{Error: &ErrorInfo{Code: code, Message: message}})
}

func RespondWithPaginatedData(c *gin.Context, data interface{}, page, perPage, totalItems int) {
	respond(c, http.StatusOK, newPaginatedResponse(data, page, perPage, totalItems))
}

func RespondOK(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusOK, data)
}

func RespondCreated(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusCreated, data)
}

func RespondAccepted(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusAccepted, data)
}

func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, funds.CodeValidation, message)
}

func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, funds.CodeInternal, "An internal server error occurred")
}

// RespondError maps a service error onto a status code and the error envelope.
// Infrastructure failures are reported without their cause; the handler has already
// logged it.
func RespondError(c *gin.Context, err error) {
	code := funds.ErrorCode(err)
	switch code {
	case funds.CodeValidation:
		RespondWithError(c, http.StatusBadRequest, code, err.Error())
	case funds.CodeNotFound:
		RespondWithError(c, http.StatusNotFound, code, err.Error())
	case funds.CodeInsufficientFunds:
		info := &ErrorInfo{Code: code, Message: err.Error()}
		var ife shared.InsufficientFundsError
		if errors.As(err, &ife) {
			info.Details = map[string]string{
				"requested": ife.Requested.StringFixed(2),
				"available": ife.Available.StringFixed(2),
				"currency":  string(ife.Currency),
			}
		}
		respond(c, http.StatusUnprocessableEntity, &Response{Error: info})
	case funds.CodeNoFunds:
		RespondWithError(c, http.StatusUnprocessableEntity, code, err.Error())
	case funds.CodeProviderRejected:
		RespondWithError(c, http.StatusPaymentRequired, code, err.Error())
	case funds.CodeAlreadyProcessed:
		RespondOK(c, gin.H{"already_processed": true})
	case funds.CodeConflict:
		RespondWithError(c, http.StatusConflict, code, "The resource was modified concurrently, retry the request")
	default:
		RespondInternalError(c)
	}
}
