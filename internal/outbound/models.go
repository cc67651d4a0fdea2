package outbound

import (
	"net/http"

	"github.com/navikt/ehandelkanal-2/pkg/errmsg"
)

// Status is the caller-facing outcome of an outbound submission.
type Status string

const (
	StatusSuccess    Status = "SUCCESS"
	StatusFailed     Status = "FAILED"
	StatusBadRequest Status = "BAD_REQUEST"
)

// Response is the JSON body returned to the submitting system.
type Response struct {
	CorrelationID string `json:"correlationId"`
	Status        Status `json:"status"`
	Message       string `json:"message,omitempty"`
}

// ResponseFor maps the outcome of a send to its response body and HTTP
// status. Failures caused by the submitted document itself are the caller's
// to fix; everything downstream of a well-formed document is ours.
func ResponseFor(correlationID string, err error) (Response, int) {
	if err == nil {
		return Response{CorrelationID: correlationID, Status: StatusSuccess}, http.StatusOK
	}
	switch errmsg.KindOf(err) {
	case errmsg.KindParse,
		errmsg.KindInvalidScheme,
		errmsg.KindMissingRequiredValues,
		errmsg.KindInvalidDocumentType,
		errmsg.KindDataBind,
		errmsg.KindClientRequest:
		return Response{
			CorrelationID: correlationID,
			Status:        StatusBadRequest,
			Message:       err.Error(),
		}, http.StatusBadRequest
	default:
		return Response{
			CorrelationID: correlationID,
			Status:        StatusFailed,
			Message:       err.Error(),
		}, http.StatusInternalServerError
	}
}
