package handlers

import (
	"errors"
	"net/http"

	"github.com/CameronXie/order-service/internal/api/rest/response"
	"github.com/CameronXie/order-service/internal/apperr"
)

// writeError maps a pipeline error to its status and client-safe detail.
// Unclassified errors are reported as storage faults.
func writeError(w http.ResponseWriter, err error) {
	detail := apperr.StorageDetail

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		detail = appErr.Detail
	}

	response.JSONErrorResponse(w, apperr.HTTPStatus(apperr.KindOf(err)), detail)
}
