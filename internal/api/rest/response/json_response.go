package response

import (
	"encoding/json"
	"net/http"
)

// BearerChallenge is sent with every 401 response.
const BearerChallenge = "Bearer"

// ErrorBody is the payload of every failure response.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// JSONResponse writes the given data as a JSON response with the specified status code.
func JSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// JSONErrorResponse writes detail as a JSON error body. A 401 also carries the
// bearer challenge.
func JSONErrorResponse(w http.ResponseWriter, statusCode int, detail string) {
	if statusCode == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", BearerChallenge)
	}

	JSONResponse(w, statusCode, ErrorBody{Detail: detail})
}
