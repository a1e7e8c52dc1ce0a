package http

import (
	"encoding/json"
	"net/http"

	"videotube/errs"
)

var errUnauthorized = errs.Errorf(errs.EUNAUTHORIZED, "Unauthorized request.")

// Response is the success envelope every endpoint uses.
type Response struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

// returnData writes data wrapped in the success envelope.
func returnData(w http.ResponseWriter, r *http.Request, status int, data interface{}, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := Response{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	}
	if err := json.NewEncoder(w).Encode(&resp); err != nil {
		errs.LogError(r, err)
	}
}

func returnError(w http.ResponseWriter, r *http.Request, err error) {
	errs.ReturnError(w, r, err)
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	errs.ReturnError(w, r, errs.Errorf(errs.ENOTFOUND, "Route %s %s does not exist.", r.Method, r.URL.Path))
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Method %s is not allowed on %s.", r.Method, r.URL.Path))
}
