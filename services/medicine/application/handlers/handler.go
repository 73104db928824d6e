package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ghuser/medshelf/pkg/errhttp"
	"github.com/ghuser/medshelf/pkg/httpx"
	"github.com/ghuser/medshelf/pkg/logger"
	appsvcs "github.com/ghuser/medshelf/services/medicine/application/services"
)

// Deps is what every medicine handler is built from.
type Deps struct {
	Services   *appsvcs.Services
	Logger     logger.Logger
	Production bool
}

// ErrorResponse is returned on all error responses.
type ErrorResponse struct {
	Error string `json:"error" example:"name is required"`
} // @name ErrorResponse

type base struct {
	svc        *appsvcs.Services
	log        logger.Logger
	production bool
}

func newBase(d Deps) base {
	log := d.Logger
	if log == nil {
		log = logger.Nop()
	}
	return base{svc: d.Services, log: log, production: d.Production}
}

// fail writes err as JSON and logs it when it is a server error.
func (b base) fail(w http.ResponseWriter, r *http.Request, err error) {
	if status := errhttp.WriteError(w, err, b.production); status >= http.StatusInternalServerError {
		b.log.ErrorContext(r.Context(), "medicine request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
	}
}

// medicineID parses the {id} path parameter. Anything that is not a
// positive integer cannot name a record, so it is answered like a miss.
func (b base) medicineID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusNotFound, "Not found")
		return 0, false
	}
	return id, true
}

// queryInt returns the integer query parameter key, or nil when it is
// absent or malformed.
func queryInt(r *http.Request, key string) *int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return nil
	}
	return &v
}
