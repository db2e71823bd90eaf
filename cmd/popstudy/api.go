package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"popstudy/internal/core"

	"github.com/gorilla/mux"
	"github.com/spf13/pflag"
)

type apiError struct {
	Error      string       `json:"error"`
	Notices    []string     `json:"notice,omitempty"`
	Candidates *core.Result `json:"candidates,omitempty"`
}

// queryHandler serves every operation at GET /v1/<operation>. Positional
// arguments and flags are read from query parameters of the same name.
func queryHandler(coord *core.Coordinator, logger *slog.Logger) *mux.Router {
	router := mux.NewRouter()
	for _, op := range operations {
		op := op
		router.HandleFunc("/v1/"+op.use, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			args := make([]string, len(op.args))
			for i, name := range op.args {
				args[i] = q.Get(name)
				if args[i] == "" {
					writeJSON(w, http.StatusBadRequest, apiError{Error: "missing parameter " + name})
					return
				}
				q.Del(name)
			}
			fs := pflag.NewFlagSet(op.use, pflag.ContinueOnError)
			run := op.bind(fs)
			var flags []string
			for key, values := range q {
				for _, v := range values {
					flags = append(flags, "--"+key+"="+v)
				}
			}
			if err := fs.Parse(flags); err != nil {
				writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
				return
			}
			res, err := run(r.Context(), coord, args)
			if err != nil {
				logger.Info("query failed", "operation", op.use, "error", err)
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, res)
		}).Methods(http.MethodGet).Name(op.use)
	}
	return router
}

func writeError(w http.ResponseWriter, err error) {
	body := apiError{Error: err.Error()}
	var noData *core.NoDataError
	if errors.As(err, &noData) {
		body.Notices = noData.Notices
	}
	var amb *core.AmbiguousReferenceError
	if errors.As(err, &amb) {
		body.Candidates = &amb.Candidates
	}
	writeJSON(w, core.StatusCode(err), body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
