package server

import (
	"encoding/json"
	"errors"
	"net/http"

	clientdist "github.com/vango-go/tablequery/client/dist"
	tqerrors "github.com/vango-go/tablequery/internal/errors"
	"github.com/vango-go/tablequery/pkg/tablequery"
)

// EncodeRequest is the body of POST /api/encode.
type EncodeRequest struct {
	URL    string            `json:"url"`
	Params tablequery.Params `json:"params"`
}

// SelectAllRequest is the body of POST /api/select-all.
type SelectAllRequest struct {
	URL   string `json:"url"`
	Value bool   `json:"value"`
}

// ReconcileRequest is the body of POST /api/reconcile. When URL is set the
// selection is decoded from it; otherwise Filters is used as is.
type ReconcileRequest struct {
	URL       string                 `json:"url,omitempty"`
	Filters   map[string][]string    `json:"filters,omitempty"`
	Available []tablequery.FilterDef `json:"available"`
}

// URLResponse carries a rewritten location.
type URLResponse struct {
	URL string `json:"url"`
}

// ReconcileResponse carries annotated filter definitions.
type ReconcileResponse struct {
	Filters []tablequery.FilterDef `json:"filters"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleClientJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(clientdist.TableQueryJS)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.codec.DecodeQuery(r.URL.RawQuery))
}

func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	var req EncodeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	next, err := s.codec.Encode(req.URL, req.Params)
	if err != nil {
		writeCoded(w, urlError(req.URL, err))
		return
	}
	writeJSON(w, http.StatusOK, URLResponse{URL: next})
}

func (s *Server) handleSelectAll(w http.ResponseWriter, r *http.Request) {
	var req SelectAllRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	next, err := s.codec.SetSelectAll(req.URL, req.Value)
	if err != nil {
		writeCoded(w, urlError(req.URL, err))
		return
	}
	writeJSON(w, http.StatusOK, URLResponse{URL: next})
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	var req ReconcileRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	selected := req.Filters
	if req.URL != "" {
		selected = s.codec.Decode(req.URL).Filters
	}
	writeJSON(w, http.StatusOK, ReconcileResponse{
		Filters: tablequery.Reconcile(selected, req.Available),
	})
}

// decodeBody reads a JSON body into v, writing a T101 error on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeCoded(w, tqerrors.New("T101").Wrap(err))
		return false
	}
	return true
}

// urlError maps codec errors to coded errors.
func urlError(raw string, err error) *tqerrors.Error {
	if errors.Is(err, tablequery.ErrInvalidURL) {
		return tqerrors.New("T100").
			WithInput(raw).
			WithSuggestion("Pass an absolute URL such as https://app.example.com/users").
			Wrap(err)
	}
	return tqerrors.FromError(err, "T100")
}

func writeCoded(w http.ResponseWriter, err *tqerrors.Error) {
	writeError(w, err, err.HTTPStatus())
}

func writeError(w http.ResponseWriter, err *tqerrors.Error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":` + err.FormatJSON() + "}\n"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
