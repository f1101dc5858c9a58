package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"attraction_registry/internal/app"
	"attraction_registry/internal/domain"
)

const maxBodyBytes = 64 << 10

type Handlers struct {
	Registry        *app.AttractionRegistry
	Proximity       *app.ProximityQuery
	Auth            func(http.Handler) http.Handler
	DefaultRadiusKm float64
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type registerRequest struct {
	ExternalPlaceID string   `json:"externalPlaceId"`
	Category        string   `json:"category"`
	CustomTags      []string `json:"customTags"`
}

func (s *Server) MountHandlers(h *Handlers) {
	auth := h.Auth
	if auth == nil {
		auth = func(next http.Handler) http.Handler { return next }
	}
	s.mux.Route("/attractions", func(r chi.Router) {
		r.Get("/", h.listAttractions)
		// registered before /{externalPlaceId} so "nearby" is never taken as an id
		r.Get("/nearby", h.nearby)
		r.Get("/{externalPlaceId}", h.getAttraction)
		r.With(auth).Post("/", h.registerAttraction)
		r.With(auth).Delete("/{externalPlaceId}", h.deleteAttraction)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain errors onto problem responses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeProblem(w, http.StatusBadRequest, "Invalid Request", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "attraction not found")
	case errors.Is(err, domain.ErrUpstream):
		writeProblem(w, http.StatusBadGateway, "Upstream Failure", "place lookup failed")
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCached serves v with a weak ETag and honours If-None-Match.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON body")
	}
}

func (h *Handlers) listAttractions(w http.ResponseWriter, r *http.Request) {
	all, err := h.Registry.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, all)
}

func (h *Handlers) getAttraction(w http.ResponseWriter, r *http.Request) {
	a, err := h.Registry.Get(r.Context(), chi.URLParam(r, "externalPlaceId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, a)
}

func (h *Handlers) nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err := parseFloat(q.Get("lat"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid lat", "lat is required and must be a number")
		return
	}
	lng, err := parseFloat(q.Get("lng"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid lng", "lng is required and must be a number")
		return
	}
	radius := h.DefaultRadiusKm
	if rs := q.Get("radius"); rs != "" {
		if radius, err = parseFloat(rs); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid radius", "radius must be a number of kilometres")
			return
		}
	}

	out, err := h.Proximity.Nearby(r.Context(), domain.Coordinate{Lat: lat, Lng: lng}, radius)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(s, 64)
}

func (h *Handlers) registerAttraction(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "request body must be a JSON object")
		return
	}

	a, created, err := h.Registry.RegisterOrEndorse(r.Context(), app.RegisterInput{
		ExternalPlaceID: req.ExternalPlaceID,
		UserID:          UserID(r.Context()),
		Category:        req.Category,
		CustomTags:      req.CustomTags,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, a)
}

func (h *Handlers) deleteAttraction(w http.ResponseWriter, r *http.Request) {
	if err := h.Registry.Delete(r.Context(), chi.URLParam(r, "externalPlaceId")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
