package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/oukeidos/amrelay/internal/apperrors"
	"github.com/oukeidos/amrelay/internal/language"
	"github.com/oukeidos/amrelay/internal/logger"
)

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

type translateRequest struct {
	Text         string `json:"text"`
	SourceLangID *int   `json:"sourceLangId"`
	TargetLangID *int   `json:"targetLangId"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "Server is running!")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: s.cfg.Version})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	answer, err := s.relay.Ask(r.Context(), req.Question)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, askResponse{Answer: answer})
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Text == "" || req.SourceLangID == nil || req.TargetLangID == nil {
		writeError(w, r, apperrors.Validation("text, sourceLangId and targetLangId are required."))
		return
	}
	source := language.FromID(language.ID(*req.SourceLangID))
	target := language.FromID(language.ID(*req.TargetLangID))

	text, err := s.relay.Translate(r.Context(), req.Text, source, target)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, translateResponse{TranslatedText: text})
}

// decodeJSON reads one JSON object from a size-capped body. Any failure is
// the client's.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperrors.New(apperrors.KindValidation,
				fmt.Sprintf("Request body exceeds %d bytes.", maxErr.Limit), err)
		case errors.Is(err, io.EOF):
			return apperrors.New(apperrors.KindValidation, "Request body is empty.", err)
		default:
			return apperrors.New(apperrors.KindValidation, "Request body must be a JSON object.", err)
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("Failed to write response", "error", err)
	}
}

// writeError logs the internal cause and sends only the safe message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	kind, _ := apperrors.KindOf(err)
	log := logger.FromContext(r.Context())

	attrs := []any{"kind", string(kind), "status", status}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) && appErr.Cause != nil {
		attrs = append(attrs, "cause", appErr.Cause.Error())
	} else {
		attrs = append(attrs, "cause", err.Error())
	}

	switch {
	case status < http.StatusInternalServerError:
		log.Info("Request rejected", attrs...)
	case kind == apperrors.KindCanceled:
		log.Warn("Request canceled", attrs...)
	default:
		log.Error("Request failed", attrs...)
	}
	writeJSON(w, status, errorResponse{Error: apperrors.PublicMessage(err)})
}
