package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/eventdeck/eventdeck-go/internal/domain"
	"github.com/eventdeck/eventdeck-go/internal/platform/auditlog"
	"github.com/eventdeck/eventdeck-go/internal/platform/auth"
	"github.com/eventdeck/eventdeck-go/internal/platform/objectstore"
	"github.com/eventdeck/eventdeck-go/internal/platform/requestid"
	"github.com/eventdeck/eventdeck-go/internal/service/cards"
	"github.com/eventdeck/eventdeck-go/internal/service/layouts"
)

type auditRecorder interface {
	Record(ctx context.Context, event auditlog.Event) error
}

type mediaPresigner interface {
	PresignUpload(ctx context.Context, cardID, filename string) (objectstore.Upload, error)
}

type boardAPI struct {
	logger  *slog.Logger
	cards   *cards.Service
	layouts *layouts.Service
	// Optional.
	audit auditRecorder
	media mediaPresigner
}

func newBoardAPI(logger *slog.Logger, cardSvc *cards.Service, layoutSvc *layouts.Service) *boardAPI {
	return &boardAPI{logger: logger, cards: cardSvc, layouts: layoutSvc}
}

func (api *boardAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /events", api.handleCreateEvent)
	mux.HandleFunc("GET /events/{event_id}", api.handleGetEvent)
	mux.HandleFunc("GET /events/{event_id}/cards", api.handleListCards)
	mux.HandleFunc("POST /events/{event_id}/cards", api.handleCreateCard)

	mux.HandleFunc("GET /cards/{card_id}", api.handleGetCard)
	mux.HandleFunc("PATCH /cards/{card_id}", api.handleMoveCard)
	mux.HandleFunc("DELETE /cards/{card_id}", api.handleDeleteCard)
	mux.HandleFunc("GET /cards/{card_id}/layouts", api.handleListLayouts)
	mux.HandleFunc("POST /cards/{card_id}/media/upload-url", api.handlePresignMedia)

	mux.HandleFunc("PUT /layouts", api.handleSetLayouts)
}

type eventJSON struct {
	EventID   string    `json:"event_id"`
	Title     string    `json:"title"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type cardJSON struct {
	CardID    string    `json:"card_id"`
	EventID   string    `json:"event_id"`
	Rank      int       `json:"rank"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type layoutJSON struct {
	CardItemID string     `json:"card_item_id"`
	Screen     string     `json:"screen"`
	X          int        `json:"x"`
	Y          int        `json:"y"`
	W          int        `json:"w"`
	H          int        `json:"h"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

type createEventRequest struct {
	Title string `json:"title"`
}

// A missing or null rank leaves the card in place.
type moveCardRequest struct {
	Rank *int `json:"rank"`
}

type setLayoutsRequest struct {
	Layouts []layoutJSON `json:"layouts"`
}

type presignMediaRequest struct {
	Filename string `json:"filename"`
}

func toEventJSON(e domain.Event) eventJSON {
	return eventJSON{EventID: e.ID, Title: e.Title, CreatedBy: e.CreatedBy, CreatedAt: e.CreatedAt}
}

func toCardJSON(c domain.Card) cardJSON {
	return cardJSON{CardID: c.ID, EventID: c.EventID, Rank: c.Rank, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

func toLayoutsJSON(in []domain.Layout) []layoutJSON {
	out := make([]layoutJSON, 0, len(in))
	for _, l := range in {
		updatedAt := l.UpdatedAt
		out = append(out, layoutJSON{
			CardItemID: l.CardItemID,
			Screen:     l.Screen,
			X:          l.X,
			Y:          l.Y,
			W:          l.W,
			H:          l.H,
			UpdatedAt:  &updatedAt,
		})
	}
	return out
}

func (api *boardAPI) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	event, err := api.cards.CreateEvent(r.Context(), req.Title, auth.Actor(r.Context()))
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.record(r, "event.created", "event", event.ID, map[string]any{"title": event.Title})
	api.writeJSON(w, http.StatusCreated, toEventJSON(event))
}

func (api *boardAPI) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := api.cards.GetEvent(r.Context(), r.PathValue("event_id"))
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, toEventJSON(event))
}

func (api *boardAPI) handleListCards(w http.ResponseWriter, r *http.Request) {
	list, err := api.cards.List(r.Context(), r.PathValue("event_id"))
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	out := make([]cardJSON, 0, len(list))
	for _, c := range list {
		out = append(out, toCardJSON(c))
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"cards": out})
}

func (api *boardAPI) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	card, err := api.cards.Create(r.Context(), r.PathValue("event_id"))
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.record(r, "card.created", "card", card.ID, map[string]any{"event_id": card.EventID, "rank": card.Rank})
	api.writeJSON(w, http.StatusCreated, toCardJSON(card))
}

func (api *boardAPI) handleGetCard(w http.ResponseWriter, r *http.Request) {
	card, err := api.cards.Get(r.Context(), r.PathValue("card_id"))
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, toCardJSON(card))
}

func (api *boardAPI) handleMoveCard(w http.ResponseWriter, r *http.Request) {
	var req moveCardRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	card, err := api.cards.Move(r.Context(), r.PathValue("card_id"), req.Rank)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	if req.Rank != nil {
		api.record(r, "card.moved", "card", card.ID, map[string]any{"event_id": card.EventID, "rank": card.Rank})
	}
	api.writeJSON(w, http.StatusOK, toCardJSON(card))
}

func (api *boardAPI) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	cardID := r.PathValue("card_id")
	deleted, err := api.cards.Delete(r.Context(), cardID)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	if deleted > 0 {
		api.record(r, "card.deleted", "card", cardID, nil)
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

func (api *boardAPI) handleSetLayouts(w http.ResponseWriter, r *http.Request) {
	var req setLayoutsRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	entries := make([]domain.Layout, 0, len(req.Layouts))
	for _, l := range req.Layouts {
		entries = append(entries, domain.Layout{
			CardItemID: l.CardItemID,
			Screen:     l.Screen,
			X:          l.X,
			Y:          l.Y,
			W:          l.W,
			H:          l.H,
		})
	}
	stored, err := api.layouts.Set(r.Context(), entries)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}

	screens := make(map[string][]string)
	var order []string
	for _, l := range stored {
		if _, ok := screens[l.CardItemID]; !ok {
			order = append(order, l.CardItemID)
		}
		screens[l.CardItemID] = append(screens[l.CardItemID], l.Screen)
	}
	for _, cardID := range order {
		api.record(r, "layouts.set", "card", cardID, map[string]any{"screens": screens[cardID]})
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"layouts": toLayoutsJSON(stored)})
}

func (api *boardAPI) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	list, err := api.layouts.List(r.Context(), r.PathValue("card_id"))
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"layouts": toLayoutsJSON(list)})
}

func (api *boardAPI) handlePresignMedia(w http.ResponseWriter, r *http.Request) {
	if api.media == nil {
		api.writeError(w, r, http.StatusNotImplemented, "media_disabled")
		return
	}
	var req presignMediaRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	card, err := api.cards.Get(r.Context(), r.PathValue("card_id"))
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	upload, err := api.media.PresignUpload(r.Context(), card.ID, req.Filename)
	if err != nil {
		api.logger.Warn("presign failed", "request_id", requestID(r), "card_id", card.ID, "error", err.Error())
		api.writeError(w, r, http.StatusBadRequest, "invalid_filename")
		return
	}
	api.writeJSON(w, http.StatusOK, map[string]any{
		"url":        upload.URL,
		"object_key": upload.ObjectKey,
		"expires_at": upload.ExpiresAt,
	})
}

// record appends an audit event after the mutation committed. Failures are
// logged and never fail the request.
func (api *boardAPI) record(r *http.Request, action, resourceType, resourceID string, payload map[string]any) {
	if api.audit == nil {
		return
	}
	if payload == nil {
		payload = map[string]any{}
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 750*time.Millisecond)
	defer cancel()
	err := api.audit.Record(ctx, auditlog.Event{
		OccurredAt:   time.Now().UTC(),
		Actor:        auth.Actor(r.Context()),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    requestID(r),
		IP:           auditlog.RemoteIP(r.RemoteAddr),
		UserAgent:    r.UserAgent(),
		Payload:      payload,
	})
	if err != nil {
		api.logger.Warn("audit append failed", "request_id", requestID(r), "action", action, "error", err.Error())
	}
}

// writeServiceError maps engine error kinds onto HTTP statuses.
func (api *boardAPI) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cards.ErrInvalidArgument), errors.Is(err, layouts.ErrInvalidArgument):
		api.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":      "invalid_argument",
			"detail":     err.Error(),
			"request_id": requestID(r),
		})
	case errors.Is(err, cards.ErrNotFound):
		api.writeError(w, r, http.StatusNotFound, "not_found")
	case errors.Is(err, cards.ErrConflict):
		api.writeError(w, r, http.StatusConflict, "conflict")
	case errors.Is(err, cards.ErrStoreUnavailable):
		api.logger.Error("store unavailable", "request_id", requestID(r), "path", r.URL.Path, "error", err.Error())
		api.writeError(w, r, http.StatusServiceUnavailable, "store_unavailable")
	default:
		api.logger.Error("request failed", "request_id", requestID(r), "path", r.URL.Path, "error", err.Error())
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("multiple JSON values")
	}
	return nil
}

func (api *boardAPI) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(body)
}

func (api *boardAPI) writeError(w http.ResponseWriter, r *http.Request, status int, code string) {
	api.writeJSON(w, status, map[string]any{
		"error":      code,
		"request_id": requestID(r),
	})
}

func requestID(r *http.Request) string {
	if id, ok := requestid.FromContext(r.Context()); ok {
		return id
	}
	return strings.TrimSpace(r.Header.Get(requestid.Header))
}
