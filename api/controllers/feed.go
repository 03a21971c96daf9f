package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sheikhshariarnehal/nesttask-edge/api/middleware"
	"github.com/sheikhshariarnehal/nesttask-edge/api/responses"
	"github.com/sheikhshariarnehal/nesttask-edge/internal/feed"
	pkgerrors "github.com/sheikhshariarnehal/nesttask-edge/pkg/errors"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/logger"
)

type notificationDTO struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	URL       string    `json:"url"`
	TaskID    string    `json:"taskId,omitempty"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	Timestamp time.Time `json:"timestamp"`
}

type feedDTO struct {
	Notifications []notificationDTO `json:"notifications"`
	UnreadCount   int               `json:"unreadCount"`
	Live          bool              `json:"live"`
}

func toFeedDTO(items []feed.Notification, unread int, live bool) feedDTO {
	out := feedDTO{
		Notifications: make([]notificationDTO, 0, len(items)),
		UnreadCount:   unread,
		Live:          live,
	}
	for _, n := range items {
		out.Notifications = append(out.Notifications, notificationDTO{
			ID:        n.ID,
			Title:     n.Title,
			Body:      n.Body,
			URL:       n.URL,
			TaskID:    n.TaskID,
			Type:      string(n.Type),
			Read:      n.Read,
			Timestamp: n.Timestamp,
		})
	}
	return out
}

type feedLoader interface {
	LoadNotifications(ctx context.Context, userID uuid.UUID) ([]feed.Notification, error)
}

func authedUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

// FeedList returns the notification feed for the caller. A live websocket
// session serves its in-memory model, read state included. Without one the
// list is loaded straight from the store with everything unread.
func FeedList(sessions *feed.Sessions, repo feedLoader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if s, ok := sessions.Get(userID); ok {
			if err := s.Unavailable(); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, toFeedDTO(s.Model.Items(), s.Model.Unread(), s.Live()))
			return
		}

		items, err := repo.LoadNotifications(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toFeedDTO(items, len(items), false))
	}
}

// MarkFeedRead marks one notification read in the caller's session model.
func MarkFeedRead(sessions *feed.Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		notificationID := chi.URLParam(r, "notificationId")
		if notificationID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "notification id is required"))
			return
		}

		s, ok := sessions.Get(userID)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "no active session"))
			return
		}

		s.Model.MarkRead(notificationID)
		responses.WriteSuccess(w, map[string]int{"unreadCount": s.Model.Unread()})
	}
}

// DeleteFeedItem removes one notification from the caller's session model.
func DeleteFeedItem(sessions *feed.Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		notificationID := chi.URLParam(r, "notificationId")
		if notificationID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "notification id is required"))
			return
		}

		s, ok := sessions.Get(userID)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "no active session"))
			return
		}

		s.Model.Remove(notificationID)
		responses.WriteSuccess(w, map[string]int{"unreadCount": s.Model.Unread()})
	}
}

// MarkAllFeedRead clears the unread counter for the caller's session model.
func MarkAllFeedRead(sessions *feed.Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		s, ok := sessions.Get(userID)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "no active session"))
			return
		}

		s.Model.MarkAllRead()
		responses.WriteSuccess(w, map[string]int{"unreadCount": 0})
	}
}
