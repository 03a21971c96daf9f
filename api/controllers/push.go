package controllers

import (
	"net/http"

	"github.com/sheikhshariarnehal/nesttask-edge/api/responses"
	"github.com/sheikhshariarnehal/nesttask-edge/api/validators"
	"github.com/sheikhshariarnehal/nesttask-edge/internal/push"
	"github.com/sheikhshariarnehal/nesttask-edge/internal/pushsubs"
	pkgerrors "github.com/sheikhshariarnehal/nesttask-edge/pkg/errors"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/logger"
)

type pushSubscribeRequest struct {
	Granted bool `json:"granted"`
}

type pushClickRequest struct {
	Tag    string `json:"tag" validate:"required"`
	Action string `json:"action"`
}

// PushPublicKey exposes the VAPID application server key clients need to
// create their subscription.
func PushPublicKey(registrar *pushsubs.WebPushRegistrar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"publicKey": registrar.PublicKey()})
	}
}

// PushSubscribe registers the caller for push delivery. The granted flag
// mirrors the browser permission prompt result.
func PushSubscribe(svc pushsubs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req pushSubscribeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sub, err := svc.Subscribe(r.Context(), userID, req.Granted)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sub)
	}
}

// PushUnsubscribe revokes the caller's push registration, if any.
func PushUnsubscribe(svc pushsubs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		removed, err := svc.Unsubscribe(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"removed": removed})
	}
}

// PushClick routes a notification click: dismisses the notification, then
// focuses or opens a client window and broadcasts the click context.
func PushClick(router *push.Router, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if router == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "click router unavailable"))
			return
		}

		var req pushClickRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := router.Click(r.Context(), req.Tag, req.Action); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "handled"})
	}
}
