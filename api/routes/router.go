package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sheikhshariarnehal/nesttask-edge/api/controllers"
	"github.com/sheikhshariarnehal/nesttask-edge/api/middleware"
	"github.com/sheikhshariarnehal/nesttask-edge/internal/clients"
	"github.com/sheikhshariarnehal/nesttask-edge/internal/feed"
	"github.com/sheikhshariarnehal/nesttask-edge/internal/lifecycle"
	"github.com/sheikhshariarnehal/nesttask-edge/internal/push"
	"github.com/sheikhshariarnehal/nesttask-edge/internal/pushsubs"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/config"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/db"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/logger"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	ctrl *lifecycle.Controller,
	sessions *feed.Sessions,
	feedRepo *feed.Repository,
	registry *clients.Registry,
	pushService pushsubs.Service,
	registrar *pushsubs.WebPushRegistrar,
	clickRouter *push.Router,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP, ctrl))
	})

	r.Get("/api/public/push/key", controllers.PushPublicKey(registrar))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/feed", func(r chi.Router) {
			r.Get("/", controllers.FeedList(sessions, feedRepo, logg))
			r.Post("/{notificationId}/read", controllers.MarkFeedRead(sessions, logg))
			r.Post("/read-all", controllers.MarkAllFeedRead(sessions, logg))
			r.Delete("/{notificationId}", controllers.DeleteFeedItem(sessions, logg))
		})

		r.Route("/push", func(r chi.Router) {
			r.Post("/subscribe", controllers.PushSubscribe(pushService, logg))
			r.Post("/unsubscribe", controllers.PushUnsubscribe(pushService, logg))
			r.Post("/click", controllers.PushClick(clickRouter, logg))
		})

		r.Get("/stream", controllers.Stream(sessions, registry, logg))
	})

	return r
}
