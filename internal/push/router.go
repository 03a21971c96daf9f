package push

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sheikhshariarnehal/nesttask-edge/internal/clients"
	apperrors "github.com/sheikhshariarnehal/nesttask-edge/pkg/errors"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/logger"
)

type clientDirectory interface {
	FindByURL(url string) (*clients.Client, bool)
	Send(id string, msg clients.Message) error
	OpenWindow(userID uuid.UUID, url string) *clients.Client
	Broadcast(msg clients.Message)
}

// Router resolves notification clicks: focus an existing window on the
// target URL, or open a new one, then tell every client about the click.
type Router struct {
	displays *Display
	registry clientDirectory
	logg     *logger.Logger
}

// NewRouter builds a click router.
func NewRouter(displays *Display, registry clientDirectory, logg *logger.Logger) (*Router, error) {
	if displays == nil {
		return nil, fmt.Errorf("display registry required")
	}
	if registry == nil {
		return nil, fmt.Errorf("client registry required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Router{displays: displays, registry: registry, logg: logg}, nil
}

// Click handles a click on the notification with the given tag. The
// notification closes no matter which action was taken.
func (r *Router) Click(ctx context.Context, tag, action string) error {
	notification, ok := r.displays.Close(tag)
	if !ok {
		return apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("no displayed notification with tag %q", tag))
	}
	if action == ActionClose {
		return nil
	}

	logCtx := r.logg.WithFields(ctx, map[string]any{
		"tag": tag,
		"url": notification.Data.URL,
	})

	target := notification.Data.URL
	if client, found := r.registry.FindByURL(target); found {
		if err := r.registry.Send(client.ID, clients.Message{Type: clients.MessageFocus, URL: target}); err != nil {
			r.logg.Error(logCtx, "failed to focus client", err)
		}
	} else {
		userID := uuid.Nil
		if notification.UserID != nil {
			userID = *notification.UserID
		}
		opened := r.registry.OpenWindow(userID, target)
		logCtx = r.logg.WithClientID(logCtx, opened.ID)
		r.logg.Info(logCtx, "opened window for notification")
	}

	// The click broadcast goes out only when both identifiers exist, and
	// reaches the freshly opened window too.
	if notification.Data.TaskID != "" && notification.Data.Type != "" {
		r.registry.Broadcast(clients.NotificationClicked(notification.Data.TaskID, notification.Data.Type))
	}
	return nil
}
