package phonepe

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/geethamultiplex/theaterfood/internal/model"
)

// VerifyWebhook checks the callback Authorization header and decodes the
// event. The header carries hex(SHA256("username:password")); the check is
// skipped when no webhook credentials are configured.
func (c *Client) VerifyWebhook(authorization string, body []byte) (model.WebhookEvent, error) {
	var event model.WebhookEvent

	if c.cfg.WebhookUsername != "" || c.cfg.WebhookPassword != "" {
		expected := WebhookAuthorization(c.cfg.WebhookUsername, c.cfg.WebhookPassword)
		got := strings.ToLower(strings.TrimSpace(authorization))
		if subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
			return event, model.ErrWebhookUnauthorized
		}
	}

	if err := json.Unmarshal(body, &event); err != nil {
		return event, fmt.Errorf("%w: %v", model.ErrInvalidWebhook, err)
	}

	if event.Name() == "" && event.Payload.State == "" {
		return event, fmt.Errorf("%w: no event type or state", model.ErrInvalidWebhook)
	}

	return event, nil
}

func WebhookAuthorization(username, password string) string {
	sum := sha256.Sum256([]byte(username + ":" + password))
	return hex.EncodeToString(sum[:])
}
