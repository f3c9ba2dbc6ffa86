package repo

import (
	"context"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/infra"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/sqlinline"
)

// WebhookEventRepositoryPG remembers processed payment provider events.
type WebhookEventRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewWebhookEventRepository(sql infra.SQLExecutor) *WebhookEventRepositoryPG {
	return &WebhookEventRepositoryPG{sql: sql}
}

func (r *WebhookEventRepositoryPG) Seen(ctx context.Context, eventID string) (bool, error) {
	var seen bool
	if err := r.sql.QueryRow(ctx, sqlinline.QWebhookEventSeen, eventID).Scan(&seen); err != nil {
		return false, err
	}
	return seen, nil
}

func (r *WebhookEventRepositoryPG) MarkProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertWebhookEvent, eventID, eventType)
	return err
}

var _ domain.WebhookEventRepository = (*WebhookEventRepositoryPG)(nil)
