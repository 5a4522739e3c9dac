package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tatlico/tatlico-backend/pkg/logger"
)

// ViewsChannel carries stale-view notifications for read-side caches.
const ViewsChannel = "tt:views"

const (
	viewProductList         = "products:list"
	viewProductDetail       = "products:detail"
	viewPendingRequests     = "price-requests:pending"
	viewPendingByProductFmt = "price-requests:pending:%s"
)

type invalidatorStore interface {
	Del(ctx context.Context, keys ...string) error
	Publish(ctx context.Context, channel string, payload any) error
	ViewKey(parts ...string) string
}

// Invalidator signals that named read views are stale after price mutations.
// Best effort: failures are logged and never propagated to the caller.
type Invalidator struct {
	store invalidatorStore
	logg  *logger.Logger
}

// NewInvalidator constructs an Invalidator backed by Redis.
func NewInvalidator(store invalidatorStore, logg *logger.Logger) (*Invalidator, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	return &Invalidator{store: store, logg: logg}, nil
}

// ProductViews marks the catalog listing and the product detail view stale.
func (i *Invalidator) ProductViews(ctx context.Context, productIDs ...uuid.UUID) {
	views := []string{viewProductList}
	for _, id := range productIDs {
		views = append(views, viewProductDetail+":"+id.String())
	}
	i.invalidate(ctx, views)
}

// PriceRequestViews marks the pending-request listings stale, globally and
// per affected product.
func (i *Invalidator) PriceRequestViews(ctx context.Context, productIDs ...uuid.UUID) {
	views := []string{viewPendingRequests}
	for _, id := range productIDs {
		views = append(views, fmt.Sprintf(viewPendingByProductFmt, id.String()))
	}
	i.invalidate(ctx, views)
}

func (i *Invalidator) invalidate(ctx context.Context, views []string) {
	if i == nil || i.store == nil || len(views) == 0 {
		return
	}

	keys := make([]string, 0, len(views))
	for _, view := range views {
		keys = append(keys, i.store.ViewKey(view))
	}

	if err := i.store.Del(ctx, keys...); err != nil {
		i.warn(ctx, "cache.invalidate.del_failed", views, err)
	}
	if err := i.store.Publish(ctx, ViewsChannel, strings.Join(views, ",")); err != nil {
		i.warn(ctx, "cache.invalidate.publish_failed", views, err)
	}
}

func (i *Invalidator) warn(ctx context.Context, msg string, views []string, err error) {
	if i.logg == nil {
		return
	}
	logCtx := i.logg.WithFields(ctx, map[string]any{
		"views": strings.Join(views, ","),
		"error": err.Error(),
	})
	i.logg.Warn(logCtx, msg)
}
