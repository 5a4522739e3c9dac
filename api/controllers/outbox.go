package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/tatlico/tatlico-backend/api/responses"
	"github.com/tatlico/tatlico-backend/api/validators"
	"github.com/tatlico/tatlico-backend/pkg/db/models"
	pkgerrors "github.com/tatlico/tatlico-backend/pkg/errors"
	"github.com/tatlico/tatlico-backend/pkg/logger"
)

// DLQReader exposes the dead-letter rows for operator inspection.
type DLQReader interface {
	List(ctx context.Context, limit int) ([]models.OutboxDLQ, error)
	FindByEventID(ctx context.Context, eventID uuid.UUID) (*models.OutboxDLQ, error)
}

// AdminListDLQ returns the most recent dead-lettered outbox events.
func AdminListDLQ(reader DLQReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reader == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dlq reader unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := reader.List(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list dlq entries"))
			return
		}

		responses.WriteSuccess(w, rows)
	}
}

// AdminGetDLQEvent looks up a dead-lettered event by its outbox event id.
func AdminGetDLQEvent(reader DLQReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reader == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dlq reader unavailable"))
			return
		}

		eventID, err := parsePathID(r, "eventID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := reader.FindByEventID(r.Context(), eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load dlq entry"))
			return
		}
		if entry == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "dlq entry not found"))
			return
		}

		responses.WriteSuccess(w, entry)
	}
}
