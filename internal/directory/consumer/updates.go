// Package consumer applies personnel directory mutations published on Kafka.
package consumer

import (
	"context"
	"fmt"

	"slotkeeper/internal/directory/service"
	apperrors "slotkeeper/pkg/errors"
	"slotkeeper/pkg/kafka"
	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/model"
)

const EventTypeDirectoryMutation = "personnel.mutation"

type UpdatesHandler struct {
	service service.DirectoryService
	log     *logger.Logger
}

func NewUpdatesHandler(service service.DirectoryService, log *logger.Logger) *UpdatesHandler {
	return &UpdatesHandler{
		service: service,
		log:     log.Component("directory.consumer"),
	}
}

// Handle is a kafka.MessageHandler. Malformed payloads, stale versions and
// rejected mutations are permanent and go to the DLQ; infrastructure errors
// are retried by the consumer.
func (h *UpdatesHandler) Handle(ctx context.Context, msg kafka.Message) error {
	if t := msg.GetEventType(); t != "" && t != EventTypeDirectoryMutation {
		h.log.Debug("Ignoring unrelated personnel event", "event_type", t, "offset", msg.Offset)
		return nil
	}

	var m model.DirectoryMutation
	if err := msg.DecodeValue(&m); err != nil {
		return kafka.Permanent(fmt.Errorf("decode directory mutation: %w", err))
	}
	if m.Actor == "" {
		m.Actor = "kafka:" + msg.Key
	}

	snap, err := h.service.Update(ctx, m.ExpectedVersion, m)
	if err != nil {
		if kafka.IsTransient(err) {
			return err
		}
		if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInternal {
			h.log.Warn("Personnel mutation refused",
				"kind", m.Kind,
				"expected_version", m.ExpectedVersion,
				"event_id", msg.GetEventID(),
				"code", appErr.Code,
			)
			return kafka.Permanent(err)
		}
		return err
	}

	h.log.Info("Personnel mutation applied",
		"kind", m.Kind,
		"version", snap.Version,
		"event_id", msg.GetEventID(),
	)
	return nil
}
