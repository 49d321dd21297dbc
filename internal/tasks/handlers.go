package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/logistyczniepl/marketplace/internal/storage"
	"gorm.io/gorm"
)

type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
	mailer Mailer
	store  storage.ObjectStore
}

func NewHandler(db *gorm.DB, logger *slog.Logger, mailer Mailer, store storage.ObjectStore) *Handler {
	return &Handler{
		db:     db,
		logger: logger,
		mailer: mailer,
		store:  store,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypePasswordResetEmail, h.HandlePasswordResetEmail)
	mux.HandleFunc(TypeListingImagePurge, h.HandleListingImagePurge)
}

func (h *Handler) HandlePasswordResetEmail(ctx context.Context, t *asynq.Task) error {
	var payload PasswordResetEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	h.logger.Info("sending password reset email", "to", payload.Email)

	subject := "LogistyczniePL - password reset"
	body := fmt.Sprintf(
		"Hi %s,\n\n"+
			"A password reset was requested for your account.\n"+
			"Use the link below to choose a new password:\n%s\n\n"+
			"The link is valid for a limited time and works once.\n"+
			"If you did not request this, you can ignore this email.\n",
		payload.FirstName, payload.ResetLink,
	)

	if err := h.mailer.Send(payload.Email, subject, body); err != nil {
		h.logger.Error("reset email failed", "to", payload.Email, "error", err)
		return err
	}
	return nil
}

func (h *Handler) HandleListingImagePurge(ctx context.Context, t *asynq.Task) error {
	var payload ListingImagePurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	if h.store == nil {
		h.logger.Warn("no object store configured, skipping image purge", "listing_id", payload.ListingID)
		return nil
	}

	h.logger.Info("purging listing images", "listing_id", payload.ListingID)

	if err := h.store.DeletePrefix(ctx, storage.ListingPrefix(payload.ListingID)); err != nil {
		h.logger.Error("image purge failed", "listing_id", payload.ListingID, "error", err)
		return err
	}
	return nil
}
