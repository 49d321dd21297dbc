package tasks

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypePasswordResetEmail = "email:password_reset"
	TypeListingImagePurge  = "listing:image_purge"
)

// PasswordResetEmailPayload contains the data for a reset email task
type PasswordResetEmailPayload struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	ResetLink string `json:"reset_link"`
}

func NewPasswordResetEmailTask(payload PasswordResetEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePasswordResetEmail, data), nil
}

// ListingImagePurgePayload contains the data for an image purge task,
// enqueued when a listing is hard-deleted.
type ListingImagePurgePayload struct {
	ListingID uuid.UUID `json:"listing_id"`
}

func NewListingImagePurgeTask(payload ListingImagePurgePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeListingImagePurge, data), nil
}
