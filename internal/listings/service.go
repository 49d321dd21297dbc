package listings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/logistyczniepl/marketplace/internal/database/models"
	"github.com/logistyczniepl/marketplace/internal/tasks"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("listing not found")
	ErrForbidden = errors.New("not the listing owner")
)

// ValidationError carries per-field messages for a rejected write.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "listing validation failed"
}

type Service struct {
	db    *gorm.DB
	queue *asynq.Client // nil in tests and when Redis is down
}

func NewService(db *gorm.DB, queue *asynq.Client) *Service {
	return &Service{db: db, queue: queue}
}

type CreateInput struct {
	OwnerID       uuid.UUID
	Title         string
	Location      string
	Description   string
	AvailableFrom time.Time

	SocialFacilities *bool
	ParkingTruck     *bool
	ParkingCars      *bool
	Media            *bool
	Heating          *bool
	Flooring         *bool

	Images []string
}

func (in CreateInput) validate() map[string]string {
	fields := make(map[string]string)
	if in.Title == "" {
		fields["title"] = "Title is required"
	}
	if in.Location == "" {
		fields["location"] = "Location is required"
	}
	if in.Description == "" {
		fields["description"] = "Description is required"
	}
	if in.AvailableFrom.IsZero() {
		fields["available_from"] = "Availability date is required"
	}
	return fields
}

// Create persists a new listing. It enters moderation as not accepted and
// stays hidden from the public browse until an admin accepts it.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Warehouse, error) {
	if fields := input.validate(); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	warehouse := models.Warehouse{
		OwnerID:          input.OwnerID,
		Title:            input.Title,
		Location:         input.Location,
		Description:      input.Description,
		AvailableFrom:    input.AvailableFrom,
		SocialFacilities: input.SocialFacilities,
		ParkingTruck:     input.ParkingTruck,
		ParkingCars:      input.ParkingCars,
		Media:            input.Media,
		Heating:          input.Heating,
		Flooring:         input.Flooring,
		Images:           input.Images,
		Accepted:         false,
		Promoted:         false,
	}

	if err := s.db.WithContext(ctx).Create(&warehouse).Error; err != nil {
		return nil, err
	}
	return &warehouse, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Warehouse, error) {
	var warehouse models.Warehouse
	if err := s.db.WithContext(ctx).First(&warehouse, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &warehouse, nil
}

// CanView reports whether the viewer may see the listing. Pending listings
// are visible only to their owner and admins.
func CanView(w *models.Warehouse, viewerID uuid.UUID, viewerRole string) bool {
	if w.Accepted {
		return true
	}
	return viewerRole == models.RoleAdmin || w.OwnerID == viewerID
}

// CanEdit reports whether the actor may mutate the listing.
func CanEdit(w *models.Warehouse, actorID uuid.UUID, actorRole string) bool {
	return actorRole == models.RoleAdmin || w.OwnerID == actorID
}

type UpdateInput struct {
	Title         *string
	Location      *string
	Description   *string
	AvailableFrom *time.Time

	SocialFacilities *bool
	ParkingTruck     *bool
	ParkingCars      *bool
	Media            *bool
	Heating          *bool
	Flooring         *bool

	Images *[]string
}

// Update overwrites only the supplied fields. Only the owner or an admin
// may mutate a listing.
func (s *Service) Update(ctx context.Context, id, actorID uuid.UUID, actorRole string, input UpdateInput) (*models.Warehouse, error) {
	warehouse, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanEdit(warehouse, actorID, actorRole) {
		return nil, ErrForbidden
	}

	updates := make(map[string]interface{})
	fields := make(map[string]string)

	if input.Title != nil {
		if *input.Title == "" {
			fields["title"] = "Title cannot be empty"
		}
		updates["title"] = *input.Title
	}
	if input.Location != nil {
		if *input.Location == "" {
			fields["location"] = "Location cannot be empty"
		}
		updates["location"] = *input.Location
	}
	if input.Description != nil {
		if *input.Description == "" {
			fields["description"] = "Description cannot be empty"
		}
		updates["description"] = *input.Description
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if input.AvailableFrom != nil {
		updates["available_from"] = *input.AvailableFrom
	}
	if input.SocialFacilities != nil {
		updates["social_facilities"] = *input.SocialFacilities
	}
	if input.ParkingTruck != nil {
		updates["parking_truck"] = *input.ParkingTruck
	}
	if input.ParkingCars != nil {
		updates["parking_cars"] = *input.ParkingCars
	}
	if input.Media != nil {
		updates["media"] = *input.Media
	}
	if input.Heating != nil {
		updates["heating"] = *input.Heating
	}
	if input.Flooring != nil {
		updates["flooring"] = *input.Flooring
	}
	if input.Images != nil {
		updates["images"] = models.StringArray(*input.Images)
	}

	if len(updates) == 0 {
		return warehouse, nil
	}
	updates["updated_at"] = time.Now()

	if err := s.db.WithContext(ctx).Model(warehouse).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete hard-deletes the listing and queues its images for removal from
// the bucket.
func (s *Service) Delete(ctx context.Context, id, actorID uuid.UUID, actorRole string) error {
	warehouse, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !CanEdit(warehouse, actorID, actorRole) {
		return ErrForbidden
	}

	if err := s.db.WithContext(ctx).Unscoped().Delete(warehouse).Error; err != nil {
		return err
	}

	if s.queue != nil && len(warehouse.Images) > 0 {
		task, err := tasks.NewListingImagePurgeTask(tasks.ListingImagePurgePayload{ListingID: id})
		if err != nil {
			return err
		}
		if _, err := s.queue.EnqueueContext(ctx, task, asynq.Queue("low")); err != nil {
			return err
		}
	}
	return nil
}

// ListPublic returns accepted listings matching the criteria, promoted
// first, newest first within each group. Acceptance is enforced here, not
// in the client.
func (s *Service) ListPublic(ctx context.Context, criteria Criteria) ([]models.Warehouse, error) {
	var warehouses []models.Warehouse
	if err := s.db.WithContext(ctx).
		Where("accepted = ?", true).
		Order("promoted DESC, created_at DESC").
		Find(&warehouses).Error; err != nil {
		return nil, err
	}
	return Filter(warehouses, criteria), nil
}

// ListByOwner returns the owner's listings, pending ones included.
func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Warehouse, error) {
	var warehouses []models.Warehouse
	if err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&warehouses).Error; err != nil {
		return nil, err
	}
	return warehouses, nil
}

// SetAccepted flips the moderation flag. Admin only, checked at the route.
func (s *Service) SetAccepted(ctx context.Context, id uuid.UUID, accepted bool) (*models.Warehouse, error) {
	return s.setFlag(ctx, id, "accepted", accepted)
}

// SetPromoted flips the priority-placement flag. Admin only, checked at the route.
func (s *Service) SetPromoted(ctx context.Context, id uuid.UUID, promoted bool) (*models.Warehouse, error) {
	return s.setFlag(ctx, id, "promoted", promoted)
}

func (s *Service) setFlag(ctx context.Context, id uuid.UUID, column string, value bool) (*models.Warehouse, error) {
	warehouse, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(warehouse).
		Updates(map[string]interface{}{column: value, "updated_at": time.Now()}).Error; err != nil {
		return nil, err
	}
	return warehouse, nil
}

// AppendImage records an uploaded image URL at the end of the listing's
// image sequence.
func (s *Service) AppendImage(ctx context.Context, id, actorID uuid.UUID, actorRole, url string) (*models.Warehouse, error) {
	warehouse, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanEdit(warehouse, actorID, actorRole) {
		return nil, ErrForbidden
	}

	warehouse.Images = append(warehouse.Images, url)
	if err := s.db.WithContext(ctx).Model(warehouse).
		Updates(map[string]interface{}{"images": warehouse.Images, "updated_at": time.Now()}).Error; err != nil {
		return nil, err
	}
	return warehouse, nil
}

// ListCoworking returns the read-only coworking offers.
func (s *Service) ListCoworking(ctx context.Context) ([]models.Coworking, error) {
	var offers []models.Coworking
	if err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}
