package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/TezottoWell/app-rodrigo-martins/internal/domain"
	"github.com/TezottoWell/app-rodrigo-martins/internal/repository"
	"github.com/TezottoWell/app-rodrigo-martins/internal/storage"
)

// --- Error Definitions ---
var (
	ErrUploadURLError   = errors.New("failed to generate upload URL")
	ErrDownloadURLError = errors.New("failed to generate download URL")
)

// UploadURLResponse structure for returning URL and object key
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"` // The key the client reports back on confirm
}

// ClientService covers a client's own records: body weight and profile photo.
type ClientService interface {
	AddWeight(ctx context.Context, userID primitive.ObjectID, kg float64) (*domain.WeightEntry, error)
	ListWeights(ctx context.Context, userID primitive.ObjectID) ([]domain.WeightEntry, error)
	ResetWeights(ctx context.Context, userID primitive.ObjectID, confirm domain.Confirm) (int64, error)

	RequestPhotoUpload(ctx context.Context, userID primitive.ObjectID, contentType string) (*UploadURLResponse, error)
	ConfirmPhoto(ctx context.Context, userID primitive.ObjectID, objectKey string) error
	PhotoURL(ctx context.Context, userID primitive.ObjectID) (string, error)
}

type clientService struct {
	userRepo    repository.UserRepository
	weightRepo  repository.WeightRepository
	fileStorage storage.FileStorage
	urlExpiry   time.Duration
	now         func() time.Time
}

// NewClientService creates a new instance of clientService.
func NewClientService(
	userRepo repository.UserRepository,
	weightRepo repository.WeightRepository,
	fileStorage storage.FileStorage,
	urlExpiry time.Duration,
) ClientService {
	return &clientService{
		userRepo:    userRepo,
		weightRepo:  weightRepo,
		fileStorage: fileStorage,
		urlExpiry:   urlExpiry,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// === Weights ===

// AddWeight records kg dated today (UTC midnight).
func (s *clientService) AddWeight(ctx context.Context, userID primitive.ObjectID, kg float64) (*domain.WeightEntry, error) {
	if err := domain.ValidateWeight(kg); err != nil {
		return nil, err
	}
	now := s.now()
	entry := &domain.WeightEntry{
		UserID:   userID,
		WeightKg: kg,
		Date:     time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
	}
	if _, err := s.weightRepo.Create(ctx, entry); err != nil {
		return nil, persistFailure("weights", "add", err, map[string]string{"userId": userID.Hex()})
	}
	return entry, nil
}

func (s *clientService) ListWeights(ctx context.Context, userID primitive.ObjectID) ([]domain.WeightEntry, error) {
	entries, err := s.weightRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, persistFailure("weights", "list", err, map[string]string{"userId": userID.Hex()})
	}
	return entries, nil
}

func (s *clientService) ResetWeights(ctx context.Context, userID primitive.ObjectID, confirm domain.Confirm) (int64, error) {
	if err := domain.Ask(confirm, domain.Prompt{
		Kind:    domain.PromptResetWeights,
		Message: "Delete your whole weight history?",
	}); err != nil {
		return 0, err
	}
	n, err := s.weightRepo.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, persistFailure("weights", "reset", err, map[string]string{"userId": userID.Hex()})
	}
	return n, nil
}

// === Profile photo ===

func photoPrefix(userID primitive.ObjectID) string {
	return path.Join("photos", userID.Hex()) + "/"
}

// RequestPhotoUpload presigns a PUT for a fresh key under the user's prefix.
func (s *clientService) RequestPhotoUpload(ctx context.Context, userID primitive.ObjectID, contentType string) (*UploadURLResponse, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if !strings.HasPrefix(contentType, "image/") {
		return nil, domain.Invalid("contentType", "must be an image type")
	}
	ext := strings.TrimPrefix(contentType, "image/")
	objectKey := photoPrefix(userID) + fmt.Sprintf("%s.%s", uuid.NewString(), ext)

	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, s.urlExpiry)
	if err != nil {
		log.Error().Err(err).Str("uid", userID.Hex()).Msg("presign photo upload")
		return nil, ErrUploadURLError
	}
	return &UploadURLResponse{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

// ConfirmPhoto stores objectKey as the user's photo after the upload. The
// previous object is removed on a best-effort basis.
func (s *clientService) ConfirmPhoto(ctx context.Context, userID primitive.ObjectID, objectKey string) error {
	if !strings.HasPrefix(objectKey, photoPrefix(userID)) || strings.Contains(objectKey, "..") {
		return domain.Invalid("objectKey", "does not belong to this user")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fromRepo("photos", "confirm", "user", userID, err)
	}
	if err := s.userRepo.SetPhotoKey(ctx, userID, objectKey); err != nil {
		return fromRepo("photos", "confirm", "user", userID, err)
	}
	if old := user.PhotoKey; old != "" && old != objectKey {
		if err := s.fileStorage.DeleteObject(ctx, old); err != nil {
			log.Warn().Err(err).Str("key", old).Msg("previous photo left behind")
		}
	}
	return nil
}

func (s *clientService) PhotoURL(ctx context.Context, userID primitive.ObjectID) (string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", fromRepo("photos", "download", "user", userID, err)
	}
	if user.PhotoKey == "" {
		return "", &domain.NotFoundError{Resource: "photo"}
	}
	u, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, user.PhotoKey, s.urlExpiry)
	if err != nil {
		log.Error().Err(err).Str("uid", userID.Hex()).Msg("presign photo download")
		return "", ErrDownloadURLError
	}
	return u, nil
}
