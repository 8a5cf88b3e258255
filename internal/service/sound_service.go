package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lible-app/lible-api/internal/models"
	"github.com/lible-app/lible-api/internal/repository"
	"github.com/lible-app/lible-api/pkg/config"
	appErrors "github.com/lible-app/lible-api/pkg/errors"
	"github.com/lible-app/lible-api/pkg/storage"
)

type soundRepository interface {
	List(ctx context.Context) ([]models.Sound, error)
	GetByID(ctx context.Context, id string) (*models.Sound, error)
	Create(ctx context.Context, s *models.Sound) error
	UpdateName(ctx context.Context, id, name string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// RenameSoundRequest updates a sound's display name.
type RenameSoundRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// SignedDownload carries a one-time download token for a sound file.
type SignedDownload struct {
	SoundID   string    `json:"sound_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SoundService manages bell sound uploads, metadata and signed
// downloads. Files live on local disk; the database row carries the
// display name and generated filename.
type SoundService struct {
	repo      soundRepository
	store     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	cfg       config.SoundsConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSoundService creates a sound service instance.
func NewSoundService(repo soundRepository, store *storage.LocalStorage, signer *storage.SignedURLSigner, cfg config.SoundsConfig, validate *validator.Validate, logger *zap.Logger) *SoundService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SoundService{repo: repo, store: store, signer: signer, cfg: cfg, validator: validate, logger: logger}
}

// List returns all sounds ordered by name.
func (s *SoundService) List(ctx context.Context) ([]models.Sound, error) {
	sounds, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sounds")
	}
	return sounds, nil
}

// Get returns one sound by ID.
func (s *SoundService) Get(ctx context.Context, id string) (*models.Sound, error) {
	sound, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "sound not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sound")
	}
	return sound, nil
}

// Upload validates and stores an audio file, then records its metadata.
func (s *SoundService) Upload(ctx context.Context, name string, header *multipart.FileHeader) (*models.Sound, error) {
	if name == "" {
		name = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "sound name is required")
	}
	if header.Size > s.cfg.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("file exceeds the %d byte limit", s.cfg.MaxFileSizeBytes))
	}
	if !s.mimeAllowed(header.Header.Get("Content-Type")) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported audio format")
	}

	src, err := header.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read upload")
	}
	defer src.Close() //nolint:errcheck

	sound := &models.Sound{
		ID:   uuid.NewString(),
		Name: name,
	}
	sound.Filename = sound.ID + strings.ToLower(filepath.Ext(header.Filename))

	if _, err := s.store.SaveStream(sound.Filename, io.LimitReader(src, s.cfg.MaxFileSizeBytes)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store sound file")
	}

	if err := s.repo.Create(ctx, sound); err != nil {
		_ = s.store.Delete(sound.Filename)
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "sound name already in use")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save sound")
	}

	s.logger.Info("sound uploaded", zap.String("sound_id", sound.ID), zap.Int64("bytes", header.Size))
	return sound, nil
}

// Rename updates a sound's display name. The stored file is untouched.
func (s *SoundService) Rename(ctx context.Context, id string, req RenameSoundRequest) (*models.Sound, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sound payload")
	}
	if err := s.repo.UpdateName(ctx, id, req.Name, time.Now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "sound not found")
		}
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "sound name already in use")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rename sound")
	}
	return s.Get(ctx, id)
}

// Delete removes a sound's metadata and blob. Events that still
// reference the sound keep their rows; resolution reports them as
// warnings instead of failing.
func (s *SoundService) Delete(ctx context.Context, id string) error {
	sound, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete sound")
	}
	if err := s.store.Delete(sound.Filename); err != nil {
		s.logger.Warn("failed to delete sound blob", zap.String("sound_id", id), zap.Error(err))
	}
	return nil
}

// SignedDownloadURL issues a short-lived token the audio player can use
// without an Authorization header.
func (s *SoundService) SignedDownloadURL(ctx context.Context, id string) (*SignedDownload, error) {
	sound, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(sound.ID, sound.Filename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download")
	}
	return &SignedDownload{SoundID: sound.ID, Token: token, ExpiresAt: expiresAt}, nil
}

// OpenByToken validates a signed token and opens the referenced file.
func (s *SoundService) OpenByToken(ctx context.Context, token string) (*models.Sound, *os.File, error) {
	soundID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	sound, err := s.Get(ctx, soundID)
	if err != nil {
		return nil, nil, err
	}
	if sound.Filename != relPath {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "token does not match stored file")
	}
	file, err := s.store.Open(sound.Filename)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "sound file missing")
	}
	return sound, file, nil
}

func (s *SoundService) mimeAllowed(contentType string) bool {
	if len(s.cfg.AllowedMIMEs) == 0 {
		return strings.HasPrefix(contentType, "audio/")
	}
	mime := contentType
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	mime = strings.TrimSpace(strings.ToLower(mime))
	for _, allowed := range s.cfg.AllowedMIMEs {
		if mime == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}
