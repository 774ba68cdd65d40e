// Package services – UserService
//
// This file implements UserService: registration, public profiles, the
// caller's own profile, password change and avatar upload. Passwords are
// stored as bcrypt hashes; avatars are decoded, resized and written to the
// configured media.Store, and only the object key is persisted.
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/foodgram-backend/internal/auth"
	"github.com/tbourn/foodgram-backend/internal/domain"
	"github.com/tbourn/foodgram-backend/internal/media"
	"github.com/tbourn/foodgram-backend/internal/repo"
	"github.com/tbourn/foodgram-backend/internal/utils"
)

// UserService implements the user account use-cases.
type UserService struct {
	DB    *gorm.DB
	Media media.Store

	// AvatarMaxSide bounds the longer avatar side in pixels.
	AvatarMaxSide int
	// PageSize and MaxPageSize control user listings.
	PageSize    int
	MaxPageSize int
}

// NewUserService constructs a UserService with default limits.
func NewUserService(db *gorm.DB, store media.Store) *UserService {
	return &UserService{DB: db, Media: store, AvatarMaxSide: 512, PageSize: 10, MaxPageSize: 100}
}

func (s *UserService) view() projector { return projector{db: s.DB, media: s.Media} }

// Register creates an account. Email and username must be unused.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Email = strings.ToLower(trimmed(in.Email))
	in.Username = trimmed(in.Username)
	in.FirstName = trimmed(in.FirstName)
	in.LastName = trimmed(in.LastName)
	if err := asValidation(in.Validate()); err != nil {
		return nil, err
	}

	emailTaken, usernameTaken, err := repo.EmailOrUsernameTaken(ctx, s.DB, in.Email, in.Username)
	if err != nil {
		return nil, err
	}
	if emailTaken || usernameTaken {
		ve := &ValidationError{Fields: map[string]string{}}
		if emailTaken {
			ve.Fields["email"] = "a user with this email already exists"
		}
		if usernameTaken {
			ve.Fields["username"] = "a user with this username already exists"
		}
		return nil, ve
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
	}
	if err := repo.CreateUser(ctx, s.DB, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			// Lost a race with a concurrent sign-up.
			return nil, fieldError("email", "a user with this email or username already exists")
		}
		return nil, err
	}
	log.Ctx(ctx).Info().Uint("user_id", u.ID).Msg("user registered")
	return u, nil
}

// List returns a page of users ordered by username, with is_subscribed
// resolved for viewer (0 for anonymous).
func (s *UserService) List(ctx context.Context, viewer uint, page, pageSize int) ([]UserView, int64, error) {
	_, pageSize, offset := utils.Offset(page, pageSize, s.PageSize, s.MaxPageSize)

	total, err := repo.CountUsers(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []UserView{}, 0, nil
	}
	users, err := repo.ListUsersPage(ctx, s.DB, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.view().users(ctx, viewer, users)
	return views, total, err
}

// Get returns one user's public profile.
func (s *UserService) Get(ctx context.Context, viewer, id uint) (*UserView, error) {
	u, err := repo.GetUser(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	views, err := s.view().users(ctx, viewer, []domain.User{*u})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// SetPassword replaces the caller's password after checking the current one.
func (s *UserService) SetPassword(ctx context.Context, userID uint, in SetPasswordInput) error {
	if err := asValidation(in.Validate()); err != nil {
		return err
	}
	u, err := repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if err := auth.CheckPassword(u.PasswordHash, in.CurrentPassword); err != nil {
		return ErrWrongPassword
	}
	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	return repo.UpdatePasswordHash(ctx, s.DB, userID, hash)
}

// SetAvatar stores a new avatar from a base64 data URI and returns its URL.
// The previous object, if any, is removed after the row is updated.
func (s *UserService) SetAvatar(ctx context.Context, userID uint, dataURI string) (string, error) {
	if trimmed(dataURI) == "" {
		return "", fieldError("avatar", "this field is required")
	}
	img, err := media.FromDataURI(dataURI, s.AvatarMaxSide)
	if err != nil {
		return "", fieldError("avatar", err.Error())
	}
	u, err := repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	key := media.NewKey("users", img.Ext)
	if err := s.Media.Save(ctx, key, img.Data, img.ContentType); err != nil {
		return "", err
	}
	if err := repo.SetAvatar(ctx, s.DB, userID, &key); err != nil {
		_ = s.Media.Delete(ctx, key)
		return "", err
	}
	s.dropObject(ctx, u.Avatar)
	return s.Media.URL(key), nil
}

// DeleteAvatar clears the caller's avatar. Clearing an unset avatar is a no-op.
func (s *UserService) DeleteAvatar(ctx context.Context, userID uint) error {
	u, err := repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if u.Avatar == nil {
		return nil
	}
	if err := repo.SetAvatar(ctx, s.DB, userID, nil); err != nil {
		return err
	}
	s.dropObject(ctx, u.Avatar)
	return nil
}

func (s *UserService) dropObject(ctx context.Context, key *string) {
	if key == nil || *key == "" {
		return
	}
	if err := s.Media.Delete(ctx, *key); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("key", *key).Msg("delete media object")
	}
}
