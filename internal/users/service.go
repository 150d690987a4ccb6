package users

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	pkgerrors "github.com/angelmondragon/redseam-storefront/pkg/errors"
	"github.com/angelmondragon/redseam-storefront/pkg/logger"
	"github.com/angelmondragon/redseam-storefront/pkg/storage"
	"github.com/go-playground/validator/v10"
)

// MaxAvatarBytes is the soft limit above which an avatar needs confirmation.
const MaxAvatarBytes = 500 * 1024

var validate = validator.New()

type Service interface {
	Current(ctx context.Context, scope string) *Record
	Login(ctx context.Context, scope string, req LoginRequest) (*Record, error)
	Logout(ctx context.Context, scope string) error
	SetAvatar(ctx context.Context, scope string, req AvatarRequest) (*Record, error)
	RemoveAvatar(ctx context.Context, scope string) (*Record, error)
}

type service struct {
	repo *Repo
	logg *logger.Logger
}

func NewService(repo *Repo, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("users repo required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, logg: logg}, nil
}

// Current returns the stored profile or nil. Storage failures read as logged
// out.
func (s *service) Current(ctx context.Context, scope string) *Record {
	rec, err := s.repo.Get(ctx, scope)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "user record read failed")
		return nil
	}
	if !rec.LoggedIn() {
		return nil
	}
	return rec
}

// Login stores username, keeping the avatar when the same visitor logs in
// again.
func (s *service) Login(ctx context.Context, scope string, req LoginRequest) (*Record, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := validate.Struct(req); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "username is required").
			WithDetails(map[string]string{"username": "is required"})
	}
	rec := Record{Username: req.Username}
	if existing := s.Current(ctx, scope); existing != nil && existing.Username == req.Username {
		rec.Avatar = existing.Avatar
	}
	if err := s.repo.Save(ctx, scope, rec); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save user record")
	}
	return &rec, nil
}

func (s *service) Logout(ctx context.Context, scope string) error {
	if err := s.repo.Delete(ctx, scope); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove user record")
	}
	return nil
}

// SetAvatar accepts an image/* data URL. Images above MaxAvatarBytes are
// refused unless req.Force is set.
func (s *service) SetAvatar(ctx context.Context, scope string, req AvatarRequest) (*Record, error) {
	rec := s.Current(ctx, scope)
	if rec == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "log in to set an avatar")
	}
	if err := validate.Struct(req); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "avatar is required")
	}
	size, err := imageDataURLSize(req.DataURL)
	if err != nil {
		return nil, err
	}
	if size > MaxAvatarBytes && !req.Force {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "selected image is larger than 500KB and may not be saved").
			WithDetails(map[string]any{"size": size, "limit": MaxAvatarBytes, "requires_confirmation": true})
	}

	rec.Avatar = req.DataURL
	if err := s.repo.Save(ctx, scope, *rec); err != nil {
		code := pkgerrors.CodeDependency
		if errors.Is(err, storage.ErrQuotaExceeded) {
			code = pkgerrors.CodeConflict
		}
		return nil, pkgerrors.Wrap(code, err, "avatar could not be saved")
	}
	return rec, nil
}

func (s *service) RemoveAvatar(ctx context.Context, scope string) (*Record, error) {
	rec := s.Current(ctx, scope)
	if rec == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "log in to change the avatar")
	}
	if rec.Avatar == "" {
		return rec, nil
	}
	rec.Avatar = ""
	if err := s.repo.Save(ctx, scope, *rec); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save user record")
	}
	return rec, nil
}

// imageDataURLSize validates a base64 data URL with an image/* media type and
// returns the decoded payload size.
func imageDataURLSize(dataURL string) (int, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "avatar must be a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "avatar must be a data URL")
	}
	mediaType, encoding, _ := strings.Cut(meta, ";")
	if !strings.HasPrefix(strings.ToLower(mediaType), "image/") {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "please select an image file").
			WithDetails(map[string]string{"media_type": mediaType})
	}
	if encoding != "base64" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "avatar must be base64 encoded")
	}
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "avatar is not valid base64")
	}
	return len(decoded), nil
}
