package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/Khangurai/zap-admin/internal/entities"
)

const (
	MaxAvatarSize     = 2 << 20
	MinPasswordLength = 6
	avatarPrefix      = "admin-pics/"
)

// ProfileUpdate is the profile form. Password is optional.
type ProfileUpdate struct {
	FullName        string `json:"full_name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// AvatarFile describes an uploaded image.
type AvatarFile struct {
	Name        string
	ContentType string
	Size        int64
}

func (u *Usecase) GetProfile(ctx context.Context, userID string) (*entities.Profile, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	return u.repo.GetProfile(ctx, userID)
}

// UpdateProfile renames the admin and, when a password is given, changes it
// through the auth API using the caller's token.
func (u *Usecase) UpdateProfile(ctx context.Context, userID, token string, upd ProfileUpdate) (*entities.Profile, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	name := strings.TrimSpace(upd.FullName)
	if name == "" {
		return nil, fmt.Errorf("%w: full name cannot be empty", entities.ErrInvalidArgument)
	}
	if upd.Password != "" {
		if len(upd.Password) < MinPasswordLength {
			return nil, fmt.Errorf("%w: password must be at least %d characters", entities.ErrInvalidArgument, MinPasswordLength)
		}
		if upd.Password != upd.ConfirmPassword {
			return nil, fmt.Errorf("%w: passwords do not match", entities.ErrInvalidArgument)
		}
	}

	p, err := u.repo.UpdateProfileName(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	if upd.Password != "" {
		if err := u.deps.Auth.UpdatePassword(ctx, token, upd.Password); err != nil {
			return nil, fmt.Errorf("update password: %w", err)
		}
		u.log.Infow("password updated", "user_id", userID)
	}
	return p, nil
}

// UploadAvatar stores a new avatar image and points the profile at it. The
// previous image, if any, is removed first.
func (u *Usecase) UploadAvatar(ctx context.Context, userID string, file AvatarFile, body io.Reader) (*entities.Profile, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if !strings.HasPrefix(file.ContentType, "image/") {
		return nil, fmt.Errorf("%w: please select an image file", entities.ErrInvalidArgument)
	}
	if file.Size > MaxAvatarSize {
		return nil, fmt.Errorf("%w: image size must be less than 2MB", entities.ErrInvalidArgument)
	}

	p, err := u.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.removeAvatarObject(ctx, p)

	objectPath := fmt.Sprintf("%s%s-%d.%s", avatarPrefix, userID, u.now().UnixMilli(), avatarExt(file))
	if err := u.deps.Storage.Upload(ctx, u.deps.AvatarBucket, objectPath, file.ContentType, io.LimitReader(body, MaxAvatarSize+1), true); err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}
	url := u.deps.Storage.PublicURL(u.deps.AvatarBucket, objectPath)
	return u.repo.SetProfileAvatar(ctx, userID, &url)
}

// RemoveAvatar deletes the stored image and clears avatar_url.
func (u *Usecase) RemoveAvatar(ctx context.Context, userID string) (*entities.Profile, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	p, err := u.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.removeAvatarObject(ctx, p)
	return u.repo.SetProfileAvatar(ctx, userID, nil)
}

// removeAvatarObject is best effort: a stale object must not block the
// profile change.
func (u *Usecase) removeAvatarObject(ctx context.Context, p *entities.Profile) {
	if p.AvatarURL == nil || *p.AvatarURL == "" {
		return
	}
	objectPath, ok := u.deps.Storage.ObjectPath(u.deps.AvatarBucket, *p.AvatarURL)
	if !ok {
		return
	}
	if err := u.deps.Storage.Remove(ctx, u.deps.AvatarBucket, []string{objectPath}); err != nil && !errors.Is(err, context.Canceled) {
		u.log.Warnw("remove old avatar", "user_id", p.ID, "path", objectPath, "err", err)
	}
}

func avatarExt(file AvatarFile) string {
	if ext := strings.TrimPrefix(path.Ext(file.Name), "."); ext != "" {
		return strings.ToLower(ext)
	}
	sub := strings.TrimPrefix(file.ContentType, "image/")
	if i := strings.IndexAny(sub, "+;"); i >= 0 {
		sub = sub[:i]
	}
	if sub == "jpeg" {
		return "jpg"
	}
	return sub
}
