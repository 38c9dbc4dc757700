package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Khangurai/zap-admin/internal/entities"
)

const (
	profileColumns = `id::text, full_name, username, avatar_url, role, updated_at`

	getProfileQuery        = `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	updateProfileNameQuery = `UPDATE profiles SET full_name = $2, updated_at = now()
WHERE id = $1
RETURNING ` + profileColumns
	setProfileAvatarQuery = `UPDATE profiles SET avatar_url = $2, updated_at = now()
WHERE id = $1
RETURNING ` + profileColumns
)

func scanProfile(row pgx.Row) (*entities.Profile, error) {
	var pr entities.Profile
	if err := row.Scan(&pr.ID, &pr.FullName, &pr.Username, &pr.AvatarURL, &pr.Role, &pr.UpdatedAt); err != nil {
		return nil, err
	}
	return &pr, nil
}

func (p *Postgres) GetProfile(ctx context.Context, id string) (*entities.Profile, error) {
	pr, err := scanProfile(p.db.QueryRow(ctx, getProfileQuery, id))
	if err != nil {
		return nil, mapErr(err, entities.ErrProfileNotFound, "get profile")
	}
	return pr, nil
}

func (p *Postgres) UpdateProfileName(ctx context.Context, id, fullName string) (*entities.Profile, error) {
	pr, err := scanProfile(p.db.QueryRow(ctx, updateProfileNameQuery, id, fullName))
	if err != nil {
		p.log.Errorw("failed to update profile", "error", err, "profile_id", id)
		return nil, mapErr(err, entities.ErrProfileNotFound, "update profile")
	}
	p.log.Infow("profile updated", "profile_id", id)
	return pr, nil
}

// SetProfileAvatar stores the avatar URL; nil removes it.
func (p *Postgres) SetProfileAvatar(ctx context.Context, id string, avatarURL *string) (*entities.Profile, error) {
	pr, err := scanProfile(p.db.QueryRow(ctx, setProfileAvatarQuery, id, avatarURL))
	if err != nil {
		p.log.Errorw("failed to set avatar", "error", err, "profile_id", id)
		return nil, mapErr(err, entities.ErrProfileNotFound, "set profile avatar")
	}
	p.log.Infow("profile avatar updated", "profile_id", id, "removed", avatarURL == nil)
	return pr, nil
}
