package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Khangurai/zap-admin/internal/baas"
	"github.com/Khangurai/zap-admin/internal/entities"
	"github.com/Khangurai/zap-admin/internal/store"
)

type LoginResult struct {
	Session *baas.Session     `json:"session"`
	Profile *entities.Profile `json:"profile"`
}

// Me is the signed-in user together with the admin profile, when one exists.
type Me struct {
	User    baas.AuthUser     `json:"user"`
	Profile *entities.Profile `json:"profile"`
}

func (u *Usecase) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", entities.ErrInvalidArgument)
	}
	sess, err := u.deps.Auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	u.cacheSession(ctx, sess.AccessToken, &sess.User)

	p, err := u.profileOrNil(ctx, sess.User.ID)
	if err != nil {
		return nil, err
	}
	u.log.Infow("admin signed in", "user_id", sess.User.ID)
	return &LoginResult{Session: sess, Profile: p}, nil
}

func (u *Usecase) Logout(ctx context.Context, token string) error {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if err := u.deps.Cache.Delete(ctx, store.SessionKey(token)); err != nil {
		u.log.Warnw("drop cached session", "err", err)
	}
	return u.deps.Auth.SignOut(ctx, token)
}

// Authenticate resolves a bearer token. Validated tokens are cached for
// SessionTTL so most requests skip the auth API.
func (u *Usecase) Authenticate(ctx context.Context, token string) (*baas.AuthUser, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing bearer token", entities.ErrUnauthorized)
	}
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	var cached baas.AuthUser
	ok, err := u.deps.Cache.LoadJSON(ctx, store.SessionKey(token), &cached)
	if err != nil {
		u.log.Warnw("session cache lookup", "err", err)
	}
	if ok && cached.ID != "" {
		return &cached, nil
	}

	user, err := u.deps.Auth.GetUser(ctx, token)
	if err != nil {
		return nil, err
	}
	u.cacheSession(ctx, token, user)
	return user, nil
}

func (u *Usecase) Me(ctx context.Context, user baas.AuthUser) (*Me, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	p, err := u.profileOrNil(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &Me{User: user, Profile: p}, nil
}

func (u *Usecase) cacheSession(ctx context.Context, token string, user *baas.AuthUser) {
	if token == "" || user == nil {
		return
	}
	if err := u.deps.Cache.SaveJSON(ctx, store.SessionKey(token), user, u.deps.SessionTTL); err != nil {
		u.log.Warnw("cache session", "err", err)
	}
}

func (u *Usecase) profileOrNil(ctx context.Context, id string) (*entities.Profile, error) {
	p, err := u.repo.GetProfile(ctx, id)
	if errors.Is(err, entities.ErrProfileNotFound) {
		return nil, nil
	}
	return p, err
}
