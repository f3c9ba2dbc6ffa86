package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/service"
)

type sessionRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type sessionResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      userProfileDTO `json:"user"`
}

type userProfileDTO struct {
	ID                 string           `json:"id"`
	Email              string           `json:"email"`
	Name               string           `json:"name"`
	Role               domain.UserRole  `json:"role"`
	Location           *domain.Location `json:"location,omitempty"`
	CharityPreferences []string         `json:"charity_preferences"`
	CreatedAt          time.Time        `json:"created_at"`
}

func toUserProfile(u *domain.User) userProfileDTO {
	dto := userProfileDTO{
		ID:                 u.ID,
		Email:              u.Email,
		Name:               u.Name,
		Role:               u.Role,
		CharityPreferences: u.CharityPreferences,
		CreatedAt:          u.CreatedAt,
	}
	if dto.CharityPreferences == nil {
		dto.CharityPreferences = []string{}
	}
	if !u.Location.IsZero() {
		loc := u.Location
		dto.Location = &loc
	}
	return dto
}

// AuthSession exchanges an identity provider ID token for an API token.
func (a *App) AuthSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !a.decode(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	session, err := a.Users.Session(ctx, req.IDToken)
	if err != nil {
		a.fail(w, r, err, "create session")
		return
	}
	a.json(w, http.StatusOK, sessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      toUserProfile(session.User),
	})
}

func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	user, err := a.Users.Me(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err, "load profile")
		return
	}
	a.json(w, http.StatusOK, toUserProfile(user))
}

type locationDTO struct {
	City       string `json:"city" validate:"required,max=100"`
	Province   string `json:"province" validate:"required,len=2,alpha"`
	PostalCode string `json:"postalCode" validate:"omitempty,max=10"`
}

func (l locationDTO) toDomain() domain.Location {
	return domain.Location{City: l.City, Province: l.Province, PostalCode: l.PostalCode}
}

type patchMeRequest struct {
	Name               *string      `json:"name" validate:"omitempty,max=120"`
	Role               *string      `json:"role"`
	Location           *locationDTO `json:"location"`
	CharityPreferences []string     `json:"charityPreferences" validate:"omitempty,max=20,dive,max=80"`
}

type patchMeResponse struct {
	User userProfileDTO        `json:"user"`
	Pool *domain.CommunityPool `json:"pool,omitempty"`
}

// PatchMe edits the caller's name, role, location and charity preferences.
func (a *App) PatchMe(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req patchMeRequest
	if !a.decode(w, r, &req) {
		return
	}
	patch := service.ProfilePatch{Name: req.Name, CharityPreferences: req.CharityPreferences}
	if req.Role != nil {
		role := domain.UserRole(*req.Role)
		patch.Role = &role
	}
	if req.Location != nil {
		loc := req.Location.toDomain()
		patch.Location = &loc
	}
	user, pool, err := a.Users.Patch(r.Context(), userID, patch)
	if err != nil {
		a.fail(w, r, err, "update profile")
		return
	}
	a.json(w, http.StatusOK, patchMeResponse{User: toUserProfile(user), Pool: pool})
}
