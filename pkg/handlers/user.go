package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"communityboard/pkg/apperr"
	"communityboard/pkg/response"
	"communityboard/pkg/session"
	"communityboard/pkg/user"
)

type SignupForm struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=20"`
	Nickname        string `json:"nickname" validate:"required,max=10"`
	ProfileImageURL string `json:"profileImageUrl" validate:"omitempty,max=2048"`
}

type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ProfileForm struct {
	Nickname        string `json:"nickname" validate:"required,max=10"`
	ProfileImageURL string `json:"profileImageUrl" validate:"omitempty,max=2048"`
}

type PasswordForm struct {
	Password string `json:"password" validate:"required,min=8,max=20"`
}

// IdentityResolver maps the request session onto the acting user.
type IdentityResolver interface {
	Resolve(ctx context.Context) (*user.User, error)
	ResolveOptional(ctx context.Context) (*user.User, error)
}

// SessionRevoker drops the stored sessions of a user other than keep.
type SessionRevoker interface {
	RevokeOthers(ctx context.Context, userID string, keep *session.Session) error
}

type Handler struct {
	Service  user.ServiceInterface
	Identity IdentityResolver
	// Sessions is optional; without it other devices stay logged in until expiry.
	Sessions SessionRevoker
	Logger   *zap.SugaredLogger
}

func NewUserHandler(service user.ServiceInterface, identity IdentityResolver, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		Service:  service,
		Identity: identity,
		Logger:   logger,
	}
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupForm
	if ok := DecodeJSONBody(w, r, h.Logger, &req); !ok {
		return
	}

	u, err := h.Service.Register(r.Context(), req.Email, req.Password, req.Nickname, req.ProfileImageURL)
	if err != nil {
		response.Error(w, h.Logger, err)
		return
	}

	if ok := response.Success(w, h.Logger, http.StatusCreated, response.CodeCreated, u); ok {
		h.Logger.Infow("signup", "user", u.ID)
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginForm
	if ok := DecodeJSONBody(w, r, h.Logger, &req); !ok {
		return
	}

	sess, err := requestSession(r)
	if err != nil {
		response.Error(w, h.Logger, err)
		return
	}

	u, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(w, h.Logger, err)
		return
	}
	sess.Set(sessionValues(u))

	if ok := response.Success(w, h.Logger, http.StatusOK, response.CodeSuccess, u); ok {
		h.Logger.Infow("login", "user", u.ID)
	}
}

// Logout always succeeds; logging out without a session is a no-op.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := session.FromContext(r.Context()); sess != nil {
		sess.Clear()
	}
	response.Success(w, h.Logger, http.StatusOK, response.CodeSuccess, nil)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Identity.Resolve(r.Context())
	if err != nil {
		response.Error(w, h.Logger, err)
		return
	}
	response.Success(w, h.Logger, http.StatusOK, response.CodeSuccess, u)
}

// GetUser is the public profile lookup.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.Get(r.Context(), mux.Vars(r)[muxVarUserID])
	if err != nil {
		response.Error(w, h.Logger, err)
		return
	}
	response.Success(w, h.Logger, http.StatusOK, response.CodeSuccess, u)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	current, err := h.owner(r)
	if err != nil {
		response.Error(w, h.Logger, err)
		return
	}

	var req ProfileForm
	if ok := DecodeJSONBody(w, r, h.Logger, &req); !ok {
		return
	}

	u, err := h.Service.UpdateProfile(r.Context(), current, req.Nickname, req.ProfileImageURL)
	if err != nil {
		response.Error(w, h.Logger, err)
		return
	}
	if sess := session.FromContext(r.Context()); sess != nil {
		sess.Set(sessionValues(u))
	}

	response.Success(w, h.Logger, http.StatusOK, response.CodeUpdated, u)
}

// ChangePassword keeps the calling session and logs every other one out.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	current, err := h.owner(r)
	if err != nil {
		response.Error(w, h.Logger, err)
		return
	}

	var req PasswordForm
	if ok := DecodeJSONBody(w, r, h.Logger, &req); !ok {
		return
	}

	if err := h.Service.ChangePassword(r.Context(), current, req.Password); err != nil {
		response.Error(w, h.Logger, err)
		return
	}
	if h.Sessions != nil {
		if err := h.Sessions.RevokeOthers(r.Context(), current.ID, session.FromContext(r.Context())); err != nil {
			response.Error(w, h.Logger, err)
			return
		}
	}

	if ok := response.Success(w, h.Logger, http.StatusOK, response.CodeUpdated, nil); ok {
		h.Logger.Infow("password changed", "user", current.ID)
	}
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	current, err := h.owner(r)
	if err != nil {
		response.Error(w, h.Logger, err)
		return
	}

	if err := h.Service.Withdraw(r.Context(), current.ID); err != nil {
		response.Error(w, h.Logger, err)
		return
	}
	if h.Sessions != nil {
		// the account is gone; a leftover session is cleared on its next use
		if err := h.Sessions.RevokeOthers(r.Context(), current.ID, nil); err != nil {
			h.Logger.Errorw("failed to revoke sessions of withdrawn user", "user", current.ID, "error", err)
		}
	}
	if sess := session.FromContext(r.Context()); sess != nil {
		sess.Clear()
	}

	if ok := response.Success(w, h.Logger, http.StatusOK, response.CodeDeleted, nil); ok {
		h.Logger.Infow("withdraw", "user", current.ID)
	}
}

// owner resolves the caller and checks it against the {user_id} route var.
// Routes under /users/me carry no var and always address the caller.
func (h *Handler) owner(r *http.Request) (*user.User, error) {
	current, err := h.Identity.Resolve(r.Context())
	if err != nil {
		return nil, err
	}
	if id, ok := mux.Vars(r)[muxVarUserID]; ok && id != current.ID {
		return nil, apperr.ErrForbidden
	}
	return current, nil
}

var errNoSession = errors.New("session middleware is not installed")

func requestSession(r *http.Request) (*session.Session, error) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		return nil, errNoSession
	}
	return sess, nil
}

func sessionValues(u *user.User) session.Values {
	return session.Values{
		UserID:          u.ID,
		Email:           u.Email,
		Nickname:        u.Nickname,
		ProfileImageURL: u.ProfileImageURL,
	}
}

