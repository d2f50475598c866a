package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"communityboard/pkg/comment"
	"communityboard/pkg/engagement"
	"communityboard/pkg/response"
)

type CommentForm struct {
	Content string `json:"content" validate:"required"`
}

type CommentHandler struct {
	Service    comment.ServiceComment
	Engagement engagement.ServiceEngagement
	Identity   IdentityResolver
	Logger     *zap.SugaredLogger
}

func NewCommentHandler(service comment.ServiceComment, eng engagement.ServiceEngagement, identity IdentityResolver, logger *zap.SugaredLogger) *CommentHandler {
	return &CommentHandler{
		Service:    service,
		Engagement: eng,
		Identity:   identity,
		Logger:     logger,
	}
}

func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	comments, err := h.Service.List(r.Context(), mux.Vars(r)[muxVarPostID])
	if err != nil {
		response.Error(w, h.Logger, err)
		return
	}
	response.Success(w, h.Logger, http.StatusOK, response.CodeSuccess, comments)
}

func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	u, err := h.Identity.Resolve(r.Context())
	if err != nil {
		response.Error(w, h.Logger, err)
		return
	}

	var req CommentForm
	if ok := DecodeJSONBody(w, r, h.Logger, &req); !ok {
		return
	}

	author := comment.Author{UserID: u.ID, Nickname: u.Nickname, ProfileImageURL: u.ProfileImageURL}
	c, err := h.Engagement.CreateComment(r.Context(), mux.Vars(r)[muxVarPostID], author, req.Content)
	if err != nil {
		response.Error(w, h.Logger, err)
		return
	}

	if ok := response.Success(w, h.Logger, http.StatusCreated, response.CodeCreated, c); ok {
		h.Logger.Infow("comment created", "user", u.ID, "post", c.PostID, "comment", c.ID)
	}
}

func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	u, err := h.Identity.Resolve(r.Context())
	if err != nil {
		response.Error(w, h.Logger, err)
		return
	}

	var req CommentForm
	if ok := DecodeJSONBody(w, r, h.Logger, &req); !ok {
		return
	}

	vars := mux.Vars(r)
	c, err := h.Service.Update(r.Context(), vars[muxVarPostID], vars[muxVarCommentID], u.ID, req.Content)
	if err != nil {
		response.Error(w, h.Logger, err)
		return
	}
	response.Success(w, h.Logger, http.StatusOK, response.CodeUpdated, c)
}

func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	u, err := h.Identity.Resolve(r.Context())
	if err != nil {
		response.Error(w, h.Logger, err)
		return
	}

	vars := mux.Vars(r)
	if err := h.Engagement.DeleteComment(r.Context(), vars[muxVarPostID], vars[muxVarCommentID], u.ID); err != nil {
		response.Error(w, h.Logger, err)
		return
	}

	if ok := response.Success(w, h.Logger, http.StatusOK, response.CodeDeleted, nil); ok {
		h.Logger.Infow("comment deleted", "user", u.ID, "comment", vars[muxVarCommentID])
	}
}
