package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"communityboard/pkg/apperr"
	"communityboard/pkg/engagement"
	"communityboard/pkg/post"
	"communityboard/pkg/response"
	"communityboard/pkg/user"
)

type PostForm struct {
	Title   string `json:"title" validate:"required,max=100"`
	Content string `json:"content" validate:"required"`
	FileURL string `json:"fileUrl" validate:"omitempty,max=2048"`
}

type Pagination struct {
	TotalCount  int  `json:"totalCount"`
	Limit       int  `json:"limit"`
	Offset      int  `json:"offset"`
	CurrentPage int  `json:"currentPage"`
	TotalPage   int  `json:"totalPage"`
	HasNext     bool `json:"hasNext"`
}

type PostList struct {
	Items      []*post.Post `json:"items"`
	Pagination Pagination   `json:"pagination"`
}

type PostHandler struct {
	Service    post.ServicePost
	Engagement engagement.ServiceEngagement
	Identity   IdentityResolver
	Logger     *zap.SugaredLogger
}

func NewPostHandler(service post.ServicePost, eng engagement.ServiceEngagement, identity IdentityResolver, logger *zap.SugaredLogger) *PostHandler {
	return &PostHandler{
		Service:    service,
		Engagement: eng,
		Identity:   identity,
		Logger:     logger,
	}
}

func (h *PostHandler) GetAllPosts(w http.ResponseWriter, r *http.Request) {
	offset, okOffset := queryInt(r, "offset")
	limit, okLimit := queryInt(r, "limit")
	if !okOffset || !okLimit {
		details := map[string]string{}
		if !okOffset {
			details["offset"] = "INVALID_FORMAT"
		}
		if !okLimit {
			details["limit"] = "INVALID_FORMAT"
		}
		response.Fail(w, h.Logger, apperr.ErrInvalidInput, details)
		return
	}

	viewer, err := h.Identity.ResolveOptional(r.Context())
	if err != nil {
		response.Error(w, h.Logger, err)
		return
	}

	page, err := h.Service.List(r.Context(), viewerID(viewer), offset, limit)
	if err != nil {
		response.Error(w, h.Logger, err)
		return
	}
	response.Success(w, h.Logger, http.StatusOK, response.CodeSuccess, paginate(page))
}

func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	u, err := h.Identity.Resolve(r.Context())
	if err != nil {
		response.Error(w, h.Logger, err)
		return
	}

	var req PostForm
	if ok := DecodeJSONBody(w, r, h.Logger, &req); !ok {
		return
	}

	author := post.Author{UserID: u.ID, Nickname: u.Nickname, ProfileImageURL: u.ProfileImageURL}
	p, err := h.Service.Create(r.Context(), author, req.Title, req.Content, req.FileURL)
	if err != nil {
		response.Error(w, h.Logger, err)
		return
	}

	if ok := response.Success(w, h.Logger, http.StatusCreated, response.CodeCreated, p); ok {
		h.Logger.Infow("new post created", "user", u.ID, "post", p.ID)
	}
}

// GetPostByID counts a view unless incHits=false is passed.
func (h *PostHandler) GetPostByID(w http.ResponseWriter, r *http.Request) {
	postID := mux.Vars(r)[muxVarPostID]

	incHits := true
	if v := r.URL.Query().Get("incHits"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			response.Fail(w, h.Logger, apperr.ErrInvalidInput, map[string]string{"incHits": "INVALID_FORMAT"})
			return
		}
		incHits = parsed
	}

	viewer, err := h.Identity.ResolveOptional(r.Context())
	if err != nil {
		response.Error(w, h.Logger, err)
		return
	}

	p, err := h.Service.Get(r.Context(), postID, viewerID(viewer), incHits)
	if err != nil {
		response.Error(w, h.Logger, err)
		return
	}
	response.Success(w, h.Logger, http.StatusOK, response.CodeSuccess, p)
}

func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	u, err := h.Identity.Resolve(r.Context())
	if err != nil {
		response.Error(w, h.Logger, err)
		return
	}

	var req PostForm
	if ok := DecodeJSONBody(w, r, h.Logger, &req); !ok {
		return
	}

	p, err := h.Service.Update(r.Context(), mux.Vars(r)[muxVarPostID], u.ID, req.Title, req.Content, req.FileURL)
	if err != nil {
		response.Error(w, h.Logger, err)
		return
	}
	response.Success(w, h.Logger, http.StatusOK, response.CodeUpdated, p)
}

func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	u, err := h.Identity.Resolve(r.Context())
	if err != nil {
		response.Error(w, h.Logger, err)
		return
	}

	postID := mux.Vars(r)[muxVarPostID]
	if err := h.Engagement.DeletePost(r.Context(), postID, u.ID); err != nil {
		response.Error(w, h.Logger, err)
		return
	}

	if ok := response.Success(w, h.Logger, http.StatusOK, response.CodeDeleted, nil); ok {
		h.Logger.Infow("post deleted", "user", u.ID, "post", postID)
	}
}

func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	u, err := h.Identity.Resolve(r.Context())
	if err != nil {
		response.Error(w, h.Logger, err)
		return
	}

	like, err := h.Engagement.ToggleLike(r.Context(), mux.Vars(r)[muxVarPostID], u.ID)
	if err != nil {
		response.Error(w, h.Logger, err)
		return
	}
	response.Success(w, h.Logger, http.StatusOK, response.CodeSuccess, like)
}

func paginate(page *post.Page) PostList {
	totalPage := (page.Total + page.Limit - 1) / page.Limit
	return PostList{
		Items: page.Posts,
		Pagination: Pagination{
			TotalCount:  page.Total,
			Limit:       page.Limit,
			Offset:      page.Offset,
			CurrentPage: page.Offset/page.Limit + 1,
			TotalPage:   totalPage,
			HasNext:     page.Offset+len(page.Posts) < page.Total,
		},
	}
}

// queryInt returns 0 for an absent parameter.
func queryInt(r *http.Request, key string) (int, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}

func viewerID(u *user.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
