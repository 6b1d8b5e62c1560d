package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/mjacome/quill/internal/auth"
	"github.com/mjacome/quill/internal/models"
	"github.com/mjacome/quill/internal/service"
)

type Handlers struct {
	auth *auth.Service
	blog *service.BlogService
}

func NewHandlers(authSvc *auth.Service, blog *service.BlogService) *Handlers {
	return &Handlers{auth: authSvc, blog: blog}
}

// Register wires every route as the fixed chain
// [decode+validate] -> [verifyToken] -> [verifyAdmin] -> handler.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /register", withBody[registerRequest](h.register))
	mux.HandleFunc("POST /login", withBody[loginRequest](h.login))
	mux.HandleFunc("POST /api/admin/login", withBody[loginRequest](h.adminLogin))

	mux.HandleFunc("GET /api/posts", h.listPublishedPosts)
	mux.HandleFunc("GET /api/posts/all", h.verifyToken(h.verifyAdmin(h.listAllPosts)))
	mux.HandleFunc("GET /api/posts/list/latest", h.listLatestPosts)
	mux.HandleFunc("GET /api/posts/list/popular", h.listPopularPosts)
	mux.HandleFunc("GET /api/posts/{postid}", h.getPost)
	mux.HandleFunc("POST /api/posts", withBody[newPostRequest](h.verifyToken(h.verifyAdmin(h.createPost))))
	mux.HandleFunc("PATCH /api/posts/{postid}", withBody[updatePostRequest](h.verifyToken(h.verifyAdmin(h.updatePost))))
	mux.HandleFunc("PATCH /api/posts/{postid}/publish", h.verifyToken(h.verifyAdmin(h.publishPost)))
	mux.HandleFunc("DELETE /api/posts/{postid}", h.verifyToken(h.verifyAdmin(h.deletePost)))

	mux.HandleFunc("GET /api/comments", h.listComments)
	mux.HandleFunc("GET /api/posts/{postid}/comments", h.listPostComments)
	mux.HandleFunc("POST /api/comments/new/{postid}", withBody[newCommentRequest](h.verifyToken(h.createComment)))
	mux.HandleFunc("PATCH /api/comments/{commentid}", withBody[newCommentRequest](h.verifyToken(h.verifyAdmin(h.updateComment))))
	mux.HandleFunc("DELETE /api/comments/{commentid}", h.verifyToken(h.verifyAdmin(h.deleteComment)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("error encoding response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func pathId(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	body := bodyFromContext[registerRequest](r.Context())
	if _, err := h.auth.Register(r.Context(), body.Username, body.Password, body.Email); err != nil {
		log.Error().Err(err).Msg("error creating account")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"errorMsg": "Error creating account.",
			"error":    "Error creating account.",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Account created successfully"})
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	h.issueToken(w, r, false)
}

func (h *Handlers) adminLogin(w http.ResponseWriter, r *http.Request) {
	h.issueToken(w, r, true)
}

func (h *Handlers) issueToken(w http.ResponseWriter, r *http.Request, adminOnly bool) {
	body := bodyFromContext[loginRequest](r.Context())
	token, err := h.auth.Login(r.Context(), body.Username, body.Password, adminOnly)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Incorrect username or password"})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("error logging in")
		writeError(w, http.StatusInternalServerError, "Error logging in.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handlers) listPublishedPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.blog.AllPosts(r.Context(), false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error fetching posts list")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

func (h *Handlers) listAllPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.blog.AllPosts(r.Context(), true)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error fetching posts list")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

func (h *Handlers) listLatestPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.blog.LatestPosts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error fetching posts list")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

func (h *Handlers) listPopularPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.blog.PopularPosts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error fetching posts list")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

func (h *Handlers) getPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r, "postid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}
	post, err := h.blog.Post(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error fetching post.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"post": post})
}

func (h *Handlers) createPost(w http.ResponseWriter, r *http.Request) {
	body := bodyFromContext[newPostRequest](r.Context())
	claims := claimsFromContext(r.Context())
	isPublished := false
	if body.IsPublished != nil {
		isPublished = *body.IsPublished
	}
	if _, err := h.blog.CreatePost(r.Context(), claims.Id, body.Title, body.Text, isPublished); err != nil {
		writeError(w, http.StatusInternalServerError, "Error creating post.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Post inserted correctly in database"})
}

func (h *Handlers) updatePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r, "postid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}
	body := bodyFromContext[updatePostRequest](r.Context())
	patch := &models.PostPatch{
		Title:       body.Title,
		Text:        body.Text,
		IsPublished: body.IsPublished,
	}
	if err := h.blog.UpdatePost(r.Context(), id, patch); err != nil {
		writeError(w, http.StatusInternalServerError, "Error updating post.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Post updated successfully"})
}

func (h *Handlers) publishPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r, "postid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}
	if _, err := h.blog.TogglePublish(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Error updating post.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Post published successfully"})
}

func (h *Handlers) deletePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r, "postid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}
	if err := h.blog.DeletePost(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Error deleting post.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Post deleted correctly from database."})
}

func (h *Handlers) listComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.blog.AllComments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error fetching comments")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": comments})
}

func (h *Handlers) listPostComments(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r, "postid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}
	comments, err := h.blog.CommentsOfPost(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error fetching comments")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": comments})
}

func (h *Handlers) createComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r, "postid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}
	body := bodyFromContext[newCommentRequest](r.Context())
	claims := claimsFromContext(r.Context())
	comment, err := h.blog.CreateComment(r.Context(), claims.Id, id, body.Text)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error creating comment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Comment created successfully", "comment": comment})
}

func (h *Handlers) updateComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r, "commentid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid comment id")
		return
	}
	body := bodyFromContext[newCommentRequest](r.Context())
	comment, err := h.blog.UpdateComment(r.Context(), id, body.Text)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error updating comment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Comment update successfully", "comment": comment})
}

func (h *Handlers) deleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r, "commentid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid comment id")
		return
	}
	comment, err := h.blog.DeleteComment(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error deleting comment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Comment deleted successfully", "comment": comment})
}
