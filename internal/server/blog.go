package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SiamFS/Project471/internal/domain"
	"github.com/SiamFS/Project471/internal/store"
)

// GET /posts
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	posts, err := s.store.ListPosts()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error fetching posts")
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// /posts/create, /posts/:id, /posts/:id/{like,dislike,comments},
// /posts/:postId/comments/:commentId
func (s *Server) handlePostSubtree(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/posts/")
	if path == "" {
		http.NotFound(w, r)
		return
	}
	if path == "create" {
		s.handleCreatePost(w, r)
		return
	}
	parts := strings.Split(path, "/")
	postID := parts[0]
	switch len(parts) {
	case 1:
		switch r.Method {
		case http.MethodPut:
			s.handleUpdatePost(w, r, postID)
		case http.MethodDelete:
			s.handleDeletePost(w, postID)
		default:
			methodNotAllowed(w)
		}
	case 2:
		switch parts[1] {
		case "like":
			s.handleReaction(w, r, postID, true)
		case "dislike":
			s.handleReaction(w, r, postID, false)
		case "comments":
			s.handleAddComment(w, r, postID)
		default:
			http.NotFound(w, r)
		}
	case 3:
		if parts[1] != "comments" || parts[2] == "" {
			http.NotFound(w, r)
			return
		}
		commentID := parts[2]
		switch r.Method {
		case http.MethodPut:
			s.handleUpdateComment(w, r, postID, commentID)
		case http.MethodDelete:
			s.handleDeleteComment(w, postID, commentID)
		default:
			methodNotAllowed(w)
		}
	default:
		http.NotFound(w, r)
	}
}

// POST /posts/create
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var post domain.Post
	if err := decodeJSON(r, &post); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	post.ID = ""
	created, err := s.store.CreatePost(post)
	if err != nil {
		slog.Error("create post failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Error creating post")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type commentRequest struct {
	Content     string `json:"content"`
	AuthorName  string `json:"authorName"`
	AuthorEmail string `json:"authorEmail"`
}

// POST /posts/:id/comments
func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request, postID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	post, err := s.store.AddComment(postID, domain.Comment{
		Content:     req.Content,
		AuthorName:  req.AuthorName,
		AuthorEmail: req.AuthorEmail,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Post not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error adding comment")
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// PUT /posts/:postId/comments/:commentId
func (s *Server) handleUpdateComment(w http.ResponseWriter, r *http.Request, postID, commentID string) {
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	post, err := s.store.UpdateComment(postID, commentID, req.Content)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Comment not found or not updated")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error updating comment")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// DELETE /posts/:postId/comments/:commentId
func (s *Server) handleDeleteComment(w http.ResponseWriter, postID, commentID string) {
	post, err := s.store.DeleteComment(postID, commentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Comment not found or not deleted")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error deleting comment")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// POST /posts/:id/like and /posts/:id/dislike. A missing post still
// reports success; the counter update is a silent no-op in that case.
func (s *Server) handleReaction(w http.ResponseWriter, r *http.Request, postID string, like bool) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var err error
	msg := "Post disliked"
	if like {
		err = s.store.IncrementLike(postID)
		msg = "Post liked"
	} else {
		err = s.store.IncrementDislike(postID)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error updating reaction")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

type postUpdateRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// PUT /posts/:id
func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request, postID string) {
	var req postUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	post, err := s.store.UpdatePost(postID, store.PostUpdate{Title: req.Title, Content: req.Content})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Post not found or not updated")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error updating post")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// DELETE /posts/:id
func (s *Server) handleDeletePost(w http.ResponseWriter, postID string) {
	if err := s.store.DeletePost(postID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Post not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error deleting post")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Post deleted successfully"})
}
