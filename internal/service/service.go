package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mjacome/quill/internal/database"
	mod "github.com/mjacome/quill/internal/models"
)

// ErrDatabase marks any failure of the underlying store. It is the only
// error kind handlers map to a 500; nothing is retried or recovered here.
var ErrDatabase = fmt.Errorf("database error")

type BlogService struct {
	posts    database.PostRepository
	comments database.CommentRepository
}

func NewBlogService(posts database.PostRepository, comments database.CommentRepository) *BlogService {
	return &BlogService{posts: posts, comments: comments}
}

func dbErr(err error) error {
	return fmt.Errorf("%w: %v", ErrDatabase, err)
}

// AllPosts lists posts newest first. Unpublished posts are only included
// when the caller passed the admin gate.
func (s *BlogService) AllPosts(ctx context.Context, includeUnpublished bool) ([]*mod.PostDTO, error) {
	posts, err := s.posts.GetAll(ctx, includeUnpublished)
	if err != nil {
		return nil, dbErr(err)
	}
	return posts, nil
}

func (s *BlogService) LatestPosts(ctx context.Context) ([]*mod.PostPreviewDTO, error) {
	posts, err := s.posts.GetLatest(ctx)
	if err != nil {
		return nil, dbErr(err)
	}
	return posts, nil
}

func (s *BlogService) PopularPosts(ctx context.Context) ([]*mod.PostPreviewDTO, error) {
	posts, err := s.posts.GetPopular(ctx)
	if err != nil {
		return nil, dbErr(err)
	}
	return posts, nil
}

// Post returns (nil, nil) for an unknown id; the surface serializes that
// as a null post rather than a 404.
func (s *BlogService) Post(ctx context.Context, id int64) (*mod.PostDTO, error) {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, dbErr(err)
	}
	return post, nil
}

func (s *BlogService) CreatePost(ctx context.Context, authorId int64, title, text string, isPublished bool) (*mod.PostDTO, error) {
	post := &mod.PostDTO{
		Title:       title,
		Text:        text,
		AuthorId:    authorId,
		IsPublished: isPublished,
	}
	if _, err := s.posts.Add(ctx, post); err != nil {
		return nil, dbErr(err)
	}
	log.Debug().Int64("id", post.Id).Msg("post created")
	return post, nil
}

func (s *BlogService) UpdatePost(ctx context.Context, id int64, patch *mod.PostPatch) error {
	if err := s.posts.Update(ctx, id, patch); err != nil {
		return dbErr(err)
	}
	return nil
}

func (s *BlogService) TogglePublish(ctx context.Context, id int64) (*mod.PostDTO, error) {
	post, err := s.posts.TogglePublish(ctx, id)
	if err != nil {
		return nil, dbErr(err)
	}
	return post, nil
}

func (s *BlogService) DeletePost(ctx context.Context, id int64) error {
	if err := s.posts.Delete(ctx, id); err != nil {
		return dbErr(err)
	}
	return nil
}

func (s *BlogService) AllComments(ctx context.Context) ([]*mod.CommentDTO, error) {
	comments, err := s.comments.GetAll(ctx)
	if err != nil {
		return nil, dbErr(err)
	}
	return comments, nil
}

func (s *BlogService) CommentsOfPost(ctx context.Context, postId int64) ([]*mod.CommentDTO, error) {
	comments, err := s.comments.GetAllOfPost(ctx, postId)
	if err != nil {
		return nil, dbErr(err)
	}
	return comments, nil
}

func (s *BlogService) CreateComment(ctx context.Context, commenterId, postId int64, text string) (*mod.CommentDTO, error) {
	comment := &mod.CommentDTO{
		Text:        text,
		CommenterId: commenterId,
		PostId:      postId,
	}
	if _, err := s.comments.Add(ctx, comment); err != nil {
		return nil, dbErr(err)
	}
	log.Debug().Int64("id", comment.Id).Int64("post", postId).Msg("comment created")
	return comment, nil
}

func (s *BlogService) UpdateComment(ctx context.Context, id int64, text string) (*mod.CommentDTO, error) {
	comment, err := s.comments.UpdateText(ctx, id, text)
	if err != nil {
		return nil, dbErr(err)
	}
	return comment, nil
}

func (s *BlogService) DeleteComment(ctx context.Context, id int64) (*mod.CommentDTO, error) {
	comment, err := s.comments.Delete(ctx, id)
	if err != nil {
		return nil, dbErr(err)
	}
	return comment, nil
}
