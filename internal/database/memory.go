package database

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	mod "github.com/mjacome/quill/internal/models"
)

var (
	ErrDuplicateUsername = errors.New("username already taken")
	ErrNoSuchUser        = errors.New("there is no such user")
	ErrNoSuchPost        = errors.New("there is no such post")
	ErrNoSuchComment     = errors.New("there is no such comment")
)

// MemStore is the in-memory twin of the Postgres repositories. It backs
// IN_MEMORY mode and the API tests, and mirrors the constraints the real
// store enforces: unique usernames and valid author/post references.
// The per-entity repositories handed out by Users/Posts/Comments share
// one store so referential checks see the whole dataset.
type MemStore struct {
	m        sync.RWMutex
	users    map[int64]*mod.UserDTO
	posts    map[int64]*mod.PostDTO
	comments map[int64]*mod.CommentDTO
	userGen  int64
	postGen  int64
	commGen  int64
}

type (
	MemUserRepository struct {
		s *MemStore
	}

	MemPostRepository struct {
		s *MemStore
	}

	MemCommentRepository struct {
		s *MemStore
	}
)

func NewMemStore() *MemStore {
	return &MemStore{
		users:    make(map[int64]*mod.UserDTO),
		posts:    make(map[int64]*mod.PostDTO),
		comments: make(map[int64]*mod.CommentDTO),
	}
}

func (s *MemStore) Users() *MemUserRepository       { return &MemUserRepository{s} }
func (s *MemStore) Posts() *MemPostRepository       { return &MemPostRepository{s} }
func (s *MemStore) Comments() *MemCommentRepository { return &MemCommentRepository{s} }

func (r *MemUserRepository) Add(ctx context.Context, u *mod.UserDTO) (int64, error) {
	s := r.s
	s.m.Lock()
	defer s.m.Unlock()
	for _, e := range s.users {
		if e.Username == u.Username {
			return -1, ErrDuplicateUsername
		}
	}
	s.userGen++
	stored := *u
	stored.Id = s.userGen
	s.users[stored.Id] = &stored
	u.Id = stored.Id
	return stored.Id, nil
}

func (r *MemUserRepository) GetByName(ctx context.Context, username string) (*mod.UserDTO, error) {
	s := r.s
	s.m.RLock()
	defer s.m.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r *MemUserRepository) GetById(ctx context.Context, id int64) (*mod.UserDTO, error) {
	s := r.s
	s.m.RLock()
	defer s.m.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (r *MemPostRepository) Add(ctx context.Context, p *mod.PostDTO) (int64, error) {
	s := r.s
	s.m.Lock()
	defer s.m.Unlock()
	if _, ok := s.users[p.AuthorId]; !ok {
		return -1, ErrNoSuchUser
	}
	s.postGen++
	p.Id = s.postGen
	p.CreatedAt = time.Now()
	stored := *p
	s.posts[stored.Id] = &stored
	return stored.Id, nil
}

func (r *MemPostRepository) Get(ctx context.Context, id int64) (*mod.PostDTO, error) {
	s := r.s
	s.m.RLock()
	defer s.m.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (r *MemPostRepository) GetAll(ctx context.Context, includeUnpublished bool) ([]*mod.PostDTO, error) {
	s := r.s
	s.m.RLock()
	defer s.m.RUnlock()
	posts := make([]*mod.PostDTO, 0, len(s.posts))
	for _, p := range s.posts {
		if !includeUnpublished && !p.IsPublished {
			continue
		}
		c := *p
		posts = append(posts, &c)
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

func (r *MemPostRepository) GetLatest(ctx context.Context) ([]*mod.PostPreviewDTO, error) {
	previews := r.s.previews()
	sort.Slice(previews, func(i, j int) bool {
		return previews[i].CreatedAt.After(previews[j].CreatedAt)
	})
	return capPreviews(previews), nil
}

func (r *MemPostRepository) GetPopular(ctx context.Context) ([]*mod.PostPreviewDTO, error) {
	previews := r.s.previews()
	sort.Slice(previews, func(i, j int) bool {
		return previews[i].CommentCount > previews[j].CommentCount
	})
	return capPreviews(previews), nil
}

func (s *MemStore) previews() []*mod.PostPreviewDTO {
	s.m.RLock()
	defer s.m.RUnlock()
	previews := make([]*mod.PostPreviewDTO, 0, len(s.posts))
	for _, p := range s.posts {
		pv := mod.PostPreviewDTO{PostDTO: *p}
		if u, ok := s.users[p.AuthorId]; ok {
			pv.Author = u.Username
		}
		for _, c := range s.comments {
			if c.PostId == p.Id {
				pv.CommentCount++
			}
		}
		previews = append(previews, &pv)
	}
	return previews
}

func capPreviews(previews []*mod.PostPreviewDTO) []*mod.PostPreviewDTO {
	if len(previews) > PreviewLimit {
		return previews[:PreviewLimit]
	}
	return previews
}

func (r *MemPostRepository) Update(ctx context.Context, id int64, patch *mod.PostPatch) error {
	s := r.s
	s.m.Lock()
	defer s.m.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return ErrNoSuchPost
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Text != nil {
		p.Text = *patch.Text
	}
	if patch.IsPublished != nil {
		p.IsPublished = *patch.IsPublished
		p.CreatedAt = time.Now()
	}
	return nil
}

func (r *MemPostRepository) TogglePublish(ctx context.Context, id int64) (*mod.PostDTO, error) {
	s := r.s
	s.m.Lock()
	defer s.m.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, ErrNoSuchPost
	}
	p.IsPublished = !p.IsPublished
	p.CreatedAt = time.Now()
	c := *p
	return &c, nil
}

func (r *MemPostRepository) Delete(ctx context.Context, id int64) error {
	s := r.s
	s.m.Lock()
	defer s.m.Unlock()
	if _, ok := s.posts[id]; !ok {
		return ErrNoSuchPost
	}
	delete(s.posts, id)
	// same effect as ON DELETE CASCADE
	for cid, c := range s.comments {
		if c.PostId == id {
			delete(s.comments, cid)
		}
	}
	return nil
}

func (r *MemCommentRepository) Add(ctx context.Context, c *mod.CommentDTO) (int64, error) {
	s := r.s
	s.m.Lock()
	defer s.m.Unlock()
	if _, ok := s.posts[c.PostId]; !ok {
		return -1, ErrNoSuchPost
	}
	if _, ok := s.users[c.CommenterId]; !ok {
		return -1, ErrNoSuchUser
	}
	s.commGen++
	c.Id = s.commGen
	c.CreatedAt = time.Now()
	stored := *c
	s.comments[stored.Id] = &stored
	return stored.Id, nil
}

func (r *MemCommentRepository) GetAll(ctx context.Context) ([]*mod.CommentDTO, error) {
	s := r.s
	s.m.RLock()
	defer s.m.RUnlock()
	comments := make([]*mod.CommentDTO, 0, len(s.comments))
	for _, c := range s.comments {
		e := *c
		comments = append(comments, &e)
	}
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})
	return comments, nil
}

func (r *MemCommentRepository) GetAllOfPost(ctx context.Context, postId int64) ([]*mod.CommentDTO, error) {
	s := r.s
	s.m.RLock()
	defer s.m.RUnlock()
	comments := make([]*mod.CommentDTO, 0)
	for _, c := range s.comments {
		if c.PostId == postId {
			e := *c
			comments = append(comments, &e)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

func (r *MemCommentRepository) UpdateText(ctx context.Context, id int64, text string) (*mod.CommentDTO, error) {
	s := r.s
	s.m.Lock()
	defer s.m.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, ErrNoSuchComment
	}
	c.Text = text
	c.CreatedAt = time.Now()
	e := *c
	return &e, nil
}

func (r *MemCommentRepository) Delete(ctx context.Context, id int64) (*mod.CommentDTO, error) {
	s := r.s
	s.m.Lock()
	defer s.m.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, ErrNoSuchComment
	}
	delete(s.comments, id)
	e := *c
	return &e, nil
}
