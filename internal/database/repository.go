package database

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	mod "github.com/mjacome/quill/internal/models"
)

const (
	insertUser = "INSERT INTO users (username, password, email, type) VALUES ($1, $2, $3, $4) RETURNING id"
	searchUser = `SELECT id, username, password, email, type
	FROM users
	WHERE username = $1`
	searchUserById = `SELECT id, username, password, email, type
	FROM users
	WHERE id = $1`

	insertPost = "INSERT INTO posts (title, text_p, author_id, is_published, created_at) VALUES ($1, $2, $3, $4, now()) RETURNING id, created_at"
	searchPost = `SELECT id, title, text_p, author_id, is_published, created_at
	FROM posts
	WHERE id = $1`
	searchAllPosts = `SELECT id, title, text_p, author_id, is_published, created_at
	FROM posts
	ORDER BY created_at DESC`
	searchPublishedPosts = `SELECT id, title, text_p, author_id, is_published, created_at
	FROM posts
	WHERE is_published
	ORDER BY created_at DESC`
	searchLatestPosts = `SELECT p.id, p.title, p.text_p, p.author_id, p.is_published, p.created_at, u.username, count(c.id)
	FROM posts p
	JOIN users u ON u.id = p.author_id
	LEFT JOIN comments c ON c.parent_id = p.id
	GROUP BY p.id, u.username
	ORDER BY p.created_at DESC
	LIMIT $1`
	searchPopularPosts = `SELECT p.id, p.title, p.text_p, p.author_id, p.is_published, p.created_at, u.username, count(c.id)
	FROM posts p
	JOIN users u ON u.id = p.author_id
	LEFT JOIN comments c ON c.parent_id = p.id
	GROUP BY p.id, u.username
	ORDER BY count(c.id) DESC
	LIMIT $1`
	updatePost = `UPDATE posts
	SET title = COALESCE($2::text, title),
	    text_p = COALESCE($3::text, text_p),
	    is_published = COALESCE($4::boolean, is_published),
	    created_at = CASE WHEN $4::boolean IS NOT NULL THEN now() ELSE created_at END
	WHERE id = $1
	RETURNING id`
	togglePost = `UPDATE posts
	SET is_published = NOT is_published,
	    created_at = now()
	WHERE id = $1
	RETURNING id, title, text_p, author_id, is_published, created_at`
	deletePost = "DELETE FROM posts WHERE id = $1 RETURNING id"

	insertComment = "INSERT INTO comments (text_c, commenter_id, parent_id, created_at) VALUES ($1, $2, $3, now()) RETURNING id, created_at"
	searchAllComments = `SELECT id, text_c, commenter_id, parent_id, created_at
	FROM comments
	ORDER BY created_at DESC`
	searchPostComments = `SELECT id, text_c, commenter_id, parent_id, created_at
	FROM comments
	WHERE parent_id = $1
	ORDER BY created_at`
	updateComment = `UPDATE comments
	SET text_c = $2, created_at = now()
	WHERE id = $1
	RETURNING id, text_c, commenter_id, parent_id, created_at`
	deleteComment = "DELETE FROM comments WHERE id = $1 RETURNING id, text_c, commenter_id, parent_id, created_at"
)

// PreviewLimit caps the latest/popular listing projections.
const PreviewLimit = 6

type (
	UserRepository interface {
		Add(ctx context.Context, u *mod.UserDTO) (int64, error)
		GetByName(ctx context.Context, username string) (*mod.UserDTO, error)
		GetById(ctx context.Context, id int64) (*mod.UserDTO, error)
	}

	PostRepository interface {
		Add(ctx context.Context, p *mod.PostDTO) (int64, error)
		Get(ctx context.Context, id int64) (*mod.PostDTO, error)
		GetAll(ctx context.Context, includeUnpublished bool) ([]*mod.PostDTO, error)
		GetLatest(ctx context.Context) ([]*mod.PostPreviewDTO, error)
		GetPopular(ctx context.Context) ([]*mod.PostPreviewDTO, error)
		Update(ctx context.Context, id int64, patch *mod.PostPatch) error
		TogglePublish(ctx context.Context, id int64) (*mod.PostDTO, error)
		Delete(ctx context.Context, id int64) error
	}

	CommentRepository interface {
		Add(ctx context.Context, c *mod.CommentDTO) (int64, error)
		GetAll(ctx context.Context) ([]*mod.CommentDTO, error)
		GetAllOfPost(ctx context.Context, postId int64) ([]*mod.CommentDTO, error)
		UpdateText(ctx context.Context, id int64, text string) (*mod.CommentDTO, error)
		Delete(ctx context.Context, id int64) (*mod.CommentDTO, error)
	}

	Config struct {
		InMemory bool
		DbAddr   string
	}

	// Repositories bundles the per-entity repositories over one handle.
	Repositories struct {
		Users    UserRepository
		Posts    PostRepository
		Comments CommentRepository
	}

	PgUserRepository struct {
		pool *pgxpool.Pool
	}

	PgPostRepository struct {
		pool *pgxpool.Pool
	}

	PgCommentRepository struct {
		pool *pgxpool.Pool
	}
)

// NewRepositoryProvider opens a single pgx pool shared by all repositories,
// or hands out the in-memory store for IN_MEMORY mode. The returned cleanup
// closes the pool and is always safe to call.
func NewRepositoryProvider(ctx context.Context, cfg *Config) (*Repositories, func(), error) {
	if cfg.InMemory {
		m := NewMemStore()
		return &Repositories{Users: m.Users(), Posts: m.Posts(), Comments: m.Comments()}, func() {}, nil
	}

	pg, err := pgxpool.New(ctx, cfg.DbAddr)
	if err != nil {
		return nil, nil, err
	}
	if err = pg.Ping(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}

	return &Repositories{
		Users:    NewPgUserRepository(pg),
		Posts:    NewPgPostRepository(pg),
		Comments: NewPgCommentRepository(pg),
	}, pg.Close, nil
}

func NewPgUserRepository(p *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: p}
}

func (r *PgUserRepository) Add(ctx context.Context, u *mod.UserDTO) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, insertUser, u.Username, u.Password, u.Email, u.Type).Scan(&id)
	if err != nil {
		log.Error().Err(err).Str("username", u.Username).Msg("error insert user")
		return -1, err
	}
	return id, nil
}

func (r *PgUserRepository) GetByName(ctx context.Context, username string) (*mod.UserDTO, error) {
	u := mod.UserDTO{}
	err := r.pool.QueryRow(ctx, searchUser, username).Scan(&u.Id, &u.Username, &u.Password, &u.Email, &u.Type)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		log.Error().Err(err).Msg("error search user by name")
		return nil, err
	}
	return &u, nil
}

func (r *PgUserRepository) GetById(ctx context.Context, id int64) (*mod.UserDTO, error) {
	u := mod.UserDTO{}
	err := r.pool.QueryRow(ctx, searchUserById, id).Scan(&u.Id, &u.Username, &u.Password, &u.Email, &u.Type)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		log.Error().Err(err).Msg("error search user by id")
		return nil, err
	}
	return &u, nil
}

func NewPgPostRepository(p *pgxpool.Pool) *PgPostRepository {
	return &PgPostRepository{pool: p}
}

func (r *PgPostRepository) Add(ctx context.Context, post *mod.PostDTO) (int64, error) {
	log.Debug().Interface("post", post).Msg("add post")
	err := r.pool.QueryRow(ctx, insertPost, post.Title, post.Text, post.AuthorId, post.IsPublished).
		Scan(&post.Id, &post.CreatedAt)
	if err != nil {
		log.Error().Err(err).Msg("error insert post")
		return -1, err
	}
	return post.Id, nil
}

func (r *PgPostRepository) Get(ctx context.Context, id int64) (*mod.PostDTO, error) {
	p := mod.PostDTO{}
	err := r.pool.QueryRow(ctx, searchPost, id).
		Scan(&p.Id, &p.Title, &p.Text, &p.AuthorId, &p.IsPublished, &p.CreatedAt)
	if err == pgx.ErrNoRows {
		log.Debug().Int64("id", id).Msg("no post with this id")
		return nil, nil
	}
	if err != nil {
		log.Error().Err(err).Msg("error search post")
		return nil, err
	}
	return &p, nil
}

func (r *PgPostRepository) GetAll(ctx context.Context, includeUnpublished bool) ([]*mod.PostDTO, error) {
	q := searchPublishedPosts
	if includeUnpublished {
		q = searchAllPosts
	}
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		log.Error().Err(err).Msg("error search posts")
		return nil, err
	}
	defer rows.Close()

	posts := make([]*mod.PostDTO, 0)
	for rows.Next() {
		var p mod.PostDTO
		if err = rows.Scan(&p.Id, &p.Title, &p.Text, &p.AuthorId, &p.IsPublished, &p.CreatedAt); err != nil {
			log.Error().Err(err).Msg("error scan posts")
			return nil, err
		}
		posts = append(posts, &p)
	}
	return posts, rows.Err()
}

func (r *PgPostRepository) GetLatest(ctx context.Context) ([]*mod.PostPreviewDTO, error) {
	return r.preview(ctx, searchLatestPosts)
}

func (r *PgPostRepository) GetPopular(ctx context.Context) ([]*mod.PostPreviewDTO, error) {
	return r.preview(ctx, searchPopularPosts)
}

func (r *PgPostRepository) preview(ctx context.Context, query string) ([]*mod.PostPreviewDTO, error) {
	rows, err := r.pool.Query(ctx, query, PreviewLimit)
	if err != nil {
		log.Error().Err(err).Msg("error search post previews")
		return nil, err
	}
	defer rows.Close()

	posts := make([]*mod.PostPreviewDTO, 0, PreviewLimit)
	for rows.Next() {
		var p mod.PostPreviewDTO
		err = rows.Scan(&p.Id, &p.Title, &p.Text, &p.AuthorId, &p.IsPublished, &p.CreatedAt,
			&p.Author, &p.CommentCount)
		if err != nil {
			log.Error().Err(err).Msg("error scan post previews")
			return nil, err
		}
		posts = append(posts, &p)
	}
	return posts, rows.Err()
}

func (r *PgPostRepository) Update(ctx context.Context, id int64, patch *mod.PostPatch) error {
	log.Debug().Int64("id", id).Interface("patch", patch).Msg("update post")
	var updated int64
	err := r.pool.QueryRow(ctx, updatePost, id, patch.Title, patch.Text, patch.IsPublished).Scan(&updated)
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("error update post")
		return err
	}
	return nil
}

func (r *PgPostRepository) TogglePublish(ctx context.Context, id int64) (*mod.PostDTO, error) {
	p := mod.PostDTO{}
	err := r.pool.QueryRow(ctx, togglePost, id).
		Scan(&p.Id, &p.Title, &p.Text, &p.AuthorId, &p.IsPublished, &p.CreatedAt)
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("error toggle publish")
		return nil, err
	}
	return &p, nil
}

func (r *PgPostRepository) Delete(ctx context.Context, id int64) error {
	var deleted int64
	err := r.pool.QueryRow(ctx, deletePost, id).Scan(&deleted)
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("error delete post")
		return err
	}
	return nil
}

func NewPgCommentRepository(p *pgxpool.Pool) *PgCommentRepository {
	return &PgCommentRepository{pool: p}
}

func (r *PgCommentRepository) Add(ctx context.Context, c *mod.CommentDTO) (int64, error) {
	log.Debug().Interface("comment", c).Msg("add comment")
	err := r.pool.QueryRow(ctx, insertComment, c.Text, c.CommenterId, c.PostId).
		Scan(&c.Id, &c.CreatedAt)
	if err != nil {
		log.Error().Err(err).Msg("error insert comment")
		return -1, err
	}
	return c.Id, nil
}

func (r *PgCommentRepository) GetAll(ctx context.Context) ([]*mod.CommentDTO, error) {
	return r.comments(ctx, searchAllComments)
}

func (r *PgCommentRepository) GetAllOfPost(ctx context.Context, postId int64) ([]*mod.CommentDTO, error) {
	return r.comments(ctx, searchPostComments, postId)
}

func (r *PgCommentRepository) comments(ctx context.Context, query string, args ...any) ([]*mod.CommentDTO, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		log.Error().Err(err).Msg("error search comments")
		return nil, err
	}
	defer rows.Close()

	comments := make([]*mod.CommentDTO, 0)
	for rows.Next() {
		var c mod.CommentDTO
		if err = rows.Scan(&c.Id, &c.Text, &c.CommenterId, &c.PostId, &c.CreatedAt); err != nil {
			log.Error().Err(err).Msg("error scan comments")
			return nil, err
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

func (r *PgCommentRepository) UpdateText(ctx context.Context, id int64, text string) (*mod.CommentDTO, error) {
	c := mod.CommentDTO{}
	err := r.pool.QueryRow(ctx, updateComment, id, text).
		Scan(&c.Id, &c.Text, &c.CommenterId, &c.PostId, &c.CreatedAt)
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("error update comment")
		return nil, err
	}
	return &c, nil
}

func (r *PgCommentRepository) Delete(ctx context.Context, id int64) (*mod.CommentDTO, error) {
	c := mod.CommentDTO{}
	err := r.pool.QueryRow(ctx, deleteComment, id).
		Scan(&c.Id, &c.Text, &c.CommenterId, &c.PostId, &c.CreatedAt)
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("error delete comment")
		return nil, err
	}
	return &c, nil
}
