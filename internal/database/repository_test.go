package database_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mjacome/quill/internal/database"
	"github.com/mjacome/quill/internal/models"
)

type PgRepositoryTestSuite struct {
	suite.Suite
	users       database.UserRepository
	posts       database.PostRepository
	comments    database.CommentRepository
	pgContainer *postgres.PostgresContainer
	ctx         context.Context
	seq         int
}

func (suite *PgRepositoryTestSuite) SetupSuite() {
	suite.ctx = context.Background()
	var err error
	suite.pgContainer, err = postgres.RunContainer(suite.ctx,
		testcontainers.WithImage("postgres:15.3-alpine"),
		postgres.WithInitScripts(filepath.Join("..", "..", "testdata", "init-db.sql")),
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(5*time.Second)),
	)
	suite.NoError(err)
	connStr, err := suite.pgContainer.ConnectionString(suite.ctx, "sslmode=disable")
	suite.NoError(err)

	p, err := pgxpool.New(suite.ctx, connStr)
	suite.NoError(err)
	suite.users = database.NewPgUserRepository(p)
	suite.posts = database.NewPgPostRepository(p)
	suite.comments = database.NewPgCommentRepository(p)

	err = suite.pgContainer.CopyFileToContainer(suite.ctx, filepath.Join("..", "..", "testdata", "drop-info.sql"), "/drop-info.sql", int64(os.ModePerm.Perm()))
	suite.NoError(err)
}

func (suite *PgRepositoryTestSuite) TearDownTest() {
	_, _, err := suite.pgContainer.Exec(suite.ctx, []string{"psql", "-U", "postgres", "-d", "test-db", "-f", "/drop-info.sql"})
	suite.NoError(err)
}

func (s *PgRepositoryTestSuite) TearDownSuite() {
	err := s.pgContainer.Terminate(s.ctx)
	s.NoError(err)
}

func (s *PgRepositoryTestSuite) addUser(role models.Role) *models.UserDTO {
	s.seq++
	u := &models.UserDTO{
		Username: fmt.Sprintf("%s%d", gofakeit.Username(), s.seq),
		Password: "hash",
		Email:    gofakeit.Email(),
		Type:     role,
	}
	id, err := s.users.Add(s.ctx, u)
	s.NoError(err)
	u.Id = id
	return u
}

func (s *PgRepositoryTestSuite) addPost(authorId int64, published bool) *models.PostDTO {
	p := &models.PostDTO{
		Title:       gofakeit.Sentence(3),
		Text:        gofakeit.Paragraph(1, 2, 5, " "),
		AuthorId:    authorId,
		IsPublished: published,
	}
	_, err := s.posts.Add(s.ctx, p)
	s.NoError(err)
	return p
}

func (s *PgRepositoryTestSuite) TestUserRoundTrip() {
	// given
	u := s.addUser(models.RoleUser)

	// when
	actual, err := s.users.GetByName(s.ctx, u.Username)

	// then
	s.NoError(err)
	s.Equal(u, actual)
}

func (s *PgRepositoryTestSuite) TestUserUnknownIsNil() {
	actual, err := s.users.GetByName(s.ctx, "nobody")
	s.NoError(err)
	s.Nil(actual)
}

func (s *PgRepositoryTestSuite) TestDuplicateUsername() {
	// given
	u := s.addUser(models.RoleUser)

	// when
	_, err := s.users.Add(s.ctx, &models.UserDTO{Username: u.Username, Password: "x", Email: "e", Type: models.RoleUser})

	// then
	s.Error(err)
}

func (s *PgRepositoryTestSuite) TestPostRoundTrip() {
	// given
	author := s.addUser(models.RoleAdmin)
	p := s.addPost(author.Id, true)

	// when
	actual, err := s.posts.Get(s.ctx, p.Id)

	// then
	s.NoError(err)
	s.Equal(p.Title, actual.Title)
	s.Equal(p.Text, actual.Text)
	s.Equal(author.Id, actual.AuthorId)
	s.True(actual.IsPublished)
}

func (s *PgRepositoryTestSuite) TestGetPostEmpty() {
	actual, err := s.posts.Get(s.ctx, -1)
	s.NoError(err)
	s.Nil(actual)
}

func (s *PgRepositoryTestSuite) TestPostUnknownAuthor() {
	_, err := s.posts.Add(s.ctx, &models.PostDTO{Title: "t", Text: "x", AuthorId: 4242})
	s.Error(err)
}

func (s *PgRepositoryTestSuite) TestPartialUpdateLeavesOtherFields() {
	// given
	author := s.addUser(models.RoleAdmin)
	p := s.addPost(author.Id, false)
	newText := "patched body text"

	// when
	err := s.posts.Update(s.ctx, p.Id, &models.PostPatch{Text: &newText})

	// then
	s.NoError(err)
	actual, err := s.posts.Get(s.ctx, p.Id)
	s.NoError(err)
	s.Equal(p.Title, actual.Title)
	s.Equal(newText, actual.Text)
	s.False(actual.IsPublished)
}

func (s *PgRepositoryTestSuite) TestUpdateMissingPost() {
	title := "t++"
	err := s.posts.Update(s.ctx, 424242, &models.PostPatch{Title: &title})
	s.Error(err)
}

func (s *PgRepositoryTestSuite) TestTogglePublishAlternates() {
	// given
	author := s.addUser(models.RoleAdmin)
	p := s.addPost(author.Id, false)

	// when / then
	first, err := s.posts.TogglePublish(s.ctx, p.Id)
	s.NoError(err)
	s.True(first.IsPublished)

	second, err := s.posts.TogglePublish(s.ctx, p.Id)
	s.NoError(err)
	s.False(second.IsPublished)
	s.False(second.CreatedAt.Before(first.CreatedAt))
}

func (s *PgRepositoryTestSuite) TestGetAllFiltersUnpublished() {
	// given
	author := s.addUser(models.RoleAdmin)
	s.addPost(author.Id, true)
	s.addPost(author.Id, false)

	// when
	published, err := s.posts.GetAll(s.ctx, false)
	s.NoError(err)
	everything, err2 := s.posts.GetAll(s.ctx, true)
	s.NoError(err2)

	// then
	s.Len(published, 1)
	s.Len(everything, 2)
}

func (s *PgRepositoryTestSuite) TestPreviewAnnotations() {
	// given
	author := s.addUser(models.RoleAdmin)
	commenter := s.addUser(models.RoleUser)
	quiet := s.addPost(author.Id, true)
	busy := s.addPost(author.Id, true)
	for i := 0; i < 3; i++ {
		_, err := s.comments.Add(s.ctx, &models.CommentDTO{
			Text: gofakeit.Sentence(5), CommenterId: commenter.Id, PostId: busy.Id,
		})
		s.NoError(err)
	}

	// when
	popular, err := s.posts.GetPopular(s.ctx)

	// then
	s.NoError(err)
	s.Len(popular, 2)
	s.Equal(busy.Id, popular[0].Id)
	s.Equal(author.Username, popular[0].Author)
	s.Equal(int64(3), popular[0].CommentCount)
	s.Equal(quiet.Id, popular[1].Id)
	s.Equal(int64(0), popular[1].CommentCount)
}

func (s *PgRepositoryTestSuite) TestDeleteMissingPost() {
	err := s.posts.Delete(s.ctx, 424242)
	s.Error(err)
}

func (s *PgRepositoryTestSuite) TestDeletePostCascadesComments() {
	// given
	author := s.addUser(models.RoleAdmin)
	p := s.addPost(author.Id, true)
	_, err := s.comments.Add(s.ctx, &models.CommentDTO{Text: "bye", CommenterId: author.Id, PostId: p.Id})
	s.NoError(err)

	// when
	s.NoError(s.posts.Delete(s.ctx, p.Id))

	// then
	comments, err := s.comments.GetAll(s.ctx)
	s.NoError(err)
	s.Len(comments, 0)
}

func (s *PgRepositoryTestSuite) TestCommentOnMissingPost() {
	commenter := s.addUser(models.RoleUser)
	_, err := s.comments.Add(s.ctx, &models.CommentDTO{Text: "hi", CommenterId: commenter.Id, PostId: 424242})
	s.Error(err)
}

func (s *PgRepositoryTestSuite) TestUpdateCommentRestamps() {
	// given
	author := s.addUser(models.RoleAdmin)
	p := s.addPost(author.Id, true)
	c := &models.CommentDTO{Text: "before", CommenterId: author.Id, PostId: p.Id}
	_, err := s.comments.Add(s.ctx, c)
	s.NoError(err)

	// when
	updated, err := s.comments.UpdateText(s.ctx, c.Id, "after")

	// then
	s.NoError(err)
	s.Equal("after", updated.Text)
	s.False(updated.CreatedAt.Before(c.CreatedAt))
}

func (s *PgRepositoryTestSuite) TestDeleteCommentReturnsIt() {
	// given
	author := s.addUser(models.RoleAdmin)
	p := s.addPost(author.Id, true)
	c := &models.CommentDTO{Text: "gone", CommenterId: author.Id, PostId: p.Id}
	_, err := s.comments.Add(s.ctx, c)
	s.NoError(err)

	// when
	deleted, err := s.comments.Delete(s.ctx, c.Id)

	// then
	s.NoError(err)
	s.Equal(c.Id, deleted.Id)

	_, err = s.comments.Delete(s.ctx, c.Id)
	s.Error(err)
}

func TestPgRepositoryTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	suite.Run(t, new(PgRepositoryTestSuite))
}
