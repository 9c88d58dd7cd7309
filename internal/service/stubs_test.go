package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"inkpress/internal/models"
	"inkpress/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userRepoStub struct {
	getByIDFn        func(context.Context, uint) (*models.User, error)
	getByEmailFn     func(context.Context, string) (*models.User, error)
	getByLoginFn     func(context.Context, string) (*models.User, error)
	createFn         func(context.Context, *models.User) error
	updatePasswordFn func(context.Context, uint, string) error
	updateRoleFn     func(context.Context, uint, models.Role) error
	listFn           func(context.Context, repository.Page) ([]models.User, error)
	listByRoleFn     func(context.Context, models.Role, repository.Page) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}

func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}

func (s *userRepoStub) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	return s.getByLoginFn(ctx, login)
}

func (s *userRepoStub) Create(ctx context.Context, u *models.User) error {
	return s.createFn(ctx, u)
}

func (s *userRepoStub) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return s.updatePasswordFn(ctx, id, hash)
}

func (s *userRepoStub) UpdateRole(ctx context.Context, id uint, role models.Role) error {
	return s.updateRoleFn(ctx, id, role)
}

func (s *userRepoStub) List(ctx context.Context, page repository.Page) ([]models.User, error) {
	return s.listFn(ctx, page)
}

func (s *userRepoStub) ListByRole(ctx context.Context, role models.Role, page repository.Page) ([]models.User, error) {
	return s.listByRoleFn(ctx, role, page)
}

func (s *userRepoStub) Count(context.Context) (int64, error) { return 0, nil }

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:        func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id, Role: models.RoleUser}, nil },
		getByEmailFn:     func(context.Context, string) (*models.User, error) { return nil, nil },
		getByLoginFn:     func(context.Context, string) (*models.User, error) { return nil, nil },
		createFn:         func(context.Context, *models.User) error { return nil },
		updatePasswordFn: func(context.Context, uint, string) error { return nil },
		updateRoleFn:     func(context.Context, uint, models.Role) error { return nil },
		listFn:           func(context.Context, repository.Page) ([]models.User, error) { return nil, nil },
		listByRoleFn:     func(context.Context, models.Role, repository.Page) ([]models.User, error) { return nil, nil },
	}
}

type articleRepoStub struct {
	createFn         func(context.Context, *models.Article, []uint) error
	getByIDFn        func(context.Context, uint) (*models.Article, error)
	existsFn         func(context.Context, uint) (bool, error)
	incrementViewsFn func(context.Context, uint) error
	listFn           func(context.Context, repository.Page) ([]*models.Article, error)
	searchFn         func(context.Context, repository.ArticleFilter) ([]*models.Article, error)
	updateFn         func(context.Context, uint, repository.ArticleUpdate) (*models.Article, error)
	deleteFn         func(context.Context, uint) error
}

func (s *articleRepoStub) Create(ctx context.Context, a *models.Article, ids []uint) error {
	return s.createFn(ctx, a, ids)
}

func (s *articleRepoStub) GetByID(ctx context.Context, id uint) (*models.Article, error) {
	return s.getByIDFn(ctx, id)
}

func (s *articleRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}

func (s *articleRepoStub) IncrementViews(ctx context.Context, id uint) error {
	return s.incrementViewsFn(ctx, id)
}

func (s *articleRepoStub) List(ctx context.Context, page repository.Page) ([]*models.Article, error) {
	return s.listFn(ctx, page)
}

func (s *articleRepoStub) Search(ctx context.Context, f repository.ArticleFilter) ([]*models.Article, error) {
	return s.searchFn(ctx, f)
}

func (s *articleRepoStub) Update(ctx context.Context, id uint, upd repository.ArticleUpdate) (*models.Article, error) {
	return s.updateFn(ctx, id, upd)
}

func (s *articleRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopArticleRepo() *articleRepoStub {
	return &articleRepoStub{
		createFn:         func(context.Context, *models.Article, []uint) error { return nil },
		getByIDFn:        func(_ context.Context, id uint) (*models.Article, error) { return &models.Article{ID: id}, nil },
		existsFn:         func(context.Context, uint) (bool, error) { return true, nil },
		incrementViewsFn: func(context.Context, uint) error { return nil },
		listFn:           func(context.Context, repository.Page) ([]*models.Article, error) { return nil, nil },
		searchFn:         func(context.Context, repository.ArticleFilter) ([]*models.Article, error) { return nil, nil },
		updateFn:         func(_ context.Context, id uint, _ repository.ArticleUpdate) (*models.Article, error) { return &models.Article{ID: id}, nil },
		deleteFn:         func(context.Context, uint) error { return nil },
	}
}

type commentRepoStub struct {
	createFn        func(context.Context, *models.Comment) error
	getByIDFn       func(context.Context, uint) (*models.Comment, error)
	updateContentFn func(context.Context, uint, string) (*models.Comment, error)
	deleteFn        func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}

func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}

func (s *commentRepoStub) List(context.Context, repository.Page) ([]*models.Comment, error) {
	return nil, nil
}

func (s *commentRepoStub) ListByFilters(context.Context, repository.CommentFilter) ([]*models.Comment, error) {
	return nil, nil
}

func (s *commentRepoStub) UpdateContent(ctx context.Context, id uint, content string) (*models.Comment, error) {
	return s.updateContentFn(ctx, id, content)
}

func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:  func(context.Context, *models.Comment) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		updateContentFn: func(_ context.Context, id uint, content string) (*models.Comment, error) {
			return &models.Comment{ID: id, Content: content}, nil
		},
		deleteFn: func(context.Context, uint) error { return nil },
	}
}

type fileRepoStub struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]*models.File

	createErr error
	deleteErr error
}

func newFileRepoStub() *fileRepoStub {
	return &fileRepoStub{rows: map[uint]*models.File{}}
}

func (s *fileRepoStub) Create(_ context.Context, f *models.File) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	f.ID = s.nextID
	f.CreatedAt = time.Now()
	cp := *f
	s.rows[f.ID] = &cp
	return nil
}

func (s *fileRepoStub) GetByID(_ context.Context, id uint) (*models.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.rows[id]
	if !ok {
		return nil, models.NewNotFoundError("File", id)
	}
	cp := *f
	return &cp, nil
}

func (s *fileRepoStub) ListByArticle(_ context.Context, articleID uint) ([]*models.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.File
	for id := uint(1); id <= s.nextID; id++ {
		if f, ok := s.rows[id]; ok && f.ArticleID == articleID {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fileRepoStub) Delete(_ context.Context, id uint) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

func (s *fileRepoStub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// assertAppErrorCode asserts that err is an AppError carrying code.
func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, "VALIDATION_ERROR")
}

func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, "PERMISSION_DENIED")
}

func assertUnauthorizedError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, "UNAUTHORIZED")
}
