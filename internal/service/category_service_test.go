package service

import (
	"context"
	"testing"

	"inkpress/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type categoryRepoStub struct {
	replaced map[uint][]uint
	created  []string
}

func (s *categoryRepoStub) List(context.Context) ([]models.Category, error) { return nil, nil }

func (s *categoryRepoStub) GetByID(_ context.Context, id uint) (*models.Category, error) {
	return &models.Category{ID: id}, nil
}

func (s *categoryRepoStub) Create(_ context.Context, name string) (*models.Category, error) {
	s.created = append(s.created, name)
	return &models.Category{ID: uint(len(s.created)), Name: name}, nil
}

func (s *categoryRepoStub) CreateMany(_ context.Context, names []string) ([]models.Category, error) {
	out := make([]models.Category, 0, len(names))
	for _, n := range names {
		c, _ := s.Create(context.Background(), n)
		out = append(out, *c)
	}
	return out, nil
}

func (s *categoryRepoStub) ListForArticle(_ context.Context, articleID uint) ([]models.Category, error) {
	var out []models.Category
	for _, id := range s.replaced[articleID] {
		out = append(out, models.Category{ID: id})
	}
	return out, nil
}

func (s *categoryRepoStub) ReplaceForArticle(_ context.Context, articleID uint, ids []uint) error {
	if s.replaced == nil {
		s.replaced = map[uint][]uint{}
	}
	s.replaced[articleID] = ids
	return nil
}

func TestCategoryService_Create(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := &categoryRepoStub{}
	svc := NewCategoryService(repo, noopArticleRepo())

	_, err := svc.CreateCategory(ctx, "   ")
	assertValidationError(t, err)

	_, err = svc.CreateCategories(ctx, nil)
	assertAppErrorCode(t, err, "BAD_REQUEST")

	_, err = svc.CreateCategories(ctx, []string{"go", ""})
	assertValidationError(t, err)
	assert.Empty(t, repo.created, "a bad name rejects the whole batch")

	cats, err := svc.CreateCategories(ctx, []string{"go", "rust"})
	require.NoError(t, err)
	assert.Len(t, cats, 2)
}

func TestCategoryService_SetArticleCategories(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	articles := noopArticleRepo()
	articles.getByIDFn = func(_ context.Context, id uint) (*models.Article, error) {
		return &models.Article{ID: id, UserID: 1}, nil
	}

	t.Run("author replaces the set", func(t *testing.T) {
		t.Parallel()
		repo := &categoryRepoStub{replaced: map[uint][]uint{5: {1, 2}}}
		res, err := NewCategoryService(repo, articles).SetArticleCategories(ctx, 1, 5, []uint{3})
		require.NoError(t, err)
		assert.Equal(t, uint(5), res.ArticleID)
		require.Len(t, res.Categories, 1)
		assert.Equal(t, uint(3), res.Categories[0].ID)
	})

	t.Run("other users are refused", func(t *testing.T) {
		t.Parallel()
		repo := &categoryRepoStub{}
		_, err := NewCategoryService(repo, articles).SetArticleCategories(ctx, 2, 5, []uint{3})
		assertForbiddenError(t, err)
		assert.Nil(t, repo.replaced)
	})
}
