package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"inkpress/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticleRepository_CreateWithCategories(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()

	author := seedUser(t, db, "writer", models.RoleAuthor)
	c1 := seedCategory(t, db, "go")
	c2 := seedCategory(t, db, "db")

	article := &models.Article{UserID: author.ID, Title: "T", Content: "C"}
	require.NoError(t, repo.Create(ctx, article, []uint{c1.ID, c2.ID, c1.ID}))
	assert.Equal(t, []uint{c1.ID, c2.ID}, article.CategoryIDs)

	got, err := repo.GetByID(ctx, article.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{c1.ID, c2.ID}, got.CategoryIDs)
	assert.Equal(t, int64(0), got.LikesCount)
	require.NotNil(t, got.User)
	assert.Equal(t, "writer", got.User.Username)
	require.NotNil(t, got.Author)
	assert.Equal(t, got.User.Summary(), *got.Author)
}

func TestArticleRepository_CreateUnknownCategoryRollsBack(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	author := seedUser(t, db, "writer", models.RoleAuthor)

	err := repo.Create(context.Background(), &models.Article{UserID: author.ID, Title: "T", Content: "C"}, []uint{42})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindBadRequest))

	var n int64
	require.NoError(t, db.Model(&models.Article{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestArticleRepository_IncrementViewsIsAtomicSQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewArticleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "articles" SET "views"=views + $1 WHERE id = $2`)).
		WithArgs(1, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.IncrementViews(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleRepository_IncrementViewsCountsEveryCall(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()
	article := seedArticle(t, db, seedUser(t, db, "writer", models.RoleAuthor), "T")

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.IncrementViews(ctx, article.ID))
	}
	got, err := repo.GetByID(ctx, article.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Views)

	err = repo.IncrementViews(ctx, 999)
	assert.True(t, models.IsKind(err, models.KindNotFound))
}

func TestArticleRepository_PartialUpdate(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()

	author := seedUser(t, db, "writer", models.RoleAuthor)
	c1 := seedCategory(t, db, "one")
	c2 := seedCategory(t, db, "two")
	c3 := seedCategory(t, db, "three")
	article := seedArticle(t, db, author, "Old", c1.ID, c2.ID)

	title := "New"
	got, err := repo.Update(ctx, article.ID, ArticleUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, "content of Old", got.Content)
	assert.Equal(t, []uint{c1.ID, c2.ID}, got.CategoryIDs)

	replacement := []uint{c2.ID, c3.ID}
	got, err = repo.Update(ctx, article.ID, ArticleUpdate{CategoryIDs: &replacement})
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, []uint{c2.ID, c3.ID}, got.CategoryIDs)

	empty := []uint{}
	got, err = repo.Update(ctx, article.ID, ArticleUpdate{CategoryIDs: &empty})
	require.NoError(t, err)
	assert.Empty(t, got.CategoryIDs)

	_, err = repo.Update(ctx, 999, ArticleUpdate{Title: &title})
	assert.True(t, models.IsKind(err, models.KindNotFound))
}

func TestArticleRepository_SearchFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", models.RoleAuthor)
	bob := seedUser(t, db, "bob", models.RoleAuthor)
	news := seedCategory(t, db, "news")

	a1 := seedArticle(t, db, alice, "a1", news.ID)
	a2 := seedArticle(t, db, alice, "a2")
	b1 := seedArticle(t, db, bob, "b1", news.ID)

	day := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, db.Model(&models.Article{}).Where("id = ?", a1.ID).UpdateColumn("created_at", day).Error)
	require.NoError(t, db.Model(&models.Article{}).Where("id = ?", a2.ID).UpdateColumn("created_at", day.Add(-24*time.Hour)).Error)
	require.NoError(t, db.Model(&models.Article{}).Where("id = ?", b1.ID).UpdateColumn("created_at", day.Add(3*time.Hour)).Error)

	ids := func(list []*models.Article) []uint {
		out := make([]uint, 0, len(list))
		for _, a := range list {
			out = append(out, a.ID)
		}
		return out
	}

	byAuthor, err := repo.Search(ctx, ArticleFilter{UserID: &alice.ID, Page: Page{Limit: 10}})
	require.NoError(t, err)
	assert.Equal(t, []uint{a1.ID, a2.ID}, ids(byAuthor))

	byCategory, err := repo.Search(ctx, ArticleFilter{CategoryID: &news.ID, Page: Page{Limit: 10}})
	require.NoError(t, err)
	assert.Equal(t, []uint{b1.ID, a1.ID}, ids(byCategory))

	onDay := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	byDay, err := repo.Search(ctx, ArticleFilter{CreatedDate: &onDay, Page: Page{Limit: 10}})
	require.NoError(t, err)
	assert.Equal(t, []uint{b1.ID, a1.ID}, ids(byDay))

	combined, err := repo.Search(ctx, ArticleFilter{UserID: &alice.ID, CategoryID: &news.ID, CreatedDate: &onDay, Page: Page{Limit: 10}})
	require.NoError(t, err)
	assert.Equal(t, []uint{a1.ID}, ids(combined))

	paged, err := repo.Search(ctx, ArticleFilter{Page: Page{Skip: 1, Limit: 1}})
	require.NoError(t, err)
	assert.Equal(t, []uint{a1.ID}, ids(paged))
}

func TestArticleRepository_DeleteRemovesDependents(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()

	author := seedUser(t, db, "writer", models.RoleAuthor)
	reader := seedUser(t, db, "reader", models.RoleUser)
	cat := seedCategory(t, db, "misc")
	article := seedArticle(t, db, author, "T", cat.ID)

	require.NoError(t, NewLikeRepository(db).Like(ctx, reader.ID, article.ID))
	require.NoError(t, NewCommentRepository(db).Create(ctx, &models.Comment{UserID: reader.ID, ArticleID: article.ID, Content: "hi"}))
	require.NoError(t, NewFileRepository(db).Create(ctx, &models.File{UserID: author.ID, ArticleID: article.ID, Path: "articles/1/a.png", Filename: "a.png", Mimetype: "image/png", Size: 3}))

	require.NoError(t, repo.Delete(ctx, article.ID))

	for _, model := range []interface{}{&models.Article{}, &models.Like{}, &models.Comment{}, &models.File{}, &models.ArticleCategory{}} {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.Zero(t, n, "%T rows left behind", model)
	}

	var categories int64
	require.NoError(t, db.Model(&models.Category{}).Count(&categories).Error)
	assert.Equal(t, int64(1), categories)

	err := repo.Delete(ctx, article.ID)
	assert.True(t, models.IsKind(err, models.KindNotFound))
}
