package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"inkpress/internal/models"
	"inkpress/internal/repository"
)

const maxCommentLen = 10000

type CommentService struct {
	commentRepo repository.CommentRepository
	articleRepo repository.ArticleRepository
}

type CreateCommentInput struct {
	UserID    uint
	ArticleID uint
	Content   string
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Content   string
}

func NewCommentService(commentRepo repository.CommentRepository, articleRepo repository.ArticleRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		articleRepo: articleRepo,
	}
}

func validateComment(content string) error {
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Validation failed", models.FieldError{
			Field: "content", Tag: "required", Message: "content is required",
		})
	}
	if utf8.RuneCountInString(content) > maxCommentLen {
		return models.NewValidationError("Validation failed", models.FieldError{
			Field: "content", Tag: "max", Message: "comment must be at most 10000 characters",
		})
	}
	return nil
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if err := validateComment(in.Content); err != nil {
		return nil, err
	}
	exists, err := s.articleRepo.Exists(ctx, in.ArticleID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewNotFoundError("Article", in.ArticleID)
	}

	comment := &models.Comment{
		UserID:    in.UserID,
		ArticleID: in.ArticleID,
		Content:   in.Content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, comment.ID)
}

func (s *CommentService) ListComments(ctx context.Context, page repository.Page) ([]*models.Comment, error) {
	return s.commentRepo.List(ctx, page)
}

func (s *CommentService) ListByFilters(ctx context.Context, filter repository.CommentFilter) ([]*models.Comment, error) {
	return s.commentRepo.ListByFilters(ctx, filter)
}

// UpdateComment is reserved to the comment's owner.
func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != in.UserID {
		return nil, models.NewForbiddenError("Only the owner can edit this comment")
	}
	if err := validateComment(in.Content); err != nil {
		return nil, err
	}
	return s.commentRepo.UpdateContent(ctx, in.CommentID, in.Content)
}

func (s *CommentService) DeleteComment(ctx context.Context, actor *models.User, id uint) error {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if comment.UserID != actor.ID && !actor.CanModerate() {
		return models.NewForbiddenError("Not allowed to delete this comment")
	}
	return s.commentRepo.Delete(ctx, id)
}
