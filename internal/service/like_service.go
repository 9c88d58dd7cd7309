package service

import (
	"context"

	"inkpress/internal/models"
	"inkpress/internal/observability"
	"inkpress/internal/repository"
)

// LikeDirection is 1 to like and 0 to unlike.
type LikeDirection int

const (
	Unlike LikeDirection = 0
	Like   LikeDirection = 1
)

type LikeService struct {
	likeRepo repository.LikeRepository
}

func NewLikeService(likeRepo repository.LikeRepository) *LikeService {
	return &LikeService{likeRepo: likeRepo}
}

// Vote applies a like or unlike. A repeated like is a Conflict, unliking without a like is NotFound.
func (s *LikeService) Vote(ctx context.Context, userID, articleID uint, dir LikeDirection) error {
	switch dir {
	case Like:
		if err := s.likeRepo.Like(ctx, userID, articleID); err != nil {
			return err
		}
		observability.Likes.WithLabelValues("like").Inc()
	case Unlike:
		if err := s.likeRepo.Unlike(ctx, userID, articleID); err != nil {
			return err
		}
		observability.Likes.WithLabelValues("unlike").Inc()
	default:
		return models.NewValidationError("Validation failed", models.FieldError{
			Field: "dir", Tag: "oneof", Message: "dir must be 0 or 1",
		})
	}
	return nil
}

// Count returns the number of Like rows and resynchronises the cached counter.
func (s *LikeService) Count(ctx context.Context, articleID uint) (int64, error) {
	return s.likeRepo.CountAndSync(ctx, articleID)
}

// HasLiked reports whether userID currently likes the article.
func (s *LikeService) HasLiked(ctx context.Context, userID, articleID uint) (bool, error) {
	return s.likeRepo.Exists(ctx, userID, articleID)
}
