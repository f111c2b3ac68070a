package service

import (
	"context"

	"github.com/d60-Lab/yatube/internal/repository"
)

// RelationshipService maintains the directed follow graph.
//
// Follow and Unfollow degrade to silent no-ops on invalid state
// (self-follow, duplicate follow, unfollow of a missing edge). That
// mirrors the product behavior: the profile page just redirects, it
// never surfaces these as errors.
type RelationshipService interface {
	Follow(ctx context.Context, followerID, authorID string) error
	Unfollow(ctx context.Context, followerID, authorID string) error
	FollowedAuthorIDs(ctx context.Context, followerID string) ([]string, error)
	IsFollowing(ctx context.Context, followerID, authorID string) (bool, error)
}

type relationshipService struct {
	follows repository.FollowRepository
}

func NewRelationshipService(follows repository.FollowRepository) RelationshipService {
	return &relationshipService{follows: follows}
}

func (s *relationshipService) Follow(ctx context.Context, followerID, authorID string) error {
	if followerID == authorID {
		// no self-follow edge, ever
		return nil
	}
	return s.follows.Create(ctx, followerID, authorID)
}

func (s *relationshipService) Unfollow(ctx context.Context, followerID, authorID string) error {
	return s.follows.Delete(ctx, followerID, authorID)
}

func (s *relationshipService) FollowedAuthorIDs(ctx context.Context, followerID string) ([]string, error) {
	return s.follows.AuthorIDs(ctx, followerID)
}

func (s *relationshipService) IsFollowing(ctx context.Context, followerID, authorID string) (bool, error) {
	return s.follows.Exists(ctx, followerID, authorID)
}
