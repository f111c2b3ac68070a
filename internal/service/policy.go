package service

import (
	"context"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
)

// Policy is the authorization predicate layer. A false result is a normal
// outcome the caller turns into a redirect, never an error.
type Policy struct {
	follows repository.FollowRepository
}

func NewPolicy(follows repository.FollowRepository) *Policy {
	return &Policy{follows: follows}
}

// CanEditPost holds only for the post's own author.
func (p *Policy) CanEditPost(user *model.User, post *model.Post) bool {
	return user != nil && post != nil && user.ID == post.AuthorID
}

// CanComment holds for any authenticated user.
func (p *Policy) CanComment(user *model.User) bool {
	return user != nil
}

// CanFollow holds when user is authenticated, is not the author, and no
// edge exists yet. The error is only for storage failures.
func (p *Policy) CanFollow(ctx context.Context, user, author *model.User) (bool, error) {
	if user == nil || author == nil || user.ID == author.ID {
		return false, nil
	}
	exists, err := p.follows.Exists(ctx, user.ID, author.ID)
	if err != nil {
		return false, err
	}
	return !exists, nil
}
