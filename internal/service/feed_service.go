package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
)

var (
	ErrGroupNotFound = errors.New("group not found")
	ErrUserNotFound  = errors.New("user not found")
)

// DefaultPageSize matches the classic ten-posts-per-page layout.
const DefaultPageSize = 10

type scopeKind int

const (
	scopeAll scopeKind = iota
	scopeGroup
	scopeAuthor
	scopeFollowed
)

// Scope selects which posts a feed shows.
type Scope struct {
	kind     scopeKind
	slug     string
	username string
	userID   string
}

func All() Scope                     { return Scope{kind: scopeAll} }
func ByGroup(slug string) Scope      { return Scope{kind: scopeGroup, slug: slug} }
func ByAuthor(username string) Scope { return Scope{kind: scopeAuthor, username: username} }
func FollowedBy(userID string) Scope { return Scope{kind: scopeFollowed, userID: userID} }

// Feed is one page of posts plus everything the templates need around it.
// Total counts all matching posts regardless of the requested page.
type Feed struct {
	Items    []*model.Post
	Total    int64
	Page     int
	PageSize int

	// set when the scope resolved a group or author
	Group  *model.Group
	Author *model.User
}

func (f *Feed) NumPages() int {
	n := int((f.Total + int64(f.PageSize) - 1) / int64(f.PageSize))
	if n < 1 {
		n = 1
	}
	return n
}

func (f *Feed) HasPrev() bool { return f.Page > 1 }
func (f *Feed) HasNext() bool { return f.Page < f.NumPages() }
func (f *Feed) PrevPage() int { return f.Page - 1 }
func (f *Feed) NextPage() int { return f.Page + 1 }

type FeedService interface {
	Build(ctx context.Context, scope Scope, page int) (*Feed, error)
}

type feedService struct {
	posts    repository.PostRepository
	groups   repository.GroupRepository
	users    repository.UserRepository
	follows  repository.FollowRepository
	pageSize int
}

func NewFeedService(
	posts repository.PostRepository,
	groups repository.GroupRepository,
	users repository.UserRepository,
	follows repository.FollowRepository,
	pageSize int,
) FeedService {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &feedService{posts: posts, groups: groups, users: users, follows: follows, pageSize: pageSize}
}

// Build assembles one page, newest first. Pages are 1-based; a page past
// the end comes back empty with the correct Total, not as an error.
func (s *feedService) Build(ctx context.Context, scope Scope, page int) (*Feed, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * s.pageSize
	feed := &Feed{Page: page, PageSize: s.pageSize}

	var err error
	switch scope.kind {
	case scopeAll:
		if feed.Items, err = s.posts.ListAll(ctx, offset, s.pageSize); err != nil {
			return nil, err
		}
		if feed.Total, err = s.posts.CountAll(ctx); err != nil {
			return nil, err
		}

	case scopeGroup:
		group, err := s.groups.GetBySlug(ctx, scope.slug)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrGroupNotFound
			}
			return nil, err
		}
		feed.Group = group
		if feed.Items, err = s.posts.ListByGroup(ctx, group.ID, offset, s.pageSize); err != nil {
			return nil, err
		}
		if feed.Total, err = s.posts.CountByGroup(ctx, group.ID); err != nil {
			return nil, err
		}

	case scopeAuthor:
		author, err := s.users.GetByUsername(ctx, scope.username)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, err
		}
		feed.Author = author
		if feed.Items, err = s.posts.ListByAuthor(ctx, author.ID, offset, s.pageSize); err != nil {
			return nil, err
		}
		if feed.Total, err = s.posts.CountByAuthor(ctx, author.ID); err != nil {
			return nil, err
		}

	case scopeFollowed:
		authorIDs, err := s.follows.AuthorIDs(ctx, scope.userID)
		if err != nil {
			return nil, err
		}
		if feed.Items, err = s.posts.ListByAuthors(ctx, authorIDs, offset, s.pageSize); err != nil {
			return nil, err
		}
		if feed.Total, err = s.posts.CountByAuthors(ctx, authorIDs); err != nil {
			return nil, err
		}
	}
	return feed, nil
}
