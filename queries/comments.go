package queries

import (
	"context"
	"strings"
	"time"

	"vistagram/cache"
	"vistagram/constants"
	"vistagram/normalize"
	"vistagram/query"
	"vistagram/types"

	"github.com/google/uuid"
)

// Comments is the comment list for a post, newest first.
func (c *Client) Comments(postID string) *query.Infinite[types.Comment] {
	return query.NewInfinite(c.store, cache.PostComments(postID), commentID,
		func(ctx context.Context, page int) (types.Page[types.Comment], error) {
			return c.fetchCommentPage(ctx, postID, page)
		})
}

func (c *Client) fetchCommentPage(ctx context.Context, postID string, page int) (types.Page[types.Comment], error) {
	userID := c.session.UserID()

	var data map[string]any
	if err := c.api.Get(ctx, constants.EndpointPostComments(postID), pageParams(page), &data); err != nil {
		return types.Page[types.Comment]{}, err
	}

	items, pagRaw := normalize.PaginatedList(data)

	comments := make([]types.Comment, 0, len(items))
	for _, raw := range items {
		comment, err := normalize.Comment(raw, userID)
		if err != nil {
			return types.Page[types.Comment]{}, err
		}
		comments = append(comments, comment)
	}

	return types.Page[types.Comment]{
		Items:      comments,
		Pagination: normalize.Pagination(pagRaw, page, constants.PaginationLimit),
	}, nil
}

func bumpCommentCount(delta int) func(types.Post) types.Post {
	return func(p types.Post) types.Post {
		p.CommentCount = max(0, p.CommentCount+delta)
		return p
	}
}

type commentCreateVars struct {
	req    types.CreateCommentRequest
	text   string
	tempID string
}

// CommentCreate posts a comment optimistically: a placeholder with a
// session-unique temporary id is prepended to the first page and the
// comment counts bumped; the server-confirmed entity then replaces the
// placeholder in place.
type CommentCreate struct {
	m *query.Mutation[*commentCreateVars, types.Comment]
}

func (c *Client) CommentCreate(postID string) *CommentCreate {
	commentsKey := cache.PostComments(postID)

	return &CommentCreate{m: &query.Mutation[*commentCreateVars, types.Comment]{
		Store:  c.store,
		Log:    c.log,
		Notify: c.notify,
		Keys: func(*commentCreateVars) []cache.Key {
			return []cache.Key{commentsKey, cache.PostDetail(postID), cache.Feed()}
		},
		Apply: func(_ context.Context, v *commentCreateVars) {
			v.text = strings.TrimSpace(v.req.Text)
			v.tempID = constants.TempCommentIDPrefix + uuid.NewString()

			optimistic := types.Comment{
				ID:        v.tempID,
				Text:      v.text,
				Author:    c.optimisticAuthor(),
				CreatedAt: time.Now().UTC().Format(time.RFC3339),
				IsMine:    true,
			}

			c.store.Update(commentsKey, func(cur any, exists bool) (any, bool) {
				paged, _ := cur.(types.Paged[types.Comment])
				if !exists || len(paged.Pages) == 0 {
					return types.Paged[types.Comment]{Pages: []types.Page[types.Comment]{{
						Items: []types.Comment{optimistic},
						Pagination: types.Pagination{
							Page:       1,
							Limit:      constants.PaginationLimit,
							Total:      1,
							TotalPages: 1,
						},
					}}}, true
				}

				first := paged.Pages[0]
				items := make([]types.Comment, 0, len(first.Items)+1)
				items = append(items, optimistic)
				items = append(items, first.Items...)

				pagination := first.Pagination
				pagination.Total++

				pages := make([]types.Page[types.Comment], len(paged.Pages))
				copy(pages, paged.Pages)
				pages[0] = types.Page[types.Comment]{Items: items, Pagination: pagination}

				return types.Paged[types.Comment]{Pages: pages}, true
			})

			c.patchPost(postID, bumpCommentCount(1))
		},
		Run: func(ctx context.Context, v *commentCreateVars) (types.Comment, error) {
			if err := c.validate.Struct(v.req); err != nil {
				return types.Comment{}, err
			}

			var data map[string]any
			payload := types.CreateCommentRequest{Text: v.text}
			if err := c.api.Post(ctx, constants.EndpointPostComments(postID), payload, &data); err != nil {
				return types.Comment{}, err
			}

			return normalize.Comment(data, c.session.UserID())
		},
		Confirm: func(v *commentCreateVars, created types.Comment) {
			// Swap the placeholder for the server entity, same position.
			cache.Patch[types.Paged[types.Comment]](c.store, commentsKey,
				func(paged types.Paged[types.Comment]) types.Paged[types.Comment] {
					return patchPages(paged, func(item types.Comment) types.Comment {
						if item.ID == v.tempID {
							return created
						}
						return item
					})
				})
		},
		Reconcile: func(_ context.Context, _ *commentCreateVars) {
			c.store.Invalidate(commentsKey)
			c.store.Invalidate(cache.PostDetail(postID))
			c.store.Invalidate(cache.Feed())

			c.background("comments", func(ctx context.Context) error {
				_, err := c.Comments(postID).Get(ctx)
				return err
			})
			c.background("post-detail", func(ctx context.Context) error {
				_, err := c.Post(postID).Refresh(ctx)
				return err
			})
		},
	}}
}

func (cc *CommentCreate) Invoke(ctx context.Context, req types.CreateCommentRequest) (types.Comment, error) {
	return cc.m.Invoke(ctx, &commentCreateVars{req: req})
}

func (cc *CommentCreate) State() query.State { return cc.m.State() }

// optimisticAuthor builds the placeholder author from the cached
// profile, degrading to the bare session id when the profile has not
// been fetched yet.
func (c *Client) optimisticAuthor() types.UserRef {
	author := types.UserRef{
		ID:       c.session.UserID(),
		Username: "you",
		Name:     "You",
	}

	if profile, ok := cache.Value[types.Profile](c.store, cache.MeProfile()); ok {
		if author.ID == "" {
			author.ID = profile.ID
		}
		author.Username = profile.Username
		author.Name = profile.Name
		author.AvatarURL = profile.AvatarURL
	}

	if author.ID == "" {
		author.ID = "me"
	}

	return author
}

type commentDeleteVars struct {
	commentID string
	removed   int
}

// CommentDelete removes a comment from every held page and decrements
// the comment counts by exactly the number of entries removed; deleting
// an id that is not cached decrements nothing.
type CommentDelete struct {
	m *query.Mutation[*commentDeleteVars, struct{}]
}

func (c *Client) CommentDelete(postID string) *CommentDelete {
	commentsKey := cache.PostComments(postID)

	return &CommentDelete{m: &query.Mutation[*commentDeleteVars, struct{}]{
		Store:  c.store,
		Log:    c.log,
		Notify: c.notify,
		Keys: func(*commentDeleteVars) []cache.Key {
			return []cache.Key{commentsKey, cache.PostDetail(postID), cache.Feed()}
		},
		Apply: func(_ context.Context, v *commentDeleteVars) {
			c.store.Update(commentsKey, func(cur any, exists bool) (any, bool) {
				paged, ok := cur.(types.Paged[types.Comment])
				if !exists || !ok {
					return nil, false
				}

				pages := make([]types.Page[types.Comment], len(paged.Pages))
				for i, page := range paged.Pages {
					kept := make([]types.Comment, 0, len(page.Items))
					for _, item := range page.Items {
						if item.ID == v.commentID {
							v.removed++
							continue
						}
						kept = append(kept, item)
					}

					pagination := page.Pagination
					if len(kept) != len(page.Items) {
						pagination.Total = max(0, pagination.Total-1)
					}
					pages[i] = types.Page[types.Comment]{Items: kept, Pagination: pagination}
				}

				return types.Paged[types.Comment]{Pages: pages}, true
			})

			if v.removed > 0 {
				c.patchPost(postID, bumpCommentCount(-v.removed))
			}
		},
		Run: func(ctx context.Context, v *commentDeleteVars) (struct{}, error) {
			return struct{}{}, c.api.Delete(ctx, constants.EndpointComment(v.commentID), nil)
		},
		Reconcile: func(_ context.Context, _ *commentDeleteVars) {
			c.store.Invalidate(commentsKey)
			c.store.Invalidate(cache.PostDetail(postID))
			c.store.Invalidate(cache.Feed())

			c.background("comments", func(ctx context.Context) error {
				_, err := c.Comments(postID).Get(ctx)
				return err
			})
		},
	}}
}

func (cd *CommentDelete) Invoke(ctx context.Context, commentID string) error {
	_, err := cd.m.Invoke(ctx, &commentDeleteVars{commentID: commentID})
	return err
}

func (cd *CommentDelete) State() query.State { return cd.m.State() }
