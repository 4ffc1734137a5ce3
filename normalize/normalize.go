// Package normalize coerces the API's loosely shaped payloads into
// canonical entities: string ids, zero-defaulted counters,
// false-defaulted flags. The backend is inconsistent across endpoints
// (numeric ids here, string ids there, fields nested or flat), so every
// payload goes through these functions before it touches the cache.
package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"vistagram/types"
)

// MalformedPayloadError is a payload missing its required shape, e.g.
// an entity without an id. Not retried; surfaced as a load error.
type MalformedPayloadError struct {
	Entity string
	Reason string
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed %s payload: %s", e.Entity, e.Reason)
}

func str(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		// Ids sometimes arrive as JSON numbers.
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return ""
	}
}

func number(v any) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case int:
		return val
	case int64:
		return int(val)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return n
		}
	}
	return 0
}

func boolean(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asSlice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}

// Pagination fills missing metadata with page, the default limit and
// zero totals, so an empty or partial block never breaks paging.
func Pagination(raw any, page, limit int) types.Pagination {
	m := asMap(raw)

	out := types.Pagination{Page: page, Limit: limit}
	if v, ok := m["page"]; ok {
		out.Page = number(v)
	}
	if v, ok := m["limit"]; ok {
		out.Limit = number(v)
	}
	out.Total = number(m["total"])
	out.TotalPages = number(m["totalPages"])

	return out
}

// PaginatedList splits a paginated payload into its item maps and the
// raw pagination block. The items array rides under a different key per
// endpoint (posts, comments, users, items); known keys are tried first,
// then any remaining array value.
func PaginatedList(data map[string]any) ([]map[string]any, any) {
	pagination := data["pagination"]

	for _, key := range []string{"items", "posts", "comments", "users"} {
		if arr, ok := asSlice(data[key]); ok {
			return mapItems(arr), pagination
		}
	}

	for key, v := range data {
		if key == "pagination" {
			continue
		}
		if arr, ok := asSlice(v); ok {
			return mapItems(arr), pagination
		}
	}

	return nil, pagination
}

func mapItems(arr []any) []map[string]any {
	out := make([]map[string]any, 0, len(arr))
	for _, v := range arr {
		if m := asMap(v); m != nil {
			out = append(out, m)
		}
	}
	return out
}

// UserRef never fails: a missing author block degrades to an unknown
// user, matching how sparse endpoints (e.g. /api/me/saved) behave.
func UserRef(raw any) types.UserRef {
	m := asMap(raw)
	if m == nil {
		return types.UserRef{ID: "unknown", Username: "unknown", Name: "Unknown"}
	}

	return types.UserRef{
		ID:        str(m["id"]),
		Username:  str(m["username"]),
		Name:      str(m["name"]),
		AvatarURL: str(m["avatarUrl"]),
	}
}

// PostEnvelope unwraps detail payloads that nest the post under a
// "post" key; most endpoints ship the post flat.
func PostEnvelope(data map[string]any) map[string]any {
	if inner := asMap(data["post"]); inner != nil {
		return inner
	}
	return data
}

// PostContext carries the local state the savedByMe fallback chain
// reads when the server omits the field: the previously cached post for
// the same id, then the persisted saved-ids set for the current user.
type PostContext struct {
	Prior    *types.Post
	SavedIDs map[string]struct{}
}

func Post(raw map[string]any, pctx PostContext) (types.Post, error) {
	id := str(raw["id"])
	if id == "" {
		return types.Post{}, &MalformedPayloadError{Entity: "post", Reason: "missing id"}
	}

	commentCount := max(0, number(raw["commentCount"]))

	post := types.Post{
		ID:           id,
		ImageURL:     str(raw["imageUrl"]),
		Caption:      str(raw["caption"]),
		Author:       UserRef(raw["author"]),
		LikeCount:    max(0, number(raw["likeCount"])),
		CommentCount: commentCount,
		ShareCount:   commentCount,
		LikedByMe:    boolean(raw["likedByMe"]),
		CreatedAt:    str(raw["createdAt"]),
	}

	if _, ok := raw["shareCount"]; ok {
		post.ShareCount = max(0, number(raw["shareCount"]))
	}

	// savedByMe fallback chain: server value, then the previously cached
	// value for the same post, then the persisted saved-ids set.
	switch {
	case raw["savedByMe"] != nil:
		saved := boolean(raw["savedByMe"])
		post.SavedByMe = &saved
	case pctx.Prior != nil && pctx.Prior.SavedByMe != nil:
		saved := *pctx.Prior.SavedByMe
		post.SavedByMe = &saved
	case pctx.SavedIDs != nil:
		_, saved := pctx.SavedIDs[id]
		post.SavedByMe = &saved
	}

	return post, nil
}

func Comment(raw map[string]any, currentUserID string) (types.Comment, error) {
	id := str(raw["id"])
	if id == "" {
		return types.Comment{}, &MalformedPayloadError{Entity: "comment", Reason: "missing id"}
	}

	author := UserRef(raw["author"])

	comment := types.Comment{
		ID:        id,
		Text:      str(raw["text"]),
		Author:    author,
		CreatedAt: str(raw["createdAt"]),
	}

	if v, ok := raw["isMine"].(bool); ok {
		comment.IsMine = v
	} else {
		comment.IsMine = currentUserID != "" && author.ID == currentUserID
	}

	return comment, nil
}

func ListUser(raw map[string]any) (types.ListUser, error) {
	id := str(raw["id"])
	if id == "" {
		return types.ListUser{}, &MalformedPayloadError{Entity: "user", Reason: "missing id"}
	}

	return types.ListUser{
		ID:             id,
		Username:       str(raw["username"]),
		Name:           str(raw["name"]),
		AvatarURL:      str(raw["avatarUrl"]),
		IsFollowedByMe: boolean(raw["isFollowedByMe"]),
	}, nil
}

func LikeUser(raw map[string]any) (types.LikeUser, error) {
	base, err := ListUser(raw)
	if err != nil {
		return types.LikeUser{}, err
	}

	return types.LikeUser{
		ListUser:  base,
		IsMe:      boolean(raw["isMe"]),
		FollowsMe: boolean(raw["followsMe"]),
	}, nil
}

// Profile handles every envelope variant the backend ships: a profile
// block with a separate stats block, a profile or user wrapper, a data
// wrapper, or the profile fields flat at the top level. The priority
// order is deliberate and mirrors real backend behavior; do not
// reorder.
func Profile(payload any) (types.Profile, error) {
	m := asMap(payload)
	if m == nil {
		return types.Profile{}, &MalformedPayloadError{Entity: "profile", Reason: "not an object"}
	}

	if profileRaw := asMap(m["profile"]); profileRaw != nil {
		if stats := asMap(m["stats"]); stats != nil {
			profile, err := profileFields(profileRaw)
			if err != nil {
				return types.Profile{}, err
			}
			profile.Counts = types.ProfileCounts{
				Post:      max(0, number(stats["posts"])),
				Followers: max(0, number(stats["followers"])),
				Following: max(0, number(stats["following"])),
				Likes:     max(0, number(stats["likes"])),
			}
			return profile, nil
		}
		return profileFields(profileRaw)
	}

	if userRaw := asMap(m["user"]); userRaw != nil {
		return profileFields(userRaw)
	}

	if dataRaw := asMap(m["data"]); dataRaw != nil {
		return profileFields(dataRaw)
	}

	return profileFields(m)
}

func profileFields(raw map[string]any) (types.Profile, error) {
	id := str(raw["id"])
	if id == "" {
		return types.Profile{}, &MalformedPayloadError{Entity: "profile", Reason: "missing id"}
	}

	counts := asMap(raw["counts"])

	return types.Profile{
		ID:        id,
		Username:  str(raw["username"]),
		Name:      str(raw["name"]),
		Bio:       str(raw["bio"]),
		AvatarURL: str(raw["avatarUrl"]),
		Email:     str(raw["email"]),
		Phone:     str(raw["phone"]),
		Counts: types.ProfileCounts{
			Post:      max(0, number(counts["post"])),
			Followers: max(0, number(counts["followers"])),
			Following: max(0, number(counts["following"])),
			Likes:     max(0, number(counts["likes"])),
		},
		IsFollowing: boolean(raw["isFollowing"]),
		IsMe:        boolean(raw["isMe"]),
	}, nil
}
