package constants

import "fmt"

// PaginationLimit is the page size requested for every paginated list.
const PaginationLimit = 20

// Storage key prefixes for the client-persisted key-value store.
const (
	AuthTokenKey          = "auth_token"
	SavedPostIDsKeyPrefix = "saved_post_ids"
	TempCommentIDPrefix   = "temp-comment-"
)

// API endpoint paths.
const (
	EndpointLogin    = "/api/auth/login"
	EndpointRegister = "/api/auth/register"

	EndpointMeProfile   = "/api/me"
	EndpointMePosts     = "/api/me/posts"
	EndpointMeLikes     = "/api/me/likes"
	EndpointMeSaved     = "/api/me/saved"
	EndpointMeFollowers = "/api/me/followers"
	EndpointMeFollowing = "/api/me/following"

	EndpointFeed        = "/api/feed"
	EndpointPosts       = "/api/posts"
	EndpointUsersSearch = "/api/users/search"
)

func EndpointPostDetail(id string) string   { return fmt.Sprintf("/api/posts/%s", id) }
func EndpointPostLike(id string) string     { return fmt.Sprintf("/api/posts/%s/like", id) }
func EndpointPostLikes(id string) string    { return fmt.Sprintf("/api/posts/%s/likes", id) }
func EndpointPostSave(id string) string     { return fmt.Sprintf("/api/posts/%s/save", id) }
func EndpointPostComments(id string) string { return fmt.Sprintf("/api/posts/%s/comments", id) }
func EndpointComment(id string) string      { return fmt.Sprintf("/api/comments/%s", id) }

func EndpointFollowToggle(username string) string { return fmt.Sprintf("/api/follow/%s", username) }

func EndpointUserProfile(username string) string { return fmt.Sprintf("/api/users/%s", username) }
func EndpointUserPosts(username string) string   { return fmt.Sprintf("/api/users/%s/posts", username) }
func EndpointUserLikes(username string) string   { return fmt.Sprintf("/api/users/%s/likes", username) }

func EndpointUserFollowers(username string) string {
	return fmt.Sprintf("/api/users/%s/followers", username)
}

func EndpointUserFollowing(username string) string {
	return fmt.Sprintf("/api/users/%s/following", username)
}
