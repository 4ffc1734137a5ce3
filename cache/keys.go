package cache

import (
	"strings"

	"golang.org/x/exp/slices"
)

// Key addresses one cache entry. Keys are structured rather than plain
// strings so scoped invalidation ("everything under this post") can't
// be broken by a typo'd prefix.
type Key struct {
	parts []string
}

func newKey(parts ...string) Key {
	return Key{parts: parts}
}

func (k Key) String() string {
	return strings.Join(k.parts, "/")
}

// HasPrefix reports whether k lives under prefix. A key is its own
// prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix.parts) > len(k.parts) {
		return false
	}
	return slices.Equal(k.parts[:len(prefix.parts)], prefix.parts)
}

// All is the empty prefix: it matches every key.
func All() Key { return Key{} }

func Feed() Key        { return newKey("feed") }
func PublicPosts() Key { return newKey("public-posts") }

func Posts() Key                 { return newKey("posts") }
func PostDetail(id string) Key   { return newKey("posts", id) }
func PostComments(id string) Key { return newKey("posts", id, "comments") }
func PostLikes(id string) Key    { return newKey("posts", id, "likes") }

func Me() Key          { return newKey("me") }
func MeProfile() Key   { return newKey("me", "profile") }
func MePosts() Key     { return newKey("me", "posts") }
func MeLikes() Key     { return newKey("me", "likes") }
func MeSaved() Key     { return newKey("me", "saved") }
func MeFollowers() Key { return newKey("me", "followers") }
func MeFollowing() Key { return newKey("me", "following") }

func Users() Key                        { return newKey("users") }
func UserProfile(username string) Key   { return newKey("users", username) }
func UserPosts(username string) Key     { return newKey("users", username, "posts") }
func UserLikes(username string) Key     { return newKey("users", username, "likes") }
func UserFollowers(username string) Key { return newKey("users", username, "followers") }
func UserFollowing(username string) Key { return newKey("users", username, "following") }
func UserSearch(query string) Key       { return newKey("users", "search", query) }
