package types

// UserRef is the embedded author shape carried by posts and comments.
type UserRef struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type Post struct {
	ID           string  `json:"id"`
	ImageURL     string  `json:"imageUrl"`
	Caption      string  `json:"caption"`
	Author       UserRef `json:"author"`
	LikeCount    int     `json:"likeCount"`
	CommentCount int     `json:"commentCount"`
	ShareCount   int     `json:"shareCount"`
	LikedByMe    bool    `json:"likedByMe"`
	// SavedByMe is a pointer because some endpoints omit it entirely;
	// the normalizer backfills it, see normalize.Post.
	SavedByMe *bool  `json:"savedByMe,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// Saved reports the backfilled saved state, false when still unknown.
func (p Post) Saved() bool {
	return p.SavedByMe != nil && *p.SavedByMe
}

func (p Post) EntityID() string { return p.ID }

type Comment struct {
	ID        string  `json:"id"`
	Text      string  `json:"text"`
	Author    UserRef `json:"author"`
	CreatedAt string  `json:"createdAt"`
	IsMine    bool    `json:"isMine"`
}

func (c Comment) EntityID() string { return c.ID }

// ListUser is a row in a user list (search results, followers, following).
type ListUser struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Name           string `json:"name"`
	AvatarURL      string `json:"avatarUrl,omitempty"`
	IsFollowedByMe bool   `json:"isFollowedByMe"`
}

func (u ListUser) EntityID() string { return u.ID }

// LikeUser is a row in a post's likers list.
type LikeUser struct {
	ListUser
	IsMe      bool `json:"isMe"`
	FollowsMe bool `json:"followsMe"`
}

type ProfileCounts struct {
	Post      int `json:"post"`
	Followers int `json:"followers"`
	Following int `json:"following"`
	Likes     int `json:"likes"`
}

type Profile struct {
	ID          string        `json:"id"`
	Username    string        `json:"username"`
	Name        string        `json:"name"`
	Bio         string        `json:"bio,omitempty"`
	AvatarURL   string        `json:"avatarUrl,omitempty"`
	Email       string        `json:"email,omitempty"`
	Phone       string        `json:"phone,omitempty"`
	Counts      ProfileCounts `json:"counts"`
	IsFollowing bool          `json:"isFollowing"`
	IsMe        bool          `json:"isMe"`
}

type AuthUser struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type AuthResponse struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}
