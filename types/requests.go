package types

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,notblank"`
	Username string `json:"username" validate:"required,min=3,nospaces"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password" validate:"required,min=8"`
}

type CreatePostRequest struct {
	ImageURL string `json:"imageUrl" validate:"required,httporhttps"`
	Caption  string `json:"caption" validate:"required,notblank,max=2200"`
}

type CreateCommentRequest struct {
	Text string `json:"text" validate:"required,notblank,max=500"`
}

// UpdateProfileRequest carries only the fields being changed; nil means
// leave as-is.
type UpdateProfileRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,notblank"`
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,nospaces"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone    *string `json:"phone,omitempty"`
	Bio      *string `json:"bio,omitempty" validate:"omitempty,max=160"`
	Avatar   *string `json:"avatar,omitempty" validate:"omitempty,httporhttps"`
}
