package backend

// Wire types for the farewell backend. Field names follow the backend's
// snake_case JSON convention.

type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Nickname    string `json:"nickname,omitempty"`
	Email       string `json:"email,omitempty"`
	IsAdmin     bool   `json:"is_admin"`
	IsSemiAdmin bool   `json:"is_semi_admin"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type RegisterUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

type SendMessageRequest struct {
	RecipientTo string `json:"recipient_to"`
	IsPrivate   bool   `json:"is_private"`
	Message     string `json:"message"`
}

type Message struct {
	ID          string  `json:"id"`
	Message     string  `json:"message"`
	IsPrivate   bool    `json:"is_private"`
	Sender      Sender  `json:"sender"`
	Recipient   Contact `json:"recipient"`
	CreatedAt   string  `json:"created_at"`
	IsFavorited bool    `json:"is_favorited,omitempty"`
}

type Sender struct {
	Nickname string `json:"nickname"`
}

type Contact struct {
	Name string `json:"name"`
}

type MessageStats struct {
	TotalPrivate int `json:"total_private"`
	TotalPublic  int `json:"total_public"`
}

type LeaderboardEntry struct {
	Name          string `json:"name"`
	TotalMessages int    `json:"total_messages"`
}

type FavoriteResult struct {
	IsFavorited bool `json:"is_favorited"`
}
