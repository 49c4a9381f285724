package httpdto

type SendTextRequest struct {
	FriendID string `json:"friend_id" binding:"required"`
	Text     string `json:"text" binding:"required"`
}

type MessagesPageResponse struct {
	Messages any  `json:"messages"`
	HasMore  bool `json:"has_more"`
	Page     int  `json:"page"`
	Limit    int  `json:"limit"`
}
