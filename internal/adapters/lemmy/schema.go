package lemmy

// Wire shapes for the platform's v3 API, reduced to the fields this tool
// consumes.

type loginRequest struct {
	UsernameOrEmail string `json:"username_or_email"`
	Password        string `json:"password"`
}

type loginResponse struct {
	JWT string `json:"jwt"`
}

type communityView struct {
	Community struct {
		ID      int64  `json:"id"`
		ActorID string `json:"actor_id"`
	} `json:"community"`
}

type communityListResponse struct {
	Communities []communityView `json:"communities"`
}

type resolveObjectResponse struct {
	Community *communityView `json:"community"`
}

type followRequest struct {
	CommunityID int64  `json:"community_id"`
	Follow      bool   `json:"follow"`
	Auth        string `json:"auth"`
}

type commentView struct {
	Comment struct {
		ID        int64  `json:"id"`
		Content   string `json:"content"`
		Published string `json:"published"`
	} `json:"comment"`
	Creator struct {
		Name string `json:"name"`
	} `json:"creator"`
}

type commentListResponse struct {
	Comments []commentView `json:"comments"`
}
