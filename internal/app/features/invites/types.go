package invites

type issueRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type issueResponse struct {
	MemberID  string `json:"memberId"`
	Token     string `json:"token"`
	Link      string `json:"link"`
	EmailSent bool   `json:"emailSent"`
}

type acceptRequest struct {
	Password string `json:"password"`
}

type joinRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// redeemResponse is the session the redeemer ends up signed in as.
type redeemResponse struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	WorkspaceID string `json:"workspaceId"`
	Role        string `json:"role"`
	MemberID    string `json:"memberId"`
}
