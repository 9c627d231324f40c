package session

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionResponse is the resolved identity handed to the client after any
// login, registration, or session read. Bootstrap means the workspace has
// no membership rows yet.
type sessionResponse struct {
	UserID      string `json:"userId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Avatar      string `json:"avatar,omitempty"`
	WorkspaceID string `json:"workspaceId"`
	Role        string `json:"role"`
	Bootstrap   bool   `json:"bootstrap"`
}
