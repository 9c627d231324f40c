package workspaces

// workspaceEntry is one row in the membership list.
type workspaceEntry struct {
	WorkspaceID string `json:"workspaceId"`
	Role        string `json:"role"`
	DisplayRole string `json:"displayRole,omitempty"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar,omitempty"`
	JoinedAt    string `json:"joinedAt,omitempty"`
	Active      bool   `json:"active"`
}

type listResponse struct {
	Workspaces []workspaceEntry `json:"workspaces"`
}

type switchRequest struct {
	WorkspaceID string `json:"workspaceId"`
}

type switchResponse struct {
	WorkspaceID string `json:"workspaceId"`
	Role        string `json:"role"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar,omitempty"`
}

type nameResponse struct {
	WorkspaceID string `json:"workspaceId"`
	Name        string `json:"name"`
}

type setNameRequest struct {
	Name string `json:"name"`
}

type settingsRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Bio    string `json:"bio"`
}

type settingsResponse struct {
	WorkspaceID string `json:"workspaceId"`
	MemberID    string `json:"memberId"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar,omitempty"`
}
