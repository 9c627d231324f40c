package members

// memberView is the JSON shape for one membership row.
type memberView struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Phone       string `json:"phone,omitempty"`
	Role        string `json:"role"`
	DisplayRole string `json:"displayRole,omitempty"`
	Status      string `json:"status"`
	JoinedAt    string `json:"joinedAt,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	Pending     bool   `json:"pending"`
}

type listResponse struct {
	Members []memberView `json:"members"`
}

type updateRequest struct {
	Name        *string `json:"name"`
	Phone       *string `json:"phone"`
	Role        *string `json:"role"`
	DisplayRole *string `json:"displayRole"`
	Status      *string `json:"status"`
}
