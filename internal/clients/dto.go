package clients

// CreateClientRequest carries the POST /clients payload.
type CreateClientRequest struct {
	Name    string  `json:"name" validate:"required,min=1,max=200"`
	Email   string  `json:"email" validate:"required,email"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

// UpdateClientRequest carries the PUT /clients/{id} payload. Nil fields
// are left untouched.
type UpdateClientRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

// ListClientsRequest filters the client listing.
type ListClientsRequest struct {
	Search          *string
	IncludeArchived bool
	Limit           int
	Offset          int
}
