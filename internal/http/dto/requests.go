package dto

// UpdateFormRequest edits the transfer form. Absent fields are left unchanged.
type UpdateFormRequest struct {
	Recipient *string `json:"recipient,omitempty"`
	Amount    *string `json:"amount,omitempty"`
}
