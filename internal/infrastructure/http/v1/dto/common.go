// Package dto defines the request and response shapes of the v1 API.
package dto

// IDResponse returns the identifier of a created resource.
type IDResponse struct {
	ID string `json:"id"`
}

// SuccessResponse is a generic acknowledgement.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ListQuery carries common listing parameters.
type ListQuery struct {
	Text           string `form:"text"`
	IncludeDeleted bool   `form:"includeDeleted"`
	Limit          int    `form:"limit"`
	Offset         int    `form:"offset"`
}
