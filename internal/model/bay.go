package model

// Bay is a physical service location. A bay hosts at most one appointment at
// any instant.
type Bay struct {
	Base
	Name string `db:"name" json:"name"`
}

type CreateBayRequest struct {
	Name string `json:"name" binding:"required"`
}
