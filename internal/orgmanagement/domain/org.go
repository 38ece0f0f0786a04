package domain

import (
	"database/sql"
	"time"
)

type Org struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OrgRepository interface {
	Create(name string) (*Org, error)
	CreateWithTransaction(name string, tx *sql.Tx) (*Org, error)
	FindByID(id int64) (*Org, error)
	BeginTransaction() (*sql.Tx, error)
}
