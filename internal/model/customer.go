// internal/model/customer.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	ID        uuid.UUID `db:"id"`
	PlanType  string    `json:"plan_type"`
	Token     string    `json:"-"`
	CreatedAt time.Time `db:"created_at"`
}
