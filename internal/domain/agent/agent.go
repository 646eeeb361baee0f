package agent

import (
	"fmt"
	"math/rand/v2"
	"time"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusOnLeave  Status = "on_leave"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusOnLeave || s == StatusInactive
}

// Agent is keyed internally by ID. AgentID is the unique field code every
// other record refers to.
type Agent struct {
	ID        string
	AgentID   string
	Name      string
	Phone     string
	Email     string
	Status    Status
	CreatedAt time.Time
}

type CreateParams struct {
	Name    string
	AgentID string
	Phone   string
	Email   string
	Status  Status
}

const codeAttempts = 5

// CodeGenerator yields candidate agent codes.
type CodeGenerator func() string

// RandomCode returns AG followed by six digits, never starting with zero.
func RandomCode() string {
	return fmt.Sprintf("AG%06d", 100000+rand.IntN(900000))
}
