package turso

import (
	"github.com/emiliopalmerini/abeval/internal/infrastructure/database"
	"github.com/emiliopalmerini/abeval/internal/ports"
)

// Repositories holds the libsql implementations of the storage ports.
type Repositories struct {
	Assignments ports.AssignmentStore
	Outcomes    ports.OutcomeStore
}

func NewRepositories(client *database.Client) *Repositories {
	return &Repositories{
		Assignments: NewAssignmentRepository(client),
		Outcomes:    NewOutcomeRepository(client),
	}
}
