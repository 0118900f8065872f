package repository

import (
	"github.com/deppfellow/greedy/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Desires *DesireRepository
}

// NewRepositories constructs the repository container on top of the
// server's database pool.
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Desires: NewDesireRepository(s.DB),
	}
}
