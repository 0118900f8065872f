package service

import (
	"github.com/deppfellow/greedy/internal/repository"
	"github.com/deppfellow/greedy/internal/server"
)

type Services struct {
	Desires *DesireService
}

func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	return &Services{
		Desires: NewDesireService(repos.Desires),
	}, nil
}
