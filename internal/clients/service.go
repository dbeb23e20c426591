package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/freelanceflow/freelanceflow/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req CreateClientRequest) (*Client, error) {
	existing, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("check existing client: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: client email already in use", shared.ErrAlreadyExists)
	}

	client := Client{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	}

	id, err := s.repo.Create(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateClientRequest) (*Client, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}

	if req.Email != nil && *req.Email != existing.Email {
		taken, err := s.repo.GetByEmail(ctx, *req.Email)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("check existing client: %w", err)
		}
		if taken != nil {
			return nil, fmt.Errorf("%w: client email already in use", shared.ErrAlreadyExists)
		}
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}

	if len(updates) == 0 {
		return existing, nil
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a client. A client referenced by invoices is archived
// instead so invoice history keeps resolving; only unreferenced clients
// are hard deleted.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return fmt.Errorf("get client: %w", err)
	}

	invoiced, err := s.repo.CountInvoices(ctx, id)
	if err != nil {
		return fmt.Errorf("count client invoices: %w", err)
	}
	if invoiced > 0 {
		if err := s.repo.Update(ctx, id, map[string]interface{}{"archived": true}); err != nil {
			return fmt.Errorf("archive client: %w", err)
		}
		return nil
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Client, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, req)
}
