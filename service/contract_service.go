package service

import (
	"context"
	"errors"

	"clauseguard-backend/models"
	"clauseguard-backend/repository"

	"github.com/google/uuid"
)

// ContractService handles business logic for contracts
type ContractService struct {
	contractRepo *repository.ContractRepository
}

// ContractServiceOption is a functional option for ContractService
type ContractServiceOption func(*ContractService)

// WithContractRepository sets the contract repository
func WithContractRepository(repo *repository.ContractRepository) ContractServiceOption {
	return func(s *ContractService) {
		s.contractRepo = repo
	}
}

// NewContractService creates a new contract service
func NewContractService(opts ...ContractServiceOption) *ContractService {
	s := &ContractService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterContractRequest represents a request to register an uploaded
// contract
type RegisterContractRequest struct {
	UserID      uuid.UUID
	Filename    string
	MimeType    string
	Size        int64
	StoragePath string
}

// RegisterContractResult represents the result of registering a contract
type RegisterContractResult struct {
	Contract *models.Contract
}

// RegisterContract records an uploaded contract document
func (s *ContractService) RegisterContract(ctx context.Context, req RegisterContractRequest) (*RegisterContractResult, error) {
	if s.contractRepo == nil {
		return nil, errors.New("contract repository not set")
	}

	contract := &models.Contract{
		UserID:      req.UserID,
		Status:      models.ContractStatusUploaded,
		Filename:    req.Filename,
		MimeType:    req.MimeType,
		Size:        req.Size,
		StoragePath: req.StoragePath,
	}

	err := s.contractRepo.Create(ctx, contract)
	if err != nil {
		return nil, err
	}

	return &RegisterContractResult{Contract: contract}, nil
}

// GetContractRequest represents a request to get a contract
type GetContractRequest struct {
	ID uuid.UUID
}

// GetContractResult represents the result of getting a contract
type GetContractResult struct {
	Contract *models.Contract
}

// GetContract retrieves a contract by ID
func (s *ContractService) GetContract(ctx context.Context, req GetContractRequest) (*GetContractResult, error) {
	if s.contractRepo == nil {
		return nil, errors.New("contract repository not set")
	}

	contract, err := s.contractRepo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, ErrContractNotFound
	}

	return &GetContractResult{Contract: contract}, nil
}

// ListContractsRequest represents a request to list contracts
type ListContractsRequest struct {
	UserID uuid.UUID
	Status *models.ContractStatus
	Limit  int
	Offset int
}

// ListContractsResult represents the result of listing contracts
type ListContractsResult struct {
	Contracts []*models.Contract
}

// ListContracts lists contracts for a user
func (s *ContractService) ListContracts(ctx context.Context, req ListContractsRequest) (*ListContractsResult, error) {
	if s.contractRepo == nil {
		return nil, errors.New("contract repository not set")
	}

	contracts, err := s.contractRepo.ListByUserID(ctx, req.UserID, req.Status, req.Limit, req.Offset)
	if err != nil {
		return nil, err
	}

	return &ListContractsResult{Contracts: contracts}, nil
}
