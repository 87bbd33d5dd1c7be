package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/calendar-share/internal/persistence"
)

// PrincipalStore captures the directory operations used by DirectoryService.
type PrincipalStore interface {
	CreatePrincipal(ctx context.Context, principal persistence.Principal) (persistence.Principal, error)
	ListPrincipals(ctx context.Context, filter persistence.PrincipalFilter) ([]persistence.Principal, error)
}

// DirectoryService registers and lists principals.
type DirectoryService struct {
	principals PrincipalStore
	logger     *slog.Logger
}

// NewDirectoryService constructs a directory service.
func NewDirectoryService(principals PrincipalStore) *DirectoryService {
	return NewDirectoryServiceWithLogger(principals, nil)
}

// NewDirectoryServiceWithLogger constructs a directory service with a specified logger.
func NewDirectoryServiceWithLogger(principals PrincipalStore, logger *slog.Logger) *DirectoryService {
	return &DirectoryService{principals: principals, logger: defaultLogger(logger)}
}

// CreatePrincipal validates and stores a new principal.
func (s *DirectoryService) CreatePrincipal(ctx context.Context, params CreatePrincipalParams) (principal persistence.Principal, err error) {
	if s == nil || s.principals == nil {
		err = fmt.Errorf("DirectoryService is not configured")
		return
	}

	logger := serviceLogger(ctx, s.logger, "DirectoryService", "CreatePrincipal", "name", params.Name)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create principal", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "principal created", "principal_id", principal.ID)
	}()

	if params.Type == "" {
		params.Type = persistence.PrincipalIndividual
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(params.Name) == "" {
		vErr.add("name", "name is required")
	}
	switch params.Type {
	case persistence.PrincipalIndividual, persistence.PrincipalGroup, persistence.PrincipalResource:
	default:
		vErr.add("type", "type must be individual, group or resource")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	principal, err = s.principals.CreatePrincipal(ctx, persistence.Principal{
		Name: strings.TrimSpace(params.Name),
		Type: params.Type,
	})
	if err != nil {
		err = storageError("create principal", err)
	}
	return
}

// ListPrincipals returns every principal of the given type, or all
// principals when principalType is empty.
func (s *DirectoryService) ListPrincipals(ctx context.Context, principalType persistence.PrincipalType) ([]persistence.Principal, error) {
	if s == nil || s.principals == nil {
		return nil, fmt.Errorf("DirectoryService is not configured")
	}
	principals, err := s.principals.ListPrincipals(ctx, persistence.PrincipalFilter{Type: principalType})
	if err != nil {
		return nil, storageError("list principals", err)
	}
	return principals, nil
}
