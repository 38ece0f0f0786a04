package application

import (
	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
	orgErrors "github.com/quickreceipt/quickreceipt/internal/orgmanagement/errors"
)

type CategoryInput struct {
	Name string `json:"name"`
}

// CategoryService manages the org-wide category list transactions are
// tagged with.
type CategoryService struct {
	repo        domain.CategoryRepository
	memberships domain.MembershipRepository
	authService AuthorizationServiceInterface
}

func NewCategoryService(repo domain.CategoryRepository, memberships domain.MembershipRepository, authService AuthorizationServiceInterface) *CategoryService {
	return &CategoryService{repo: repo, memberships: memberships, authService: authService}
}

// GetCategories lists the categories of the caller's organization. Any
// organization member may read the list.
func (s *CategoryService) GetCategories(userID string) ([]domain.Category, error) {
	membership, err := s.memberships.FirstOrgMembership(userID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return nil, orgErrors.NewPermissionError("You do not belong to an organization")
	}
	return s.repo.FindByOrg(membership.OrgID)
}

// CreateCategory adds a category to the caller's organization. Only
// organization admins may create categories.
func (s *CategoryService) CreateCategory(userID string, input CategoryInput) (*domain.Category, error) {
	membership, err := s.memberships.FirstOrgMembership(userID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return nil, orgErrors.NewPermissionError("You do not belong to an organization")
	}
	admin, err := s.authService.IsOrgAdmin(userID, membership.OrgID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, orgErrors.NewPermissionError("You must be an organization admin to create categories")
	}

	category := &domain.Category{
		OrgID: membership.OrgID,
		Name:  input.Name,
	}
	if err := category.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(category); err != nil {
		return nil, err
	}
	return category, nil
}
