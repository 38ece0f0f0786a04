package application

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
	orgErrors "github.com/quickreceipt/quickreceipt/internal/orgmanagement/errors"
)

func newCategoryFixture() (*CategoryService, *MockCategoryRepository) {
	memberships := &MockMembershipRepository{
		OrgMembers: []domain.OrgMember{
			{ID: 1, OrgID: 10, UserID: "org-admin", GlobalRole: domain.RoleAdmin},
			{ID: 2, OrgID: 10, UserID: "member-user", GlobalRole: domain.RoleMember},
		},
	}
	categories := &MockCategoryRepository{
		Categories: []domain.Category{
			{ID: 5, OrgID: 10, Name: "Travel"},
			{ID: 6, OrgID: 99, Name: "Other Org"},
		},
	}
	service := NewCategoryService(categories, memberships, NewAuthorizationService(memberships))
	return service, categories
}

func TestGetCategories_ScopedToCallerOrg(t *testing.T) {
	service, _ := newCategoryFixture()

	categories, err := service.GetCategories("member-user")
	assert.NoError(t, err)
	assert.Len(t, categories, 1)
	assert.Equal(t, "Travel", categories[0].Name)
}

func TestGetCategories_NoOrgMembership(t *testing.T) {
	service, _ := newCategoryFixture()

	_, err := service.GetCategories("stranger")
	assert.Error(t, err)
	assert.True(t, orgErrors.IsPermissionError(err))
	assert.Equal(t, "You do not belong to an organization", err.Error())
}

func TestCreateCategory_OrgAdminOnly(t *testing.T) {
	service, categories := newCategoryFixture()

	category, err := service.CreateCategory("org-admin", CategoryInput{Name: "Meals"})
	assert.NoError(t, err)
	assert.Equal(t, int64(10), category.OrgID)
	assert.Equal(t, "Meals", category.Name)
	assert.Len(t, categories.Categories, 3)

	_, err = service.CreateCategory("member-user", CategoryInput{Name: "Software"})
	assert.Error(t, err)
	assert.True(t, orgErrors.IsPermissionError(err))
	assert.Equal(t, "You must be an organization admin to create categories", err.Error())
}

func TestCreateCategory_Validation(t *testing.T) {
	service, categories := newCategoryFixture()

	_, err := service.CreateCategory("org-admin", CategoryInput{Name: ""})
	assert.Error(t, err)
	assert.True(t, orgErrors.IsValidationError(err))
	assert.Len(t, categories.Categories, 2)
}
