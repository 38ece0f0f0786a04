//go:build integration

package infrastructure

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
)

func setupPostgres(t *testing.T, ctx context.Context) (*sql.DB, func()) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connString := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())
	db, err := sql.Open("pgx", connString)
	require.NoError(t, err)
	require.NoError(t, db.Ping())

	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.Up(db, "../../../migrations"))

	cleanup := func() {
		_ = db.Close()
		_ = container.Terminate(ctx)
	}
	return db, cleanup
}

func createTestUser(t *testing.T, db *sql.DB, email string) string {
	var userID string
	err := db.QueryRow(`
		INSERT INTO users (email, name, password_hash, is_verified, hash_token)
		VALUES ($1, 'Test User', 'not-a-real-hash', TRUE, 'hash-token')
		RETURNING id`, email).Scan(&userID)
	require.NoError(t, err)
	return userID
}

func TestIntegration_OrgTeamBudgetLifecycle(t *testing.T) {
	ctx := context.Background()
	db, cleanup := setupPostgres(t, ctx)
	defer cleanup()

	orgs := NewOrgRepository(db)
	teams := NewTeamRepository(db)
	budgets := NewBudgetRepository(db)
	memberships := NewMembershipRepository(db)

	adminID := createTestUser(t, db, "admin@example.com")
	memberID := createTestUser(t, db, "member@example.com")

	org, err := orgs.Create("Acme Corp")
	require.NoError(t, err)
	require.NotZero(t, org.ID)

	require.NoError(t, memberships.SaveOrgMember(&domain.OrgMember{
		OrgID:      org.ID,
		UserID:     adminID,
		GlobalRole: domain.RoleAdmin,
	}))

	team := &domain.Team{OrgID: org.ID, Name: "Engineering", Description: "Builds things"}
	require.NoError(t, teams.Save(team))
	require.NotZero(t, team.ID)

	require.NoError(t, memberships.SaveTeamMember(&domain.TeamMember{
		TeamID:   team.ID,
		UserID:   memberID,
		TeamRole: domain.RoleMember,
	}))

	t.Run("membership predicates", func(t *testing.T) {
		isAdmin, err := memberships.HasOrgRole(org.ID, adminID, domain.RoleAdmin)
		require.NoError(t, err)
		require.True(t, isAdmin)

		isAdmin, err = memberships.HasOrgRole(org.ID, memberID, domain.RoleAdmin)
		require.NoError(t, err)
		require.False(t, isAdmin)

		onTeam, err := memberships.HasTeamMembership(team.ID, memberID)
		require.NoError(t, err)
		require.True(t, onTeam)

		first, err := memberships.FirstOrgMembershipWithRole(adminID, domain.RoleAdmin)
		require.NoError(t, err)
		require.NotNil(t, first)
		require.Equal(t, org.ID, first.OrgID)

		first, err = memberships.FirstOrgMembershipWithRole(memberID, domain.RoleAdmin)
		require.NoError(t, err)
		require.Nil(t, first)
	})

	t.Run("budget unique per team and year", func(t *testing.T) {
		budget := &domain.Budget{TeamID: team.ID, Year: 2025, TotalLimitCents: 1_200_000, Status: domain.BudgetStatusActive}
		require.NoError(t, budgets.Save(budget))
		require.NotZero(t, budget.ID)

		duplicate := &domain.Budget{TeamID: team.ID, Year: 2025, TotalLimitCents: 500_000, Status: domain.BudgetStatusActive}
		require.Error(t, budgets.Save(duplicate))

		loaded, err := budgets.FindByID(budget.ID)
		require.NoError(t, err)
		require.Equal(t, int64(1_200_000), loaded.TotalLimitCents)
	})

	t.Run("team roster join", func(t *testing.T) {
		infos, err := memberships.ListTeamMembers(team.ID)
		require.NoError(t, err)
		require.Len(t, infos, 1)
		require.Equal(t, "member@example.com", infos[0].UserEmail)
	})

	t.Run("delete team in transaction", func(t *testing.T) {
		doomed := &domain.Team{OrgID: org.ID, Name: "Doomed"}
		require.NoError(t, teams.Save(doomed))

		tx, err := teams.BeginTransaction()
		require.NoError(t, err)
		require.NoError(t, memberships.DeleteTeamMembersWithTransaction(doomed.ID, tx))
		require.NoError(t, teams.DeleteWithTransaction(doomed.ID, tx))
		require.NoError(t, tx.Commit())

		gone, err := teams.FindByID(doomed.ID)
		require.NoError(t, err)
		require.Nil(t, gone)
	})
}

func TestIntegration_TransactionQueries(t *testing.T) {
	ctx := context.Background()
	db, cleanup := setupPostgres(t, ctx)
	defer cleanup()

	orgs := NewOrgRepository(db)
	teams := NewTeamRepository(db)
	budgets := NewBudgetRepository(db)
	categories := NewCategoryRepository(db)
	transactions := NewTransactionRepository(db)

	userID := createTestUser(t, db, "spender@example.com")
	org, err := orgs.Create("Acme Corp")
	require.NoError(t, err)
	team := &domain.Team{OrgID: org.ID, Name: "Engineering"}
	require.NoError(t, teams.Save(team))
	budget := &domain.Budget{TeamID: team.ID, Year: 2025, TotalLimitCents: 1_200_000, Status: domain.BudgetStatusActive}
	require.NoError(t, budgets.Save(budget))
	category := &domain.Category{OrgID: org.ID, Name: "Travel"}
	require.NoError(t, categories.Save(category))

	save := func(txType string, cents int64, date time.Time, vendor, code string) *domain.Transaction {
		transaction := &domain.Transaction{
			OrgID:         org.ID,
			TeamID:        team.ID,
			BudgetID:      budget.ID,
			UserID:        userID,
			Type:          txType,
			AmountCents:   cents,
			Date:          date,
			Vendor:        vendor,
			CategoryID:    category.ID,
			PaymentType:   domain.PaymentTypeOrgCard,
			ReferenceCode: code,
		}
		require.NoError(t, transactions.Save(transaction))
		return transaction
	}

	june := save(domain.TransactionTypeExpense, 60_000, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), "Acme Travel", "TXN-AAA0001")
	save(domain.TransactionTypeIncome, 10_000, time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC), "Refund Desk", "TXN-AAA0002")
	save(domain.TransactionTypeExpense, 30_000, time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC), "May Vendor", "TXN-AAA0003")

	t.Run("date range is inclusive", func(t *testing.T) {
		start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
		rows, err := transactions.FindByBudgetInDateRange(budget.ID, start, end)
		require.NoError(t, err)
		require.Len(t, rows, 2)
	})

	t.Run("year scan", func(t *testing.T) {
		rows, err := transactions.FindByBudgetInYear(budget.ID, 2025)
		require.NoError(t, err)
		require.Len(t, rows, 3)
	})

	t.Run("filters", func(t *testing.T) {
		rows, err := transactions.FindByBudget(budget.ID, domain.TransactionFilters{Type: domain.TransactionTypeIncome})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		require.Equal(t, "Refund Desk", rows[0].Vendor)

		rows, err = transactions.FindByBudget(budget.ID, domain.TransactionFilters{Vendor: "Acme"})
		require.NoError(t, err)
		require.Len(t, rows, 1)
	})

	t.Run("reference code uniqueness", func(t *testing.T) {
		exists, err := transactions.ReferenceCodeExists("TXN-AAA0001")
		require.NoError(t, err)
		require.True(t, exists)

		exists, err = transactions.ReferenceCodeExists("TXN-ZZZ9999")
		require.NoError(t, err)
		require.False(t, exists)
	})

	t.Run("update and delete", func(t *testing.T) {
		june.AmountCents = 65_000
		require.NoError(t, transactions.Update(june))
		loaded, err := transactions.FindByID(june.ID)
		require.NoError(t, err)
		require.Equal(t, int64(65_000), loaded.AmountCents)

		require.NoError(t, transactions.Delete(june.ID))
		loaded, err = transactions.FindByID(june.ID)
		require.NoError(t, err)
		require.Nil(t, loaded)
	})
}

func TestIntegration_InvitationRedemption(t *testing.T) {
	ctx := context.Background()
	db, cleanup := setupPostgres(t, ctx)
	defer cleanup()

	orgs := NewOrgRepository(db)
	teams := NewTeamRepository(db)
	invitations := NewInvitationRepository(db)

	inviterID := createTestUser(t, db, "inviter@example.com")
	org, err := orgs.Create("Acme Corp")
	require.NoError(t, err)
	team := &domain.Team{OrgID: org.ID, Name: "Engineering"}
	require.NoError(t, teams.Save(team))

	invitation := &domain.Invitation{
		Email:     "lead@example.com",
		Name:      "Lena Lead",
		TeamID:    team.ID,
		InvitedBy: inviterID,
		Role:      domain.RoleAdmin,
		Token:     "integration-test-token",
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
	require.NoError(t, invitations.Save(invitation))

	pending, err := invitations.FindPendingByToken("integration-test-token")
	require.NoError(t, err)
	require.NotNil(t, pending)
	require.Equal(t, "lead@example.com", pending.Email)

	tx, err := invitations.BeginTransaction()
	require.NoError(t, err)
	require.NoError(t, invitations.MarkAcceptedWithTransaction(pending.ID, time.Now(), tx))
	require.NoError(t, tx.Commit())

	gone, err := invitations.FindPendingByToken("integration-test-token")
	require.NoError(t, err)
	require.Nil(t, gone)

	t.Run("expired sweep", func(t *testing.T) {
		stale := &domain.Invitation{
			Email:     "stale@example.com",
			Name:      "Stale",
			TeamID:    team.ID,
			InvitedBy: inviterID,
			Role:      domain.RoleMember,
			Token:     "stale-token",
			ExpiresAt: time.Now().Add(-time.Hour),
		}
		require.NoError(t, invitations.Save(stale))

		deleted, err := invitations.DeleteExpired(time.Now())
		require.NoError(t, err)
		require.Equal(t, int64(1), deleted)
	})
}
