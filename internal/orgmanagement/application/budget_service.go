package application

import (
	"fmt"
	"math"
	"time"

	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
	orgErrors "github.com/quickreceipt/quickreceipt/internal/orgmanagement/errors"
)

const (
	PeriodMonth   = "month"
	PeriodQuarter = "quarter"
	PeriodYear    = "year"
)

const (
	SpendingStatusUnder   = "Under Budget"
	SpendingStatusOnTrack = "On Track"
	SpendingStatusOver    = "Over Budget"

	TrackStatusOnTrack  = "On Track"
	TrackStatusOffTrack = "Off Track"
)

type BudgetInput struct {
	Year       int     `json:"year"`
	TotalLimit float64 `json:"total_limit"`
}

type BudgetUpdateInput struct {
	Year       *int     `json:"year"`
	TotalLimit *float64 `json:"total_limit"`
	Status     *string  `json:"status"`
}

type PeriodInfo struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Start string `json:"start_date"`
	End   string `json:"end_date"`
}

// BudgetSummary reports a budget's standing for one calendar period. All
// monetary figures carry both a cents and a dollars rendering so clients
// never re-derive one from the other.
type BudgetSummary struct {
	Budget                  domain.Budget `json:"budget"`
	Period                  PeriodInfo    `json:"period_info"`
	BudgetAllocationCents   int64         `json:"budget_allocation_cents"`
	BudgetAllocationDollars float64       `json:"budget_allocation_dollars"`
	TotalSpentCents         int64         `json:"total_spent_cents"`
	TotalSpentDollars       float64       `json:"total_spent_dollars"`
	RemainingCents          int64         `json:"remaining_cents"`
	RemainingDollars        float64       `json:"remaining_dollars"`
	PercentageUsed          float64       `json:"percentage_used"`
	SpendingStatus          string        `json:"spending_status"`
	OnTrackStatus           string        `json:"on_track_status"`
	TransactionCount        int           `json:"transaction_count"`
}

type BudgetService struct {
	repo         domain.BudgetRepository
	transactions domain.TransactionRepository
	teams        domain.TeamRepository
	authService  AuthorizationServiceInterface
}

func NewBudgetService(
	repo domain.BudgetRepository,
	transactions domain.TransactionRepository,
	teams domain.TeamRepository,
	authService AuthorizationServiceInterface,
) *BudgetService {
	return &BudgetService{
		repo:         repo,
		transactions: transactions,
		teams:        teams,
		authService:  authService,
	}
}

func (s *BudgetService) GetTeamBudgets(userID string, teamID int64) ([]domain.Budget, error) {
	team, err := s.loadTeam(teamID)
	if err != nil {
		return nil, err
	}
	if err := s.requireTeamAccess(userID, team); err != nil {
		return nil, err
	}
	return s.repo.FindByTeam(teamID)
}

func (s *BudgetService) GetBudget(userID string, teamID, budgetID int64) (*domain.Budget, error) {
	team, budget, err := s.loadTeamBudget(teamID, budgetID)
	if err != nil {
		return nil, err
	}
	if err := s.requireTeamAccess(userID, team); err != nil {
		return nil, err
	}
	return budget, nil
}

func (s *BudgetService) CreateBudget(userID string, teamID int64, input BudgetInput) (*domain.Budget, error) {
	team, err := s.loadTeam(teamID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManageBudgets(userID, team); err != nil {
		return nil, err
	}

	budget := &domain.Budget{
		TeamID:          teamID,
		Year:            input.Year,
		TotalLimitCents: convertToCents(input.TotalLimit),
		Status:          domain.BudgetStatusActive,
	}
	if err := budget.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.repo.FindByTeam(teamID)
	if err != nil {
		return nil, err
	}
	for _, b := range existing {
		if b.Year == budget.Year {
			return nil, orgErrors.NewConflictError(fmt.Sprintf("A budget for %d already exists for this team", budget.Year))
		}
	}
	if err := s.repo.Save(budget); err != nil {
		return nil, err
	}
	return budget, nil
}

func (s *BudgetService) UpdateBudget(userID string, teamID, budgetID int64, input BudgetUpdateInput) (*domain.Budget, error) {
	team, budget, err := s.loadTeamBudget(teamID, budgetID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManageBudgets(userID, team); err != nil {
		return nil, err
	}

	if input.Year != nil {
		budget.Year = *input.Year
	}
	if input.TotalLimit != nil {
		budget.TotalLimitCents = convertToCents(*input.TotalLimit)
	}
	if input.Status != nil {
		budget.Status = *input.Status
	}
	if err := budget.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(budget); err != nil {
		return nil, err
	}
	return budget, nil
}

func (s *BudgetService) DeleteBudget(userID string, teamID, budgetID int64) error {
	team, _, err := s.loadTeamBudget(teamID, budgetID)
	if err != nil {
		return err
	}
	if err := s.requireManageBudgets(userID, team); err != nil {
		return err
	}
	return s.repo.Delete(budgetID)
}

// ToggleBudgetStatus flips a budget between active and archived.
func (s *BudgetService) ToggleBudgetStatus(userID string, teamID, budgetID int64) (*domain.Budget, error) {
	team, budget, err := s.loadTeamBudget(teamID, budgetID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManageBudgets(userID, team); err != nil {
		return nil, err
	}

	if budget.Status == domain.BudgetStatusActive {
		budget.Status = domain.BudgetStatusArchived
	} else {
		budget.Status = domain.BudgetStatusActive
	}
	if err := s.repo.Update(budget); err != nil {
		return nil, err
	}
	return budget, nil
}

// GetBudgetSummary computes the summary for the calendar period containing
// asOf. Access is checked before the period string is validated, so callers
// without team access get a permission error even for an unknown period.
func (s *BudgetService) GetBudgetSummary(userID string, teamID, budgetID int64, period string, asOf time.Time) (*BudgetSummary, error) {
	if period == "" {
		period = PeriodMonth
	}
	team, budget, err := s.loadTeamBudget(teamID, budgetID)
	if err != nil {
		return nil, err
	}
	if err := s.requireTeamAccess(userID, team); err != nil {
		return nil, err
	}
	start, end, err := periodDateRange(period, asOf)
	if err != nil {
		return nil, err
	}

	periodTx, err := s.transactions.FindByBudgetInDateRange(budgetID, start, end)
	if err != nil {
		return nil, err
	}
	spent := netSpentCents(periodTx)
	allocation := allocationForPeriod(budget.TotalLimitCents, period)
	remaining := allocation - spent

	pct := 0.0
	if allocation > 0 {
		pct = float64(spent) / float64(allocation) * 100
	}

	onTrack, err := s.onTrackStatus(budget, asOf)
	if err != nil {
		return nil, err
	}

	return &BudgetSummary{
		Budget:                  *budget,
		Period:                  periodInfo(period, asOf, start, end),
		BudgetAllocationCents:   allocation,
		BudgetAllocationDollars: convertFromCents(allocation),
		TotalSpentCents:         spent,
		TotalSpentDollars:       convertFromCents(spent),
		RemainingCents:          remaining,
		RemainingDollars:        convertFromCents(remaining),
		PercentageUsed:          math.Round(pct*100) / 100,
		SpendingStatus:          spendingStatus(pct),
		OnTrackStatus:           onTrack,
		TransactionCount:        len(periodTx),
	}, nil
}

// onTrackStatus projects the year-to-date spending pace over a full twelve
// months and compares it with the annual limit. Spending is read from asOf's
// calendar year, not the budget's labelled year, and the number of months
// passed is the calendar month of asOf, so January always counts as one.
func (s *BudgetService) onTrackStatus(budget *domain.Budget, asOf time.Time) (string, error) {
	yearTx, err := s.transactions.FindByBudgetInYear(budget.ID, asOf.Year())
	if err != nil {
		return "", err
	}
	spent := netSpentCents(yearTx)

	monthsPassed := int(asOf.Month())
	if monthsPassed == 0 {
		monthsPassed = 1
	}
	projected := int64(math.Round(float64(spent) / float64(monthsPassed) * 12))
	if projected <= budget.TotalLimitCents {
		return TrackStatusOnTrack, nil
	}
	return TrackStatusOffTrack, nil
}

func (s *BudgetService) loadTeam(teamID int64) (*domain.Team, error) {
	team, err := s.teams.FindByID(teamID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, orgErrors.NewNotFoundError("Team not found")
	}
	return team, nil
}

func (s *BudgetService) loadTeamBudget(teamID, budgetID int64) (*domain.Team, *domain.Budget, error) {
	team, err := s.loadTeam(teamID)
	if err != nil {
		return nil, nil, err
	}
	budget, err := s.repo.FindByID(budgetID)
	if err != nil {
		return nil, nil, err
	}
	if budget == nil {
		return nil, nil, orgErrors.NewNotFoundError("Budget not found")
	}
	if budget.TeamID != team.ID {
		return nil, nil, orgErrors.NewNotFoundError("Budget does not belong to this team")
	}
	return team, budget, nil
}

func (s *BudgetService) requireTeamAccess(userID string, team *domain.Team) error {
	ok, err := s.authService.HasTeamAccess(userID, team)
	if err != nil {
		return err
	}
	if !ok {
		return orgErrors.NewPermissionError("You do not have access to this team")
	}
	return nil
}

func (s *BudgetService) requireManageBudgets(userID string, team *domain.Team) error {
	ok, err := s.authService.CanManageBudgets(userID, team)
	if err != nil {
		return err
	}
	if !ok {
		return orgErrors.NewPermissionError("You must be a team admin or organization admin to manage budgets")
	}
	return nil
}

// periodDateRange resolves the inclusive date range of the month, quarter
// or year containing now. Unknown period names fail before any transaction
// query.
func periodDateRange(period string, now time.Time) (time.Time, time.Time, error) {
	switch period {
	case PeriodMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 1, -1), nil
	case PeriodQuarter:
		quarter := (int(now.Month()) - 1) / 3
		start := time.Date(now.Year(), time.Month(quarter*3+1), 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 3, -1), nil
	case PeriodYear:
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		return start, time.Date(now.Year(), time.December, 31, 0, 0, 0, 0, now.Location()), nil
	default:
		return time.Time{}, time.Time{}, orgErrors.NewInvalidPeriodError("Invalid period. Must be one of: month, quarter, year")
	}
}

// allocationForPeriod divides the annual limit evenly, rounding half away
// from zero; a year period gets the full limit.
func allocationForPeriod(totalLimitCents int64, period string) int64 {
	switch period {
	case PeriodMonth:
		return int64(math.Round(float64(totalLimitCents) / 12))
	case PeriodQuarter:
		return int64(math.Round(float64(totalLimitCents) / 4))
	default:
		return totalLimitCents
	}
}

// netSpentCents sums expenses minus income, so refunds reduce spending and
// the result can go negative.
func netSpentCents(transactions []domain.Transaction) int64 {
	var total int64
	for _, tx := range transactions {
		if tx.Type == domain.TransactionTypeIncome {
			total -= tx.AmountCents
		} else {
			total += tx.AmountCents
		}
	}
	return total
}

func spendingStatus(percentageUsed float64) string {
	switch {
	case percentageUsed <= 80:
		return SpendingStatusUnder
	case percentageUsed <= 100:
		return SpendingStatusOnTrack
	default:
		return SpendingStatusOver
	}
}

func periodInfo(period string, asOf, start, end time.Time) PeriodInfo {
	var name string
	switch period {
	case PeriodMonth:
		name = asOf.Format("January 2006")
	case PeriodQuarter:
		name = fmt.Sprintf("Q%d %d", (int(asOf.Month())-1)/3+1, asOf.Year())
	default:
		name = fmt.Sprintf("%d", asOf.Year())
	}
	return PeriodInfo{
		Type:  period,
		Name:  name,
		Start: start.Format("2006-01-02"),
		End:   end.Format("2006-01-02"),
	}
}

func convertToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func convertFromCents(cents int64) float64 {
	return float64(cents) / 100
}
