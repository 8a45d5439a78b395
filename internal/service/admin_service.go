package service

import (
	"context"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	recentOrderLimit = 5
	topProductsLimit = 10
)

type DashboardStats struct {
	TotalOrders    int64           `json:"total_orders"`
	TotalProducts  int64           `json:"total_products"`
	TotalCustomers int64           `json:"total_customers"`
	TotalRevenue   decimal.Decimal `json:"total_revenue" swaggertype:"string"`
	RecentOrders   []model.Order   `json:"recent_orders"`
}

type SalesReport struct {
	StartDate         *time.Time      `json:"start_date,omitempty"`
	EndDate           *time.Time      `json:"end_date,omitempty"`
	TotalSales        decimal.Decimal `json:"total_sales" swaggertype:"string"`
	OrderCount        int             `json:"order_count"`
	AverageOrderValue decimal.Decimal `json:"average_order_value" swaggertype:"string"`
}

type IAdminService interface {
	Dashboard(ctx context.Context) (*DashboardStats, error)
	SalesReport(ctx context.Context, start, end *time.Time) (*SalesReport, error)
	ListOrders(ctx context.Context, status string, page, limit int) (*model.Page[model.Order], error)
	ProductPerformance(ctx context.Context) ([]db.ProductSales, error)

	ListUsers(ctx context.Context, query UserQuery) (*model.Page[model.User], error)
	GetUser(ctx context.Context, userID int) (*model.User, error)
	SetUserActive(ctx context.Context, actorID, userID int, active bool) (*model.User, error)
	SetUserRole(ctx context.Context, actorID, userID int, role string) (*model.User, error)
	PromoteToAdmin(ctx context.Context, userID int) (*model.User, error)
}

// UserQuery Role 為空時不過濾, Search 比對 email 與姓名
type UserQuery struct {
	Role   string
	Search string
	Page   int
	Limit  int
}

type AdminService struct {
	db db.UnifiedDB
}

func NewAdminService(unifiedDB db.UnifiedDB) *AdminService {
	return &AdminService{db: unifiedDB}
}

var _ IAdminService = (*AdminService)(nil)

// Dashboard 營收只計算 DELIVERED 訂單
func (s *AdminService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		stats.TotalOrders, err = s.db.CountOrders(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.TotalProducts, err = s.db.CountProducts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.TotalCustomers, err = s.db.CountUsersByRole(gctx, model.UserRoleCustomer)
		return err
	})
	g.Go(func() error {
		revenue, err := s.db.SumOrderAmountByStatus(gctx, model.OrderStatusDelivered)
		stats.TotalRevenue = revenue.Round(2)
		return err
	})
	g.Go(func() error {
		var err error
		stats.RecentOrders, err = s.db.GetRecentOrders(gctx, recentOrderLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *AdminService) SalesReport(ctx context.Context, start, end *time.Time) (*SalesReport, error) {
	if start != nil && end != nil && end.Before(*start) {
		return nil, invalidArgument("end date must not be before start date")
	}

	orders, err := s.db.GetOrdersByStatusInRange(ctx, model.OrderStatusDelivered, start, end)
	if err != nil {
		return nil, err
	}

	report := &SalesReport{
		StartDate:         start,
		EndDate:           end,
		TotalSales:        decimal.Zero,
		OrderCount:        len(orders),
		AverageOrderValue: decimal.Zero,
	}
	for _, order := range orders {
		report.TotalSales = report.TotalSales.Add(order.TotalAmount)
	}
	if report.OrderCount > 0 {
		report.AverageOrderValue = report.TotalSales.Div(decimal.NewFromInt(int64(report.OrderCount))).Round(2)
	}
	return report, nil
}

// ListOrders status 為空時不過濾
func (s *AdminService) ListOrders(ctx context.Context, status string, page, limit int) (*model.Page[model.Order], error) {
	filter := db.OrderFilter{}
	if status != "" {
		parsed, ok := model.ParseOrderStatus(status)
		if !ok {
			return nil, invalidArgument("unknown order status %q", status)
		}
		filter.Status = parsed
	}

	page, limit = model.NormalizePaging(page, limit)
	filter.Offset = (page - 1) * limit
	filter.Limit = limit

	orders, total, err := s.db.ListOrders(ctx, filter)
	if err != nil {
		return nil, err
	}
	return model.NewPage(orders, total, page, limit), nil
}

// ProductPerformance 只算已送達訂單, 依銷量取前幾名
func (s *AdminService) ProductPerformance(ctx context.Context) ([]db.ProductSales, error) {
	sales, err := s.db.GetProductSales(ctx, model.OrderStatusDelivered, topProductsLimit)
	if err != nil {
		return nil, err
	}
	for i := range sales {
		sales[i].Revenue = sales[i].Revenue.Round(2)
	}
	return sales, nil
}

func (s *AdminService) ListUsers(ctx context.Context, query UserQuery) (*model.Page[model.User], error) {
	filter := db.UserFilter{Search: query.Search}
	if query.Role != "" {
		role := model.UserRole(strings.ToUpper(strings.TrimSpace(query.Role)))
		if !role.IsValid() {
			return nil, invalidArgument("unknown role %q", query.Role)
		}
		filter.Role = role
	}

	page, limit := model.NormalizePaging(query.Page, query.Limit)
	filter.Offset = (page - 1) * limit
	filter.Limit = limit

	users, total, err := s.db.ListUsers(ctx, filter)
	if err != nil {
		return nil, err
	}
	return model.NewPage(users, total, page, limit), nil
}

func (s *AdminService) GetUser(ctx context.Context, userID int) (*model.User, error) {
	user, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return user, nil
}

// SetUserActive 停用後登入與 refresh 都會被拒絕, 管理員不能停用自己
func (s *AdminService) SetUserActive(ctx context.Context, actorID, userID int, active bool) (*model.User, error) {
	if actorID == userID && !active {
		return nil, invalidArgument("cannot deactivate your own account")
	}
	return s.updateUser(ctx, userID, map[string]any{"is_active": active})
}

// SetUserRole 管理員不能拔掉自己的管理權限
func (s *AdminService) SetUserRole(ctx context.Context, actorID, userID int, role string) (*model.User, error) {
	parsed := model.UserRole(strings.ToUpper(strings.TrimSpace(role)))
	if !parsed.IsValid() {
		return nil, invalidArgument("unknown role %q", role)
	}
	if actorID == userID && parsed != model.UserRoleAdmin {
		return nil, invalidArgument("cannot remove your own admin role")
	}
	return s.updateUser(ctx, userID, map[string]any{"role": parsed})
}

func (s *AdminService) PromoteToAdmin(ctx context.Context, userID int) (*model.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin() {
		return nil, invalidArgument("user is already an admin")
	}
	return s.updateUser(ctx, userID, map[string]any{"role": model.UserRoleAdmin})
}

func (s *AdminService) updateUser(ctx context.Context, userID int, fields map[string]any) (*model.User, error) {
	if err := s.db.UpdateUserFields(ctx, userID, fields); err != nil {
		return nil, translateRepoError(err)
	}
	return s.GetUser(ctx, userID)
}
