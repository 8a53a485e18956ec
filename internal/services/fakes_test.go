package services

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"barpos_backend/internal/models"
	"barpos_backend/internal/repositories"
)

// In-memory fakes for the repository interfaces. Executor arguments are
// ignored; writes apply immediately. That means rollback is invisible here:
// all-or-nothing behavior of a write phase aborted midway is delegated to
// Postgres and only holds against a real database. Tests that assert "no
// partial effects" do so on paths that fail before the first write.

// --- fakeEventRepo ---

type fakeEventRepo struct {
	events map[int64]*models.Event
	nextID int64

	// lockErrs is popped once per GetEventForUpdate call, letting tests
	// simulate transient transaction conflicts.
	lockErrs []error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[int64]*models.Event), nextID: 1}
}

func (f *fakeEventRepo) CreateEvent(_ repositories.SQLExecutor, event *models.Event) (int64, error) {
	event.ID = f.nextID
	f.nextID++
	now := time.Now()
	event.CreatedAt, event.UpdatedAt = now, now
	stored := *event
	f.events[event.ID] = &stored
	return event.ID, nil
}

func (f *fakeEventRepo) GetEventByID(eventID, managerID int64) (*models.Event, error) {
	e, ok := f.events[eventID]
	if !ok || e.EventManagerID != managerID {
		return nil, repositories.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (f *fakeEventRepo) GetEvents(managerID int64, filters models.EventFilters) ([]models.Event, int, error) {
	out := []models.Event{}
	for _, e := range f.events {
		if e.EventManagerID != managerID {
			continue
		}
		if filters.IsActive != nil && e.IsActive != *filters.IsActive {
			continue
		}
		out = append(out, *e)
	}
	return out, len(out), nil
}

func (f *fakeEventRepo) UpdateEvent(_ repositories.SQLExecutor, event *models.Event) error {
	e, ok := f.events[event.ID]
	if !ok || e.EventManagerID != event.EventManagerID {
		return repositories.ErrNotFound
	}
	e.Name, e.Date, e.Location = event.Name, event.Date, event.Location
	e.UpdatedAt = time.Now()
	return nil
}

func (f *fakeEventRepo) SetEventActive(_ repositories.SQLExecutor, eventID, managerID int64, isActive bool) error {
	e, ok := f.events[eventID]
	if !ok || e.EventManagerID != managerID {
		return repositories.ErrNotFound
	}
	e.IsActive = isActive
	return nil
}

func (f *fakeEventRepo) GetEventForUpdate(_ repositories.SQLExecutor, eventID, managerID int64) (*models.Event, error) {
	if len(f.lockErrs) > 0 {
		err := f.lockErrs[0]
		f.lockErrs = f.lockErrs[1:]
		return nil, err
	}
	return f.GetEventByID(eventID, managerID)
}

func (f *fakeEventRepo) UpdateBudget(_ repositories.SQLExecutor, eventID, managerID int64, newBudget float64) error {
	e, ok := f.events[eventID]
	if !ok || e.EventManagerID != managerID {
		return repositories.ErrNotFound
	}
	e.Budget = newBudget
	return nil
}

func (f *fakeEventRepo) UpdateSpend(_ repositories.SQLExecutor, eventID int64, newSpend float64) error {
	e, ok := f.events[eventID]
	if !ok {
		return repositories.ErrNotFound
	}
	e.CurrentSpend = newSpend
	return nil
}

// --- fakeBeverageRepo ---

type fakeBeverageRepo struct {
	beverages map[int64]*models.Beverage
	nextID    int64
}

func newFakeBeverageRepo() *fakeBeverageRepo {
	return &fakeBeverageRepo{beverages: make(map[int64]*models.Beverage), nextID: 1}
}

func (f *fakeBeverageRepo) CreateBeverage(_ repositories.SQLExecutor, beverage *models.Beverage) (int64, error) {
	beverage.ID = f.nextID
	f.nextID++
	now := time.Now()
	beverage.CreatedAt, beverage.UpdatedAt = now, now
	stored := *beverage
	f.beverages[beverage.ID] = &stored
	return beverage.ID, nil
}

func (f *fakeBeverageRepo) GetBeverageByID(beverageID, managerID int64) (*models.Beverage, error) {
	b, ok := f.beverages[beverageID]
	if !ok || b.EventManagerID != managerID {
		return nil, repositories.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (f *fakeBeverageRepo) GetBeveragesByEvent(eventID, managerID int64) ([]models.Beverage, error) {
	out := []models.Beverage{}
	for _, b := range f.beverages {
		if b.EventID == eventID && b.EventManagerID == managerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBeverageRepo) DeleteBeverage(_ repositories.SQLExecutor, beverageID, managerID int64) error {
	b, ok := f.beverages[beverageID]
	if !ok || b.EventManagerID != managerID {
		return repositories.ErrNotFound
	}
	delete(f.beverages, beverageID)
	return nil
}

func (f *fakeBeverageRepo) GetBeverageForUpdate(_ repositories.SQLExecutor, beverageID, managerID int64) (*models.Beverage, error) {
	return f.GetBeverageByID(beverageID, managerID)
}

func (f *fakeBeverageRepo) DecrementStock(_ repositories.SQLExecutor, beverageID int64, quantity int) error {
	b, ok := f.beverages[beverageID]
	if !ok {
		return repositories.ErrNotFound
	}
	if b.CurrentStock < quantity {
		return fmt.Errorf("%w: beverage %d", repositories.ErrStockConflict, beverageID)
	}
	b.CurrentStock -= quantity
	return nil
}

func (f *fakeBeverageRepo) Restock(_ repositories.SQLExecutor, beverageID, managerID int64, quantity int) (*models.Beverage, error) {
	b, ok := f.beverages[beverageID]
	if !ok || b.EventManagerID != managerID {
		return nil, repositories.ErrNotFound
	}
	b.InitialStock += quantity
	b.CurrentStock += quantity
	copied := *b
	return &copied, nil
}

func (f *fakeBeverageRepo) UpdateAudit(_ repositories.SQLExecutor, beverageID, managerID int64, countedStock int, auditedAt time.Time) error {
	b, ok := f.beverages[beverageID]
	if !ok || b.EventManagerID != managerID {
		return repositories.ErrNotFound
	}
	counted := countedStock
	at := auditedAt
	b.AuditedStock = &counted
	b.LastAuditedAt = &at
	return nil
}

// --- fakeTableRepo ---

type fakeTableRepo struct {
	tables map[int64]*models.BarTable
	nextID int64
}

func newFakeTableRepo() *fakeTableRepo {
	return &fakeTableRepo{tables: make(map[int64]*models.BarTable), nextID: 1}
}

func (f *fakeTableRepo) CreateTable(_ repositories.SQLExecutor, table *models.BarTable) (int64, error) {
	for _, t := range f.tables {
		if t.EventID == table.EventID && t.TableNumber == table.TableNumber {
			return 0, fmt.Errorf("%w: table number %q", repositories.ErrDuplicateKey, table.TableNumber)
		}
	}
	table.ID = f.nextID
	f.nextID++
	now := time.Now()
	table.CreatedAt, table.UpdatedAt = now, now
	stored := *table
	stored.Items = append([]models.TableItem{}, table.Items...)
	f.tables[table.ID] = &stored
	return table.ID, nil
}

func (f *fakeTableRepo) GetTableByID(tableID, managerID int64) (*models.BarTable, error) {
	t, ok := f.tables[tableID]
	if !ok || t.EventManagerID != managerID {
		return nil, repositories.ErrNotFound
	}
	copied := *t
	copied.Items = append([]models.TableItem{}, t.Items...)
	return &copied, nil
}

func (f *fakeTableRepo) GetTablesByEvent(eventID, managerID int64) ([]models.BarTable, error) {
	out := []models.BarTable{}
	for _, t := range f.tables {
		if t.EventID == eventID && t.EventManagerID == managerID {
			copied := *t
			copied.Items = append([]models.TableItem{}, t.Items...)
			out = append(out, copied)
		}
	}
	return out, nil
}

func (f *fakeTableRepo) DeleteTable(_ repositories.SQLExecutor, tableID, managerID int64) error {
	t, ok := f.tables[tableID]
	if !ok || t.EventManagerID != managerID {
		return repositories.ErrNotFound
	}
	delete(f.tables, tableID)
	return nil
}

func (f *fakeTableRepo) GetTableForUpdate(executor repositories.SQLExecutor, tableID, managerID int64) (*models.BarTable, error) {
	return f.GetTableByID(tableID, managerID)
}

func (f *fakeTableRepo) GetTableItems(_ repositories.SQLExecutor, tableID int64) ([]models.TableItem, error) {
	t, ok := f.tables[tableID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return append([]models.TableItem{}, t.Items...), nil
}

func (f *fakeTableRepo) ReplaceDraftItems(_ repositories.SQLExecutor, tableID int64, items []models.TableItem) error {
	t, ok := f.tables[tableID]
	if !ok {
		return repositories.ErrNotFound
	}
	t.Items = append([]models.TableItem{}, items...)
	return nil
}

func (f *fakeTableRepo) UpdateTableTotal(_ repositories.SQLExecutor, tableID int64, totalAmount float64) error {
	t, ok := f.tables[tableID]
	if !ok {
		return repositories.ErrNotFound
	}
	t.TotalAmount = totalAmount
	return nil
}

func (f *fakeTableRepo) CloseTable(_ repositories.SQLExecutor, tableID int64, totalAmount float64) error {
	t, ok := f.tables[tableID]
	if !ok || !t.IsOpen {
		return repositories.ErrNotFound
	}
	t.IsOpen = false
	t.TotalAmount = totalAmount
	return nil
}

// --- fakeOrderRepo ---

type fakeOrderRepo struct {
	orders map[int64]*models.Order
	nextID int64

	// lastFilters records what GetOrders was called with.
	lastFilters models.OrderFilters
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[int64]*models.Order), nextID: 1}
}

func (f *fakeOrderRepo) CreateOrder(_ repositories.SQLExecutor, order *models.Order) (int64, error) {
	if order.ClientRequestID != nil {
		for _, o := range f.orders {
			if o.EventManagerID == order.EventManagerID &&
				o.ClientRequestID != nil && *o.ClientRequestID == *order.ClientRequestID {
				return 0, fmt.Errorf("%w: client_request_id %q", repositories.ErrDuplicateKey, *order.ClientRequestID)
			}
		}
	}
	order.ID = f.nextID
	f.nextID++
	order.CreatedAt = time.Now()
	stored := *order
	stored.Items = append([]models.OrderItem{}, order.Items...)
	f.orders[order.ID] = &stored
	return order.ID, nil
}

func (f *fakeOrderRepo) CreateOrderItem(_ repositories.SQLExecutor, item *models.OrderItem) (int64, error) {
	o, ok := f.orders[item.OrderID]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	item.ID = int64(len(o.Items) + 1)
	o.Items = append(o.Items, *item)
	return item.ID, nil
}

func (f *fakeOrderRepo) GetOrderByID(orderID, managerID int64) (*models.Order, error) {
	o, ok := f.orders[orderID]
	if !ok || o.EventManagerID != managerID {
		return nil, repositories.ErrNotFound
	}
	copied := *o
	copied.Items = append([]models.OrderItem{}, o.Items...)
	return &copied, nil
}

func (f *fakeOrderRepo) GetOrders(managerID int64, filters models.OrderFilters) ([]models.Order, int, error) {
	f.lastFilters = filters
	out := []models.Order{}
	for _, o := range f.orders {
		if o.EventManagerID != managerID {
			continue
		}
		if filters.EventID != nil && o.EventID != *filters.EventID {
			continue
		}
		if filters.TableID != nil && (o.TableID == nil || *o.TableID != *filters.TableID) {
			continue
		}
		copied := *o
		copied.Items = append([]models.OrderItem{}, o.Items...)
		out = append(out, copied)
	}
	return out, len(out), nil
}

func (f *fakeOrderRepo) GetOrderItemsByOrderID(orderID int64) ([]models.OrderItem, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return append([]models.OrderItem{}, o.Items...), nil
}

func (f *fakeOrderRepo) GetOrderByClientRequestID(_ repositories.SQLExecutor, managerID int64, clientRequestID string) (*models.Order, error) {
	for _, o := range f.orders {
		if o.EventManagerID == managerID && o.ClientRequestID != nil && *o.ClientRequestID == clientRequestID {
			copied := *o
			copied.Items = append([]models.OrderItem{}, o.Items...)
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeOrderRepo) GetBeverageSales(eventID, managerID int64) ([]models.BeverageSales, error) {
	agg := make(map[int64]*models.BeverageSales)
	for _, o := range f.orders {
		if o.EventID != eventID || o.EventManagerID != managerID {
			continue
		}
		for _, item := range o.Items {
			s, ok := agg[item.BeverageID]
			if !ok {
				s = &models.BeverageSales{BeverageID: item.BeverageID}
				agg[item.BeverageID] = s
			}
			s.QuantitySold += item.Quantity
			s.Revenue += item.TotalPrice
		}
	}
	out := []models.BeverageSales{}
	for _, s := range agg {
		out = append(out, *s)
	}
	return out, nil
}

// --- fakeAuthRepo ---

type fakeAuthRepo struct {
	users  map[int64]*models.User
	nextID int64
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{users: make(map[int64]*models.User), nextID: 1}
}

func (f *fakeAuthRepo) CreateUser(_ repositories.SQLExecutor, user *models.User) (int64, error) {
	for _, u := range f.users {
		if u.Username == user.Username {
			return 0, fmt.Errorf("%w: username or email already taken (constraint: users_username_key)", repositories.ErrDuplicateKey)
		}
		if u.Email == user.Email {
			return 0, fmt.Errorf("%w: username or email already taken (constraint: users_email_key)", repositories.ErrDuplicateKey)
		}
	}
	user.ID = f.nextID
	f.nextID++
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	stored := *user
	f.users[user.ID] = &stored
	return user.ID, nil
}

func (f *fakeAuthRepo) GetUserByUsername(username string) (*models.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeAuthRepo) GetUserByID(userID int64) (*models.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

// --- fixture ---

type fixture struct {
	db        *sql.DB
	events    *fakeEventRepo
	beverages *fakeBeverageRepo
	tables    *fakeTableRepo
	orders    *fakeOrderRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		db:        newStubDB(t),
		events:    newFakeEventRepo(),
		beverages: newFakeBeverageRepo(),
		tables:    newFakeTableRepo(),
		orders:    newFakeOrderRepo(),
	}
}

func (f *fixture) orderService() OrderService {
	return NewOrderService(f.orders, f.events, f.beverages, f.tables, f.db)
}

func (f *fixture) tableService() TableService {
	return NewTableService(f.tables, f.beverages, f.events, f.orderService(), f.db)
}

func (f *fixture) seedEvent(t *testing.T, managerID int64, budget float64) *models.Event {
	t.Helper()
	event := &models.Event{
		EventManagerID: managerID,
		Name:           "Launch Party",
		Date:           "2026-09-12",
		Location:       "Rooftop Bar",
		Budget:         budget,
		IsActive:       true,
	}
	if _, err := f.events.CreateEvent(nil, event); err != nil {
		t.Fatalf("seeding event: %v", err)
	}
	return event
}

func (f *fixture) seedBeverage(t *testing.T, eventID, managerID int64, name string, stock int, price float64) *models.Beverage {
	t.Helper()
	beverage := &models.Beverage{
		EventID:        eventID,
		EventManagerID: managerID,
		Name:           name,
		Category:       "Beers",
		Type:           string(models.BeverageTypeAlcoholic),
		InitialStock:   stock,
		CurrentStock:   stock,
		Price:          price,
	}
	if _, err := f.beverages.CreateBeverage(nil, beverage); err != nil {
		t.Fatalf("seeding beverage: %v", err)
	}
	return beverage
}
