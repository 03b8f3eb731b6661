package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmeshcher/cuenty/internal/model"
	"github.com/mmeshcher/cuenty/internal/repository"
)

// fakeRepo хранит данные в памяти и возвращает те же ошибки, что и PostgresRepository.
type fakeRepo struct {
	mu     sync.Mutex
	nextID int64
	clock  time.Time

	services  map[int64]*model.Service
	plans     map[int64]*model.Plan
	accounts  map[int64]*model.Account
	orders    map[int64]*model.Order
	items     map[int64]*model.OrderItem
	customers map[int64]*model.Customer
	admins    map[int64]*model.Admin
	contacts  map[int64]*model.ContactMessage
	site      *model.SiteConfig
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		clock:     time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		services:  map[int64]*model.Service{},
		plans:     map[int64]*model.Plan{},
		accounts:  map[int64]*model.Account{},
		orders:    map[int64]*model.Order{},
		items:     map[int64]*model.OrderItem{},
		customers: map[int64]*model.Customer{},
		admins:    map[int64]*model.Admin{},
		contacts:  map[int64]*model.ContactMessage{},
		site:      &model.SiteConfig{SiteName: "CUENTY"},
	}
}

func (f *fakeRepo) id() int64 {
	f.nextID++
	return f.nextID
}

// tick возвращает монотонно растущее время создания записей.
func (f *fakeRepo) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func notFound(what string, id int64) error {
	return fmt.Errorf("%w: %s %d", repository.ErrNotFound, what, id)
}

func sortedIDs[T any](m map[int64]T) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func page[T any](all []T, limit, offset int) []T {
	if limit <= 0 {
		return all
	}
	if offset >= len(all) {
		return []T{}
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

func (f *fakeRepo) Close() error                   { return nil }
func (f *fakeRepo) Ping(ctx context.Context) error { return nil }

func (f *fakeRepo) serviceNameTaken(name string, except int64) bool {
	for _, s := range f.services {
		if s.ID != except && strings.EqualFold(s.Name, name) {
			return true
		}
	}
	return false
}

func (f *fakeRepo) CreateService(ctx context.Context, s *model.Service) (*model.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.serviceNameTaken(s.Name, 0) {
		return nil, fmt.Errorf("%w: service %s", repository.ErrConflict, s.Name)
	}
	c := *s
	c.ID = f.id()
	c.CreatedAt = f.tick()
	f.services[c.ID] = &c
	out := c
	return &out, nil
}

func (f *fakeRepo) UpdateService(ctx context.Context, s *model.Service) (*model.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cur, ok := f.services[s.ID]
	if !ok {
		return nil, notFound("service", s.ID)
	}
	if f.serviceNameTaken(s.Name, s.ID) {
		return nil, fmt.Errorf("%w: service %s", repository.ErrConflict, s.Name)
	}
	cur.Name, cur.Description, cur.LogoURL, cur.Active = s.Name, s.Description, s.LogoURL, s.Active
	out := *cur
	return &out, nil
}

func (f *fakeRepo) GetService(ctx context.Context, id int64) (*model.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.services[id]
	if !ok {
		return nil, notFound("service", id)
	}
	out := *s
	return &out, nil
}

func (f *fakeRepo) ListServices(ctx context.Context) ([]model.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	res := []model.Service{}
	for _, id := range sortedIDs(f.services) {
		res = append(res, *f.services[id])
	}
	return res, nil
}

func (f *fakeRepo) DeleteService(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.services[id]; !ok {
		return notFound("service", id)
	}
	for _, p := range f.plans {
		if p.ServiceID == id {
			return fmt.Errorf("%w: service %d has plans", repository.ErrHasDependencies, id)
		}
	}
	delete(f.services, id)
	return nil
}

func (f *fakeRepo) checkPlan(p *model.Plan) error {
	svc, ok := f.services[p.ServiceID]
	if !ok {
		return fmt.Errorf("%w: service %d", repository.ErrNotFound, p.ServiceID)
	}
	for _, other := range f.plans {
		if other.ID != p.ID && other.ServiceID == p.ServiceID && other.DurationMonths == p.DurationMonths {
			return fmt.Errorf("%w: plan %s/%d", repository.ErrConflict, svc.Name, p.DurationMonths)
		}
	}
	return nil
}

func (f *fakeRepo) CreatePlan(ctx context.Context, p *model.Plan) (*model.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkPlan(p); err != nil {
		return nil, err
	}
	c := *p
	c.ID = f.id()
	c.DurationDays = c.DurationMonths * model.DaysPerMonth
	c.ServiceName = f.services[c.ServiceID].Name
	c.CreatedAt = f.tick()
	f.plans[c.ID] = &c
	out := c
	return &out, nil
}

func (f *fakeRepo) UpdatePlan(ctx context.Context, p *model.Plan) (*model.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cur, ok := f.plans[p.ID]
	if !ok {
		return nil, notFound("plan", p.ID)
	}
	if err := f.checkPlan(p); err != nil {
		return nil, err
	}
	created := cur.CreatedAt
	*cur = *p
	cur.CreatedAt = created
	cur.DurationDays = cur.DurationMonths * model.DaysPerMonth
	cur.ServiceName = f.services[cur.ServiceID].Name
	out := *cur
	return &out, nil
}

func (f *fakeRepo) GetPlan(ctx context.Context, id int64) (*model.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.plans[id]
	if !ok {
		return nil, notFound("plan", id)
	}
	out := *p
	return &out, nil
}

func (f *fakeRepo) ListPlans(ctx context.Context, serviceID int64) ([]model.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	res := []model.Plan{}
	for _, id := range sortedIDs(f.plans) {
		p := f.plans[id]
		if serviceID == 0 || p.ServiceID == serviceID {
			res = append(res, *p)
		}
	}
	return res, nil
}

func (f *fakeRepo) FirstPlanForService(ctx context.Context, serviceID int64) (*model.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, id := range sortedIDs(f.plans) {
		if p := f.plans[id]; p.ServiceID == serviceID {
			out := *p
			return &out, nil
		}
	}
	return nil, notFound("plan for service", serviceID)
}

func (f *fakeRepo) DeletePlan(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.plans[id]; !ok {
		return notFound("plan", id)
	}
	for _, a := range f.accounts {
		if a.PlanID == id {
			return fmt.Errorf("%w: plan %d has accounts", repository.ErrHasDependencies, id)
		}
	}
	for _, it := range f.items {
		if it.PlanID == id {
			return fmt.Errorf("%w: plan %d has order items", repository.ErrHasDependencies, id)
		}
	}
	delete(f.plans, id)
	return nil
}

func (f *fakeRepo) ListCatalog(ctx context.Context) ([]model.CatalogService, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var res []model.CatalogService
	for _, sid := range sortedIDs(f.services) {
		s := f.services[sid]
		if !s.Active {
			continue
		}
		cs := model.CatalogService{Service: *s, Plans: []model.CatalogPlan{}}
		for _, pid := range sortedIDs(f.plans) {
			p := f.plans[pid]
			if p.ServiceID != sid || !p.Active {
				continue
			}
			available := 0
			for _, a := range f.accounts {
				if a.PlanID == pid && a.Status == model.AccountStatusAvailable {
					available++
				}
			}
			cs.Plans = append(cs.Plans, model.CatalogPlan{Plan: *p, Available: available})
		}
		res = append(res, cs)
	}
	return res, nil
}

func (f *fakeRepo) fillAccount(a *model.Account) model.Account {
	out := *a
	if p, ok := f.plans[a.PlanID]; ok {
		out.ServiceID = p.ServiceID
		out.PlanName = p.Name
		out.ServiceName = f.services[p.ServiceID].Name
	}
	return out
}

func (f *fakeRepo) CreateAccount(ctx context.Context, a *model.Account) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.plans[a.PlanID]; !ok {
		return nil, fmt.Errorf("%w: plan %d", repository.ErrNotFound, a.PlanID)
	}
	c := *a
	c.ID = f.id()
	c.AddedAt = f.tick()
	f.accounts[c.ID] = &c
	out := f.fillAccount(&c)
	return &out, nil
}

func (f *fakeRepo) UpdateAccount(ctx context.Context, a *model.Account) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cur, ok := f.accounts[a.ID]
	if !ok {
		return nil, notFound("account", a.ID)
	}
	if _, ok := f.plans[a.PlanID]; !ok {
		return nil, fmt.Errorf("%w: plan %d", repository.ErrNotFound, a.PlanID)
	}
	status := a.Status
	if cur.Status == model.AccountStatusAssigned {
		status = cur.Status
	}
	cur.PlanID, cur.EncodedEmail, cur.EncodedPassword = a.PlanID, a.EncodedEmail, a.EncodedPassword
	cur.Profile, cur.PIN, cur.Notes, cur.Status = a.Profile, a.PIN, a.Notes, status
	out := f.fillAccount(cur)
	return &out, nil
}

func (f *fakeRepo) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.accounts[id]
	if !ok {
		return nil, notFound("account", id)
	}
	out := f.fillAccount(a)
	return &out, nil
}

func (f *fakeRepo) ListAccounts(ctx context.Context, filter repository.AccountFilter) ([]model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var res []model.Account
	for _, id := range sortedIDs(f.accounts) {
		a := f.fillAccount(f.accounts[id])
		if filter.PlanID != 0 && a.PlanID != filter.PlanID {
			continue
		}
		if filter.ServiceID != 0 && a.ServiceID != filter.ServiceID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		res = append(res, a)
	}
	return res, nil
}

func (f *fakeRepo) DeleteAccount(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.accounts[id]; !ok {
		return notFound("account", id)
	}
	for _, it := range f.items {
		if it.AccountID != nil && *it.AccountID == id {
			return fmt.Errorf("%w: account %d", repository.ErrHasDependencies, id)
		}
	}
	delete(f.accounts, id)
	return nil
}

func (f *fakeRepo) AssignAccount(ctx context.Context, itemID int64, accountID *int64, now time.Time) (*model.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	it, ok := f.items[itemID]
	if !ok {
		return nil, notFound("order item", itemID)
	}
	if it.AccountID != nil {
		return nil, fmt.Errorf("%w: item %d", repository.ErrAlreadyAssigned, itemID)
	}
	if it.Status == model.ItemStatusCancelled {
		return nil, fmt.Errorf("%w: item %d is cancelled", repository.ErrAccountUnusable, itemID)
	}

	var chosen *model.Account
	if accountID != nil {
		a, ok := f.accounts[*accountID]
		if !ok {
			return nil, notFound("account", *accountID)
		}
		if a.PlanID != it.PlanID || a.Status != model.AccountStatusAvailable {
			return nil, fmt.Errorf("%w: account %d", repository.ErrAccountUnusable, *accountID)
		}
		chosen = a
	} else {
		for _, id := range sortedIDs(f.accounts) {
			a := f.accounts[id]
			if a.PlanID == it.PlanID && a.Status == model.AccountStatusAvailable {
				chosen = a
				break
			}
		}
		if chosen == nil {
			return nil, fmt.Errorf("%w: plan %d", repository.ErrNoAvailableAccount, it.PlanID)
		}
	}

	expires := now.AddDate(0, 0, f.plans[it.PlanID].DurationDays)
	accID := chosen.ID
	it.AccountID = &accID
	it.Status = model.ItemStatusAssigned
	it.ExpiresAt = &expires
	chosen.Status = model.AccountStatusAssigned

	out := f.fillItem(it)
	return &out, nil
}

func (f *fakeRepo) DeliverItem(ctx context.Context, itemID int64) (*model.OrderItem, *model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	it, ok := f.items[itemID]
	if !ok {
		return nil, nil, notFound("order item", itemID)
	}
	if it.AccountID == nil {
		return nil, nil, fmt.Errorf("%w: item %d", repository.ErrNotAssigned, itemID)
	}
	if it.Status != model.ItemStatusAssigned && it.Status != model.ItemStatusDelivered {
		return nil, nil, fmt.Errorf("%w: item %d is %s", repository.ErrNotAssigned, itemID, it.Status)
	}
	it.CredentialsDelivered = true
	it.Status = model.ItemStatusDelivered

	item := f.fillItem(it)
	acc := f.fillAccount(f.accounts[*it.AccountID])
	return &item, &acc, nil
}

func (f *fakeRepo) fillItem(it *model.OrderItem) model.OrderItem {
	out := *it
	if p, ok := f.plans[it.PlanID]; ok {
		out.PlanName = p.Name
		out.ServiceName = f.services[p.ServiceID].Name
	}
	return out
}

func (f *fakeRepo) orderItems(orderID int64) []model.OrderItem {
	items := []model.OrderItem{}
	for _, id := range sortedIDs(f.items) {
		if it := f.items[id]; it.OrderID == orderID {
			items = append(items, f.fillItem(it))
		}
	}
	return items
}

func (f *fakeRepo) summary(o *model.Order) model.Order {
	out := *o
	if items := f.orderItems(o.ID); len(items) > 0 {
		out.ServiceName = items[0].ServiceName
		out.PlanName = items[0].PlanName
	}
	return out
}

func (f *fakeRepo) CreateOrder(ctx context.Context, o *model.Order, items []model.OrderItem) (*model.OrderDetail, error) {
	f.mu.Lock()

	c := *o
	c.ID = f.id()
	c.CreatedAt = f.tick()
	f.orders[c.ID] = &c
	for _, it := range items {
		ic := it
		ic.ID = f.id()
		ic.OrderID = c.ID
		f.items[ic.ID] = &ic
	}
	f.mu.Unlock()

	return f.GetOrder(ctx, c.ID)
}

func (f *fakeRepo) GetOrder(ctx context.Context, id int64) (*model.OrderDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	o, ok := f.orders[id]
	if !ok {
		return nil, notFound("order", id)
	}
	return &model.OrderDetail{Order: f.summary(o), Items: f.orderItems(id)}, nil
}

func (f *fakeRepo) GetOrderItem(ctx context.Context, id int64) (*model.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	it, ok := f.items[id]
	if !ok {
		return nil, notFound("order item", id)
	}
	out := f.fillItem(it)
	return &out, nil
}

func (f *fakeRepo) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]model.Order, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all := []model.Order{}
	ids := sortedIDs(f.orders)
	for i := len(ids) - 1; i >= 0; i-- {
		o := f.orders[ids[i]]
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		all = append(all, f.summary(o))
	}
	return page(all, filter.Limit, filter.Offset), len(all), nil
}

func (f *fakeRepo) UpdateOrder(ctx context.Context, id int64, fn func(o *model.Order) error) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cur, ok := f.orders[id]
	if !ok {
		return nil, notFound("order", id)
	}
	work := *cur
	if err := fn(&work); err != nil {
		return nil, err
	}
	cur.Status, cur.PaidAt, cur.DeliveredAt, cur.AdminNotes = work.Status, work.PaidAt, work.DeliveredAt, work.AdminNotes

	if cur.Status == model.OrderStatusCancelled {
		for _, it := range f.items {
			if it.OrderID == id && it.AccountID == nil && it.Status == model.ItemStatusPending {
				it.Status = model.ItemStatusCancelled
			}
		}
	}

	out := f.summary(cur)
	return &out, nil
}

func (f *fakeRepo) DeleteOrder(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.orders[id]; !ok {
		return notFound("order", id)
	}

	var released []int64
	for itemID, it := range f.items {
		if it.OrderID != id {
			continue
		}
		if it.AccountID != nil {
			released = append(released, *it.AccountID)
		}
		delete(f.items, itemID)
	}
	delete(f.orders, id)

	for _, accID := range released {
		referenced := false
		for _, it := range f.items {
			if it.AccountID != nil && *it.AccountID == accID {
				referenced = true
			}
		}
		if a := f.accounts[accID]; !referenced && a.Status == model.AccountStatusAssigned {
			a.Status = model.AccountStatusAvailable
		}
	}
	return nil
}

func (f *fakeRepo) ExpireItems(ctx context.Context, now time.Time) (int64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var expired, released int64
	for _, it := range f.items {
		live := it.Status == model.ItemStatusAssigned || it.Status == model.ItemStatusDelivered
		if live && it.ExpiresAt != nil && it.ExpiresAt.Before(now) {
			it.Status = model.ItemStatusExpired
			expired++
		}
	}
	for _, a := range f.accounts {
		if a.Status != model.AccountStatusAssigned {
			continue
		}
		live := false
		for _, it := range f.items {
			if it.AccountID != nil && *it.AccountID == a.ID &&
				(it.Status == model.ItemStatusAssigned || it.Status == model.ItemStatusDelivered) {
				live = true
			}
		}
		if !live {
			a.Status = model.AccountStatusAvailable
			released++
		}
	}
	return expired, released, nil
}

func (f *fakeRepo) CreateCustomer(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, other := range f.customers {
		if strings.EqualFold(other.Email, c.Email) {
			return nil, fmt.Errorf("%w: customer %s", repository.ErrConflict, c.Email)
		}
	}
	cc := *c
	cc.ID = f.id()
	cc.CreatedAt = f.tick()
	cc.UpdatedAt = cc.CreatedAt
	f.customers[cc.ID] = &cc
	out := cc
	return &out, nil
}

func (f *fakeRepo) GetCustomer(ctx context.Context, id int64) (*model.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.customers[id]
	if !ok {
		return nil, notFound("customer", id)
	}
	out := *c
	return &out, nil
}

func (f *fakeRepo) ListCustomers(ctx context.Context, limit, offset int) ([]model.Customer, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all := []model.Customer{}
	for _, id := range sortedIDs(f.customers) {
		all = append(all, *f.customers[id])
	}
	return page(all, limit, offset), len(all), nil
}

func (f *fakeRepo) UpdateCustomer(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cur, ok := f.customers[c.ID]
	if !ok {
		return nil, notFound("customer", c.ID)
	}
	cur.FirstName, cur.LastName, cur.Phone, cur.WhatsApp = c.FirstName, c.LastName, c.Phone, c.WhatsApp
	cur.Verified, cur.Active = c.Verified, c.Active
	cur.UpdatedAt = f.tick()
	out := *cur
	return &out, nil
}

func (f *fakeRepo) DeleteCustomer(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.customers[id]; !ok {
		return notFound("customer", id)
	}
	for _, o := range f.orders {
		if o.CustomerID != nil && *o.CustomerID == id {
			return fmt.Errorf("%w: customer %d", repository.ErrHasDependencies, id)
		}
	}
	delete(f.customers, id)
	return nil
}

func (f *fakeRepo) CreateAdmin(ctx context.Context, a *model.Admin) (*model.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, other := range f.admins {
		if other.Username == a.Username || strings.EqualFold(other.Email, a.Email) {
			return nil, fmt.Errorf("%w: admin %s", repository.ErrConflict, a.Username)
		}
	}
	c := *a
	c.ID = f.id()
	c.CreatedAt = f.tick()
	f.admins[c.ID] = &c
	out := c
	return &out, nil
}

func (f *fakeRepo) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, a := range f.admins {
		if strings.EqualFold(a.Email, email) {
			out := *a
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: admin %s", repository.ErrNotFound, email)
}

func (f *fakeRepo) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	res := []model.Admin{}
	for _, id := range sortedIDs(f.admins) {
		res = append(res, *f.admins[id])
	}
	return res, nil
}

func (f *fakeRepo) CreateContact(ctx context.Context, m *model.ContactMessage) (*model.ContactMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c := *m
	c.ID = f.id()
	c.CreatedAt = f.tick()
	f.contacts[c.ID] = &c
	out := c
	return &out, nil
}

func (f *fakeRepo) ListContacts(ctx context.Context, status model.ContactStatus, limit, offset int) ([]model.ContactMessage, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all := []model.ContactMessage{}
	ids := sortedIDs(f.contacts)
	for i := len(ids) - 1; i >= 0; i-- {
		m := f.contacts[ids[i]]
		if status == "" || m.Status == status {
			all = append(all, *m)
		}
	}
	return page(all, limit, offset), len(all), nil
}

func (f *fakeRepo) UpdateContactStatus(ctx context.Context, id int64, status model.ContactStatus) (*model.ContactMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, ok := f.contacts[id]
	if !ok {
		return nil, notFound("contact message", id)
	}
	m.Status = status
	out := *m
	return &out, nil
}

func (f *fakeRepo) GetSiteConfig(ctx context.Context) (*model.SiteConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.site == nil {
		return nil, fmt.Errorf("%w: site config", repository.ErrNotFound)
	}
	out := *f.site
	return &out, nil
}

func (f *fakeRepo) UpdateSiteConfig(ctx context.Context, c *model.SiteConfig) (*model.SiteConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cc := *c
	cc.UpdatedAt = f.tick()
	f.site = &cc
	out := cc
	return &out, nil
}

// memCache хранит значения в памяти для проверки инвалидации.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (c *memCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) SetJSON(ctx context.Context, key string, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.data[key] = b
	c.sets++
	return nil
}

func (c *memCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.data[key]
	return ok
}

type stubTokens struct {
	issued []int64
}

func (t *stubTokens) Issue(admin *model.Admin) (string, time.Time, error) {
	t.issued = append(t.issued, admin.ID)
	return fmt.Sprintf("token-%d", admin.ID), time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), nil
}
