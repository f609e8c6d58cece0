package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"loyalty-points/internal/domain"
	"loyalty-points/internal/repository"
)

var errStorage = errors.New("storage unavailable")

// memStore is an in-memory stand-in for the database. The mock transaction
// manager works on a clone and only swaps it in on commit.
type memStore struct {
	customers    map[int64]*domain.Customer
	categories   map[int64]*domain.Category
	products     map[int64]*domain.Product
	rules        map[int64]*domain.PointEarningRule
	carts        map[int64]*domain.ShoppingCart // keyed by customer id
	accounts     map[int64]*domain.LoyaltyAccount
	transactions []*domain.PointTransaction
	nextID       int64

	// failures maps an operation name to the error it should return
	failures map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		customers:  make(map[int64]*domain.Customer),
		categories: make(map[int64]*domain.Category),
		products:   make(map[int64]*domain.Product),
		rules:      make(map[int64]*domain.PointEarningRule),
		carts:      make(map[int64]*domain.ShoppingCart),
		accounts:   make(map[int64]*domain.LoyaltyAccount),
		failures:   make(map[string]error),
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) fail(op string) error {
	return s.failures[op]
}

func (s *memStore) clone() *memStore {
	c := newMemStore()
	c.nextID = s.nextID
	c.failures = s.failures
	for k, v := range s.customers {
		cp := *v
		c.customers[k] = &cp
	}
	for k, v := range s.categories {
		cp := *v
		c.categories[k] = &cp
	}
	for k, v := range s.products {
		cp := *v
		c.products[k] = &cp
	}
	for k, v := range s.rules {
		cp := *v
		c.rules[k] = &cp
	}
	for k, v := range s.carts {
		c.carts[k] = copyCart(v)
	}
	for k, v := range s.accounts {
		cp := *v
		c.accounts[k] = &cp
	}
	for _, v := range s.transactions {
		cp := *v
		c.transactions = append(c.transactions, &cp)
	}
	return c
}

func copyCart(cart *domain.ShoppingCart) *domain.ShoppingCart {
	cp := *cart
	cp.Items = append([]domain.CartItem{}, cart.Items...)
	return &cp
}

func (s *memStore) repositories() repository.Repositories {
	return repository.Repositories{
		Customers:  &mockCustomerRepository{s},
		Categories: &mockCategoryRepository{s},
		Products:   &mockProductRepository{s},
		Rules:      &mockRuleRepository{s},
		Carts:      &mockCartRepository{s},
		Accounts:   &mockAccountRepository{s},
	}
}

// mockTxManager commits by replacing the store contents with the working copy
type mockTxManager struct {
	store    *memStore
	commits  int
	rollback int
}

func (m *mockTxManager) WithinTransaction(ctx context.Context, fn func(repos repository.Repositories) error) error {
	if err := m.store.fail("begin"); err != nil {
		return err
	}

	working := m.store.clone()
	if err := fn(working.repositories()); err != nil {
		m.rollback++
		return err
	}

	*m.store = *working
	m.commits++
	return nil
}

// Customers

type mockCustomerRepository struct{ s *memStore }

func (m *mockCustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	if err := m.s.fail("customers.create"); err != nil {
		return err
	}
	for _, existing := range m.s.customers {
		if existing.Email == customer.Email {
			return repository.ErrCustomerAlreadyExists
		}
	}
	customer.ID = m.s.id()
	customer.CreatedAt = time.Now()
	customer.UpdatedAt = customer.CreatedAt
	cp := *customer
	m.s.customers[customer.ID] = &cp
	return nil
}

func (m *mockCustomerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	if _, ok := m.s.customers[customer.ID]; !ok {
		return repository.ErrCustomerNotFound
	}
	for id, existing := range m.s.customers {
		if id != customer.ID && existing.Email == customer.Email {
			return repository.ErrCustomerAlreadyExists
		}
	}
	customer.UpdatedAt = time.Now()
	cp := *customer
	m.s.customers[customer.ID] = &cp
	return nil
}

func (m *mockCustomerRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.s.customers[id]; !ok {
		return repository.ErrCustomerNotFound
	}
	delete(m.s.customers, id)
	delete(m.s.accounts, id)
	delete(m.s.carts, id)
	return nil
}

func (m *mockCustomerRepository) FindByID(ctx context.Context, id int64) (*domain.Customer, error) {
	customer, ok := m.s.customers[id]
	if !ok {
		return nil, repository.ErrCustomerNotFound
	}
	cp := *customer
	return &cp, nil
}

func (m *mockCustomerRepository) List(ctx context.Context) ([]*domain.Customer, error) {
	customers := []*domain.Customer{}
	for _, c := range m.s.customers {
		cp := *c
		customers = append(customers, &cp)
	}
	sort.Slice(customers, func(i, j int) bool { return customers[i].ID < customers[j].ID })
	return customers, nil
}

// Categories

type mockCategoryRepository struct{ s *memStore }

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	for _, existing := range m.s.categories {
		if existing.Name == category.Name {
			return repository.ErrCategoryAlreadyExists
		}
	}
	category.ID = m.s.id()
	category.CreatedAt = time.Now()
	cp := *category
	m.s.categories[category.ID] = &cp
	return nil
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	categories := []*domain.Category{}
	for _, c := range m.s.categories {
		cp := *c
		categories = append(categories, &cp)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id int64) (*domain.Category, error) {
	if err := m.s.fail("categories.find"); err != nil {
		return nil, err
	}
	category, ok := m.s.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	cp := *category
	return &cp, nil
}

func (m *mockCategoryRepository) Count(ctx context.Context) (int, error) {
	return len(m.s.categories), nil
}

// Products

type mockProductRepository struct{ s *memStore }

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	product.ID = m.s.id()
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt
	cp := *product
	m.s.products[product.ID] = &cp
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if _, ok := m.s.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	product.UpdatedAt = time.Now()
	cp := *product
	m.s.products[product.ID] = &cp
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.s.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.s.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	if err := m.s.fail("products.find"); err != nil {
		return nil, err
	}
	product, ok := m.s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *product
	return &cp, nil
}

func (m *mockProductRepository) List(ctx context.Context, categoryID *int64, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error) {
	var matched []*domain.Product
	for _, p := range m.s.products {
		if categoryID != nil && (p.CategoryID == nil || *p.CategoryID != *categoryID) {
			continue
		}
		cp := *p
		matched = append(matched, &cp)
	}
	return paginate(matched, page, pageSize), len(matched), nil
}

func (m *mockProductRepository) Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	var matched []*domain.Product
	for _, p := range m.s.products {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(query)) {
			cp := *p
			matched = append(matched, &cp)
		}
	}
	return paginate(matched, page, pageSize), len(matched), nil
}

func paginate(products []*domain.Product, page, pageSize int) []*domain.Product {
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	start := (page - 1) * pageSize
	if start >= len(products) {
		return []*domain.Product{}
	}
	end := start + pageSize
	if end > len(products) {
		end = len(products)
	}
	return products[start:end]
}

// Rules

type mockRuleRepository struct{ s *memStore }

func (m *mockRuleRepository) Create(ctx context.Context, rule *domain.PointEarningRule) error {
	if _, ok := m.s.categories[rule.CategoryID]; !ok {
		return repository.ErrCategoryNotFound
	}
	rule.ID = m.s.id()
	rule.CreatedAt = time.Now()
	cp := *rule
	m.s.rules[rule.ID] = &cp
	return nil
}

func (m *mockRuleRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.s.rules[id]; !ok {
		return repository.ErrRuleNotFound
	}
	delete(m.s.rules, id)
	return nil
}

func (m *mockRuleRepository) FindByID(ctx context.Context, id int64) (*domain.PointEarningRule, error) {
	rule, ok := m.s.rules[id]
	if !ok {
		return nil, repository.ErrRuleNotFound
	}
	cp := *rule
	return &cp, nil
}

func (m *mockRuleRepository) ListByCategory(ctx context.Context, categoryID int64) ([]*domain.PointEarningRule, error) {
	rules := []*domain.PointEarningRule{}
	for _, r := range m.s.rules {
		if r.CategoryID == categoryID {
			cp := *r
			rules = append(rules, &cp)
		}
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules, nil
}

func (m *mockRuleRepository) FindActiveRule(ctx context.Context, categoryID int64, on time.Time) (*domain.PointEarningRule, error) {
	if err := m.s.fail("rules.active"); err != nil {
		return nil, err
	}
	var candidates []domain.PointEarningRule
	for _, r := range m.s.rules {
		if r.CategoryID == categoryID {
			candidates = append(candidates, *r)
		}
	}
	rule, ok := domain.ResolveActiveRule(candidates, on)
	if !ok {
		return nil, repository.ErrRuleNotFound
	}
	return rule, nil
}

// Carts

type mockCartRepository struct{ s *memStore }

func (m *mockCartRepository) byID(cartID int64) *domain.ShoppingCart {
	for _, cart := range m.s.carts {
		if cart.ID == cartID {
			return cart
		}
	}
	return nil
}

func (m *mockCartRepository) FindByCustomerID(ctx context.Context, customerID int64) (*domain.ShoppingCart, error) {
	if err := m.s.fail("carts.find"); err != nil {
		return nil, err
	}
	cart, ok := m.s.carts[customerID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return copyCart(cart), nil
}

func (m *mockCartRepository) GetOrCreate(ctx context.Context, customerID int64) (*domain.ShoppingCart, error) {
	if _, ok := m.s.customers[customerID]; !ok {
		return nil, repository.ErrCustomerNotFound
	}
	if _, ok := m.s.carts[customerID]; !ok {
		m.s.carts[customerID] = &domain.ShoppingCart{ID: m.s.id(), CustomerID: customerID, Items: []domain.CartItem{}, CreatedAt: time.Now()}
	}
	return copyCart(m.s.carts[customerID]), nil
}

func (m *mockCartRepository) AddItem(ctx context.Context, cartID, productID int64, quantity int) error {
	cart := m.byID(cartID)
	if cart == nil {
		return repository.ErrCartNotFound
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity += quantity
			return nil
		}
	}
	cart.Items = append(cart.Items, domain.CartItem{ProductID: productID, Quantity: quantity})
	return nil
}

func (m *mockCartRepository) UpdateItemQuantity(ctx context.Context, cartID, productID int64, quantity int) error {
	cart := m.byID(cartID)
	if cart == nil {
		return repository.ErrCartItemNotFound
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity = quantity
			return nil
		}
	}
	return repository.ErrCartItemNotFound
}

func (m *mockCartRepository) RemoveItem(ctx context.Context, cartID, productID int64) error {
	cart := m.byID(cartID)
	if cart == nil {
		return repository.ErrCartItemNotFound
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			return nil
		}
	}
	return repository.ErrCartItemNotFound
}

func (m *mockCartRepository) RemoveItems(ctx context.Context, cartID int64, productIDs []int64) error {
	if err := m.s.fail("carts.remove"); err != nil {
		return err
	}
	cart := m.byID(cartID)
	if cart == nil {
		return nil
	}
	drop := make(map[int64]bool, len(productIDs))
	for _, id := range productIDs {
		drop[id] = true
	}
	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if !drop[item.ProductID] {
			kept = append(kept, item)
		}
	}
	cart.Items = kept
	return nil
}

func (m *mockCartRepository) Clear(ctx context.Context, cartID int64) error {
	if err := m.s.fail("carts.clear"); err != nil {
		return err
	}
	if cart := m.byID(cartID); cart != nil {
		cart.Items = []domain.CartItem{}
	}
	return nil
}

// Loyalty accounts

type mockAccountRepository struct{ s *memStore }

func (m *mockAccountRepository) Create(ctx context.Context, account *domain.LoyaltyAccount) error {
	if err := m.s.fail("accounts.create"); err != nil {
		return err
	}
	if _, ok := m.s.customers[account.CustomerID]; !ok {
		return repository.ErrCustomerNotFound
	}
	if _, ok := m.s.accounts[account.CustomerID]; ok {
		return repository.ErrLoyaltyAccountAlreadyExists
	}
	account.ID = m.s.id()
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	cp := *account
	m.s.accounts[account.CustomerID] = &cp
	return nil
}

func (m *mockAccountRepository) FindByCustomerID(ctx context.Context, customerID int64) (*domain.LoyaltyAccount, error) {
	if err := m.s.fail("accounts.find"); err != nil {
		return nil, err
	}
	account, ok := m.s.accounts[customerID]
	if !ok {
		return nil, repository.ErrLoyaltyAccountNotFound
	}
	cp := *account
	return &cp, nil
}

func (m *mockAccountRepository) FindByCustomerIDForUpdate(ctx context.Context, customerID int64) (*domain.LoyaltyAccount, error) {
	return m.FindByCustomerID(ctx, customerID)
}

func (m *mockAccountRepository) Credit(ctx context.Context, accountID int64, points int64) (*domain.LoyaltyAccount, error) {
	if err := m.s.fail("accounts.credit"); err != nil {
		return nil, err
	}
	for _, account := range m.s.accounts {
		if account.ID == accountID {
			if account.Points+points < 0 {
				return nil, errors.New("points balance would become negative")
			}
			account.Points += points
			cp := *account
			return &cp, nil
		}
	}
	return nil, repository.ErrLoyaltyAccountNotFound
}

func (m *mockAccountRepository) AppendTransaction(ctx context.Context, record *domain.PointTransaction) error {
	if err := m.s.fail("accounts.append"); err != nil {
		return err
	}
	record.ID = m.s.id()
	cp := *record
	m.s.transactions = append(m.s.transactions, &cp)
	return nil
}

func (m *mockAccountRepository) ListTransactions(ctx context.Context, accountID int64) ([]*domain.PointTransaction, error) {
	records := []*domain.PointTransaction{}
	for i := len(m.s.transactions) - 1; i >= 0; i-- {
		if m.s.transactions[i].LoyaltyAccountID == accountID {
			cp := *m.s.transactions[i]
			records = append(records, &cp)
		}
	}
	return records, nil
}
