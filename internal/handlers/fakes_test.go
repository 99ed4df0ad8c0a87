package handlers

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"habitta/internal/database"
	"habitta/internal/models"
)

type fakeCatalog struct {
	mu        sync.Mutex
	products  map[primitive.ObjectID]models.Product
	lastQuery database.ProductQuery
	lastSet   bson.M
}

func newFakeCatalog(products ...models.Product) *fakeCatalog {
	f := &fakeCatalog{products: map[primitive.ObjectID]models.Product{}}
	for _, p := range products {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeCatalog) ListProducts(_ context.Context, q database.ProductQuery) ([]models.Product, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = q
	out := make([]models.Product, 0, len(f.products))
	for _, p := range f.products {
		if p.IsActive && !p.IsDeleted {
			p.Decorate()
			out = append(out, p)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeCatalog) FindProduct(_ context.Context, identifier string) (models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if (p.Slug == identifier || p.ID.Hex() == identifier) && p.IsActive && !p.IsDeleted {
			p.Decorate()
			return p, nil
		}
	}
	return models.Product{}, database.ErrProductNotFound
}

func (f *fakeCatalog) ProductByID(_ context.Context, id primitive.ObjectID) (models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok || p.IsDeleted {
		return models.Product{}, database.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeCatalog) CreateProduct(_ context.Context, product *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if product.Slug == "" {
		product.Slug = models.Slugify(product.Name)
	}
	for _, p := range f.products {
		if p.Slug == product.Slug {
			return database.ErrDuplicateSlug
		}
	}
	product.ID = primitive.NewObjectID()
	f.products[product.ID] = *product
	return nil
}

func (f *fakeCatalog) UpdateProduct(_ context.Context, id primitive.ObjectID, set bson.M) (models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSet = set
	p, ok := f.products[id]
	if !ok || p.IsDeleted {
		return models.Product{}, database.ErrProductNotFound
	}
	if v, ok := set["name"].(string); ok {
		p.Name = v
	}
	if v, ok := set["price"].(models.Decimal); ok {
		p.Price = v
	}
	if _, ok := set["originalPrice"]; ok {
		if v, ok := set["originalPrice"].(models.Decimal); ok {
			p.OriginalPrice = &v
		} else {
			p.OriginalPrice = nil
		}
	}
	if v, ok := set["images"].([]models.ProductImage); ok {
		p.Images = v
	}
	f.products[id] = p
	p.Decorate()
	return p, nil
}

func (f *fakeCatalog) SoftDeleteProduct(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok || p.IsDeleted {
		return database.ErrProductNotFound
	}
	p.IsDeleted = true
	p.IsActive = false
	f.products[id] = p
	return nil
}

func (f *fakeCatalog) AddImage(ctx context.Context, id primitive.ObjectID, image models.ProductImage) (models.Product, error) {
	p, err := f.ProductByID(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	if len(p.Images) == 0 {
		image.IsMain = true
	}
	return f.UpdateProduct(ctx, id, bson.M{"images": append(slices.Clone(p.Images), image)})
}

func (f *fakeCatalog) RemoveImage(ctx context.Context, id primitive.ObjectID, url string) (models.Product, error) {
	p, err := f.ProductByID(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	idx := slices.IndexFunc(p.Images, func(img models.ProductImage) bool { return img.URL == url })
	if idx < 0 {
		return models.Product{}, database.ErrProductNotFound
	}
	return f.UpdateProduct(ctx, id, bson.M{"images": slices.Delete(slices.Clone(p.Images), idx, idx+1)})
}

type fakeCategories struct {
	mu    sync.Mutex
	items []models.Category
}

func (f *fakeCategories) Visible(context.Context) ([]models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Category, 0)
	for _, c := range f.items {
		if c.IsActive && c.IsVisible {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCategories) All(_ context.Context, active *bool) ([]models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Category, 0)
	for _, c := range f.items {
		if active == nil || c.IsActive == *active {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCategories) Create(_ context.Context, category *models.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.items {
		if c.Slug == category.Slug {
			return database.ErrCategoryExists
		}
	}
	category.ID = primitive.NewObjectID()
	f.items = append(f.items, *category)
	return nil
}

func (f *fakeCategories) Update(_ context.Context, id primitive.ObjectID, set bson.M) (models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.items {
		if c.ID != id {
			continue
		}
		if v, ok := set["name"].(string); ok {
			c.Name = v
		}
		if v, ok := set["isVisible"].(bool); ok {
			c.IsVisible = v
		}
		f.items[i] = c
		return c, nil
	}
	return models.Category{}, database.ErrCategoryNotFound
}

func (f *fakeCategories) Deactivate(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.items {
		if c.ID == id {
			f.items[i].IsActive = false
			return nil
		}
	}
	return database.ErrCategoryNotFound
}

type fakeCustomers struct {
	mu      sync.Mutex
	byID    map[primitive.ObjectID]models.Customer
	touched []primitive.ObjectID
}

func newFakeCustomers() *fakeCustomers {
	return &fakeCustomers{byID: map[primitive.ObjectID]models.Customer{}}
}

func (f *fakeCustomers) Create(_ context.Context, customer *models.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byID {
		if c.Email == customer.Email {
			return database.ErrEmailTaken
		}
	}
	if customer.ID.IsZero() {
		customer.ID = primitive.NewObjectID()
	}
	f.byID[customer.ID] = *customer
	return nil
}

func (f *fakeCustomers) FindByEmail(_ context.Context, email string) (models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byID {
		if c.Email == email {
			return c, nil
		}
	}
	return models.Customer{}, database.ErrCustomerNotFound
}

func (f *fakeCustomers) FindByID(_ context.Context, id primitive.ObjectID) (models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return models.Customer{}, database.ErrCustomerNotFound
	}
	return c, nil
}

func (f *fakeCustomers) Update(_ context.Context, id primitive.ObjectID, set bson.M) (models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return models.Customer{}, database.ErrCustomerNotFound
	}
	if v, ok := set["firstName"].(string); ok {
		c.FirstName = v
	}
	if v, ok := set["phone"].(string); ok {
		c.Phone = v
	}
	if v, ok := set["passwordHash"].(string); ok {
		c.PasswordHash = v
	}
	f.byID[id] = c
	return c, nil
}

func (f *fakeCustomers) TouchLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, id)
	if c, ok := f.byID[id]; ok {
		c.LastLogin = &at
		f.byID[id] = c
	}
	return nil
}

type fakeRefreshTokens struct {
	mu     sync.Mutex
	tokens map[primitive.ObjectID]models.RefreshToken
}

func newFakeRefreshTokens() *fakeRefreshTokens {
	return &fakeRefreshTokens{tokens: map[primitive.ObjectID]models.RefreshToken{}}
}

func (f *fakeRefreshTokens) Insert(_ context.Context, token *models.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if token.ID.IsZero() {
		token.ID = primitive.NewObjectID()
	}
	f.tokens[token.ID] = *token
	return nil
}

func (f *fakeRefreshTokens) Claim(_ context.Context, hash string) (models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, t := range f.tokens {
		if t.TokenHash == hash && !t.Revoked {
			claimed := t
			claimed.Revoked = true
			f.tokens[id] = claimed
			return t, nil
		}
	}
	return models.RefreshToken{}, database.ErrRefreshNotFound
}

func (f *fakeRefreshTokens) Revoke(_ context.Context, id primitive.ObjectID, replacedBy *primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.tokens[id]
	t.Revoked = true
	t.ReplacedByToken = replacedBy
	f.tokens[id] = t
	return nil
}

func (f *fakeRefreshTokens) RevokeByHash(_ context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, t := range f.tokens {
		if t.TokenHash == hash && !t.Revoked {
			t.Revoked = true
			f.tokens[id] = t
			return nil
		}
	}
	return database.ErrRefreshNotFound
}

var (
	_ ProductCatalog         = (*fakeCatalog)(nil)
	_ CategoryRepository     = (*fakeCategories)(nil)
	_ CustomerRepository     = (*fakeCustomers)(nil)
	_ RefreshTokenRepository = (*fakeRefreshTokens)(nil)
)
