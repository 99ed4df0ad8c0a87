package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"habitta/internal/models"
	"habitta/internal/orders"
)

func toDoc(t testing.TB, v any) bson.D {
	t.Helper()
	data, err := bson.Marshal(v)
	require.NoError(t, err)
	var doc bson.D
	require.NoError(t, bson.Unmarshal(data, &doc))
	return doc
}

func mockT(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func sampleOrder() models.Order {
	return models.Order{
		ID:          primitive.NewObjectID(),
		OrderNumber: "HBT25110001",
		Status:      models.StatusPendingPayment,
		Items: []models.OrderItem{{
			Product:      primitive.NewObjectID(),
			Quantity:     2,
			Measurements: models.Measurements{Area: models.DecimalFromInt(5), Panels: 1},
			TotalPrice:   models.DecimalFromInt(900),
		}},
		StatusHistory: []models.StatusEntry{},
		Totals:        models.Totals{Total: models.DecimalFromInt(900)},
		CreatedAt:     time.Date(2025, time.November, 14, 12, 0, 0, 0, time.UTC),
	}
}

func TestOrderStore(t *testing.T) {
	mt := mockT(t)

	mt.Run("insert", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		store := NewOrderStore(mt.DB)

		order := sampleOrder()
		order.ID = primitive.NilObjectID
		require.NoError(mt, store.Insert(context.Background(), &order))
		assert.False(mt, order.ID.IsZero())
	})

	mt.Run("insert duplicate number", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: habitta.orders index: orderNumber_unique",
		}))
		store := NewOrderStore(mt.DB)

		order := sampleOrder()
		err := store.Insert(context.Background(), &order)
		assert.ErrorIs(mt, err, orders.ErrDuplicateOrderNumber)
	})

	mt.Run("find by number", func(mt *mtest.T) {
		want := sampleOrder()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "habitta.orders", mtest.FirstBatch, toDoc(mt, want)))
		store := NewOrderStore(mt.DB)

		got, err := store.FindByNumber(context.Background(), want.OrderNumber)
		require.NoError(mt, err)
		assert.Equal(mt, want.ID, got.ID)
		assert.Equal(mt, "900", got.Totals.Total.String())
		require.Len(mt, got.Items, 1)
		assert.Equal(mt, 2, got.Items[0].Quantity)
	})

	mt.Run("find returns stored snapshot prices", func(mt *mtest.T) {
		want := sampleOrder()
		want.Items[0].ProductSnapshot = models.ProductSnapshot{Name: "Blackout Lisboa", Price: models.DecimalFromInt(100), PriceUnit: "m2"}
		want.Items[0].UnitPrice = models.DecimalFromInt(100)
		want.Items[0].TotalPrice = models.DecimalFromInt(1500)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "habitta.orders", mtest.FirstBatch, toDoc(mt, want)))
		store := NewOrderStore(mt.DB)

		got, err := store.FindByID(context.Background(), want.ID)
		require.NoError(mt, err)
		require.Len(mt, got.Items, 1)
		assert.Equal(mt, "100", got.Items[0].UnitPrice.String())
		assert.Equal(mt, "1500", got.Items[0].TotalPrice.String())
		assert.Equal(mt, "100", got.Items[0].ProductSnapshot.Price.String())
	})

	mt.Run("find missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "habitta.orders", mtest.FirstBatch))
		store := NewOrderStore(mt.DB)

		_, err := store.FindByID(context.Background(), primitive.NewObjectID())
		assert.ErrorIs(mt, err, orders.ErrOrderNotFound)
	})

	mt.Run("append status", func(mt *mtest.T) {
		updated := sampleOrder()
		updated.Status = models.StatusInProduction
		updated.StatusHistory = []models.StatusEntry{{Status: models.StatusInProduction, Date: time.Now().UTC().Truncate(time.Millisecond)}}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(mt, updated)}))
		store := NewOrderStore(mt.DB)

		got, err := store.AppendStatus(context.Background(), updated.ID, nil, updated.StatusHistory[0])
		require.NoError(mt, err)
		assert.Equal(mt, models.StatusInProduction, got.Status)
		assert.Len(mt, got.StatusHistory, 1)
	})

	mt.Run("conditional append conflicts", func(mt *mtest.T) {
		current := sampleOrder()
		current.Status = models.StatusInProduction
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, "habitta.orders", mtest.FirstBatch, toDoc(mt, current)),
		)
		store := NewOrderStore(mt.DB)

		_, err := store.AppendStatus(context.Background(), current.ID, orders.CancellableStatuses(), models.StatusEntry{Status: models.StatusCancelled})
		assert.ErrorIs(mt, err, orders.ErrStatusConflict)
	})

	mt.Run("conditional append on missing order", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, "habitta.orders", mtest.FirstBatch),
		)
		store := NewOrderStore(mt.DB)

		_, err := store.AppendStatus(context.Background(), primitive.NewObjectID(), orders.CancellableStatuses(), models.StatusEntry{Status: models.StatusCancelled})
		assert.ErrorIs(mt, err, orders.ErrOrderNotFound)
	})

	mt.Run("list", func(mt *mtest.T) {
		first, second := sampleOrder(), sampleOrder()
		second.OrderNumber = "HBT25110002"
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "habitta.orders", mtest.FirstBatch, bson.D{{Key: "n", Value: int32(2)}}),
			mtest.CreateCursorResponse(0, "habitta.orders", mtest.FirstBatch, toDoc(mt, first), toDoc(mt, second)),
		)
		store := NewOrderStore(mt.DB)

		list, total, err := store.List(context.Background(), orders.ListFilter{Page: 1, Limit: 20})
		require.NoError(mt, err)
		assert.Equal(mt, int64(2), total)
		assert.Len(mt, list, 2)
	})
}

func TestOrderListQuery(t *testing.T) {
	customer := primitive.NewObjectID()
	from := time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC)
	query := orderListQuery(orders.ListFilter{
		Customer: &customer,
		Status:   models.StatusCompleted,
		DateFrom: &from,
	})

	assert.Equal(t, customer, query["customer"])
	assert.Equal(t, models.StatusCompleted, query["status"])
	assert.Equal(t, bson.M{"$gte": from}, query["createdAt"])

	assert.Empty(t, orderListQuery(orders.ListFilter{}))
	assert.Equal(t, bson.D{{Key: "totals.total", Value: -1}, {Key: "createdAt", Value: -1}}, orderListSort(orders.SortTotalDesc))
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, orderListSort(""))
}

func TestCounterSequencer(t *testing.T) {
	mt := mockT(t)

	mt.Run("next", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{
			Key:   "value",
			Value: bson.D{{Key: "_id", Value: "HBT2511"}, {Key: "value", Value: int64(7)}},
		}))
		seq := NewCounterSequencer(mt.DB)

		got, err := seq.Next(context.Background(), "HBT2511")
		require.NoError(mt, err)
		assert.Equal(mt, int64(7), got)
	})

	mt.Run("error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad", Name: "BadValue"}))
		seq := NewCounterSequencer(mt.DB)

		_, err := seq.Next(context.Background(), "HBT2511")
		assert.Error(mt, err)
	})
}

func TestCatalogStore(t *testing.T) {
	mt := mockT(t)

	mt.Run("get product snapshot", func(mt *mtest.T) {
		sheer := models.DecimalFromInt(60)
		product := models.Product{
			ID:               primitive.NewObjectID(),
			Name:             "Voil Porto",
			Price:            models.DecimalFromInt(35),
			PriceUnit:        "m2",
			Images:           []models.ProductImage{{URL: "/img/porto.jpg"}},
			AdditionalPrices: models.AdditionalPrices{Sheer: &sheer},
			IsActive:         true,
		}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "habitta.products", mtest.FirstBatch, toDoc(mt, product)))
		store := NewCatalogStore(mt.DB)

		snap, err := store.GetProduct(context.Background(), product.ID.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, product.ID.Hex(), snap.ProductID)
		assert.Equal(mt, "35", snap.BasePrice.String())
		assert.Equal(mt, "60", snap.Surcharges.SheerPerArea.String())
		assert.Equal(mt, "150", snap.Surcharges.ExpressInstallation.String())
		assert.Equal(mt, "50", snap.Surcharges.WallMounting.String())
		assert.Equal(mt, []string{"/img/porto.jpg"}, snap.Images)
	})

	mt.Run("unknown product", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "habitta.products", mtest.FirstBatch))
		store := NewCatalogStore(mt.DB)

		_, err := store.GetProduct(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, orders.ErrProductNotFound)

		_, err = store.GetProduct(context.Background(), "not-hex")
		assert.ErrorIs(mt, err, orders.ErrProductNotFound)
	})

	mt.Run("soft delete missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: int32(0)},
			bson.E{Key: "nModified", Value: int32(0)},
		))
		store := NewCatalogStore(mt.DB)

		err := store.SoftDeleteProduct(context.Background(), primitive.NewObjectID())
		assert.ErrorIs(mt, err, ErrProductNotFound)
	})

	mt.Run("create duplicate slug", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Code: 11000, Message: "E11000 duplicate key error"}))
		store := NewCatalogStore(mt.DB)

		product := models.Product{Name: "Linho Cascais", Price: models.DecimalFromInt(40)}
		err := store.CreateProduct(context.Background(), &product)
		assert.ErrorIs(mt, err, ErrDuplicateSlug)
		assert.Equal(mt, "linho-cascais", product.Slug)
	})
}

func TestCustomerStore(t *testing.T) {
	mt := mockT(t)

	mt.Run("duplicate email", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Code: 11000, Message: "E11000 duplicate key error"}))
		store := NewCustomerStore(mt.DB)

		customer := models.Customer{Email: " Ana@Example.PT "}
		err := store.Create(context.Background(), &customer)
		assert.ErrorIs(mt, err, ErrEmailTaken)
		assert.Equal(mt, "ana@example.pt", customer.Email)
	})

	mt.Run("find by email", func(mt *mtest.T) {
		want := models.Customer{ID: primitive.NewObjectID(), Email: "ana@example.pt", Role: models.RoleCustomer, IsActive: true}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "habitta.customers", mtest.FirstBatch, toDoc(mt, want)))
		store := NewCustomerStore(mt.DB)

		got, err := store.FindByEmail(context.Background(), "ANA@example.pt")
		require.NoError(mt, err)
		assert.Equal(mt, want.ID, got.ID)
	})

	mt.Run("claim refresh token", func(mt *mtest.T) {
		want := models.RefreshToken{ID: primitive.NewObjectID(), CustomerID: primitive.NewObjectID(), TokenHash: "cafebabe"}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(mt, want)}))
		store := NewRefreshTokenStore(mt.DB)

		got, err := store.Claim(context.Background(), "cafebabe")
		require.NoError(mt, err)
		assert.Equal(mt, want.ID, got.ID)
		assert.Equal(mt, want.CustomerID, got.CustomerID)
	})

	mt.Run("claim already revoked refresh token", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))
		store := NewRefreshTokenStore(mt.DB)

		_, err := store.Claim(context.Background(), "cafebabe")
		assert.ErrorIs(mt, err, ErrRefreshNotFound)
	})

	mt.Run("revoke unknown refresh token", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: int32(0)},
			bson.E{Key: "nModified", Value: int32(0)},
		))
		store := NewRefreshTokenStore(mt.DB)

		err := store.RevokeByHash(context.Background(), "deadbeef")
		assert.ErrorIs(mt, err, ErrRefreshNotFound)
	})
}
