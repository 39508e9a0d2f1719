package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beanstand/internal/errs"
	"beanstand/internal/model"
	"beanstand/internal/state"
	"beanstand/internal/storage"
)

var (
	admin    = model.User{ID: 1, Name: "Kanri Taro", Email: "admin@example.com", Role: model.RoleAdmin}
	customer = model.User{ID: 2, Name: "Sato Hanako", Email: "sato@example.com", Role: model.RoleCustomer}
)

func TestBuildSortsNewestFirst(t *testing.T) {
	st := storage.New(state.NewInMemoryStore(), nil)
	require.NoError(t, st.SaveUser(customer))
	_, err := st.CreateDeliveryOrder(model.DeliveryOrder{
		UserID: customer.ID, Date: "2024-01-02", Status: model.DeliveryPending, CreatedAt: 100,
	})
	require.NoError(t, err)
	_, err = st.CreateRetailOrder(model.RetailOrder{
		UserID: customer.ID, Date: "2024-01-05", TotalPrice: 1500,
		Status: model.RetailPaid, CreatedAt: 200,
	})
	require.NoError(t, err)

	entries, err := NewService(st).Build(admin)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "retail", entries[0].OrderType)
	assert.Equal(t, "2024-01-05", entries[0].Date)
	assert.Equal(t, "delivery", entries[1].OrderType)
}

func TestBuildLabels(t *testing.T) {
	st := storage.New(state.NewInMemoryStore(), nil)
	require.NoError(t, st.SaveUser(customer))
	_, err := st.CreateDeliveryOrder(model.DeliveryOrder{
		UserID: customer.ID, Date: "2024-01-02", Status: model.DeliveryPending, CreatedAt: 100,
	})
	require.NoError(t, err)
	ro, err := st.CreateRetailOrder(model.RetailOrder{
		UserID: customer.ID, Date: "2024-01-01", TotalPrice: 3000,
		Status: model.RetailPaid, CreatedAt: 50,
	})
	require.NoError(t, err)

	entries, err := NewService(st).Build(admin)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	d := entries[0]
	assert.Equal(t, "delivery", d.OrderType)
	assert.Equal(t, "new", d.StatusLabel)
	assert.Equal(t, "unsettled", d.PaymentLabel)
	assert.False(t, d.Drillable)
	assert.ElementsMatch(t, []string{"delivered", "cancelled"}, d.AllowedStatuses)
	assert.Equal(t, "Sato Hanako", d.CustomerName)

	r := entries[1]
	assert.Equal(t, "retail", r.OrderType)
	assert.Equal(t, ro.OrderID, r.OrderID)
	assert.Equal(t, "new", r.StatusLabel)
	assert.Equal(t, "settled", r.PaymentLabel)
	assert.True(t, r.Drillable)
	assert.Equal(t, []string{"shipped"}, r.AllowedStatuses)
	assert.Equal(t, int64(3000), r.Amount)

	// Advance the retail order and the labels follow.
	ro.Status = model.RetailShipped
	require.NoError(t, st.SaveRetailOrder(ro))
	entries, err = NewService(st).Build(admin)
	require.NoError(t, err)
	assert.Equal(t, "preparing", entries[1].StatusLabel)
	assert.Equal(t, "unsettled", entries[1].PaymentLabel)
	assert.Equal(t, []string{"delivered"}, entries[1].AllowedStatuses)
}

func TestBuildRequiresAdmin(t *testing.T) {
	st := storage.New(state.NewInMemoryStore(), nil)
	_, err := NewService(st).Build(customer)
	assert.Equal(t, errs.KindAuthorization, errs.KindOf(err))
}
