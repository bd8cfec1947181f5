package mapper

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/retail-ops/internal/domains/orders/domain"
)

func TestFromStoreOrder_TotalsAndStatuses(t *testing.T) {
	updated := decimal.RequireFromString("0.90")
	so := &domain.StoreOrder{
		ID: "so-1", OrderID: "o-1", StoreID: "s-1", Status: domain.StatusAccepted,
		CreatedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		Items: []domain.LineItem{
			{ID: "i-1", ProductID: "apple", Name: "Apple", UnitPrice: decimal.RequireFromString("1.00"), Quantity: 2, Status: domain.StatusAccepted, UpdatedPrice: &updated},
			{ID: "i-2", ProductID: "pear", Name: "Pear", UnitPrice: decimal.RequireFromString("2.00"), Quantity: 1, Status: domain.StatusRejected, RejectionReason: "out of stock"},
		},
	}
	out := FromStoreOrder(so)
	require.Equal(t, "accepted", out.Status)
	require.Equal(t, so.Total().StringFixed(2), out.Total)
	require.Len(t, out.Items, 2)
	require.Equal(t, "out of stock", out.Items[1].RejectionReason)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"updatedPrice":"0.9"`)
}

func TestToPlaceOrderInput_TrimsIdentifiers(t *testing.T) {
	input := ToPlaceOrderInput(PlaceOrderRequest{
		UserID:   " user-1 ",
		Location: Location{Address: "1 Main St", Lat: 1, Lng: 2},
		StoreOrders: []PlaceStoreOrderRequest{{
			StoreID: " s-1 ",
			Items:   []PlaceLineItemRequest{{ProductID: "apple", Name: "Apple", UnitPrice: decimal.NewFromInt(1), Quantity: 3}},
		}},
	})
	require.Equal(t, "user-1", input.UserID)
	require.Equal(t, "s-1", input.StoreOrders[0].StoreID)
	require.Equal(t, 3, input.StoreOrders[0].Items[0].Quantity)
	require.Equal(t, 2.0, input.Location.Lng)
}
