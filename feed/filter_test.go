package feed_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"retail-order-feed/backend"
	"retail-order-feed/feed"
)

func sampleOrders() []backend.Order {
	return []backend.Order{
		{ID: "o1", Customer: backend.Customer{ID: "c1", Name: "Asha Rao"}, Status: backend.StatusPending},
		{ID: "o2", Customer: backend.Customer{ID: "c2", Name: "Bert Miller"}, Status: backend.StatusPaid},
		{ID: "o3", Customer: backend.Customer{ID: "c3"}, Status: backend.StatusPaid}, // unresolved name
		{ID: "o4", Customer: backend.Customer{ID: "c4", Name: "asha k"}, Status: backend.StatusCancelled},
	}
}

func TestFilter_IdentityOnEmptyFilters(t *testing.T) {
	orders := sampleOrders()
	assert.Equal(t, orders, feed.Filter(orders, "", ""))
}

func TestFilter_NameIsCaseInsensitiveSubstring(t *testing.T) {
	got := feed.Filter(sampleOrders(), "ASHA", "")
	assert.Len(t, got, 2)
	assert.Equal(t, "o1", got[0].ID)
	assert.Equal(t, "o4", got[1].ID)
}

func TestFilter_UnresolvedNameNeverMatches(t *testing.T) {
	got := feed.Filter(sampleOrders(), "anything", "")
	for _, order := range got {
		assert.NotEqual(t, "o3", order.ID)
	}

	// But an unresolved name passes an empty name filter.
	got = feed.Filter(sampleOrders(), "", backend.StatusPaid)
	assert.Len(t, got, 2)
}

func TestFilter_StatusExactMatch(t *testing.T) {
	got := feed.Filter(sampleOrders(), "", backend.StatusCancelled)
	assert.Len(t, got, 1)
	assert.Equal(t, "o4", got[0].ID)
}

func TestFilter_CombinedFilters(t *testing.T) {
	got := feed.Filter(sampleOrders(), "asha", backend.StatusPending)
	assert.Len(t, got, 1)
	assert.Equal(t, "o1", got[0].ID)
}

func TestFilter_Idempotent(t *testing.T) {
	orders := sampleOrders()
	once := feed.Filter(orders, "asha", backend.StatusPending)
	twice := feed.Filter(once, "asha", backend.StatusPending)
	assert.Equal(t, once, twice)
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	orders := sampleOrders()
	feed.Filter(orders, "bert", backend.StatusPaid)
	assert.Equal(t, sampleOrders(), orders)
}
