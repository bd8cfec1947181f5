package changefeed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFilterMatches(t *testing.T) {
	change := Change{Collection: CollectionLineItems, DocumentID: "li-1", ParentID: "so-1"}

	require.True(t, Filter{}.Matches(change))
	require.True(t, Filter{Collection: CollectionLineItems}.Matches(change))
	require.True(t, Filter{Collection: CollectionLineItems, ParentID: "so-1"}.Matches(change))
	require.False(t, Filter{Collection: CollectionOrders}.Matches(change))
	require.False(t, Filter{ParentID: "so-2"}.Matches(change))
}

func TestEncodeDecode(t *testing.T) {
	at := time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)
	change := Change{
		Collection: CollectionCatalogueProducts,
		DocumentID: "p-1",
		ParentID:   "store-1",
		Kind:       KindUpdated,
		Fields:     map[string]any{"stock": float64(3)},
		At:         at,
	}
	data, err := Encode(change)
	require.NoError(t, err)
	decoded, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, change, decoded)
}
