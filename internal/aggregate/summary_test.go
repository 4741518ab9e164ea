package aggregate

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"table-order/internal/models"
)

func testLookup() Lookup {
	return NewLookup([]models.MenuItem{
		{MenuNumber: 101, Name: "Karaage", Price: 500, IsActive: true},
		{MenuNumber: 205, Name: "Highball", Price: 800, IsActive: true},
		{MenuNumber: 310, Name: "Edamame", Price: 300, IsActive: false},
	})
}

func testOrders() []models.Order {
	return []models.Order{
		{ID: "o1", Items: []int{101, 101, 205}, SubTotal: 1800},
		{ID: "o2", Items: []int{310}, SubTotal: 300},
		{ID: "o3", Items: []int{999, 101}, SubTotal: 500},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(testOrders(), testLookup())

	assert.Equal(t, []Line{
		{Code: "101", Name: "Karaage", Price: 500, Quantity: 3},
		{Code: "205", Name: "Highball", Price: 800, Quantity: 1},
		{Code: "310", Name: "Edamame", Price: 300, Quantity: 1},
		{Code: "999", Name: "#999", Price: 0, Quantity: 1},
	}, s.Items)
	assert.Equal(t, 6, s.TotalCount)
	assert.Equal(t, int64(3*500+800+300), s.TotalAmount)
}

func TestSummarizeTotalsMatchLines(t *testing.T) {
	orders := testOrders()
	s := Summarize(orders, testLookup())

	occurrences := 0
	for _, o := range orders {
		occurrences += len(o.Items)
	}
	var amount int64
	for _, l := range s.Items {
		amount += l.Price * int64(l.Quantity)
	}
	assert.Equal(t, occurrences, s.TotalCount)
	assert.Equal(t, amount, s.TotalAmount)
}

func TestSummarizeCountsEveryOccurrence(t *testing.T) {
	s := Summarize([]models.Order{{ID: "o1", Items: []int{101, 0, -4, 0}}}, testLookup())

	assert.Equal(t, []Line{
		{Code: "-4", Name: "#-4", Quantity: 1},
		{Code: "0", Name: "#0", Quantity: 2},
		{Code: "101", Name: "Karaage", Price: 500, Quantity: 1},
	}, s.Items)
	assert.Equal(t, 4, s.TotalCount)
	assert.Equal(t, int64(500), s.TotalAmount)
}

func TestSummarizeOrderIndependent(t *testing.T) {
	orders := testOrders()
	want := Summarize(orders, testLookup())

	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 20; i++ {
		shuffled := append([]models.Order(nil), orders...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, Summarize(shuffled, testLookup()))
	}
}

func TestSummarizeWithoutLookup(t *testing.T) {
	s := Summarize(testOrders(), nil)
	require.Len(t, s.Items, 4)
	assert.Equal(t, "#101", s.Items[0].Name)
	assert.Zero(t, s.TotalAmount)
	assert.Equal(t, 6, s.TotalCount)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, testLookup())
	assert.NotNil(t, s.Items)
	assert.Empty(t, s.Items)
	assert.Zero(t, s.TotalCount)
}

func TestLedgerTotal(t *testing.T) {
	assert.Equal(t, int64(2600), LedgerTotal(testOrders()))
	assert.Zero(t, LedgerTotal(nil))
}
