package aggregate

import (
	"sort"
	"strconv"

	"table-order/internal/models"
)

// Lookup resolves menu numbers of one shop. A nil Lookup resolves nothing.
type Lookup map[int]models.MenuItem

func NewLookup(items []models.MenuItem) Lookup {
	l := make(Lookup, len(items))
	for _, it := range items {
		l[it.MenuNumber] = it
	}
	return l
}

func (l Lookup) Get(menuNumber int) (models.MenuItem, bool) {
	it, ok := l[menuNumber]
	return it, ok
}

type Line struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

type Summary struct {
	Items       []Line `json:"items"`
	TotalAmount int64  `json:"total"`
	TotalCount  int    `json:"totalCount"`
}

// Summarize folds every item of every order into one line per menu number.
// Numbers missing from the lookup keep a "#<n>" name and a zero price. Lines
// come out sorted by menu number so the result does not depend on order.
func Summarize(orders []models.Order, lookup Lookup) Summary {
	counts := make(map[int]int)
	for _, o := range orders {
		for _, n := range o.Items {
			counts[n]++
		}
	}

	numbers := make([]int, 0, len(counts))
	for n := range counts {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	s := Summary{Items: make([]Line, 0, len(numbers))}
	for _, n := range numbers {
		line := Line{
			Code:     strconv.Itoa(n),
			Name:     "#" + strconv.Itoa(n),
			Quantity: counts[n],
		}
		if it, ok := lookup.Get(n); ok {
			line.Name = it.Name
			line.Price = it.Price
		}
		s.Items = append(s.Items, line)
		s.TotalCount += line.Quantity
		s.TotalAmount += line.Price * int64(line.Quantity)
	}
	return s
}

// LedgerTotal is the billing total: the sum of subtotals recorded at order time.
func LedgerTotal(orders []models.Order) int64 {
	var total int64
	for _, o := range orders {
		total += o.SubTotal
	}
	return total
}
