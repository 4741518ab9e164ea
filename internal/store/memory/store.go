package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"table-order/internal/aggregate"
	"table-order/internal/models"
	"table-order/internal/store"
)

// Store keeps every collection in maps guarded by one RWMutex. It backs local
// runs and tests.
type Store struct {
	mu       sync.RWMutex
	menu     map[string]map[int]models.MenuItem
	tables   map[string]models.TableBinding
	sessions map[string]models.Session
	orders   map[string][]models.Order
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		menu:     make(map[string]map[int]models.MenuItem),
		tables:   make(map[string]models.TableBinding),
		sessions: make(map[string]models.Session),
		orders:   make(map[string][]models.Order),
	}
}

func (s *Store) ListMenu(_ context.Context, shopID string, activeOnly bool) ([]models.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]models.MenuItem, 0, len(s.menu[shopID]))
	for _, it := range s.menu[shopID] {
		if activeOnly && !it.IsActive {
			continue
		}
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].MenuNumber < items[j].MenuNumber })
	return items, nil
}

func (s *Store) PutMenuItem(_ context.Context, item models.MenuItem) error {
	if item.ShopID == "" || item.MenuNumber <= 0 {
		return fmt.Errorf("%w: menu item needs shopId and a positive menuNumber", models.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	shop, ok := s.menu[item.ShopID]
	if !ok {
		shop = make(map[int]models.MenuItem)
		s.menu[item.ShopID] = shop
	}
	shop[item.MenuNumber] = item
	return nil
}

func (s *Store) StartSession(_ context.Context, shopID string, tableNumber int, decide store.StartFunc) (models.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := models.TableKey(shopID, tableNumber)
	var binding *models.TableBinding
	var current *models.Session
	if b, ok := s.tables[key]; ok {
		binding = &b
		if sess, ok := s.sessions[b.CurrentSessionID]; ok && b.CurrentSessionID != "" {
			current = &sess
		}
	}

	next, err := decide(binding, current)
	if err != nil {
		return models.Session{}, false, err
	}
	if next == nil {
		if current == nil {
			return models.Session{}, false, errors.New("start decision reused a table without a session")
		}
		return *current, false, nil
	}

	s.sessions[next.ID] = *next
	s.tables[key] = models.TableBinding{
		ShopID:           shopID,
		TableNumber:      tableNumber,
		CurrentSessionID: next.ID,
		IsOccupied:       true,
		UpdatedAt:        next.CreatedAt,
	}
	return *next, true, nil
}

func (s *Store) GetTable(_ context.Context, shopID string, tableNumber int) (models.TableBinding, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.tables[models.TableKey(shopID, tableNumber)]
	return b, ok, nil
}

func (s *Store) GetSession(_ context.Context, id string) (models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return models.Session{}, models.ErrSessionNotFound
	}
	return sess, nil
}

func (s *Store) AppendOrder(_ context.Context, order models.Order) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[order.SessionID]
	if !ok {
		return models.Session{}, models.ErrSessionNotFound
	}
	if !sess.AcceptsOrders() {
		return models.Session{}, models.ErrSessionClosed
	}

	order.Items = append([]int(nil), order.Items...)
	s.orders[order.SessionID] = append(s.orders[order.SessionID], order)
	sess.TotalAmount += order.SubTotal
	sess.UpdatedAt = order.CreatedAt
	s.sessions[sess.ID] = sess
	return sess, nil
}

func (s *Store) ListOrders(_ context.Context, sessionID string) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneOrders(s.orders[sessionID]), nil
}

func (s *Store) SettleSession(_ context.Context, sessionID string, now time.Time) (models.Session, []models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return models.Session{}, nil, models.ErrSessionNotFound
	}
	orders := cloneOrders(s.orders[sessionID])
	sess.MarkPaid(aggregate.LedgerTotal(orders), now)
	s.sessions[sessionID] = sess

	key := models.TableKey(sess.ShopID, sess.TableNumber)
	if b, ok := s.tables[key]; ok && b.CurrentSessionID == sessionID {
		b.IsOccupied = false
		b.UpdatedAt = now
		s.tables[key] = b
	}
	return sess, orders, nil
}

func (s *Store) Close() {}

func cloneOrders(in []models.Order) []models.Order {
	out := make([]models.Order, len(in))
	for i, o := range in {
		o.Items = append([]int(nil), o.Items...)
		out[i] = o
	}
	return out
}
