package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"table-order/internal/cart"
	"table-order/internal/config"
	"table-order/internal/models"
	"table-order/internal/telemetry"

	"go.uber.org/zap"
)

var langs = []string{"ja", "en", "zh", "ko"}

func shopID() string {
	if v := os.Getenv("SHOP_ID"); v != "" {
		return v
	}
	return "shop-a"
}

func tableCount() int {
	if n, err := strconv.Atoi(os.Getenv("TABLES")); err == nil && n > 0 {
		return n
	}
	return 8
}

type table struct {
	number int
	people string
	lang   string
	cart   *cart.Cart
}

type generator struct {
	addr     string
	shop     string
	password string
	client   *http.Client
	log      *zap.Logger
	tables   []*table
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()

	log, _, _, shutdown, err := telemetry.Setup(ctx, "load-gen", telemetry.Options{
		Enabled:  cfg.TelemetryEnabled,
		Endpoint: cfg.OTLPEndpoint,
	})
	if err != nil {
		panic("failed to initialize telemetry: " + err.Error())
	}
	defer shutdown(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down load-gen...")
		cancel()
	}()

	interval := 2 * time.Second
	if v := os.Getenv("INTERVAL_MS"); v != "" {
		if ms, err := time.ParseDuration(v + "ms"); err == nil {
			interval = ms
		}
	}

	g := &generator{
		addr:     cfg.TableAPIAddr,
		shop:     shopID(),
		password: cfg.AdminPassword,
		client:   &http.Client{Timeout: 5 * time.Second},
		log:      log,
	}
	for i := 1; i <= tableCount(); i++ {
		g.tables = append(g.tables, &table{
			number: i,
			people: strconv.Itoa(1 + rand.IntN(6)),
			lang:   langs[rand.IntN(len(langs))],
			cart:   cart.New(cart.NewMemoryStorage()),
		})
	}

	log.Info("load-gen started",
		zap.String("target", g.addr),
		zap.String("shop_id", g.shop),
		zap.Int("tables", len(g.tables)),
		zap.Duration("interval", interval),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.visit(ctx, g.tables[rand.IntN(len(g.tables))])
		}
	}
}

// visit plays one round for a table: start or resume its session, fill the
// cart from the menu, order, look at the history and sometimes pay.
func (g *generator) visit(ctx context.Context, t *table) {
	var started struct {
		SessionID string `json:"sessionId"`
	}
	if _, err := g.call(ctx, http.MethodPost, "/session/start", map[string]any{
		"shopId": g.shop, "tableNumber": t.number,
	}, &started); err != nil {
		g.log.Warn("session start failed", zap.Int("table", t.number), zap.Error(err))
		return
	}

	var items []models.MenuItem
	if _, err := g.call(ctx, http.MethodGet, "/menu?shopId="+url.QueryEscape(g.shop), nil, &items); err != nil || len(items) == 0 {
		g.log.Warn("menu unavailable", zap.String("shop_id", g.shop), zap.Error(err))
		return
	}

	if err := g.fillCart(t, items); err != nil {
		g.log.Warn("cart update failed", zap.Error(err))
		return
	}
	numbers, _ := t.cart.ItemNumbers()
	expected, _ := t.cart.TotalPrice()
	if rand.Float64() < 0.05 {
		numbers = append(numbers, 999999)
	}

	var placed struct {
		OrderID string `json:"orderId"`
		Total   int64  `json:"total"`
	}
	status, err := g.call(ctx, http.MethodPost, "/order", map[string]any{
		"shopId": g.shop, "tableNumber": t.number, "sessionId": started.SessionID, "items": numbers,
	}, &placed)
	if err == nil && status == http.StatusOK {
		if cerr := t.cart.Clear(); cerr != nil {
			g.log.Warn("cart clear failed", zap.Int("table", t.number), zap.Error(cerr))
		}
	}

	g.log.Info("order sent",
		zap.Int("table", t.number),
		zap.String("session_id", started.SessionID),
		zap.Int("items", len(numbers)),
		zap.Int64("cart_total", expected),
		zap.Int64("order_total", placed.Total),
		zap.Int("http_status", status),
		zap.NamedError("error", err),
	)

	var history struct {
		Total      int64 `json:"total"`
		TotalCount int   `json:"totalCount"`
	}
	_, _ = g.call(ctx, http.MethodGet, fmt.Sprintf("/order/history?shopId=%s&sessionId=%s",
		url.QueryEscape(g.shop), url.QueryEscape(started.SessionID)), nil, &history)

	if rand.Float64() < 0.25 {
		var settled struct {
			TotalAmount int64 `json:"totalAmount"`
		}
		status, err := g.call(ctx, http.MethodPost, "/admin/settle", map[string]any{
			"sessionId": started.SessionID, "shopId": g.shop, "password": g.password,
		}, &settled)
		g.log.Info("table settled",
			zap.Int("table", t.number),
			zap.String("session_id", started.SessionID),
			zap.Int64("total_amount", settled.TotalAmount),
			zap.Int("history_count", history.TotalCount),
			zap.Int("http_status", status),
			zap.NamedError("error", err),
		)
	}
}

func (g *generator) fillCart(t *table, menu []models.MenuItem) error {
	for n := 1 + rand.IntN(3); n > 0; n-- {
		it := menu[rand.IntN(len(menu))]
		code := strconv.Itoa(it.MenuNumber)
		if err := t.cart.SavePending(cart.Pending{Code: code, ItemName: it.Name, ItemPrice: it.Price, Quantity: 1}); err != nil {
			return err
		}
		pending, ok, err := t.cart.Pending()
		if err != nil || !ok {
			return err
		}
		if err := t.cart.Add(cart.Item{
			Code:     pending.Code,
			Name:     pending.ItemName,
			Price:    pending.ItemPrice,
			Quantity: 1 + rand.IntN(3),
			ShopID:   g.shop,
			Table:    strconv.Itoa(t.number),
			Lang:     t.lang,
			People:   t.people,
		}); err != nil {
			return err
		}
		if err := t.cart.ClearPending(); err != nil {
			return err
		}
	}
	return nil
}

func (g *generator) call(ctx context.Context, method, path string, body, out any) (int, error) {
	var buf *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		buf = bytes.NewReader(b)
	} else {
		buf = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.addr+path, buf)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return resp.StatusCode, fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, e.Error)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}
