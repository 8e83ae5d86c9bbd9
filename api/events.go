package api

import (
	"context"

	"github.com/gofiber/websocket/v2"
	"github.com/shopspring/decimal"

	"kairos/ent"
	"kairos/notify"
)

type saleEvent struct {
	SaleID int64           `json:"sale_id"`
	Total  decimal.Decimal `json:"total"`
	Items  int64           `json:"items,omitempty"`
}

type stockEvent struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
	Threshold int64  `json:"threshold"`
}

// events keeps a dashboard subscribed until the client goes away or the hub
// is closed.
func (s *Server) events(c *websocket.Conn) {
	if !s.hub.Subscribe(c) {
		c.Close()
		return
	}
	defer s.hub.Unsubscribe(c)

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}

// publishSale announces a committed sale and every sold product left at or
// below the low stock threshold. Failures are logged only.
func (s *Server) publishSale(ctx context.Context, saleID int64, in ent.Checkout) {
	var items int64
	seen := make(map[int64]struct{}, len(in.Items))
	ids := make([]int64, 0, len(in.Items))
	for _, it := range in.Items {
		items += it.Quantity
		if _, ok := seen[it.ProductID]; !ok {
			seen[it.ProductID] = struct{}{}
			ids = append(ids, it.ProductID)
		}
	}

	s.hub.Publish(notify.NewEvent(notify.SaleRegistered, saleEvent{
		SaleID: saleID,
		Total:  in.Total,
		Items:  items,
	}))

	for _, id := range ids {
		p, err := s.store.ProductByID(ctx, id)
		if err != nil {
			s.log.WithError(err).WithField("product_id", id).Warn("failed to read stock after sale")
			continue
		}
		if p.Quantity > s.cfg.LowStock {
			continue
		}
		s.hub.Publish(notify.NewEvent(notify.StockLow, stockEvent{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  p.Quantity,
			Threshold: s.cfg.LowStock,
		}))
	}
}

func (s *Server) publishRevert(saleID int64) {
	s.hub.Publish(notify.NewEvent(notify.SaleReverted, saleEvent{SaleID: saleID}))
}
