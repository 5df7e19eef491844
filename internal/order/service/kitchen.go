package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/remyvnkhiemtruong/12a6/internal/order/domain"
)

// KitchenItem is one aggregated preparation line on the kitchen display:
// identical customizations across orders collapse into a single count.
type KitchenItem struct {
	ProductName string      `json:"product_name"`
	Size        string      `json:"size,omitempty"`
	SugarLevel  string      `json:"sugar_level,omitempty"`
	IceLevel    string      `json:"ice_level,omitempty"`
	Quantity    int         `json:"quantity"`
	Orders      []ItemOrder `json:"orders"`
}

// ItemOrder points one aggregated line back at its source order item.
type ItemOrder struct {
	OrderID   string `json:"order_id"`
	ShortCode string `json:"short_code"`
	ItemIndex int    `json:"item_index"`
	Note      string `json:"note,omitempty"`
}

// KitchenView is the kitchen display payload. OldestWaitMinutes is the
// age of the longest-waiting order so the display can flag a backlog.
type KitchenView struct {
	Orders            []*domain.Order `json:"orders"`
	Aggregated        []KitchenItem   `json:"aggregated_items"`
	OldestWaitMinutes int             `json:"oldest_wait_minutes"`
}

// KitchenOrders lists confirmed/cooking orders, oldest first within
// priority, with undone items aggregated by product+customization,
// optionally restricted to one kitchen zone.
func (s *Service) KitchenOrders(ctx context.Context, zone string) (*KitchenView, error) {
	orders, err := s.List(ctx, Filter{
		Statuses: []domain.Status{domain.StatusConfirmed, domain.StatusCooking},
	})
	if err != nil {
		return nil, err
	}
	oldest := 0
	now := s.now()
	for _, o := range orders {
		if age := o.AgeMinutes(now); age > oldest {
			oldest = age
		}
	}
	return &KitchenView{
		Orders:            orders,
		Aggregated:        AggregateItems(orders, zone),
		OldestWaitMinutes: oldest,
	}, nil
}

// AggregateItems groups undone items across orders by product and
// customization. Pure function of the order sequence; independent of how
// orders are stored.
func AggregateItems(orders []*domain.Order, zone string) []KitchenItem {
	byKey := make(map[string]*KitchenItem)
	var keys []string
	for _, o := range orders {
		for i, it := range o.Items {
			if it.KitchenStatus == domain.KitchenDone {
				continue
			}
			if zone != "" && it.KitchenZone != zone {
				continue
			}
			size := ""
			if it.Size != nil {
				size = it.Size.Name
			}
			key := fmt.Sprintf("%s|%s|%s|%s", it.ProductName, size, it.SugarLevel, it.IceLevel)
			agg, ok := byKey[key]
			if !ok {
				agg = &KitchenItem{
					ProductName: it.ProductName,
					Size:        size,
					SugarLevel:  it.SugarLevel,
					IceLevel:    it.IceLevel,
				}
				byKey[key] = agg
				keys = append(keys, key)
			}
			agg.Quantity += it.Quantity
			agg.Orders = append(agg.Orders, ItemOrder{
				OrderID:   o.ID,
				ShortCode: o.ShortCode,
				ItemIndex: i,
				Note:      it.Note,
			})
		}
	}
	sort.Strings(keys)
	out := make([]KitchenItem, 0, len(keys))
	for _, k := range keys {
		out = append(out, *byKey[k])
	}
	return out
}
