// Package reconcile computes how a guest cart merges into a server cart.
// It performs no I/O.
package reconcile

import "github.com/fjod/skincare-cart/internal/domain"

// ItemUpdate sets the quantity of an existing server cart line
type ItemUpdate struct {
	CartItemID string `json:"cart_item_id"`
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
}

// Conflict records a product present in both carts with differing quantities
type Conflict struct {
	ProductID   string `json:"product_id"`
	LocalQty    int    `json:"local_qty"`
	DBQty       int    `json:"db_qty"`
	FinalQty    int    `json:"final_qty"`
	ProductName string `json:"product_name"`
}

type Plan struct {
	ToAdd     []domain.LocalCartItem `json:"to_add"`
	ToUpdate  []ItemUpdate           `json:"to_update"`
	Conflicts []Conflict             `json:"conflicts"`
}

// Empty reports whether the plan requires no server cart mutation
func (p Plan) Empty() bool {
	return len(p.ToAdd) == 0 && len(p.ToUpdate) == 0
}

type SyncStats struct {
	MergedCount    int      `json:"merged_count"`
	AddedCount     int      `json:"added_count"`
	ConflictCount  int      `json:"conflict_count"`
	MergedProducts []string `json:"merged_products"`
}

// CompareCarts builds the merge plan. A product in both carts ends with
// max(local, server) quantity; server-only lines are never touched.
// Output order follows the local cart.
func CompareCarts(local []domain.LocalCartItem, server []domain.ServerCartItem) Plan {
	plan := Plan{
		ToAdd:     []domain.LocalCartItem{},
		ToUpdate:  []ItemUpdate{},
		Conflicts: []Conflict{},
	}
	if len(local) == 0 {
		return plan
	}

	byProduct := make(map[string]domain.ServerCartItem, len(server))
	for _, item := range server {
		byProduct[item.ProductID] = item
	}

	for _, item := range local {
		dbItem, ok := byProduct[item.ProductID]
		if !ok {
			plan.ToAdd = append(plan.ToAdd, item)
			continue
		}

		finalQty := max(item.Quantity, dbItem.Quantity)
		if finalQty == dbItem.Quantity {
			continue
		}

		plan.ToUpdate = append(plan.ToUpdate, ItemUpdate{
			CartItemID: dbItem.CartItemID,
			ProductID:  item.ProductID,
			Quantity:   finalQty,
		})
		if item.Quantity != dbItem.Quantity {
			plan.Conflicts = append(plan.Conflicts, Conflict{
				ProductID:   item.ProductID,
				LocalQty:    item.Quantity,
				DBQty:       dbItem.Quantity,
				FinalQty:    finalQty,
				ProductName: dbItem.Product.Name,
			})
		}
	}

	return plan
}

func CalculateSyncStats(toAdd []domain.LocalCartItem, toUpdate []ItemUpdate, conflicts []Conflict) SyncStats {
	names := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		names = append(names, c.ProductName)
	}
	return SyncStats{
		MergedCount:    len(toAdd) + len(toUpdate),
		AddedCount:     len(toAdd),
		ConflictCount:  len(conflicts),
		MergedProducts: names,
	}
}
