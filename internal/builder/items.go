package builder

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/osgbhub/osgbhub-backend/pkg/errors"
	"github.com/osgbhub/osgbhub-backend/pkg/enums"
	"github.com/osgbhub/osgbhub-backend/pkg/types"
)

// ItemPatch carries the editable fields of a line item. Nil means "leave
// unchanged". DiscountType travels with Discount so a fixed discount can
// never be applied under a stale type.
type ItemPatch struct {
	Description  *string             `json:"description,omitempty"`
	Quantity     *int                `json:"quantity,omitempty"`
	UnitPrice    *decimal.Decimal    `json:"unit_price,omitempty"`
	Discount     *decimal.Decimal    `json:"discount,omitempty"`
	DiscountType *enums.DiscountType `json:"discount_type,omitempty"`
	TaxRate      *decimal.Decimal    `json:"tax_rate,omitempty"`
}

// cloneItems copies the slice so every mutation produces fresh state and
// callers never observe partial edits.
func cloneItems(items []types.LineItem) []types.LineItem {
	out := make([]types.LineItem, len(items))
	copy(out, items)
	return out
}

// renumber reassigns contiguous positions after any structural change.
func renumber(items []types.LineItem) []types.LineItem {
	for i := range items {
		items[i].Position = i
	}
	return items
}

func indexOf(items []types.LineItem, id uuid.UUID) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

// AddItem appends the item at the end of the list and assigns its position.
func AddItem(items []types.LineItem, item types.LineItem) ([]types.LineItem, error) {
	if err := validateItem(item); err != nil {
		return nil, err
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	out := append(cloneItems(items), item)
	return renumber(out), nil
}

// RemoveItem deletes the item with the given id and closes the gap. Removing
// an id that is not in the list is a no-op.
func RemoveItem(items []types.LineItem, id uuid.UUID) ([]types.LineItem, error) {
	idx := indexOf(items, id)
	if idx < 0 {
		return cloneItems(items), nil
	}
	out := cloneItems(items)
	out = append(out[:idx], out[idx+1:]...)
	return renumber(out), nil
}

// ReorderItem moves the item to the target position, shifting the items in
// between. It is a move, not a swap. Targets outside the list clamp to the
// nearest end.
func ReorderItem(items []types.LineItem, id uuid.UUID, target int) ([]types.LineItem, error) {
	idx := indexOf(items, id)
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("line item %s not found", id))
	}
	if target < 0 {
		target = 0
	}
	if target >= len(items) {
		target = len(items) - 1
	}

	out := cloneItems(items)
	moved := out[idx]
	out = append(out[:idx], out[idx+1:]...)
	out = append(out[:target], append([]types.LineItem{moved}, out[target:]...)...)
	return renumber(out), nil
}

// UpdateItem applies the non-nil fields of the patch to the item with the
// given id.
func UpdateItem(items []types.LineItem, id uuid.UUID, patch ItemPatch) ([]types.LineItem, error) {
	idx := indexOf(items, id)
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("line item %s not found", id))
	}

	out := cloneItems(items)
	item := &out[idx]
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	if patch.Quantity != nil {
		item.Quantity = *patch.Quantity
	}
	if patch.UnitPrice != nil {
		item.UnitPrice = *patch.UnitPrice
	}
	if patch.Discount != nil {
		item.Discount = *patch.Discount
	}
	if patch.DiscountType != nil {
		item.DiscountType = *patch.DiscountType
	}
	if patch.TaxRate != nil {
		item.TaxRate = *patch.TaxRate
	}
	if err := validateItem(*item); err != nil {
		return nil, err
	}
	return out, nil
}

// ToggleSelect flips the selection flag of a single item.
func ToggleSelect(items []types.LineItem, id uuid.UUID) ([]types.LineItem, error) {
	idx := indexOf(items, id)
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("line item %s not found", id))
	}
	out := cloneItems(items)
	out[idx].Selected = !out[idx].Selected
	return out, nil
}

// SelectAll sets the selection flag on every item.
func SelectAll(items []types.LineItem, selected bool) []types.LineItem {
	out := cloneItems(items)
	for i := range out {
		out[i].Selected = selected
	}
	return out
}

// BulkSetDiscount writes a percentage discount onto the selected items only.
// The discount type is forced to percentage on every touched item, even if
// it previously carried a fixed discount.
func BulkSetDiscount(items []types.LineItem, percent decimal.Decimal) ([]types.LineItem, error) {
	if percent.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bulk discount must not be negative")
	}
	out := cloneItems(items)
	for i := range out {
		if !out[i].Selected {
			continue
		}
		out[i].Discount = percent
		out[i].DiscountType = enums.DiscountTypePercentage
	}
	return out, nil
}

// BulkSetTaxRate writes a tax rate onto the selected items only.
func BulkSetTaxRate(items []types.LineItem, rate decimal.Decimal) ([]types.LineItem, error) {
	if rate.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bulk tax rate must not be negative")
	}
	out := cloneItems(items)
	for i := range out {
		if !out[i].Selected {
			continue
		}
		out[i].TaxRate = rate
	}
	return out, nil
}

// BulkAdjustPrice scales the unit price of EVERY item by the given percent,
// regardless of selection. Results round half-up to two decimals, so the
// adjustment is lossy and not exactly reversible.
func BulkAdjustPrice(items []types.LineItem, percent decimal.Decimal, direction enums.AdjustDirection) ([]types.LineItem, error) {
	if percent.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment percent must not be negative")
	}
	if !direction.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid adjust direction %q", direction))
	}

	factor := percent.Div(decimal.NewFromInt(100))
	if direction == enums.AdjustDirectionDecrease {
		factor = factor.Neg()
	}
	multiplier := decimal.NewFromInt(1).Add(factor)

	out := cloneItems(items)
	for i := range out {
		out[i].UnitPrice = out[i].UnitPrice.Mul(multiplier).Round(2)
	}
	return out, nil
}

func validateItem(item types.LineItem) error {
	if strings.TrimSpace(item.Description) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "description must not be empty")
	}
	if item.Quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if item.UnitPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
	}
	if item.Discount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount must not be negative")
	}
	if item.TaxRate.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "tax rate must not be negative")
	}
	if !item.DiscountType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid discount type %q", item.DiscountType))
	}
	return nil
}
