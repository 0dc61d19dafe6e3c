package session

import (
	"connect-system/internal/entities"
)

// NavPolicy - поведение курсора на границах списка.
type NavPolicy string

const (
	// NavClamp останавливает курсор на краю списка.
	NavClamp NavPolicy = "clamp"
	// NavWrap переносит курсор через край по кругу.
	NavWrap NavPolicy = "wrap"
)

// InboxView - состояние открытого списка заявок одного актора.
// Хранит снимки заявок и позицию курсора; любое изменение данных
// выполняется заменой снимка, а не правкой живых записей.
type InboxView struct {
	Category string           `json:"category"`
	Policy   NavPolicy        `json:"policy"`
	Items    []entities.Order `json:"items"`
	Idx      int              `json:"idx"`
}

// NewInboxView строит представление из снимка, отбрасывая дубликаты
// по идентификатору заявки. Порядок первых вхождений сохраняется.
func NewInboxView(category string, policy NavPolicy, orders []entities.Order) *InboxView {
	seen := make(map[entities.OrderRef]struct{}, len(orders))
	items := make([]entities.Order, 0, len(orders))
	for _, o := range orders {
		ref := o.Ref()
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		items = append(items, o)
	}
	return &InboxView{Category: category, Policy: policy, Items: items, Idx: 0}
}

func (v *InboxView) Len() int { return len(v.Items) }

func (v *InboxView) Empty() bool { return len(v.Items) == 0 }

// Current возвращает заявку под курсором.
func (v *InboxView) Current() (*entities.Order, bool) {
	if v.Empty() {
		return nil, false
	}
	if v.Idx < 0 {
		v.Idx = 0
	}
	if v.Idx >= len(v.Items) {
		v.Idx = len(v.Items) - 1
	}
	return &v.Items[v.Idx], true
}

// Next сдвигает курсор вперёд. При clamp-политике на последней позиции
// возвращает false и курсор не двигается.
func (v *InboxView) Next() bool {
	if v.Empty() {
		return false
	}
	switch v.Policy {
	case NavWrap:
		v.Idx = (v.Idx + 1) % len(v.Items)
		return true
	default:
		if v.Idx+1 >= len(v.Items) {
			return false
		}
		v.Idx++
		return true
	}
}

// Prev сдвигает курсор назад. При clamp-политике на первой позиции
// возвращает false.
func (v *InboxView) Prev() bool {
	if v.Empty() {
		return false
	}
	switch v.Policy {
	case NavWrap:
		v.Idx = (v.Idx - 1 + len(v.Items)) % len(v.Items)
		return true
	default:
		if v.Idx == 0 {
			return false
		}
		v.Idx--
		return true
	}
}

// UpdateStatus правит статус заявки в снимке, не трогая порядок и курсор.
func (v *InboxView) UpdateStatus(ref entities.OrderRef, status string) {
	for i := range v.Items {
		if v.Items[i].Ref() == ref {
			v.Items[i].Status = status
			return
		}
	}
}

// Remove убирает заявку из снимка. Курсор прижимается к новому концу
// списка и никогда не становится отрицательным.
func (v *InboxView) Remove(ref entities.OrderRef) {
	items := v.Items[:0]
	for _, o := range v.Items {
		if o.Ref() != ref {
			items = append(items, o)
		}
	}
	v.Items = items
	if v.Idx >= len(v.Items) {
		v.Idx = len(v.Items) - 1
	}
	if v.Idx < 0 {
		v.Idx = 0
	}
}

// Replace подменяет снимок целиком, стараясь удержать курсор на той же
// заявке. Если её в новом снимке нет, курсор прижимается к границе.
func (v *InboxView) Replace(orders []entities.Order) {
	var current entities.OrderRef
	hasCurrent := false
	if o, ok := v.Current(); ok {
		current = o.Ref()
		hasCurrent = true
	}

	fresh := NewInboxView(v.Category, v.Policy, orders)
	v.Items = fresh.Items

	if hasCurrent {
		for i := range v.Items {
			if v.Items[i].Ref() == current {
				v.Idx = i
				return
			}
		}
	}
	if v.Idx >= len(v.Items) {
		v.Idx = len(v.Items) - 1
	}
	if v.Idx < 0 {
		v.Idx = 0
	}
}
