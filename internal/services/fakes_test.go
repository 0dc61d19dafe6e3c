package services

import (
	"context"
	"sync"

	"github.com/aarondl/null/v8"

	"connect-system/internal/entities"
	"connect-system/internal/repositories"
	"connect-system/pkg/constants"
	apperrors "connect-system/pkg/errors"
	"connect-system/pkg/telegram"
)

// fakeUserRepo - пользователи в памяти. Достаточно для проверок ролей.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uint64]entities.User
}

func newFakeUserRepo(users ...entities.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uint64]entities.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) FindUser(ctx context.Context, id uint64) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) FindUserByPhone(ctx context.Context, phone string) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Phone.Valid && u.Phone.String == phone {
			copied := u
			return &copied, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *fakeUserRepo) FindUserByTelegramID(ctx context.Context, telegramID int64) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.TelegramID.Valid && u.TelegramID.Int64 == telegramID {
			copied := u
			return &copied, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *fakeUserRepo) GetUsersByRole(ctx context.Context, role string) ([]entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []entities.User
	for _, u := range r.users {
		if u.Role == role {
			result = append(result, u)
		}
	}
	return result, nil
}

func (r *fakeUserRepo) CreateUser(ctx context.Context, user entities.User) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == 0 {
		user.ID = uint64(len(r.users) + 1)
	}
	r.users[user.ID] = user
	return &user, nil
}

func (r *fakeUserRepo) UpdateUserLanguage(ctx context.Context, id uint64, language string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.Language = language
	r.users[id] = u
	return nil
}

func (r *fakeUserRepo) SetBlocked(ctx context.Context, id uint64, blocked bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.IsBlocked = blocked
	r.users[id] = u
	return nil
}

// fakeOrderRepo - заявки в памяти с той же дисциплиной охраняемой записи
// статуса, что и у настоящего репозитория: сравнение и запись под одним
// замком, при несовпадении - ErrStatusMismatch.
type fakeOrderRepo struct {
	mu     sync.Mutex
	seq    uint64
	orders map[entities.OrderRef]*entities.Order
	refs   []entities.OrderRef

	findErr    error
	summaryErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[entities.OrderRef]*entities.Order)}
}

func (r *fakeOrderRepo) put(order entities.Order) entities.OrderRef {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order.ID == 0 {
		r.seq++
		order.ID = r.seq
	}
	ref := order.Ref()
	if _, ok := r.orders[ref]; !ok {
		r.refs = append(r.refs, ref)
	}
	r.orders[ref] = &order
	return ref
}

func (r *fakeOrderRepo) FindOrder(ctx context.Context, ref entities.OrderRef) (*entities.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	order, ok := r.orders[ref]
	if !ok {
		return nil, apperrors.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (r *fakeOrderRepo) CreateOrder(ctx context.Context, order entities.Order) (*entities.Order, error) {
	ref := r.put(order)
	return r.FindOrder(ctx, ref)
}

func (r *fakeOrderRepo) UpdateStatusGuarded(ctx context.Context, q repositories.Querier, ref entities.OrderRef, expected, to string, assignee *repositories.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[ref]
	if !ok {
		return apperrors.ErrOrderNotFound
	}
	if order.Status != expected {
		return apperrors.ErrStatusMismatch
	}
	order.Status = to
	if assignee != nil {
		order.AssigneeRole = assignee.Role
		order.AssigneeID = assignee.UserID
	}
	return nil
}

func (r *fakeOrderRepo) ListOrders(ctx context.Context, kind entities.OrderKind, statuses []string, assigneeID *uint64, limit, offset uint64) ([]entities.Order, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []entities.Order
	for _, ref := range r.refs {
		order := r.orders[ref]
		if order.Kind != kind {
			continue
		}
		matched := false
		for _, s := range statuses {
			if order.Status == s {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		if assigneeID != nil && (!order.AssigneeID.Valid || order.AssigneeID.Uint64 != *assigneeID) {
			continue
		}
		result = append(result, *order)
	}
	return result, uint64(len(result)), nil
}

func (r *fakeOrderRepo) ListOrdersByClient(ctx context.Context, kind entities.OrderKind, clientID uint64) ([]entities.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []entities.Order
	for _, ref := range r.refs {
		order := r.orders[ref]
		if order.Kind == kind && order.ClientID == clientID {
			result = append(result, *order)
		}
	}
	return result, nil
}

func (r *fakeOrderRepo) CountActiveByAssignee(ctx context.Context, role string, userID uint64) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count uint64
	for _, order := range r.orders {
		if !order.AssigneeID.Valid || order.AssigneeID.Uint64 != userID {
			continue
		}
		if order.Status == constants.StatusCompleted || order.Status == constants.StatusCancelled {
			continue
		}
		count++
	}
	return count, nil
}

func (r *fakeOrderRepo) SetDiagnostics(ctx context.Context, ref entities.OrderRef, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[ref]
	if !ok {
		return apperrors.ErrOrderNotFound
	}
	switch {
	case order.Technician != nil:
		order.Technician.Diagnostics = null.StringFrom(text)
	case order.Staff != nil:
		order.Staff.Diagnostics = null.StringFrom(text)
	default:
		return apperrors.NewInvalidInputError("для заявок на подключение диагностика не ведётся")
	}
	return nil
}

func (r *fakeOrderRepo) SetNotes(ctx context.Context, ref entities.OrderRef, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[ref]
	if !ok {
		return apperrors.ErrOrderNotFound
	}
	order.Notes = null.StringFrom(text)
	return nil
}

func (r *fakeOrderRepo) SetJMNotes(ctx context.Context, ref entities.OrderRef, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[ref]
	if !ok {
		return apperrors.ErrOrderNotFound
	}
	order.JMNotes = null.StringFrom(text)
	return nil
}

func (r *fakeOrderRepo) SetRating(ctx context.Context, ref entities.OrderRef, rating int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[ref]
	if !ok {
		return apperrors.ErrOrderNotFound
	}
	if order.Status != constants.StatusCompleted {
		return apperrors.ErrOrderNotComplete
	}
	order.Rating = null.IntFrom(rating)
	return nil
}

func (r *fakeOrderRepo) SetConsumedSummary(ctx context.Context, q repositories.Querier, ref entities.OrderRef, summary string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.summaryErr != nil {
		return r.summaryErr
	}
	order, ok := r.orders[ref]
	if !ok {
		return apperrors.ErrOrderNotFound
	}
	order.ConsumedSummary = null.StringFrom(summary)
	return nil
}

type allotmentKey struct {
	TechnicianID uint64
	MaterialID   uint64
}

type requestKey struct {
	Ref          entities.OrderRef
	MaterialID   uint64
	TechnicianID uint64
}

// fakeMaterialRepo повторяет арифметику настоящего репозитория: остаток и
// лимит списываются вместе, охраняемая смена статуса заявки выполняется
// в той же критической секции, что и списание.
type fakeMaterialRepo struct {
	mu         sync.Mutex
	seq        uint64
	materials  map[uint64]entities.Material
	allotments map[allotmentKey]int64
	requests   map[requestKey]*entities.MaterialRequest

	orders *fakeOrderRepo

	reserveErr error
	releaseErr error
}

func newFakeMaterialRepo(orders *fakeOrderRepo) *fakeMaterialRepo {
	return &fakeMaterialRepo{
		materials:  make(map[uint64]entities.Material),
		allotments: make(map[allotmentKey]int64),
		requests:   make(map[requestKey]*entities.MaterialRequest),
		orders:     orders,
	}
}

func (r *fakeMaterialRepo) putMaterial(m entities.Material) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.materials[m.ID] = m
}

func (r *fakeMaterialRepo) GetMaterials(ctx context.Context, limit, offset uint64) ([]entities.Material, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []entities.Material
	for _, m := range r.materials {
		result = append(result, m)
	}
	return result, uint64(len(result)), nil
}

func (r *fakeMaterialRepo) FindMaterial(ctx context.Context, id uint64) (*entities.Material, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.materials[id]
	if !ok {
		return nil, apperrors.ErrMaterialNotFound
	}
	return &m, nil
}

func (r *fakeMaterialRepo) RemainingAllotments(ctx context.Context, technicianID uint64) ([]repositories.AllotmentView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []repositories.AllotmentView
	for key, remaining := range r.allotments {
		if key.TechnicianID != technicianID {
			continue
		}
		result = append(result, repositories.AllotmentView{
			MaterialID:   key.MaterialID,
			MaterialName: r.materials[key.MaterialID].Name,
			Remaining:    remaining,
		})
	}
	return result, nil
}

func (r *fakeMaterialRepo) Reserve(ctx context.Context, ref entities.OrderRef, technicianID, materialID uint64, quantity int64, guard *repositories.StatusTransition) (*entities.MaterialRequest, error) {
	if r.reserveErr != nil {
		return nil, r.reserveErr
	}
	if quantity <= 0 {
		return nil, apperrors.ErrInvalidQuantity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	material, ok := r.materials[materialID]
	if !ok {
		return nil, apperrors.ErrMaterialNotFound
	}
	if material.StockQuantity < quantity {
		return nil, apperrors.ErrInsufficientStock
	}
	key := allotmentKey{TechnicianID: technicianID, MaterialID: materialID}
	if r.allotments[key] < quantity {
		return nil, apperrors.ErrAllotmentExceeded
	}

	if guard != nil && r.orders != nil {
		if err := r.orders.UpdateStatusGuarded(ctx, nil, ref, guard.Expected, guard.To, nil); err != nil {
			return nil, err
		}
	}

	material.StockQuantity -= quantity
	r.materials[materialID] = material
	r.allotments[key] -= quantity

	reqKey := requestKey{Ref: ref, MaterialID: materialID, TechnicianID: technicianID}
	request, ok := r.requests[reqKey]
	if !ok {
		r.seq++
		request = &entities.MaterialRequest{
			ID:           r.seq,
			OrderKind:    ref.Kind,
			OrderID:      ref.ID,
			MaterialID:   materialID,
			TechnicianID: technicianID,
		}
		r.requests[reqKey] = request
	}
	request.Quantity += quantity

	copied := *request
	return &copied, nil
}

func (r *fakeMaterialRepo) ReleaseForOrder(ctx context.Context, ref entities.OrderRef) error {
	if r.releaseErr != nil {
		return r.releaseErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, request := range r.requests {
		if key.Ref != ref {
			continue
		}
		material := r.materials[request.MaterialID]
		material.StockQuantity += request.Quantity
		r.materials[request.MaterialID] = material
		r.allotments[allotmentKey{TechnicianID: request.TechnicianID, MaterialID: request.MaterialID}] += request.Quantity
		delete(r.requests, key)
	}
	return nil
}

func (r *fakeMaterialRepo) ConsumedMaterials(ctx context.Context, ref entities.OrderRef) ([]entities.ConsumedLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []entities.ConsumedLine
	for key, request := range r.requests {
		if key.Ref != ref {
			continue
		}
		material := r.materials[request.MaterialID]
		result = append(result, entities.ConsumedLine{
			MaterialName: material.Name,
			Quantity:     request.Quantity,
			Price:        material.Price,
		})
	}
	return result, nil
}

func (r *fakeMaterialRepo) ListRequests(ctx context.Context, kind entities.OrderKind, limit, offset uint64) ([]repositories.RequestView, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []repositories.RequestView
	for key, request := range r.requests {
		if key.Ref.Kind != kind {
			continue
		}
		result = append(result, repositories.RequestView{
			Request:      *request,
			MaterialName: r.materials[request.MaterialID].Name,
		})
	}
	return result, uint64(len(result)), nil
}

func (r *fakeMaterialRepo) CountRequestsByKind(ctx context.Context) (map[entities.OrderKind]uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make(map[entities.OrderKind]uint64)
	for key := range r.requests {
		result[key.Ref.Kind]++
	}
	return result, nil
}

func (r *fakeMaterialRepo) SetAllotment(ctx context.Context, technicianID, materialID uint64, quantity int64) error {
	if quantity < 0 {
		return apperrors.ErrInvalidQuantity
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.allotments[allotmentKey{TechnicianID: technicianID, MaterialID: materialID}] = quantity
	return nil
}

// recordingTelegramService копит отправленные сообщения по чатам вместо
// похода в Telegram API.
type recordingTelegramService struct {
	mu       sync.Mutex
	messages map[int64][]string
}

func newRecordingTelegramService() *recordingTelegramService {
	return &recordingTelegramService{messages: make(map[int64][]string)}
}

func (s *recordingTelegramService) SendMessage(ctx context.Context, chatID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[chatID] = append(s.messages[chatID], text)
	return nil
}

func (s *recordingTelegramService) SendMessageEx(ctx context.Context, chatID int64, text string, options ...telegram.MessageOption) error {
	return s.SendMessage(ctx, chatID, text)
}

func (s *recordingTelegramService) sent(chatID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages[chatID]...)
}
