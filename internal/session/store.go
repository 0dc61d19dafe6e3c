package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"connect-system/internal/entities"
	"connect-system/internal/repositories"
	apperrors "connect-system/pkg/errors"
)

// DiagnosticsDraft - несохранённый текст диагноза. Живёт в сессии до
// подтверждения, после чего переносится в заявку.
type DiagnosticsDraft struct {
	OrderRef entities.OrderRef `json:"order_ref"`
	Text     string            `json:"text"`
}

// NoteDraft - черновик заметки младшего менеджера. Двухфазный ввод:
// текст набирается и правится в сессии, запись в заявку идёт только
// после подтверждения.
type NoteDraft struct {
	OrderRef entities.OrderRef `json:"order_ref"`
	Text     string            `json:"text"`
}

type StoreInterface interface {
	SaveView(ctx context.Context, userID uint64, view *InboxView) error
	LoadView(ctx context.Context, userID uint64, category string) (*InboxView, error)
	DeleteView(ctx context.Context, userID uint64, category string) error
	SaveDraft(ctx context.Context, userID uint64, draft DiagnosticsDraft) error
	LoadDraft(ctx context.Context, userID uint64) (*DiagnosticsDraft, error)
	DeleteDraft(ctx context.Context, userID uint64) error
	SaveNoteDraft(ctx context.Context, userID uint64, draft NoteDraft) error
	LoadNoteDraft(ctx context.Context, userID uint64) (*NoteDraft, error)
	DeleteNoteDraft(ctx context.Context, userID uint64) error
}

// Store - арена сессионных состояний поверх кеша. Ключи раздельны по
// актору и категории списка, поэтому один пользователь может держать
// открытыми несколько списков одновременно.
type Store struct {
	cache    repositories.CacheRepositoryInterface
	logger   *zap.Logger
	viewTTL  time.Duration
	draftTTL time.Duration
}

func NewStore(cache repositories.CacheRepositoryInterface, logger *zap.Logger, viewTTL, draftTTL time.Duration) StoreInterface {
	return &Store{cache: cache, logger: logger, viewTTL: viewTTL, draftTTL: draftTTL}
}

func viewKey(userID uint64, category string) string {
	return fmt.Sprintf("inbox:%d:%s", userID, category)
}

func draftKey(userID uint64) string {
	return fmt.Sprintf("diag_draft:%d", userID)
}

func (s *Store) SaveView(ctx context.Context, userID uint64, view *InboxView) error {
	payload, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("ошибка сериализации состояния списка: %w", err)
	}
	return s.cache.Set(ctx, viewKey(userID, view.Category), string(payload), s.viewTTL)
}

func (s *Store) LoadView(ctx context.Context, userID uint64, category string) (*InboxView, error) {
	raw, err := s.cache.Get(ctx, viewKey(userID, category))
	if errors.Is(err, repositories.ErrCacheMiss) {
		return nil, apperrors.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения состояния списка: %w", err)
	}
	var view InboxView
	if err := json.Unmarshal([]byte(raw), &view); err != nil {
		// Повреждённое состояние выбрасываем, работа начнётся заново.
		s.logger.Warn("повреждённое состояние списка в сессии, сбрасываем",
			zap.Uint64("user_id", userID), zap.String("category", category), zap.Error(err))
		_ = s.cache.Del(ctx, viewKey(userID, category))
		return nil, apperrors.ErrSessionNotFound
	}
	return &view, nil
}

func (s *Store) DeleteView(ctx context.Context, userID uint64, category string) error {
	return s.cache.Del(ctx, viewKey(userID, category))
}

func (s *Store) SaveDraft(ctx context.Context, userID uint64, draft DiagnosticsDraft) error {
	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("ошибка сериализации черновика диагноза: %w", err)
	}
	return s.cache.Set(ctx, draftKey(userID), string(payload), s.draftTTL)
}

func (s *Store) LoadDraft(ctx context.Context, userID uint64) (*DiagnosticsDraft, error) {
	raw, err := s.cache.Get(ctx, draftKey(userID))
	if errors.Is(err, repositories.ErrCacheMiss) {
		return nil, apperrors.ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения черновика диагноза: %w", err)
	}
	var draft DiagnosticsDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		_ = s.cache.Del(ctx, draftKey(userID))
		return nil, apperrors.ErrDraftNotFound
	}
	return &draft, nil
}

func (s *Store) DeleteDraft(ctx context.Context, userID uint64) error {
	return s.cache.Del(ctx, draftKey(userID))
}

func noteDraftKey(userID uint64) string {
	return fmt.Sprintf("note_draft:%d", userID)
}

func (s *Store) SaveNoteDraft(ctx context.Context, userID uint64, draft NoteDraft) error {
	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("ошибка сериализации черновика заметки: %w", err)
	}
	return s.cache.Set(ctx, noteDraftKey(userID), string(payload), s.draftTTL)
}

func (s *Store) LoadNoteDraft(ctx context.Context, userID uint64) (*NoteDraft, error) {
	raw, err := s.cache.Get(ctx, noteDraftKey(userID))
	if errors.Is(err, repositories.ErrCacheMiss) {
		return nil, apperrors.ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения черновика заметки: %w", err)
	}
	var draft NoteDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		_ = s.cache.Del(ctx, noteDraftKey(userID))
		return nil, apperrors.ErrDraftNotFound
	}
	return &draft, nil
}

func (s *Store) DeleteNoteDraft(ctx context.Context, userID uint64) error {
	return s.cache.Del(ctx, noteDraftKey(userID))
}
