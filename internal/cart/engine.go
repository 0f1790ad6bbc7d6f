package cart

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Engine выполняет операции над корзиной сессии и сохраняет результат в CartStore.
// Изменения применяются к копии корзины и попадают в сессию только после успешного сохранения.
type Engine struct {
	store  domain.CartStore
	logger *log.Entry
}

// NewEngine создаёт Engine. store == nil отключает сохранение.
func NewEngine(store domain.CartStore, logger *log.Entry) *Engine {
	if logger == nil {
		logger = log.WithField("component", "cart-engine")
	}
	return &Engine{store: store, logger: logger}
}

// Load восстанавливает корзину сессии. Повреждённая сохранённая корзина заменяется пустой.
func (e *Engine) Load(ctx context.Context, sessionID string, snapshot Snapshot) (*Session, error) {
	session := &Session{ID: sessionID, Cart: New(), Snapshot: snapshot}
	if e.store == nil {
		return session, nil
	}

	payload, err := e.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load cart %s: %w", sessionID, err)
	}

	c, err := Decode(payload)
	if err != nil {
		e.logger.WithError(err).WithField("session_id", sessionID).Warn("stored cart is unreadable, starting with an empty cart")
		return session, nil
	}
	session.Cart = c
	return session, nil
}

// AddUnit добавляет одну единицу товара, если в корзине их меньше, чем на складе по снимку.
func (e *Engine) AddUnit(ctx context.Context, s *Session, productID int64) error {
	product, ok := s.Snapshot.Product(productID)
	if !ok {
		return domain.ErrProductNotFound
	}

	return e.mutate(ctx, s, func(c *Cart) (bool, error) {
		if c.Count(productID) >= product.Stock {
			return false, domain.NewStockError(domain.ErrStockExceeded, product)
		}
		c.Add(product)
		return true, nil
	})
}

// Increase увеличивает количество товара на единицу; контракт совпадает с AddUnit.
func (e *Engine) Increase(ctx context.Context, s *Session, productID int64) error {
	return e.AddUnit(ctx, s, productID)
}

// Decrease убирает одну единицу товара. Отсутствие товара в корзине не ошибка.
func (e *Engine) Decrease(ctx context.Context, s *Session, productID int64) error {
	return e.mutate(ctx, s, func(c *Cart) (bool, error) {
		return c.RemoveFirst(productID), nil
	})
}

// RemoveAll убирает все единицы товара.
func (e *Engine) RemoveAll(ctx context.Context, s *Session, productID int64) error {
	return e.mutate(ctx, s, func(c *Cart) (bool, error) {
		return c.RemoveAll(productID) > 0, nil
	})
}

// RemoveAt убирает единицу по её позиции в корзине.
func (e *Engine) RemoveAt(ctx context.Context, s *Session, index int) error {
	return e.mutate(ctx, s, func(c *Cart) (bool, error) {
		if _, err := c.RemoveAt(index); err != nil {
			return false, err
		}
		return true, nil
	})
}

// Clear очищает корзину и удаляет её сохранённую копию.
// Если удалить копию не удалось, она перезаписывается пустой корзиной;
// ошибка возвращается, только когда сохранённая корзина осталась прежней.
func (e *Engine) Clear(ctx context.Context, s *Session) error {
	if e.store != nil {
		if err := e.store.Delete(ctx, s.ID); err != nil {
			e.logger.WithError(err).WithField("session_id", s.ID).Warn("delete cart failed, overwriting with empty cart")
			if saveErr := e.save(ctx, s.ID, New()); saveErr != nil {
				return errors.Join(fmt.Errorf("delete cart %s: %w", s.ID, err), saveErr)
			}
		}
	}
	s.Cart = New()
	return nil
}

func (e *Engine) mutate(ctx context.Context, s *Session, fn func(c *Cart) (bool, error)) error {
	next := s.Cart.Clone()
	changed, err := fn(next)
	if err != nil || !changed {
		return err
	}

	if err := e.save(ctx, s.ID, next); err != nil {
		return err
	}
	s.Cart = next
	return nil
}

func (e *Engine) save(ctx context.Context, sessionID string, c *Cart) error {
	if e.store == nil {
		return nil
	}

	payload, err := Encode(c)
	if err != nil {
		return err
	}
	if err := e.store.Save(ctx, sessionID, payload); err != nil {
		return fmt.Errorf("save cart %s: %w", sessionID, err)
	}

	e.logger.WithFields(log.Fields{
		"session_id": sessionID,
		"units":      c.Len(),
	}).Debug("cart saved")
	return nil
}
