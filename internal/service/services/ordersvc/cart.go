package ordersvc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/msalarini/store-lamayer/internal/service/models/cart"
	"github.com/msalarini/store-lamayer/internal/service/models/product"
)

// CheckoutInfo updates the transient checkout fields. Nil fields are left unchanged.
type CheckoutInfo struct {
	CustomerName  *string
	CustomerPhone *string
	ExchangeRate  *string
}

// GetCart returns the actor's cart with totals at the current rate.
func (s *OrderService) GetCart(actor string) (cart.View, error) {
	sess, err := s.session(actor)
	if err != nil {
		return cart.View{}, err
	}
	defer sess.Unlock()

	return sess.View(), nil
}

// AddToCart adds one unit of the product, creating the line if needed.
func (s *OrderService) AddToCart(ctx context.Context, actor string, productID int64) (cart.View, error) {
	if actor == "" {
		return cart.View{}, ErrUnauthenticated
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return cart.View{}, err
		}
		return cart.View{}, fmt.Errorf("failed to load product %d: %w", productID, err)
	}

	sess, err := s.session(actor)
	if err != nil {
		return cart.View{}, err
	}
	defer sess.Unlock()

	sess.Cart.Add(p)

	return sess.View(), nil
}

// UpdateQuantity sets the quantity of a line; zero or less removes it.
func (s *OrderService) UpdateQuantity(actor string, productID int64, quantity int) (cart.View, error) {
	sess, err := s.session(actor)
	if err != nil {
		return cart.View{}, err
	}
	defer sess.Unlock()

	sess.Cart.UpdateQuantity(productID, quantity)

	return sess.View(), nil
}

func (s *OrderService) RemoveFromCart(actor string, productID int64) (cart.View, error) {
	sess, err := s.session(actor)
	if err != nil {
		return cart.View{}, err
	}
	defer sess.Unlock()

	sess.Cart.Remove(productID)

	return sess.View(), nil
}

// ClearCart empties the cart and the customer fields.
func (s *OrderService) ClearCart(actor string) (cart.View, error) {
	sess, err := s.session(actor)
	if err != nil {
		return cart.View{}, err
	}
	defer sess.Unlock()

	sess.Reset()

	return sess.View(), nil
}

// SetCheckoutInfo stores the customer fields and the rate text typed by the operator.
func (s *OrderService) SetCheckoutInfo(actor string, info CheckoutInfo) (cart.View, error) {
	sess, err := s.session(actor)
	if err != nil {
		return cart.View{}, err
	}
	defer sess.Unlock()

	applyCheckoutInfo(sess, info)

	return sess.View(), nil
}

func applyCheckoutInfo(sess *cart.Session, info CheckoutInfo) {
	if info.CustomerName != nil {
		sess.CustomerName = strings.TrimSpace(*info.CustomerName)
	}
	if info.CustomerPhone != nil {
		sess.CustomerPhone = strings.TrimSpace(*info.CustomerPhone)
	}
	if info.ExchangeRate != nil {
		sess.RateInput = strings.TrimSpace(*info.ExchangeRate)
	}
}

// ListProducts searches the catalog.
func (s *OrderService) ListProducts(ctx context.Context, filter product.QueryProductsModel) ([]product.Product, error) {
	products, err := s.products.Query(ctx, &filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, nil
}
