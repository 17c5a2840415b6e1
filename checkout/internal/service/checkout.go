package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/talkingpet/storefront/checkout/internal/domain"
	"github.com/talkingpet/storefront/checkout/internal/store"
	"github.com/talkingpet/storefront/checkout/pkg/request"
	"github.com/talkingpet/storefront/checkout/pkg/response"
	"github.com/talkingpet/storefront/internal/cart"
	"github.com/talkingpet/storefront/internal/config"
	inErrors "github.com/talkingpet/storefront/internal/errors"
	"github.com/talkingpet/storefront/internal/log"
	"github.com/talkingpet/storefront/internal/otel"
	"github.com/talkingpet/storefront/internal/upstream"
)

// CartStore is the slice of the cart app checkout needs: the raw snapshot to
// build an order from, and the clear that happens once the order is paid.
type CartStore interface {
	Snapshot(c context.Context, identity string) cart.Cart
	ClearCart(c context.Context, identity string) error
}

// ProfileRefresher re-syncs the cached balance after a balance payment.
type ProfileRefresher interface {
	RefreshBalance(c context.Context, identity string)
}

type CheckoutService struct {
	carts       CartStore
	profiles    ProfileRefresher
	checkouts   store.CheckoutStore
	upstream    *upstream.Client
	shippingFee decimal.Decimal
	config      config.Checkout
}

func NewCheckoutService(
	carts CartStore,
	profiles ProfileRefresher,
	checkouts store.CheckoutStore,
	upstreamClient *upstream.Client,
	shippingFee decimal.Decimal,
	cfg config.Checkout,
) CheckoutService {
	return CheckoutService{
		carts:       carts,
		profiles:    profiles,
		checkouts:   checkouts,
		upstream:    upstreamClient,
		shippingFee: shippingFee,
		config:      cfg,
	}
}

// Quote summarizes what the review step shows: subtotal, shipping fee when a
// product line is present, and the grand total.
func (svc CheckoutService) Quote(c context.Context, identity string) response.Quote {
	c, span := otel.Tracer.Start(c, "CheckoutService Quote")
	defer span.End()

	snapshot := svc.carts.Snapshot(c, identity)
	totals := snapshot.Totals()
	quote := response.Quote{
		Subtotal:    totals.Total,
		ShippingFee: decimal.Zero,
		Total:       totals.Total,
	}
	if snapshot.HasKind(cart.ItemKindProduct) {
		quote.ShippingRequired = true
		quote.ShippingFee = svc.shippingFee
		quote.Total = quote.Subtotal.Add(svc.shippingFee)
	}
	return quote
}

// Submit places the order upstream and branches on the payment method. A
// balance payment settles upstream in the same call, so the checkout goes
// straight to paid and the cart is cleared. Card and QR payments leave the
// checkout awaiting payment with the cart intact, so an abandoned or failed
// payment can be retried.
func (svc CheckoutService) Submit(
	c context.Context,
	identity string,
	param request.Submit,
) (response.Checkout, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService Submit")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService Submit").
		Str(log.KeyIdentity, identity).
		Str(log.KeyPaymentMethod, param.PaymentMethod).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "building order").Logger()
	snapshot := svc.carts.Snapshot(c, identity)
	order, err := domain.BuildOrder(snapshot, param.Method(), param.ShippingChoice(), svc.shippingFee)
	if err != nil {
		err = fmt.Errorf("failed building order with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "placing order").Logger()
	logger.Info().Msg("placing order")
	c = logger.WithContext(c)
	envelope := struct {
		Data struct {
			Order struct {
				ID string `json:"id"`
			} `json:"order"`
		} `json:"data"`
	}{}
	err = svc.upstream.Post(c, "/api/orders", order, &envelope)
	if err != nil {
		err = fmt.Errorf("failed placing order with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}
	orderId := envelope.Data.Order.ID
	logger = logger.With().Str(log.KeyOrderID, orderId).Logger()
	logger.Info().Msg("placed order")

	state, err := domain.StateDrafting.Transition(domain.StateOrderCreated)
	if err != nil {
		inErrors.HandleError(err, span)
		return response.Checkout{}, err
	}

	checkout := domain.Checkout{
		State:            state,
		OrderID:          orderId,
		PaymentMethod:    param.Method(),
		PendingCourseIDs: domain.CourseIDs(snapshot),
	}

	if param.Method() == domain.PayWithBalance {
		return svc.settle(logger.WithContext(c), identity, checkout, true)
	}

	checkout.State, err = checkout.State.Transition(domain.StateAwaitingPayment)
	if err != nil {
		inErrors.HandleError(err, span)
		return response.Checkout{}, err
	}
	err = svc.checkouts.Save(c, identity, checkout)
	if err != nil {
		return response.Checkout{}, err
	}
	logger.Info().
		Str(log.KeyCheckoutState, checkout.State.String()).
		Msg("awaiting payment, cart kept for retry")
	return response.FromCheckout(checkout), nil
}

// ConfirmPayment moves a pending card or QR checkout to paid. The upstream
// mark-paid call is best effort: the payment provider already settled, a
// failed ack must not block the confirmation page.
func (svc CheckoutService) ConfirmPayment(
	c context.Context,
	identity string,
) (response.Checkout, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService ConfirmPayment")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService ConfirmPayment").
		Str(log.KeyIdentity, identity).
		Logger()

	checkout, err := svc.checkouts.Load(c, identity)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}
	logger = logger.With().Str(log.KeyOrderID, checkout.OrderID).Logger()

	err = svc.upstream.Post(c, "/api/orders/"+checkout.OrderID+"/mark-paid", nil, nil)
	if err != nil {
		logger.Error().Err(err).Msgf("failed acknowledging payment upstream with error=%s", err.Error())
	}

	return svc.settle(logger.WithContext(c), identity, checkout, false)
}

// FailPayment records a failed payment attempt. The order and the cart stay
// as they are so the customer can retry.
func (svc CheckoutService) FailPayment(
	c context.Context,
	identity string,
	message string,
) (response.Checkout, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService FailPayment")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService FailPayment").
		Str(log.KeyIdentity, identity).
		Logger()

	checkout, err := svc.checkouts.Load(c, identity)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}

	checkout.State, err = checkout.State.Transition(domain.StateFailed)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}
	checkout.FailureMessage = message

	err = svc.checkouts.Save(c, identity, checkout)
	if err != nil {
		return response.Checkout{}, err
	}
	logger.Info().
		Str(log.KeyOrderID, checkout.OrderID).
		Msg("payment failed, cart and order kept for retry")
	return response.FromCheckout(checkout), nil
}

// RetryPayment moves a failed checkout back to awaiting payment.
func (svc CheckoutService) RetryPayment(
	c context.Context,
	identity string,
) (response.Checkout, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService RetryPayment")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService RetryPayment").
		Str(log.KeyIdentity, identity).
		Logger()

	checkout, err := svc.checkouts.Load(c, identity)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}

	checkout.State, err = checkout.State.Transition(domain.StateAwaitingPayment)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}
	checkout.FailureMessage = ""

	err = svc.checkouts.Save(c, identity, checkout)
	if err != nil {
		return response.Checkout{}, err
	}
	return response.FromCheckout(checkout), nil
}

// Status returns the pending checkout record for an identity.
func (svc CheckoutService) Status(c context.Context, identity string) (response.Checkout, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService Status")
	defer span.End()

	checkout, err := svc.checkouts.Load(c, identity)
	if err != nil {
		inErrors.HandleError(err, span)
		return response.Checkout{}, err
	}
	return response.FromCheckout(checkout), nil
}

// settle is the single place a checkout becomes paid: enroll pending courses,
// clear the cart, persist the terminal record. Balance payments also re-sync
// the cached balance the upstream just debited.
func (svc CheckoutService) settle(
	c context.Context,
	identity string,
	checkout domain.Checkout,
	balancePayment bool,
) (response.Checkout, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService settle")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService settle").
		Str(log.KeyIdentity, identity).
		Str(log.KeyOrderID, checkout.OrderID).
		Logger()

	state, err := checkout.State.Transition(domain.StatePaid)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}
	checkout.State = state

	svc.enrollCourses(logger.WithContext(c), checkout.PendingCourseIDs)
	checkout.PendingCourseIDs = nil

	if balancePayment {
		svc.profiles.RefreshBalance(logger.WithContext(c), identity)
	}

	err = svc.carts.ClearCart(logger.WithContext(c), identity)
	if err != nil {
		logger.Error().Err(err).Msgf("failed clearing cart after payment with error=%s", err.Error())
	}

	err = svc.checkouts.Save(c, identity, checkout)
	if err != nil {
		return response.Checkout{}, err
	}
	logger.Info().Str(log.KeyCheckoutState, checkout.State.String()).Msg("checkout paid")

	result := response.FromCheckout(checkout)
	result.RedirectTo = svc.config.ConfirmationRoute + "?orderId=" + checkout.OrderID
	return result, nil
}

// enrollCourses is best effort per course: one failed enrollment is logged
// and must not block the others or the confirmation.
func (svc CheckoutService) enrollCourses(c context.Context, courseIds []string) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService enrollCourses").
		Logger()

	for _, courseId := range courseIds {
		err := svc.upstream.Post(c, "/api/courses/"+courseId+"/enroll", nil, nil)
		if err != nil {
			logger.Error().
				Str(log.KeyCourseID, courseId).
				Err(err).
				Msgf("failed enrolling course with error=%s", err.Error())
			continue
		}
		logger.Info().Str(log.KeyCourseID, courseId).Msg("enrolled course")
	}
}
