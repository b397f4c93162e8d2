package responder

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ziadkadry99/support-router/internal/logger"
	"github.com/ziadkadry99/support-router/internal/orders"
	"github.com/ziadkadry99/support-router/internal/session"
)

const dateLayout = "Mon Jan 02 2006"

// OrderSource looks up a single order with its items.
type OrderSource interface {
	Get(ctx context.Context, id string) (*orders.Order, error)
}

// PolicyAnswerer supplies policy text quoted inside order answers.
type PolicyAnswerer interface {
	Answer(ctx context.Context, query string, history []session.Turn) (*Response, error)
}

// policyFallback is quoted when the policy lookup itself fails.
const policyFallback = "Check the returns and refunds page on our site for the full details."

// OrderResponder answers questions about one of the customer's orders.
// Lookups that fail are answered with an apology rather than an error.
type OrderResponder struct {
	orders       OrderSource
	policy       PolicyAnswerer
	returnWindow int
	now          func() time.Time
	log          *logger.Logger
}

// NewOrderResponder creates an OrderResponder. returnWindowDays is the number
// of days after delivery during which an item can be returned.
func NewOrderResponder(src OrderSource, policy PolicyAnswerer, returnWindowDays int, log *logger.Logger) *OrderResponder {
	if log == nil {
		log = logger.Nop()
	}
	return &OrderResponder{
		orders:       src,
		policy:       policy,
		returnWindow: returnWindowDays,
		now:          time.Now,
		log:          log,
	}
}

// Respond dispatches on the action implied by the message. It never answers
// about an order outside req.KnownOrderIDs.
func (r *OrderResponder) Respond(ctx context.Context, req Request) (*Response, error) {
	if req.OrderID == "" || !slices.Contains(req.KnownOrderIDs, req.OrderID) {
		return &Response{Answer: clarifyOrder(req.KnownOrderIDs)}, nil
	}

	action := SelectAction(req.Text, req.Intent)
	o, err := r.fetch(ctx, req.OrderID)
	if err != nil {
		return &Response{Answer: fetchFailure(action)}, nil
	}

	var answer string
	switch action {
	case ActionCancel:
		answer = r.cancelText(ctx, o, req.History)
	case ActionRefund:
		answer = r.refundText(ctx, o, req.History)
	case ActionReturn:
		answer = r.returnText(ctx, o, req.History)
	case ActionShipping:
		answer = r.shippingText(ctx, o, req.History)
	case ActionStatus:
		answer = r.statusText(ctx, o, req.History)
	case ActionDetails:
		answer = detailsText(o)
	default:
		answer = summaryText(o)
	}
	return &Response{Answer: answer, Order: o}, nil
}

// StatusFor describes where order id is.
func (r *OrderResponder) StatusFor(ctx context.Context, id string) string {
	o, err := r.fetch(ctx, id)
	if err != nil {
		return fetchFailure(ActionStatus)
	}
	return r.statusText(ctx, o, nil)
}

// RefundStatusFor describes the refund state of order id.
func (r *OrderResponder) RefundStatusFor(ctx context.Context, id string, history []session.Turn) string {
	o, err := r.fetch(ctx, id)
	if err != nil {
		return fetchFailure(ActionRefund)
	}
	return r.refundText(ctx, o, history)
}

// ShippingEstimateFor describes when order id shipped or is expected to.
func (r *OrderResponder) ShippingEstimateFor(ctx context.Context, id string) string {
	o, err := r.fetch(ctx, id)
	if err != nil {
		return fetchFailure(ActionShipping)
	}
	return r.shippingText(ctx, o, nil)
}

// ReturnEligibilityFor reports whether order id can still be returned.
func (r *OrderResponder) ReturnEligibilityFor(ctx context.Context, id string) string {
	o, err := r.fetch(ctx, id)
	if err != nil {
		return fetchFailure(ActionReturn)
	}
	return r.returnText(ctx, o, nil)
}

// CancelEligibilityFor reports whether order id can still be cancelled.
func (r *OrderResponder) CancelEligibilityFor(ctx context.Context, id string, history []session.Turn) string {
	o, err := r.fetch(ctx, id)
	if err != nil {
		return fetchFailure(ActionCancel)
	}
	return r.cancelText(ctx, o, history)
}

func (r *OrderResponder) fetch(ctx context.Context, id string) (*orders.Order, error) {
	o, err := r.orders.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, orders.ErrNotFound) {
			r.log.Warn("order lookup failed", "order_id", id, "error", err)
		}
		return nil, err
	}
	return o, nil
}

func (r *OrderResponder) statusText(ctx context.Context, o *orders.Order, history []session.Turn) string {
	switch {
	case o.Refunded():
		return fmt.Sprintf("Looks like you already got a refund for this one 💸. Your refund for order %s was issued on %s. %s",
			o.ID, formatDate(*o.RefundedAt), r.policyText(ctx, "refund processing time", history))
	case o.Status == orders.StatusCancelled:
		return fmt.Sprintf("Order %s was cancelled 🚫. If you were charged, the refund follows automatically.", o.ID)
	case o.Delivered():
		return fmt.Sprintf("Yup, your order was delivered on %s 📦✅", formatDate(*o.DeliveredAt))
	case o.Shipped():
		shipped := *o.ShippedAt
		return fmt.Sprintf("Your order shipped on %s 🚚. You should expect delivery between %s and %s 📬.",
			formatDate(shipped), formatDate(shipped.AddDate(0, 0, 2)), formatDate(shipped.AddDate(0, 0, 6)))
	case o.Status == orders.StatusProcessing || o.ShippingStatus == orders.ShippingPending:
		return "Your order hasn't shipped yet, but it's queued up 🛠️. I'll ping you when it's out the door."
	default:
		return "Hmm, not sure where your order's at. Could be stuck in processing. Try again or ping support 🌀"
	}
}

func (r *OrderResponder) refundText(ctx context.Context, o *orders.Order, history []session.Turn) string {
	if o.Refunded() {
		return fmt.Sprintf("Your refund for order %s was issued on %s 💸. It usually takes 5-7 business days to show up on your card. Anything else you want me to check?",
			o.ID, formatDate(*o.RefundedAt))
	}
	return "Your refund hasn't been issued yet, but here's what the policy says:\n" +
		r.policyText(ctx, "how long do refunds take", history)
}

func (r *OrderResponder) shippingText(ctx context.Context, o *orders.Order, history []session.Turn) string {
	switch {
	case o.Delivered():
		return fmt.Sprintf("Your order was delivered on %s 📦✅", formatDate(*o.DeliveredAt))
	case o.Shipped():
		return fmt.Sprintf("Your order was shipped on %s 🚚 and is on its way!", formatDate(*o.ShippedAt))
	case o.Status == orders.StatusCancelled:
		return fmt.Sprintf("Order %s was cancelled, so it won't be shipping 🚫.", o.ID)
	default:
		return fmt.Sprintf("You placed your order on %s 🛒. We usually ship within 1-2 business days, so it should ship between %s and %s 📦.\n\nJust so you know: %s",
			formatDate(o.CreatedAt), formatDate(o.CreatedAt.AddDate(0, 0, 1)), formatDate(o.CreatedAt.AddDate(0, 0, 2)),
			r.policyText(ctx, "shipping times", history))
	}
}

func (r *OrderResponder) returnText(ctx context.Context, o *orders.Order, history []session.Turn) string {
	switch {
	case o.Refunded():
		return "Looks like you already got a refund for this one 💸. All set!"
	case !o.Delivered():
		return "You can return the item once it's delivered 📦. Wanna check back after it arrives?"
	}
	if left, ok := r.returnDaysLeft(o); ok {
		return fmt.Sprintf("✅ Yep, you're still within the return window (%d days left). Here's how to return it:\n%s",
			left, r.policyText(ctx, "how to return an item", history))
	}
	return fmt.Sprintf("⏳ Oof, looks like the %d-day return window passed. Might wanna ping support to see if they can help.", r.returnWindow)
}

func (r *OrderResponder) cancelText(ctx context.Context, o *orders.Order, history []session.Turn) string {
	switch {
	case o.Status == orders.StatusCancelled:
		return fmt.Sprintf("Order %s is already cancelled ✅. Nothing else to do!", o.ID)
	case o.Refunded():
		return "Looks like you already got a refund for this one 💸, so there's nothing left to cancel."
	case o.Delivered():
		var alt string
		if left, ok := r.returnDaysLeft(o); ok {
			alt = fmt.Sprintf("✅ You're still within the return window (%d days left). If you're not happy with your item, you can return it instead!", left)
		} else {
			alt = "🚚 This one's already delivered and the return window looks to be over, but you can still try reaching out to support."
		}
		return fmt.Sprintf("Oops, can't cancel that one since it's already delivered 🧾.\n\n%s\n\n%s",
			alt, r.policyText(ctx, "cancellation policy", history))
	case o.Shipped():
		return fmt.Sprintf("Order %s already shipped on %s 🚚, so it can't be cancelled anymore. Once it arrives you can return it within %d days.",
			o.ID, formatDate(*o.ShippedAt), r.returnWindow)
	default:
		return fmt.Sprintf("Order %s hasn't shipped yet, so it can still be cancelled ✅. Reach out to support with the order number and they'll stop it before it leaves.", o.ID)
	}
}

// returnDaysLeft reports the whole days remaining in the return window and
// whether the window is still open.
func (r *OrderResponder) returnDaysLeft(o *orders.Order) (int, bool) {
	if o.DeliveredAt == nil {
		return 0, false
	}
	since := int(r.now().Sub(*o.DeliveredAt) / (24 * time.Hour))
	left := r.returnWindow - since
	return left, since <= r.returnWindow
}

func (r *OrderResponder) policyText(ctx context.Context, query string, history []session.Turn) string {
	if r.policy == nil {
		return policyFallback
	}
	resp, err := r.policy.Answer(ctx, query, history)
	if err != nil || strings.TrimSpace(resp.Answer) == "" {
		if err != nil {
			r.log.Warn("policy lookup for order answer failed", "query", query, "error", err)
		}
		return policyFallback
	}
	return resp.Answer
}

func summaryText(o *orders.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order #%s:\n", o.ID)
	fmt.Fprintf(&b, "Status: %s\n", o.Status)
	fmt.Fprintf(&b, "Shipping: %s\n", o.ShippingStatus)
	if o.RefundStatus != "" && o.RefundStatus != orders.RefundNone {
		fmt.Fprintf(&b, "Refund: %s\n", o.RefundStatus)
	}
	fmt.Fprintf(&b, "Total: $%.2f\n", o.TotalAmount)
	fmt.Fprintf(&b, "Ordered on: %s", formatDate(o.CreatedAt))
	return b.String()
}

func detailsText(o *orders.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order #%s comes to $%.2f.", o.ID, o.TotalAmount)
	if len(o.Items) == 0 {
		return b.String()
	}
	b.WriteString("\nItems:")
	for _, it := range o.Items {
		name := it.Name
		if name == "" {
			name = it.ProductID
		}
		fmt.Fprintf(&b, "\n- %s (Item ID: %s), Quantity: %d, Price: $%.2f", name, it.ProductID, it.Quantity, it.Price)
	}
	return b.String()
}

func fetchFailure(a Action) string {
	switch a {
	case ActionRefund:
		return "I tried looking up your refund but hit a snag. Can you try again?"
	case ActionShipping:
		return "Hmm, I couldn't find your order info right now 🕵️. Try again later."
	case ActionReturn:
		return "Hmm... couldn't fetch that order right now 🛑"
	case ActionCancel:
		return "Couldn't fetch your order details right now 🧯. Try again in a bit!"
	default:
		return "Hmm, couldn't find that order right now 🕵️. Wanna double-check the ID?"
	}
}

func clarifyOrder(known []string) string {
	if len(known) == 0 {
		return "Please provide an order ID so I can look it up."
	}
	return fmt.Sprintf("Which order do you mean? You've got: %s. Please provide an order ID.", strings.Join(known, ", "))
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}
