package payment

// Gateways bundles every provider the API can charge through. Each one
// decides at construction whether its credentials are usable.
type Gateways struct {
	Razorpay *RazorpayGateway
	Stripe   *StripeGateway
}

func NewGateways(razorpay *RazorpayGateway, stripe *StripeGateway) *Gateways {
	return &Gateways{Razorpay: razorpay, Stripe: stripe}
}
