package checkout

// Step is the orchestrator's position in the checkout flow.
type Step string

const (
	StepCollectingAddress Step = "COLLECTING_ADDRESS"
	StepAddressSubmitting Step = "ADDRESS_SUBMITTING"
	StepOrderCreating     Step = "ORDER_CREATING"
	StepAwaitingPayment   Step = "AWAITING_PAYMENT"
	StepPaymentConfirming Step = "PAYMENT_CONFIRMING"
	StepCompleted         Step = "COMPLETED"
	StepErrored           Step = "ERRORED"
)

// IsTerminal reports whether the flow is finished. Errored is not terminal;
// it allows a retry from the step that failed.
func (s Step) IsTerminal() bool {
	return s == StepCompleted
}

func (s Step) String() string {
	return string(s)
}
