package amqp

import (
	"encoding/json"
	"time"
)

// PaymentAppliedMessage announces that a payment was recorded against an
// obligation. The forecast worker consumes these and refreshes the
// stored payoff forecast; consumers re-read the ledger, so the message
// carries identifiers rather than full state.
type PaymentAppliedMessage struct {
	ObligationID int64     `json:"obligation_id"`
	AmountCents  int64     `json:"amount_cents"`
	Year         int       `json:"year"`
	Month        int       `json:"month"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewPaymentAppliedMessage builds a message for a just-recorded payment.
func NewPaymentAppliedMessage(obligationID, amountCents int64, year, month int) *PaymentAppliedMessage {
	return &PaymentAppliedMessage{
		ObligationID: obligationID,
		AmountCents:  amountCents,
		Year:         year,
		Month:        month,
		Timestamp:    time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *PaymentAppliedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PaymentAppliedMessageFromJSON decodes a message from JSON bytes.
func PaymentAppliedMessageFromJSON(data []byte) (*PaymentAppliedMessage, error) {
	var msg PaymentAppliedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
