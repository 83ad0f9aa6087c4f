// card contains the loyalty card domain model.
//
// A LoyaltyCard is created per issuance request and is immutable once created.
// Updates never mutate an existing card - UpdatePoints returns a new value with
// the same identifier and a freshly derived tier.
package card

import (
	"fmt"

	"github.com/google/uuid"
)

// default background color for issued cards (hex RGB)
const DefaultBackgroundColor = "#1a73e8"

// Field is a single label/value pair shown on the card.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// LoyaltyCard is the card as it appears on every produced artifact.
//
// ID doubles as the barcode payload so a scanned card can be resolved back to
// the issuance record.
type LoyaltyCard struct {

	// ID is an opaque unique identifier for the card
	ID string `json:"id"`

	// ClassID identifies the loyalty program the card belongs to
	ClassID string `json:"classId"`

	// CustomerName is the display name shown on the card
	CustomerName string `json:"customerName"`

	// Points is the accumulated point balance (non-negative)
	Points int `json:"points"`

	// Tier is derived from Points via TierFor
	Tier Tier `json:"tier"`

	// BarcodePayload is encoded into the 2D barcode (equal to ID)
	BarcodePayload string `json:"barcodePayload"`

	// BackgroundColor is the card background (hex RGB)
	BackgroundColor string `json:"backgroundColor"`

	// Fields are the ordered label/value display fields
	Fields []Field `json:"fields"`
}

// LoyaltyCardInput is the caller-supplied data for a new card.
type LoyaltyCardInput struct {
	ClassID      string `json:"classId"`
	CustomerName string `json:"customerName"`
	Points       int    `json:"points"`
}

// Validate checks the caller contract before any signing work is attempted.
func (in *LoyaltyCardInput) Validate() error {
	if in.ClassID == "" {
		return fmt.Errorf("classId is required")
	}
	if in.CustomerName == "" {
		return fmt.Errorf("customerName is required")
	}
	if in.Points < 0 {
		return fmt.Errorf("points must not be negative, got %d", in.Points)
	}
	return nil
}

// New creates a LoyaltyCard from validated input.
//
// The card identifier is generated here and reused as the barcode payload.
func New(in LoyaltyCardInput) (LoyaltyCard, error) {
	if err := in.Validate(); err != nil {
		return LoyaltyCard{}, err
	}

	id := uuid.NewString()
	c := LoyaltyCard{
		ID:              id,
		ClassID:         in.ClassID,
		CustomerName:    in.CustomerName,
		Points:          in.Points,
		Tier:            TierFor(in.Points),
		BarcodePayload:  id,
		BackgroundColor: DefaultBackgroundColor,
	}
	c.Fields = displayFields(c)

	return c, nil
}

// UpdatePoints returns a new card superseding c with the supplied balance.
// The identifier (and therefore the barcode payload) is retained; the tier and
// display fields are re-derived.
func (c LoyaltyCard) UpdatePoints(points int) (LoyaltyCard, error) {
	if points < 0 {
		return LoyaltyCard{}, fmt.Errorf("points must not be negative, got %d", points)
	}

	next := c
	next.Points = points
	next.Tier = TierFor(points)
	next.Fields = displayFields(next)

	return next, nil
}

// displayFields builds the label/value fields shown on the pass.
// order matters: wallet apps render the fields in the order given.
func displayFields(c LoyaltyCard) []Field {
	return []Field{
		{Label: "Member", Value: c.CustomerName},
		{Label: "Points", Value: fmt.Sprintf("%d", c.Points)},
		{Label: "Tier", Value: string(c.Tier)},
	}
}
