package card

import "testing"

func TestLoyaltyCardInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   LoyaltyCardInput
		wantErr bool
	}{
		{
			name:    "valid input",
			input:   LoyaltyCardInput{ClassID: "issuer.loyalty", CustomerName: "Alice", Points: 150},
			wantErr: false,
		},
		{
			name:    "zero points is valid",
			input:   LoyaltyCardInput{ClassID: "issuer.loyalty", CustomerName: "Alice", Points: 0},
			wantErr: false,
		},
		{
			name:    "empty customer name",
			input:   LoyaltyCardInput{ClassID: "issuer.loyalty", CustomerName: "", Points: 150},
			wantErr: true,
		},
		{
			name:    "empty class ID",
			input:   LoyaltyCardInput{ClassID: "", CustomerName: "Alice", Points: 150},
			wantErr: true,
		},
		{
			name:    "negative points",
			input:   LoyaltyCardInput{ClassID: "issuer.loyalty", CustomerName: "Alice", Points: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew(t *testing.T) {
	c, err := New(LoyaltyCardInput{ClassID: "issuer.loyalty", CustomerName: "Alice", Points: 150})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if c.ID == "" {
		t.Error("New() did not assign a card ID")
	}
	if c.BarcodePayload != c.ID {
		t.Errorf("barcode payload = %q, want card ID %q", c.BarcodePayload, c.ID)
	}
	if c.Tier != TierSilver {
		t.Errorf("tier = %v, want %v", c.Tier, TierSilver)
	}
	if c.BackgroundColor != DefaultBackgroundColor {
		t.Errorf("background = %q, want %q", c.BackgroundColor, DefaultBackgroundColor)
	}
	if len(c.Fields) != 3 {
		t.Fatalf("got %d display fields, want 3", len(c.Fields))
	}
	if c.Fields[0].Value != "Alice" {
		t.Errorf("first field value = %q, want customer name", c.Fields[0].Value)
	}
}

func TestNewAssignsUniqueIDs(t *testing.T) {
	in := LoyaltyCardInput{ClassID: "issuer.loyalty", CustomerName: "Alice", Points: 150}

	first, err := New(in)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	second, err := New(in)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if first.ID == second.ID {
		t.Errorf("two issuances got the same card ID %q", first.ID)
	}
}

func TestUpdatePoints(t *testing.T) {
	c, err := New(LoyaltyCardInput{ClassID: "issuer.loyalty", CustomerName: "Bob", Points: 150})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	next, err := c.UpdatePoints(1500)
	if err != nil {
		t.Fatalf("UpdatePoints() error = %v", err)
	}

	if next.ID != c.ID {
		t.Errorf("card ID changed from %q to %q", c.ID, next.ID)
	}
	if next.Tier != TierPlatinum {
		t.Errorf("tier = %v, want %v", next.Tier, TierPlatinum)
	}
	if next.Fields[1].Value != "1500" {
		t.Errorf("points field = %q, want %q", next.Fields[1].Value, "1500")
	}

	// the original card value is unchanged
	if c.Points != 150 || c.Tier != TierSilver {
		t.Errorf("original card mutated: points=%d tier=%v", c.Points, c.Tier)
	}

	if _, err := c.UpdatePoints(-5); err == nil {
		t.Error("UpdatePoints(-5) should be rejected")
	}
}
