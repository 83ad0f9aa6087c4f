// pass contains the pass document model (the pass.json of a pass bundle)
//
// The document is the structured file at the heart of a pass bundle - the
// consuming wallet app rejects the whole bundle if a required field is missing
// or malformed, so validation here must run before a bundle is ever signed or
// packaged (see internal/bundle).
package pass

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/brightcard/walletpass/internal/card"
)

// required prefix for pass type identifiers
const PassTypeIdentifierPrefix = "pass."

// required length of team identifiers
const TeamIdentifierLength = 10

// barcode format tags recognized by wallet apps.
// this service only ever emits the QR format but accepts the full enumeration
// when validating externally supplied documents.
const (
	BarcodeFormatQR      = "PKBarcodeFormatQR"
	BarcodeFormatPDF417  = "PKBarcodeFormatPDF417"
	BarcodeFormatAztec   = "PKBarcodeFormatAztec"
	BarcodeFormatCode128 = "PKBarcodeFormatCode128"
)

var validBarcodeFormats = map[string]bool{
	BarcodeFormatQR:      true,
	BarcodeFormatPDF417:  true,
	BarcodeFormatAztec:   true,
	BarcodeFormatCode128: true,
}

// Field is a single display field on the pass
type Field struct {
	Key   string `json:"key"`
	Label string `json:"label,omitempty"`
	Value string `json:"value"`
}

// StoreCard is the primary card-display structure of a loyalty pass document
type StoreCard struct {
	PrimaryFields   []Field `json:"primaryFields,omitempty"`
	SecondaryFields []Field `json:"secondaryFields,omitempty"`
	AuxiliaryFields []Field `json:"auxiliaryFields,omitempty"`
	BackFields      []Field `json:"backFields,omitempty"`
}

// Barcode is a single barcode entry in the pass document
type Barcode struct {

	// Message is the barcode payload (the card identifier)
	Message string `json:"message"`

	// Format must be one of the recognized PKBarcodeFormat* tags
	Format string `json:"format"`

	// MessageEncoding is the text encoding of Message
	MessageEncoding string `json:"messageEncoding"`
}

// Document is the structured pass document (pass.json)
type Document struct {
	FormatVersion      int        `json:"formatVersion"`
	PassTypeIdentifier string     `json:"passTypeIdentifier"`
	TeamIdentifier     string     `json:"teamIdentifier"`
	SerialNumber       string     `json:"serialNumber"`
	OrganizationName   string     `json:"organizationName"`
	Description        string     `json:"description"`
	BackgroundColor    string     `json:"backgroundColor,omitempty"`
	StoreCard          *StoreCard `json:"storeCard"`
	Barcodes           []Barcode  `json:"barcodes,omitempty"`
}

// Template carries the issuer-level document settings
type Template struct {
	PassTypeIdentifier string
	TeamIdentifier     string
	OrganizationName   string
}

// NewDocument builds a pass document for a loyalty card.
//
// The card identifier becomes the serial number and the barcode payload; the
// card's display fields map onto the store-card structure in order.
func NewDocument(tmpl Template, c card.LoyaltyCard) Document {
	sc := &StoreCard{}
	for i, f := range c.Fields {
		field := Field{
			Key:   fieldKey(f.Label),
			Label: f.Label,
			Value: f.Value,
		}
		if i == 0 {
			sc.PrimaryFields = append(sc.PrimaryFields, field)
		} else {
			sc.SecondaryFields = append(sc.SecondaryFields, field)
		}
	}

	return Document{
		FormatVersion:      1,
		PassTypeIdentifier: tmpl.PassTypeIdentifier,
		TeamIdentifier:     tmpl.TeamIdentifier,
		SerialNumber:       c.ID,
		OrganizationName:   tmpl.OrganizationName,
		Description:        tmpl.OrganizationName + " loyalty card",
		BackgroundColor:    c.BackgroundColor,
		StoreCard:          sc,
		Barcodes: []Barcode{
			{
				Message:         c.BarcodePayload,
				Format:          BarcodeFormatQR,
				MessageEncoding: "iso-8859-1",
			},
		},
	}
}

func fieldKey(label string) string {
	return strings.ToLower(strings.ReplaceAll(label, " ", "-"))
}

// Validate checks that all fields required by the consuming wallet app are present.
func (d *Document) Validate() error {
	if d.FormatVersion != 1 {
		return NewDocumentError("formatVersion must be 1")
	}
	if !strings.HasPrefix(d.PassTypeIdentifier, PassTypeIdentifierPrefix) {
		return NewDocumentError("passTypeIdentifier must start with " + PassTypeIdentifierPrefix)
	}
	if len(d.TeamIdentifier) != TeamIdentifierLength {
		return NewDocumentError("teamIdentifier must be exactly 10 characters")
	}
	if d.SerialNumber == "" {
		return NewDocumentError("serialNumber is required")
	}
	if d.OrganizationName == "" {
		return NewDocumentError("organizationName is required")
	}
	if d.Description == "" {
		return NewDocumentError("description is required")
	}
	if d.StoreCard == nil {
		return NewDocumentError("storeCard is required")
	}
	for _, b := range d.Barcodes {
		if b.Message == "" {
			return NewDocumentError("barcode message is required")
		}
		if !validBarcodeFormats[b.Format] {
			return NewDocumentError("unrecognized barcode format: " + b.Format)
		}
	}
	return nil
}

// ParseDocument decodes and validates pass document bytes.
// unknown fields are rejected so a typoed field name fails loudly instead of
// being silently dropped by the wallet app.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&doc); err != nil {
		return nil, WrapDocumentError(err, "could not unmarshal pass document")
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	return &doc, nil
}

// Marshal serializes the document to JSON.
func (d *Document) Marshal() ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, WrapDocumentError(err, "failed to marshal pass document")
	}
	return data, nil
}
