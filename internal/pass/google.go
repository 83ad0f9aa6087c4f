// google.go builds the save-to-wallet token claims
//
// The save flow works by encoding the whole card object inside an RS256
// compact token; the wallet backend trusts the token signature rather than a
// separate API call. Claim shape:
//
//	{iss, aud: "google", typ: "savetowallet", iat, payload: {genericObjects: [cardObject]}}
//
// the token is embedded in a https://pay.google.com/gp/v/save/<token> link.
package pass

import (
	"crypto/rsa"
	"fmt"
	"strings"

	"github.com/brightcard/walletpass/internal/card"
	"github.com/brightcard/walletpass/internal/crypto"
)

const (
	saveTokenAudience = "google"
	saveTokenType     = "savetowallet"
	saveURLPrefix     = "https://pay.google.com/gp/v/save/"
)

// LocalizedString is the wallet API representation of a translatable string
type LocalizedString struct {
	DefaultValue TranslatedString `json:"defaultValue"`
}

// TranslatedString is a single language/value pair
type TranslatedString struct {
	Language string `json:"language"`
	Value    string `json:"value"`
}

// TextModule is a label/value display module on the wallet object
type TextModule struct {
	ID     string `json:"id"`
	Header string `json:"header"`
	Body   string `json:"body"`
}

// WalletBarcode is the barcode rendered by the wallet app
type WalletBarcode struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// GenericObject is the wallet object embedded in the save token payload
type GenericObject struct {
	ID                 string          `json:"id"`
	ClassID            string          `json:"classId"`
	CardTitle          LocalizedString `json:"cardTitle"`
	Header             LocalizedString `json:"header"`
	HexBackgroundColor string          `json:"hexBackgroundColor,omitempty"`
	Barcode            WalletBarcode   `json:"barcode"`
	TextModulesData    []TextModule    `json:"textModulesData,omitempty"`
}

// SaveTokenPayload wraps the objects carried by a save token
type SaveTokenPayload struct {
	GenericObjects []GenericObject `json:"genericObjects"`
}

// SaveTokenClaims is the claim set of a save-to-wallet compact token
type SaveTokenClaims struct {
	Issuer   string           `json:"iss"`
	Audience string           `json:"aud"`
	Type     string           `json:"typ"`
	IssuedAt int64            `json:"iat"`
	Payload  SaveTokenPayload `json:"payload"`
}

// NewGenericObject converts a loyalty card to the wallet object representation.
//
// Object and class IDs are namespaced by the issuer ID as required by the
// wallet API (issuerID.localID).
func NewGenericObject(issuerID string, c card.LoyaltyCard) GenericObject {
	obj := GenericObject{
		ID:                 fmt.Sprintf("%s.%s", issuerID, c.ID),
		ClassID:            fmt.Sprintf("%s.%s", issuerID, c.ClassID),
		CardTitle:          englishString(c.ClassID),
		Header:             englishString(c.CustomerName),
		HexBackgroundColor: c.BackgroundColor,
		Barcode: WalletBarcode{
			Type:  "QR_CODE",
			Value: c.BarcodePayload,
		},
	}

	for _, f := range c.Fields {
		obj.TextModulesData = append(obj.TextModulesData, TextModule{
			ID:     fieldKey(f.Label),
			Header: f.Label,
			Body:   f.Value,
		})
	}

	return obj
}

// NewSaveTokenClaims builds the save-token claim set for a single card.
func NewSaveTokenClaims(issuerID string, c card.LoyaltyCard, issuedAt int64) SaveTokenClaims {
	return SaveTokenClaims{
		Issuer:   issuerID,
		Audience: saveTokenAudience,
		Type:     saveTokenType,
		IssuedAt: issuedAt,
		Payload: SaveTokenPayload{
			GenericObjects: []GenericObject{NewGenericObject(issuerID, c)},
		},
	}
}

// SignSaveToken signs the save-token claims and returns the compact token
// together with the save URL the end user follows.
func SignSaveToken(claims SaveTokenClaims, privateKey *rsa.PrivateKey) (token string, saveURL string, err error) {
	token, err = crypto.SignCompact(claims, privateKey)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign save token: %w", err)
	}
	return token, saveURLPrefix + token, nil
}

func englishString(value string) LocalizedString {
	return LocalizedString{
		DefaultValue: TranslatedString{
			Language: "en-US",
			Value:    strings.TrimSpace(value),
		},
	}
}
