// issuer orchestrates the pass issuance pipeline.
//
// One issuance is a single linear pipeline:
//
//	policy -> document construction -> (compact token) and/or
//	(manifest -> detached signature -> archive -> storage handoff)
//
// Steps within one issuance are strictly sequential because each depends on
// the serialized output of the previous one. Independent issuances share only
// the read-only key material and configuration and may run fully in parallel.
//
// Cancellation abandons the pipeline without partial side effects: the
// archive is never handed to storage once the context is done, and a failed
// upload surfaces an error rather than silently dropping the artifact.
package issuer

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brightcard/walletpass/internal/bundle"
	"github.com/brightcard/walletpass/internal/card"
	"github.com/brightcard/walletpass/internal/pass"
	"github.com/brightcard/walletpass/internal/signing"
	"github.com/brightcard/walletpass/internal/store"
)

// ErrInvalidRequest marks a caller-contract violation (empty customer name,
// negative points). It is detected before any signing work.
var ErrInvalidRequest = errors.New("invalid issuance request")

// Format selects which artifact kinds an issuance produces.
type Format string

const (
	// FormatToken: the save-to-wallet compact token
	FormatToken Format = "token"

	// FormatBundle: the signed pass bundle archive
	FormatBundle Format = "bundle"
)

// Request is a single issuance request.
type Request struct {

	// CustomerName is the display name for the card (required)
	CustomerName string `json:"customerName"`

	// Points is the accumulated point balance (non-negative)
	Points int `json:"points"`

	// Formats selects the artifacts to produce; empty means both
	Formats []Format `json:"formats,omitempty"`
}

// Issuance is the result of a successful issuance.
type Issuance struct {

	// Card is the issued loyalty card
	Card card.LoyaltyCard `json:"card"`

	// SaveToken is the signed compact token (FormatToken)
	SaveToken string `json:"saveToken,omitempty"`

	// SaveURL is the save-to-wallet link carrying SaveToken
	SaveURL string `json:"saveUrl,omitempty"`

	// BundleURL is the public URL of the uploaded pass bundle (FormatBundle)
	BundleURL string `json:"bundleUrl,omitempty"`
}

// Issuer runs the issuance pipeline. Safe for concurrent use: all fields are
// read-only after construction.
type Issuer struct {
	issuerID   string
	classID    string
	template   pass.Template
	privateKey *rsa.PrivateKey
	signer     signing.ManifestSigner
	store      store.ObjectStore
	images     map[string][]byte
	logger     *slog.Logger

	// now is the clock; overridable in tests for deterministic tokens
	now func() time.Time
}

// Config carries the issuer's construction parameters.
type Config struct {
	IssuerID   string
	ClassID    string
	Template   pass.Template
	PrivateKey *rsa.PrivateKey
	Signer     signing.ManifestSigner
	Store      store.ObjectStore

	// Images is the bundle image set (icon/logo at 1x/2x, optional 3x),
	// loaded once at startup - see LoadImages
	Images map[string][]byte
}

// New creates an Issuer.
func New(cfg Config, logger *slog.Logger) (*Issuer, error) {
	if cfg.IssuerID == "" {
		return nil, fmt.Errorf("issuer ID is required")
	}
	if cfg.ClassID == "" {
		return nil, fmt.Errorf("class ID is required")
	}
	if cfg.PrivateKey == nil {
		return nil, fmt.Errorf("private key is required")
	}
	if cfg.Signer == nil {
		return nil, fmt.Errorf("manifest signer is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("object store is required")
	}

	return &Issuer{
		issuerID:   cfg.IssuerID,
		classID:    cfg.ClassID,
		template:   cfg.Template,
		privateKey: cfg.PrivateKey,
		signer:     cfg.Signer,
		store:      cfg.Store,
		images:     cfg.Images,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Issue runs the pipeline for a new card.
func (i *Issuer) Issue(ctx context.Context, req Request) (*Issuance, error) {
	c, err := card.New(card.LoyaltyCardInput{
		ClassID:      i.classID,
		CustomerName: req.CustomerName,
		Points:       req.Points,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	return i.produce(ctx, c, req.Formats)
}

// Reissue runs the pipeline for an updated point balance.
// The existing card is superseded, not mutated: the new artifacts carry the
// same identifier with a freshly derived tier.
func (i *Issuer) Reissue(ctx context.Context, existing card.LoyaltyCard, points int, formats []Format) (*Issuance, error) {
	c, err := existing.UpdatePoints(points)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	return i.produce(ctx, c, formats)
}

// produce builds the requested artifacts for a validated card.
func (i *Issuer) produce(ctx context.Context, c card.LoyaltyCard, formats []Format) (*Issuance, error) {
	wantToken, wantBundle := wantedFormats(formats)

	result := &Issuance{Card: c}

	if wantToken {
		claims := pass.NewSaveTokenClaims(i.issuerID, c, i.now().Unix())

		token, saveURL, err := pass.SignSaveToken(claims, i.privateKey)
		if err != nil {
			return nil, err
		}

		result.SaveToken = token
		result.SaveURL = saveURL

		i.logger.Info("save token issued",
			slog.String("cardId", c.ID),
			slog.String("tier", string(c.Tier)))
	}

	if wantBundle {
		url, err := i.produceBundle(ctx, c)
		if err != nil {
			return nil, err
		}
		result.BundleURL = url
	}

	return result, nil
}

// produceBundle runs the hash -> sign -> pack -> upload leg of the pipeline.
func (i *Issuer) produceBundle(ctx context.Context, c card.LoyaltyCard) (string, error) {
	doc := pass.NewDocument(i.template, c)

	docBytes, err := doc.Marshal()
	if err != nil {
		return "", err
	}

	// validate before any signing work: an invalid bundle must never be
	// emitted as if valid
	if err := bundle.ValidateFiles(docBytes, i.images); err != nil {
		return "", err
	}

	files := map[string][]byte{bundle.DocumentFile: docBytes}
	for name, data := range i.images {
		files[name] = data
	}

	manifestBytes, err := bundle.BuildManifest(files).Serialize()
	if err != nil {
		return "", err
	}

	signature, err := i.signer.Sign(ctx, manifestBytes)
	if err != nil {
		return "", fmt.Errorf("failed to sign bundle manifest: %w", err)
	}

	archive, err := bundle.Pack(bundle.Input{
		Document:  docBytes,
		Manifest:  manifestBytes,
		Signature: signature,
		Images:    i.images,
	})
	if err != nil {
		return "", err
	}

	// a cancelled issuance must not hand a partial artifact to storage
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("issuance cancelled before upload: %w", err)
	}

	url, err := i.store.Put(ctx, c.ID+".pkpass", archive)
	if err != nil {
		return "", fmt.Errorf("failed to upload bundle: %w", err)
	}

	i.logger.Info("pass bundle issued",
		slog.String("cardId", c.ID),
		slog.String("tier", string(c.Tier)),
		slog.Int("archiveBytes", len(archive)))

	return url, nil
}

func wantedFormats(formats []Format) (token, bundle bool) {
	if len(formats) == 0 {
		return true, true
	}
	for _, f := range formats {
		switch f {
		case FormatToken:
			token = true
		case FormatBundle:
			bundle = true
		}
	}
	return token, bundle
}
