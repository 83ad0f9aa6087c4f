package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/brightcard/walletpass/internal/issuer"
)

// IssuePassRequest is the body accepted by POST /v1/passes.
type IssuePassRequest struct {
	CustomerName string   `json:"customerName"`
	Points       int      `json:"points"`
	Formats      []string `json:"formats,omitempty"`
}

// IssuePassResponse describes a completed issuance.
type IssuePassResponse struct {
	CardID    string `json:"cardId"`
	ClassID   string `json:"classId"`
	Tier      string `json:"tier"`
	Points    int    `json:"points"`
	SaveToken string `json:"saveToken,omitempty"`
	SaveURL   string `json:"saveUrl,omitempty"`
	BundleURL string `json:"bundleUrl,omitempty"`
}

// HandleIssuePass runs the issuance pipeline for a new loyalty card.
func HandleIssuePass(svc *issuer.Issuer, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req IssuePassRequest

		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			RespondWithJSON(w, http.StatusBadRequest,
				errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
			return
		}

		formats, err := parseFormats(req.Formats)
		if err != nil {
			RespondWithJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		issuance, err := svc.Issue(r.Context(), issuer.Request{
			CustomerName: req.CustomerName,
			Points:       req.Points,
			Formats:      formats,
		})
		if err != nil {
			RespondWithError(w, logger, err)
			return
		}

		RespondWithJSON(w, http.StatusCreated, IssuePassResponse{
			CardID:    issuance.Card.ID,
			ClassID:   issuance.Card.ClassID,
			Tier:      string(issuance.Card.Tier),
			Points:    issuance.Card.Points,
			SaveToken: issuance.SaveToken,
			SaveURL:   issuance.SaveURL,
			BundleURL: issuance.BundleURL,
		})
	}
}

func parseFormats(names []string) ([]issuer.Format, error) {
	formats := make([]issuer.Format, 0, len(names))
	for _, name := range names {
		switch issuer.Format(name) {
		case issuer.FormatToken, issuer.FormatBundle:
			formats = append(formats, issuer.Format(name))
		default:
			return nil, fmt.Errorf("unknown format %q", name)
		}
	}
	return formats, nil
}
