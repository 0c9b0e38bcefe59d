package dto

import "github.com/google/uuid"

type ClaimRequest struct {
	LostReportID  uuid.UUID `json:"lost_report_id"`
	FoundReportID uuid.UUID `json:"found_report_id"`
	ProofDetails  string    `json:"proof_details"`
}

type ConfirmMatchRequest struct {
	ProofDetails string `json:"proof_details"`
}
