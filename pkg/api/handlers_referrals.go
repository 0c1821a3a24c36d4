package api

import (
	"net/http"
)

func (s *Server) handleIssueReferralCode(w http.ResponseWriter, r *http.Request) {
	referral, err := s.referrals.IssueCode(r.Context(), userFrom(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, referralCodeResponse{
		Code:   referral.ReferralCode,
		Status: string(referral.Status),
	})
}

type redeemReferralRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleRedeemReferralCode(w http.ResponseWriter, r *http.Request) {
	var req redeemReferralRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	conversion, err := s.referrals.ApplyCode(r.Context(), userFrom(r), req.Code)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"referrer_id": conversion.ReferrerID,
		"status":      string(conversion.Status),
	})
}

func (s *Server) handleReferralStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.referrals.Stats(r.Context(), userFrom(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
