package api

import (
	"net/http"
)

type claimRewardRequest struct {
	Day int `json:"day"`
}

func (s *Server) handleClaimReward(w http.ResponseWriter, r *http.Request) {
	var req claimRewardRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	userID := userFrom(r)
	reward, err := s.rewards.ClaimStreakReward(r.Context(), userID, req.Day)
	if err != nil {
		rewardClaimsTotal.WithLabelValues("rejected").Inc()
		s.writeError(w, err)
		return
	}

	rewardClaimsTotal.WithLabelValues("granted").Inc()
	s.archiveLatestTransaction(r, userID)

	writeJSON(w, http.StatusOK, rewardResponse{
		Type:         reward.Type,
		XPReward:     reward.XPReward,
		WalletReward: reward.WalletReward,
		EarnedAt:     reward.EarnedAt,
	})
}

type earnBadgeRequest struct {
	BadgeType string `json:"badge_type"`
}

func (s *Server) handleEarnBadge(w http.ResponseWriter, r *http.Request) {
	var req earnBadgeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	earned, err := s.rewards.EarnBadge(r.Context(), userFrom(r), req.BadgeType)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"badge_type": req.BadgeType,
		"earned":     earned,
	})
}

func (s *Server) handleListBadges(w http.ResponseWriter, r *http.Request) {
	badges, err := s.rewards.ListBadges(r.Context(), userFrom(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]badgeResponse, 0, len(badges))
	for _, badge := range badges {
		out = append(out, badgeResponse{
			BadgeType: badge.BadgeType,
			EarnedAt:  badge.EarnedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
