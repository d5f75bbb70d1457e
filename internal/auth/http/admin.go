package http

import (
	"net/http"
	"strconv"

	"github.com/oncreesaas/oncree/internal/auth/service"
	"github.com/oncreesaas/oncree/pkg/authsdk"
	"github.com/oncreesaas/oncree/pkg/httpx"
	"github.com/oncreesaas/oncree/pkg/slogx"
)

const (
	defaultChallengeListLimit = 20
	maxChallengeListLimit     = 100
)

// ChallengesHandler lets support staff see what happened to an account's
// codes without ever seeing the codes.
type ChallengesHandler struct {
	ChallengeService *service.ChallengeService
}

// ServeHTTP handles GET /v1/admin/challenges
//
//	@Summary		List an account's verification challenges
//	@Description	Newest first, including retired ones still within the retention window. Requires an admin token obtained with a second factor.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			email	query		string	true	"Account email"
//	@Param			limit	query		int		false	"Maximum entries, 1 to 100"	default(20)
//	@Success		200		{object}	authsdk.ListChallengesResponse
//	@Failure		401		{object}	authsdk.APIError	"Invalid or missing access token"
//	@Failure		403		{object}	authsdk.APIError	"Not an admin, or no second factor"
//	@Failure		422		{object}	authsdk.APIError	"Missing email or bad limit"
//	@Router			/v1/admin/challenges [get].
func (h *ChallengesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	email := r.URL.Query().Get("email")
	if email == "" {
		authsdk.ErrValidation.WithDescription("email: is required").WriteError(w)
		return
	}

	limit := defaultChallengeListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxChallengeListLimit {
			authsdk.ErrValidation.WithDescription("limit: must be between 1 and 100").WriteError(w)
			return
		}
		limit = n
	}

	list, err := h.ChallengeService.List(ctx, email, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := authsdk.ListChallengesResponse{Challenges: make([]authsdk.ChallengeSummary, 0, len(list))}
	for _, c := range list {
		out.Challenges = append(out.Challenges, authsdk.ChallengeSummary{
			ID:           c.ID,
			Purpose:      string(c.Purpose),
			State:        string(c.State),
			AttemptCount: c.AttemptCount,
			AttemptsLeft: c.AttemptsLeft,
			IssuedAt:     c.IssuedAt,
			ExpiresAt:    c.ExpiresAt,
			VerifiedAt:   c.VerifiedAt,
			ConsumedAt:   c.ConsumedAt,
		})
	}

	slogx.FromContext(ctx).Info("challenges listed", "count", len(out.Challenges))
	httpx.WriteJSON(w, http.StatusOK, out)
}
