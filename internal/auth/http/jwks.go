package http

import (
	"net/http"

	"github.com/oncreesaas/oncree/pkg/authsdk"
	"github.com/oncreesaas/oncree/pkg/httpx"
	"github.com/oncreesaas/oncree/pkg/jwtx"
)

// JWKSHandler publishes the public keys access tokens are signed with, so
// the rest of the platform can verify them offline.
//
//	@Summary		Get JWKS
//	@Description	Returns the JSON Web Key Set used to verify access tokens.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	authsdk.JWKSResponse	"The JSON Web Key Set"
//	@Router			/.well-known/jwks.json [get].
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.JWKSResponse(keys.PublicJWKS()))
	}
}
