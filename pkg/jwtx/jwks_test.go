package jwtx

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJWK_PEM_Ed25519(t *testing.T) {
	publicKey, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	jwk := NewEd25519JWK("test-key-id", "sig", AlgorithmEdDSA, publicKey)

	pemStr, err := jwk.PEM()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(pemStr, "-----BEGIN PUBLIC KEY-----"))
	require.True(t, strings.HasSuffix(strings.TrimSpace(pemStr), "-----END PUBLIC KEY-----"))

	block, _ := pem.Decode([]byte(pemStr))
	require.NotNil(t, block, "PEM block should be valid")
	require.Equal(t, "PUBLIC KEY", block.Type)

	parsedKey, err := x509.ParsePKIXPublicKey(block.Bytes)
	require.NoError(t, err)

	ed25519PubKey, ok := parsedKey.(ed25519.PublicKey)
	require.True(t, ok, "Parsed key should be an Ed25519 public key")
	require.Equal(t, publicKey, ed25519PubKey)
}

func TestJWK_PEM_UnsupportedKeyType(t *testing.T) {
	for _, jwk := range []JWK{
		{Kty: "RSA", Kid: "rsa-key", X: "AQAB"},
		{Kty: "OKP", Crv: "X25519", Kid: "x-key"},
	} {
		_, err := jwk.PEM()
		require.Error(t, err)
		require.Contains(t, err.Error(), "unsupported")
	}
}

func TestJWK_PEM_InvalidKeyMaterial(t *testing.T) {
	_, err := JWK{Kty: "OKP", Crv: "Ed25519", X: "!!!invalid-base64!!!"}.PEM()
	require.Error(t, err)

	_, err = JWK{Kty: "OKP", Crv: "Ed25519", X: "AQAB"}.PEM()
	require.ErrorContains(t, err, "invalid Ed25519 public key size")
}

func TestKeySet_ResetFromJWKS(t *testing.T) {
	pub1, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	pub2, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	ks := NewKeySet()
	require.False(t, ks.IsReady())
	require.NoError(t, ks.AddJWK(NewEd25519JWK("k1", "sig", AlgorithmEdDSA, pub1)))

	require.NoError(t, ks.ResetFromJWKS(JWKS{Keys: []JWK{NewEd25519JWK("k2", "sig", AlgorithmEdDSA, pub2)}}))

	_, err = ks.Get("k1")
	require.ErrorIs(t, err, ErrNoKey)

	got, err := ks.Get("k2")
	require.NoError(t, err)
	require.Equal(t, pub2, got)
	require.Len(t, ks.PublicJWKS().Keys, 1)
}
