// Package resulttoken signs and verifies instruction results: ES256 JWTs the
// account server issues after a successful PIN or biometric proof. Issuers and
// verifiers accept an instruction result as evidence the user confirmed the
// operation.
package resulttoken

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	Issuer = "wallet-provider"
	TTL    = 5 * time.Minute
)

var (
	ErrInvalidToken     = errors.New("invalid instruction result")
	ErrMismatchedResult = errors.New("instruction result does not match the request")
)

// Claims is the payload of an instruction result.
type Claims struct {
	Instruction string `json:"instruction"`
	Sequence    uint64 `json:"seq"`
	jwt.RegisteredClaims
}

// Sign issues a result for walletID.
func Sign(key *ecdsa.PrivateKey, walletID, instruction string, sequence uint64, now time.Time) (string, error) {
	claims := Claims{
		Instruction: instruction,
		Sequence:    sequence,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   walletID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign instruction result: %w", err)
	}
	return signed, nil
}

// Verify checks the signature with the PEM encoded provider key and that the
// result belongs to this wallet, instruction and sequence number. Expiry is
// evaluated at now.
func Verify(token string, providerKeyPEM []byte, walletID, instruction string, sequence uint64, now time.Time) (*Claims, error) {
	pub, err := jwt.ParseECPublicKeyFromPEM(providerKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse provider key: %w", err)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return pub, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithSubject(walletID),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil || !parsed.Valid {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if claims.Instruction != instruction || claims.Sequence != sequence {
		return nil, ErrMismatchedResult
	}
	return claims, nil
}

// EncodePublicKey renders key as a PKIX PEM block.
func EncodePublicKey(key *ecdsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return nil, fmt.Errorf("marshal provider key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}
