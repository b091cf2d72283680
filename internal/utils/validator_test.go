package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Username string           `json:"username" validate:"required,username"`
	Address  string           `json:"address" validate:"trimmed_min=10"`
	Price    decimal.Decimal  `json:"price" validate:"money"`
	NewPrice *decimal.Decimal `json:"new_price" validate:"omitempty,money"`
}

func validSample() sampleRequest {
	return sampleRequest{
		Username: "buyer_01",
		Address:  "Jl. Sudirman No. 1",
		Price:    decimal.RequireFromString("1999.50"),
	}
}

func TestValidateStructAcceptsValidRequest(t *testing.T) {
	req := validSample()
	assert.NoError(t, ValidateStruct(&req))
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*sampleRequest)
		field  string
		tag    string
	}{
		{"short username", func(r *sampleRequest) { r.Username = "ab" }, "username", "username"},
		{"bad username chars", func(r *sampleRequest) { r.Username = "bad name" }, "username", "username"},
		{"padded address", func(r *sampleRequest) { r.Address = "   short    " }, "address", "trimmed_min"},
		{"zero price", func(r *sampleRequest) { r.Price = decimal.Zero }, "price", "money"},
		{"three decimals", func(r *sampleRequest) { r.Price = decimal.RequireFromString("1.005") }, "price", "money"},
		{"negative patch price", func(r *sampleRequest) {
			p := decimal.NewFromInt(-1)
			r.NewPrice = &p
		}, "new_price", "money"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validSample()
			tt.mutate(&req)

			errs := GetValidationErrors(ValidateStruct(&req))
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
			assert.Equal(t, tt.tag, errs[0].Tag)
			assert.NotEmpty(t, errs[0].Message)
		})
	}
}

func TestIsValidMoney(t *testing.T) {
	assert.True(t, IsValidMoney(decimal.RequireFromString("0.01")))
	assert.True(t, IsValidMoney(decimal.RequireFromString("2000.10")))
	assert.False(t, IsValidMoney(decimal.Zero))
	assert.False(t, IsValidMoney(decimal.RequireFromString("-5")))
	assert.False(t, IsValidMoney(decimal.RequireFromString("0.001")))
}

func TestGenerateRandomString(t *testing.T) {
	a, err := GenerateRandomString(12)
	require.NoError(t, err)
	b, err := GenerateRandomString(12)
	require.NoError(t, err)

	assert.Len(t, a, 12)
	assert.NotEqual(t, a, b)
	assert.Regexp(t, "^[A-Z0-9]{12}$", a)
}

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")
	token, err := GenerateJWT(mustUUID(t), "seller", true, 1)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "seller", claims.Username)
	assert.True(t, claims.IsSeller)

	SetJWTSecret("other-secret")
	_, err = ValidateJWT(token)
	assert.Error(t, err)
}

func TestValidateJWTRejectsOtherAlgorithmsAndIssuers(t *testing.T) {
	SetJWTSecret("test-secret")

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = ValidateJWT(hs512)
	assert.Error(t, err)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = ValidateJWT(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func mustUUID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.NewRandom()
	require.NoError(t, err)
	return id
}
