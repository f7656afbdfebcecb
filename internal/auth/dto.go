package auth

import (
	"github.com/clayhaus/clayhaus-backend/internal/customers"
	"github.com/clayhaus/clayhaus-backend/internal/sellers"
)

// LoginRequest captures the credentials sent to either login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SellerRegisterRequest onboards a new pottery shop.
type SellerRegisterRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	ShopName string `json:"shopName" validate:"required,max=120"`
}

// CustomerRegisterRequest onboards a buyer.
type CustomerRegisterRequest struct {
	Name     string  `json:"name" validate:"required,max=120"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// RefreshRequest carries the (possibly expired) access token and its refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"accessToken" validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// TokenPair is the credential issued on login, registration and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// SellerAuthResponse contains the tokens and the seller account.
type SellerAuthResponse struct {
	TokenPair
	Seller *sellers.SellerDTO `json:"seller"`
}

// CustomerAuthResponse contains the tokens and the customer account.
type CustomerAuthResponse struct {
	TokenPair
	Customer *customers.CustomerDTO `json:"customer"`
}
