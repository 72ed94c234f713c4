package dto

import (
	"github.com/shopspring/decimal"
)

type CartItemDTO struct {
	ProductID string `json:"productId" validate:"required" example:"iphone-17"`
	Qty       int    `json:"qty" validate:"min=1,max=10" example:"1"`
}

type CreateQuoteRequestDTO struct {
	FiatAmount   decimal.Decimal `json:"fiatAmount" swaggertype:"string" example:"969.00"`
	FiatCurrency string          `json:"fiatCurrency" validate:"required" example:"EUR"`
	Network      string          `json:"network" validate:"required" example:"TRC-20"`
	Cart         []CartItemDTO   `json:"cart" validate:"dive"`
}

type QuoteResponseDTO struct {
	QuoteID      string `json:"quoteId" example:"01K5M3Q4Z7X2V6N8B0C1D2E3F4"`
	Status       string `json:"status" example:"pending"`
	FiatAmount   string `json:"fiatAmount" example:"969.00"`
	FiatCurrency string `json:"fiatCurrency" example:"EUR"`
	Rate         string `json:"rate" example:"1.08"`
	RateProvider string `json:"rateProvider" example:"coingecko"`
	RateAt       string `json:"rateAt" example:"2025-09-20T11:59:30Z"`
	SpreadBps    int    `json:"spreadBps" example:"30"`
	AmountUSDT   string `json:"amountUSDT" example:"1049.659560"`
	Network      string `json:"network" example:"TRC-20"`
	Address      string `json:"address" example:"TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"`
	ExpiresAt    string `json:"expiresAt" example:"2025-09-20T12:15:00Z"`
	CreatedAt    string `json:"createdAt" example:"2025-09-20T12:00:00Z"`
}

type PaymentStatusResponseDTO struct {
	QuoteID       string  `json:"quoteId" example:"01K5M3Q4Z7X2V6N8B0C1D2E3F4"`
	Status        string  `json:"status" example:"submitted"`
	TxHash        *string `json:"txHash,omitempty" example:"0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060"`
	Confirmations *int    `json:"confirmations,omitempty" example:"1"`
	ExpiresAt     string  `json:"expiresAt" example:"2025-09-20T12:15:00Z"`
}

type SubmitTxRequestDTO struct {
	QuoteID string `json:"quoteId" validate:"required" example:"01K5M3Q4Z7X2V6N8B0C1D2E3F4"`
	TxHash  string `json:"txHash" validate:"required,max=128" example:"0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060"`
}

type AdminConfirmRequestDTO struct {
	QuoteID        string  `json:"quoteId" validate:"required" example:"01K5M3Q4Z7X2V6N8B0C1D2E3F4"`
	Token          string  `json:"token,omitempty" example:"dev_admin_token"`
	Confirmations  *int    `json:"confirmations,omitempty" validate:"omitempty,min=0" example:"12"`
	AmountReceived *string `json:"amountReceived,omitempty" example:"1049.659560"`
	Notes          *string `json:"notes,omitempty" example:"checked on tronscan"`
}
