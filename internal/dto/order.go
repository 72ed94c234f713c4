package dto

type CreateOrderRequestDTO struct {
	QuoteID string `json:"quoteId" validate:"required" example:"01K5M3Q4Z7X2V6N8B0C1D2E3F4"`
}

type OrderResponseDTO struct {
	OrderID   string `json:"orderId" example:"4539148803436467"`
	QuoteID   string `json:"quoteId" example:"01K5M3Q4Z7X2V6N8B0C1D2E3F4"`
	TotalUSDT string `json:"totalUSDT" example:"1049.659560"`
	Status    string `json:"status" example:"created"`
	CreatedAt string `json:"createdAt" example:"2025-09-20T12:09:57Z"`
}
