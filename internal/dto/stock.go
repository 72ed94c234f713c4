package dto

type StockResponseDTO struct {
	ProductID string `json:"productId" example:"iphone-17"`
	Available int    `json:"available" example:"8"`
	Reserved  int    `json:"reserved" example:"1"`
	Sold      int    `json:"sold" example:"1"`
}

type ReserveRequestDTO struct {
	ProductID  string `json:"productId" validate:"required" example:"iphone-17"`
	SessionID  string `json:"sessionId" validate:"required,max=128" example:"b7e1c2a4-cart"`
	TTLSeconds int    `json:"ttlSeconds,omitempty" validate:"omitempty,min=1,max=3600" example:"600"`
}

type ReserveResponseDTO struct {
	ReservationID string `json:"reservationId" example:"6f1d7d3e-2f7b-4e0c-9c55-2c1a4b8f9e10"`
}

type ReservationRequestDTO struct {
	ReservationID string `json:"reservationId" validate:"required" example:"6f1d7d3e-2f7b-4e0c-9c55-2c1a4b8f9e10"`
}

type OKResponseDTO struct {
	OK bool `json:"ok" example:"true"`
}

type ReservationDTO struct {
	ReservationID string `json:"reservationId" example:"6f1d7d3e-2f7b-4e0c-9c55-2c1a4b8f9e10"`
	ProductID     string `json:"productId" example:"iphone-17"`
	SessionID     string `json:"sessionId" example:"b7e1c2a4-cart"`
	ExpiresAt     string `json:"expiresAt" example:"2025-09-20T12:10:00Z"`
	CreatedAt     string `json:"createdAt" example:"2025-09-20T12:00:00Z"`
}
