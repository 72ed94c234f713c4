package dto

type RegisterRequestDTO struct {
	Login    string `json:"login" validate:"required,min=3,max=50" example:"alice"`
	Password string `json:"password" validate:"required,min=8,max=72" example:"password123"`
}

type RegisterResponseDTO struct {
	Message string `json:"message" example:"User successfully registered"`
	Token   string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

type LoginRequestDTO struct {
	Login    string `json:"login" validate:"required,min=3,max=50" example:"alice"`
	Password string `json:"password" validate:"required,min=8,max=72" example:"password123"`
}

type LoginResponseDTO struct {
	Message string `json:"message" example:"User successfully authenticated"`
	Token   string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}
