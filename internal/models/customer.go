package models

import "time"

type Customer struct {
	ID        int       `json:"cust_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	City      *string   `json:"city"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateCustomerRequest struct {
	Name  string  `json:"name" binding:"required"`
	Email string  `json:"email" binding:"required,email"`
	Phone string  `json:"phone" binding:"required"`
	City  *string `json:"city"`
}

type UpdateCustomerRequest struct {
	Phone string `json:"phone"`
	City  string `json:"city"`
}
