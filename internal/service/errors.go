// Package service provides business logic for the application.
package service

import "errors"

// Service errors.
var (
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrFirstNameTooLong = errors.New("first name too long")
	ErrEmailExists      = errors.New("an account with this email already exists")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrInvalidTotal     = errors.New("order total must not be negative")
	ErrInvalidCurrency  = errors.New("currency must be a 3-letter ISO code")
	ErrInvalidStatus    = errors.New("invalid order status")
	ErrOrderExists      = errors.New("order already exists")
)
