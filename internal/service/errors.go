package service

import (
	"github.com/dukerupert/taxsim/internal/domain"
)

const invoiceGenerationMessage = "invoice could not be generated"

// Order errors
var (
	ErrOrderNotFound = domain.Errorf(domain.ENOTFOUND, "", "Order not found")
)

// User errors
var (
	ErrUserExists      = domain.Errorf(domain.ECONFLICT, "", "Username already exists")
	ErrUserNotFound    = domain.Errorf(domain.ENOTFOUND, "", "User not found")
	ErrDeleteSelf      = domain.Errorf(domain.ECONFLICT, "", "You cannot delete your own account")
	ErrNothingToUpdate = domain.Errorf(domain.EINVALID, "", "Provide a new password or role")
)
