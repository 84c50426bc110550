package models

import (
	"time"

	"github.com/google/uuid"
)

// RoleUser — роль, выдаваемая при регистрации.
const RoleUser = "ROLE_USER"

// User — модель пользователя в системе.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
}
