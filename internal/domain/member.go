package domain

import "time"

// Member roles.
const (
	RoleMember    = "member"
	RoleOrganizer = "organizer"
)

type Member struct {
	MemberID     string    `json:"id" dynamodbav:"member_id"`
	Name         string    `json:"name" dynamodbav:"name"`
	Email        string    `json:"email" dynamodbav:"email"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	RollNumber   string    `json:"roll_number" dynamodbav:"roll_number"`
	ClubMemberNo string    `json:"club_member_no" dynamodbav:"club_member_no"` // "EC0001" style, assigned at creation
	Role         string    `json:"role" dynamodbav:"role"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}

// RegistrationRequest carries the profile fields submitted when requesting a
// verification code. The same body is accepted by the resend endpoint.
type RegistrationRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6,max=72"`
	RollNumber string `json:"roll_number" validate:"required"`
}

// ConfirmCodeRequest carries the identity plus the candidate one-time code.
type ConfirmCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"otp" validate:"required,len=6,numeric"`
}
