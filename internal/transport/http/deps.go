package http

import (
	"github.com/ecell-portal/internal/infrastructure/dynamo"
	jwtinfra "github.com/ecell-portal/internal/infrastructure/jwt"
	"github.com/ecell-portal/internal/infrastructure/otpstore"
	"github.com/ecell-portal/internal/infrastructure/smtp"
	"github.com/ecell-portal/internal/pkg/signature"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	MemberRepo  *dynamo.MemberRepo
	TicketRepo  *dynamo.TicketRepo
	EventRepo   *dynamo.EventRepo
	CodeStore   *otpstore.Store
	Codec       *signature.Codec
	Mailer      smtp.Mailer
	JWTProvider *jwtinfra.Provider
}
