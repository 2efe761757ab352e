package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ecell-portal/internal/domain"
	"github.com/ecell-portal/internal/infrastructure/otpstore"
	"github.com/ecell-portal/internal/pkg/id"
	"github.com/ecell-portal/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	// RequestCode validates the registration request, parks the profile data
	// behind a fresh one-time code, and delivers the code by email.
	RequestCode(ctx context.Context, req domain.RegistrationRequest) error
	// ResendCode supersedes a still-pending code with a fresh one. Unlike
	// RequestCode it refuses identities that have nothing pending.
	ResendCode(ctx context.Context, req domain.RegistrationRequest) error
	// ConfirmCode checks the submitted code and, on success, materializes the
	// member account and returns it with a signed bearer token.
	ConfirmCode(ctx context.Context, req domain.ConfirmCodeRequest) (*domain.Member, string, error)
}

type memberStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.Member, error)
	GetByRollNumber(ctx context.Context, rollNumber string) (*domain.Member, error)
	Put(ctx context.Context, m *domain.Member) error
	Count(ctx context.Context) (int, error)
}

type codeStore interface {
	Issue(email string, pending domain.PendingRegistration) (string, error)
	Verify(email, candidate string) (otpstore.VerifyOutcome, *domain.PendingRegistration)
	Has(email string) bool
}

type mailer interface {
	SendVerificationCode(to, name, code string) error
}

type tokenSigner interface {
	Sign(memberID, role string) (string, error)
}

type service struct {
	members       memberStore
	codes         codeStore
	mailer        mailer
	jwtProvider   tokenSigner
	allowedDomain string
}

type ServiceDeps struct {
	MemberRepo    memberStore
	CodeStore     codeStore
	Mailer        mailer
	JWTProvider   tokenSigner
	AllowedDomain string
}

func NewService(deps ServiceDeps) Service {
	return &service{
		members:       deps.MemberRepo,
		codes:         deps.CodeStore,
		mailer:        deps.Mailer,
		jwtProvider:   deps.JWTProvider,
		allowedDomain: deps.AllowedDomain,
	}
}

func (s *service) RequestCode(ctx context.Context, req domain.RegistrationRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !strings.HasSuffix(email, "@"+s.allowedDomain) {
		return fmt.Errorf("only @%s addresses may register: %w", s.allowedDomain, domain.ErrDomainNotAllowed)
	}
	if err := s.ensureNotRegistered(ctx, email, req.RollNumber); err != nil {
		return err
	}

	code, err := s.codes.Issue(email, domain.PendingRegistration{
		Name:       req.Name,
		Email:      email,
		Password:   req.Password,
		RollNumber: req.RollNumber,
	})
	if err != nil {
		return err
	}

	// Delivery is decoupled from issuance: a failed send leaves the pending
	// entry valid, so the caller can retry via the resend endpoint.
	if err := s.mailer.SendVerificationCode(email, req.Name, code); err != nil {
		slog.Warn("verification code delivery failed", "email", email, "err", err)
		return fmt.Errorf("could not send verification email: %w", domain.ErrDeliveryFailed)
	}
	return nil
}

func (s *service) ResendCode(ctx context.Context, req domain.RegistrationRequest) error {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !s.codes.Has(email) {
		return fmt.Errorf("nothing to resend for %q: %w", email, domain.ErrNoPendingCode)
	}
	return s.RequestCode(ctx, req)
}

func (s *service) ConfirmCode(ctx context.Context, req domain.ConfirmCodeRequest) (*domain.Member, string, error) {
	if err := validate.Struct(req); err != nil {
		return nil, "", fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	outcome, pending := s.codes.Verify(email, req.Code)
	switch outcome {
	case otpstore.OutcomeNotFound:
		return nil, "", fmt.Errorf("request a new code: %w", domain.ErrNoPendingCode)
	case otpstore.OutcomeExpired:
		return nil, "", fmt.Errorf("request a new code: %w", domain.ErrCodeExpired)
	case otpstore.OutcomeTooManyAttempts:
		return nil, "", fmt.Errorf("request a new code: %w", domain.ErrTooManyAttempts)
	case otpstore.OutcomeMismatch:
		return nil, "", fmt.Errorf("incorrect code: %w", domain.ErrCodeMismatch)
	case otpstore.OutcomeValid:
		// fall through
	}

	// Another registration for the same identity may have completed between
	// issuance and confirmation; re-check before materializing.
	if err := s.ensureNotRegistered(ctx, email, pending.RollNumber); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pending.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	count, err := s.members.Count(ctx)
	if err != nil {
		return nil, "", err
	}
	now := time.Now().UTC()
	m := &domain.Member{
		MemberID:     id.New(),
		Name:         pending.Name,
		Email:        email,
		PasswordHash: string(hash),
		RollNumber:   pending.RollNumber,
		ClubMemberNo: fmt.Sprintf("EC%04d", count+1),
		Role:         domain.RoleMember,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.members.Put(ctx, m); err != nil {
		return nil, "", err
	}

	bearer, err := s.jwtProvider.Sign(m.MemberID, m.Role)
	if err != nil {
		return nil, "", err
	}
	return m, bearer, nil
}

func (s *service) ensureNotRegistered(ctx context.Context, email, rollNumber string) error {
	if _, err := s.members.GetByEmail(ctx, email); err == nil {
		return fmt.Errorf("email already registered: %w", domain.ErrAlreadyRegistered)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if _, err := s.members.GetByRollNumber(ctx, rollNumber); err == nil {
		return fmt.Errorf("roll number already registered: %w", domain.ErrAlreadyRegistered)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}
