package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/flicky/phone-store-api/internal/dto"
	"github.com/flicky/phone-store-api/internal/model"
	"github.com/flicky/phone-store-api/internal/repository"
)

var (
	ErrMissingCredentials = errors.New("email and password are required")
	ErrMissingFields      = errors.New("all fields are required")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is deactivated")
	ErrEmailTaken         = errors.New("email already registered")
	ErrCustomerNotFound   = errors.New("customer not found")
)

// Session is a signed token plus the profile returned to the SPA.
type Session struct {
	Token   string
	Profile dto.ProfileResponse
}

type AuthService struct {
	txm                 repository.Transactor
	customers           repository.CustomerRepository
	staff               repository.StaffRepository
	loyalty             repository.LoyaltyRepository
	jwtSecret           []byte
	jwtExpiry           time.Duration
	checkCustomerActive bool
}

func NewAuthService(
	txm repository.Transactor,
	customers repository.CustomerRepository,
	staff repository.StaffRepository,
	loyalty repository.LoyaltyRepository,
	jwtSecret string,
	jwtExpiry time.Duration,
	checkCustomerActive bool,
) *AuthService {
	return &AuthService{
		txm: txm, customers: customers, staff: staff, loyalty: loyalty,
		jwtSecret: []byte(jwtSecret), jwtExpiry: jwtExpiry, checkCustomerActive: checkCustomerActive,
	}
}

func normalizeCredentials(req dto.LoginRequest) (string, string, error) {
	email := strings.TrimSpace(req.Email)
	password := strings.TrimSpace(req.Password)
	if email == "" || password == "" {
		return "", "", ErrMissingCredentials
	}
	return email, password, nil
}

func (s *AuthService) CustomerLogin(ctx context.Context, req dto.LoginRequest) (*Session, error) {
	email, password, err := normalizeCredentials(req)
	if err != nil {
		return nil, err
	}

	customer, err := s.customers.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	if customer == nil {
		return nil, ErrAccountNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(customer.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if s.checkCustomerActive && !customer.Active {
		return nil, ErrAccountInactive
	}

	token, err := s.generateToken(customer.ID, model.ActorCustomer, "")
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &Session{Token: token, Profile: dto.ProfileResponse{ID: customer.ID, Name: customer.Name}}, nil
}

func (s *AuthService) StaffLogin(ctx context.Context, req dto.LoginRequest) (*Session, error) {
	email, password, err := normalizeCredentials(req)
	if err != nil {
		return nil, err
	}

	member, err := s.staff.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get staff: %w", err)
	}
	if member == nil {
		return nil, ErrAccountNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(member.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !member.Active {
		return nil, ErrAccountInactive
	}

	token, err := s.generateToken(member.ID, model.ActorStaff, member.StaffType)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &Session{
		Token:   token,
		Profile: dto.ProfileResponse{ID: member.ID, Name: member.Name, Role: member.StaffType},
	}, nil
}

func (s *AuthService) Signup(ctx context.Context, req dto.SignupRequest) error {
	customer := &model.Customer{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Phone:   strings.TrimSpace(req.Phone),
		Address: strings.TrimSpace(req.Address),
	}
	password := strings.TrimSpace(req.Password)
	if customer.Name == "" || customer.Email == "" || customer.Phone == "" || customer.Address == "" || password == "" {
		return ErrMissingFields
	}

	existing, err := s.customers.GetByEmail(ctx, customer.Email)
	if err != nil {
		return fmt.Errorf("check customer: %w", err)
	}
	if existing != nil {
		return ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	customer.Password = string(hashed)

	err = s.txm.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.customers.Create(ctx, tx, customer); err != nil {
			return err
		}
		return s.loyalty.Create(ctx, tx, customer.ID, model.BadgeBronze)
	})
	if repository.IsUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

func (s *AuthService) RegisterStaff(ctx context.Context, req dto.StaffRegisterRequest) error {
	member := &model.Staff{
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		StaffType: strings.TrimSpace(req.StaffType),
	}
	password := strings.TrimSpace(req.Password)
	if member.Name == "" || member.Email == "" || member.StaffType == "" || password == "" {
		return ErrMissingFields
	}

	existing, err := s.staff.GetByEmail(ctx, member.Email)
	if err != nil {
		return fmt.Errorf("check staff: %w", err)
	}
	if existing != nil {
		return ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	member.Password = string(hashed)

	if err := s.staff.Create(ctx, member); err != nil {
		if repository.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create staff: %w", err)
	}
	return nil
}

func (s *AuthService) CustomerProfile(ctx context.Context, id uuid.UUID) (*dto.ProfileResponse, error) {
	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	if customer == nil {
		return nil, ErrAccountNotFound
	}
	return &dto.ProfileResponse{ID: customer.ID, Name: customer.Name}, nil
}

func (s *AuthService) StaffProfile(ctx context.Context, id uuid.UUID) (*dto.ProfileResponse, error) {
	member, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get staff: %w", err)
	}
	if member == nil {
		return nil, ErrAccountNotFound
	}
	return &dto.ProfileResponse{ID: member.ID, Name: member.Name, Role: member.StaffType}, nil
}

func (s *AuthService) SetCustomerActive(ctx context.Context, id uuid.UUID, active bool) error {
	if err := s.customers.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCustomerNotFound
		}
		return err
	}
	return nil
}

func (s *AuthService) generateToken(id uuid.UUID, actor, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   id.String(),
		"actor": actor,
		"exp":   now.Add(s.jwtExpiry).Unix(),
		"iat":   now.Unix(),
	}
	if role != "" {
		claims["role"] = role
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}
