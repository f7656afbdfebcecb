package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clayhaus/clayhaus-backend/internal/customers"
	"github.com/clayhaus/clayhaus-backend/internal/sellers"
	pkgAuth "github.com/clayhaus/clayhaus-backend/pkg/auth"
	"github.com/clayhaus/clayhaus-backend/pkg/auth/session"
	"github.com/clayhaus/clayhaus-backend/pkg/config"
	"github.com/clayhaus/clayhaus-backend/pkg/db"
	"github.com/clayhaus/clayhaus-backend/pkg/db/models"
	"github.com/clayhaus/clayhaus-backend/pkg/enums"
	pkgerrors "github.com/clayhaus/clayhaus-backend/pkg/errors"
	"github.com/clayhaus/clayhaus-backend/pkg/logger"
	"github.com/clayhaus/clayhaus-backend/pkg/security"
)

const (
	emailExistsMessage    = "Email already exists"
	shopNameExistsMessage = "Shop name already exists"
	accountNotFound       = "account not found"
	invalidPassword       = "invalid credentials"
	awaitingApproval      = "seller account is awaiting admin approval"

	sellerShopNameIndex = "ux_sellers_shop_name"
)

// Service defines the behavior needed by the auth controllers.
type Service interface {
	RegisterSeller(ctx context.Context, req SellerRegisterRequest) (*SellerAuthResponse, error)
	RegisterCustomer(ctx context.Context, req CustomerRegisterRequest) (*CustomerAuthResponse, error)
	SellerLogin(ctx context.Context, req LoginRequest) (*SellerAuthResponse, error)
	CustomerLogin(ctx context.Context, req LoginRequest) (*CustomerAuthResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error)
	Logout(ctx context.Context, accessID string) error
}

type sellerRepository interface {
	Create(ctx context.Context, dto sellers.CreateSellerDTO) (*models.Seller, error)
	FindByEmail(ctx context.Context, email string) (*models.Seller, error)
	ExistsByShopName(ctx context.Context, shopName string) (bool, error)
}

type customerRepository interface {
	Create(ctx context.Context, dto customers.CreateCustomerDTO) (*models.Customer, error)
	FindByEmail(ctx context.Context, email string) (*models.Customer, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string, principal session.Principal) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, session.Principal, error)
	Revoke(ctx context.Context, accessID string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Sellers        sellerRepository
	Customers      customerRepository
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

type service struct {
	sellers     sellerRepository
	customers   customerRepository
	session     sessionManager
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
	now         func() time.Time
}

// NewService constructs an auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Sellers == nil {
		return nil, fmt.Errorf("seller repository is required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		sellers:     params.Sellers,
		customers:   params.Customers,
		session:     params.SessionManager,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		logg:        logg,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) RegisterSeller(ctx context.Context, req SellerRegisterRequest) (*SellerAuthResponse, error) {
	email := normalizeEmail(req.Email)
	shopName := strings.TrimSpace(req.ShopName)
	if email == "" {
		return nil, pkgerrors.Invalid("email", "is required")
	}
	if shopName == "" {
		return nil, pkgerrors.Invalid("shopName", "is required")
	}

	if _, err := s.sellers.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, emailExistsMessage)
	} else if !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check seller email")
	}
	taken, err := s.sellers.ExistsByShopName(ctx, shopName)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check shop name")
	}
	if taken {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, shopNameExistsMessage)
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	seller, err := s.sellers.Create(ctx, sellers.CreateSellerDTO{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		ShopName:     shopName,
		Role:         enums.AccountRoleSeller,
	})
	if err != nil {
		if db.IsUniqueViolation(err, sellerShopNameIndex) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, shopNameExistsMessage)
		}
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, emailExistsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create seller")
	}

	tokens, err := s.issue(ctx, session.Principal{AccountID: seller.ID, Role: seller.Role, Email: seller.Email})
	if err != nil {
		return nil, err
	}
	return &SellerAuthResponse{TokenPair: *tokens, Seller: sellers.FromModel(seller)}, nil
}

func (s *service) RegisterCustomer(ctx context.Context, req CustomerRegisterRequest) (*CustomerAuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.Invalid("email", "is required")
	}

	if _, err := s.customers.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, emailExistsMessage)
	} else if !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check customer email")
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	customer, err := s.customers.Create(ctx, customers.CreateCustomerDTO{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Phone:        req.Phone,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, emailExistsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create customer")
	}

	tokens, err := s.issue(ctx, session.Principal{AccountID: customer.ID, Role: enums.AccountRoleCustomer, Email: customer.Email})
	if err != nil {
		return nil, err
	}
	return &CustomerAuthResponse{TokenPair: *tokens, Customer: customers.FromModel(customer)}, nil
}

// SellerLogin authenticates sellers and the admin. Approval is checked before
// the password so pending sellers always see the same answer.
func (s *service) SellerLogin(ctx context.Context, req LoginRequest) (*SellerAuthResponse, error) {
	seller, err := s.sellers.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, accountNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup seller")
	}
	if !seller.Approved {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, awaitingApproval)
	}
	if err := verify(req.Password, seller.PasswordHash); err != nil {
		return nil, err
	}

	tokens, err := s.issue(ctx, session.Principal{AccountID: seller.ID, Role: seller.Role, Email: seller.Email})
	if err != nil {
		return nil, err
	}
	return &SellerAuthResponse{TokenPair: *tokens, Seller: sellers.FromModel(seller)}, nil
}

func (s *service) CustomerLogin(ctx context.Context, req LoginRequest) (*CustomerAuthResponse, error) {
	customer, err := s.customers.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, accountNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup customer")
	}
	if err := verify(req.Password, customer.PasswordHash); err != nil {
		return nil, err
	}

	tokens, err := s.issue(ctx, session.Principal{AccountID: customer.ID, Role: enums.AccountRoleCustomer, Email: customer.Email})
	if err != nil {
		return nil, err
	}
	return &CustomerAuthResponse{TokenPair: *tokens, Customer: customers.FromModel(customer)}, nil
}

func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, strings.TrimSpace(req.AccessToken))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid access token")
	}
	accessID, refresh, principal, err := s.session.Rotate(ctx, claims.ID, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}
	if principal.AccountID != claims.AccountID {
		if err := s.session.Revoke(ctx, accessID); err != nil {
			s.logg.Error(s.logg.WithFields(ctx, map[string]any{
				"access_id":  accessID,
				"account_id": claims.AccountID.String(),
			}), "auth.refresh_revoke_failed", err)
		}
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
	}

	access, err := s.mint(accessID, principal)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) issue(ctx context.Context, principal session.Principal) (*TokenPair, error) {
	accessID := session.NewAccessID()
	access, err := s.mint(accessID, principal)
	if err != nil {
		return nil, err
	}
	refresh, err := s.session.Generate(ctx, accessID, principal)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *service) mint(accessID string, principal session.Principal) (string, error) {
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now(), pkgAuth.AccessTokenPayload{
		AccountID: principal.AccountID,
		Role:      principal.Role,
		Email:     principal.Email,
		JTI:       accessID,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return token, nil
}

func (s *service) hashPassword(password string) (string, error) {
	if err := security.CheckPasswordPolicy(password); err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, err.Error()).
			WithDetails([]pkgerrors.FieldError{{Field: "password", Reason: err.Error()}})
	}
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	return hash, nil
}

func verify(password, hash string) error {
	ok, err := security.VerifyPassword(password, hash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidPassword)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
