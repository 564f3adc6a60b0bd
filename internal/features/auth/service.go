package auth

import (
	"context"
	"errors"
	"time"

	common_models "github.com/kienquocIT/mis-api-sub003/internal/common/models"
	"github.com/kienquocIT/mis-api-sub003/internal/features/audit"
	"github.com/kienquocIT/mis-api-sub003/internal/features/user"
	"github.com/kienquocIT/mis-api-sub003/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuthService interface {
	Register(ctx context.Context, username, password, email, tenantID, employeeID, companyID string) (*common_models.User, error)
	Login(ctx context.Context, username, password string) (string, error)
}

type AuthServiceImpl struct {
	UserRepo     user.UserRepository
	AuditService audit.AuditService
}

func NewAuthService(userRepo user.UserRepository, auditService audit.AuditService) AuthService {
	return &AuthServiceImpl{
		UserRepo:     userRepo,
		AuditService: auditService,
	}
}

func (s *AuthServiceImpl) Register(ctx context.Context, username, password, email, tenantID, employeeID, companyID string) (*common_models.User, error) {
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}

	tenant, err := primitive.ObjectIDFromHex(tenantID)
	if err != nil {
		return nil, errors.New("invalid tenant id")
	}

	// hash password placeholder (TODO: use bcrypt)
	hashedPassword := password

	newUser := common_models.User{
		ID:         primitive.NewObjectID(),
		TenantID:   tenant,
		Username:   username,
		Password:   hashedPassword,
		Email:      email,
		EmployeeID: employeeID,
		CompanyID:  companyID,
		Status:     "active",
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	if err := s.UserRepo.Create(ctx, &newUser); err != nil {
		return nil, err
	}

	changes := map[string]common_models.Change{
		"username":    {New: username},
		"email":       {New: email},
		"employee_id": {New: employeeID},
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, "user", newUser.ID.Hex(), changes)

	return &newUser, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (string, error) {
	usr, err := s.UserRepo.FindByUsernameGlobal(ctx, username)
	if err != nil {
		return "", errors.New("invalid credentials")
	}

	// Check password (TODO: use bcrypt)
	if usr.Password != password {
		return "", errors.New("invalid credentials")
	}

	if usr.Status == "suspended" {
		return "", errors.New("account suspended")
	}
	if usr.Status == "inactive" {
		return "", errors.New("account inactive")
	}

	token, err := utils.GenerateToken(usr.ID, usr.EmployeeID, usr.TenantID.Hex(), usr.CompanyID)
	if err != nil {
		return "", err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionLogin, "user", usr.ID.Hex(), nil)
	return token, nil
}
