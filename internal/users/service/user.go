package service

import (
	"context"
	"errors"
	"strings"

	userserrors "fixify/internal/users/errors"
	"fixify/internal/users/repository"
	"fixify/internal/users/validator"
	"fixify/pkg/auth"
	"fixify/pkg/config"
	apperrors "fixify/pkg/errors"
	"fixify/pkg/model"
	"fixify/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/bson"
)

const imageDataPrefix = "data:image/"

type TokenIssuer interface {
	Issue(id auth.Identity) (string, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Check(hash, password string) (bool, error)
}

type UserService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResult, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResult, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	UpdateProfile(ctx context.Context, id string, update *model.ProfileUpdate) (*model.User, error)
	UploadImage(ctx context.Context, id string, image string) (*model.User, error)
}

type userService struct {
	repo      repository.UserRepository
	tokens    TokenIssuer
	passwords PasswordHasher
	validator *validator.UserValidator
	cfg       *config.Config
}

func NewUserService(
	repo repository.UserRepository,
	tokens TokenIssuer,
	passwords PasswordHasher,
	validator *validator.UserValidator,
	cfg *config.Config,
) UserService {
	return &userService{
		repo:      repo,
		tokens:    tokens,
		passwords: passwords,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *userService) Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResult, error) {
	s.sanitizeRegister(req)
	if req.Role == "" {
		req.Role = model.RoleCustomer
	}
	if err := s.validator.ValidateRegister(req); err != nil {
		s.cfg.Log.Warn("Registration validation failed", "email", req.Email, "error", err)
		return nil, apperrors.Validation("User validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, apperrors.Conflict("User already exists")
	} else if !errors.Is(err, userserrors.ErrNotFound) {
		return nil, apperrors.Internal("Failed to check existing user", err)
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Internal("Failed to register user", err)
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		Role:         req.Role,
		IsActive:     true,
	}
	if req.Role == model.RoleProvider {
		user.ProviderInfo = s.newProviderInfo(req.ProviderInfo)
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, userserrors.ErrEmailTaken) {
			return nil, apperrors.Conflict("User already exists")
		}
		s.cfg.Log.Error("Failed to create user", "email", req.Email, "error", err)
		return nil, apperrors.Internal("Failed to register user", err)
	}

	s.cfg.Log.Info("User registered successfully", "id", user.ID, "role", user.Role)
	return s.authResult(user)
}

func (s *userService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResult, error) {
	req.Email = sanitizer.NormalizeEmail(req.Email)
	if err := s.validator.ValidateLogin(req); err != nil {
		return nil, apperrors.Validation("Login validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("Invalid email or password")
		}
		return nil, apperrors.Internal("Failed to log in", err)
	}

	ok, err := s.passwords.Check(user.PasswordHash, req.Password)
	if err != nil {
		s.cfg.Log.Error("Stored password hash is unusable", "id", user.ID, "error", err)
		return nil, apperrors.Internal("Failed to log in", err)
	}
	if !ok {
		return nil, apperrors.Unauthorized("Invalid email or password")
	}
	if !user.IsActive {
		return nil, apperrors.Unauthorized("Account is deactivated")
	}

	return s.authResult(user)
}

func (s *userService) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(id, err, "Failed to retrieve user")
	}
	return user, nil
}

// UpdateProfile applies the self-editable fields. Provider fields are ignored
// for other roles, and statistics and verification are never writable here.
func (s *userService) UpdateProfile(ctx context.Context, id string, update *model.ProfileUpdate) (*model.User, error) {
	s.sanitizeProfile(update)
	if err := s.validator.ValidateProfileUpdate(update); err != nil {
		return nil, apperrors.Validation("Profile validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(id, err, "Failed to retrieve user")
	}

	fields := bson.M{}
	if update.Name != nil && *update.Name != "" {
		fields["name"] = *update.Name
	}
	if update.Phone != nil && *update.Phone != "" {
		fields["phone"] = *update.Phone
	}
	if user.IsProvider() && update.ProviderInfo != nil {
		providerFields(fields, update.ProviderInfo)
	}
	if len(fields) == 0 {
		return user, nil
	}

	updated, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, s.mapRepoError(id, err, "Failed to update profile")
	}

	s.cfg.Log.Info("Profile updated successfully", "id", id, "fields", len(fields))
	return updated, nil
}

func (s *userService) UploadImage(ctx context.Context, id string, image string) (*model.User, error) {
	if image == "" {
		return nil, apperrors.InvalidInput("No image data provided")
	}
	if !strings.HasPrefix(image, imageDataPrefix) {
		return nil, apperrors.InvalidInput("Invalid image format")
	}
	if len(image)*3/4 > s.cfg.MaxImageBytes {
		return nil, apperrors.InvalidInput("Image size must be less than 5MB")
	}

	updated, err := s.repo.Update(ctx, id, bson.M{"profile_image": image})
	if err != nil {
		return nil, s.mapRepoError(id, err, "Failed to upload image")
	}

	s.cfg.Log.Info("Profile image updated", "id", id, "bytes", len(image))
	return updated, nil
}

func (s *userService) authResult(user *model.User) (*model.AuthResult, error) {
	token, err := s.tokens.Issue(auth.Identity{
		UserID: user.ID,
		Role:   string(user.Role),
		Email:  user.Email,
	})
	if err != nil {
		s.cfg.Log.Error("Failed to issue token", "id", user.ID, "error", err)
		return nil, apperrors.Internal("Failed to issue token", err)
	}
	return &model.AuthResult{Token: token, User: user}, nil
}

// newProviderInfo keeps the provider's own profile fields, seeds the starter
// catalogue for the category and resets every platform-maintained field.
func (s *userService) newProviderInfo(in *model.ProviderInfo) *model.ProviderInfo {
	info := &model.ProviderInfo{}
	if in != nil {
		*info = *in
	}
	info.Services = model.DefaultServices(info.Category)
	if info.ServiceArea == "" {
		info.ServiceArea = s.cfg.ServiceArea
	}
	info.Verified = false
	info.CompletedJobs = 0
	info.Rating = 0
	info.ReviewCount = 0
	return info
}

func providerFields(fields bson.M, u *model.ProviderInfoUpdate) {
	if u.Category != nil {
		fields["provider_info.category"] = *u.Category
	}
	if u.ServiceArea != nil {
		fields["provider_info.service_area"] = *u.ServiceArea
	}
	if u.Neighborhoods != nil {
		fields["provider_info.neighborhoods"] = sanitizer.NormalizeTags(*u.Neighborhoods)
	}
	if u.YearsExperience != nil {
		fields["provider_info.years_experience"] = *u.YearsExperience
	}
	if u.HourlyRate != nil {
		fields["provider_info.hourly_rate"] = *u.HourlyRate
	}
	if u.Bio != nil {
		fields["provider_info.bio"] = *u.Bio
	}
	if u.Skills != nil {
		fields["provider_info.skills"] = sanitizer.NormalizeTags(*u.Skills)
	}
	if u.Services != nil {
		fields["provider_info.services"] = *u.Services
	}
}

func (s *userService) mapRepoError(id string, err error, msg string) error {
	switch {
	case errors.Is(err, userserrors.ErrNotFound):
		return apperrors.NotFoundWithID("User", id)
	case errors.Is(err, userserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid user ID format")
	default:
		s.cfg.Log.Error(msg, "id", id, "error", err)
		return apperrors.Internal(msg, err)
	}
}

func (s *userService) sanitizeRegister(req *model.RegisterRequest) {
	req.Name = sanitizer.NormalizeName(req.Name)
	req.Email = sanitizer.NormalizeEmail(req.Email)
	req.Phone = normalizePhone(req.Phone)
	if info := req.ProviderInfo; info != nil {
		info.ServiceArea = sanitizer.TrimAndNormalize(info.ServiceArea)
		info.Bio = sanitizer.NormalizeText(info.Bio)
		info.Skills = sanitizer.NormalizeTags(info.Skills)
		info.Neighborhoods = sanitizer.NormalizeTags(info.Neighborhoods)
	}
}

func (s *userService) sanitizeProfile(u *model.ProfileUpdate) {
	if u.Name != nil {
		*u.Name = sanitizer.NormalizeName(*u.Name)
	}
	if u.Phone != nil {
		*u.Phone = normalizePhone(*u.Phone)
	}
	if info := u.ProviderInfo; info != nil {
		if info.ServiceArea != nil {
			*info.ServiceArea = sanitizer.TrimAndNormalize(*info.ServiceArea)
		}
		if info.Bio != nil {
			*info.Bio = sanitizer.NormalizeText(*info.Bio)
		}
		if info.Services != nil {
			for i := range *info.Services {
				svc := &(*info.Services)[i]
				svc.Name = sanitizer.TrimAndNormalize(svc.Name)
				svc.Description = sanitizer.NormalizeText(svc.Description)
			}
		}
	}
}

// normalizePhone returns the E.164 form when the number parses and the
// trimmed input otherwise, so validation reports the original value.
func normalizePhone(raw string) string {
	raw = sanitizer.TrimAndNormalize(raw)
	if phone := sanitizer.NormalizePhone(raw); phone != "" {
		return phone
	}
	return raw
}
