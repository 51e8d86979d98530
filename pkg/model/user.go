package model

import (
	"time"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

const (
	CategoryPlumbing        = "plumbing"
	CategoryElectrical      = "electrical"
	CategoryCleaning        = "cleaning"
	CategoryCarpentry       = "carpentry"
	CategoryPainting        = "painting"
	CategoryHVAC            = "hvac"
	CategoryLandscaping     = "landscaping"
	CategoryApplianceRepair = "appliance-repair"
	CategoryOther           = "other"
)

type ServiceOffering struct {
	Name        string  `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Description string  `json:"description,omitempty" bson:"description,omitempty" validate:"max=500"`
	Price       float64 `json:"price" bson:"price" validate:"gte=0"`
}

type ProviderInfo struct {
	Category        string            `json:"category,omitempty" bson:"category,omitempty" validate:"omitempty,oneof=plumbing electrical cleaning carpentry painting hvac landscaping appliance-repair other"`
	ServiceArea     string            `json:"service_area,omitempty" bson:"service_area,omitempty" validate:"max=100"`
	Neighborhoods   []string          `json:"neighborhoods,omitempty" bson:"neighborhoods,omitempty" validate:"max=50,dive,max=100"`
	YearsExperience int               `json:"years_experience" bson:"years_experience" validate:"gte=0,lte=80"`
	HourlyRate      float64           `json:"hourly_rate" bson:"hourly_rate" validate:"gte=0"`
	Bio             string            `json:"bio,omitempty" bson:"bio,omitempty" validate:"max=1000"`
	Skills          []string          `json:"skills,omitempty" bson:"skills,omitempty" validate:"max=50,dive,max=60"`
	Services        []ServiceOffering `json:"services,omitempty" bson:"services,omitempty" validate:"max=50,dive"`
	Verified        bool              `json:"verified" bson:"verified"`
	CompletedJobs   int               `json:"completed_jobs" bson:"completed_jobs"`
	Rating          float64           `json:"rating" bson:"rating"`
	ReviewCount     int               `json:"review_count" bson:"review_count"`
}

type User struct {
	ID           string        `json:"id,omitempty" bson:"_id,omitempty"`
	Name         string        `json:"name" bson:"name"`
	Email        string        `json:"email" bson:"email"`
	Phone        string        `json:"phone" bson:"phone"`
	PasswordHash string        `json:"-" bson:"password"`
	Role         Role          `json:"role" bson:"role"`
	ProfileImage string        `json:"profile_image,omitempty" bson:"profile_image,omitempty"`
	IsActive     bool          `json:"is_active" bson:"is_active"`
	ProviderInfo *ProviderInfo `json:"provider_info,omitempty" bson:"provider_info,omitempty"`
	CreatedAt    time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" bson:"updated_at"`
}

func (u *User) IsProvider() bool {
	return u != nil && u.Role == RoleProvider
}

// UserSummary is the public projection of a user embedded in other resources.
type UserSummary struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Email        string        `json:"email,omitempty"`
	Phone        string        `json:"phone,omitempty"`
	ProfileImage string        `json:"profile_image,omitempty"`
	ProviderInfo *ProviderInfo `json:"provider_info,omitempty"`
}

func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	s := &UserSummary{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		ProfileImage: u.ProfileImage,
	}
	if u.Role == RoleProvider {
		s.ProviderInfo = u.ProviderInfo
	}
	return s
}

type RegisterRequest struct {
	Name         string        `json:"name" validate:"required,min=2,max=100"`
	Email        string        `json:"email" validate:"required,email,max=254"`
	Phone        string        `json:"phone" validate:"required,e164"`
	Password     string        `json:"password" validate:"required,min=8,max=72"`
	Role         Role          `json:"role" validate:"omitempty,oneof=customer provider"`
	ProviderInfo *ProviderInfo `json:"provider_info,omitempty" validate:"omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProviderInfoUpdate holds the provider fields a provider may edit
// themselves. Statistics and verification are maintained by the platform.
type ProviderInfoUpdate struct {
	Category        *string            `json:"category,omitempty" validate:"omitempty,oneof=plumbing electrical cleaning carpentry painting hvac landscaping appliance-repair other"`
	ServiceArea     *string            `json:"service_area,omitempty" validate:"omitempty,max=100"`
	Neighborhoods   *[]string          `json:"neighborhoods,omitempty" validate:"omitempty,max=50,dive,max=100"`
	YearsExperience *int               `json:"years_experience,omitempty" validate:"omitempty,gte=0,lte=80"`
	HourlyRate      *float64           `json:"hourly_rate,omitempty" validate:"omitempty,gte=0"`
	Bio             *string            `json:"bio,omitempty" validate:"omitempty,max=1000"`
	Skills          *[]string          `json:"skills,omitempty" validate:"omitempty,max=50,dive,max=60"`
	Services        *[]ServiceOffering `json:"services,omitempty" validate:"omitempty,max=50,dive"`
}

type ProfileUpdate struct {
	Name         *string             `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Phone        *string             `json:"phone,omitempty" validate:"omitempty,e164"`
	ProviderInfo *ProviderInfoUpdate `json:"provider_info,omitempty" validate:"omitempty"`
}

type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type ProviderQuery struct {
	Category    string
	MinRating   *float64
	Verified    *bool
	ServiceArea string
	Sort        string
}

const (
	ProviderSortRating     = "rating"
	ProviderSortPriceLow   = "price-low"
	ProviderSortPriceHigh  = "price-high"
	ProviderSortExperience = "experience"
	ProviderSortReviews    = "reviews"
)
