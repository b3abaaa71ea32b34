package models

import (
	"context"
	"errors"
	"fmt"
	"html"
	"os"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/terrafocus/lease_backend/config"
	"bitbucket.org/terrafocus/lease_backend/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type UserRole string

const (
	UserRoleAdmin   UserRole = "A"
	UserRoleManager UserRole = "M"
	UserRoleClerk   UserRole = "C"
)

type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	CompanyId int       `gorm:"index" json:"companyId"`
	Username  string    `gorm:"size:100;not null;unique" json:"username"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     *string   `gorm:"size:100;unique" json:"email"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Password  string    `gorm:"size:255;not null" json:"password"`
	Role      UserRole  `gorm:"type:enum('A', 'M', 'C');default:C" json:"role"`
	IsActive  *bool     `gorm:"not null" json:"isActive"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

type NewUser struct {
	CompanyId int      `json:"companyId"`
	Username  string   `json:"username" validate:"required"`
	Name      string   `json:"name" validate:"required"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Password  string   `json:"password" validate:"required,min=8"`
	Role      UserRole `json:"role" validate:"required,oneof=A M C"`
}

func (obj User) GetId() int {
	return obj.ID
}

func (obj User) GetCompanyId() int {
	return obj.CompanyId
}

func (user User) IsAdmin() bool {
	return user.Role == UserRoleAdmin
}

/*
caches:
	UserAccount:$username
	Token:$token
	Tokens:$username (set)
*/

func (user User) RemoveLoginRedis() error {
	return config.RemoveRedisKey("UserAccount:" + user.Username)
}

type LoginInfo struct {
	Token                string   `json:"token"`
	Name                 string   `json:"name"`
	Role                 UserRole `json:"role"`
	CompanyId            int      `json:"companyId"`
	CompanyName          string   `json:"companyName"`
	Timezone             string   `json:"timezone"`
	FiscalYearStartMonth int      `json:"fiscalYearStartMonth"`
}

func (result *User) PrepareGive() {
	result.Password = ""
}

// destroy current session
func Logout(ctx context.Context) (bool, error) {
	token, ok := utils.GetTokenFromContext(ctx)
	if !ok || token == "" {
		return false, errors.New("token is required")
	}
	err := config.RemoveRedisKey("Token:" + fmt.Sprint(token))
	if err != nil {
		return false, nil
	}
	// remove current token from tokens list
	username, ok := utils.GetUsernameFromContext(ctx)
	if !ok || username == "" {
		return false, errors.New("user not found")
	}
	if err := config.RemoveRedisSetMember("Tokens:"+username, token); err != nil {
		return false, err
	}
	return true, nil
}

func Login(ctx context.Context, username string, password string) (*LoginInfo, error) {

	db := config.GetDB()
	var err error
	var result LoginInfo

	user := User{}

	// get User info
	exists, err := config.GetRedisObject("UserAccount:"+username, &user)
	if err != nil {
		return &result, err
	}
	if !exists {
		err = db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Take(&user).Error

		if err != nil {
			return &result, errors.New("invalid username or password")
		}
	}

	// check login credentials
	err = utils.ComparePassword(user.Password, password)

	if err != nil && err == bcrypt.ErrMismatchedHashAndPassword {
		return &result, errors.New("invalid username or password")
	}

	isActive := *user.IsActive
	if !isActive {
		return &result, errors.New("user is disabled")
	}

	// generate token & response
	token := uuid.New()
	result.Token = token.String()
	result.Name = user.Username
	result.Role = user.Role
	result.CompanyId = user.CompanyId

	if user.CompanyId > 0 {
		company, err := GetCompanyById(ctx, user.CompanyId)
		if err != nil {
			return nil, err
		}
		result.CompanyName = company.CompanyName
		result.Timezone = company.Timezone
		result.FiscalYearStartMonth = company.FiscalYearStartMonth
	}

	// store token in redis
	token_lifespan, err := strconv.Atoi(os.Getenv("TOKEN_HOUR_LIFESPAN"))
	if err != nil {
		token_lifespan = 24
	}

	// add new token to the user's tokens set
	if err := config.AddRedisSet("Tokens:"+user.Username, token.String()); err != nil {
		return nil, err
	}
	if err := config.SetRedisValue("Token:"+token.String(), user.Username, time.Duration(token_lifespan)*time.Hour); err != nil {
		return &result, err
	}

	return &result, nil
}

func GetUserByUsername(ctx context.Context, username string) (*User, error) {

	db := config.GetDB()
	user := User{}

	exists, err := config.GetRedisObject("UserAccount:"+username, &user)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Take(&user).Error; err != nil {
			return nil, utils.ErrorRecordNotFound
		}
		if err := config.SetRedisObject("UserAccount:"+username, &user, utils.GetCacheLifespan()); err != nil {
			return nil, err
		}
	}
	return &user, nil
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {

	db := config.GetDB()
	var count int64

	if err := validateStruct(input); err != nil {
		return nil, err
	}

	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return &User{}, errors.New("invalid email address")
	}

	err := db.WithContext(ctx).Model(&User{}).Where("username = ?", input.Username).Or("email = ?", input.Email).Count(&count).Error
	if err != nil {
		return &User{}, err
	}
	if count > 0 {
		return &User{}, errors.New("duplicate username or email")
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return &User{}, err
	}
	input.Email = strings.ToLower(input.Email)

	user := User{
		Username:  html.EscapeString(strings.TrimSpace(input.Username)),
		CompanyId: input.CompanyId,
		Name:      input.Name,
		Email:     utils.NilIfEmpty(input.Email),
		Phone:     input.Phone,
		Password:  string(hashedPassword),
		Role:      input.Role,
		IsActive:  utils.NewTrue(),
	}

	err = db.WithContext(ctx).Create(&user).Error
	if err != nil {
		return &User{}, err
	}
	user.Password = ""
	return &user, nil
}

func GetUser(ctx context.Context, id int) (*User, error) {

	db := config.GetDB()
	var result User

	err := db.WithContext(ctx).First(&result, id).Error

	if err != nil {
		return &result, utils.ErrorRecordNotFound
	}

	result.PrepareGive()

	return &result, nil
}

func GetAllUsers(ctx context.Context) ([]*User, error) {

	db := config.GetDB()
	var results []*User

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId <= 0 {
		return nil, errors.New("company id is required")
	}

	if err := db.WithContext(ctx).Where("company_id = ?", companyId).Find(&results).Error; err != nil {
		return results, errors.New("no user")
	}

	for i, u := range results {
		u.Password = ""
		results[i] = u
	}

	return results, nil
}

func ChangePassword(ctx context.Context, oldPassword string, newPassword string) (bool, error) {

	db := config.GetDB()

	username, ok := utils.GetUsernameFromContext(ctx)
	if !ok || username == "" {
		return false, errors.New("user not found")
	}

	var user User
	if err := db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Take(&user).Error; err != nil {
		return false, utils.ErrorRecordNotFound
	}

	if err := utils.ComparePassword(user.Password, oldPassword); err != nil {
		return false, errors.New("invalid old password")
	}
	if len(newPassword) < 8 {
		return false, errors.New("password must be at least 8 characters")
	}

	hashedPassword, err := utils.HashPassword(newPassword)
	if err != nil {
		return false, err
	}

	if err := db.WithContext(ctx).Model(&user).UpdateColumn("Password", string(hashedPassword)).Error; err != nil {
		return false, err
	}

	if err := user.RemoveLoginRedis(); err != nil {
		return false, err
	}
	// a password change revokes every live session
	if err := revokeAllSessions(username); err != nil {
		return false, err
	}

	return true, nil
}

func revokeAllSessions(username string) error {
	tokens, err := config.GetRedisSetMembers("Tokens:" + username)
	if err != nil {
		return err
	}
	for _, token := range tokens {
		if err := config.RemoveRedisKey("Token:" + token); err != nil {
			return err
		}
	}
	return config.RemoveRedisKey("Tokens:" + username)
}
