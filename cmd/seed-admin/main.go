// seed-admin creates or updates the backoffice admin user. Safe to run
// repeatedly: an existing user gets its password and role refreshed, and
// the default company is only created when no company exists yet.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/terrafocus/lease_backend/config"
	"bitbucket.org/terrafocus/lease_backend/models"
	"bitbucket.org/terrafocus/lease_backend/utils"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

const (
	defaultAdminUsername = "leaseAdmin"
	defaultAdminName     = "Lease Admin"
	defaultCompanyName   = "Terra Focus Properties"
)

func main() {
	_ = godotenv.Load()

	username := os.Getenv("SEED_ADMIN_USERNAME")
	if username == "" {
		username = defaultAdminUsername
	}
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		fmt.Fprintln(os.Stderr, "SEED_ADMIN_PASSWORD is required")
		os.Exit(1)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	models.MigrateTable()

	companyId, err := ensureCompany(ctx, db)
	if err != nil {
		fmt.Fprintln(os.Stderr, "seed-admin: "+err.Error())
		os.Exit(1)
	}

	var existing models.User
	err = db.WithContext(ctx).Where("username = ?", username).Take(&existing).Error
	switch {
	case err == nil:
		hashed, hashErr := utils.HashPassword(password)
		if hashErr != nil {
			fmt.Fprintln(os.Stderr, "seed-admin: "+hashErr.Error())
			os.Exit(1)
		}
		updates := map[string]interface{}{
			"Password": string(hashed),
			"Role":     models.UserRoleAdmin,
			"IsActive": true,
		}
		if err := db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
			fmt.Fprintln(os.Stderr, "seed-admin: "+err.Error())
			os.Exit(1)
		}
		fmt.Printf("updated admin user %q (id=%d)\n", username, existing.ID)
	case err == gorm.ErrRecordNotFound:
		user, createErr := models.CreateUser(ctx, &models.NewUser{
			CompanyId: companyId,
			Username:  username,
			Name:      defaultAdminName,
			Password:  password,
			Role:      models.UserRoleAdmin,
		})
		if createErr != nil {
			fmt.Fprintln(os.Stderr, "seed-admin: "+createErr.Error())
			os.Exit(1)
		}
		fmt.Printf("created admin user %q (id=%d, company=%d)\n", username, user.ID, companyId)
	default:
		fmt.Fprintln(os.Stderr, "seed-admin: "+err.Error())
		os.Exit(1)
	}
}

func ensureCompany(ctx context.Context, db *gorm.DB) (int, error) {
	var company models.Company
	err := db.WithContext(ctx).Order("id asc").Take(&company).Error
	if err == nil {
		return company.ID, nil
	}
	if err != gorm.ErrRecordNotFound {
		return 0, err
	}
	created, err := models.CreateCompany(ctx, &models.NewCompany{
		CompanyName: defaultCompanyName,
		Country:     "United Arab Emirates",
		City:        "Dubai",
	})
	if err != nil {
		return 0, err
	}
	fmt.Printf("created company %q (id=%d)\n", created.CompanyName, created.ID)
	return created.ID, nil
}
