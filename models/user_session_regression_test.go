package models_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"bitbucket.org/terrafocus/lease_backend/config"
	"bitbucket.org/terrafocus/lease_backend/models"
	"bitbucket.org/terrafocus/lease_backend/utils"
)

func TestPasswordChangeRevokesEveryLiveSession(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "lease_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	company, err := models.CreateCompany(ctx, &models.NewCompany{
		CompanyName: "Gulf Gate Estates",
		Country:     "UAE",
		City:        "Dubai",
	})
	if err != nil {
		t.Fatalf("CreateCompany: %v", err)
	}

	const username = "leasing.clerk"
	if _, err := models.CreateUser(ctx, &models.NewUser{
		CompanyId: company.ID,
		Username:  username,
		Name:      "Leasing Clerk",
		Password:  "first-password",
		Role:      models.UserRoleClerk,
	}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	// Two live sessions for the same user.
	first, err := models.Login(ctx, username, "first-password")
	if err != nil {
		t.Fatalf("Login(first): %v", err)
	}
	second, err := models.Login(ctx, username, "first-password")
	if err != nil {
		t.Fatalf("Login(second): %v", err)
	}
	if first.Token == "" || second.Token == "" || first.Token == second.Token {
		t.Fatalf("expected two distinct session tokens; got %q and %q", first.Token, second.Token)
	}
	tokens, err := config.GetRedisSetMembers("Tokens:" + username)
	if err != nil {
		t.Fatalf("GetRedisSetMembers: %v", err)
	}
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens in the user's set; got %d", len(tokens))
	}

	ctx = utils.SetCompanyIdInContext(ctx, company.ID)
	ctx = utils.SetUsernameInContext(ctx, username)
	if ok, err := models.ChangePassword(ctx, "first-password", "second-password"); err != nil || !ok {
		t.Fatalf("ChangePassword: ok=%v err=%v", ok, err)
	}

	// Both sessions are gone, and so is the set itself.
	for _, token := range []string{first.Token, second.Token} {
		if _, found, err := config.GetRedisValue("Token:" + token); err != nil {
			t.Fatalf("GetRedisValue: %v", err)
		} else if found {
			t.Fatalf("expected session %s to be revoked after password change", token)
		}
	}
	tokens, err = config.GetRedisSetMembers("Tokens:" + username)
	if err != nil {
		t.Fatalf("GetRedisSetMembers(after): %v", err)
	}
	if len(tokens) != 0 {
		t.Fatalf("expected the token set to be emptied; got %v", tokens)
	}

	// Only the new password logs in.
	if _, err := models.Login(ctx, username, "first-password"); err == nil {
		t.Fatalf("expected login with the old password to fail")
	}
	if _, err := models.Login(ctx, username, "second-password"); err != nil {
		t.Fatalf("Login(new password): %v", err)
	}
}
