package services

import (
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/storybook-backend/internal/data/repos"
	"github.com/yungbote/storybook-backend/internal/data/repos/testutil"
)

type testRepos struct {
	tx       *gorm.DB
	users    repos.UserRepo
	profiles repos.ChildProfileRepo
	books    repos.BookRepo
}

// newTestRepos binds every repo to one rolled-back transaction.
func newTestRepos(t *testing.T) testRepos {
	t.Helper()
	tx := testutil.Tx(t, testutil.DB(t))
	log := testutil.Logger(t)
	return testRepos{
		tx:       tx,
		users:    repos.NewUserRepo(tx, log),
		profiles: repos.NewChildProfileRepo(tx, log),
		books:    repos.NewBookRepo(tx, log),
	}
}
