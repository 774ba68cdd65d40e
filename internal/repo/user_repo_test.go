package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"

	"github.com/tbourn/foodgram-backend/internal/domain"
)

func seedUser(t *testing.T, db *gorm.DB, username string) *domain.User {
	t.Helper()
	u := &domain.User{
		Email:        fmt.Sprintf("%s@Example.com", username),
		Username:     username,
		FirstName:    "F",
		LastName:     "L",
		PasswordHash: "hash",
	}
	if err := CreateUser(context.Background(), db, u); err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

func TestCreateUser_LowercasesEmail_AndRejectsDuplicates(t *testing.T) {
	db := newFullDB(t)
	ctx := context.Background()

	u := seedUser(t, db, "alice")
	if u.ID == 0 || u.Email != "alice@example.com" {
		t.Fatalf("unexpected user after create: %+v", u)
	}

	dup := &domain.User{Email: "ALICE@example.com", Username: "other", PasswordHash: "x"}
	if err := CreateUser(ctx, db, dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate email: want ErrDuplicate, got %v", err)
	}
	dup2 := &domain.User{Email: "x@example.com", Username: "alice", PasswordHash: "x"}
	if err := CreateUser(ctx, db, dup2); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate username: want ErrDuplicate, got %v", err)
	}

	got, err := GetUserByEmail(ctx, db, "  Alice@EXAMPLE.com ")
	if err != nil || got.ID != u.ID {
		t.Fatalf("GetUserByEmail = %+v, %v", got, err)
	}
	if _, err := GetUser(ctx, db, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetUser missing: want ErrNotFound, got %v", err)
	}

	et, ut, err := EmailOrUsernameTaken(ctx, db, "alice@example.com", "nobody")
	if err != nil || !et || ut {
		t.Fatalf("EmailOrUsernameTaken = %v %v %v", et, ut, err)
	}
}

func TestListUsersPage_OrderedByUsername(t *testing.T) {
	db := newFullDB(t)
	ctx := context.Background()
	for _, n := range []string{"carol", "alice", "bob"} {
		seedUser(t, db, n)
	}

	total, err := CountUsers(ctx, db)
	if err != nil || total != 3 {
		t.Fatalf("CountUsers = %d, %v", total, err)
	}
	page, err := ListUsersPage(ctx, db, 1, 2)
	if err != nil {
		t.Fatalf("ListUsersPage: %v", err)
	}
	if len(page) != 2 || page[0].Username != "bob" || page[1].Username != "carol" {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestUpdatePasswordHash_AndAvatar(t *testing.T) {
	db := newFullDB(t)
	ctx := context.Background()
	u := seedUser(t, db, "dave")

	if err := UpdatePasswordHash(ctx, db, u.ID, "new"); err != nil {
		t.Fatalf("UpdatePasswordHash: %v", err)
	}
	if err := UpdatePasswordHash(ctx, db, 999, "new"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing user: want ErrNotFound, got %v", err)
	}

	key := "avatars/a.png"
	if err := SetAvatar(ctx, db, u.ID, &key); err != nil {
		t.Fatalf("SetAvatar: %v", err)
	}
	got, _ := GetUser(ctx, db, u.ID)
	if got.PasswordHash != "new" || got.Avatar == nil || *got.Avatar != key {
		t.Fatalf("unexpected user: %+v", got)
	}

	if err := SetAvatar(ctx, db, u.ID, nil); err != nil {
		t.Fatalf("clear avatar: %v", err)
	}
	got, _ = GetUser(ctx, db, u.ID)
	if got.Avatar != nil {
		t.Fatalf("avatar should be cleared, got %v", *got.Avatar)
	}
}
