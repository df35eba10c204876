package inmemdb

import (
	"context"
	"strings"

	"github.com/trezcool/dojang/core"
	"github.com/trezcool/dojang/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func copyUser(usr user.User) *user.User {
	usr.Roles = copyStrings(usr.Roles)
	usr.PasswordHash = append([]byte(nil), usr.PasswordHash...)
	if usr.IsActive != nil {
		usr.SetActive(*usr.IsActive)
	}
	return &usr
}

func compareUsers(a, b user.User, field string) int {
	switch field {
	case "name":
		return cmpString(a.Name, b.Name)
	case "username":
		return cmpString(a.Username, b.Username)
	case "email":
		return cmpString(a.Email, b.Email)
	case "is_active":
		return cmpBool(a.Active(), b.Active())
	case "created_at":
		return cmpTime(a.CreatedAt, b.CreatedAt)
	case "updated_at":
		return cmpTime(a.UpdatedAt, b.UpdatedAt)
	case "last_login":
		return cmpTime(a.LastLogin, b.LastLogin)
	}
	return 0
}

func (repo *userRepository) CheckUsernameUniqueness(_ context.Context, username, email string, excludedUsers []user.User) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	excluded := make(map[string]bool, len(excludedUsers))
	for _, u := range excludedUsers {
		excluded[u.ID] = true
	}
	for _, usr := range repo.db.users {
		if excluded[usr.ID] {
			continue
		}
		if username != "" && usr.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	usr.ID = newID()
	repo.db.users[usr.ID] = copyUser(usr)
	return *copyUser(usr), nil
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	users := make([]user.User, 0, len(repo.db.users))
	for _, usr := range repo.db.users {
		if filter != nil && !matchUser(*usr, filter) {
			continue
		}
		users = append(users, *copyUser(*usr))
	}
	orderBy(users, ordering, compareUsers, core.DBOrdering{Field: "created_at", Ascending: true})
	return users, nil
}

func matchUser(usr user.User, filter *user.QueryFilter) bool {
	if filter.Search != "" && !contains(filter.Search, usr.Name, usr.Username, usr.Email) {
		return false
	}
	if len(filter.Roles) > 0 {
		found := false
		for _, role := range filter.Roles {
			if usr.RoleStartsWith(role) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.IsActive != nil && usr.Active() != *filter.IsActive {
		return false
	}
	if !filter.CreatedFrom.IsZero() && usr.CreatedAt.Before(filter.CreatedFrom) {
		return false
	}
	if !filter.CreatedTo.IsZero() && usr.CreatedAt.After(filter.CreatedTo) {
		return false
	}
	return true
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.db.users[filter.ID]; ok {
			return *copyUser(*usr), nil
		}
		return user.User{}, user.ErrNotFound
	}

	var match func(usr *user.User) bool
	switch {
	case filter.Username != "":
		match = func(usr *user.User) bool { return usr.Username == filter.Username }
	case filter.Email != "":
		match = func(usr *user.User) bool { return strings.EqualFold(usr.Email, filter.Email) }
	case len(filter.UsernameOrEmail) > 0:
		uname, email := filter.UsernameOrEmail[0], filter.UsernameOrEmail[0]
		if len(filter.UsernameOrEmail) > 1 {
			email = filter.UsernameOrEmail[1]
		}
		if uname == "" && email == "" {
			return user.User{}, user.ErrNotFound
		}
		match = func(usr *user.User) bool {
			return (uname != "" && usr.Username == uname) || (email != "" && strings.EqualFold(usr.Email, email))
		}
	default:
		return user.User{}, user.ErrNotFound
	}

	for _, usr := range repo.db.users {
		if match(usr) {
			return *copyUser(*usr), nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.users[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	repo.db.users[usr.ID] = copyUser(usr)
	return *copyUser(usr), nil
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr)
	}
	return repo.UpdateUser(ctx, usr)
}

func (repo *userRepository) DeleteUsersByID(_ context.Context, ids []string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.users[id]; ok {
			delete(repo.db.users, id)
			cnt++
			// unlink profiles
			for _, s := range repo.db.students {
				if s.UserID == id {
					s.UserID = ""
				}
			}
			for _, c := range repo.db.coaches {
				if c.UserID == id {
					c.UserID = ""
				}
			}
			for _, e := range repo.db.entries {
				if e.AuthorID == id {
					e.AuthorID = ""
				}
			}
		}
	}
	return cnt, nil
}
