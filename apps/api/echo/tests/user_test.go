package tests

import (
	"bytes"
	"context"
	"net/http"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/dojang/apps/api/echo"
	"github.com/trezcool/dojang/core/user"
	"github.com/trezcool/dojang/services/email"
	"github.com/trezcool/dojang/tests"
)

func Test_userApi_userQuery(t *testing.T) {
	setup(t)

	path := func(search, ordering string, createdFrom, createdTo time.Time, isActive *bool, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		if isActive != nil {
			v.Add("is_active", strconv.FormatBool(*isActive))
		}
		if !createdFrom.IsZero() {
			v.Add("created_from", createdFrom.Format(time.RFC3339))
		}
		if !createdTo.IsZero() {
			v.Add("created_to", createdTo.Format(time.RFC3339))
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return "/api/users?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	now := time.Now()
	t1 := now.Add(1 * time.Hour)
	t2 := now.Add(2 * time.Hour)
	t3 := now.Add(3 * time.Hour)
	t4 := now.Add(4 * time.Hour)
	t5 := now.Add(5 * time.Hour)

	usr1 := testutil.CreateUser(t, repos.User, "User", "awe", "awe@test.cd", "", nil, true, t1)
	usr2 := testutil.CreateUser(t, repos.User, "King", "user02", "king@test.cd", "", nil, true)
	student := testutil.CreateUser(t, repos.User, "Hero", "hero", "user3@test.cd", "", []string{user.RoleStudent}, true)
	admin := testutil.CreateUser(t, repos.User, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true, t2.Truncate(time.Second))
	owner := testutil.CreateUser(t, repos.User, "Owner", "owner", "owner@test.cd", "", []string{user.RoleAdminOwner}, true)
	coach := testutil.CreateUser(t, repos.User, "Coach", "coach", "coach@test.cd", "", []string{user.RoleCoach}, true, t3)
	naughty := testutil.CreateUser(t, repos.User, "N Dog", "ndog", "ndog@test.cd", "", []string{user.RoleStudent}, false) // 😂

	adminToken := getToken(t, admin)
	empty := marchallList(t)

	runTests(t, http.MethodGet, []httpTest{
		{name: "Auth required", path: path("", "", time.Time{}, time.Time{}, nil), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Admin only", path: path("", "", time.Time{}, time.Time{}, nil), token: getToken(t, coach), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "all users", path: path("", "", time.Time{}, time.Time{}, nil), token: adminToken,
			wantData: marchallList(t, usr1, usr2, student, admin, owner, coach, naughty),
		},
		// filtering
		{name: "search (empty)", path: path("lol", "", time.Time{}, time.Time{}, nil), token: adminToken, wantData: empty},
		{name: "search (by name)", path: path("kin", "", time.Time{}, time.Time{}, nil), token: adminToken, wantData: marchallList(t, usr2)},
		{name: "search (by username)", path: path("AWE", "", time.Time{}, time.Time{}, nil), token: adminToken, wantData: marchallList(t, usr1)},
		{name: "search (by email)", path: path("user3@", "", time.Time{}, time.Time{}, nil), token: adminToken, wantData: marchallList(t, student)},
		{name: "is_active", path: path("", "", time.Time{}, time.Time{}, bPtr(false)), token: adminToken, wantData: marchallList(t, naughty)},
		{
			name: "roles (admins)", path: path("", "", time.Time{}, time.Time{}, nil, user.RoleAdmin), token: adminToken,
			wantData: marchallList(t, admin, owner),
		},
		{
			name: "roles (comma separated)", path: path("", "", time.Time{}, time.Time{}, nil, user.RoleCoach+","+user.RoleStudent), token: adminToken,
			wantData: marchallList(t, student, coach, naughty),
		},
		{
			name: "created_from", path: path("", "", t1, time.Time{}, nil), token: adminToken,
			wantData: marchallList(t, usr1, admin, coach),
		},
		{
			name: "created_to", path: path("", "", time.Time{}, t2, nil), token: adminToken,
			wantData: marchallList(t, usr1, usr2, student, admin, owner, naughty),
		},
		{name: "created_from - created_to (empty)", path: path("", "", t4, t5, nil), token: adminToken, wantData: empty},
		{name: "created_from - created_to (found)", path: path("", "", t1, t2, nil), token: adminToken, wantData: marchallList(t, usr1, admin)},
		{name: "all combo (empty)", path: path("USE", "", t1, t5, bPtr(true), user.RoleAdminOwner), token: adminToken, wantData: empty},
		{name: "all combo (found)", path: path("coa", "", t1, t5, bPtr(true), user.RoleCoach), token: adminToken, wantData: marchallList(t, coach)},
		// ordering
		{
			name: "order by name", path: path("", "name", time.Time{}, time.Time{}, nil), token: adminToken,
			wantData: marchallList(t, admin, coach, student, usr2, naughty, owner, usr1),
		},
		{
			name: "order by -created_at", path: path("", "-created_at", time.Time{}, time.Time{}, nil), token: adminToken,
			wantData: marchallList(t, coach, admin, usr1, naughty, owner, student, usr2),
		},
	})
}

func Test_userApi_userLogin(t *testing.T) {
	setup(t)

	_ = testutil.CreateUser(t, repos.User, "Hero", "hero", "hero@test.cd", "LolC@t123", []string{user.RoleStudent}, true)
	_ = testutil.CreateUser(t, repos.User, "N Dog", "ndog", "ndog@test.cd", "LolC@t123", []string{user.RoleStudent}, false)

	reqMsg := "this field is required"
	runTests(t, http.MethodPost, []httpTest{
		{name: "required fields", path: "/api/users/login", wantCode: http.StatusBadRequest, wantData: marchallObj(t, LoginRequest{Username: reqMsg, Password: reqMsg})},
		{
			name: "unknown user", path: "/api/users/login", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, LoginRequest{Username: "lol", Password: "LolC@t123"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", path: "/api/users/login", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, LoginRequest{Username: "hero", Password: "lol"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "inactive user", path: "/api/users/login", wantCode: http.StatusForbidden,
			body:     marchallObj(t, LoginRequest{Username: "ndog", Password: "LolC@t123"}),
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	})

	for _, uname := range []string{"hero", " HERO ", "hero@test.cd"} {
		t.Run("logged in as "+uname, func(t *testing.T) {
			rec := do(http.MethodPost, "/api/users/login", "", marchallObj(t, LoginRequest{Username: uname, Password: "LolC@t123"}))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp LoginResponse
			unmarshal(t, rec, &resp)
			require.NotEmpty(t, resp.Token)

			me := do(http.MethodGet, "/api/users/me", resp.Token)
			assert.Equal(t, http.StatusOK, me.Code)
			assert.Contains(t, me.Body.String(), `"username":"hero"`)
		})
	}

	usr, err := repos.User.GetUser(context.Background(), user.GetFilter{Username: "hero"})
	require.NoError(t, err)
	assert.False(t, usr.LastLogin.IsZero(), "last login not set")
}

func Test_userApi_userCreate(t *testing.T) {
	setup(t)

	owner := testutil.CreateUser(t, repos.User, "Owner", "owner", "owner@test.cd", "", []string{user.RoleAdminOwner}, true)
	admin := testutil.CreateUser(t, repos.User, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	coach := testutil.CreateUser(t, repos.User, "Coach", "coach", "coach@test.cd", "", []string{user.RoleCoach}, true)

	newUser := func(name, uname, email string, roles ...string) []byte {
		return marchallObj(t, user.NewUser{
			Name: name, Username: uname, Email: email, Password: "LolC@t123", PasswordConfirm: "LolC@t123", Roles: roles,
		})
	}

	runTests(t, http.MethodPost, []httpTest{
		{name: "Auth required", path: "/api/users/register", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Admin only", path: "/api/users/register", token: getToken(t, coach), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "username or email required", path: "/api/users/register", token: getToken(t, admin), wantCode: http.StatusBadRequest,
			body: newUser("Ji-ho", "", ""),
			wantData: marchallObj(t, map[string]string{
				"username": "one of username or email is required",
				"email":    "one of username or email is required",
			}),
		},
		{
			name: "invalid roles", path: "/api/users/register", token: getToken(t, admin), wantCode: http.StatusBadRequest,
			body:     newUser("Ji-ho", "jiho", "", "sensei:"),
			wantData: marchallObj(t, map[string]string{"roles": "invalid roles"}),
		},
		{
			name: "username taken", path: "/api/users/register", token: getToken(t, admin), wantCode: http.StatusBadRequest,
			body:     newUser("Ji-ho", "Coach", ""),
			wantData: marchallObj(t, map[string]string{"username": user.ErrUsernameExists.Error()}),
		},
		{
			name: "email taken", path: "/api/users/register", token: getToken(t, admin), wantCode: http.StatusBadRequest,
			body:     newUser("Ji-ho", "", "COACH@test.cd"),
			wantData: marchallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
		{
			name: "cannot grant a higher role", path: "/api/users/register", token: getToken(t, admin), wantCode: http.StatusBadRequest,
			body:     newUser("Ji-ho", "jiho", "", user.RoleAdminOwner),
			wantData: marchallObj(t, map[string]string{"roles": "not enough rights to set these roles"}),
		},
		{
			name: "created", path: "/api/users/register", token: getToken(t, owner), wantCode: http.StatusCreated,
			body: newUser("Ji-ho", "JiHo", "jiho@test.cd", user.RoleAdminOwner),
		},
	})

	usr, err := repos.User.GetUser(context.Background(), user.GetFilter{Username: "jiho"})
	require.NoError(t, err)
	assert.Equal(t, "jiho@test.cd", usr.Email)
	assert.Equal(t, []string{user.RoleAdminOwner}, usr.Roles)
	assert.NoError(t, usr.CheckPassword("LolC@t123"))
}

func Test_userApi_userRetrieveUpdateDestroy(t *testing.T) {
	setup(t)

	owner := testutil.CreateUser(t, repos.User, "Owner", "owner", "owner@test.cd", "", []string{user.RoleAdminOwner}, true)
	admin := testutil.CreateUser(t, repos.User, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	student := testutil.CreateUser(t, repos.User, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	other := testutil.CreateUser(t, repos.User, "Other", "other", "other@test.cd", "", []string{user.RoleStudent}, true)

	detail := func(usr user.User) string { return "/api/users/" + usr.ID }
	studentToken := getToken(t, student)
	adminToken := getToken(t, admin)

	runTests(t, http.MethodGet, []httpTest{
		{name: "Auth required", path: detail(student), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "own profile", path: detail(student), token: studentToken, wantData: marchallObj(t, student)},
		{name: "someone else's profile", path: detail(other), token: studentToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "admin sees anyone", path: detail(other), token: adminToken, wantData: marchallObj(t, other)},
		{name: "unknown user", path: "/api/users/lol", token: adminToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "roles", path: "/api/users/roles", token: adminToken, wantData: marchallObj(t, user.Roles)},
	})

	bPtr := func(b bool) *bool { return &b }
	runTests(t, http.MethodPut, []httpTest{
		{
			name: "student cannot change their roles", path: detail(student), token: studentToken, wantCode: http.StatusForbidden,
			body: marchallObj(t, user.UpdateUser{Roles: []string{user.RoleAdmin}}), wantData: marchallObj(t, errForbidden),
		},
		{
			name: "student cannot reactivate themselves", path: detail(student), token: studentToken, wantCode: http.StatusForbidden,
			body: marchallObj(t, user.UpdateUser{IsActive: bPtr(true)}), wantData: marchallObj(t, errForbidden),
		},
		{
			name: "password confirmation", path: detail(student), token: studentToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.UpdateUser{Password: "LolC@t123"}),
			wantData: marchallObj(t, map[string]string{"password_confirm": "this field is required"}),
		},
		{
			name: "admin cannot grant owner", path: detail(other), token: adminToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.UpdateUser{Roles: []string{user.RoleAdminOwner}}),
			wantData: marchallObj(t, map[string]string{"roles": "not enough rights to set these roles"}),
		},
		{name: "student renames themselves", path: detail(student), token: studentToken, body: marchallObj(t, user.UpdateUser{Name: "  Hero Kim "})},
		{name: "admin deactivates", path: detail(other), token: adminToken, body: marchallObj(t, user.UpdateUser{IsActive: bPtr(false)})},
	})

	ctx := context.Background()
	usr, err := repos.User.GetUser(ctx, user.GetFilter{ID: student.ID})
	require.NoError(t, err)
	assert.Equal(t, "Hero Kim", usr.Name)
	usr, err = repos.User.GetUser(ctx, user.GetFilter{ID: other.ID})
	require.NoError(t, err)
	assert.False(t, usr.Active())

	runTests(t, http.MethodDelete, []httpTest{
		{name: "Admin only", path: detail(student), token: studentToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "cannot delete themselves", path: detail(admin), token: adminToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "cannot delete a higher role", path: detail(owner), token: adminToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "multiple, including themselves", path: "/api/users?id=" + other.ID + "," + admin.ID, token: adminToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "multiple, including a higher role", path: "/api/users?id=" + other.ID + "&id=" + owner.ID, token: adminToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "deleted", path: detail(student), token: adminToken, wantCode: http.StatusNoContent},
		{name: "multiple deleted", path: "/api/users?id=" + other.ID, token: getToken(t, owner), wantCode: http.StatusNoContent},
	})

	users, err := repos.User.QueryUsers(ctx, nil, nil)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func Test_userApi_userRefreshToken(t *testing.T) {
	setup(t)

	naughty := testutil.CreateUser(t, repos.User, "N Dog", "ndog", "ndog@test.cd", "", []string{user.RoleStudent}, false) // 😂
	student := testutil.CreateUser(t, repos.User, "Hero", "hero", "user3@test.cd", "", []string{user.RoleStudent}, true)

	// older than the refresh threshold
	unrefreshableToken, err := NewUserToken(conf, student, time.Now().Add(-2*conf.Server.JWTRefreshExpirationDelta).Unix())
	require.NoError(t, err)

	runTests(t, http.MethodPost, []httpTest{
		{name: "Auth required", path: "/api/users/token-refresh", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Inactive user not allowed", path: "/api/users/token-refresh", token: getToken(t, naughty),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "Refresh period expired", path: "/api/users/token-refresh", token: unrefreshableToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
	})

	// cannot guess new token.. just check that it's not empty
	rec := do(http.MethodPost, "/api/users/token-refresh", getToken(t, student))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp LoginResponse
	unmarshal(t, rec, &resp)
	assert.NotEmpty(t, resp.Token)
}

func Test_userApi_userResetPassword(t *testing.T) {
	setup(t)

	student := testutil.CreateUser(t, repos.User, "Hero", "hero", "user3@test.cd", "", []string{user.RoleStudent}, true)
	naughty := testutil.CreateUser(t, repos.User, "N Dog", "ndog", "ndog@test.cd", "", []string{user.RoleStudent}, false)
	successData := marchallObj(t, SuccessResponse{Success: "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."})

	pathRegex := regexp.MustCompile("/password-reset/.+/.+")

	type extraTest struct {
		emailSent bool
		to        mail.Address
	}
	tests := []httpTest{
		{name: "required fields", wantCode: http.StatusBadRequest, wantData: marchallObj(t, PasswordResetRequest{Email: "this field is required"})},
		{
			name: "invalid email", wantCode: http.StatusBadRequest, body: marchallObj(t, PasswordResetRequest{Email: "lol"}),
			wantData: marchallObj(t, PasswordResetRequest{Email: "email must be a valid email address"}),
		},
		{
			name: "unknown email", wantCode: http.StatusOK, body: marchallObj(t, PasswordResetRequest{Email: "lol@test.com"}),
			wantData: successData, extra: extraTest{emailSent: false},
		},
		{
			name: "inactive user", wantCode: http.StatusOK, body: marchallObj(t, PasswordResetRequest{Email: naughty.Email}),
			wantData: successData, extra: extraTest{emailSent: false},
		},
		{
			name: "known email", wantCode: http.StatusOK, body: marchallObj(t, PasswordResetRequest{Email: strings.ToUpper(student.Email)}),
			wantData: successData, extra: extraTest{emailSent: true, to: mail.Address{Name: student.Name, Address: student.Email}},
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/api/users/password-reset"

		t.Run(tt.name, func(t *testing.T) {
			emailsvc.ClearOutbox()

			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			extra, ok := tt.extra.(extraTest)
			if !ok {
				return
			}
			outbox := emailsvc.Outbox()
			if !extra.emailSent {
				assert.Empty(t, outbox)
				return
			}
			require.Len(t, outbox, 1)
			msg := outbox[0]
			assert.Equal(t, extra.to, msg.To[0])
			assert.Contains(t, msg.TextContent, extra.to.Name)
			assert.Contains(t, msg.HTMLContent, extra.to.Name)
			assert.Regexp(t, pathRegex, msg.TextContent)
			assert.Regexp(t, pathRegex, msg.HTMLContent)
		})
	}
}

func Test_userApi_userConfirmPasswordReset(t *testing.T) {
	setup(t)

	student := testutil.CreateUser(t, repos.User, "Hero", "hero", "user3@test.cd", "lol", []string{user.RoleStudent}, true)
	validUID := user.EncodeUID(student)
	validToken := user.MakeToken(student, conf)

	// generate an expired token
	dayLate := conf.PasswordResetTimeoutDelta + (24 * time.Hour)
	user.NowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken := user.MakeToken(student, conf)
	user.NowFunc = time.Now // reset

	reqMsg := "this field is required"
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, user.ResetUserPassword{Token: reqMsg, UID: reqMsg, Password: "password must contain at least 8 characters", PasswordConfirm: reqMsg}),
		},
		{
			name: "invalid pwd: min len", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "lol", PasswordConfirm: "lol"}),
			wantData: marchallObj(t, user.ResetUserPassword{Password: "password must contain at least 8 characters"}),
		},
		{
			name: "invalid pwd: no whitespace", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "l o loll", PasswordConfirm: "l o loll"}),
			wantData: marchallObj(t, user.ResetUserPassword{Password: "password must not contain whitespace"}),
		},
		{
			name: "invalid pwd: not all numeric", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "12345678", PasswordConfirm: "12345678"}),
			wantData: marchallObj(t, user.ResetUserPassword{Password: "password cannot be entirely numeric"}),
		},
		{
			name: "invalid pwd: complexity", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "lol12345", PasswordConfirm: "lol12345"}),
			wantData: marchallObj(t, user.ResetUserPassword{Password: "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character"}),
		},
		{
			name: "invalid pwd: too common", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "P@$$w0rd", PasswordConfirm: "P@$$w0rd"}),
			wantData: marchallObj(t, user.ResetUserPassword{Password: "password is too common"}),
		},
		{
			name: "PasswordConfirm must = Password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "LolC@t123", PasswordConfirm: "lol"}),
			wantData: marchallObj(t, user.ResetUserPassword{PasswordConfirm: "password_confirm must be equal to Password"}),
		},
		{
			name: "invalid uid", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "%%%", Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantData: marchallObj(t, user.ResetUserPassword{UID: "invalid value"}),
		},
		{
			name: "user not found", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "OTk5", Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantData: marchallObj(t, user.ResetUserPassword{UID: "invalid value"}),
		},
		{
			name: "invalid token", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "HE4TS-sigsig-sig", UID: validUID, Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantData: marchallObj(t, user.ResetUserPassword{Token: "invalid value"}),
		},
		{
			name: "expired token", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: expiredToken, UID: validUID, Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantData: marchallObj(t, user.ResetUserPassword{Token: "invalid value"}),
		},
		{
			name: "valid token", wantCode: http.StatusOK,
			body:     marchallObj(t, user.ResetUserPassword{Token: validToken, UID: validUID, Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantData: marchallObj(t, SuccessResponse{Success: "Password has been reset with the new password."}),
		},
		{
			name: "token cannot be reused", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: validToken, UID: validUID, Password: "LolC@t1234", PasswordConfirm: "LolC@t1234"}),
			wantData: marchallObj(t, user.ResetUserPassword{Token: "invalid value"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/api/users/password-reset-confirm"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				refreshed, err := repos.User.GetUser(context.Background(), user.GetFilter{ID: student.ID})
				require.NoError(t, err)
				if bytes.Equal(refreshed.PasswordHash, student.PasswordHash) {
					t.Fatalf("failed to update new password")
				}
				assert.NoError(t, refreshed.CheckPassword("LolC@t123"))
			}
		})
	}
}
