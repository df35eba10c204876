package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/dojang/core/coach"
	"github.com/trezcool/dojang/core/rank"
	"github.com/trezcool/dojang/core/user"
	"github.com/trezcool/dojang/tests"
)

func Test_coachApi_coachCRUD(t *testing.T) {
	setup(t)

	admin := testutil.CreateUser(t, repos.User, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	headUsr := testutil.CreateUser(t, repos.User, "Head", "head", "head@test.cd", "", []string{user.RoleHeadCoach}, true)
	coachUsr := testutil.CreateUser(t, repos.User, "Coach", "coach", "coach@test.cd", "", []string{user.RoleCoach}, true)
	newUsr := testutil.CreateUser(t, repos.User, "New", "new", "new@test.cd", "", []string{user.RoleCoach}, true)
	studentUsr := testutil.CreateUser(t, repos.User, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)

	central := testutil.CreateDojang(t, repos.Dojang, "Central", "Buenos Aires")
	north := testutil.CreateDojang(t, repos.Dojang, "North", "Rosario")
	dan := testutil.CreateRank(t, repos.Rank, "4th Dan", 14, rank.KindDan)

	head := testutil.CreateCoach(t, repos.Coach, central.ID, headUsr.ID, "Min-jun", "Park")
	assistant := testutil.CreateCoach(t, repos.Coach, north.ID, coachUsr.ID, "Ji-woo", "Jung")
	_ = testutil.CreateClass(t, repos.Training, central.ID, head.ID, "Adults", 0, testutil.Schedule(t, 2, "19:00", "20:30"))

	adminToken := getToken(t, admin)
	coachToken := getToken(t, coachUsr)

	runTests(t, http.MethodGet, []httpTest{
		{name: "Auth required", path: "/api/coaches", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Staff only", path: "/api/coaches", token: getToken(t, studentUsr), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "all coaches", path: "/api/coaches", token: coachToken, wantData: marchallList(t, assistant, head)},
		{name: "by dojang", path: "/api/coaches?dojang_id=" + north.ID, token: coachToken, wantData: marchallList(t, assistant)},
		{name: "search", path: "/api/coaches?search=park", token: coachToken, wantData: marchallList(t, head)},
		{name: "me", path: "/api/coaches/me", token: coachToken, wantData: marchallObj(t, assistant)},
		{
			name: "me without a coach profile", path: "/api/coaches/me", token: getToken(t, newUsr), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: coach.ErrNotFound.Error()}),
		},
		{name: "detail", path: "/api/coaches/" + head.ID, token: coachToken, wantData: marchallObj(t, head)},
	})

	runTests(t, http.MethodPost, []httpTest{
		{
			name: "Admin only", path: "/api/coaches", token: coachToken, wantCode: http.StatusForbidden,
			body: marchallObj(t, coach.NewCoach{DojangID: north.ID, FirstName: "Ha-eun", LastName: "Yoon"}), wantData: marchallObj(t, errForbidden),
		},
		{
			name: "user already linked", path: "/api/coaches", token: adminToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, coach.NewCoach{DojangID: north.ID, UserID: coachUsr.ID, FirstName: "Ha-eun", LastName: "Yoon"}),
			wantData: marchallObj(t, map[string]string{"user_id": coach.ErrUserTaken.Error()}),
		},
		{
			name: "unknown user", path: "/api/coaches", token: adminToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, coach.NewCoach{DojangID: north.ID, UserID: "lol", FirstName: "Ha-eun", LastName: "Yoon"}),
			wantData: marchallObj(t, map[string]string{"user_id": user.ErrNotFound.Error()}),
		},
		{
			name: "created", path: "/api/coaches", token: adminToken, wantCode: http.StatusCreated,
			body: marchallObj(t, coach.NewCoach{DojangID: north.ID, RankID: dan.ID, UserID: newUsr.ID, FirstName: "Ha-eun", LastName: "Yoon", Bio: " 4th dan "}),
		},
	})

	ctx := context.Background()
	created, err := repos.Coach.GetCoachByUserID(ctx, newUsr.ID)
	require.NoError(t, err)
	assert.Equal(t, "4th dan", created.Bio)
	assert.Equal(t, dan.ID, created.RankID)

	sPtr := func(s string) *string { return &s }
	runTests(t, http.MethodPut, []httpTest{
		{
			name: "Admin only", path: "/api/coaches/" + assistant.ID, token: coachToken, wantCode: http.StatusForbidden,
			body: marchallObj(t, coach.UpdateCoach{Bio: sPtr("lol")}), wantData: marchallObj(t, errForbidden),
		},
		{
			name: "unknown rank", path: "/api/coaches/" + assistant.ID, token: adminToken, wantCode: http.StatusBadRequest,
			body: marchallObj(t, coach.UpdateCoach{RankID: sPtr("lol")}), wantData: marchallObj(t, map[string]string{"rank_id": rank.ErrNotFound.Error()}),
		},
		{name: "moved", path: "/api/coaches/" + assistant.ID, token: adminToken, body: marchallObj(t, coach.UpdateCoach{DojangID: sPtr(central.ID)})},
	})

	c, err := repos.Coach.GetCoach(ctx, assistant.ID)
	require.NoError(t, err)
	assert.Equal(t, central.ID, c.DojangID)

	runTests(t, http.MethodDelete, []httpTest{
		{
			name: "still teaching", path: "/api/coaches/" + head.ID, token: adminToken, wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: coach.ErrCoachHasClasses.Error()}),
		},
		{name: "deleted", path: "/api/coaches/" + assistant.ID, token: adminToken, wantCode: http.StatusNoContent},
		{name: "unknown", path: "/api/coaches/" + assistant.ID, token: adminToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: coach.ErrNotFound.Error()})},
	})
}
