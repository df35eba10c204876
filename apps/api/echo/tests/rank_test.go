package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/dojang/core/rank"
	"github.com/trezcool/dojang/core/user"
	"github.com/trezcool/dojang/tests"
)

func Test_rankApi_rankCRUD(t *testing.T) {
	setup(t)

	admin := testutil.CreateUser(t, repos.User, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	studentUsr := testutil.CreateUser(t, repos.User, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	d := testutil.CreateDojang(t, repos.Dojang, "Central", "Buenos Aires")

	ladder := testutil.CreateLadder(t, repos.Rank, 3)
	white, yellow, orange := ladder[0], ladder[1], ladder[2]
	_ = testutil.CreateStudent(t, repos.Student, d.ID, white.ID, "", "Ji-ho", "Kim", true)

	adminToken := getToken(t, admin)
	studentToken := getToken(t, studentUsr)

	runTests(t, http.MethodGet, []httpTest{
		{name: "Auth required", path: "/api/ranks", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "ladder", path: "/api/ranks", token: studentToken, wantData: marchallList(t, white, yellow, orange)},
		{name: "detail", path: "/api/ranks/" + yellow.ID, token: studentToken, wantData: marchallObj(t, yellow)},
		{name: "next", path: "/api/ranks/" + white.ID + "/next", token: studentToken, wantData: marchallObj(t, yellow)},
		{
			name: "highest has no next", path: "/api/ranks/" + orange.ID + "/next", token: studentToken, wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: rank.ErrHighestRank.Error()}),
		},
		{name: "unknown", path: "/api/ranks/lol/next", token: studentToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: rank.ErrNotFound.Error()})},
	})

	reqMsg := "this field is required"
	runTests(t, http.MethodPost, []httpTest{
		{
			name: "Admin only", path: "/api/ranks", token: studentToken, wantCode: http.StatusForbidden,
			body: marchallObj(t, rank.NewRank{Name: "1st Dan", Order: 20, Kind: rank.KindDan}), wantData: marchallObj(t, errForbidden),
		},
		{
			name: "required fields", path: "/api/ranks", token: adminToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": reqMsg, "order": reqMsg, "kind": reqMsg}),
		},
		{
			name: "invalid kind", path: "/api/ranks", token: adminToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, rank.NewRank{Name: "1st Dan", Order: 20, Kind: "belt"}),
			wantData: marchallObj(t, map[string]string{"kind": "kind must be one of [gup dan poom]"}),
		},
		{
			name: "order taken", path: "/api/ranks", token: adminToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, rank.NewRank{Name: "1st Dan", Order: white.Order, Kind: rank.KindDan}),
			wantData: marchallObj(t, map[string]string{"order": rank.ErrOrderExists.Error()}),
		},
		{
			name: "name taken", path: "/api/ranks", token: adminToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, rank.NewRank{Name: yellow.Name, Order: 20, Kind: rank.KindGup}),
			wantData: marchallObj(t, map[string]string{"name": rank.ErrNameExists.Error()}),
		},
		{
			name: "created", path: "/api/ranks", token: adminToken, wantCode: http.StatusCreated,
			body: marchallObj(t, rank.NewRank{Name: " 1st Dan ", Color: "BLACK", Order: 20, Kind: " DAN "}),
		},
	})

	ctx := context.Background()
	dan, err := repos.Rank.GetRankByOrder(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, "1st Dan", dan.Name)
	assert.Equal(t, "black", dan.Color)
	assert.Equal(t, rank.KindDan, dan.Kind)

	runTests(t, http.MethodPut, []httpTest{
		{
			name: "order taken", path: "/api/ranks/" + dan.ID, token: adminToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, rank.UpdateRank{Order: orange.Order}),
			wantData: marchallObj(t, map[string]string{"order": rank.ErrOrderExists.Error()}),
		},
		{name: "updated", path: "/api/ranks/" + orange.ID, token: adminToken, body: marchallObj(t, rank.UpdateRank{Color: "Orange"})},
	})

	r, err := repos.Rank.GetRank(ctx, orange.ID)
	require.NoError(t, err)
	assert.Equal(t, "orange", r.Color)
	assert.Equal(t, orange.Name, r.Name)
	assert.Equal(t, orange.Order, r.Order)

	// the new dan is now the next rank of orange
	rec := do(http.MethodGet, "/api/ranks/"+orange.ID+"/next", studentToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var next rank.Rank
	unmarshal(t, rec, &next)
	assert.Equal(t, dan.ID, next.ID)

	runTests(t, http.MethodDelete, []httpTest{
		{
			name: "in use", path: "/api/ranks/" + white.ID, token: adminToken, wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: rank.ErrRankInUse.Error()}),
		},
		{name: "deleted", path: "/api/ranks/" + yellow.ID, token: adminToken, wantCode: http.StatusNoContent},
	})

	_, err = repos.Rank.GetRank(ctx, yellow.ID)
	assert.Equal(t, rank.ErrNotFound, err)
}
