package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/dojang/core/blog"
	"github.com/trezcool/dojang/core/user"
	"github.com/trezcool/dojang/tests"
)

func Test_blogApi_public(t *testing.T) {
	setup(t)

	coachUsr := testutil.CreateUser(t, repos.User, "Coach", "coach", "coach@test.cd", "", []string{user.RoleCoach}, true)
	exams := testutil.CreateEntry(t, repos.Blog, coachUsr.ID, "Belt exam results", "belt-exam-results", true, "exams")
	camp := testutil.CreateEntry(t, repos.Blog, coachUsr.ID, "Summer camp", "summer-camp", true, "events", "camp")
	_ = testutil.CreateEntry(t, repos.Blog, coachUsr.ID, "Draft plans", "draft-plans", false)

	runTests(t, http.MethodGet, []httpTest{
		{name: "published entries", path: "/api/blog", wantData: marchallList(t, camp, exams)},
		{name: "by tag", path: "/api/blog?tag=EXAMS", wantData: marchallList(t, exams)},
		{name: "search", path: "/api/blog?search=camp", wantData: marchallList(t, camp)},
		{name: "drafts are hidden from search", path: "/api/blog?search=draft", wantData: marchallList(t)},
		{name: "by slug", path: "/api/blog/summer-camp", wantData: marchallObj(t, camp)},
		{name: "draft slug", path: "/api/blog/draft-plans", wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "unknown slug", path: "/api/blog/lol", wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: blog.ErrNotFound.Error()})},
	})
}

func Test_blogApi_entryCRUD(t *testing.T) {
	setup(t)

	coachUsr := testutil.CreateUser(t, repos.User, "Coach", "coach", "coach@test.cd", "", []string{user.RoleCoach}, true)
	heroUsr := testutil.CreateUser(t, repos.User, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	exams := testutil.CreateEntry(t, repos.Blog, coachUsr.ID, "Belt exam results", "belt-exam-results", true, "exams")
	draft := testutil.CreateEntry(t, repos.Blog, coachUsr.ID, "Draft plans", "draft-plans", false)

	token := getToken(t, coachUsr)
	reqMsg := "this field is required"

	runTests(t, http.MethodGet, []httpTest{
		{name: "Auth required", path: "/api/blog/entries", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Staff only", path: "/api/blog/entries", token: getToken(t, heroUsr), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "drafts included", path: "/api/blog/entries", token: token, wantData: marchallList(t, exams, draft)},
		{name: "published only", path: "/api/blog/entries?published=true", token: token, wantData: marchallList(t, exams)},
		{name: "order by title", path: "/api/blog/entries?ordering=title", token: token, wantData: marchallList(t, exams, draft)},
		{name: "draft detail", path: "/api/blog/entries/" + draft.ID, token: token, wantData: marchallObj(t, draft)},
	})

	runTests(t, http.MethodPost, []httpTest{
		{
			name: "required fields", path: "/api/blog/entries", token: token, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"title": reqMsg, "content": reqMsg}),
		},
		{
			name: "title without letters", path: "/api/blog/entries", token: token, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, blog.NewEntry{Title: "!!!", Content: "lol"}),
			wantData: marchallObj(t, map[string]string{"title": blog.ErrEmptySlug.Error()}),
		},
		{
			name: "created", path: "/api/blog/entries", token: token, wantCode: http.StatusCreated,
			body: marchallObj(t, blog.NewEntry{Title: " Belt Exam Results ", Content: "again", Tags: []string{"Exams", " exams", "Kids "}}),
		},
	})

	ctx := context.Background()
	e, err := repos.Blog.GetEntryBySlug(ctx, "belt-exam-results-2")
	require.NoError(t, err)
	assert.Equal(t, coachUsr.ID, e.AuthorID)
	assert.Equal(t, "Belt Exam Results", e.Title)
	assert.Equal(t, []string{"exams", "kids"}, e.Tags)
	assert.False(t, e.Published)
	assert.True(t, e.PublishedAt.IsZero())

	sPtr := func(s string) *string { return &s }
	bPtr := func(b bool) *bool { return &b }
	runTests(t, http.MethodPut, []httpTest{
		{
			name: "Staff only", path: "/api/blog/entries/" + draft.ID, token: getToken(t, heroUsr), wantCode: http.StatusForbidden,
			body: marchallObj(t, blog.UpdateEntry{Title: sPtr("lol")}), wantData: marchallObj(t, errForbidden),
		},
		{
			name: "blank content", path: "/api/blog/entries/" + draft.ID, token: token, wantCode: http.StatusBadRequest,
			body: marchallObj(t, blog.UpdateEntry{Content: sPtr("   ")}), wantData: marchallObj(t, map[string]string{"content": "this field cannot be blank"}),
		},
		{name: "draft renamed", path: "/api/blog/entries/" + draft.ID, token: token, body: marchallObj(t, blog.UpdateEntry{Title: sPtr("Año nuevo: Taekwondo!")})},
	})

	d, err := repos.Blog.GetEntry(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "ano-nuevo-taekwondo", d.Slug, "draft slugs follow the title")

	rec := do(http.MethodPut, "/api/blog/entries/"+draft.ID, token, marchallObj(t, blog.UpdateEntry{Published: bPtr(true)}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unmarshal(t, rec, &d)
	assert.True(t, d.Published)
	assert.False(t, d.PublishedAt.IsZero())

	rec = do(http.MethodPut, "/api/blog/entries/"+draft.ID, token, marchallObj(t, blog.UpdateEntry{Title: sPtr("New year plans")}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unmarshal(t, rec, &d)
	assert.Equal(t, "New year plans", d.Title)
	assert.Equal(t, "ano-nuevo-taekwondo", d.Slug, "published slugs are permanent")

	rec = do(http.MethodGet, "/api/blog/ano-nuevo-taekwondo", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// unpublishing keeps the slug and the first publication date
	publishedAt := d.PublishedAt
	rec = do(http.MethodPut, "/api/blog/entries/"+draft.ID, token, marchallObj(t, blog.UpdateEntry{Published: bPtr(false), Title: sPtr("Hidden")}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unmarshal(t, rec, &d)
	assert.False(t, d.Published)
	assert.Equal(t, "ano-nuevo-taekwondo", d.Slug)
	assert.True(t, publishedAt.Equal(d.PublishedAt))

	runTests(t, http.MethodDelete, []httpTest{
		{name: "Staff only", path: "/api/blog/entries/" + exams.ID, token: getToken(t, heroUsr), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "deleted", path: "/api/blog/entries/" + exams.ID, token: token, wantCode: http.StatusNoContent},
		{name: "unknown", path: "/api/blog/entries/" + exams.ID, token: token, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: blog.ErrNotFound.Error()})},
	})
}
