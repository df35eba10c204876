package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/dojang/apps/api/echo"
	"github.com/trezcool/dojang/core/coach"
	"github.com/trezcool/dojang/core/student"
	"github.com/trezcool/dojang/core/training"
	"github.com/trezcool/dojang/core/user"
	"github.com/trezcool/dojang/tests"
)

func Test_trainingApi_classQuery(t *testing.T) {
	setup(t)

	heroUsr := testutil.CreateUser(t, repos.User, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	central := testutil.CreateDojang(t, repos.Dojang, "Central", "Buenos Aires")
	north := testutil.CreateDojang(t, repos.Dojang, "North", "Rosario")
	park := testutil.CreateCoach(t, repos.Coach, central.ID, "", "Min-jun", "Park")
	jung := testutil.CreateCoach(t, repos.Coach, north.ID, "", "Ji-woo", "Jung")
	hero := testutil.CreateStudent(t, repos.Student, central.ID, "", heroUsr.ID, "Ji-ho", "Kim", true)

	adults := testutil.CreateClass(t, repos.Training, central.ID, park.ID, "Adults", 0,
		testutil.Schedule(t, time.Monday, "19:00", "20:30"),
		testutil.Schedule(t, time.Thursday, "19:00", "20:30"))
	kids := testutil.CreateClass(t, repos.Training, central.ID, park.ID, "Kids", 12, testutil.Schedule(t, time.Tuesday, "17:00", "18:00"))
	poomsae := testutil.CreateClass(t, repos.Training, north.ID, jung.ID, "Poomsae", 8, testutil.Schedule(t, time.Saturday, "10:00", "12:00"))
	_, err := repos.Training.CreateEnrollment(context.Background(), training.Enrollment{ClassID: kids.ID, StudentID: hero.ID, EnrolledAt: time.Now().UTC()})
	require.NoError(t, err)

	token := getToken(t, heroUsr)
	runTests(t, http.MethodGet, []httpTest{
		{name: "Auth required", path: "/api/classes", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "all classes", path: "/api/classes", token: token, wantData: marchallList(t, adults, kids, poomsae)},
		{name: "by dojang", path: "/api/classes?dojang_id=" + north.ID, token: token, wantData: marchallList(t, poomsae)},
		{name: "by coach", path: "/api/classes?coach_id=" + park.ID, token: token, wantData: marchallList(t, adults, kids)},
		{name: "by student", path: "/api/classes?student_id=" + hero.ID, token: token, wantData: marchallList(t, kids)},
		{name: "by day (name)", path: "/api/classes?day=thursday", token: token, wantData: marchallList(t, adults)},
		{name: "by day (number)", path: "/api/classes?day=6", token: token, wantData: marchallList(t, poomsae)},
		{name: "search", path: "/api/classes?search=kid", token: token, wantData: marchallList(t, kids)},
		{name: "order by -capacity", path: "/api/classes?ordering=-capacity", token: token, wantData: marchallList(t, kids, poomsae, adults)},
		{name: "detail", path: "/api/classes/" + kids.ID, token: token, wantData: marchallObj(t, kids)},
		{
			name: "unknown", path: "/api/classes/lol", token: token, wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: training.ErrNotFound.Error()}),
		},
	})
}

func Test_trainingApi_classCreateUpdate(t *testing.T) {
	setup(t)

	coachUsr := testutil.CreateUser(t, repos.User, "Coach", "coach", "coach@test.cd", "", []string{user.RoleCoach}, true)
	heroUsr := testutil.CreateUser(t, repos.User, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	central := testutil.CreateDojang(t, repos.Dojang, "Central", "Buenos Aires")
	north := testutil.CreateDojang(t, repos.Dojang, "North", "Rosario")
	park := testutil.CreateCoach(t, repos.Coach, central.ID, coachUsr.ID, "Min-jun", "Park")
	jung := testutil.CreateCoach(t, repos.Coach, north.ID, "", "Ji-woo", "Jung")

	monEvening := testutil.Schedule(t, time.Monday, "18:00", "19:30")
	adults := testutil.CreateClass(t, repos.Training, central.ID, park.ID, "Adults", 0, monEvening)

	token := getToken(t, coachUsr)
	newClass := func(coachID, name string, schedules ...training.Schedule) []byte {
		return marchallObj(t, training.NewClass{DojangID: central.ID, CoachID: coachID, Name: name, Capacity: 10, Schedules: schedules})
	}
	reqMsg := "this field is required"
	overlapping := testutil.Schedule(t, time.Monday, "19:00", "20:00")

	runTests(t, http.MethodPost, []httpTest{
		{
			name: "Staff only", path: "/api/classes", token: getToken(t, heroUsr), wantCode: http.StatusForbidden,
			body: newClass(park.ID, "Kids", testutil.Schedule(t, time.Tuesday, "17:00", "18:00")), wantData: marchallObj(t, errForbidden),
		},
		{
			name: "required fields", path: "/api/classes", token: token, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"dojang_id": reqMsg, "coach_id": reqMsg, "name": reqMsg, "schedules": reqMsg}),
		},
		{
			name: "invalid time of day", path: "/api/classes", token: token, wantCode: http.StatusBadRequest,
			body: []byte(`{"dojang_id":"` + central.ID + `","coach_id":"` + park.ID + `","name":"Kids","schedules":[{"day":1,"start":"25:00","end":"26:00"}]}`),
		},
		{
			name: "invalid weekday", path: "/api/classes", token: token, wantCode: http.StatusBadRequest,
			body:     []byte(`{"dojang_id":"` + central.ID + `","coach_id":"` + park.ID + `","name":"Kids","schedules":[{"day":7,"start":"17:00","end":"18:00"}]}`),
			wantData: marchallObj(t, map[string]string{"schedules[0].day": "day must be a weekday between 0 (Sunday) and 6 (Saturday)"}),
		},
		{
			name: "ends before it starts", path: "/api/classes", token: token, wantCode: http.StatusBadRequest,
			body:     newClass(park.ID, "Kids", testutil.Schedule(t, time.Tuesday, "18:00", "17:00")),
			wantData: marchallObj(t, map[string]string{"schedules": "schedule Tuesday 18:00-17:00 must end after it starts"}),
		},
		{
			name: "overlapping schedules", path: "/api/classes", token: token, wantCode: http.StatusBadRequest,
			body: newClass(park.ID, "Kids",
				testutil.Schedule(t, time.Tuesday, "17:00", "18:00"),
				testutil.Schedule(t, time.Tuesday, "17:30", "18:30")),
			wantData: marchallObj(t, map[string]string{"schedules": "schedules Tuesday 17:00-18:00 and Tuesday 17:30-18:30 overlap"}),
		},
		{
			name: "coach from another dojang", path: "/api/classes", token: token, wantCode: http.StatusBadRequest,
			body:     newClass(jung.ID, "Kids", testutil.Schedule(t, time.Tuesday, "17:00", "18:00")),
			wantData: marchallObj(t, map[string]string{"coach_id": training.ErrCoachNotInDojang.Error()}),
		},
		{
			name: "unknown coach", path: "/api/classes", token: token, wantCode: http.StatusBadRequest,
			body:     newClass("lol", "Kids", testutil.Schedule(t, time.Tuesday, "17:00", "18:00")),
			wantData: marchallObj(t, map[string]string{"coach_id": coach.ErrNotFound.Error()}),
		},
		{
			name: "coach already booked", path: "/api/classes", token: token, wantCode: http.StatusBadRequest,
			body: newClass(park.ID, "Sparring", overlapping),
			wantData: marchallObj(t, map[string]string{
				"schedules": `coach is already booked: Monday 19:00-20:00 overlaps "Adults" (Monday 18:00-19:30)`,
			}),
		},
		{
			name: "touching schedules", path: "/api/classes", token: token, wantCode: http.StatusCreated,
			body: newClass(park.ID, "Sparring", testutil.Schedule(t, time.Monday, "19:30", "20:30")),
		},
	})

	ctx := context.Background()
	classes, err := repos.Training.QueryClasses(ctx, &training.QueryFilter{CoachID: park.ID}, nil)
	require.NoError(t, err)
	require.Len(t, classes, 2)

	cap0 := 0
	runTests(t, http.MethodPut, []httpTest{
		{
			name: "Staff only", path: "/api/classes/" + adults.ID, token: getToken(t, heroUsr), wantCode: http.StatusForbidden,
			body: marchallObj(t, training.UpdateClass{Capacity: &cap0}), wantData: marchallObj(t, errForbidden),
		},
		{
			name: "schedules cleared", path: "/api/classes/" + adults.ID, token: token, wantCode: http.StatusBadRequest,
			body: []byte(`{"schedules":[]}`), wantData: marchallObj(t, map[string]string{"schedules": training.ErrNoSchedules.Error()}),
		},
		{
			name: "rescheduled onto another class", path: "/api/classes/" + adults.ID, token: token, wantCode: http.StatusBadRequest,
			body: marchallObj(t, training.UpdateClass{Schedules: []training.Schedule{testutil.Schedule(t, time.Monday, "20:00", "21:00")}}),
			wantData: marchallObj(t, map[string]string{
				"schedules": `coach is already booked: Monday 20:00-21:00 overlaps "Sparring" (Monday 19:30-20:30)`,
			}),
		},
		{
			name: "own schedules do not conflict", path: "/api/classes/" + adults.ID, token: token,
			body: marchallObj(t, training.UpdateClass{Schedules: []training.Schedule{testutil.Schedule(t, time.Monday, "18:00", "19:00")}}),
		},
	})

	tc, err := repos.Training.GetClass(ctx, adults.ID)
	require.NoError(t, err)
	assert.Equal(t, []training.Schedule{testutil.Schedule(t, time.Monday, "18:00", "19:00")}, tc.Schedules)
}

func Test_trainingApi_classConflicts(t *testing.T) {
	setup(t)

	coachUsr := testutil.CreateUser(t, repos.User, "Coach", "coach", "coach@test.cd", "", []string{user.RoleCoach}, true)
	d := testutil.CreateDojang(t, repos.Dojang, "Central", "Buenos Aires")
	park := testutil.CreateCoach(t, repos.Coach, d.ID, coachUsr.ID, "Min-jun", "Park")

	// stored without going through the conflicts check
	adults := testutil.CreateClass(t, repos.Training, d.ID, park.ID, "Adults", 0, testutil.Schedule(t, time.Monday, "18:00", "19:30"))
	openMat := testutil.CreateClass(t, repos.Training, d.ID, park.ID, "Open mat", 0, testutil.Schedule(t, time.Monday, "19:00", "20:00"))
	free := testutil.CreateClass(t, repos.Training, d.ID, park.ID, "Kids", 0, testutil.Schedule(t, time.Friday, "17:00", "18:00"))

	token := getToken(t, coachUsr)
	runTests(t, http.MethodGet, []httpTest{
		{
			name: "conflicting", path: "/api/classes/" + adults.ID + "/conflicts", token: token,
			wantData: marchallList(t, training.Conflict{
				ClassID:   openMat.ID,
				ClassName: openMat.Name,
				Schedule:  adults.Schedules[0],
				With:      openMat.Schedules[0],
			}),
		},
		{name: "free", path: "/api/classes/" + free.ID + "/conflicts", token: token, wantData: marchallList(t)},
	})
}

func Test_trainingApi_classEnrollments(t *testing.T) {
	setup(t)

	coachUsr := testutil.CreateUser(t, repos.User, "Coach", "coach", "coach@test.cd", "", []string{user.RoleCoach}, true)
	heroUsr := testutil.CreateUser(t, repos.User, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	leeUsr := testutil.CreateUser(t, repos.User, "Lee", "lee", "lee@test.cd", "", []string{user.RoleStudent}, true)
	visitorUsr := testutil.CreateUser(t, repos.User, "Visitor", "visitor", "visitor@test.cd", "", nil, true)

	central := testutil.CreateDojang(t, repos.Dojang, "Central", "Buenos Aires")
	north := testutil.CreateDojang(t, repos.Dojang, "North", "Rosario")
	park := testutil.CreateCoach(t, repos.Coach, central.ID, coachUsr.ID, "Min-jun", "Park")

	hero := testutil.CreateStudent(t, repos.Student, central.ID, "", heroUsr.ID, "Ji-ho", "Kim", true)
	lee := testutil.CreateStudent(t, repos.Student, central.ID, "", leeUsr.ID, "Seo-yeon", "Lee", true)
	retired := testutil.CreateStudent(t, repos.Student, central.ID, "", "", "Do-yun", "Choi", false)
	away := testutil.CreateStudent(t, repos.Student, north.ID, "", "", "Ha-eun", "Yoon", true)

	kids := testutil.CreateClass(t, repos.Training, central.ID, park.ID, "Kids", 1, testutil.Schedule(t, time.Tuesday, "17:00", "18:00"))
	adults := testutil.CreateClass(t, repos.Training, central.ID, park.ID, "Adults", 0, testutil.Schedule(t, time.Monday, "19:00", "20:30"))

	enroll := func(s student.Student) []byte { return marchallObj(t, EnrollRequest{StudentID: s.ID}) }
	enrollments := func(tc training.TrainingClass) string { return "/api/classes/" + tc.ID + "/enrollments" }
	heroToken := getToken(t, heroUsr)
	coachToken := getToken(t, coachUsr)

	runTests(t, http.MethodPost, []httpTest{
		{
			name: "required fields", path: enrollments(kids), token: heroToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"student_id": "this field is required"}),
		},
		{name: "someone else", path: enrollments(kids), token: heroToken, body: enroll(lee), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "no student profile", path: enrollments(kids), token: getToken(t, visitorUsr), body: enroll(lee), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "enrolled themself", path: enrollments(kids), token: heroToken, body: enroll(hero), wantCode: http.StatusCreated},
		{
			name: "already enrolled", path: enrollments(kids), token: heroToken, body: enroll(hero), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"student_id": training.ErrEnrollmentExists.Error()}),
		},
		{
			name: "class full", path: enrollments(kids), token: coachToken, body: enroll(lee), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"class_id": training.ErrClassFull.Error()}),
		},
		{
			name: "inactive student", path: enrollments(adults), token: coachToken, body: enroll(retired), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"student_id": training.ErrStudentInactive.Error()}),
		},
		{
			name: "student from another dojang", path: enrollments(adults), token: coachToken, body: enroll(away), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"student_id": training.ErrStudentNotInDojang.Error()}),
		},
		{
			name: "unknown student", path: enrollments(adults), token: coachToken, body: marchallObj(t, EnrollRequest{StudentID: "lol"}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"student_id": student.ErrNotFound.Error()}),
		},
		{name: "unlimited capacity (1)", path: enrollments(adults), token: coachToken, body: enroll(hero), wantCode: http.StatusCreated},
		{name: "unlimited capacity (2)", path: enrollments(adults), token: coachToken, body: enroll(lee), wantCode: http.StatusCreated},
	})

	runTests(t, http.MethodGet, []httpTest{
		{name: "Staff only", path: "/api/classes/" + adults.ID + "/students", token: heroToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "class students", path: "/api/classes/" + adults.ID + "/students", token: coachToken, wantData: marchallList(t, hero, lee)},
		{name: "own classes", path: "/api/classes?student_id=" + lee.ID, token: heroToken, wantData: marchallList(t, adults)},
	})

	runTests(t, http.MethodDelete, []httpTest{
		{name: "someone else", path: enrollments(adults) + "/" + lee.ID, token: heroToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "unenrolled themself", path: enrollments(kids) + "/" + hero.ID, token: heroToken, wantCode: http.StatusNoContent},
		{
			name: "not enrolled", path: enrollments(kids) + "/" + hero.ID, token: heroToken, wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: training.ErrNotEnrolled.Error()}),
		},
		{name: "staff unenrolls", path: enrollments(adults) + "/" + lee.ID, token: coachToken, wantCode: http.StatusNoContent},
	})

	// a seat was freed
	rec := do(http.MethodPost, enrollments(kids), coachToken, enroll(lee))
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(http.MethodDelete, "/api/classes/"+adults.ID, coachToken)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, err := repos.Training.GetClass(context.Background(), adults.ID)
	assert.Equal(t, training.ErrNotFound, err)
}
