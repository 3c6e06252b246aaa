package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"github.com/ray-remotestate/recipebox/config"
	"github.com/ray-remotestate/recipebox/database/dbtest"
	"github.com/ray-remotestate/recipebox/handlers"
	"github.com/ray-remotestate/recipebox/middlewares"
	"github.com/ray-remotestate/recipebox/server"
	"github.com/ray-remotestate/recipebox/templates"
)

var today = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type HandlerSuite struct {
	suite.Suite
	db     *dbtest.Database
	router http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupSuite() {
	s.db = dbtest.Start(s.T())

	renderer, err := templates.New()
	s.Require().NoError(err)

	cfg := &config.Config{
		Environment:      "test",
		SessionSecret:    []byte("handler-test-secret"),
		SessionTTL:       time.Hour,
		ExpiringSoonDays: 7,
	}
	h := handlers.New(renderer, s.db.DB, cfg).WithClock(func() time.Time { return today })
	metrics := middlewares.NewMetrics(prometheus.NewRegistry())
	s.router = server.SetupRoutes(h, s.db.DB, cfg.SessionSecret, metrics).Router
}

func (s *HandlerSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *HandlerSuite) SetupTest() {
	s.db.Reset(s.T())
}

func (s *HandlerSuite) do(method, target string, form url.Values, session *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if session != nil {
		req.AddCookie(session)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) signup(username, email, password string) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, "/add_user", url.Values{"uname": {username}, "email": {email}, "passw": {password}}, nil)
}

// login signs up username and returns its session cookie.
func (s *HandlerSuite) login(username string) *http.Cookie {
	s.signup(username, username+"@example.com", "secret")
	rec := s.do(http.MethodPost, "/app", url.Values{"uname": {username}, "passw": {"secret"}}, nil)
	s.Require().Equal(http.StatusSeeOther, rec.Code)
	for _, c := range rec.Result().Cookies() {
		if c.Name == middlewares.SessionCookie {
			return c
		}
	}
	s.FailNow("no session cookie after login")
	return nil
}

func (s *HandlerSuite) addItem(session *http.Cookie, name string, expires time.Time) {
	rec := s.do(http.MethodPost, "/add_item_to_inventory", url.Values{
		"itemname": {name},
		"quantity": {"1"},
		"exp_date": {expires.Format("2006-01-02")},
		"calories": {"100"},
	}, session)
	s.Require().Equal(http.StatusSeeOther, rec.Code, rec.Body.String())
}

func (s *HandlerSuite) TestIndexListsSeedNames() {
	rec := s.do(http.MethodGet, "/", nil, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "grace hopper")
	s.Contains(rec.Body.String(), `action="/app"`)
}

func (s *HandlerSuite) TestHealth() {
	rec := s.do(http.MethodGet, "/health", nil, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"alive": true}`, rec.Body.String())
}

func (s *HandlerSuite) TestUserPagesNeedSession() {
	for _, path := range []string{"/home", "/inventory", "/preferences", "/reviews", "/display_recipe?type=Pancakes"} {
		rec := s.do(http.MethodGet, path, nil, nil)
		s.Equal(http.StatusSeeOther, rec.Code, path)
		s.Equal("/", rec.Header().Get("Location"), path)
	}
}

func (s *HandlerSuite) TestSignupMessages() {
	rec := s.signup("ada", "ada@example.com", "engine")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "Sign Up Successful!")

	rec = s.signup("other", "ada@example.com", "engine")
	s.Contains(rec.Body.String(), "Username and/or email already in use.")

	rec = s.signup("", "x@example.com", "engine")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "Invalid entry, please try again.")
}

func (s *HandlerSuite) TestLogin() {
	s.signup("ada", "ada@example.com", "engine")

	rec := s.do(http.MethodPost, "/app", url.Values{"uname": {"ada"}, "passw": {"wrong"}}, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "Wrong credentials, please try again.")

	rec = s.do(http.MethodPost, "/app", url.Values{"uname": {"ada"}, "passw": {"engine"}}, nil)
	s.Equal(http.StatusSeeOther, rec.Code)
	s.Equal("/home", rec.Header().Get("Location"))

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middlewares.SessionCookie {
			session = c
		}
	}
	s.Require().NotNil(session)
	s.True(session.HttpOnly)

	rec = s.do(http.MethodGet, "/home", nil, session)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "Welcome, ada")
	s.Contains(rec.Body.String(), "January 01, 2024")
}

func (s *HandlerSuite) TestSignoutClearsCookie() {
	session := s.login("ada")
	rec := s.do(http.MethodGet, "/signout", nil, session)
	s.Equal(http.StatusSeeOther, rec.Code)
	s.Require().NotEmpty(rec.Result().Cookies())
	s.Empty(rec.Result().Cookies()[0].Value)
}

func (s *HandlerSuite) TestInventoryAddAndRemove() {
	session := s.login("ada")
	s.addItem(session, "handler saffron", today.AddDate(0, 0, 2))

	rec := s.do(http.MethodGet, "/inventory", nil, session)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "handler saffron")
	s.Contains(rec.Body.String(), "January 03, 2024")

	var id string
	s.Require().NoError(s.db.DB.QueryRow(`SELECT ingredient_id::text FROM ingredient WHERE description = 'handler saffron'`).Scan(&id))

	rec = s.do(http.MethodPost, "/remove_item_from_inventory", url.Values{"delete_invent_item": {id}}, session)
	s.Equal(http.StatusSeeOther, rec.Code)

	rec = s.do(http.MethodGet, "/inventory", nil, session)
	s.NotContains(rec.Body.String(), "<td>handler saffron</td>")
}

func (s *HandlerSuite) TestInventoryRejectsMalformedItem() {
	session := s.login("ada")
	rec := s.do(http.MethodPost, "/add_item_to_inventory", url.Values{
		"itemname": {"rice"},
		"quantity": {"many"},
		"exp_date": {"2024-01-05"},
	}, session)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "Invalid entry, please try again.")

	rec = s.do(http.MethodPost, "/remove_item_from_inventory", url.Values{"delete_invent_item": {"x"}}, session)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestHomeHonoursAllergies() {
	session := s.login("ada")
	s.addItem(session, "white bread", today.AddDate(0, 0, 2))
	s.addItem(session, "peanut butter", today.AddDate(0, 0, 30))

	rec := s.do(http.MethodGet, "/home", nil, session)
	s.Contains(rec.Body.String(), "Peanut Butter Toast")
	s.Contains(rec.Body.String(), "white bread: January 03, 2024")

	rec = s.do(http.MethodPost, "/change_user_allergy", url.Values{"allergen": {"peanut"}}, session)
	s.Equal(http.StatusSeeOther, rec.Code)

	rec = s.do(http.MethodGet, "/preferences", nil, session)
	s.Contains(rec.Body.String(), `value="peanut" checked`)

	rec = s.do(http.MethodGet, "/home", nil, session)
	s.NotContains(rec.Body.String(), "Peanut Butter Toast")

	rec = s.do(http.MethodGet, "/home?ignore_allergies=1", nil, session)
	s.Contains(rec.Body.String(), "Peanut Butter Toast")

	rec = s.do(http.MethodPost, "/change_user_allergy", url.Values{}, session)
	s.Equal(http.StatusSeeOther, rec.Code)
	rec = s.do(http.MethodGet, "/home", nil, session)
	s.Contains(rec.Body.String(), "Peanut Butter Toast")
}

func (s *HandlerSuite) TestReviews() {
	session := s.login("ada")

	rec := s.do(http.MethodPost, "/add_review", url.Values{"recipe": {"Pancakes"}, "rating": {"4"}, "review_text": {"fluffy"}}, session)
	s.Equal(http.StatusSeeOther, rec.Code)

	rec = s.do(http.MethodPost, "/add_review", url.Values{"recipe": {"Pancakes"}, "rating": {"2"}, "review_text": {"again"}}, session)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "You have already reviewed this recipe!")

	rec = s.do(http.MethodPost, "/add_review", url.Values{"recipe": {"Pancakes"}, "rating": {"9"}}, session)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/display_recipe?type=Pancakes", nil, session)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "Average rating: 4")
	s.Contains(rec.Body.String(), "fluffy")
	s.Contains(rec.Body.String(), "<li>Melt butter in a pan.</li>")

	var id string
	s.Require().NoError(s.db.DB.QueryRow(`SELECT review_id::text FROM review`).Scan(&id))
	rec = s.do(http.MethodPost, "/delete_review", url.Values{"delete_review": {id}}, session)
	s.Equal(http.StatusSeeOther, rec.Code)

	rec = s.do(http.MethodGet, "/display_recipe?type=Pancakes", nil, session)
	s.Contains(rec.Body.String(), "Average rating: N/A")
}

func (s *HandlerSuite) TestUnknownRecipeIsNotFound() {
	session := s.login("ada")
	rec := s.do(http.MethodGet, "/display_recipe?type=Nothing", nil, session)
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/no/such/page", nil, nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestRecipesListIsPublic() {
	rec := s.do(http.MethodGet, "/recipes", nil, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "Garlic Shrimp Pasta")
}
