// internal/router/router_test.go
package router

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/readsphere/readsphere-api/internal/config"
	"github.com/readsphere/readsphere-api/internal/events"
	"github.com/readsphere/readsphere-api/internal/models"
	"github.com/readsphere/readsphere-api/internal/testutil"
	"github.com/readsphere/readsphere-api/internal/utils"
)

type RouterTestSuite struct {
	suite.Suite
	db         *gorm.DB
	router     *gin.Engine
	events     *events.Recorder
	admin      *models.User
	adminToken string
}

func (s *RouterTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.db = testutil.NewDB(s.T())
	s.events = events.NewRecorder()

	cfg := &config.Config{
		Environment: "test",
		JWT:         config.JWTConfig{SecretKey: "router-test-secret", AccessTokenTTL: 1, Issuer: "readsphere"},
		CORS:        config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		RateLimit:   config.RateLimitConfig{Enabled: false},
		Storage: config.StorageConfig{
			LocalDir:        s.T().TempDir(),
			PublicBaseURL:   "http://localhost:5000/uploads",
			MaxUploadMB:     1,
			AllowedImageExt: []string{".jpg", ".jpeg", ".png", ".webp"},
		},
	}

	router, err := Initialize(s.db, cfg, s.events)
	s.Require().NoError(err)
	s.router = router

	s.admin = testutil.CreateUser(s.T(), s.db, "Admin", true)
	s.adminToken, err = utils.GenerateJWT(s.admin.ID, s.admin.Name, true, 1)
	s.Require().NoError(err)
}

type envelope struct {
	Success bool                    `json:"success"`
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Data    json.RawMessage         `json:"data"`
	Errors  []utils.ValidationError `json:"errors"`
}

func (s *RouterTestSuite) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.serve(req)
}

func (s *RouterTestSuite) serve(req *http.Request) (*httptest.ResponseRecorder, envelope) {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func (s *RouterTestSuite) register(name, email string) string {
	w, resp := s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     name,
		"email":    email,
		"password": "password123",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var auth struct {
		Token string `json:"token"`
	}
	s.Require().NoError(json.Unmarshal(resp.Data, &auth))
	s.Require().NotEmpty(auth.Token)
	return auth.Token
}

func (s *RouterTestSuite) createBook(title string) string {
	w, resp := s.do(http.MethodPost, "/api/books", s.adminToken, gin.H{
		"title":         title,
		"author":        "Frank Herbert",
		"description":   "Desert planet politics and giant worms.",
		"genres":        []string{"Sci-Fi", "Fiction"},
		"publishedDate": "1965-08-01",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		Book struct {
			ID string `json:"id"`
		} `json:"book"`
	}
	s.Require().NoError(json.Unmarshal(resp.Data, &data))
	return data.Book.ID
}

func (s *RouterTestSuite) TestHealth() {
	for _, path := range []string{"/health", "/api/health"} {
		w, _ := s.do(http.MethodGet, path, "", nil)
		s.Equal(http.StatusOK, w.Code, path)
		s.Contains(w.Body.String(), `"status":"healthy"`)
		s.Contains(w.Body.String(), `"events":"disabled"`)
		s.NotEmpty(w.Header().Get("X-Request-ID"))
	}
}

func (s *RouterTestSuite) TestMutationsRequireToken() {
	w, resp := s.do(http.MethodPost, "/api/reviews", "", gin.H{"rating": 5})
	s.Equal(http.StatusUnauthorized, w.Code)
	s.False(resp.Success)
	s.Equal(utils.CodeAuthentication, resp.Code)

	w, _ = s.do(http.MethodPost, "/api/books", "not-a-token", gin.H{"title": "x"})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *RouterTestSuite) TestCatalogManagementIsAdminOnly() {
	token := s.register("Reader", "reader@example.com")

	w, resp := s.do(http.MethodPost, "/api/books", token, gin.H{"title": "Dune"})
	s.Equal(http.StatusForbidden, w.Code)
	s.Equal(utils.CodeAuthorization, resp.Code)
}

func (s *RouterTestSuite) TestBookListEnvelope() {
	s.createBook("Dune")
	s.createBook("Children of Dune")

	w, resp := s.do(http.MethodGet, "/api/books?genre=Sci-Fi&limit=1", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("2", w.Header().Get("X-Total-Count"))

	var data struct {
		Books      []map[string]interface{} `json:"books"`
		Pagination map[string]interface{}   `json:"pagination"`
	}
	s.Require().NoError(json.Unmarshal(resp.Data, &data))
	s.Len(data.Books, 1)
	s.Equal(float64(2), data.Pagination["totalBooks"])
	s.Equal(float64(2), data.Pagination["totalPages"])
	s.Equal(true, data.Pagination["hasNextPage"])

	w, resp = s.do(http.MethodGet, "/api/books?genre=Cooking&page=0", "", nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal(utils.CodeValidation, resp.Code)
	s.Len(resp.Errors, 2)
}

func (s *RouterTestSuite) TestReviewLifecycle() {
	bookID := s.createBook("Dune")
	token := s.register("Reader", "reader@example.com")

	review := gin.H{"bookId": bookID, "rating": 4, "comment": "Dense but rewarding read."}
	w, resp := s.do(http.MethodPost, "/api/reviews", token, review)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Review struct {
			ID string `json:"id"`
		} `json:"review"`
	}
	s.Require().NoError(json.Unmarshal(resp.Data, &created))

	w, resp = s.do(http.MethodPost, "/api/reviews", token, review)
	s.Equal(http.StatusConflict, w.Code)
	s.Equal(utils.CodeConflict, resp.Code)

	other := s.register("Other", "other@example.com")
	w, _ = s.do(http.MethodPut, "/api/reviews/"+created.Review.ID, other, gin.H{"rating": 1})
	s.Equal(http.StatusForbidden, w.Code)

	w, resp = s.do(http.MethodPost, "/api/reviews/"+created.Review.ID+"/helpful", other, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.JSONEq(`{"helpfulVotes":1}`, string(resp.Data))

	w, _ = s.do(http.MethodDelete, "/api/reviews/"+created.Review.ID, token, nil)
	s.Equal(http.StatusOK, w.Code)

	w, _ = s.do(http.MethodGet, "/api/reviews/"+created.Review.ID, "", nil)
	s.Equal(http.StatusNotFound, w.Code)

	s.NotEmpty(s.events.OfType(events.EventReviewCreated))
	s.NotEmpty(s.events.OfType(events.EventReviewDeleted))
}

func (s *RouterTestSuite) TestInvalidIDIsBadRequest() {
	w, resp := s.do(http.MethodGet, "/api/books/42", "", nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.False(resp.Success)
}

type coverUpload struct {
	Book struct {
		CoverImage string `json:"coverImage"`
	} `json:"book"`
	Upload struct {
		Key string `json:"key"`
	} `json:"upload"`
}

func (s *RouterTestSuite) uploadCover(bookID string) coverUpload {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("cover", "dune.png")
	s.Require().NoError(err)
	_, err = part.Write([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'})
	s.Require().NoError(err)
	s.Require().NoError(form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/books/"+bookID+"/cover", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.adminToken)

	w, resp := s.serve(req)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var data coverUpload
	s.Require().NoError(json.Unmarshal(resp.Data, &data))
	return data
}

func (s *RouterTestSuite) fetchUpload(key string) int {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/"+key, nil))
	return w.Code
}

func (s *RouterTestSuite) TestUploadCover() {
	bookID := s.createBook("Dune")

	first := s.uploadCover(bookID)
	s.True(strings.HasPrefix(first.Upload.Key, "covers/"))
	s.Equal("http://localhost:5000/uploads/"+first.Upload.Key, first.Book.CoverImage)
	s.Equal(http.StatusOK, s.fetchUpload(first.Upload.Key))

	second := s.uploadCover(bookID)
	s.NotEqual(first.Upload.Key, second.Upload.Key)
	s.Equal(http.StatusOK, s.fetchUpload(second.Upload.Key))
	s.Equal(http.StatusNotFound, s.fetchUpload(first.Upload.Key))
}

func (s *RouterTestSuite) TestRecommendationsDisabled() {
	w, resp := s.do(http.MethodGet, "/api/recommendations/user/"+s.admin.ID.String(), "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"recommendations":[]}`, string(resp.Data))
}

func (s *RouterTestSuite) TestAuditLogForMutations() {
	s.createBook("Dune")

	var logs []models.AuditLog
	s.Require().NoError(s.db.Find(&logs).Error)
	s.Require().Len(logs, 1)
	s.Equal("POST /api/books", logs[0].Action)
	s.Equal("books", logs[0].ResourceType)
	s.Equal(http.StatusCreated, logs[0].StatusCode)
	s.Require().NotNil(logs[0].UserID)
	s.Equal(s.admin.ID, *logs[0].UserID)
}

func (s *RouterTestSuite) TestForwardedForIsIgnoredWithoutTrustedProxies() {
	req := httptest.NewRequest(http.MethodPost, "/api/books", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.adminToken)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")

	w, _ := s.serve(req)
	s.Equal(http.StatusBadRequest, w.Code)

	var logs []models.AuditLog
	s.Require().NoError(s.db.Find(&logs).Error)
	s.Require().Len(logs, 1)
	s.Equal("192.0.2.1", logs[0].IPAddress)
}

func (s *RouterTestSuite) TestAdminSuspendsReader() {
	token := s.register("Reader", "reader@example.com")

	w, _ := s.do(http.MethodGet, "/api/admin/stats", token, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w, resp := s.do(http.MethodGet, "/api/admin/users?search=reader@example.com", s.adminToken, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var list struct {
		Users []struct {
			ID string `json:"id"`
		} `json:"users"`
	}
	s.Require().NoError(json.Unmarshal(resp.Data, &list))
	s.Require().Len(list.Users, 1)

	w, _ = s.do(http.MethodPut, "/api/admin/users/"+list.Users[0].ID+"/status", s.adminToken, gin.H{"isActive": false})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w, _ = s.do(http.MethodGet, "/api/auth/me", token, nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	w, resp = s.do(http.MethodGet, "/api/admin/audit-logs?resourceType=admin", s.adminToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(string(resp.Data), `"totalAuditLogs":1`)
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
