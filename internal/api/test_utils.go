package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/forkful/backend/internal/database"
	"github.com/forkful/backend/internal/model"
	"github.com/forkful/backend/internal/service"
	"github.com/forkful/backend/internal/types"
)

// TestDB holds the test database and services backing a handler test.
type TestDB struct {
	DB            *gorm.DB
	AuthService   *service.AuthService
	RecipeService *service.RecipeService
}

// SetupTestDB opens a per-test in-memory database with the schema migrated.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return &TestDB{
		DB:            db,
		AuthService:   service.NewAuthService(db, "test-secret"),
		RecipeService: service.NewRecipeService(db),
	}
}

// CreateTestUserAndToken creates a test user and returns their ID and a
// valid token.
func CreateTestUserAndToken(t *testing.T, testDB *TestDB) (uuid.UUID, string) {
	t.Helper()

	userID := uuid.New()
	user := model.User{
		ID:    userID,
		Name:  "Test User",
		Email: fmt.Sprintf("testuser+%s@example.com", userID.String()),
	}
	if err := testDB.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	token, err := testDB.AuthService.GenerateToken(&types.TokenClaims{
		UserID: user.ID,
		Name:   user.Name,
	})
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	return userID, token
}

// SetupTestRouter wires the real handlers over the test database, with the
// image service mocked out.
func SetupTestRouter(t *testing.T) (*gin.Engine, *TestDB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	testDB := SetupTestDB(t)

	authHandler := NewAuthHandler(testDB.AuthService, testDB.RecipeService)
	recipeHandler := NewRecipeHandler(testDB.RecipeService, &MockImageService{}, testDB.AuthService)

	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")
	authHandler.RegisterRoutes(v1)
	recipeHandler.RegisterRoutes(v1)

	return router, testDB
}

// PerformRequest makes a JSON request against the router, attaching the
// token when one is given.
func PerformRequest(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		req = httptest.NewRequest(method, path, bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	router.ServeHTTP(w, req)
	return w
}

// MockImageService is a stand-in image store for handler tests.
type MockImageService struct {
	LastContentType string
}

func (m *MockImageService) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	m.LastContentType = contentType
	return "https://images.example.com/recipe-images/test.png", nil
}

// MockAIService returns canned completions for AI handler tests.
type MockAIService struct {
	Recipe string
	Tags   []string
	List   string
}

func (m *MockAIService) GenerateRecipe(ctx context.Context, ingredients []string) (string, error) {
	return m.Recipe, nil
}

func (m *MockAIService) AutoTag(ctx context.Context, description string) ([]string, error) {
	return m.Tags, nil
}

func (m *MockAIService) GroceryList(ctx context.Context, ingredients []string) (string, error) {
	return m.List, nil
}
