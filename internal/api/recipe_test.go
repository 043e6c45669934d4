package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createRecipe(t *testing.T, testDB *TestDB, router http.Handler, token string) uuid.UUID {
	t.Helper()

	body := map[string]interface{}{
		"title":        "Tomato Soup",
		"description":  "A simple tomato soup",
		"instructions": "Simmer the tomatoes, then blend.",
		"category":     "Soup",
		"ingredients":  []string{"tomatoes", "onion", "stock"},
		"tags":         []string{"comfort"},
	}

	jsonBody, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/api/v1/recipes", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		Recipe struct {
			ID uuid.UUID `json:"id"`
		} `json:"recipe"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotEqual(t, uuid.Nil, response.Recipe.ID)
	return response.Recipe.ID
}

func TestCreateRecipe(t *testing.T) {
	router, testDB := SetupTestRouter(t)
	_, token := CreateTestUserAndToken(t, testDB)

	recipeID := createRecipe(t, testDB, router, token)
	assert.NotEqual(t, uuid.Nil, recipeID)
}

func TestCreateRecipeRequiresFields(t *testing.T) {
	router, testDB := SetupTestRouter(t)
	_, token := CreateTestUserAndToken(t, testDB)

	w := PerformRequest(router, "POST", "/api/v1/recipes", token, map[string]interface{}{
		"title": "Missing everything else",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateRecipeRequiresAuth(t *testing.T) {
	router, _ := SetupTestRouter(t)

	w := PerformRequest(router, "POST", "/api/v1/recipes", "", map[string]interface{}{
		"title": "No token",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetRecipe(t *testing.T) {
	router, testDB := SetupTestRouter(t)
	_, token := CreateTestUserAndToken(t, testDB)
	recipeID := createRecipe(t, testDB, router, token)

	w := PerformRequest(router, "GET", "/api/v1/recipes/"+recipeID.String(), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response, "recipe")
	assert.EqualValues(t, 0, response["num_likes"])
	assert.EqualValues(t, 0, response["num_comments"])
}

func TestGetRecipeNotFound(t *testing.T) {
	router, _ := SetupTestRouter(t)

	w := PerformRequest(router, "GET", "/api/v1/recipes/"+uuid.New().String(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = PerformRequest(router, "GET", "/api/v1/recipes/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateRecipe(t *testing.T) {
	router, testDB := SetupTestRouter(t)
	_, ownerToken := CreateTestUserAndToken(t, testDB)
	_, raterToken := CreateTestUserAndToken(t, testDB)
	recipeID := createRecipe(t, testDB, router, ownerToken)

	w := PerformRequest(router, "POST", fmt.Sprintf("/api/v1/recipes/%s/rate", recipeID), raterToken,
		map[string]interface{}{"stars": 4})
	assert.Equal(t, http.StatusOK, w.Code)

	var metrics struct {
		AverageRating float64 `json:"average_rating"`
		NumReviews    int     `json:"num_reviews"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &metrics))
	assert.Equal(t, 4.0, metrics.AverageRating)
	assert.Equal(t, 1, metrics.NumReviews)

	// re-rating replaces in place
	w = PerformRequest(router, "POST", fmt.Sprintf("/api/v1/recipes/%s/rate", recipeID), raterToken,
		map[string]interface{}{"stars": 2})
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &metrics))
	assert.Equal(t, 2.0, metrics.AverageRating)
	assert.Equal(t, 1, metrics.NumReviews)

	w = PerformRequest(router, "POST", fmt.Sprintf("/api/v1/recipes/%s/rate", recipeID), raterToken,
		map[string]interface{}{"stars": 6})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCommentRecipe(t *testing.T) {
	router, testDB := SetupTestRouter(t)
	_, token := CreateTestUserAndToken(t, testDB)
	recipeID := createRecipe(t, testDB, router, token)

	w := PerformRequest(router, "POST", fmt.Sprintf("/api/v1/recipes/%s/comments", recipeID), token,
		map[string]interface{}{"text": "Great!"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = PerformRequest(router, "POST", fmt.Sprintf("/api/v1/recipes/%s/comments", recipeID), token,
		map[string]interface{}{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// the comment did not touch the rating summary
	w = PerformRequest(router, "GET", "/api/v1/recipes/"+recipeID.String(), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var response struct {
		Recipe struct {
			AverageRating float64 `json:"average_rating"`
			NumReviews    int     `json:"num_reviews"`
		} `json:"recipe"`
		NumComments int `json:"num_comments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 0.0, response.Recipe.AverageRating)
	assert.Equal(t, 0, response.Recipe.NumReviews)
	assert.Equal(t, 1, response.NumComments)
}

func TestToggleLikeEndpoint(t *testing.T) {
	router, testDB := SetupTestRouter(t)
	_, token := CreateTestUserAndToken(t, testDB)
	recipeID := createRecipe(t, testDB, router, token)

	w := PerformRequest(router, "POST", fmt.Sprintf("/api/v1/recipes/%s/like", recipeID), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var status struct {
		LikeCount int64 `json:"like_count"`
		Liked     bool  `json:"liked"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.Liked)
	assert.Equal(t, int64(1), status.LikeCount)

	w = PerformRequest(router, "POST", fmt.Sprintf("/api/v1/recipes/%s/like", recipeID), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.False(t, status.Liked)
	assert.Equal(t, int64(0), status.LikeCount)
}

func TestFavoriteFlow(t *testing.T) {
	router, testDB := SetupTestRouter(t)
	_, token := CreateTestUserAndToken(t, testDB)
	recipeID := createRecipe(t, testDB, router, token)

	w := PerformRequest(router, "POST", fmt.Sprintf("/api/v1/recipes/%s/favorite", recipeID), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var status struct {
		Favorited bool `json:"favorited"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.Favorited)

	w = PerformRequest(router, "GET", "/api/v1/recipes/favorites", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var listResponse struct {
		Recipes []struct {
			ID uuid.UUID `json:"id"`
		} `json:"recipes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResponse))
	require.Len(t, listResponse.Recipes, 1)
	assert.Equal(t, recipeID, listResponse.Recipes[0].ID)

	w = PerformRequest(router, "POST", fmt.Sprintf("/api/v1/recipes/%s/favorite", recipeID), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.False(t, status.Favorited)
}

func TestUpdateRecipeForbiddenForNonOwner(t *testing.T) {
	router, testDB := SetupTestRouter(t)
	_, ownerToken := CreateTestUserAndToken(t, testDB)
	_, otherToken := CreateTestUserAndToken(t, testDB)
	recipeID := createRecipe(t, testDB, router, ownerToken)

	w := PerformRequest(router, "PUT", "/api/v1/recipes/"+recipeID.String(), otherToken,
		map[string]interface{}{"title": "Stolen"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = PerformRequest(router, "PUT", "/api/v1/recipes/"+recipeID.String(), ownerToken,
		map[string]interface{}{"title": "Roasted Tomato Soup"})
	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Recipe struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"recipe"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Roasted Tomato Soup", response.Recipe.Title)
	assert.Equal(t, "A simple tomato soup", response.Recipe.Description)
}

func TestDeleteRecipeEndpoint(t *testing.T) {
	router, testDB := SetupTestRouter(t)
	_, ownerToken := CreateTestUserAndToken(t, testDB)
	_, otherToken := CreateTestUserAndToken(t, testDB)
	recipeID := createRecipe(t, testDB, router, ownerToken)

	w := PerformRequest(router, "DELETE", "/api/v1/recipes/"+recipeID.String(), otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = PerformRequest(router, "DELETE", "/api/v1/recipes/"+recipeID.String(), ownerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = PerformRequest(router, "GET", "/api/v1/recipes/"+recipeID.String(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListAndMyRecipes(t *testing.T) {
	router, testDB := SetupTestRouter(t)
	_, token := CreateTestUserAndToken(t, testDB)
	createRecipe(t, testDB, router, token)

	w := PerformRequest(router, "GET", "/api/v1/recipes?keyword=tomato", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var listResponse struct {
		Recipes []json.RawMessage `json:"recipes"`
		Page    int               `json:"page"`
		Pages   int64             `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResponse))
	assert.Len(t, listResponse.Recipes, 1)
	assert.Equal(t, 1, listResponse.Page)
	assert.EqualValues(t, 1, listResponse.Pages)

	w = PerformRequest(router, "GET", "/api/v1/recipes/my-recipes", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResponse))
	assert.Len(t, listResponse.Recipes, 1)
}

func TestUploadImage(t *testing.T) {
	router, testDB := SetupTestRouter(t)
	_, token := CreateTestUserAndToken(t, testDB)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="image"; filename="photo.png"`}
	header["Content-Type"] = []string{"image/png"}
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("not really a png"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/v1/recipes/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response struct {
		ImageURL string `json:"image_url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response.ImageURL, "recipe-images")
}

func TestUploadImageWhenStorageDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	testDB := SetupTestDB(t)
	_, token := CreateTestUserAndToken(t, testDB)

	// mirrors the server wiring when object storage fails to configure
	router := gin.New()
	router.Use(gin.Recovery())
	v1 := router.Group("/api/v1")
	NewRecipeHandler(testDB.RecipeService, nil, testDB.AuthService).RegisterRoutes(v1)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="image"; filename="photo.png"`}
	header["Content-Type"] = []string{"image/png"}
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("not really a png"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/v1/recipes/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var response struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Image uploads are not available", response.Error)
}

func TestUploadImageRejectsNonImage(t *testing.T) {
	router, testDB := SetupTestRouter(t)
	_, token := CreateTestUserAndToken(t, testDB)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="image"; filename="notes.txt"`}
	header["Content-Type"] = []string{"text/plain"}
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("plain text"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/v1/recipes/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
