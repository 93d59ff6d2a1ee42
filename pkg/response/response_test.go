package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-gamification-api/pkg/errors"
	"github.com/noah-isme/sma-gamification-api/pkg/middleware/requestid"
)

func serve(t *testing.T, handler gin.HandlerFunc) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(requestid.Middleware())
	r.GET("/", handler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestid.HeaderKey, "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var body map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestJSONCarriesRequestIDAndMeta(t *testing.T) {
	rec, body := serve(t, func(c *gin.Context) {
		JSON(c, http.StatusOK, gin.H{"xp": 10}, nil, map[string]interface{}{"cache_hit": true})
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "req-42", body["request_id"])
	assert.Equal(t, map[string]interface{}{"cache_hit": true}, body["meta"])
}

func TestJSONOmitsEmptyMeta(t *testing.T) {
	_, body := serve(t, func(c *gin.Context) {
		JSON(c, http.StatusOK, gin.H{"xp": 10}, nil, map[string]interface{}{})
	})

	_, hasMeta := body["meta"]
	assert.False(t, hasMeta)
}

func TestErrorMapsUntypedErrorsToInternal(t *testing.T) {
	rec, body := serve(t, func(c *gin.Context) {
		Error(c, errors.New("pq: connection reset"))
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	envelope := body["error"].(map[string]interface{})
	assert.Equal(t, appErrors.ErrInternal.Code, envelope["code"])
	assert.Equal(t, "req-42", body["request_id"])
}
