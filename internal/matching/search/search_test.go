// internal/matching/search/search_test.go
package search

import (
	"context"
	"database/sql"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mentor-match-workers/internal/common/errors"
	"mentor-match-workers/internal/common/logger"
	"mentor-match-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/elastic/go-elasticsearch/v8"
	json "github.com/goccy/go-json"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var candidateCols = []string{
	"id", "university", "major", "degree_level", "rating", "total_sessions",
	"languages", "specialties", "verification_status", "graduation_year",
}

func ptr[T any](v T) *T { return &v }

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func fakeElasticsearch(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client
}

// ==========================
// Validation
// ==========================

func TestValidateFilters(t *testing.T) {
	tests := []struct {
		name    string
		filters models.SearchFilters
		wantErr string
	}{
		{name: "empty filters", filters: models.SearchFilters{}},
		{
			name: "full valid set",
			filters: models.SearchFilters{
				Universities:      []string{"MIT"},
				DegreeLevels:      []models.DegreeLevel{models.DegreeMaster},
				GraduationYearMin: ptr(2010),
				GraduationYearMax: ptr(2020),
				MinRating:         ptr(4.0),
			},
		},
		{
			name:    "unknown degree",
			filters: models.SearchFilters{DegreeLevels: []models.DegreeLevel{"associate"}},
			wantErr: "degreeLevels[0]",
		},
		{
			name:    "rating out of range",
			filters: models.SearchFilters{MinRating: ptr(7.5)},
			wantErr: "minRating: must be at most 5",
		},
		{
			name:    "inverted year window",
			filters: models.SearchFilters{GraduationYearMin: ptr(2022), GraduationYearMax: ptr(2015)},
			wantErr: "graduationYearMin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilters(tt.filters)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidSearchFilters))
			assert.Contains(t, errors.AsStandardError(err).Details, tt.wantErr)
		})
	}
}

func TestNormalizePage(t *testing.T) {
	assert.Equal(t, models.Page{Limit: 10}, NormalizePage(models.Page{}, 0))
	assert.Equal(t, models.Page{Limit: 25, Offset: 5}, NormalizePage(models.Page{Limit: 25, Offset: 5}, 10))
	assert.Equal(t, models.Page{Limit: 100}, NormalizePage(models.Page{Limit: 500, Offset: -3}, 10))
}

// ==========================
// Postgres
// ==========================

func TestBuildSearchQuery(t *testing.T) {
	query, args := BuildSearchQuery(models.SearchFilters{
		Universities: []string{" MIT "},
		MinRating:    ptr(4.5),
		Languages:    []string{"English", "Spanish"},
	}, models.Page{Limit: 20, Offset: 40})

	assert.Contains(t, query, "m.verification_status = $1")
	assert.Contains(t, query, "lower(btrim(m.university)) = ANY($2::text[])")
	assert.Contains(t, query, "m.rating >= $3")
	assert.Contains(t, query, "&& $4::text[]")
	assert.Contains(t, query, "ORDER BY m.rating DESC NULLS LAST, COALESCE(m.total_sessions, 0) DESC")
	assert.Contains(t, query, "LIMIT $5 OFFSET $6")
	assert.NotContains(t, query, "lower(btrim(m.major))")

	require.Len(t, args, 6)
	assert.Equal(t, "verified", args[0])
	assert.Equal(t, pq.Array([]string{"mit"}), args[1])
	assert.Equal(t, 4.5, args[2])
	assert.Equal(t, 20, args[4])
	assert.Equal(t, 40, args[5])
}

func TestBuildSearchQuery_NoFilters(t *testing.T) {
	query, args := BuildSearchQuery(models.SearchFilters{}, models.Page{Limit: 10})
	assert.Contains(t, query, "WHERE m.verification_status = $1\nORDER BY")
	assert.Equal(t, []interface{}{"verified", 10, 0}, args)
}

func TestPostgresSearcher_Search(t *testing.T) {
	db, mock := setupMockDB(t)
	searcher := NewPostgresSearcher(db, logger.NewTestLogger(t))

	mock.ExpectQuery(`SELECT m.id, .* FROM mentors m\s+WHERE m.verification_status = \$1\s+AND m.rating >= \$2`).
		WithArgs("verified", 4.0, 10, 0).
		WillReturnRows(sqlmock.NewRows(candidateCols).
			AddRow("m-1", "MIT", "Physics", "phd", 4.9, 60, "{English}", "{research}", "verified", 2015).
			AddRow("m-2", "Oxford", "History", "master", 4.2, 12, "{English,French}", "{}", "verified", nil).
			AddRow("m-3", "Oxford", "History", "master", 4.1, 3, "{}", "{}", "pending", nil))

	got, err := searcher.Search(context.Background(), models.SearchFilters{MinRating: ptr(4.0)}, models.Page{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "m-1", got[0].ID)
	assert.Equal(t, []string{"English", "French"}, got[1].Languages)
	assert.Nil(t, got[1].GraduationYear)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSearcher_QueryError(t *testing.T) {
	db, mock := setupMockDB(t)
	searcher := NewPostgresSearcher(db, logger.NewNoOpLogger())

	mock.ExpectQuery(`FROM mentors m`).WillReturnError(stderrors.New(`pq: password authentication failed for user "matcher"`))

	got, err := searcher.Search(context.Background(), models.SearchFilters{}, models.Page{Limit: 5})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Elasticsearch
// ==========================

func TestBuildFilterClauses(t *testing.T) {
	clauses := BuildFilterClauses(models.SearchFilters{
		Majors:            []string{"Computer Science"},
		GraduationYearMin: ptr(2018),
		MinSessions:       ptr(10),
	})
	require.Len(t, clauses, 3)
	assert.Equal(t, map[string]interface{}{"terms": map[string]interface{}{"major": []string{"computer science"}}}, clauses[0])
	assert.Equal(t, map[string]interface{}{"range": map[string]interface{}{"graduationYear": map[string]interface{}{"gte": 2018}}}, clauses[1])
	assert.Equal(t, map[string]interface{}{"range": map[string]interface{}{"totalSessions": map[string]interface{}{"gte": 10}}}, clauses[2])
}

func TestDocumentSearcher_Search(t *testing.T) {
	body, err := json.Marshal(map[string]interface{}{
		"hits": map[string]interface{}{"hits": []map[string]interface{}{
			{"_id": "m-1", "_source": models.CandidateProfile{ID: "m-1", University: "MIT", VerificationStatus: "verified"}},
			{"_id": "m-2", "_source": models.CandidateProfile{ID: "m-2", University: "MIT", VerificationStatus: "rejected"}},
		}},
	})
	require.NoError(t, err)

	var query map[string]interface{}
	client := fakeElasticsearch(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/mentors/_search"))
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &query))
		w.Write(body)
	})

	searcher := NewDocumentSearcher(client, "", logger.NewTestLogger(t))
	got, err := searcher.Search(context.Background(), models.SearchFilters{Universities: []string{"MIT"}}, models.Page{Limit: 5, Offset: 10})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m-1", got[0].ID)

	assert.EqualValues(t, 5, query["size"])
	assert.EqualValues(t, 10, query["from"])
	filters := query["query"].(map[string]interface{})["bool"].(map[string]interface{})["filter"].([]interface{})
	assert.Len(t, filters, 2)
}

func TestDocumentSearcher_BackendError(t *testing.T) {
	client := fakeElasticsearch(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"unavailable"}`))
	})

	searcher := NewDocumentSearcher(client, "mentors", logger.NewNoOpLogger())
	got, err := searcher.Search(context.Background(), models.SearchFilters{}, models.Page{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

// ==========================
// In-memory
// ==========================

func TestStaticSearcher(t *testing.T) {
	searcher := NewStaticSearcher([]models.CandidateProfile{
		{ID: "a", University: "MIT", Rating: ptr(4.0), Languages: []string{"English"}, GraduationYear: ptr(2012), VerificationStatus: "verified"},
		{ID: "b", University: "MIT", Rating: ptr(4.8), Languages: []string{"Spanish"}, GraduationYear: ptr(2019), VerificationStatus: "verified"},
		{ID: "c", University: "MIT", Languages: []string{"english"}, VerificationStatus: "verified"},
		{ID: "d", University: "MIT", Rating: ptr(5.0), VerificationStatus: "pending"},
	})

	got, err := searcher.Search(context.Background(), models.SearchFilters{Universities: []string{"mit"}}, models.Page{})
	require.NoError(t, err)
	ids := []string{}
	for _, c := range got {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"b", "a", "c"}, ids)

	got, err = searcher.Search(context.Background(), models.SearchFilters{Languages: []string{"ENGLISH"}}, models.Page{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)

	got, err = searcher.Search(context.Background(), models.SearchFilters{GraduationYearMin: ptr(2015)}, models.Page{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}
