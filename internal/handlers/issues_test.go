package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"issue-tracker/internal/models"
)

func TestCreateIssue(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/issues", `{"title":"Bug","description":"Something broke"}`, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var issue models.Issue
	decode(t, w, &issue)
	assert.Positive(t, issue.ID)
	assert.Equal(t, "Bug", issue.Title)
	assert.Equal(t, "Something broke", issue.Description)
	assert.Equal(t, models.StatusOpen, issue.Status)
	assert.False(t, issue.CreatedAt.IsZero())
	assert.Nil(t, issue.AssignedToUserID)
}

func TestCreateIssue_IgnoresStatus(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/issues", `{"title":"Bug","description":"d","status":"CLOSED"}`, "")
	require.Equal(t, http.StatusCreated, w.Code)

	var issue models.Issue
	decode(t, w, &issue)
	assert.Equal(t, models.StatusOpen, issue.Status)
}

func TestCreateIssue_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"empty title", `{"title":"","description":"d"}`, "title"},
		{"missing description", `{"title":"Bug"}`, "description"},
		{"title too long", fmt.Sprintf(`{"title":"%0226d","description":"d"}`, 0), "title"},
		{"wrong type", `{"title":42,"description":"d"}`, "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			w := env.do(http.MethodPost, "/api/issues", tt.body, "")
			require.Equal(t, http.StatusBadRequest, w.Code)

			var issues []map[string]interface{}
			decode(t, w, &issues)
			require.NotEmpty(t, issues)
			assert.Equal(t, []interface{}{tt.field}, issues[0]["path"])

			var count int64
			require.NoError(t, env.db.Model(&models.Issue{}).Count(&count).Error)
			assert.Zero(t, count)
		})
	}
}

func TestCreateIssue_MalformedJSON(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/issues", `{"title":`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Malformed JSON body")
}

func TestGetIssue(t *testing.T) {
	env := newTestEnv(t)
	issue := env.createIssue(t, "Bug")

	w := env.do(http.MethodGet, fmt.Sprintf("/api/issues/%d", issue.ID), "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/api/issues/999999", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Issue not found"}`, w.Body.String())

	w = env.do(http.MethodGet, "/api/issues/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid issue ID"}`, w.Body.String())
}

func TestListIssues(t *testing.T) {
	env := newTestEnv(t)
	env.createIssue(t, "b")
	env.createIssue(t, "a")

	w := env.do(http.MethodGet, "/api/issues?orderBy=title", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Issues []models.Issue `json:"issues"`
		Total  int64          `json:"total"`
	}
	decode(t, w, &body)
	assert.EqualValues(t, 2, body.Total)
	require.Len(t, body.Issues, 2)
	assert.Equal(t, "a", body.Issues[0].Title)

	w = env.do(http.MethodGet, "/api/issues?status=CLOSED", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"issues":[],"total":0}`, w.Body.String())

	w = env.do(http.MethodGet, "/api/issues?status=DONE", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/issues?page=0", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListIssues_PageOutOfRange(t *testing.T) {
	env := newTestEnv(t)
	env.createIssue(t, "a")

	w := env.do(http.MethodGet, "/api/issues?page=922337203685477580&pageSize=100", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/issues?page=2", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"issues":[],"total":1}`, w.Body.String())
}

func TestUpdateIssue(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t)
	issue := env.createIssue(t, "Bug")

	w := env.do(http.MethodPatch, fmt.Sprintf("/api/issues/%d", issue.ID), `{"title":"Renamed"}`, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated models.Issue
	decode(t, w, &updated)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "Something broke", updated.Description)
	assert.Equal(t, models.StatusOpen, updated.Status)
}

func TestUpdateIssue_AssignAndClear(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t)
	issue := env.createIssue(t, "Bug")

	assignee := &models.User{Name: "Grace", Email: "grace@example.com", Password: "x"}
	require.NoError(t, env.users.Create(context.Background(), assignee))

	path := fmt.Sprintf("/api/issues/%d", issue.ID)
	w := env.do(http.MethodPatch, path, fmt.Sprintf(`{"assignedToUserId":%q}`, assignee.ID), token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), assignee.ID)

	w = env.do(http.MethodPatch, path, `{"assignedToUserId":null}`, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"assignedToUserId":null`)
}

func TestUpdateIssue_NotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPatch, "/api/issues/999999", `{"title":"x"}`, env.token(t))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Issue not found"}`, w.Body.String())
}

func TestUpdateIssue_InvalidIDSkipsDatabase(t *testing.T) {
	mock := &MockIssueService{}
	router := newMockRouter(mock)

	w := doOn(router, http.MethodPatch, "/api/issues/abc", `{"title":"x"}`, "valid")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid issue ID"}`, w.Body.String())
	assert.False(t, mock.called)
}

func TestUpdateIssue_InvalidUserLeavesIssue(t *testing.T) {
	env := newTestEnv(t)
	issue := env.createIssue(t, "Bug")
	path := fmt.Sprintf("/api/issues/%d", issue.ID)

	w := env.do(http.MethodPatch, path, `{"title":"Changed","assignedToUserId":"ghost"}`, env.token(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid user."}`, w.Body.String())

	stored, err := env.issues.GetIssue(context.Background(), issue.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bug", stored.Title)
	assert.Nil(t, stored.AssignedToUserID)
}

func TestUpdateIssue_ValidationFormatted(t *testing.T) {
	env := newTestEnv(t)
	issue := env.createIssue(t, "Bug")

	w := env.do(http.MethodPatch, fmt.Sprintf("/api/issues/%d", issue.ID), `{"title":""}`, env.token(t))
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]json.RawMessage
	decode(t, w, &body)
	assert.JSONEq(t, `[]`, string(body["_errors"]))

	var title struct {
		Errors []string `json:"_errors"`
	}
	require.NoError(t, json.Unmarshal(body["title"], &title))
	assert.NotEmpty(t, title.Errors)
}

func TestUpdateIssue_RejectsNulls(t *testing.T) {
	env := newTestEnv(t)
	issue := env.createIssue(t, "Bug")
	path := fmt.Sprintf("/api/issues/%d", issue.ID)

	for _, body := range []string{`null`, `{"title":null}`, `{"description":null}`} {
		w := env.do(http.MethodPatch, path, body, env.token(t))
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %s", body)
	}

	w := env.do(http.MethodGet, path, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got models.Issue
	decode(t, w, &got)
	assert.Equal(t, "Bug", got.Title)
}

func TestMutationsRequireSession(t *testing.T) {
	env := newTestEnv(t)
	issue := env.createIssue(t, "Bug")
	path := fmt.Sprintf("/api/issues/%d", issue.ID)

	for _, token := range []string{"", "not-a-token"} {
		w := env.do(http.MethodPatch, path, `{"title":"Changed"}`, token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())

		w = env.do(http.MethodDelete, path, "", token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	stored, err := env.issues.GetIssue(context.Background(), issue.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bug", stored.Title)
}

func TestDeleteIssue(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t)
	issue := env.createIssue(t, "Bug")
	path := fmt.Sprintf("/api/issues/%d", issue.ID)

	w := env.do(http.MethodDelete, path, "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())

	w = env.do(http.MethodGet, path, "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodDelete, path, "", token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodDelete, "/api/issues/abc", "", token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIssueHandler_InternalErrors(t *testing.T) {
	mock := &MockIssueService{err: errDatabaseDown}
	router := newMockRouter(mock)

	requests := []struct {
		method, path, body string
	}{
		{http.MethodPost, "/api/issues", `{"title":"Bug","description":"d"}`},
		{http.MethodGet, "/api/issues", ""},
		{http.MethodGet, "/api/issues/1", ""},
		{http.MethodPatch, "/api/issues/1", `{"title":"x"}`},
		{http.MethodDelete, "/api/issues/1", ""},
	}

	for _, r := range requests {
		w := doOn(router, r.method, r.path, r.body, "valid")
		assert.Equal(t, http.StatusInternalServerError, w.Code, r.method+" "+r.path)
		assert.JSONEq(t, `{"error":"Internal Server Error"}`, w.Body.String())
		assert.NotContains(t, w.Body.String(), errDatabaseDown.Error())
	}
}
