package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabase_UnmarshalRemoteShape(t *testing.T) {
	var dbs []Database
	body := `[
		{"id": 1, "name": "Vendas", "type": "complete", "host": "db.local", "port": 5432, "username": "postgres"},
		{"id": 2, "name": "Inventario", "type": "minimal", "host": null, "port": null, "username": null},
		{"id": 3, "name": "Legacy", "type": "complete", "port": "6543"}
	]`
	require.NoError(t, json.Unmarshal([]byte(body), &dbs))
	require.Len(t, dbs, 3)

	assert.Equal(t, KindDirect, dbs[0].Kind)
	assert.Equal(t, "5432", dbs[0].Port)
	assert.Equal(t, "db.local", dbs[0].Host)
	assert.True(t, dbs[0].IsDirect())

	assert.Equal(t, KindSchema, dbs[1].Kind)
	assert.Empty(t, dbs[1].Port)
	assert.Empty(t, dbs[1].Host)

	assert.Equal(t, "6543", dbs[2].Port)
}

func TestConnectionKind_WireRoundTrip(t *testing.T) {
	assert.Equal(t, "complete", KindDirect.WireType())
	assert.Equal(t, "minimal", KindSchema.WireType())
	assert.Equal(t, KindDirect, KindFromWire("complete"))
	assert.Equal(t, KindSchema, KindFromWire("minimal"))
	assert.False(t, ConnectionKind("other").Valid())
}

func TestQuestionAnswer_AcceptsBothShapes(t *testing.T) {
	var fresh QuestionAnswer
	require.NoError(t, json.Unmarshal([]byte(`{"sql_query": "SELECT 1", "natural_language_response": "one"}`), &fresh))
	assert.Equal(t, "SELECT 1", fresh.SQL)
	assert.Equal(t, "one", fresh.Answer)

	var stored QuestionAnswer
	require.NoError(t, json.Unmarshal([]byte(`{"database": 4, "question": "q", "query": "SELECT 2", "answer": "two", "prompt_type": "text_to_sql"}`), &stored))
	assert.Equal(t, int64(4), stored.DatabaseID)
	assert.Equal(t, "SELECT 2", stored.SQL)
	assert.Equal(t, "two", stored.Answer)
	assert.Equal(t, PromptTextToSQL, stored.PromptType)
}

func TestIsPasswordError(t *testing.T) {
	assert.True(t, IsPasswordError(&APIError{Status: 400, Message: "db_password password not provided"}))
	assert.True(t, IsPasswordError(fmt.Errorf("ask: %w", &APIError{Status: 400, Message: "Invalid Password"})))
	assert.False(t, IsPasswordError(&APIError{Status: 400, Message: "Database not found"}))
	assert.False(t, IsPasswordError(errors.New("password")))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, ErrForbidden.Error(), UserMessage(fmt.Errorf("list: %w", ErrForbidden)))
	assert.Equal(t, GenericFailure, UserMessage(&APIError{Status: 500}))
	assert.Equal(t, "boom", UserMessage(&APIError{Status: 500, Message: "boom"}))
	assert.Empty(t, UserMessage(nil))
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "MO", Initials("maria oliveira santos"))
	assert.Equal(t, "J", Initials("joão"))
	assert.Equal(t, "", Initials("   "))
}

func TestTemplateByID(t *testing.T) {
	assert.Equal(t, "optimize_sql", TemplateByID("optimize").APIValue)
	assert.Equal(t, PromptTextToSQL, TemplateByID("unknown").APIValue)
	_, ok := LookupTemplate("fix")
	assert.True(t, ok)

	correct, ok := LookupTemplate("correct")
	assert.True(t, ok)
	assert.Equal(t, "fix", correct.ID)
	assert.Equal(t, "fix_sql", TemplateByID("correct").APIValue)
}
