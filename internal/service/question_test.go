package service

import (
	"context"
	"errors"
	"testing"

	"luigui/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	vendas     = &core.Database{ID: 1, Name: "Vendas", Kind: core.KindDirect}
	inventario = &core.Database{ID: 2, Name: "Inventario", Kind: core.KindSchema}
)

func answered() *fakeQuestions {
	return &fakeQuestions{reply: &core.QuestionAnswer{
		SQL:    "SELECT region, product FROM sales",
		Answer: "Notebooks lead in every region.",
	}}
}

func TestQuestion_DirectWithoutPasswordOpensDialog(t *testing.T) {
	gw := answered()
	svc := NewQuestionService(gw, memPasswords{}, nil)

	out := svc.Submit(context.Background(), Submission{Database: vendas, Question: "Qual é o produto mais vendido por região?", TemplateID: "generate"})
	assert.True(t, out.NeedPassword)
	assert.False(t, out.PasswordError)
	assert.Empty(t, gw.requests)
}

func TestQuestion_ExampleScenario(t *testing.T) {
	gw := answered()
	pw := memPasswords{}
	activity := &memActivity{}
	svc := NewQuestionService(gw, pw, activity)

	out := svc.Submit(context.Background(), Submission{
		Database:   vendas,
		Question:   "Qual é o produto mais vendido por região?",
		TemplateID: "generate",
		Password:   "secret123",
		UserEmail:  "ana@example.com",
	})

	require.Len(t, gw.requests, 1)
	assert.Equal(t, core.QuestionRequest{
		Question:   "Qual é o produto mais vendido por região?",
		PromptType: "text_to_sql",
		DBPassword: "secret123",
	}, gw.requests[0])

	assert.Empty(t, out.Error)
	assert.False(t, out.NeedPassword)
	require.NotNil(t, out.Answer)
	assert.Equal(t, "SELECT region, product FROM sales", out.Answer.SQL)
	assert.True(t, out.ShowAnswer)
	assert.True(t, out.SQLExpanded)
	assert.Equal(t, "secret123", pw[1])

	require.Len(t, activity.entries, 1)
	assert.Equal(t, core.StatusSuccess, activity.entries[0].Status)
	assert.Equal(t, "ana@example.com", activity.entries[0].UserEmail)
	assert.Equal(t, "text_to_sql", activity.entries[0].PromptType)
}

func TestQuestion_StoredPasswordIsReused(t *testing.T) {
	gw := answered()
	svc := NewQuestionService(gw, memPasswords{1: "secret123"}, nil)

	out := svc.Submit(context.Background(), Submission{Database: vendas, Question: "q", TemplateID: "explain"})
	require.Len(t, gw.requests, 1)
	assert.Equal(t, "secret123", gw.requests[0].DBPassword)
	assert.Equal(t, "explain_sql", gw.requests[0].PromptType)
	assert.True(t, out.ShowAnswer)
}

func TestQuestion_PasswordErrorReopensDialog(t *testing.T) {
	gw := answered()
	gw.err = &core.APIError{Status: 400, Message: "Invalid database password"}
	pw := memPasswords{1: "wrong"}
	activity := &memActivity{}
	svc := NewQuestionService(gw, pw, activity)

	out := svc.Submit(context.Background(), Submission{Database: vendas, Question: "q"})
	assert.True(t, out.NeedPassword)
	assert.True(t, out.PasswordError)
	assert.Equal(t, "Invalid database password", out.Error)
	assert.NotContains(t, pw, int64(1))
	require.Len(t, activity.entries, 1)
	assert.Equal(t, core.StatusError, activity.entries[0].Status)
}

func TestQuestion_OtherErrorsSurface(t *testing.T) {
	gw := answered()
	gw.err = core.ErrForbidden
	pw := memPasswords{1: "secret123"}
	svc := NewQuestionService(gw, pw, nil)

	out := svc.Submit(context.Background(), Submission{Database: vendas, Question: "q"})
	assert.False(t, out.NeedPassword)
	assert.Contains(t, out.Error, "check your permissions")
	assert.Equal(t, "secret123", pw[1])
}

func TestQuestion_SchemaDatabaseHidesAnswerForGenerate(t *testing.T) {
	gw := answered()
	svc := NewQuestionService(gw, memPasswords{}, nil)

	out := svc.Submit(context.Background(), Submission{Database: inventario, Question: "q", TemplateID: "generate"})
	require.Len(t, gw.requests, 1)
	assert.Empty(t, gw.requests[0].DBPassword)
	assert.False(t, out.NeedPassword)
	assert.False(t, out.ShowAnswer)
	assert.True(t, out.SQLExpanded)

	out = svc.Submit(context.Background(), Submission{Database: inventario, Question: "q", TemplateID: "fix"})
	assert.True(t, out.ShowAnswer)
}

func TestQuestion_Validation(t *testing.T) {
	gw := answered()
	svc := NewQuestionService(gw, memPasswords{}, nil)

	out := svc.Submit(context.Background(), Submission{Question: "q"})
	assert.NotEmpty(t, out.Error)

	out = svc.Submit(context.Background(), Submission{Database: inventario, Question: "   "})
	assert.NotEmpty(t, out.Error)
	assert.Empty(t, gw.requests)
}

func TestQuestion_ActivityFailureIsNotSurfaced(t *testing.T) {
	svc := NewQuestionService(answered(), memPasswords{}, &memActivity{err: errors.New("disk full")})

	out := svc.Submit(context.Background(), Submission{Database: inventario, Question: "q", TemplateID: "optimize"})
	assert.Empty(t, out.Error)
	assert.NotNil(t, out.Answer)
}
