package service

import (
	"context"
	"strings"
	"time"

	"luigui/internal/core"
	"luigui/internal/logger"
)

// PasswordStore remembers database passwords collected from the user for the
// lifetime of their session.
type PasswordStore interface {
	Password(databaseID int64) (string, bool)
	SetPassword(databaseID int64, password string) error
	ForgetPassword(databaseID int64) error
}

// Submission is one question as entered on the question page or the CLI.
type Submission struct {
	Database   *core.Database
	Question   string
	TemplateID string
	// Password is set when the user just answered the password dialog.
	Password  string
	UserEmail string
}

// Outcome tells the page what to render after a submission.
type Outcome struct {
	Template core.PromptTemplate

	// NeedPassword asks for the password dialog; no request was made unless
	// PasswordError is also set.
	NeedPassword  bool
	PasswordError bool

	Answer      *core.QuestionAnswer
	ShowAnswer  bool
	SQLExpanded bool

	Error string
}

type QuestionService struct {
	gateway   core.QuestionGateway
	passwords PasswordStore
	activity  core.ActivityRepository
	now       func() time.Time
}

// NewQuestionService wires the flow. activity may be nil.
func NewQuestionService(gateway core.QuestionGateway, passwords PasswordStore, activity core.ActivityRepository) *QuestionService {
	return &QuestionService{
		gateway:   gateway,
		passwords: passwords,
		activity:  activity,
		now:       time.Now,
	}
}

func (s *QuestionService) Submit(ctx context.Context, sub Submission) *Outcome {
	tpl := core.TemplateByID(sub.TemplateID)
	out := &Outcome{Template: tpl}

	if sub.Database == nil {
		out.Error = "select a database first"
		return out
	}
	question := strings.TrimSpace(sub.Question)
	if question == "" {
		out.Error = "type a question first"
		return out
	}

	req := core.QuestionRequest{Question: question, PromptType: tpl.APIValue}
	if sub.Database.IsDirect() {
		pw := sub.Password
		if pw != "" {
			if err := s.passwords.SetPassword(sub.Database.ID, pw); err != nil {
				logger.Error.Printf("Failed to remember password for database %d: %v", sub.Database.ID, err)
			}
		} else {
			var ok bool
			if pw, ok = s.passwords.Password(sub.Database.ID); !ok || pw == "" {
				out.NeedPassword = true
				return out
			}
		}
		req.DBPassword = pw
	}

	start := s.now()
	qa, err := s.gateway.AskQuestion(ctx, sub.Database.ID, req)
	s.record(ctx, sub, tpl, start, err)

	if err != nil {
		out.Error = core.UserMessage(err)
		if sub.Database.IsDirect() && core.IsPasswordError(err) {
			if ferr := s.passwords.ForgetPassword(sub.Database.ID); ferr != nil {
				logger.Error.Printf("Failed to forget password for database %d: %v", sub.Database.ID, ferr)
			}
			out.NeedPassword = true
			out.PasswordError = true
		}
		return out
	}

	out.Answer = qa
	out.SQLExpanded = true
	out.ShowAnswer = AnswerVisible(sub.Database, tpl) && strings.TrimSpace(qa.Answer) != ""
	return out
}

// AnswerVisible reports whether the natural-language answer is shown. A
// schema-provided database asked to generate SQL only gets the SQL.
func AnswerVisible(db *core.Database, tpl core.PromptTemplate) bool {
	return db.IsDirect() || tpl.APIValue != core.PromptTextToSQL
}

func (s *QuestionService) record(ctx context.Context, sub Submission, tpl core.PromptTemplate, start time.Time, err error) {
	if s.activity == nil {
		return
	}
	entry := &core.ActivityLog{
		Timestamp:  start,
		UserEmail:  sub.UserEmail,
		DatabaseID: sub.Database.ID,
		PromptType: tpl.APIValue,
		DurationMs: s.now().Sub(start).Milliseconds(),
		Status:     core.StatusSuccess,
	}
	if err != nil {
		entry.Status = core.StatusError
		entry.ErrorMessage = core.UserMessage(err)
	}
	if werr := s.activity.Create(ctx, entry); werr != nil {
		logger.Error.Printf("Failed to write activity log: %v", werr)
	}
}
