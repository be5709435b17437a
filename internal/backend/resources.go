package backend

import (
	"context"
	"fmt"
	"net/http"

	"luigui/internal/core"
)

func databasePath(id int64) string {
	return fmt.Sprintf("/api/databases/%d", id)
}

func (c *Conn) ListDatabases(ctx context.Context) ([]core.Database, error) {
	var out []core.Database
	if err := c.do(ctx, http.MethodGet, "/api/databases/", nil, &out); err != nil {
		return nil, fmt.Errorf("list databases: %w", err)
	}
	return out, nil
}

func (c *Conn) GetDatabase(ctx context.Context, id int64) (*core.Database, error) {
	var out core.Database
	if err := c.do(ctx, http.MethodGet, databasePath(id), nil, &out); err != nil {
		return nil, fmt.Errorf("get database %d: %w", id, err)
	}
	return &out, nil
}

func (c *Conn) CreateDatabase(ctx context.Context, p core.DatabasePayload) (*core.Database, error) {
	var out core.Database
	if err := c.do(ctx, http.MethodPost, "/api/databases/", p, &out); err != nil {
		return nil, fmt.Errorf("create database: %w", err)
	}
	return &out, nil
}

func (c *Conn) UpdateDatabase(ctx context.Context, id int64, p core.DatabasePayload) (*core.Database, error) {
	var out core.Database
	if err := c.do(ctx, http.MethodPut, databasePath(id), p, &out); err != nil {
		return nil, fmt.Errorf("update database %d: %w", id, err)
	}
	return &out, nil
}

func (c *Conn) ListTables(ctx context.Context, databaseID int64) ([]core.Table, error) {
	var out []core.Table
	if err := c.do(ctx, http.MethodGet, databasePath(databaseID)+"/tables/", nil, &out); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return out, nil
}

func (c *Conn) CreateTable(ctx context.Context, databaseID int64, p core.TablePayload) error {
	if err := c.do(ctx, http.MethodPost, databasePath(databaseID)+"/tables/", p, nil); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

func (c *Conn) DeleteTable(ctx context.Context, databaseID, tableID int64) error {
	path := fmt.Sprintf("%s/tables/%d/", databasePath(databaseID), tableID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete table %d: %w", tableID, err)
	}
	return nil
}

func (c *Conn) ListUsers(ctx context.Context) ([]core.User, error) {
	var out []core.User
	if err := c.do(ctx, http.MethodGet, "/api/users/list/", nil, &out); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func (c *Conn) GrantAccess(ctx context.Context, databaseID int64, userIDs []int64) error {
	body := core.AccessChange{UserIDs: userIDs}
	if err := c.do(ctx, http.MethodPost, databasePath(databaseID)+"/access/", body, nil); err != nil {
		return fmt.Errorf("grant access: %w", err)
	}
	return nil
}

func (c *Conn) RevokeAccess(ctx context.Context, databaseID int64, userIDs []int64) error {
	body := core.AccessChange{UserIDs: userIDs}
	if err := c.do(ctx, http.MethodDelete, databasePath(databaseID)+"/access/", body, nil); err != nil {
		return fmt.Errorf("revoke access: %w", err)
	}
	return nil
}

func (c *Conn) AskQuestion(ctx context.Context, databaseID int64, req core.QuestionRequest) (*core.QuestionAnswer, error) {
	var out core.QuestionAnswer
	if err := c.do(ctx, http.MethodPost, databasePath(databaseID)+"/question", req, &out); err != nil {
		return nil, fmt.Errorf("ask question: %w", err)
	}
	out.DatabaseID = databaseID
	if out.Question == "" {
		out.Question = req.Question
	}
	if out.PromptType == "" {
		out.PromptType = req.PromptType
	}
	return &out, nil
}

func (c *Conn) ListQuestions(ctx context.Context, databaseID int64) ([]core.QuestionAnswer, error) {
	var out []core.QuestionAnswer
	if err := c.do(ctx, http.MethodGet, databasePath(databaseID)+"/question", nil, &out); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return out, nil
}

var (
	_ core.AuthGateway     = (*Client)(nil)
	_ core.DatabaseGateway = (*Conn)(nil)
	_ core.QuestionGateway = (*Conn)(nil)
)
