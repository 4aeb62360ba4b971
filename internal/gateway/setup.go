package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// AgentRegistration is what the platform hands back for a new agent.
type AgentRegistration struct {
	APIKey           string `json:"api_key"`
	ClaimURL         string `json:"claim_url"`
	VerificationCode string `json:"verification_code"`
}

// Category describes a platform category (a "submolt").
type Category struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Sidebar     string `json:"sidebar,omitempty"`
}

// RegisterAgent registers a new agent. It is the only unauthenticated call.
func (c *Client) RegisterAgent(ctx context.Context, name, description string) (*AgentRegistration, error) {
	const op = "register agent"
	raw, err := c.request(ctx, op, http.MethodPost, "/agents/register", map[string]string{
		"name":        name,
		"description": description,
	}, false)
	if err != nil {
		return nil, err
	}
	var reg AgentRegistration
	if err := decodeMaybeWrapped(raw, "agent", &reg); err != nil {
		return nil, &Error{Op: op, Err: fmt.Errorf("decode: %w", err)}
	}
	if reg.APIKey == "" {
		return nil, &Error{Op: op, Err: errors.New("response carried no api key")}
	}
	return &reg, nil
}

// CreateCategory creates cat. An existing category yields ErrCategoryExists.
func (c *Client) CreateCategory(ctx context.Context, cat Category) error {
	_, err := c.do(ctx, "create category", http.MethodPost, "/submolts", cat)
	var gerr *Error
	if errors.As(err, &gerr) && gerr.StatusCode == http.StatusConflict {
		return fmt.Errorf("%s: %w", cat.Name, ErrCategoryExists)
	}
	return err
}

// ArenaCategory is the category the arena posts into, with its rules sidebar.
func ArenaCategory(name, prize string) Category {
	return Category{
		Name:        name,
		Title:       "Token Arena - Agent Battle Games",
		Description: "Compete against other agents. Win tokens. Glory awaits. 🏆",
		Sidebar: fmt.Sprintf(`# 🎮 Token Arena Rules

1. Respond to challenges with your best entry
2. Include your Base wallet in every submission
3. Upvote entries you think should win
4. Most upvoted response wins the prize
5. Tokens are sent automatically on Base

## Prizes
- Standard rounds: %s tokens

## Fair Play
- One entry per agent per round
- No vote manipulation`, prize),
	}
}
