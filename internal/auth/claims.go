package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the only supported JWT claims shape for this service.
// AgentID identifies the logged-in call-center agent; TeamID scopes them to a
// desk (sales, collections, customer service, QA).
type Claims struct {
	jwt.RegisteredClaims

	AgentID   string    `json:"agent_id"`
	TeamID    string    `json:"team_id"`
	Role      string    `json:"role"`
	TokenType TokenType `json:"token_type"`
}
