package switcher

import (
	"encoding/json"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const openAIAuthClaim = "https://api.openai.com/auth"

// Claims holds display hints read from an id_token.
type Claims struct {
	Email    *string
	PlanType *string
}

// ExtractClaims decodes the payload of a compact JWT without verifying it.
// The result is for display only and must never be used to authorize
// anything. Any structural problem yields empty Claims.
func ExtractClaims(idToken string) Claims {
	parts := strings.Split(idToken, ".")
	if len(parts) != 3 {
		return Claims{}
	}

	payload, err := jwt.NewParser().DecodeSegment(parts[1])
	if err != nil {
		return Claims{}
	}

	var claims jwt.MapClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return Claims{}
	}

	var out Claims
	if email, ok := claims["email"].(string); ok {
		out.Email = &email
	}
	if auth, ok := claims[openAIAuthClaim].(map[string]any); ok {
		if plan, ok := auth["chatgpt_plan_type"].(string); ok {
			out.PlanType = &plan
		}
	}
	return out
}
