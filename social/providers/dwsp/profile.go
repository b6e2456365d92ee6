package dwsp

import (
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-auth-dwsp/social"
)

type tokenRequest struct {
	AuthorizationCode string `json:"authorizationCode"`
	ClientID          string `json:"clientId"`
	ClientSecret      string `json:"clientSecret"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type userResponse struct {
	Account *dwspAccount `json:"account"`
}

type dwspAccount struct {
	UUID     string `json:"uuid"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Group    any    `json:"group"`
}

func mapProfile(account *dwspAccount, raw map[string]any) *social.RemoteProfile {
	return &social.RemoteProfile{
		ProviderUserID: account.UUID,
		Provider:       ProviderName,
		Username:       account.Username,
		Name:           account.Name,
		Group:          groupName(account.Group),
		Raw:            raw,
	}
}

func decodeRaw(body []byte) map[string]any {
	if len(body) == 0 {
		return nil
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}
	return raw
}

// groupName flattens the group claim, which is not always a string.
func groupName(v any) string {
	switch g := v.(type) {
	case nil:
		return ""
	case string:
		return g
	case map[string]any:
		if name, ok := g["name"].(string); ok {
			return name
		}
	}
	return fmt.Sprint(v)
}
