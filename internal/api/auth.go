package api

import (
	"context"
	"encoding/json"
	"net/http"

	oerr "github.com/opennow/opennow-go/internal/errors"
	"github.com/opennow/opennow-go/internal/types"
)

// tokenKeys are the spellings under which backends return the session
// token, in priority order.
var tokenKeys = []string{"accessToken", "token", "jwt"}

// Login exchanges credentials for a bearer token.
func Login(ctx context.Context, hc *http.Client, baseURL, username, password string) (string, error) {
	body, err := callRaw(ctx, hc, baseURL, request{
		Op:     "login",
		Method: http.MethodPost,
		Path:   "/api/auth/login/",
		Body:   types.LoginRequest{Username: username, Password: password},
	})
	if err != nil {
		return "", err
	}
	var rec map[string]any
	if err := json.Unmarshal(body, &rec); err != nil {
		return "", oerr.NewTransport("login", err)
	}
	if token := types.PickString(rec, tokenKeys...); token != "" {
		return token, nil
	}
	return "", oerr.NewHTTP("login", http.StatusOK, "response carried no token")
}
