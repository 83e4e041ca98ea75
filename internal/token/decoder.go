package token

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/trainsphere/consolekit/internal/apperr"
)

// segmentDecoder handles the base64url segment encoding. No signature
// verification happens client-side: the trust boundary is the issuing
// server over TLS, so only the payload segment is inspected.
var segmentDecoder = jwt.NewParser()

// Decode parses a bearer token into a DecodedToken.
//
// The token must be three dot-separated base64url segments whose middle
// segment is a JSON object carrying at least the exp, sub, and user_id
// claims. Any violation yields an AUTH_TOKEN_MALFORMED error.
func Decode(raw string) (*DecodedToken, error) {
	segments := strings.Split(raw, ".")
	if len(segments) != 3 {
		return nil, apperr.New(apperr.CodeTokenMalformed,
			"token is not a three-segment JWT",
			map[string]any{"segments": len(segments)})
	}

	payload, err := segmentDecoder.DecodeSegment(segments[1])
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeTokenMalformed,
			"token payload is not valid base64url", err, nil)
	}

	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, apperr.Wrap(apperr.CodeTokenMalformed,
			"token payload is not a JSON object", err, nil)
	}

	keys, err := topLevelKeys(payload)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeTokenMalformed,
			"token payload is not a JSON object", err, nil)
	}

	decoded := &DecodedToken{
		Subject:         stringClaim(claims, "sub"),
		UserID:          stringClaim(claims, "user_id"),
		Email:           stringClaim(claims, "email"),
		FirstName:       stringClaim(claims, "first_name"),
		LastName:        stringClaim(claims, "last_name"),
		Division:        stringClaim(claims, "division"),
		Department:      stringClaim(claims, "department"),
		ProfileImageURL: stringClaim(claims, "profile_image_url"),
	}

	exp, ok := numericClaim(claims, "exp")
	if !ok {
		return nil, apperr.New(apperr.CodeTokenMalformed, "token has no exp claim", nil)
	}
	decoded.ExpiresAt = time.Unix(int64(exp), 0)

	if iat, ok := numericClaim(claims, "iat"); ok {
		decoded.IssuedAt = time.Unix(int64(iat), 0)
	}

	if decoded.Subject == "" {
		return nil, apperr.New(apperr.CodeTokenMalformed, "token has no sub claim", nil)
	}
	if decoded.UserID == "" {
		return nil, apperr.New(apperr.CodeTokenMalformed, "token has no user_id claim", nil)
	}

	// Workspace blocks are top-level object claims with a roles field.
	// They are collected in claim-declaration order because the
	// auto-selection scan is defined over that order; Go maps do not
	// preserve it, hence the separate ordered key pass.
	for _, key := range keys {
		block, ok := claims[key].(map[string]any)
		if !ok {
			continue
		}
		if _, hasRoles := block["roles"]; !hasRoles {
			continue
		}
		decoded.Workspaces = append(decoded.Workspaces, parseWorkspace(key, block))
	}

	return decoded, nil
}

func parseWorkspace(id string, block map[string]any) Workspace {
	ws := Workspace{
		ID:          id,
		Roles:       map[string][]string{},
		Permissions: map[string]map[string][]any{},
	}

	if roles, ok := block["roles"].(map[string]any); ok {
		for module, value := range roles {
			ws.Roles[module] = stringList(value)
		}
	}

	if perms, ok := block["permissions"].(map[string]any); ok {
		for module, value := range perms {
			caps, ok := value.(map[string]any)
			if !ok {
				continue
			}
			moduleCaps := map[string][]any{}
			for capability, grants := range caps {
				if list, ok := grants.([]any); ok {
					moduleCaps[capability] = list
				}
			}
			ws.Permissions[module] = moduleCaps
		}
	}

	return ws
}

func stringClaim(claims map[string]any, name string) string {
	s, _ := claims[name].(string)
	return s
}

func numericClaim(claims map[string]any, name string) (float64, bool) {
	n, ok := claims[name].(float64)
	return n, ok
}

func stringList(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// topLevelKeys streams the payload once to record the declaration order
// of its top-level keys.
func topLevelKeys(payload []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("top-level value is not an object")
	}

	var keys []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key token %v", keyTok)
		}
		keys = append(keys, key)

		if err := skipValue(dec); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || (delim != '{' && delim != '[') {
		return nil
	}

	for dec.More() {
		if delim == '{' {
			if _, err := dec.Token(); err != nil {
				return err
			}
		}
		if err := skipValue(dec); err != nil {
			return err
		}
	}
	_, err = dec.Token() // consume the closing delimiter
	return err
}
