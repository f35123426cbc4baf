package backend

import (
	"encoding/json"
	"net"
	"net/http"
	"regexp"
	"strings"

	"github.com/caro-sh/caro/internal/domain"
)

// newRemoteClient builds the HTTP client shared by the remote backends:
// 5 second connect limit, 30 second total budget per generation call.
func newRemoteClient() *http.Client {
	return &http.Client{
		Timeout: domain.RemoteTotalLimit,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: domain.RemoteConnectLimit,
			}).DialContext,
		},
	}
}

var trailingComma = regexp.MustCompile(`,\s*([}\]])`)

// decodeChat parses a chat response body. A strict pass runs first; when it
// fails, a tolerant pass repairs near-valid payloads (markdown fences around
// the JSON, trailing commas, leading prose) before the call is declared
// malformed.
func decodeChat(body []byte) (chatResponse, error) {
	var out chatResponse
	strictErr := json.Unmarshal(body, &out)
	if strictErr == nil {
		return out, nil
	}

	repaired := repairJSON(string(body))
	if err := json.Unmarshal([]byte(repaired), &out); err != nil {
		return chatResponse{}, strictErr
	}
	return out, nil
}

// repairJSON applies the tolerant fixes: strip code fences, cut to the
// outermost object, drop trailing commas.
func repairJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	if start := strings.IndexByte(s, '{'); start >= 0 {
		if end := strings.LastIndexByte(s, '}'); end > start {
			s = s[start : end+1]
		}
	}
	return trailingComma.ReplaceAllString(s, "$1")
}
