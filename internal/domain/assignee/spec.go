// Package assignee implements parsing and matching of stored assignee
// values. Two textual encodings exist in historical data for the same
// semantic value: a bare string and a JSON-array-encoded string. All reads
// tolerate both; new writes use the JSON-array encoding.
package assignee

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// userPrefix marks a spec that designates a single user directly
const userPrefix = "user:"

// Spec is a stored assignee specification: a single role code, a direct
// user id, or a JSON-array-encoded list of role codes.
type Spec struct {
	raw string
}

// New wraps a raw stored spec value
func New(raw string) Spec {
	return Spec{raw: strings.TrimSpace(raw)}
}

// String returns the raw stored value
func (s Spec) String() string {
	return s.raw
}

// UserID returns the designated user id if the spec structurally matches a
// direct user reference ("user:" prefix or a bare UUID).
func (s Spec) UserID() (string, bool) {
	if strings.HasPrefix(s.raw, userPrefix) {
		id := strings.TrimPrefix(s.raw, userPrefix)
		if id == "" {
			return "", false
		}
		return id, true
	}
	if _, err := uuid.Parse(s.raw); err == nil {
		return s.raw, true
	}
	return "", false
}

// Roles returns the role codes the spec designates. A JSON array parses to
// its elements; any other non-user value is a single role code.
func (s Spec) Roles() []string {
	if _, ok := s.UserID(); ok {
		return nil
	}
	if roles, ok := decodeList(s.raw); ok {
		return roles
	}
	if s.raw == "" {
		return nil
	}
	return []string{s.raw}
}

// EncodeUsers renders a resolved user-id set in the canonical encoding used
// for all new assigned_to writes. The set is sorted for determinism.
func EncodeUsers(userIDs []string) string {
	sorted := append([]string(nil), userIDs...)
	sort.Strings(sorted)
	b, _ := json.Marshal(sorted)
	return string(b)
}

// DecodeUsers reads a stored assigned_to value in either encoding and
// returns the user ids it holds.
func DecodeUsers(stored string) []string {
	if ids, ok := decodeList(stored); ok {
		return ids
	}
	if stored == "" {
		return nil
	}
	return []string{stored}
}

// MatchesUser is the canonical predicate testing whether userID is among
// the users a stored assigned_to value designates, regardless of encoding.
// Every assignment check in the engine goes through this function.
func MatchesUser(stored, userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range DecodeUsers(stored) {
		if id == userID {
			return true
		}
	}
	return false
}

// decodeList parses a JSON-array-encoded string of strings
func decodeList(raw string) ([]string, bool) {
	if !strings.HasPrefix(raw, "[") {
		return nil, false
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, false
	}
	out := items[:0]
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it != "" {
			out = append(out, it)
		}
	}
	return out, true
}
