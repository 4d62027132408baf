package github

import (
	"net/url"
	"sort"
	"strings"
)

// UserPath is the profile endpoint for login.
func UserPath(login string) string {
	return "/users/" + url.PathEscape(login)
}

// UserReposPath is the repository listing endpoint for login.
func UserReposPath(login string) string {
	return UserPath(login) + "/repos"
}

// Endpoint maps a request path onto a bounded label set for metrics and logs.
func Endpoint(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] == "users":
		return "users"
	case len(parts) == 2 && parts[0] == "search" && parts[1] == "users":
		return "search_users"
	case len(parts) == 2 && parts[0] == "users":
		return "user"
	case len(parts) == 3 && parts[0] == "users" && parts[2] == "repos":
		return "user_repos"
	default:
		return "other"
	}
}

// EncodeQuery serializes params with sorted keys like url.Values.Encode, but
// leaves '+' and ':' literal in values. GitHub search reads '+' as a term
// separator and ':' as a qualifier delimiter; escaping either changes the
// query's meaning.
func EncodeQuery(params url.Values) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		key := url.QueryEscape(k)
		for _, v := range params[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(key)
			b.WriteByte('=')
			b.WriteString(escapeValue(v))
		}
	}
	return b.String()
}

var structuralUnescaper = strings.NewReplacer("%2B", "+", "%3A", ":")

func escapeValue(v string) string {
	return structuralUnescaper.Replace(url.QueryEscape(v))
}
