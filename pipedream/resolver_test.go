package pipedream

import "testing"

var resolvePathSuites = []struct {
	name    string
	logical string
	hint    string
	want    string
}{
	{"default v1", "/users/me", "", "/v1/users/me"},
	{"v1 hint", "/users/me", VersionV1, "/v1/users/me"},
	{"v2 hint", "/workflows/p_abc", VersionV2, "/v2/workflows/p_abc"},
	{"raw hint", "/graphql", VersionRaw, "/graphql"},
	{"explicit v1 wins over v2 hint", "/v1/workflows/p_abc", VersionV2, "/v1/workflows/p_abc"},
	{"explicit v2 wins over v1 hint", "/v2/workflows/p_abc", VersionV1, "/v2/workflows/p_abc"},
	{"explicit v1 wins over raw hint", "/v1/users/me", VersionRaw, "/v1/users/me"},
	{"missing leading slash", "users/me", "", "/v1/users/me"},
	{"unknown hint falls back to v1", "/users/me", "v9", "/v1/users/me"},
	{"query string preserved", "/components/workflows?project_id=proj_1", "", "/v1/components/workflows?project_id=proj_1"},
	{"bare version segment", "/v2", VersionV1, "/v2"},
}

func TestResolvePath(t *testing.T) {
	for _, s := range resolvePathSuites {
		t.Run(s.name, func(t *testing.T) {
			if got := resolvePath(s.logical, s.hint); got != s.want {
				t.Errorf("resolvePath(%q, %q) = %q, want %q", s.logical, s.hint, got, s.want)
			}
		})
	}
}

func TestResolvePathIsPure(t *testing.T) {
	// Same inputs, same output, regardless of how often or in what order.
	for range 3 {
		for _, s := range resolvePathSuites {
			if got := resolvePath(s.logical, s.hint); got != s.want {
				t.Fatalf("resolvePath(%q, %q) = %q on repeat, want %q", s.logical, s.hint, got, s.want)
			}
		}
	}
}
