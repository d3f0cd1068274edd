package apierr_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/danmaku-system/webclient/pkg/apierr"
)

func TestParse_Precedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		kind     apierr.Kind
		expected string
	}{
		{
			name:     "plain string error",
			body:     `{"error":"x"}`,
			kind:     apierr.KindText,
			expected: "x",
		},
		{
			name:     "list takes first element",
			body:     `{"error":["a","b"]}`,
			kind:     apierr.KindList,
			expected: "a",
		},
		{
			name:     "field map with message lists",
			body:     `{"error":{"field":["m1","m2"]}}`,
			kind:     apierr.KindFields,
			expected: "field: m1, m2",
		},
		{
			name:     "field map keeps document order",
			body:     `{"error":{"username":["taken"],"email":"invalid","password":["too short","too common"]}}`,
			kind:     apierr.KindFields,
			expected: "username: taken; email: invalid; password: too short, too common",
		},
		{
			name:     "bare field map",
			body:     `{"field":"m"}`,
			kind:     apierr.KindBare,
			expected: "field: m",
		},
		{
			name:     "bare map with drf detail",
			body:     `{"detail":"Authentication credentials were not provided."}`,
			kind:     apierr.KindBare,
			expected: "detail: Authentication credentials were not provided.",
		},
		{
			name:     "escaped strings are unescaped",
			body:     `{"error":"line \"quoted\" é"}`,
			kind:     apierr.KindText,
			expected: `line "quoted" é`,
		},
		{
			name:     "non-string list element is rendered as json",
			body:     `{"error":[{"code":"x"}]}`,
			kind:     apierr.KindList,
			expected: `{"code":"x"}`,
		},
		{
			name:     "empty list falls back",
			body:     `{"error":[]}`,
			kind:     apierr.KindUnknown,
			expected: "fallback",
		},
		{
			name:     "null error falls back",
			body:     `{"error":null,"status":"error"}`,
			kind:     apierr.KindUnknown,
			expected: "fallback",
		},
		{
			name:     "blank string error falls back",
			body:     `{"error":"  "}`,
			kind:     apierr.KindUnknown,
			expected: "fallback",
		},
		{
			name:     "empty object falls back",
			body:     `{}`,
			kind:     apierr.KindUnknown,
			expected: "fallback",
		},
		{
			name:     "number falls back",
			body:     `42`,
			kind:     apierr.KindUnknown,
			expected: "fallback",
		},
		{
			name:     "top-level array falls back",
			body:     `["a"]`,
			kind:     apierr.KindUnknown,
			expected: "fallback",
		},
		{
			name:     "html error page falls back",
			body:     `<html><body>Server Error</body></html>`,
			kind:     apierr.KindUnknown,
			expected: "fallback",
		},
		{
			name:     "truncated json falls back",
			body:     `{"error":"x`,
			kind:     apierr.KindUnknown,
			expected: "fallback",
		},
		{
			name:     "empty body is connectivity",
			body:     ``,
			kind:     apierr.KindNone,
			expected: apierr.MsgConnectivity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := apierr.Parse([]byte(tt.body))
			assert.Equal(t, tt.kind, env.Kind)
			assert.Equal(t, tt.expected, env.Message("fallback"))
		})
	}
}

func TestNormalizeValue_Total(t *testing.T) {
	t.Parallel()

	inputs := []any{
		map[string]any{"error": "x"},
		map[string]any{"error": []any{"a", "b"}},
		map[string]any{"error": map[string]any{"field": []string{"m1", "m2"}}},
		map[string]any{"field": "m"},
		nil,
		42,
		"plain",
		[]int{1, 2},
		make(chan int),
		func() {},
		json.RawMessage(`{"error":"raw"}`),
	}

	for _, in := range inputs {
		assert.NotPanics(t, func() {
			msg := apierr.NormalizeValue(in, "login failed")
			assert.NotEmpty(t, msg)
		})
	}

	assert.Equal(t, "x", apierr.NormalizeValue(map[string]any{"error": "x"}, "login failed"))
	assert.Equal(t, "a", apierr.NormalizeValue(map[string]any{"error": []any{"a", "b"}}, "login failed"))
	assert.Equal(t, "field: m1, m2", apierr.NormalizeValue(map[string]any{"error": map[string]any{"field": []string{"m1", "m2"}}}, "login failed"))
	assert.Equal(t, "field: m", apierr.NormalizeValue(map[string]any{"field": "m"}, "login failed"))
	assert.Equal(t, apierr.MsgConnectivity, apierr.NormalizeValue(nil, "login failed"))
	assert.Equal(t, "login failed", apierr.NormalizeValue(42, "login failed"))
	assert.Equal(t, "login failed", apierr.NormalizeValue(make(chan int), "login failed"))
}

func TestFromValue_SortsMapKeys(t *testing.T) {
	t.Parallel()

	payload := map[string]any{
		"username": []string{"taken"},
		"email":    "invalid",
	}
	assert.Equal(t, "email: invalid; username: taken", apierr.NormalizeValue(payload, "fallback"))
}

func TestEnvelope_SideFields(t *testing.T) {
	t.Parallel()

	t.Run("attempts left", func(t *testing.T) {
		t.Parallel()
		env := apierr.Parse([]byte(`{"error":"bad credentials","attempts_left":3,"status":"error"}`))
		left, ok := env.AttemptsLeft()
		assert.True(t, ok)
		assert.Equal(t, 3, left)
		assert.False(t, env.Lockout())
	})

	t.Run("zero attempts left is reported", func(t *testing.T) {
		t.Parallel()
		env := apierr.Parse([]byte(`{"error":"too many attempts","attempts_left":0}`))
		left, ok := env.AttemptsLeft()
		assert.True(t, ok)
		assert.Equal(t, 0, left)
	})

	t.Run("lockout flag", func(t *testing.T) {
		t.Parallel()
		env := apierr.Parse([]byte(`{"error":"locked","lockout":true}`))
		assert.True(t, env.Lockout())
		_, ok := env.AttemptsLeft()
		assert.False(t, ok)
	})
}

func TestEnvelope_EmptyFallback(t *testing.T) {
	t.Parallel()
	assert.Equal(t, apierr.MsgUnexpected, apierr.Normalize([]byte(`{}`), ""))
}
