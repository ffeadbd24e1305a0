package i18n

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mockexam/internal/exam"
	"github.com/abhisek/mockexam/internal/llm"
)

func TestNewResolvesLanguage(t *testing.T) {
	tests := []struct {
		name   string
		lang   string
		accept []string
		want   string
	}{
		{"default", "", nil, "en"},
		{"korean", "ko", nil, "ko"},
		{"regional korean", "ko-KR", nil, "ko"},
		{"unsupported falls back", "fr", nil, "en"},
		{"accept header used when lang empty", "", []string{"ko-KR,ko;q=0.9,en;q=0.8"}, "ko"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := New(tt.lang, tt.accept...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tr.Lang())
		})
	}
}

func TestNewRejectsMalformedTag(t *testing.T) {
	_, err := New("not a tag!")
	assert.Error(t, err)
}

func TestTranslate(t *testing.T) {
	en := MustNew("en")
	ko := MustNew("ko")

	assert.Equal(t, "Answer not submitted.", en.T("FeedbackUnanswered"))
	assert.Equal(t, "답안을 제출하지 않았습니다.", ko.T("FeedbackUnanswered"))
	assert.Equal(t, "Question 3", en.Td("ProblemN", map[string]any{"N": 3}))
	assert.Equal(t, "문제 3", ko.Td("ProblemN", map[string]any{"N": 3}))
}

func TestMissingMessageRendersID(t *testing.T) {
	assert.Equal(t, "NoSuchMessage", MustNew("en").T("NoSuchMessage"))
}

func TestLocalesHaveSameKeys(t *testing.T) {
	read := func(name string) map[string]string {
		data, err := localeFS.ReadFile("locales/" + name)
		require.NoError(t, err)
		var m map[string]string
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	}
	en, ko := read("en.json"), read("ko.json")
	for k := range en {
		assert.Contains(t, ko, k, "ko.json is missing %s", k)
	}
	for k := range ko {
		assert.Contains(t, en, k, "en.json is missing %s", k)
	}
}

func TestCatalogLabels(t *testing.T) {
	en := MustNew("en")
	for _, info := range exam.Subjects() {
		assert.NotEqual(t, "Subject"+titleCase(string(info.Subject)), en.SubjectName(info.Subject))
	}
	for _, d := range exam.AllDifficulties {
		assert.NotEqual(t, "Difficulty"+titleCase(string(d)), en.DifficultyName(d))
	}
	assert.Equal(t, "네트워크", MustNew("ko").SubjectName(exam.SubjectNetwork))
}

func TestReason(t *testing.T) {
	en := MustNew("en")
	assert.Equal(t, "the API key was rejected", en.Reason(llm.FailureAuthInvalid))
	assert.Equal(t, "the service is unavailable", en.Reason(llm.FailureServiceUnavailable))
	assert.Equal(t, "the service is unavailable", en.Reason(llm.FailureKind("other")))
}

func TestContextTranslator(t *testing.T) {
	assert.Equal(t, "en", FromContext(context.Background()).Lang())

	ctx := WithTranslator(context.Background(), MustNew("ko"))
	assert.Equal(t, "ko", FromContext(ctx).Lang())
	assert.Equal(t, "기록", T(ctx, "HistoryTitle"))
	assert.Equal(t, "문제 1", Td(ctx, "ProblemN", map[string]any{"N": 1}))
}

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "English", LanguageName(""))
	assert.Equal(t, "English", LanguageName("!!"))
	assert.Equal(t, "Korean", LanguageName("ko"))
}

func TestMiddleware(t *testing.T) {
	var got string
	h := Middleware("en")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context()).Lang()
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "en", got)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "ko")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "ko", got)
}
