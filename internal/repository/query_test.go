package repository

import (
	"strings"
	"testing"
)

func TestJSONTextExpr(t *testing.T) {
	if got := jsonTextExpr("sqlite", "title_json", "zh-CN"); got != `json_extract(title_json, '$."zh-CN"')` {
		t.Fatalf("sqlite json expr mismatch, got %s", got)
	}
	if got := jsonTextExpr("postgres", "title_json", "en-US"); got != "(title_json::jsonb ->> 'en-US')" {
		t.Fatalf("postgres json expr mismatch, got %s", got)
	}
}

func TestKeywordSearchCondition(t *testing.T) {
	search := newKeywordSearch(nil, []string{"slug", " "}, []string{"title_json"})
	condition, argCount := search.condition()
	if argCount != 3 {
		t.Fatalf("arg count want 3 got %d (%s)", argCount, condition)
	}
	if !strings.HasPrefix(condition, "slug LIKE ?") {
		t.Fatalf("condition should start with slug LIKE, got %s", condition)
	}
	if !strings.Contains(condition, `json_extract(title_json, '$."en-US"') LIKE ?`) {
		t.Fatalf("condition should search the en-US title, got %s", condition)
	}

	pg := keywordSearch{dialect: "postgres", columns: []string{"channel_id", "name"}}
	condition, argCount = pg.condition()
	if argCount != 2 || condition != "channel_id ILIKE ? OR name ILIKE ?" {
		t.Fatalf("postgres condition mismatch: %d %s", argCount, condition)
	}
}
