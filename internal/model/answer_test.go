package model

import (
	"encoding/json"
	"testing"
)

func TestAnswerKeyUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want AnswerKey
	}{
		{"integer index", `2`, IndexKey(2)},
		{"float index truncated", `1.0`, IndexKey(1)},
		{"bool true", `true`, BoolKey(true)},
		{"bool false", `false`, BoolKey(false)},
		{"legacy text", `"北京"`, TextKey("北京")},
		{"empty string", `""`, TextKey("")},
		{"null", `null`, TextKey("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got AnswerKey
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("Unmarshal(%s): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Unmarshal(%s) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestAnswerKeyUnmarshalRejectsObjects(t *testing.T) {
	var k AnswerKey
	if err := json.Unmarshal([]byte(`{"a":1}`), &k); err == nil {
		t.Error("expected error for JSON object answer key")
	}
}

func TestAnswerKeyRoundTrip(t *testing.T) {
	keys := []AnswerKey{IndexKey(3), BoolKey(false), TextKey("正确")}
	for _, k := range keys {
		data, err := json.Marshal(k)
		if err != nil {
			t.Fatalf("Marshal(%+v): %v", k, err)
		}
		var back AnswerKey
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("Unmarshal(%s): %v", data, err)
		}
		if back != k {
			t.Errorf("round trip %+v -> %s -> %+v", k, data, back)
		}
	}
}

func TestQuestionDecodeLegacySessionUnit(t *testing.T) {
	// A question block as an old session file would hold it: the answer
	// is the raw option text rather than an index.
	raw := `{
		"type": "choice",
		"question": "中国的首都是哪座城市？",
		"options": ["北京", "上海", "广州", "深圳"],
		"answer": "北京",
		"analysis": "首都是北京。",
		"score": 2
	}`
	var q Question
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if q.Answer.Kind != AnswerString || q.Answer.Text != "北京" {
		t.Errorf("expected legacy text key 北京, got %+v", q.Answer)
	}
	if q.Type != QuestionChoice {
		t.Errorf("expected choice type, got %q", q.Type)
	}
}

func TestSessionSummary(t *testing.T) {
	s := Session{
		SessionID: "exam_20250101_120000_abc",
		Exam:      Exam{Title: "数据库智能试卷", Subject: "数据库"},
		StartTime: "2025-01-01T12:00:00Z",
		EndTime:   "2025-01-01T13:00:00Z",
		Status:    StatusCompleted,
		ScoreResult: &ScoreResult{
			TotalScore: 3, FullScore: 5, Percentage: 60,
		},
	}
	sum := s.Summary()
	if sum.StudentName != "匿名" {
		t.Errorf("expected anonymous fallback, got %q", sum.StudentName)
	}
	if sum.TotalScore != 3 || sum.FullScore != 5 || sum.Percentage != 60 {
		t.Errorf("unexpected score projection: %+v", sum)
	}
	if sum.ExamTitle != "数据库智能试卷" {
		t.Errorf("unexpected title %q", sum.ExamTitle)
	}
}
