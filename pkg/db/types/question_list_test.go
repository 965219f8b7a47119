package dbtypes

import "testing"

func TestQuestionListRoundTrip(t *testing.T) {
	list := QuestionList{
		{Question: "what color is the case", Answer: "red"},
		{Question: "sticker on the back", Answer: "a bee"},
	}

	val, err := list.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	var decoded QuestionList
	if err := decoded.Scan([]byte(val.(string))); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(decoded))
	}
	if decoded[0].Question != "what color is the case" || decoded[0].Answer != "red" {
		t.Fatalf("first question mangled: %+v", decoded[0])
	}
	if decoded[1].Answer != "a bee" {
		t.Fatalf("second answer mangled: %+v", decoded[1])
	}
}

func TestQuestionListScanNil(t *testing.T) {
	var list QuestionList
	if err := list.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}
}

func TestQuestionListEmptyValue(t *testing.T) {
	val, err := QuestionList{}.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if val != "[]" {
		t.Fatalf("expected empty JSON array, got %v", val)
	}
}

func TestAnswerMapRoundTrip(t *testing.T) {
	answers := AnswerMap{"0": "red", "1": "a bee"}

	val, err := answers.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	var decoded AnswerMap
	if err := decoded.Scan(val.(string)); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if decoded["0"] != "red" || decoded["1"] != "a bee" {
		t.Fatalf("answers mangled: %+v", decoded)
	}
}

func TestAnswerMapScanNil(t *testing.T) {
	var answers AnswerMap
	if err := answers.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if len(answers) != 0 {
		t.Fatalf("expected empty map, got %d", len(answers))
	}
}
