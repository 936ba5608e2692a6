package extract

import (
	"testing"
)

func TestSanitizeResponse_CleanArray(t *testing.T) {
	raw := `[{"description":"Drafted letter"}]`
	clean, ok := SanitizeResponse(raw)
	if !ok {
		t.Fatal("expected array to be found")
	}
	objs, err := ParseArray(clean)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(objs) != 1 || objs[0]["description"] != "Drafted letter" {
		t.Errorf("unexpected objects: %v", objs)
	}
}

func TestSanitizeResponse_MarkdownFences(t *testing.T) {
	raw := "```json\n[{\"name\":\"Acme Ltd\"}]\n```"
	clean, ok := SanitizeResponse(raw)
	if !ok {
		t.Fatal("expected array to be found")
	}
	objs, err := ParseArray(clean)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(objs) != 1 || objs[0]["name"] != "Acme Ltd" {
		t.Errorf("unexpected objects: %v", objs)
	}
}

func TestSanitizeResponse_SurroundingProse(t *testing.T) {
	raw := "Here are the extracted items:\n[{\"description\":\"Court attendance\"}]\nLet me know if you need more."
	clean, ok := SanitizeResponse(raw)
	if !ok {
		t.Fatal("expected array to be found")
	}
	if _, err := ParseArray(clean); err != nil {
		t.Fatalf("parse failed: %v", err)
	}
}

func TestSanitizeResponse_LineComments(t *testing.T) {
	raw := `[
  {"description":"Research", // looked up authorities
   "time_spent_units": 5}
]`
	clean, ok := SanitizeResponse(raw)
	if !ok {
		t.Fatal("expected array to be found")
	}
	objs, err := ParseArray(clean)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if objs[0]["time_spent_units"] != float64(5) {
		t.Errorf("expected units 5, got %v", objs[0]["time_spent_units"])
	}
}

func TestSanitizeResponse_TrailingCommas(t *testing.T) {
	raw := `[{"description":"Travel","amount":12.50,},]`
	clean, ok := SanitizeResponse(raw)
	if !ok {
		t.Fatal("expected array to be found")
	}
	objs, err := ParseArray(clean)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(objs) != 1 {
		t.Errorf("expected 1 object, got %d", len(objs))
	}
}

func TestSanitizeResponse_EllipsisTruncation(t *testing.T) {
	raw := `[{"description":"First item"}, ...]`
	clean, ok := SanitizeResponse(raw)
	if !ok {
		t.Fatal("expected array to be found")
	}
	objs, err := ParseArray(clean)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(objs) != 1 {
		t.Errorf("expected 1 object, got %d", len(objs))
	}
}

func TestSanitizeResponse_NoArray(t *testing.T) {
	if _, ok := SanitizeResponse("I could not find any billing entries in this text."); ok {
		t.Error("expected no array to be found")
	}
	if _, ok := SanitizeResponse(""); ok {
		t.Error("expected no array in empty response")
	}
}

func TestSanitizeResponse_EmptyArray(t *testing.T) {
	clean, ok := SanitizeResponse("[]")
	if !ok {
		t.Fatal("expected array to be found")
	}
	objs, err := ParseArray(clean)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(objs) != 0 {
		t.Errorf("expected empty result, got %v", objs)
	}
}

func TestParseArray_SkipsNonObjects(t *testing.T) {
	objs, err := ParseArray(`[{"a":1}, "stray string", 42, {"b":2}]`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(objs) != 2 {
		t.Errorf("expected 2 objects, got %d", len(objs))
	}
}

func TestParseArray_Malformed(t *testing.T) {
	if _, err := ParseArray(`[{"unclosed": ]`); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
