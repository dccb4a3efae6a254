package gametree

import "testing"

func TestAnnotationTable_Bijection(t *testing.T) {
	seen := map[int]Annotation{}
	for _, a := range Annotations() {
		code, ok := a.NAG()
		if !ok {
			t.Fatalf("defined annotation %q has no NAG code", a)
		}
		if prev, dup := seen[code]; dup {
			t.Fatalf("code %d maps to both %q and %q", code, prev, a)
		}
		seen[code] = a

		back, ok := AnnotationFromNAG(code)
		if !ok || back != a {
			t.Errorf("%q -> %d -> %q, want original", a, code, back)
		}
	}
}

func TestAnnotationNone_HasNoCode(t *testing.T) {
	if _, ok := AnnotationNone.NAG(); ok {
		t.Error("the empty annotation must not map to a code")
	}
	if !AnnotationNone.Valid() {
		t.Error("the empty annotation is still a valid tag value")
	}
}
