package gametree

// Annotation is a symbolic move-quality tag. Each defined tag (except
// AnnotationNone) corresponds to exactly one numeric NAG code.
type Annotation string

const (
	AnnotationNone        Annotation = ""
	AnnotationGood        Annotation = "!"
	AnnotationMistake     Annotation = "?"
	AnnotationBrilliant   Annotation = "!!"
	AnnotationBlunder     Annotation = "??"
	AnnotationInteresting Annotation = "!?"
	AnnotationDubious     Annotation = "?!"
)

var annotationToNAG = map[Annotation]int{
	AnnotationGood:        1,
	AnnotationMistake:     2,
	AnnotationBrilliant:   3,
	AnnotationBlunder:     4,
	AnnotationInteresting: 5,
	AnnotationDubious:     6,
}

var nagToAnnotation = map[int]Annotation{
	1: AnnotationGood,
	2: AnnotationMistake,
	3: AnnotationBrilliant,
	4: AnnotationBlunder,
	5: AnnotationInteresting,
	6: AnnotationDubious,
}

// Annotations lists every defined tag, AnnotationNone excluded.
func Annotations() []Annotation {
	return []Annotation{
		AnnotationGood, AnnotationMistake,
		AnnotationBrilliant, AnnotationBlunder,
		AnnotationInteresting, AnnotationDubious,
	}
}

// NAG returns the numeric code for a tag. AnnotationNone (and unknown
// strings) have no code.
func (a Annotation) NAG() (int, bool) {
	code, ok := annotationToNAG[a]
	return code, ok
}

// AnnotationFromNAG resolves a numeric NAG code back to its tag.
func AnnotationFromNAG(code int) (Annotation, bool) {
	a, ok := nagToAnnotation[code]
	return a, ok
}

// Valid reports whether a is AnnotationNone or one of the defined tags.
func (a Annotation) Valid() bool {
	if a == AnnotationNone {
		return true
	}
	_, ok := annotationToNAG[a]
	return ok
}
