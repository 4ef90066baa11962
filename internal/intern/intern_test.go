package intern

import "testing"

func TestInternEqualBytesEqualID(t *testing.T) {
	p := NewPool()
	a := p.Intern("hello")
	b := p.Intern("hello")
	if a != b {
		t.Fatalf("equal strings should intern to the same value")
	}
}

func TestInternBytesAvoidsDoubleAlloc(t *testing.T) {
	p := NewPool()
	first := p.Intern("div")
	second := p.InternBytes([]byte("div"))
	if first != second {
		t.Fatalf("InternBytes should match Intern for same content")
	}
}

func TestInternTooLongNotPooled(t *testing.T) {
	p := NewPool()
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}
	s := p.InternBytes(long)
	if s != string(long) {
		t.Fatalf("long string content mismatch")
	}
	if p.Count() != 0 {
		t.Fatalf("long strings should not be interned, got count %d", p.Count())
	}
}

func TestCommonWhitespacePreseeded(t *testing.T) {
	p := NewPool()
	got := p.InternWhitespace(" ")
	if got != " " {
		t.Fatalf("expected single space back, got %q", got)
	}
}

func TestWhitespaceExtensionCap(t *testing.T) {
	p := NewPool()
	// Generate more unusual whitespace runs than the cap allows.
	for i := 0; i < whitespaceExtensionCap+10; i++ {
		run := make([]byte, i%7+8)
		for j := range run {
			run[j] = ' '
		}
		run[0] = '\t' // make it unusual relative to the common set
		p.InternWhitespace(string(run))
	}
	if p.wsExtension > whitespaceExtensionCap {
		t.Fatalf("extension pool exceeded cap: %d", p.wsExtension)
	}
}

func TestNonWhitespaceUnaffected(t *testing.T) {
	p := NewPool()
	got := p.InternWhitespace("hello")
	if got != "hello" {
		t.Fatalf("non-whitespace input should pass through unchanged")
	}
}
