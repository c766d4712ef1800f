package grouping

import "testing"

func TestVectorCache_Decode(t *testing.T) {
	c := NewVectorCache()
	vec := c.Resolve(1, "[0.1,0.2,0.3]")
	if len(vec) != 3 || vec[0] != 0.1 || vec[2] != 0.3 {
		t.Fatalf("Resolve = %v, want [0.1 0.2 0.3]", vec)
	}
}

func TestVectorCache_Memoizes(t *testing.T) {
	c := NewVectorCache()
	first := c.Resolve(1, "[1,2]")
	// A different payload for the same ticket id must not re-decode.
	second := c.Resolve(1, "[9,9,9]")
	if len(second) != len(first) || second[0] != first[0] {
		t.Fatalf("second Resolve = %v, want cached %v", second, first)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestVectorCache_MalformedCachedAsEmpty(t *testing.T) {
	c := NewVectorCache()
	if vec := c.Resolve(1, "{broken"); len(vec) != 0 {
		t.Fatalf("malformed payload decoded to %v, want empty", vec)
	}
	// The failure is cached; a now-valid payload is not retried.
	if vec := c.Resolve(1, "[1,2,3]"); len(vec) != 0 {
		t.Fatalf("malformed entry was retried: got %v", vec)
	}
}

func TestVectorCache_EmptyRaw(t *testing.T) {
	c := NewVectorCache()
	if vec := c.Resolve(1, ""); len(vec) != 0 {
		t.Fatalf("empty payload decoded to %v, want empty", vec)
	}
}

func TestVectorCache_Clear(t *testing.T) {
	c := NewVectorCache()
	c.Resolve(1, "{broken")
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("Len after Clear = %d, want 0", c.Len())
	}
	// After a clear the entry decodes fresh.
	if vec := c.Resolve(1, "[1,2,3]"); len(vec) != 3 {
		t.Fatalf("Resolve after Clear = %v, want 3 components", vec)
	}
}
