package model

import "testing"

func TestSampleEqualByID(t *testing.T) {
	a := NewSample("kick", "/a.wav")
	b := a
	b.Name = "renamed"
	b.FileURL = "/b.wav"
	if !a.Equal(b) {
		t.Fatal("same id should be equal")
	}
	if a.Equal(NewSample("kick", "/a.wav")) {
		t.Fatal("different ids should differ")
	}
}

func TestSampleCollection(t *testing.T) {
	c := NewSampleCollection("Drums", false)
	a := NewSample("a", "/a.wav")
	b := NewSample("b", "/b.wav")
	if !c.Add(a) || !c.Add(b) {
		t.Fatal("add failed")
	}
	if c.Add(a) {
		t.Fatal("duplicate id added")
	}

	replacement := NewSample("a2", "/a2.wav")
	if !c.Replace(a.ID, replacement) {
		t.Fatal("replace failed")
	}
	if c.Samples[0].ID != replacement.ID {
		t.Fatal("replace changed position")
	}
	if c.Replace(a.ID, a) {
		t.Fatal("replace of absent id succeeded")
	}
	if c.Replace(replacement.ID, b) {
		t.Fatal("replace accepted an id owned by another member")
	}

	if _, ok := c.Find(b.ID); !ok {
		t.Fatal("find failed")
	}
	if !c.Remove(b.ID) || c.Remove(b.ID) {
		t.Fatal("remove should succeed exactly once")
	}
	if len(c.Samples) != 1 {
		t.Fatalf("len = %d", len(c.Samples))
	}
}

func TestDefaultLibrary(t *testing.T) {
	lib := DefaultLibrary()
	want := []string{"Drums", "Bass", "Synth", "User Imports"}
	if len(lib) != len(want) {
		t.Fatalf("len = %d", len(lib))
	}
	for i, c := range lib {
		if c.Name != want[i] {
			t.Errorf("collection %d = %q", i, c.Name)
		}
		if c.IsUserCollection != (c.Name == CollectionUserImports) {
			t.Errorf("%s: isUserCollection = %v", c.Name, c.IsUserCollection)
		}
	}
}

func TestCollectionCloneIsDeep(t *testing.T) {
	c := NewSampleCollection("Bass", false)
	d := 1.5
	s := NewSample("sub", "/sub.wav")
	s.Duration = &d
	c.Add(s)
	cp := c.Clone()
	*cp.Samples[0].Duration = 9
	cp.Samples[0].Name = "x"
	if *c.Samples[0].Duration != 1.5 || c.Samples[0].Name != "sub" {
		t.Fatal("clone shares samples")
	}
}
