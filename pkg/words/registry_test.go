package words

import "testing"

func TestLookup(t *testing.T) {
	def, ok := Lookup("add")
	if !ok {
		t.Fatal("add not registered")
	}
	if def.ID != Add || def.In != 2 || def.NeedsFS {
		t.Fatalf("unexpected def for add: %+v", def)
	}

	if _, ok := Lookup("bogus"); ok {
		t.Fatal("bogus should not be registered")
	}
}

func TestRegistryConsistency(t *testing.T) {
	seen := map[string]bool{}
	for _, def := range All() {
		if seen[def.Name] {
			t.Errorf("duplicate word name %q", def.Name)
		}
		seen[def.Name] = true

		byID, ok := Describe(def.ID)
		if !ok || byID.Name != def.Name {
			t.Errorf("Describe(%d) = %+v, want %q", def.ID, byID, def.Name)
		}
	}
}

func TestCapabilityFlags(t *testing.T) {
	def, ok := Lookup("read")
	if !ok || !def.NeedsFS {
		t.Fatalf("read must require the filesystem capability: %+v", def)
	}
}
