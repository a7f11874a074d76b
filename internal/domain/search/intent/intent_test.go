package intent

import "testing"

func TestIsValid(t *testing.T) {
	valid := []Intent{Exact, Franchise, Alternative, Collection, General}
	for _, i := range valid {
		if !i.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", i)
		}
	}

	invalid := []Intent{"", "specific", "EXACT", "sister"}
	for _, i := range invalid {
		if i.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", i)
		}
	}
}

func TestBroad(t *testing.T) {
	if !Franchise.Broad() || !General.Broad() {
		t.Error("franchise and general must be broad")
	}
	if Exact.Broad() || Alternative.Broad() || Collection.Broad() {
		t.Error("exact, alternative and collection must not be broad")
	}
}
