package world

import "testing"

func boolPtr(b bool) *bool { return &b }

func TestApplyUpsertAndDelete(t *testing.T) {
	files := FileSet{
		"Location_Crypt.txt": {Name: "Location_Crypt.txt", Content: "dark", Type: FileLocation, LastUpdated: 10},
	}
	updates := []FileUpdate{
		{Name: "Location_Crypt.txt", Content: "lit by torches", Type: FileLocation, Op: OpUpdate},
		{Name: "Item_Key.txt", Content: "a rusty key", Type: FileItem, Op: OpCreate},
		{Name: "Location_Crypt.txt", Op: OpDelete},
	}
	next := Apply(files, updates, 42)

	if _, ok := next["Location_Crypt.txt"]; ok {
		t.Fatal("delete after update should win within a batch")
	}
	key, ok := next["Item_Key.txt"]
	if !ok {
		t.Fatal("created file missing")
	}
	if key.LastUpdated != 42 {
		t.Fatalf("LastUpdated = %d, want 42", key.LastUpdated)
	}
	if key.Hidden {
		t.Fatal("new file should default to visible")
	}
	// Input set untouched.
	if files["Location_Crypt.txt"].Content != "dark" {
		t.Fatal("Apply mutated its input")
	}
	if len(files) != 1 {
		t.Fatalf("input set length changed: %d", len(files))
	}
}

func TestApplyHiddenFlagDefaulting(t *testing.T) {
	files := FileSet{
		"Item_Map.txt": {Name: "Item_Map.txt", Content: "old", Type: FileItem, Hidden: true},
	}

	next := Apply(files, []FileUpdate{{Name: "Item_Map.txt", Content: "new", Type: FileItem, Op: OpUpdate}}, 5)
	if !next["Item_Map.txt"].Hidden {
		t.Fatal("omitted hidden flag should keep the previous value")
	}

	next = Apply(files, []FileUpdate{{Name: "Item_Map.txt", Content: "new", Type: FileItem, Op: OpUpdate, Hidden: boolPtr(false)}}, 5)
	if next["Item_Map.txt"].Hidden {
		t.Fatal("explicit hidden=false should reveal the file")
	}
}

func TestResolve(t *testing.T) {
	files := FileSet{
		"Player_alice.txt":   {Name: "Player_alice.txt"},
		"Location_Crypt.txt": {Name: "Location_Crypt.txt"},
		"Item_Iron_Key.txt":  {Name: "Item_Iron_Key.txt"},
	}

	cases := []struct {
		ref  string
		want string
	}{
		{"[Iron_Key]", "Item_Iron_Key.txt"},
		{"Location_Crypt (north)", "Location_Crypt.txt"},
		{"Player_alice.txt", "Player_alice.txt"},
	}
	for _, tc := range cases {
		got, ok := Resolve(files, tc.ref)
		if !ok || got.Name != tc.want {
			t.Fatalf("Resolve(%q) = %q ok=%v, want %q", tc.ref, got.Name, ok, tc.want)
		}
	}

	if _, ok := Resolve(files, "Nonexistent_Thing"); ok {
		t.Fatal("expected no match")
	}
	if _, ok := Resolve(files, "()"); ok {
		t.Fatal("empty reference should not match")
	}
}

func TestIsDeadContent(t *testing.T) {
	if !IsDeadContent("Status: DEAD\nInventory: none") {
		t.Fatal("status marker not detected")
	}
	if !IsDeadContent("Health: 0/10") {
		t.Fatal("health marker not detected")
	}
	if IsDeadContent("Health: 10\nStatus: Bleeding") {
		t.Fatal("false positive")
	}
}

func TestOwnsFile(t *testing.T) {
	f := File{Name: "Player_alice.txt"}
	if !OwnsFile(f, "alice") {
		t.Fatal("owner not recognized")
	}
	if OwnsFile(f, "bob") || OwnsFile(f, "") {
		t.Fatal("non-owner recognized")
	}
}
