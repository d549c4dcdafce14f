package store

import "testing"

func TestPrizeCRUD(t *testing.T) {
	db := setupTestDB(t)
	ps := NewPrizeStore(db)

	big, err := ps.Create("Bike", 200)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	ps.Create("Sticker", 5)
	ps.Create("Book", 5)

	prizes, err := ps.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"Book", "Sticker", "Bike"}
	if len(prizes) != len(want) {
		t.Fatalf("prizes = %d, want %d", len(prizes), len(want))
	}
	for i, title := range want {
		if prizes[i].Title != title {
			t.Errorf("prizes[%d] = %q, want %q", i, prizes[i].Title, title)
		}
	}

	if err := ps.Delete(big.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := ps.GetByID(big.ID); got != nil {
		t.Error("prize still present after delete")
	}
	if _, err := ps.Create("Free", 0); err == nil {
		t.Error("expected check constraint error for zero cost")
	}
}
