package store

import (
	"testing"
	"time"
)

func TestCashOutRecordAndLast(t *testing.T) {
	db := setupTestDB(t)
	cos := NewCashOutStore(db)

	if last, err := cos.Last("a"); err != nil || last != nil {
		t.Fatalf("Last with no history = %+v, %v", last, err)
	}

	first, err := cos.Record("a", 4, testNow)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if first.Amount != 4 || !first.ResetAt.Equal(testNow) {
		t.Errorf("cash-out = %+v", first)
	}
	second, _ := cos.Record("a", 6, testNow.Add(time.Hour))

	last, err := cos.Last("a")
	if err != nil {
		t.Fatalf("last: %v", err)
	}
	if last.ID != second.ID {
		t.Errorf("last = %d, want %d", last.ID, second.ID)
	}
}

func TestCashOutRejectsZeroAmount(t *testing.T) {
	db := setupTestDB(t)
	if _, err := NewCashOutStore(db).Record("a", 0, testNow); err == nil {
		t.Error("expected check constraint error for zero amount")
	}
}

func TestCashOutListAndTotal(t *testing.T) {
	db := setupTestDB(t)
	cos := NewCashOutStore(db)

	cos.Record("a", 1, testNow)
	cos.Record("b", 2, testNow.Add(time.Minute))
	cos.Record("a", 3, testNow.Add(2*time.Minute))

	all, err := cos.List("")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].Amount != 3 || all[2].Amount != 1 {
		t.Errorf("all = %+v, want newest first", all)
	}

	onlyA, _ := cos.List("a")
	if len(onlyA) != 2 {
		t.Errorf("a = %d entries, want 2", len(onlyA))
	}

	total, err := cos.TotalPaidOut()
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 6 {
		t.Errorf("total = %d, want 6", total)
	}
}
