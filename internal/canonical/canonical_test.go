package canonical

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"BTS World Tour", "btsworldtour"},
		{"BTS  World   Tour!!", "btsworldtour"},
		{"[단독판매] 임영웅 콘서트 - IM HERO", "단독판매임영웅콘서트imhero"},
		{"뮤지컬 <레미제라블>", "뮤지컬레미제라블"},
		{"NCT_127", "nct_127"},
		{"", ""},
		{"!!! ---", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKeyCollapsesFormattingVariants(t *testing.T) {
	names := []string{"BTS World Tour", "bts world tour", "BTS  World   Tour!!"}
	want := Key(names[0])
	for _, n := range names[1:] {
		if got := Key(n); got != want {
			t.Errorf("Key(%q) = %s, want %s", n, got, want)
		}
	}
	if Key("BTS World Tour 2") == want {
		t.Error("distinct titles produced the same key")
	}
}

func TestFingerprintStable(t *testing.T) {
	// Pinned: sha256("") truncated. Changing the hash invalidates persisted snapshots.
	got := Fingerprint("")
	if got != "e3b0c44298fc1c14" {
		t.Fatalf("Fingerprint(\"\") = %s", got)
	}
	if len(Key("아이유 콘서트")) != FingerprintLen {
		t.Fatalf("fingerprint length = %d", len(Key("아이유 콘서트")))
	}
	for i := 0; i < 3; i++ {
		if Key("아이유 콘서트") != Key("아이유 콘서트") {
			t.Fatal("Key is not deterministic")
		}
	}
}

func TestEmptyNamesShareKey(t *testing.T) {
	if Key("") != EmptyKey || Key("   ") != EmptyKey || Key("★☆") != EmptyKey {
		t.Fatal("unnamed records should all map to EmptyKey")
	}
}
