package core

import "testing"

func TestColorPalette(t *testing.T) {
	seen := map[string]bool{}
	for i, c := range Colors {
		if c.Index() != i {
			t.Fatalf("color %s: expected index %d, got %d", c, i, c.Index())
		}
		if seen[c.Hex()] {
			t.Fatalf("color %s shares hex value %s", c, c.Hex())
		}
		seen[c.Hex()] = true

		parsed, err := ParseColor(" " + c.String() + " ")
		if err != nil || parsed != c {
			t.Fatalf("ParseColor(%q) = %v, %v", c.String(), parsed, err)
		}
	}

	if _, err := ParseColor("none"); err == nil {
		t.Fatalf("expected error for none")
	}
	if ColorNone.Valid() || Color(9).Valid() {
		t.Fatalf("out of palette colors reported valid")
	}
}

func TestColorIndexPanicsOnNone(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	ColorNone.Index()
}

func TestCellNotation(t *testing.T) {
	tests := []struct {
		cell Cell
		want string
	}{
		{Cell{0, 0}, "a1"},
		{Cell{7, 7}, "h8"},
		{Cell{3, 4}, "d5"},
		{Cell{8, 0}, "--"},
		{Cell{0, -1}, "--"},
	}
	for _, tt := range tests {
		if got := tt.cell.String(); got != tt.want {
			t.Fatalf("%v: expected %q, got %q", tt.cell, tt.want, got)
		}
		if tt.want == "--" {
			continue
		}
		back, err := ParseCell(tt.want)
		if err != nil || back != tt.cell {
			t.Fatalf("ParseCell(%q) = %v, %v", tt.want, back, err)
		}
	}

	for _, bad := range []string{"", "a", "i1", "a9", "a0", "a10"} {
		if _, err := ParseCell(bad); err == nil {
			t.Fatalf("ParseCell(%q): expected error", bad)
		}
	}
}

func TestSideGeometry(t *testing.T) {
	if SideWhite.Forward() != 1 || SideBlack.Forward() != -1 {
		t.Fatalf("unexpected forward directions")
	}
	if SideWhite.HomeRow() != 0 || SideBlack.HomeRow() != 7 {
		t.Fatalf("unexpected home rows")
	}
	if OppositeSide(SideWhite) != SideBlack || OppositeSide(SideBlack) != SideWhite {
		t.Fatalf("OppositeSide broken")
	}
}

func TestTurnState(t *testing.T) {
	start := StartTurn()
	if !start.IsStart() || start.Selected() || start.Side != SideWhite {
		t.Fatalf("unexpected start turn %+v", start)
	}
	if start.String() != "start" {
		t.Fatalf("expected start, got %s", start)
	}

	start.Color = Pink
	if !start.Selected() || start.String() != "start(pink)" {
		t.Fatalf("unexpected selected start %s", start)
	}

	active := ActiveTurn(SideBlack, Brown)
	if active.IsStart() || active.String() != "Black(brown)" {
		t.Fatalf("unexpected active turn %s", active)
	}
}

func TestNewPlayer(t *testing.T) {
	p := NewPlayer(PlayerConfig{Type: PlayerComputer, Level: 2}, SideBlack)
	if p.ID == "" || p.Side != SideBlack || p.Level != 2 {
		t.Fatalf("unexpected player %+v", p)
	}
	if PlayerHuman.String() != "human" || PlayerComputer.String() != "computer" {
		t.Fatalf("unexpected player type names")
	}
}
