//go:build !headless

package host

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/intuitionamiga/doombridge/internal/event"
)

func TestKeyTranslation_Enter(t *testing.T) {
	code, ok := translateEbitenKey(ebiten.KeyEnter)
	if !ok {
		t.Fatal("expected enter translation")
	}
	if got := event.MapKey(code.scan, code.sym); got != event.KEY_ENTER {
		t.Fatalf("expected KEY_ENTER, got %d", got)
	}
}

func TestKeyTranslation_ArrowLeft(t *testing.T) {
	code, ok := translateEbitenKey(ebiten.KeyArrowLeft)
	if !ok {
		t.Fatal("expected arrow-left translation")
	}
	if got := event.MapKey(code.scan, code.sym); got != event.KEY_LEFTARROW {
		t.Fatalf("expected KEY_LEFTARROW, got 0x%02X", got)
	}
}

func TestKeyTranslation_Printable(t *testing.T) {
	code, ok := translateEbitenKey(ebiten.KeyQ)
	if !ok {
		t.Fatal("expected printable translation")
	}
	if got := event.MapKey(code.scan, code.sym); got != 'q' {
		t.Fatalf("expected 'q', got 0x%02X", got)
	}
}

func TestKeyTranslation_Unmapped(t *testing.T) {
	if _, ok := translateEbitenKey(ebiten.KeyCapsLock); ok {
		t.Fatal("expected caps lock to be ignored")
	}
}
