package credential

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
)

func TestStoreRoundTrip(t *testing.T) {
	s := NewStore(keyring.NewArrayKeyring(nil))

	if _, err := s.Get("drive-token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on empty ring err = %v, want ErrNotFound", err)
	}

	if err := s.Set("drive-token", "secret"); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get("drive-token")
	if err != nil {
		t.Fatal(err)
	}
	if got != "secret" {
		t.Errorf("Get = %q", got)
	}

	if err := s.Delete("drive-token"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("drive-token"); err != nil {
		t.Errorf("second Delete err = %v", err)
	}
	if _, err := s.Get("drive-token"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete err = %v", err)
	}
}
