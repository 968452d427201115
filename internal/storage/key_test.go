package storage

import (
	"testing"
	"time"

	"github.com/your-org/fieldsight/internal/models"
)

func TestArtifactKeyGuest(t *testing.T) {
	ts := time.UnixMilli(1700000000000)
	acct := models.Account{Kind: models.AccountKindGuest, ID: "ephemeral"}

	key := ArtifactKey(acct, "Rosa", ts)
	want := "images/guests/Rosa_1700000000000.jpg"
	if key != want {
		t.Fatalf("got %q, want %q", key, want)
	}
}

func TestArtifactKeyRegistered(t *testing.T) {
	ts := time.UnixMilli(1700000000000)
	acct := models.NewRegisteredAccount("user-42", "me@example.com")

	key := ArtifactKey(acct, "Vulpes vulpes", ts)
	want := "images/users/user-42/Vulpes_vulpes_1700000000000.jpg"
	if key != want {
		t.Fatalf("got %q, want %q", key, want)
	}
}

func TestArtifactKeySanitizesClassName(t *testing.T) {
	ts := time.UnixMilli(42)
	acct := models.Account{Kind: models.AccountKindGuest}

	key := ArtifactKey(acct, "a/b\\c d", ts)
	want := "images/guests/a_b_c_d_42.jpg"
	if key != want {
		t.Fatalf("got %q, want %q", key, want)
	}
}

func TestArtifactKeyDistinctTimestampsDoNotCollide(t *testing.T) {
	acct := models.NewRegisteredAccount("u1", "")

	k1 := ArtifactKey(acct, "Rosa", time.UnixMilli(1000))
	k2 := ArtifactKey(acct, "Rosa", time.UnixMilli(1001))
	if k1 == k2 {
		t.Fatalf("keys for distinct timestamps collided: %q", k1)
	}
}
