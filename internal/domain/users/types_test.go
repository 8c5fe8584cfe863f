package users

import "testing"

func TestPasswordSetAndCompare(t *testing.T) {
	var u User
	if err := u.Password.Set("motdepasse"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if len(u.Password.Hash()) == 0 {
		t.Fatal("no hash stored")
	}
	if err := u.Password.Compare("motdepasse"); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}
	if err := u.Password.Compare("autrechose"); err == nil {
		t.Error("wrong password accepted")
	}
}

func TestPasswordRehydratedFromHash(t *testing.T) {
	var u User
	if err := u.Password.Set("secret1"); err != nil {
		t.Fatal(err)
	}

	var loaded User
	loaded.Password.SetHash(u.Password.Hash())
	if err := loaded.Password.Compare("secret1"); err != nil {
		t.Errorf("hash round trip broken: %v", err)
	}
}
